package api

import (
	"net/http"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/httputil"
	"github.com/epicevents/crm/pkg/perm"
	"github.com/epicevents/crm/pkg/transition"
)

// listClients handles GET /clients
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	decision := s.checker.CanListClients(actor)
	s.observeDecision("client", perm.OpList, actor, decision)

	filter, err := parseClientFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	clients, err := s.store.ListClientsForActor(r.Context(), actor, filter)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("listing clients failed")
		httputil.WriteDomainError(w, err)
		return
	}
	if clients == nil {
		clients = []*crm.Client{}
	}
	httputil.WriteSuccess(w, clients)
}

// createClient handles POST /clients
func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	decision := s.checker.CanCreateClient(actor)
	s.observeDecision("client", perm.OpCreate, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	var incoming crm.Client
	if !httputil.ParseJSONOrError(w, r, &incoming) {
		return
	}
	if err := transition.ClientCreate(actor, &incoming); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if err := s.store.CreateClient(r.Context(), &incoming); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("creating client failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, incoming)
}

// getClient handles GET /clients/{id}
func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	client, err := s.store.GetClient(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	decision, err := s.checker.CanRetrieveClient(r.Context(), actor, client)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("client retrieve check failed")
		httputil.WriteDomainError(w, err)
		return
	}
	s.observeDecision("client", perm.OpRetrieve, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}
	httputil.WriteSuccess(w, client)
}

// updateClient handles PUT /clients/{id}
func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	current, err := s.store.GetClient(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	decision := s.checker.CanUpdateClient(actor, current)
	s.observeDecision("client", perm.OpUpdate, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	var incoming crm.Client
	if !httputil.ParseJSONOrError(w, r, &incoming) {
		return
	}
	if err := transition.ClientUpdate(actor, current, &incoming); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if err := s.store.UpdateClient(r.Context(), &incoming); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("updating client failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteAccepted(w, incoming)
}

// deleteClient handles DELETE /clients/{id}
func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	client, err := s.store.GetClient(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	decision := s.checker.CanDeleteClient(actor, client)
	s.observeDecision("client", perm.OpDelete, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	if err := s.store.DeleteClient(r.Context(), id); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("deleting client failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
