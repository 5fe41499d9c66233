package api

import (
	"errors"
	"net/http"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/httputil"
	"github.com/epicevents/crm/pkg/perm"
	"github.com/epicevents/crm/pkg/transition"
)

// listContracts handles GET /contracts
func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	decision := s.checker.CanListContracts(actor)
	s.observeDecision("contract", perm.OpList, actor, decision)

	filter, err := parseContractFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	contracts, err := s.store.ListContractsForActor(r.Context(), actor, filter)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("listing contracts failed")
		httputil.WriteDomainError(w, err)
		return
	}
	if contracts == nil {
		contracts = []*crm.Contract{}
	}
	httputil.WriteSuccess(w, contracts)
}

// createContract handles POST /contracts
func (s *Server) createContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	decision := s.checker.CanCreateContract(actor)
	s.observeDecision("contract", perm.OpCreate, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	var incoming crm.Contract
	if !httputil.ParseJSONOrError(w, r, &incoming) {
		return
	}

	client, err := s.store.GetClient(r.Context(), incoming.ClientID)
	if err != nil {
		var notFound *crm.NotFoundError
		if errors.As(err, &notFound) {
			httputil.WriteBadRequest(w, "Unknown client.")
			return
		}
		httputil.WriteDomainError(w, err)
		return
	}

	if err := transition.ContractCreate(actor, client, &incoming); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if err := s.store.CreateContract(r.Context(), &incoming); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("creating contract failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, incoming)
}

// getContract handles GET /contracts/{id}
func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	contract, err := s.store.GetContract(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	decision, err := s.checker.CanRetrieveContract(r.Context(), actor, contract)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("contract retrieve check failed")
		httputil.WriteDomainError(w, err)
		return
	}
	s.observeDecision("contract", perm.OpRetrieve, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}
	httputil.WriteSuccess(w, contract)
}

// updateContract handles PUT /contracts/{id}
func (s *Server) updateContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	current, err := s.store.GetContract(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	// Lock check comes first: a signed contract is immutable for
	// everyone, owner and management included.
	decision := s.checker.CanUpdateContract(actor, current)
	s.observeDecision("contract", perm.OpUpdate, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	var incoming crm.Contract
	if !httputil.ParseJSONOrError(w, r, &incoming) {
		return
	}
	if err := transition.ContractUpdate(actor, current, &incoming); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if err := s.store.UpdateContract(r.Context(), &incoming); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("updating contract failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteAccepted(w, incoming)
}
