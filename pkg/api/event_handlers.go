package api

import (
	"errors"
	"net/http"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/httputil"
	"github.com/epicevents/crm/pkg/perm"
	"github.com/epicevents/crm/pkg/transition"
)

// listEvents handles GET /events
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	decision := s.checker.CanListEvents(actor)
	s.observeDecision("event", perm.OpList, actor, decision)

	filter, err := parseEventFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	events, err := s.store.ListEventsForActor(r.Context(), actor, filter)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("listing events failed")
		httputil.WriteDomainError(w, err)
		return
	}
	if events == nil {
		events = []*crm.Event{}
	}
	httputil.WriteSuccess(w, events)
}

// createEvent handles POST /events
func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	decision := s.checker.CanCreateEvent(actor)
	s.observeDecision("event", perm.OpCreate, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	var incoming crm.Event
	if !httputil.ParseJSONOrError(w, r, &incoming) {
		return
	}

	contract, err := s.store.GetContract(r.Context(), incoming.ContractID)
	if err != nil {
		var notFound *crm.NotFoundError
		if errors.As(err, &notFound) {
			httputil.WriteBadRequest(w, "Unknown contract.")
			return
		}
		httputil.WriteDomainError(w, err)
		return
	}

	// A contract carries at most one event.
	if _, err := s.store.GetEventByContract(r.Context(), contract.ID); err == nil {
		httputil.WriteBadRequest(w, "Contract already has an event.")
		return
	} else {
		var notFound *crm.NotFoundError
		if !errors.As(err, &notFound) {
			httputil.WriteDomainError(w, err)
			return
		}
	}

	if err := transition.EventCreate(actor, contract, &incoming); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if err := s.store.CreateEvent(r.Context(), &incoming); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("creating event failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, incoming)
}

// getEvent handles GET /events/{id}
func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	event, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	contract, err := s.store.GetContract(r.Context(), event.ContractID)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("loading event contract failed")
		httputil.WriteDomainError(w, err)
		return
	}

	decision := s.checker.CanRetrieveEvent(actor, event, contract)
	s.observeDecision("event", perm.OpRetrieve, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}
	httputil.WriteSuccess(w, event)
}

// updateEvent handles PUT /events/{id}
func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	current, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	contract, err := s.store.GetContract(r.Context(), current.ContractID)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("loading event contract failed")
		httputil.WriteDomainError(w, err)
		return
	}

	// Lock check comes first: a finished event is immutable for
	// everyone, assigned support and management included.
	decision := s.checker.CanUpdateEvent(actor, current, contract)
	s.observeDecision("event", perm.OpUpdate, actor, decision)
	if !decision.Allowed {
		httputil.WriteDomainError(w, decision.Err)
		return
	}

	var incoming crm.Event
	if !httputil.ParseJSONOrError(w, r, &incoming) {
		return
	}
	if err := transition.EventUpdate(current, &incoming); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if err := s.store.UpdateEvent(r.Context(), &incoming); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("updating event failed")
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteAccepted(w, incoming)
}
