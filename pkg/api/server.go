package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/middleware"
	"github.com/epicevents/crm/pkg/observability"
	"github.com/epicevents/crm/pkg/perm"
	"github.com/epicevents/crm/pkg/storage"
)

// Server represents our API server
type Server struct {
	store   storage.Store
	checker *perm.Checker
	logger  *observability.Logger
	metrics *observability.Metrics
	router  *mux.Router
}

// NewServer creates a new API server. metrics may be nil.
func NewServer(store storage.Store, logger *observability.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		store:   store,
		checker: perm.NewChecker(store),
		logger:  logger,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Router returns the configured route handler.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Client routes
	s.router.HandleFunc("/clients", s.createClient).Methods("POST")
	s.router.HandleFunc("/clients", s.listClients).Methods("GET")
	s.router.HandleFunc("/clients/{id}", s.getClient).Methods("GET")
	s.router.HandleFunc("/clients/{id}", s.updateClient).Methods("PUT")
	s.router.HandleFunc("/clients/{id}", s.deleteClient).Methods("DELETE")

	// Contract routes
	s.router.HandleFunc("/contracts", s.createContract).Methods("POST")
	s.router.HandleFunc("/contracts", s.listContracts).Methods("GET")
	s.router.HandleFunc("/contracts/{id}", s.getContract).Methods("GET")
	s.router.HandleFunc("/contracts/{id}", s.updateContract).Methods("PUT")

	// Event routes
	s.router.HandleFunc("/events", s.createEvent).Methods("POST")
	s.router.HandleFunc("/events", s.listEvents).Methods("GET")
	s.router.HandleFunc("/events/{id}", s.getEvent).Methods("GET")
	s.router.HandleFunc("/events/{id}", s.updateEvent).Methods("PUT")
}

// actor resolves the authenticated collaborator placed in the request
// context by the auth middleware.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (crm.User, bool) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil {
		s.logger.WithContext(r.Context()).Warn("request reached handler without auth context")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"authentication required"}`))
		return crm.User{}, false
	}
	return authCtx.User, true
}

// observeDecision records an authorization decision for metrics.
func (s *Server) observeDecision(entity string, op perm.Operation, actor crm.User, d perm.Decision) {
	if s.metrics != nil {
		s.metrics.ObserveAuthzDecision(entity, string(op), string(actor.Team), d.Allowed)
	}
}
