package storage

import (
	"context"
	"time"

	"github.com/epicevents/crm/pkg/crm"
)

// OperationObserver receives one callback per store call. Implemented
// by observability.Metrics; defined here so the storage layer does not
// depend on the metrics stack.
type OperationObserver interface {
	ObserveStorageOperation(operation, entity string, duration time.Duration, err error)
}

// InstrumentedStore wraps a Store and reports every operation to an
// observer.
type InstrumentedStore struct {
	next Store
	obs  OperationObserver
}

// NewInstrumentedStore wraps next. A nil observer returns next
// unwrapped.
func NewInstrumentedStore(next Store, obs OperationObserver) Store {
	if obs == nil {
		return next
	}
	return &InstrumentedStore{next: next, obs: obs}
}

func (s *InstrumentedStore) observe(operation, entity string, start time.Time, err error) {
	s.obs.ObserveStorageOperation(operation, entity, time.Since(start), err)
}

func (s *InstrumentedStore) CreateClient(ctx context.Context, client *crm.Client) error {
	start := time.Now()
	err := s.next.CreateClient(ctx, client)
	s.observe("create", "client", start, err)
	return err
}

func (s *InstrumentedStore) GetClient(ctx context.Context, id int64) (*crm.Client, error) {
	start := time.Now()
	client, err := s.next.GetClient(ctx, id)
	s.observe("get", "client", start, err)
	return client, err
}

func (s *InstrumentedStore) UpdateClient(ctx context.Context, client *crm.Client) error {
	start := time.Now()
	err := s.next.UpdateClient(ctx, client)
	s.observe("update", "client", start, err)
	return err
}

func (s *InstrumentedStore) DeleteClient(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.next.DeleteClient(ctx, id)
	s.observe("delete", "client", start, err)
	return err
}

func (s *InstrumentedStore) ListClients(ctx context.Context, filter ClientFilter) ([]*crm.Client, error) {
	start := time.Now()
	clients, err := s.next.ListClients(ctx, filter)
	s.observe("list", "client", start, err)
	return clients, err
}

func (s *InstrumentedStore) ListClientsForActor(ctx context.Context, actor crm.User, filter ClientFilter) ([]*crm.Client, error) {
	start := time.Now()
	clients, err := s.next.ListClientsForActor(ctx, actor, filter)
	s.observe("list_scoped", "client", start, err)
	return clients, err
}

func (s *InstrumentedStore) CreateContract(ctx context.Context, contract *crm.Contract) error {
	start := time.Now()
	err := s.next.CreateContract(ctx, contract)
	s.observe("create", "contract", start, err)
	return err
}

func (s *InstrumentedStore) GetContract(ctx context.Context, id int64) (*crm.Contract, error) {
	start := time.Now()
	contract, err := s.next.GetContract(ctx, id)
	s.observe("get", "contract", start, err)
	return contract, err
}

func (s *InstrumentedStore) UpdateContract(ctx context.Context, contract *crm.Contract) error {
	start := time.Now()
	err := s.next.UpdateContract(ctx, contract)
	s.observe("update", "contract", start, err)
	return err
}

func (s *InstrumentedStore) ListContracts(ctx context.Context, filter ContractFilter) ([]*crm.Contract, error) {
	start := time.Now()
	contracts, err := s.next.ListContracts(ctx, filter)
	s.observe("list", "contract", start, err)
	return contracts, err
}

func (s *InstrumentedStore) ListContractsForActor(ctx context.Context, actor crm.User, filter ContractFilter) ([]*crm.Contract, error) {
	start := time.Now()
	contracts, err := s.next.ListContractsForActor(ctx, actor, filter)
	s.observe("list_scoped", "contract", start, err)
	return contracts, err
}

func (s *InstrumentedStore) CreateEvent(ctx context.Context, event *crm.Event) error {
	start := time.Now()
	err := s.next.CreateEvent(ctx, event)
	s.observe("create", "event", start, err)
	return err
}

func (s *InstrumentedStore) GetEvent(ctx context.Context, id int64) (*crm.Event, error) {
	start := time.Now()
	event, err := s.next.GetEvent(ctx, id)
	s.observe("get", "event", start, err)
	return event, err
}

func (s *InstrumentedStore) UpdateEvent(ctx context.Context, event *crm.Event) error {
	start := time.Now()
	err := s.next.UpdateEvent(ctx, event)
	s.observe("update", "event", start, err)
	return err
}

func (s *InstrumentedStore) GetEventByContract(ctx context.Context, contractID int64) (*crm.Event, error) {
	start := time.Now()
	event, err := s.next.GetEventByContract(ctx, contractID)
	s.observe("get_by_contract", "event", start, err)
	return event, err
}

func (s *InstrumentedStore) ListEvents(ctx context.Context, filter EventFilter) ([]*crm.Event, error) {
	start := time.Now()
	events, err := s.next.ListEvents(ctx, filter)
	s.observe("list", "event", start, err)
	return events, err
}

func (s *InstrumentedStore) ListEventsForActor(ctx context.Context, actor crm.User, filter EventFilter) ([]*crm.Event, error) {
	start := time.Now()
	events, err := s.next.ListEventsForActor(ctx, actor, filter)
	s.observe("list_scoped", "event", start, err)
	return events, err
}

func (s *InstrumentedStore) GetUser(ctx context.Context, id int64) (*crm.User, error) {
	start := time.Now()
	user, err := s.next.GetUser(ctx, id)
	s.observe("get", "user", start, err)
	return user, err
}

func (s *InstrumentedStore) SupportsClient(ctx context.Context, userID, clientID int64) (bool, error) {
	start := time.Now()
	ok, err := s.next.SupportsClient(ctx, userID, clientID)
	s.observe("supports", "client", start, err)
	return ok, err
}

func (s *InstrumentedStore) SupportsContract(ctx context.Context, userID, contractID int64) (bool, error) {
	start := time.Now()
	ok, err := s.next.SupportsContract(ctx, userID, contractID)
	s.observe("supports", "contract", start, err)
	return ok, err
}

func (s *InstrumentedStore) HealthCheck(ctx context.Context) error {
	return s.next.HealthCheck(ctx)
}

var _ Store = (*InstrumentedStore)(nil)
