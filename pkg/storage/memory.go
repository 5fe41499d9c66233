package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/epicevents/crm/pkg/crm"
)

// MemoryStore is an in-memory Store backed by mutex-guarded maps. It is
// the test backend and doubles as a throwaway local development store.
type MemoryStore struct {
	mu sync.RWMutex

	clients   map[int64]*crm.Client
	contracts map[int64]*crm.Contract
	events    map[int64]*crm.Event
	users     map[int64]*crm.User

	nextClientID   int64
	nextContractID int64
	nextEventID    int64
	nextUserID     int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:   make(map[int64]*crm.Client),
		contracts: make(map[int64]*crm.Contract),
		events:    make(map[int64]*crm.Event),
		users:     make(map[int64]*crm.User),
	}
}

// HealthCheck always succeeds for the in-memory backend.
func (m *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// AddUser registers an identity record. Intended for tests and local
// seeding; production identities live in the SQL backend.
func (m *MemoryStore) AddUser(user crm.User) crm.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		m.nextUserID++
		user.ID = m.nextUserID
	} else if user.ID > m.nextUserID {
		m.nextUserID = user.ID
	}
	u := user
	m.users[u.ID] = &u
	return u
}

func (m *MemoryStore) GetUser(ctx context.Context, id int64) (*crm.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, &crm.NotFoundError{Kind: "user", ID: id}
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) CreateClient(ctx context.Context, client *crm.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextClientID++
	client.ID = m.nextClientID
	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now
	c := *client
	m.clients[c.ID] = &c
	return nil
}

func (m *MemoryStore) GetClient(ctx context.Context, id int64) (*crm.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, &crm.NotFoundError{Kind: "client", ID: id}
	}
	out := *c
	return &out, nil
}

func (m *MemoryStore) UpdateClient(ctx context.Context, client *crm.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return &crm.NotFoundError{Kind: "client", ID: client.ID}
	}
	client.UpdatedAt = time.Now()
	c := *client
	m.clients[c.ID] = &c
	return nil
}

func (m *MemoryStore) DeleteClient(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return &crm.NotFoundError{Kind: "client", ID: id}
	}
	delete(m.clients, id)
	return nil
}

func (m *MemoryStore) ListClients(ctx context.Context, filter ClientFilter) ([]*crm.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listClientsLocked(func(*crm.Client) bool { return true }, filter), nil
}

func (m *MemoryStore) ListClientsForActor(ctx context.Context, actor crm.User, filter ClientFilter) ([]*crm.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var visible func(*crm.Client) bool
	switch actor.Team {
	case crm.TeamManagement:
		visible = func(*crm.Client) bool { return true }
	case crm.TeamSales:
		visible = func(c *crm.Client) bool { return !c.Status || c.OwnedBy(actor.ID) }
	case crm.TeamSupport:
		visible = func(c *crm.Client) bool { return m.supportsClientLocked(actor.ID, c.ID) }
	default:
		visible = func(*crm.Client) bool { return false }
	}
	return m.listClientsLocked(visible, filter), nil
}

func (m *MemoryStore) listClientsLocked(visible func(*crm.Client) bool, filter ClientFilter) []*crm.Client {
	var out []*crm.Client
	for _, c := range m.clients {
		if !visible(c) {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if !matchesPrefix(filter.Search, c.FirstName, c.LastName, c.Email, c.CompanyName) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) CreateContract(ctx context.Context, contract *crm.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[contract.ClientID]; !ok {
		return &crm.NotFoundError{Kind: "client", ID: contract.ClientID}
	}
	m.nextContractID++
	contract.ID = m.nextContractID
	now := time.Now()
	contract.CreatedAt = now
	contract.UpdatedAt = now
	k := *contract
	m.contracts[k.ID] = &k
	return nil
}

func (m *MemoryStore) GetContract(ctx context.Context, id int64) (*crm.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.contracts[id]
	if !ok {
		return nil, &crm.NotFoundError{Kind: "contract", ID: id}
	}
	out := *k
	return &out, nil
}

func (m *MemoryStore) UpdateContract(ctx context.Context, contract *crm.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[contract.ID]; !ok {
		return &crm.NotFoundError{Kind: "contract", ID: contract.ID}
	}
	contract.UpdatedAt = time.Now()
	k := *contract
	m.contracts[k.ID] = &k
	return nil
}

func (m *MemoryStore) ListContracts(ctx context.Context, filter ContractFilter) ([]*crm.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listContractsLocked(func(*crm.Contract) bool { return true }, filter), nil
}

func (m *MemoryStore) ListContractsForActor(ctx context.Context, actor crm.User, filter ContractFilter) ([]*crm.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var visible func(*crm.Contract) bool
	switch actor.Team {
	case crm.TeamManagement:
		visible = func(*crm.Contract) bool { return true }
	case crm.TeamSales:
		visible = func(k *crm.Contract) bool { return k.OwnedBy(actor.ID) }
	case crm.TeamSupport:
		visible = func(k *crm.Contract) bool { return m.supportsContractLocked(actor.ID, k.ID) }
	default:
		visible = func(*crm.Contract) bool { return false }
	}
	return m.listContractsLocked(visible, filter), nil
}

func (m *MemoryStore) listContractsLocked(visible func(*crm.Contract) bool, filter ContractFilter) []*crm.Contract {
	var out []*crm.Contract
	for _, k := range m.contracts {
		if !visible(k) {
			continue
		}
		if filter.Status != nil && k.Status != *filter.Status {
			continue
		}
		if filter.AmountMin != nil && k.Amount < *filter.AmountMin {
			continue
		}
		if filter.AmountMax != nil && k.Amount > *filter.AmountMax {
			continue
		}
		if filter.PaymentDueGTE != nil && k.PaymentDue.Before(*filter.PaymentDueGTE) {
			continue
		}
		if filter.PaymentDueLTE != nil && k.PaymentDue.After(*filter.PaymentDueLTE) {
			continue
		}
		kp := *k
		out = append(out, &kp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) CreateEvent(ctx context.Context, event *crm.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[event.ContractID]; !ok {
		return &crm.NotFoundError{Kind: "contract", ID: event.ContractID}
	}
	m.nextEventID++
	event.ID = m.nextEventID
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	e := *event
	m.events[e.ID] = &e
	return nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id int64) (*crm.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, &crm.NotFoundError{Kind: "event", ID: id}
	}
	out := *e
	return &out, nil
}

func (m *MemoryStore) GetEventByContract(ctx context.Context, contractID int64) (*crm.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.ContractID == contractID {
			out := *e
			return &out, nil
		}
	}
	return nil, &crm.NotFoundError{Kind: "event", ID: contractID}
}

func (m *MemoryStore) UpdateEvent(ctx context.Context, event *crm.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.ID]; !ok {
		return &crm.NotFoundError{Kind: "event", ID: event.ID}
	}
	event.UpdatedAt = time.Now()
	e := *event
	m.events[e.ID] = &e
	return nil
}

func (m *MemoryStore) ListEvents(ctx context.Context, filter EventFilter) ([]*crm.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEventsLocked(func(*crm.Event) bool { return true }, filter), nil
}

func (m *MemoryStore) ListEventsForActor(ctx context.Context, actor crm.User, filter EventFilter) ([]*crm.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var visible func(*crm.Event) bool
	switch actor.Team {
	case crm.TeamManagement:
		visible = func(*crm.Event) bool { return true }
	case crm.TeamSales:
		visible = func(e *crm.Event) bool {
			k, ok := m.contracts[e.ContractID]
			return ok && k.OwnedBy(actor.ID)
		}
	case crm.TeamSupport:
		visible = func(e *crm.Event) bool { return e.SupportedBy(actor.ID) }
	default:
		visible = func(*crm.Event) bool { return false }
	}
	return m.listEventsLocked(visible, filter), nil
}

func (m *MemoryStore) listEventsLocked(visible func(*crm.Event) bool, filter EventFilter) []*crm.Event {
	var out []*crm.Event
	for _, e := range m.events {
		if !visible(e) {
			continue
		}
		if filter.EventStatus != nil && e.EventStatus != *filter.EventStatus {
			continue
		}
		if filter.AttendeesMin != nil && e.Attendees < *filter.AttendeesMin {
			continue
		}
		if filter.AttendeesMax != nil && e.Attendees > *filter.AttendeesMax {
			continue
		}
		if filter.EventDateGTE != nil && e.EventDate.Before(*filter.EventDateGTE) {
			continue
		}
		if filter.EventDateLTE != nil && e.EventDate.After(*filter.EventDateLTE) {
			continue
		}
		if !matchesPrefix(filter.Search, e.Name, e.Location) {
			continue
		}
		ep := *e
		out = append(out, &ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SupportsClient reports whether the user supports an event reachable
// through one of the client's contracts.
func (m *MemoryStore) SupportsClient(ctx context.Context, userID, clientID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supportsClientLocked(userID, clientID), nil
}

// SupportsContract reports whether the user supports the contract's event.
func (m *MemoryStore) SupportsContract(ctx context.Context, userID, contractID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supportsContractLocked(userID, contractID), nil
}

func (m *MemoryStore) supportsClientLocked(userID, clientID int64) bool {
	for _, e := range m.events {
		if !e.SupportedBy(userID) {
			continue
		}
		k, ok := m.contracts[e.ContractID]
		if ok && k.ClientID == clientID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) supportsContractLocked(userID, contractID int64) bool {
	for _, e := range m.events {
		if e.ContractID == contractID && e.SupportedBy(userID) {
			return true
		}
	}
	return false
}
