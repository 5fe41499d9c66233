package storage

import (
	"context"
	"strings"
	"time"

	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/perm"
)

// ClientFilter narrows client list results. Zero values mean no filter.
type ClientFilter struct {
	Status *bool
	Search string // prefix match on name, email and company fields
}

// ContractFilter narrows contract list results.
type ContractFilter struct {
	Status        *bool
	AmountMin     *float64
	AmountMax     *float64
	PaymentDueGTE *time.Time
	PaymentDueLTE *time.Time
}

// EventFilter narrows event list results.
type EventFilter struct {
	EventStatus  *bool
	AttendeesMin *int
	AttendeesMax *int
	EventDateGTE *time.Time
	EventDateLTE *time.Time
	Search       string // prefix match on name and location
}

// ClientStore provides client persistence.
type ClientStore interface {
	CreateClient(ctx context.Context, client *crm.Client) error
	GetClient(ctx context.Context, id int64) (*crm.Client, error)
	UpdateClient(ctx context.Context, client *crm.Client) error
	DeleteClient(ctx context.Context, id int64) error
	ListClients(ctx context.Context, filter ClientFilter) ([]*crm.Client, error)
	ListClientsForActor(ctx context.Context, actor crm.User, filter ClientFilter) ([]*crm.Client, error)
}

// ContractStore provides contract persistence.
type ContractStore interface {
	CreateContract(ctx context.Context, contract *crm.Contract) error
	GetContract(ctx context.Context, id int64) (*crm.Contract, error)
	UpdateContract(ctx context.Context, contract *crm.Contract) error
	ListContracts(ctx context.Context, filter ContractFilter) ([]*crm.Contract, error)
	ListContractsForActor(ctx context.Context, actor crm.User, filter ContractFilter) ([]*crm.Contract, error)
}

// EventStore provides event persistence.
type EventStore interface {
	CreateEvent(ctx context.Context, event *crm.Event) error
	GetEvent(ctx context.Context, id int64) (*crm.Event, error)
	UpdateEvent(ctx context.Context, event *crm.Event) error
	GetEventByContract(ctx context.Context, contractID int64) (*crm.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*crm.Event, error)
	ListEventsForActor(ctx context.Context, actor crm.User, filter EventFilter) ([]*crm.Event, error)
}

// UserStore provides read access to identity records. Provisioning
// happens through the identity store in pkg/auth and the admin tool.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*crm.User, error)
}

// Store is the full persistence surface consumed by the API layer. It
// includes the perm.Relations lookups so a store can be handed directly
// to the authorization engine.
type Store interface {
	ClientStore
	ContractStore
	EventStore
	UserStore
	perm.Relations

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// matchesPrefix reports whether any of the fields starts with the
// search term, case-insensitively. Shared by backends that filter in
// process; SQL backends express the same predicate with ILIKE.
func matchesPrefix(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
