package perm

import (
	"github.com/epicevents/crm/pkg/crm"
)

// rule is one entry in an ordered rule list. Lists are evaluated
// top-down and the first matching rule wins; a request matching no rule
// is denied with the default permission error.
type rule[T any] struct {
	name   string
	when   func(T) bool
	grant  bool
	reason string       // reported on allow
	err    func(T) error // typed error reported on deny; nil means default
}

func evaluate[T any](rules []rule[T], in T) Decision {
	for _, r := range rules {
		if !r.when(in) {
			continue
		}
		if r.grant {
			return allow(r.name, r.reason)
		}
		if r.err == nil {
			return permissionDenied(r.name)
		}
		return deny(r.name, r.err(in))
	}
	return permissionDenied("default-deny")
}

type clientInput struct {
	actor    crm.User
	client   *crm.Client
	supports bool
}

type contractInput struct {
	actor    crm.User
	contract *crm.Contract
	supports bool
}

type eventInput struct {
	actor    crm.User
	event    *crm.Event
	contract *crm.Contract
}

func isManagement[T any](team func(T) crm.Team) func(T) bool {
	return func(in T) bool { return team(in) == crm.TeamManagement }
}

var clientCreateRules = []rule[crm.User]{
	{
		name:   "sales-create",
		when:   func(u crm.User) bool { return u.Team == crm.TeamSales },
		grant:  true,
		reason: "sales actors may create clients",
	},
}

var clientRetrieveRules = []rule[clientInput]{
	{
		name:   "management-read",
		when:   isManagement(func(in clientInput) crm.Team { return in.actor.Team }),
		grant:  true,
		reason: "management reads all clients",
	},
	{
		name:   "sales-prospect",
		when:   func(in clientInput) bool { return in.actor.Team == crm.TeamSales && !in.client.Status },
		grant:  true,
		reason: "prospects are visible to every sales actor",
	},
	{
		name:   "sales-owner",
		when:   func(in clientInput) bool { return in.actor.Team == crm.TeamSales && in.client.OwnedBy(in.actor.ID) },
		grant:  true,
		reason: "actor is the client's sales contact",
	},
	{
		name:   "support-linked-event",
		when:   func(in clientInput) bool { return in.actor.Team == crm.TeamSupport && in.supports },
		grant:  true,
		reason: "actor supports an event for this client",
	},
}

var clientUpdateRules = []rule[clientInput]{
	{
		name: "management-read-only",
		when: isManagement(func(in clientInput) crm.Team { return in.actor.Team }),
	},
	{
		name:   "sales-prospect",
		when:   func(in clientInput) bool { return in.actor.Team == crm.TeamSales && !in.client.Status },
		grant:  true,
		reason: "prospects are editable by every sales actor",
	},
	{
		name:   "sales-owner",
		when:   func(in clientInput) bool { return in.actor.Team == crm.TeamSales && in.client.OwnedBy(in.actor.ID) },
		grant:  true,
		reason: "actor is the client's sales contact",
	},
}

var clientDeleteRules = []rule[clientInput]{
	{
		name: "management-read-only",
		when: isManagement(func(in clientInput) crm.Team { return in.actor.Team }),
	},
	{
		// A converted client is never deletable, ownership does not help.
		name: "converted-client-locked",
		when: func(in clientInput) bool { return in.client.Status },
	},
	{
		name:   "sales-prospect-delete",
		when:   func(in clientInput) bool { return in.actor.Team == crm.TeamSales && !in.client.Status },
		grant:  true,
		reason: "prospects are deletable by sales actors",
	},
}

var contractCreateRules = []rule[crm.User]{
	{
		name:   "sales-create",
		when:   func(u crm.User) bool { return u.Team == crm.TeamSales },
		grant:  true,
		reason: "sales actors may create contracts",
	},
}

var contractRetrieveRules = []rule[contractInput]{
	{
		name:   "management-read",
		when:   isManagement(func(in contractInput) crm.Team { return in.actor.Team }),
		grant:  true,
		reason: "management reads all contracts",
	},
	{
		name:   "sales-owner",
		when:   func(in contractInput) bool { return in.actor.Team == crm.TeamSales && in.contract.OwnedBy(in.actor.ID) },
		grant:  true,
		reason: "actor is the contract's sales contact",
	},
	{
		name:   "support-linked-event",
		when:   func(in contractInput) bool { return in.actor.Team == crm.TeamSupport && in.supports },
		grant:  true,
		reason: "actor supports the contract's event",
	},
}

var contractUpdateRules = []rule[contractInput]{
	{
		// Checked before any identity rule so a signed contract rejects
		// updates from every actor with the state-specific reason.
		name: "signed-contract-locked",
		when: func(in contractInput) bool { return in.contract.Signed() },
		err:  func(contractInput) error { return crm.ErrSignedContract() },
	},
	{
		name: "management-read-only",
		when: isManagement(func(in contractInput) crm.Team { return in.actor.Team }),
	},
	{
		name:   "sales-owner",
		when:   func(in contractInput) bool { return in.actor.Team == crm.TeamSales && in.contract.OwnedBy(in.actor.ID) },
		grant:  true,
		reason: "actor is the contract's sales contact",
	},
}

// Contracts are never deleted through the API.
var contractDeleteRules = []rule[contractInput]{}

var eventCreateRules = []rule[crm.User]{
	{
		name:   "sales-create",
		when:   func(u crm.User) bool { return u.Team == crm.TeamSales },
		grant:  true,
		reason: "sales actors may create events",
	},
}

var eventRetrieveRules = []rule[eventInput]{
	{
		name:   "management-read",
		when:   isManagement(func(in eventInput) crm.Team { return in.actor.Team }),
		grant:  true,
		reason: "management reads all events",
	},
	{
		name:   "sales-contract-owner",
		when:   func(in eventInput) bool { return in.actor.Team == crm.TeamSales && in.contract.OwnedBy(in.actor.ID) },
		grant:  true,
		reason: "actor owns the event's contract",
	},
	{
		name:   "assigned-support-contact",
		when:   func(in eventInput) bool { return in.event.SupportedBy(in.actor.ID) },
		grant:  true,
		reason: "actor is the event's support contact",
	},
}

var eventUpdateRules = []rule[eventInput]{
	{
		// Checked before ownership so the state-specific reason surfaces
		// for every actor.
		name: "finished-event-locked",
		when: func(in eventInput) bool { return in.event.Completed() },
		err:  func(eventInput) error { return crm.ErrFinishedEvent() },
	},
	{
		name: "management-read-only",
		when: isManagement(func(in eventInput) crm.Team { return in.actor.Team }),
	},
	{
		name:   "sales-contract-owner",
		when:   func(in eventInput) bool { return in.actor.Team == crm.TeamSales && in.contract.OwnedBy(in.actor.ID) },
		grant:  true,
		reason: "actor owns the event's contract",
	},
	{
		name:   "support-assigned",
		when:   func(in eventInput) bool { return in.actor.Team == crm.TeamSupport && in.event.SupportedBy(in.actor.ID) },
		grant:  true,
		reason: "actor is the event's support contact",
	},
}

// Events are never deleted through the API.
var eventDeleteRules = []rule[eventInput]{}
