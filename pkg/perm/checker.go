package perm

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/pkg/crm"
)

// Checker evaluates the per-entity rule lists. It is stateless apart
// from the Relations lookup and safe for concurrent use.
type Checker struct {
	rel Relations
}

// NewChecker creates a checker backed by the given relation lookups.
func NewChecker(rel Relations) *Checker {
	return &Checker{rel: rel}
}

// CanListClients decides LIST for clients. Every team may list; the
// visible subset is computed by the store's scoped queries.
func (c *Checker) CanListClients(actor crm.User) Decision {
	return allow("scoped-list", "list results are scoped to the actor's team")
}

// CanCreateClient decides CREATE for clients.
func (c *Checker) CanCreateClient(actor crm.User) Decision {
	return evaluate(clientCreateRules, actor)
}

// CanRetrieveClient decides RETRIEVE for a client.
func (c *Checker) CanRetrieveClient(ctx context.Context, actor crm.User, client *crm.Client) (Decision, error) {
	in := clientInput{actor: actor, client: client}
	if actor.Team == crm.TeamSupport {
		supports, err := c.rel.SupportsClient(ctx, actor.ID, client.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("checking support link for client %d: %w", client.ID, err)
		}
		in.supports = supports
	}
	return evaluate(clientRetrieveRules, in), nil
}

// CanUpdateClient decides UPDATE for a client.
func (c *Checker) CanUpdateClient(actor crm.User, client *crm.Client) Decision {
	return evaluate(clientUpdateRules, clientInput{actor: actor, client: client})
}

// CanDeleteClient decides DELETE for a client.
func (c *Checker) CanDeleteClient(actor crm.User, client *crm.Client) Decision {
	return evaluate(clientDeleteRules, clientInput{actor: actor, client: client})
}

// CanListContracts decides LIST for contracts.
func (c *Checker) CanListContracts(actor crm.User) Decision {
	return allow("scoped-list", "list results are scoped to the actor's team")
}

// CanCreateContract decides CREATE for contracts. The converted-client
// precondition is a state rule and lives in the transition validator.
func (c *Checker) CanCreateContract(actor crm.User) Decision {
	return evaluate(contractCreateRules, actor)
}

// CanRetrieveContract decides RETRIEVE for a contract.
func (c *Checker) CanRetrieveContract(ctx context.Context, actor crm.User, contract *crm.Contract) (Decision, error) {
	in := contractInput{actor: actor, contract: contract}
	if actor.Team == crm.TeamSupport {
		supports, err := c.rel.SupportsContract(ctx, actor.ID, contract.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("checking support link for contract %d: %w", contract.ID, err)
		}
		in.supports = supports
	}
	return evaluate(contractRetrieveRules, in), nil
}

// CanUpdateContract decides UPDATE for a contract.
func (c *Checker) CanUpdateContract(actor crm.User, contract *crm.Contract) Decision {
	return evaluate(contractUpdateRules, contractInput{actor: actor, contract: contract})
}

// CanDeleteContract decides DELETE for a contract. Always denied.
func (c *Checker) CanDeleteContract(actor crm.User, contract *crm.Contract) Decision {
	return evaluate(contractDeleteRules, contractInput{actor: actor, contract: contract})
}

// CanListEvents decides LIST for events.
func (c *Checker) CanListEvents(actor crm.User) Decision {
	return allow("scoped-list", "list results are scoped to the actor's team")
}

// CanCreateEvent decides CREATE for events. The signed-contract
// precondition is a state rule and lives in the transition validator.
func (c *Checker) CanCreateEvent(actor crm.User) Decision {
	return evaluate(eventCreateRules, actor)
}

// CanRetrieveEvent decides RETRIEVE for an event. The caller supplies
// the event's contract, which carries the sales ownership fact.
func (c *Checker) CanRetrieveEvent(actor crm.User, event *crm.Event, contract *crm.Contract) Decision {
	return evaluate(eventRetrieveRules, eventInput{actor: actor, event: event, contract: contract})
}

// CanUpdateEvent decides UPDATE for an event.
func (c *Checker) CanUpdateEvent(actor crm.User, event *crm.Event, contract *crm.Contract) Decision {
	return evaluate(eventUpdateRules, eventInput{actor: actor, event: event, contract: contract})
}

// CanDeleteEvent decides DELETE for an event. Always denied.
func (c *Checker) CanDeleteEvent(actor crm.User, event *crm.Event, contract *crm.Contract) Decision {
	return evaluate(eventDeleteRules, eventInput{actor: actor, event: event, contract: contract})
}
