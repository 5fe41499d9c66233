package transition

import (
	"github.com/epicevents/crm/pkg/crm"
)

// ClientCreate validates a new client and applies forced fields. The
// sales contact is never taken from the payload: a converted client is
// owned by the creating actor, a prospect has no owner.
func ClientCreate(actor crm.User, incoming *crm.Client) error {
	forceClientOwner(actor, incoming)
	return nil
}

// ClientUpdate validates an update against the stored client. The
// prospect-to-converted transition is one-way: reverting is rejected
// with the converted-client detail. Ownership follows the status flag,
// overriding any payload value.
func ClientUpdate(actor crm.User, current, incoming *crm.Client) error {
	if current.Status && !incoming.Status {
		return &crm.ValidationError{Detail: crm.DetailConvertedClientStatus}
	}
	incoming.ID = current.ID
	incoming.CreatedAt = current.CreatedAt
	forceClientOwner(actor, incoming)
	return nil
}

func forceClientOwner(actor crm.User, client *crm.Client) {
	if client.Status {
		id := actor.ID
		client.SalesContactID = &id
	} else {
		client.SalesContactID = nil
	}
}

// ContractCreate validates a new contract against its client. Contracts
// attach only to converted clients, and ownership is always the
// creating actor.
func ContractCreate(actor crm.User, client *crm.Client, incoming *crm.Contract) error {
	if !client.Status {
		return crm.NewValidationError("Cannot create a contract for an unconverted client.")
	}
	if incoming.Amount <= 0 {
		return crm.NewValidationError("Contract amount must be positive.")
	}
	incoming.ClientID = client.ID
	incoming.SalesContactID = actor.ID
	return nil
}

// ContractUpdate validates an update against the stored contract. The
// client reference is preserved from the stored row, and the sales
// contact is reassigned to the editing actor. The signed-contract lock
// is enforced by the authorization rules before this runs.
func ContractUpdate(actor crm.User, current, incoming *crm.Contract) error {
	if incoming.Amount <= 0 {
		return crm.NewValidationError("Contract amount must be positive.")
	}
	incoming.ID = current.ID
	incoming.ClientID = current.ClientID
	incoming.CreatedAt = current.CreatedAt
	incoming.SalesContactID = actor.ID
	return nil
}

// EventCreate validates a new event against its contract. Events attach
// only to signed contracts, and the support contact starts unassigned
// regardless of the payload.
func EventCreate(actor crm.User, contract *crm.Contract, incoming *crm.Event) error {
	if !contract.Status {
		return crm.NewValidationError("Cannot create an event for an unsigned contract.")
	}
	if incoming.Attendees <= 0 {
		return crm.NewValidationError("Event attendees must be positive.")
	}
	incoming.ContractID = contract.ID
	incoming.SupportContactID = nil
	return nil
}

// EventUpdate validates an update against the stored event. The
// contract reference is immutable: a payload naming a different
// contract is rejected before anything else, and an omitted reference
// is filled from the stored row. The support contact is always read
// from the stored event; reassignment happens through the admin tool,
// never through the API payload.
func EventUpdate(current, incoming *crm.Event) error {
	if incoming.ContractID != 0 && incoming.ContractID != current.ContractID {
		return &crm.ValidationError{Detail: crm.DetailRelatedContract}
	}
	if incoming.Attendees <= 0 {
		return crm.NewValidationError("Event attendees must be positive.")
	}
	incoming.ID = current.ID
	incoming.ContractID = current.ContractID
	incoming.CreatedAt = current.CreatedAt
	incoming.SupportContactID = current.SupportContactID
	return nil
}
