// Package perm implements the authorization engine for the CRM: pure
// decision functions answering whether an actor may list, create,
// retrieve, update or delete a client, contract or event.
//
// # Rule model
//
// Every entity/operation pair is governed by an explicit ordered rule
// list, evaluated top-down with first match winning. The ordering makes
// precedence auditable:
//
//  1. State locks (signed contract, finished event) come first, so a
//     terminal entity rejects updates from any actor with the state
//     specific reason rather than a generic permission failure.
//  2. Management override: management reads everything and writes
//     nothing through the API.
//  3. Team gates: the operation must be available to the actor's team.
//  4. Ownership gates: the actor must own or support the target.
//
// A request matching no rule is denied.
//
// # Decisions
//
// Checks return a Decision naming the matched rule, a human-readable
// reason, and, for denials, the typed error (crm.PermissionError or
// crm.StateLockedError) the boundary layer translates into a response:
//
//	d := checker.CanUpdateContract(actor, contract)
//	if !d.Allowed {
//		return d.Err
//	}
//
// # Purity
//
// The engine performs no writes and holds no mutable state; decisions
// are deterministic given their inputs, and a Checker is safe for
// concurrent use. The only external input is the Relations interface,
// which answers reachability facts for support actors (does this actor
// support an event attached to this client or contract). Stores
// implement Relations; everything else is carried in by the caller.
package perm
