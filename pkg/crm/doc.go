// Package crm defines the core domain model for the Epic Events CRM:
// users and their teams, clients, contracts, and events, together with
// the typed error taxonomy shared across the service.
//
// # Entities
//
// The three business entities form an ownership chain:
//
//	Client 1-* Contract (contracts require a converted client)
//	Contract 1-1 Event  (events require a signed contract)
//
// Each entity carries a lifecycle flag that locks it down once set:
//
//	Client.Status      - false: prospect, true: converted (one-way)
//	Contract.Status    - false: unsigned, true: signed (immutable once true)
//	Event.EventStatus  - false: upcoming, true: completed (immutable once true)
//
// # Teams
//
// Team is a closed enumeration of exactly three values: management, sales
// and support. There is no teams table and no runtime mutation surface;
// adding or removing a team is a code change. ParseTeam rejects anything
// outside the fixed set.
//
// # Errors
//
// Four error types classify every domain failure:
//
//	ValidationError  - malformed or state-inconsistent input (HTTP 400)
//	PermissionError  - actor lacks rights under team/ownership rules (HTTP 403)
//	NotFoundError    - a referenced id does not resolve (HTTP 404)
//	StateLockedError - entity is in a terminal state (HTTP 403)
//
// StateLockedError is kept distinct from PermissionError because the rule
// is triggered by entity state, not actor identity. All four unwrap
// cleanly with errors.As, and the boundary layer is the only place they
// are translated into transport responses.
package crm
