// Package storage defines the persistence interface for the CRM and an
// in-memory implementation used by tests and local development.
//
// # Store interface
//
// The Store interface composes focused per-entity interfaces
// (ClientStore, ContractStore, EventStore, UserStore) plus the
// perm.Relations reachability lookups consumed by the authorization
// engine. All methods accept context.Context and return typed errors
// from pkg/crm (crm.NotFoundError for missing ids).
//
// # Scoped lists
//
// Each entity exposes two list methods: List* applies only the request
// filter, while List*ForActor additionally restricts the result to the
// subset the actor's team may see:
//
//	clients, err := store.ListClientsForActor(ctx, actor, storage.ClientFilter{})
//
// The scoped subsets mirror the retrieve rules in pkg/perm exactly: an
// entity appears in a scoped list if and only if retrieving it would be
// allowed. Tests assert that equivalence.
//
// # Backends
//
//   - MemoryStore (memory.go): mutex-guarded maps with deterministic
//     ids, for unit tests and local development.
//   - postgres subpackage: database/sql implementation with versioned
//     migrations, used in production via lib/pq.
package storage
