// Package transition enforces the cross-entity invariants of the CRM
// write path: it validates a pending create or update against the
// stored entity state and applies the forced-field overrides (sales
// contact assignment, support contact preservation) before persistence.
//
// All functions are pure with respect to external state: they read only
// their arguments, mutate only the incoming entity, and return typed
// errors from pkg/crm. Authorization is not this package's concern;
// callers run pkg/perm checks first.
package transition
