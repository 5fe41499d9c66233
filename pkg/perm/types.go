package perm

import (
	"context"
	"time"

	"github.com/epicevents/crm/pkg/crm"
)

// Operation represents an operation an actor attempts on an entity.
type Operation string

const (
	OpList     Operation = "list"
	OpCreate   Operation = "create"
	OpRetrieve Operation = "retrieve"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

// Decision is the result of an authorization check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Rule      string    `json:"rule,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Err       error     `json:"-"`
	CheckedAt time.Time `json:"checked_at"`
}

// Relations answers reachability questions for support actors. It is
// the only external dependency of the engine; stores implement it.
type Relations interface {
	// SupportsClient reports whether the user supports at least one
	// event attached to one of the client's contracts.
	SupportsClient(ctx context.Context, userID, clientID int64) (bool, error)

	// SupportsContract reports whether the user supports an event
	// attached to the contract.
	SupportsContract(ctx context.Context, userID, contractID int64) (bool, error)
}

func allow(rule, reason string) Decision {
	return Decision{
		Allowed:   true,
		Rule:      rule,
		Reason:    reason,
		CheckedAt: time.Now(),
	}
}

func deny(rule string, err error) Decision {
	return Decision{
		Rule:      rule,
		Reason:    err.Error(),
		Err:       err,
		CheckedAt: time.Now(),
	}
}

// permissionDenied is the default denial, matching the wording clients
// of the original API already handle.
func permissionDenied(rule string) Decision {
	return deny(rule, crm.NewPermissionError("You do not have permission to perform this action."))
}
