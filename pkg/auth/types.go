package auth

import (
	"time"

	"github.com/epicevents/crm/pkg/crm"
)

// APIToken is the stored record of an issued token. The plaintext token
// never persists; only its SHA-256 hash and a short display prefix do.
type APIToken struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Name        string     `json:"name"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"token_prefix"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Revoked reports whether the token has been revoked.
func (t *APIToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired reports whether the token was past its expiry at the given time.
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// Identity is the result of a successful token validation: the
// collaborator and the token they presented.
type Identity struct {
	User  crm.User
	Token APIToken
}
