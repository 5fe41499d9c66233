package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/epicevents/crm/pkg/crm"
)

// Validation failures. Callers map all of them to the same HTTP 401 so
// a probing client cannot distinguish revoked from unknown tokens.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrTokenExpired = errors.New("token has expired")
	ErrUserInactive = errors.New("user account is deactivated")
)

// identityCacheTTL bounds how long a revocation can go unnoticed on the
// hot path.
const identityCacheTTL = 30 * time.Second

type cachedIdentity struct {
	identity Identity
	cachedAt time.Time
}

// Manager issues, validates and revokes API tokens and manages the
// collaborator accounts behind them.
type Manager struct {
	db        *sql.DB
	generator *TokenGenerator
	cache     *lru.Cache[string, cachedIdentity]
	now       func() time.Time
}

// NewManager creates a Manager. cacheSize bounds the validated-identity
// cache; zero or negative disables caching.
func NewManager(db *sql.DB, cacheSize int) (*Manager, error) {
	m := &Manager{
		db:        db,
		generator: NewTokenGenerator(),
		now:       time.Now,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, cachedIdentity](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create identity cache: %w", err)
		}
		m.cache = cache
	}
	return m, nil
}

// CreateUser registers a collaborator account.
func (m *Manager) CreateUser(ctx context.Context, user *crm.User) error {
	if !user.Team.Valid() {
		return fmt.Errorf("invalid team %q", user.Team)
	}
	err := m.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, full_name, team, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.FullName, string(user.Team), user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername looks up a collaborator by username.
func (m *Manager) GetUserByUsername(ctx context.Context, username string) (*crm.User, error) {
	var u crm.User
	var team string
	err := m.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, team, is_active, created_at, updated_at
		FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &team, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Team = crm.Team(team)
	return &u, nil
}

// ListUsers returns all collaborator accounts ordered by id.
func (m *Manager) ListUsers(ctx context.Context) ([]crm.User, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, username, email, full_name, team, is_active, created_at, updated_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []crm.User
	for rows.Next() {
		var u crm.User
		var team string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &team,
			&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Team = crm.Team(team)
		out = append(out, u)
	}
	return out, rows.Err()
}

// CreateToken issues a token for a user. The plaintext token is
// returned once and never stored.
func (m *Manager) CreateToken(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*APIToken, string, error) {
	token, tokenHash, tokenPrefix, err := m.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	apiToken := &APIToken{
		UserID:      userID,
		Name:        name,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		ExpiresAt:   expiresAt,
	}
	err = m.db.QueryRowContext(ctx, `
		INSERT INTO api_tokens (user_id, name, token_hash, token_prefix, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		userID, name, tokenHash, tokenPrefix, expiresAt,
	).Scan(&apiToken.ID, &apiToken.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return apiToken, token, nil
}

// ValidateToken resolves a bearer token to the collaborator behind it.
func (m *Manager) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	if err := m.generator.ValidateTokenFormat(token); err != nil {
		return nil, ErrInvalidToken
	}
	tokenHash := m.generator.HashToken(token)

	if m.cache != nil {
		if entry, ok := m.cache.Get(tokenHash); ok {
			if m.now().Sub(entry.cachedAt) < identityCacheTTL {
				identity := entry.identity
				return &identity, nil
			}
			m.cache.Remove(tokenHash)
		}
	}

	identity, err := m.lookupIdentity(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	// Best effort; a failed timestamp update must not fail the request.
	_, _ = m.db.ExecContext(ctx,
		"UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1", identity.Token.ID)

	if m.cache != nil {
		m.cache.Add(tokenHash, cachedIdentity{identity: *identity, cachedAt: m.now()})
	}
	return identity, nil
}

func (m *Manager) lookupIdentity(ctx context.Context, tokenHash string) (*Identity, error) {
	var id Identity
	var team string
	err := m.db.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, t.name, t.token_prefix, t.expires_at, t.last_used_at, t.revoked_at, t.created_at,
			u.id, u.username, u.email, u.full_name, u.team, u.is_active, u.created_at, u.updated_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1`, tokenHash,
	).Scan(
		&id.Token.ID, &id.Token.UserID, &id.Token.Name, &id.Token.TokenPrefix,
		&id.Token.ExpiresAt, &id.Token.LastUsedAt, &id.Token.RevokedAt, &id.Token.CreatedAt,
		&id.User.ID, &id.User.Username, &id.User.Email, &id.User.FullName,
		&team, &id.User.IsActive, &id.User.CreatedAt, &id.User.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	id.User.Team = crm.Team(team)
	id.Token.TokenHash = tokenHash

	if id.Token.Revoked() {
		return nil, ErrTokenRevoked
	}
	if id.Token.Expired(m.now()) {
		return nil, ErrTokenExpired
	}
	if !id.User.IsActive {
		return nil, ErrUserInactive
	}
	return &id, nil
}

// RevokeToken marks a token revoked. Revoking an already revoked or
// unknown token is an error.
func (m *Manager) RevokeToken(ctx context.Context, tokenID int64) error {
	result, err := m.db.ExecContext(ctx,
		"UPDATE api_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL", tokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revoke result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("token %d not found or already revoked", tokenID)
	}
	// The cache is not keyed by token id, so drop everything.
	if m.cache != nil {
		m.cache.Purge()
	}
	return nil
}

// ListUserTokens returns a user's tokens, newest first.
func (m *Manager) ListUserTokens(ctx context.Context, userID int64) ([]APIToken, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, name, token_prefix, expires_at, last_used_at, revoked_at, created_at
		FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var out []APIToken
	for rows.Next() {
		var t APIToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenPrefix,
			&t.ExpiresAt, &t.LastUsedAt, &t.RevokedAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CleanupExpiredTokens deletes tokens past their expiry and returns the
// number removed.
func (m *Manager) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result, err := m.db.ExecContext(ctx,
		"DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < NOW()")
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleaned tokens: %w", err)
	}
	return affected, nil
}
