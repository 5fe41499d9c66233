// Package auth manages collaborator identities and API tokens.
//
// Every collaborator belongs to exactly one team (management, sales or
// support) and authenticates with an opaque bearer token. Tokens are
// random, prefixed with "crm_" and stored only as SHA-256 hashes; the
// plaintext is returned exactly once at creation time.
//
// The Manager is the single entry point:
//
//	mgr := auth.NewManager(db, 1024)
//	identity, err := mgr.ValidateToken(ctx, bearerToken)
//
// Validation resolves the token hash to an active user, rejecting
// revoked tokens, expired tokens and deactivated accounts. Successful
// lookups are cached in a bounded LRU for a short interval so the hot
// path does not hit the database on every request.
package auth
