package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/epicevents/crm/pkg/auth"
	"github.com/epicevents/crm/pkg/contextkeys"
	"github.com/epicevents/crm/pkg/crm"
	"github.com/epicevents/crm/pkg/httputil"
)

// AuthContext holds the authenticated collaborator for a request.
type AuthContext struct {
	User  crm.User
	Token auth.APIToken
}

// Authenticator resolves a bearer token to an identity. *auth.Manager
// implements it; tests substitute fakes.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		identity, err := m.authenticator.ValidateToken(r.Context(), parts[1])
		if err != nil {
			// One message for every failure mode so callers cannot
			// probe which tokens exist.
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		authCtx := &AuthContext{User: identity.User, Token: identity.Token}
		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthContext extracts auth context from request
func GetAuthContext(r *http.Request) *AuthContext {
	ctx := r.Context().Value(contextkeys.AuthKey)
	if ctx == nil {
		return nil
	}
	authCtx, ok := ctx.(*AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
