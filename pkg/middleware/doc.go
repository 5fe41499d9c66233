// Package middleware provides HTTP middleware for authentication,
// request identification and rate limiting.
//
// AuthMiddleware validates the Bearer token on every request and stores
// the resolved collaborator in the request context:
//
//	authMW := middleware.NewAuthMiddleware(manager)
//	router.Use(authMW.Handler)
//	...
//	actor := middleware.GetAuthContext(r).User
//
// RequestIDMiddleware assigns every request a UUID, echoed back in the
// X-Request-ID response header and attached to log lines.
//
// RateLimitMiddleware applies a per-collaborator sliding window limit;
// unauthenticated requests share a single bucket keyed by remote address.
package middleware
