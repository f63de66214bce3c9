package httpapi

import (
	"context"
	"net/http"
	"strings"
)

// Authenticator resolves an opaque bearer token to a principal identifier.
// Identity management itself lives outside this service.
type Authenticator interface {
	PrincipalForToken(token string) (string, bool)
}

// StaticTokenAuthenticator resolves principals from a fixed token map loaded
// from configuration at startup.
type StaticTokenAuthenticator struct {
	tokens map[string]string
}

func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	if tokens == nil {
		tokens = map[string]string{}
	}
	return &StaticTokenAuthenticator{tokens: tokens}
}

func (a *StaticTokenAuthenticator) PrincipalForToken(token string) (string, bool) {
	principal, ok := a.tokens[token]
	return principal, ok
}

type principalKey struct{}

func principalFrom(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// withPrincipal resolves an optional bearer token. A request without an
// Authorization header passes through anonymous; a token that does not
// resolve is rejected outright.
func (s *Server) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid authorization header", "")
			return
		}
		principal, ok := s.auth.PrincipalForToken(strings.TrimSpace(token))
		if !ok {
			respondError(w, http.StatusUnauthorized, "unknown token", "")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePrincipal rejects anonymous requests on principal-scoped routes.
func (s *Server) requirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principalFrom(r.Context()) == "" {
			respondError(w, http.StatusUnauthorized, "authentication required", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
