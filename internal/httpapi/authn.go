package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"inkwell.org/internal/identity"
)

const (
	apiKeyHeader = "x-api-key"
	authHeader   = "Authorization"
	bearer       = "Bearer "

	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

var publicPaths = []string{
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withTenant resolves the x-api-key header into the tenant. Registration
// and the operational endpoints stay reachable without a key.
func (a *API) withTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/v1/organization" && r.Method == http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
		if key == "" {
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
			return
		}
		org, err := a.identity.AuthenticateAPIKey(r.Context(), key)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidAPIKey),
				errors.Is(err, identity.ErrInactiveAPIKey),
				errors.Is(err, identity.ErrNotFound):
				writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
			case errors.Is(err, identity.ErrUnauthorized):
				writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "organization is not active")
			default:
				writeError(w, r, http.StatusInternalServerError, codeInternal, "authentication error")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.ContextWithOrganization(r.Context(), org)))
	})
}

// withAuth resolves the access token into the actor on session-scoped
// routes. The token comes from the Authorization header or, failing
// that, the accessToken cookie.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || !requiresSession(r) {
			next.ServeHTTP(w, r)
			return
		}
		org, ok := identity.OrganizationFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
			return
		}

		token := extractAccessToken(r)
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "access token is required")
			return
		}
		user, err := a.identity.AuthenticateAccessToken(r.Context(), token, org.ID)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidToken),
				errors.Is(err, identity.ErrTokenExpired),
				errors.Is(err, identity.ErrUnauthorized),
				errors.Is(err, identity.ErrNotFound):
				writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "invalid access token")
			default:
				writeError(w, r, http.StatusInternalServerError, codeInternal, "authentication error")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.ContextWithUser(r.Context(), user)))
	})
}

func requiresSession(r *http.Request) bool {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/v1/blog"),
		strings.HasPrefix(path, "/v1/comments"),
		strings.HasPrefix(path, "/v1/user/"):
		return true
	case path == "/v1/organization":
		return r.Method == http.MethodPut || r.Method == http.MethodDelete
	}
	return false
}

func extractAccessToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header != "" && strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		if token := strings.TrimSpace(header[len(bearer):]); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(accessCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func extractRefreshToken(r *http.Request, body string) string {
	if token := strings.TrimSpace(body); token != "" {
		return token
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// actor returns the authenticated user for handlers that need one.
func actor(r *http.Request) (*identity.User, bool) {
	return identity.UserFromContext(r.Context())
}
