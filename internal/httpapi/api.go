package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"inkwell.org/internal/content"
	"inkwell.org/internal/engagement"
	"inkwell.org/internal/identity"
	"inkwell.org/internal/obs"
)

// ReadyProbe reports readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the identity, content, and engagement services.
type API struct {
	mux        *http.ServeMux
	identity   *identity.Service
	content    *content.Service
	engagement *engagement.Service
	readyProbe ReadyProbe
	version    string
}

func New(identitySvc *identity.Service, contentSvc *content.Service, engagementSvc *engagement.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		identity:   identitySvc,
		content:    contentSvc,
		engagement: engagementSvc,
		readyProbe: rp,
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// tenants and sessions
	a.mux.HandleFunc("/v1/organization", a.handleOrganization)
	a.mux.HandleFunc("/v1/auth/register", a.handleAuthRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleAuthLogin)
	a.mux.HandleFunc("/v1/auth/refresh-token", a.handleAuthRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleAuthLogout)

	// content and engagement
	a.mux.HandleFunc("/v1/blog/create", a.handleBlogCreate)
	a.mux.HandleFunc("/v1/blog", a.handleBlogCollection)
	a.mux.HandleFunc("/v1/blog/", a.handleBlogTree)
	a.mux.HandleFunc("/v1/comments/", a.handleCommentResource)
	a.mux.HandleFunc("/v1/user/", a.handleUserTree)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = a.withTenant(h)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 40, 20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "inkwell-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "inkwell-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- envelope helpers ---

// Error codes carried in the response envelope.
const (
	codeValidation    = "VALIDATION_ERROR"
	codeNotFound      = "RESOURCE_NOT_FOUND"
	codeAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	codeUnauthorized  = "UNAUTHORIZED_ACCESS"
	codeUsageExceeded = "USAGE_EXCEEDED"
	codeInternal      = "INTERNAL_SERVER_ERROR"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, msg string, data any) {
	writeJSON(w, code, envelope{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, code int, errorCode, msg string) {
	writeJSON(w, code, errorEnvelope{
		Success:   false,
		Message:   msg,
		ErrorCode: errorCode,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, codeValidation, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleServiceError translates sentinel errors from any service into the
// envelope's status and error code. Authenticated-but-forbidden surfaces as
// 403; unauthenticated as 401.
func (a *API) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	_, authenticated := identity.UserFromContext(r.Context())
	switch {
	case errors.Is(err, identity.ErrInvalidInput),
		errors.Is(err, content.ErrInvalidInput),
		errors.Is(err, engagement.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, identity.ErrAlreadyExists),
		errors.Is(err, content.ErrAlreadyExists),
		errors.Is(err, engagement.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, codeAlreadyExists, err.Error())
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, engagement.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, identity.ErrUsageExceeded):
		writeError(w, r, http.StatusTooManyRequests, codeUsageExceeded, err.Error())
	case errors.Is(err, identity.ErrInvalidPassword),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrTokenExpired),
		errors.Is(err, identity.ErrInvalidAPIKey),
		errors.Is(err, identity.ErrInactiveAPIKey):
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case errors.Is(err, identity.ErrUnauthorized),
		errors.Is(err, content.ErrUnauthorized),
		errors.Is(err, engagement.ErrUnauthorized):
		if authenticated {
			writeError(w, r, http.StatusForbidden, codeUnauthorized, err.Error())
		} else {
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, err.Error())
		}
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
