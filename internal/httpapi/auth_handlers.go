package httpapi

import (
	"net/http"
	"strings"
	"time"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/identity"
)

type registerUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	org, ok := identity.OrganizationFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
		return
	}

	var req registerUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	user, err := a.identity.CreateUser(r.Context(), identity.CreateUserParams{
		OrgID:     org.ID,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      identity.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "identity.user.register", map[string]any{
		"org_id":  org.ID,
		"user_id": user.ID,
	})
	writeData(w, http.StatusCreated, "User registered successfully", user)
}

func (a *API) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	org, ok := identity.OrganizationFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	login := strings.TrimSpace(req.Login)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" {
		login = strings.TrimSpace(req.Username)
	}

	pair, user, err := a.identity.Login(r.Context(), org.ID, login, req.Password)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	setSessionCookies(w, pair)
	_ = audit.LogEvent(r.Context(), "identity.user.login", map[string]any{
		"org_id":  org.ID,
		"user_id": user.ID,
	})
	writeData(w, http.StatusOK, "Logged in successfully", map[string]any{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (a *API) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	// body is optional when the refresh token rides in a cookie
	_ = decodeJSON(w, r, &req)
	token := extractRefreshToken(r, req.RefreshToken)
	if token == "" {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "refresh token is required")
		return
	}

	access, expiresAt, err := a.identity.Refresh(r.Context(), token)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    access,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeData(w, http.StatusOK, "Access token refreshed successfully", map[string]any{
		"accessToken": access,
		"expiresAt":   expiresAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	_ = decodeJSON(w, r, &req)
	token := extractRefreshToken(r, req.RefreshToken)
	if token == "" {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "refresh token is required")
		return
	}

	if err := a.identity.Logout(r.Context(), token); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	clearSessionCookies(w)
	_ = audit.LogEvent(r.Context(), "identity.user.logout", nil)
	writeData(w, http.StatusOK, "Logged out successfully", nil)
}

func setSessionCookies(w http.ResponseWriter, pair *identity.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
