package httpapi

import (
	"net/http"
	"strings"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/identity"
)

type registerOrganizationRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Domain string `json:"domain"`
	Plan   string `json:"plan"`
}

type updateOrganizationRequest struct {
	Name   *string `json:"name"`
	Domain *string `json:"domain"`
	Plan   *string `json:"plan"`
}

type apiKeyResponse struct {
	Key    string `json:"key"`
	KeyID  string `json:"keyId"`
	Prefix string `json:"prefix"`
	Type   string `json:"type"`
}

func (a *API) handleOrganization(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.registerOrganization(w, r)
	case http.MethodGet:
		a.getOrganization(w, r)
	case http.MethodPut:
		a.updateOrganization(w, r)
	case http.MethodDelete:
		a.deleteOrganization(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) registerOrganization(w http.ResponseWriter, r *http.Request) {
	var req registerOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	reg, err := a.identity.RegisterOrganization(r.Context(), identity.RegisterOrganizationParams{
		Name:   req.Name,
		Slug:   req.Slug,
		Domain: req.Domain,
		Plan:   identity.Plan(strings.TrimSpace(req.Plan)),
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "identity.organization.register", map[string]any{
		"org_id": reg.Organization.ID,
		"slug":   reg.Organization.Slug,
		"plan":   string(reg.Organization.Plan),
	})

	writeData(w, http.StatusCreated, "Organization registered successfully", map[string]any{
		"organization": reg.Organization,
		"apiKey": apiKeyResponse{
			Key:    reg.Key,
			KeyID:  reg.APIKey.KeyID,
			Prefix: reg.APIKey.Prefix,
			Type:   string(reg.APIKey.Type),
		},
	})
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, ok := identity.OrganizationFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
		return
	}
	writeData(w, http.StatusOK, "Organization fetched successfully", org)
}

func (a *API) updateOrganization(w http.ResponseWriter, r *http.Request) {
	org, ok := identity.OrganizationFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
		return
	}
	user, _ := actor(r)
	if err := a.identity.RequireRole(user, identity.RoleOrgAdmin); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	var req updateOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	var upd identity.OrganizationUpdate
	upd.Name = req.Name
	upd.Domain = req.Domain
	if req.Plan != nil {
		plan := identity.Plan(strings.TrimSpace(*req.Plan))
		upd.Plan = &plan
	}

	updated, err := a.identity.UpdateOrganization(r.Context(), org.ID, upd)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "identity.organization.update", map[string]any{
		"org_id": org.ID,
	})
	writeData(w, http.StatusOK, "Organization updated successfully", updated)
}

func (a *API) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	org, ok := identity.OrganizationFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
		return
	}
	user, _ := actor(r)
	if err := a.identity.RequireRole(user, identity.RoleOrgAdmin); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	if err := a.identity.DeleteOrganization(r.Context(), org.ID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "identity.organization.delete", map[string]any{
		"org_id": org.ID,
	})
	writeData(w, http.StatusOK, "Organization deleted successfully", nil)
}
