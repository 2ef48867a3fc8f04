package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/content"
	"inkwell.org/internal/identity"
)

type createBlogRequest struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Status  string          `json:"status"`
	Banner  *content.Banner `json:"banner"`
}

type updateBlogRequest struct {
	Title   *string         `json:"title"`
	Content *string         `json:"content"`
	Status  *string         `json:"status"`
	Banner  *content.Banner `json:"banner"`
}

func (a *API) handleBlogCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}

	var req createBlogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	params := content.CreateParams{
		Title:   req.Title,
		Content: req.Content,
		Status:  content.Status(strings.TrimSpace(req.Status)),
	}
	if req.Banner != nil {
		params.Banner = *req.Banner
	}

	blog, err := a.content.Create(r.Context(), user, org.ID, params)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "content.blog.create", map[string]any{
		"blog_id": blog.ID,
		"slug":    blog.Slug,
	})
	w.Header().Set("Location", "/v1/blog/"+blog.Slug)
	writeData(w, http.StatusCreated, "Blog created successfully", blog)
}

// handleBlogCollection serves GET /v1/blog (listing without trailing slash).
func (a *API) handleBlogCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.listBlogs(w, r)
}

// handleBlogTree dispatches everything under /v1/blog/.
func (a *API) handleBlogTree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/blog/")

	switch {
	case rest == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listBlogs(w, r)
	case strings.HasPrefix(rest, "user/"):
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listBlogsByUser(w, r, strings.TrimPrefix(rest, "user/"))
	case strings.HasPrefix(rest, "delete/"):
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deleteBlog(w, r, strings.TrimPrefix(rest, "delete/"))
	case strings.HasSuffix(rest, "/comments"):
		a.handleBlogComments(w, r, strings.TrimSuffix(rest, "/comments"))
	case strings.HasSuffix(rest, "/like"):
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.likeBlog(w, r, strings.TrimSuffix(rest, "/like"))
	case strings.HasSuffix(rest, "/unlike"):
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.unlikeBlog(w, r, strings.TrimSuffix(rest, "/unlike"))
	case strings.Contains(rest, "/"):
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	default:
		switch r.Method {
		case http.MethodGet:
			a.getBlogBySlug(w, r, rest)
		case http.MethodPut:
			a.updateBlog(w, r, rest)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		}
	}
}

func (a *API) listBlogs(w http.ResponseWriter, r *http.Request) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}
	page, err := a.content.List(r.Context(), user, org.ID, blogPageFromQuery(r))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Blogs fetched successfully", page)
}

func (a *API) listBlogsByUser(w http.ResponseWriter, r *http.Request, userID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}
	page, err := a.content.ListByUser(r.Context(), user, org.ID, userID, blogPageFromQuery(r))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Blogs fetched successfully", page)
}

func (a *API) getBlogBySlug(w http.ResponseWriter, r *http.Request, slug string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}
	blog, err := a.content.GetBySlug(r.Context(), user, org.ID, slug)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Blog fetched successfully", blog)
}

func (a *API) updateBlog(w http.ResponseWriter, r *http.Request, blogID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}

	var req updateBlogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	params := content.UpdateParams{
		Title:   req.Title,
		Content: req.Content,
		Banner:  req.Banner,
	}
	if req.Status != nil {
		status := content.Status(strings.TrimSpace(*req.Status))
		params.Status = &status
	}

	blog, err := a.content.Update(r.Context(), user, org.ID, blogID, params)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "content.blog.update", map[string]any{
		"blog_id": blog.ID,
	})
	writeData(w, http.StatusOK, "Blog updated successfully", blog)
}

func (a *API) deleteBlog(w http.ResponseWriter, r *http.Request, blogID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := a.content.Delete(r.Context(), user, org.ID, blogID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "content.blog.delete", map[string]any{
		"blog_id": blogID,
	})
	writeData(w, http.StatusOK, "Blog deleted successfully", nil)
}

// session pulls the tenant and actor resolved by the middleware chain.
func (a *API) session(w http.ResponseWriter, r *http.Request) (*identity.Organization, *identity.User, bool) {
	org, ok := identity.OrganizationFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "api key is required")
		return nil, nil, false
	}
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "access token is required")
		return nil, nil, false
	}
	return org, user, true
}

func blogPageFromQuery(r *http.Request) content.Page {
	q := r.URL.Query()
	return content.Page{
		Page:   atoiDefault(q.Get("page"), 0),
		Limit:  atoiDefault(q.Get("limit"), 0),
		SortBy: strings.TrimSpace(q.Get("sortBy")),
		Order:  strings.TrimSpace(q.Get("order")),
	}
}

func atoiDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
