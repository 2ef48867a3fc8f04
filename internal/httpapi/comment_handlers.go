package httpapi

import (
	"net/http"
	"strings"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/engagement"
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleBlogComments serves POST and GET on /v1/blog/{blogId}/comments.
func (a *API) handleBlogComments(w http.ResponseWriter, r *http.Request, blogID string) {
	blogID = strings.TrimSuffix(blogID, "/")
	if blogID == "" || strings.Contains(blogID, "/") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodPost:
		a.createComment(w, r, blogID)
	case http.MethodGet:
		a.listBlogComments(w, r, blogID)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

func (a *API) createComment(w http.ResponseWriter, r *http.Request, blogID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	comment, err := a.engagement.CreateComment(r.Context(), user, org.ID, blogID, req.Content)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "engagement.comment.create", map[string]any{
		"blog_id":    blogID,
		"comment_id": comment.ID,
	})
	writeData(w, http.StatusCreated, "Comment added successfully", comment)
}

func (a *API) listBlogComments(w http.ResponseWriter, r *http.Request, blogID string) {
	org, _, ok := a.session(w, r)
	if !ok {
		return
	}
	page, err := a.engagement.ListByBlog(r.Context(), org.ID, blogID, commentPageFromQuery(r))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Comments fetched successfully", page)
}

// handleCommentResource serves PUT and DELETE on /v1/comments/{commentId}.
func (a *API) handleCommentResource(w http.ResponseWriter, r *http.Request) {
	commentID := strings.TrimPrefix(r.URL.Path, "/v1/comments/")
	commentID = strings.TrimSuffix(commentID, "/")
	if commentID == "" || strings.Contains(commentID, "/") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		a.updateComment(w, r, commentID)
	case http.MethodDelete:
		a.deleteComment(w, r, commentID)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) updateComment(w http.ResponseWriter, r *http.Request, commentID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	comment, err := a.engagement.UpdateComment(r.Context(), user, org.ID, commentID, req.Content)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "engagement.comment.update", map[string]any{
		"comment_id": commentID,
	})
	writeData(w, http.StatusOK, "Comment updated successfully", comment)
}

func (a *API) deleteComment(w http.ResponseWriter, r *http.Request, commentID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}

	if err := a.engagement.DeleteComment(r.Context(), user, org.ID, commentID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "engagement.comment.delete", map[string]any{
		"comment_id": commentID,
	})
	writeData(w, http.StatusOK, "Comment deleted successfully", nil)
}

// handleUserTree serves GET /v1/user/{userId}/comments.
func (a *API) handleUserTree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/user/")
	if !strings.HasSuffix(rest, "/comments") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	userID := strings.TrimSuffix(rest, "/comments")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	org, _, ok := a.session(w, r)
	if !ok {
		return
	}
	page, err := a.engagement.ListByUser(r.Context(), org.ID, userID, commentPageFromQuery(r))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Comments fetched successfully", page)
}

func (a *API) likeBlog(w http.ResponseWriter, r *http.Request, blogID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}
	blog, err := a.engagement.CreateLike(r.Context(), user, org.ID, blogID)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "engagement.like.create", map[string]any{
		"blog_id": blogID,
	})
	writeData(w, http.StatusOK, "Blog liked successfully", map[string]any{
		"likesCount": blog.LikesCount,
	})
}

func (a *API) unlikeBlog(w http.ResponseWriter, r *http.Request, blogID string) {
	org, user, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := a.engagement.RemoveLike(r.Context(), user, org.ID, blogID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "engagement.like.remove", map[string]any{
		"blog_id": blogID,
	})
	writeData(w, http.StatusOK, "Blog unliked successfully", nil)
}

func commentPageFromQuery(r *http.Request) engagement.Page {
	q := r.URL.Query()
	return engagement.Page{
		Page:   atoiDefault(q.Get("page"), 0),
		Limit:  atoiDefault(q.Get("limit"), 0),
		SortBy: strings.TrimSpace(q.Get("sortBy")),
		Order:  strings.TrimSpace(q.Get("order")),
	}
}
