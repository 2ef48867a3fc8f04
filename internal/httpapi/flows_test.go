package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"inkwell.org/internal/content"
)

type blogPayload struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	ViewsCount    int64  `json:"viewsCount"`
	LikesCount    int64  `json:"likesCount"`
	CommentsCount int64  `json:"commentsCount"`
}

func TestOrganizationLifecycle(t *testing.T) {
	ta := newTestAPI(t)
	apiKey := ta.registerOrg("acme", "https://acme.example.com")

	// Slug uniqueness is enforced at registration.
	resp := ta.do(http.MethodPost, "/v1/organization", map[string]string{
		"name":   "Acme Again",
		"slug":   "acme",
		"domain": "https://other.example.com",
		"plan":   "starter",
	}, nil)
	if resp.Status != http.StatusConflict {
		t.Fatalf("duplicate slug: status = %d, want 409", resp.Status)
	}
	if resp.ErrorCode != codeAlreadyExists {
		t.Errorf("errorCode = %q, want %q", resp.ErrorCode, codeAlreadyExists)
	}

	resp = ta.do(http.MethodGet, "/v1/organization", nil, keyHeaders(apiKey))
	if resp.Status != http.StatusOK {
		t.Fatalf("get org: status = %d", resp.Status)
	}
	var org struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	resp.decodeData(t, &org)
	if org.Slug != "acme" {
		t.Errorf("slug = %q", org.Slug)
	}

	ta.registerUser(apiKey, "member", "member@acme.example.com", "s3cret-pass", "org_user")
	ta.registerUser(apiKey, "owner", "owner@acme.example.com", "s3cret-pass", "org_admin")
	memberToken, _ := ta.login(apiKey, "member", "s3cret-pass")
	ownerToken, _ := ta.login(apiKey, "owner", "s3cret-pass")

	// Plain members cannot change the tenant.
	newName := map[string]any{"name": "Acme Renamed"}
	resp = ta.do(http.MethodPut, "/v1/organization", newName, sessionHeaders(apiKey, memberToken))
	if resp.Status != http.StatusForbidden {
		t.Fatalf("member update: status = %d, want 403", resp.Status)
	}

	resp = ta.do(http.MethodPut, "/v1/organization", newName, sessionHeaders(apiKey, ownerToken))
	if resp.Status != http.StatusOK {
		t.Fatalf("admin update: status = %d message %q", resp.Status, resp.Message)
	}
	var updated struct {
		Name string `json:"name"`
	}
	resp.decodeData(t, &updated)
	if updated.Name != "Acme Renamed" {
		t.Errorf("name = %q", updated.Name)
	}

	resp = ta.do(http.MethodDelete, "/v1/organization", nil, sessionHeaders(apiKey, ownerToken))
	if resp.Status != http.StatusOK {
		t.Fatalf("admin delete: status = %d", resp.Status)
	}
	// The key dies with the tenant.
	resp = ta.do(http.MethodGet, "/v1/organization", nil, keyHeaders(apiKey))
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("after delete: status = %d, want 401", resp.Status)
	}
}

func TestPublishingFlow(t *testing.T) {
	ta := newTestAPI(t)
	apiKey := ta.registerOrg("acme", "https://acme.example.com")
	authorID := ta.registerUser(apiKey, "alice", "alice@acme.example.com", "s3cret-pass", "org_user")
	token, _ := ta.login(apiKey, "alice", "s3cret-pass")
	hdrs := sessionHeaders(apiKey, token)

	resp := ta.do(http.MethodPost, "/v1/blog/create", map[string]string{
		"title":   "Hello, Inkwell!",
		"content": "<p>Welcome aboard.</p><script>alert(1)</script>",
		"status":  "published",
	}, hdrs)
	if resp.Status != http.StatusCreated {
		t.Fatalf("create blog: status = %d message %q", resp.Status, resp.Message)
	}
	if got := resp.Header.Get("Location"); got != "/v1/blog/hello-inkwell" {
		t.Errorf("Location = %q", got)
	}
	var blog blogPayload
	resp.decodeData(t, &blog)
	if blog.Slug != "hello-inkwell" {
		t.Errorf("slug = %q", blog.Slug)
	}
	if strings.Contains(blog.Content, "script") {
		t.Errorf("content not sanitized: %q", blog.Content)
	}
	if blog.ViewsCount != 0 || blog.LikesCount != 0 || blog.CommentsCount != 0 {
		t.Errorf("counters not zeroed: %+v", blog)
	}

	// Same title, same slug: conflict.
	resp = ta.do(http.MethodPost, "/v1/blog/create", map[string]string{
		"title":   "Hello, Inkwell!",
		"content": "again",
		"status":  "draft",
	}, hdrs)
	if resp.Status != http.StatusConflict {
		t.Fatalf("duplicate slug: status = %d, want 409", resp.Status)
	}

	// Each read bumps the view counter.
	for want := int64(1); want <= 2; want++ {
		resp = ta.do(http.MethodGet, "/v1/blog/hello-inkwell", nil, hdrs)
		if resp.Status != http.StatusOK {
			t.Fatalf("get blog: status = %d", resp.Status)
		}
		var got blogPayload
		resp.decodeData(t, &got)
		if got.ViewsCount != want {
			t.Errorf("viewsCount = %d, want %d", got.ViewsCount, want)
		}
	}

	resp = ta.do(http.MethodPost, "/v1/blog/"+blog.ID+"/comments", map[string]string{
		"content": "Great <b>post</b>!",
	}, hdrs)
	if resp.Status != http.StatusCreated {
		t.Fatalf("create comment: status = %d message %q", resp.Status, resp.Message)
	}
	var comment struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	resp.decodeData(t, &comment)
	if strings.Contains(comment.Content, "<") {
		t.Errorf("comment not sanitized: %q", comment.Content)
	}

	resp = ta.do(http.MethodGet, "/v1/blog/"+blog.ID+"/comments", nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("list comments: status = %d", resp.Status)
	}
	var commentPage struct {
		Comments      []struct{ ID string } `json:"comments"`
		TotalComments int                   `json:"totalComments"`
	}
	resp.decodeData(t, &commentPage)
	if commentPage.TotalComments != 1 || len(commentPage.Comments) != 1 {
		t.Errorf("comment page = %+v", commentPage)
	}

	resp = ta.do(http.MethodGet, "/v1/user/"+authorID+"/comments", nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("user comments: status = %d", resp.Status)
	}

	resp = ta.do(http.MethodPut, "/v1/comments/"+comment.ID, map[string]string{
		"content": "Edited remark",
	}, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("update comment: status = %d message %q", resp.Status, resp.Message)
	}

	resp = ta.do(http.MethodPost, "/v1/blog/"+blog.ID+"/like", nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("like: status = %d message %q", resp.Status, resp.Message)
	}
	var likes struct {
		LikesCount int64 `json:"likesCount"`
	}
	resp.decodeData(t, &likes)
	if likes.LikesCount != 1 {
		t.Errorf("likesCount = %d, want 1", likes.LikesCount)
	}

	resp = ta.do(http.MethodPost, "/v1/blog/"+blog.ID+"/like", nil, hdrs)
	if resp.Status != http.StatusConflict {
		t.Fatalf("duplicate like: status = %d, want 409", resp.Status)
	}

	resp = ta.do(http.MethodPost, "/v1/blog/"+blog.ID+"/unlike", nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("unlike: status = %d", resp.Status)
	}
	resp = ta.do(http.MethodPost, "/v1/blog/"+blog.ID+"/unlike", nil, hdrs)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("unlike again: status = %d, want 404", resp.Status)
	}

	resp = ta.do(http.MethodDelete, "/v1/comments/"+comment.ID, nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("delete comment: status = %d", resp.Status)
	}

	resp = ta.do(http.MethodDelete, "/v1/blog/delete/"+blog.ID, nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("delete blog: status = %d", resp.Status)
	}
	resp = ta.do(http.MethodGet, "/v1/blog/hello-inkwell", nil, hdrs)
	if resp.Status != http.StatusNotFound {
		t.Errorf("after delete: status = %d, want 404", resp.Status)
	}
}

func TestDraftVisibility(t *testing.T) {
	ta := newTestAPI(t)
	apiKey := ta.registerOrg("acme", "https://acme.example.com")
	ta.registerUser(apiKey, "author", "author@acme.example.com", "s3cret-pass", "org_user")
	ta.registerUser(apiKey, "reader", "reader@acme.example.com", "s3cret-pass", "org_user")
	authorToken, _ := ta.login(apiKey, "author", "s3cret-pass")
	readerToken, _ := ta.login(apiKey, "reader", "s3cret-pass")

	resp := ta.do(http.MethodPost, "/v1/blog/create", map[string]string{
		"title":   "Work in Progress",
		"content": "not ready",
		"status":  "draft",
	}, sessionHeaders(apiKey, authorToken))
	if resp.Status != http.StatusCreated {
		t.Fatalf("create draft: status = %d", resp.Status)
	}

	// The author sees the draft; another member gets a 403.
	resp = ta.do(http.MethodGet, "/v1/blog/work-in-progress", nil, sessionHeaders(apiKey, authorToken))
	if resp.Status != http.StatusOK {
		t.Errorf("author read: status = %d", resp.Status)
	}
	resp = ta.do(http.MethodGet, "/v1/blog/work-in-progress", nil, sessionHeaders(apiKey, readerToken))
	if resp.Status != http.StatusForbidden {
		t.Errorf("reader read: status = %d, want 403", resp.Status)
	}

	// Listings hide the draft from everyone but the author.
	resp = ta.do(http.MethodGet, "/v1/blog", nil, sessionHeaders(apiKey, readerToken))
	var page struct {
		TotalBlogs int `json:"totalBlogs"`
	}
	resp.decodeData(t, &page)
	if page.TotalBlogs != 0 {
		t.Errorf("reader listing totalBlogs = %d, want 0", page.TotalBlogs)
	}
	resp = ta.do(http.MethodGet, "/v1/blog", nil, sessionHeaders(apiKey, authorToken))
	resp.decodeData(t, &page)
	if page.TotalBlogs != 1 {
		t.Errorf("author listing totalBlogs = %d, want 1", page.TotalBlogs)
	}
}

func TestTenantIsolation(t *testing.T) {
	ta := newTestAPI(t)
	acmeKey := ta.registerOrg("acme", "https://acme.example.com")
	globexKey := ta.registerOrg("globex", "https://globex.example.com")
	ta.registerUser(acmeKey, "alice", "alice@acme.example.com", "s3cret-pass", "org_user")
	ta.registerUser(globexKey, "bob", "bob@globex.example.com", "s3cret-pass", "org_user")
	aliceToken, _ := ta.login(acmeKey, "alice", "s3cret-pass")
	bobToken, _ := ta.login(globexKey, "bob", "s3cret-pass")

	resp := ta.do(http.MethodPost, "/v1/blog/create", map[string]string{
		"title":   "Acme Secrets",
		"content": "internal",
		"status":  "published",
	}, sessionHeaders(acmeKey, aliceToken))
	if resp.Status != http.StatusCreated {
		t.Fatalf("create: status = %d", resp.Status)
	}

	// Another tenant's session sees nothing, not a permission error.
	resp = ta.do(http.MethodGet, "/v1/blog/acme-secrets", nil, sessionHeaders(globexKey, bobToken))
	if resp.Status != http.StatusNotFound {
		t.Errorf("cross-tenant read: status = %d, want 404", resp.Status)
	}

	// A token minted for one tenant is rejected under another tenant's key.
	resp = ta.do(http.MethodGet, "/v1/blog", nil, sessionHeaders(globexKey, aliceToken))
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("cross-tenant token: status = %d, want 401", resp.Status)
	}
}

func TestUserQuota(t *testing.T) {
	ta := newTestAPI(t)
	apiKey := ta.registerOrg("acme", "https://acme.example.com")

	// The starter plan holds five users; the strict greater-than admits a
	// sixth, then the quota trips.
	names := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	for _, name := range names {
		ta.registerUser(apiKey, name, name+"@acme.example.com", "s3cret-pass", "org_user")
	}

	resp := ta.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "u7",
		"email":    "u7@acme.example.com",
		"password": "s3cret-pass",
	}, keyHeaders(apiKey))
	if resp.Status != http.StatusTooManyRequests {
		t.Fatalf("over quota: status = %d, want 429", resp.Status)
	}
	if resp.ErrorCode != codeUsageExceeded {
		t.Errorf("errorCode = %q, want %q", resp.ErrorCode, codeUsageExceeded)
	}
}

func TestPaginationClamps(t *testing.T) {
	ta := newTestAPI(t)
	apiKey := ta.registerOrg("acme", "https://acme.example.com")
	ta.registerUser(apiKey, "alice", "alice@acme.example.com", "s3cret-pass", "org_user")
	token, _ := ta.login(apiKey, "alice", "s3cret-pass")
	hdrs := sessionHeaders(apiKey, token)

	for _, title := range []string{"One", "Two", "Three"} {
		resp := ta.do(http.MethodPost, "/v1/blog/create", map[string]string{
			"title":   title,
			"content": "body",
			"status":  "published",
		}, hdrs)
		if resp.Status != http.StatusCreated {
			t.Fatalf("create %s: status = %d", title, resp.Status)
		}
	}

	resp := ta.do(http.MethodGet, "/v1/blog?limit=1000&page=0&sortBy=password", nil, hdrs)
	if resp.Status != http.StatusOK {
		t.Fatalf("list: status = %d", resp.Status)
	}
	var page content.BlogPage
	resp.decodeData(t, &page)
	if page.Limit != 50 {
		t.Errorf("limit = %d, want 50", page.Limit)
	}
	if page.CurrentPage != 1 {
		t.Errorf("currentPage = %d, want 1", page.CurrentPage)
	}
	if page.TotalBlogs != 3 || len(page.Blogs) != 3 {
		t.Errorf("totalBlogs = %d len = %d, want 3", page.TotalBlogs, len(page.Blogs))
	}
	if page.HasMore {
		t.Error("hasMore = true on single page")
	}
}

func TestRefreshAndLogout(t *testing.T) {
	ta := newTestAPI(t)
	apiKey := ta.registerOrg("acme", "https://acme.example.com")
	ta.registerUser(apiKey, "alice", "alice@acme.example.com", "s3cret-pass", "org_user")
	_, refreshToken := ta.login(apiKey, "alice", "s3cret-pass")

	resp := ta.do(http.MethodPost, "/v1/auth/refresh-token", map[string]string{
		"refreshToken": refreshToken,
	}, keyHeaders(apiKey))
	if resp.Status != http.StatusOK {
		t.Fatalf("refresh: status = %d message %q", resp.Status, resp.Message)
	}
	var refreshed struct {
		AccessToken string `json:"accessToken"`
	}
	resp.decodeData(t, &refreshed)
	if refreshed.AccessToken == "" {
		t.Fatal("no access token in refresh response")
	}

	// The refreshed access token carries a live session.
	resp = ta.do(http.MethodGet, "/v1/blog", nil, sessionHeaders(apiKey, refreshed.AccessToken))
	if resp.Status != http.StatusOK {
		t.Errorf("refreshed session: status = %d", resp.Status)
	}

	resp = ta.do(http.MethodPost, "/v1/auth/logout", map[string]string{
		"refreshToken": refreshToken,
	}, keyHeaders(apiKey))
	if resp.Status != http.StatusOK {
		t.Fatalf("logout: status = %d", resp.Status)
	}

	// The revoked refresh token cannot mint new access tokens.
	resp = ta.do(http.MethodPost, "/v1/auth/refresh-token", map[string]string{
		"refreshToken": refreshToken,
	}, keyHeaders(apiKey))
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d, want 401", resp.Status)
	}
}
