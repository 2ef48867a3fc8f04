package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                "/",
		"/metrics":                        "/metrics",
		"/v1/organization":                "/v1/organization",
		"/v1/blog/create":                 "/v1/blog/create",
		"/v1/blog/my-first-post":          "/v1/blog/:slug",
		"/v1/blog/my-first-post?x=1":      "/v1/blog/:slug",
		"/v1/blog/user/01ABCDEF":          "/v1/blog/user/:id",
		"/v1/blog/delete/01ABCDEF":        "/v1/blog/delete/:id",
		"/v1/blog/01ABCDEF/comments":      "/v1/blog/:id/comments",
		"/v1/blog/01ABCDEF/like":          "/v1/blog/:id/like",
		"/v1/blog/01ABCDEF/unlike":        "/v1/blog/:id/unlike",
		"/v1/comments/01ABCDEF":           "/v1/comments/:id",
		"/v1/user/01ABCDEF/comments":      "/v1/user/:id/comments",
		"/v1/auth/login":                  "/v1/auth/login",
		"/v1/auth/refresh-token?page=2":   "/v1/auth/refresh-token",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
