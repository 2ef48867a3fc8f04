package content

import "context"

// ListFilter narrows a blog listing. Every query is tenant-scoped by OrgID;
// cross-tenant reads are structurally impossible.
type ListFilter struct {
	OrgID string
	// AuthorID restricts the listing to one author when non-empty.
	AuthorID string
	// PublishedOnly hides drafts from callers without owner/admin rights.
	PublishedOnly bool
}

// Store describes persistence operations required by the content engine.
// (org, slug) uniqueness is a storage-layer constraint; violations surface
// as ErrAlreadyExists even when two creates race past the service.
type Store interface {
	// CreateBlog inserts the blog and increments the organization's
	// currentPosts usage in the same transaction.
	CreateBlog(ctx context.Context, blog *Blog) error
	GetBlog(ctx context.Context, orgID, id string) (*Blog, error)
	GetBlogBySlug(ctx context.Context, orgID, slug string) (*Blog, error)
	ListBlogs(ctx context.Context, filter ListFilter, page Page) ([]*Blog, int, error)
	UpdateBlog(ctx context.Context, blog *Blog) error
	// DeleteBlog hard-deletes the blog, cascades to its comments and likes,
	// and releases the organization's currentPosts usage, all in one
	// transaction.
	DeleteBlog(ctx context.Context, orgID, id string) error
	// IncrementViews bumps viewsCount by one atomically and returns the
	// new value.
	IncrementViews(ctx context.Context, id string) (int64, error)
}
