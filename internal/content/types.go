package content

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("content: not found")
	ErrAlreadyExists = errors.New("content: already exists")
	ErrInvalidInput  = errors.New("content: invalid input")
	ErrUnauthorized  = errors.New("content: unauthorized")
)

// Status is the lifecycle state of a blog.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Banner references an externally hosted asset.
type Banner struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Blog is a tenant-scoped post with denormalized engagement counters.
type Blog struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id"`
	AuthorID      string    `json:"author_id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Status        Status    `json:"status"`
	Banner        Banner    `json:"banner"`
	ViewsCount    int64     `json:"viewsCount"`
	LikesCount    int64     `json:"likesCount"`
	CommentsCount int64     `json:"commentsCount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateParams are the inputs for blog creation.
type CreateParams struct {
	Title   string
	Content string
	Status  Status
	Banner  Banner
}

// UpdateParams carry a partial update; nil means unchanged.
type UpdateParams struct {
	Title   *string
	Content *string
	Status  *Status
	Banner  *Banner
}

// Sort keys accepted by blog listings.
const (
	SortCreatedAt  = "createdAt"
	SortViewsCount = "viewsCount"
	SortLikesCount = "likesCount"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// Page is an offset pagination request. Normalize clamps it to the
// documented bounds before it reaches a store.
type Page struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
}

var blogSortKeys = map[string]struct{}{
	SortCreatedAt:  {},
	SortViewsCount: {},
	SortLikesCount: {},
}

// Normalize clamps page to ≥1 and limit to [1,50] (default 10), and
// restricts the sort key to the allow-list, defaulting to createdAt desc.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if _, ok := blogSortKeys[p.SortBy]; !ok {
		p.SortBy = SortCreatedAt
	}
	if p.Order != OrderAsc && p.Order != OrderDesc {
		p.Order = OrderDesc
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// BlogPage is a listing result with pagination metadata.
type BlogPage struct {
	Blogs       []*Blog `json:"blogs"`
	CurrentPage int     `json:"currentPage"`
	Limit       int     `json:"limit"`
	TotalBlogs  int     `json:"totalBlogs"`
	TotalPages  int     `json:"totalPages"`
	HasMore     bool    `json:"hasMore"`
}

// NewBlogPage derives the pagination envelope from a normalized page and
// the total row count. HasMore is true iff page < totalPages.
func NewBlogPage(blogs []*Blog, p Page, total int) *BlogPage {
	totalPages := (total + p.Limit - 1) / p.Limit
	return &BlogPage{
		Blogs:       blogs,
		CurrentPage: p.Page,
		Limit:       p.Limit,
		TotalBlogs:  total,
		TotalPages:  totalPages,
		HasMore:     p.Page < totalPages,
	}
}
