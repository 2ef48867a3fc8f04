package engagement

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("engagement: not found")
	ErrAlreadyExists = errors.New("engagement: already exists")
	ErrInvalidInput  = errors.New("engagement: invalid input")
	ErrUnauthorized  = errors.New("engagement: unauthorized")
)

const maxCommentLen = 1000

// Comment is a tenant-scoped, plain-text reaction to a published blog.
// Comments are soft-deleted: IsDeleted rows stay in storage but are
// excluded from every listing and count.
type Comment struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	BlogID    string    `json:"blog_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like records that a user liked a blog. At most one per (blog, user).
type Like struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	BlogID    string    `json:"blog_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Sort keys accepted by comment listings.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const (
	defaultCommentLimit = 20
	maxCommentLimit     = 50
)

// Page is an offset pagination request for comment listings.
type Page struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
}

// Normalize clamps page to ≥1 and limit to [1,50] (default 20), and
// restricts the sort key to createdAt/updatedAt, defaulting to
// createdAt desc.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultCommentLimit
	}
	if p.Limit > maxCommentLimit {
		p.Limit = maxCommentLimit
	}
	if p.SortBy != SortCreatedAt && p.SortBy != SortUpdatedAt {
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

// CommentPage is a listing result with pagination metadata.
type CommentPage struct {
	Comments      []*Comment `json:"comments"`
	CurrentPage   int        `json:"currentPage"`
	Limit         int        `json:"limit"`
	TotalComments int        `json:"totalComments"`
	TotalPages    int        `json:"totalPages"`
	HasMore       bool       `json:"hasMore"`
}

// NewCommentPage derives the pagination envelope from a normalized page
// and the total row count.
func NewCommentPage(comments []*Comment, p Page, total int) *CommentPage {
	totalPages := (total + p.Limit - 1) / p.Limit
	return &CommentPage{
		Comments:      comments,
		CurrentPage:   p.Page,
		Limit:         p.Limit,
		TotalComments: total,
		TotalPages:    totalPages,
		HasMore:       p.Page < totalPages,
	}
}
