package engagement

import (
	"context"

	"inkwell.org/internal/content"
)

// Store describes persistence operations required by the engagement
// subsystem. Counter/record pairs (comment + commentsCount, like +
// likesCount) execute inside one transaction so a crash can never leave
// them out of sync. The (blog, user) like uniqueness is a storage-layer
// constraint; violations surface as ErrAlreadyExists.
type Store interface {
	// GetBlogForOrg resolves a blog inside the tenant scope.
	GetBlogForOrg(ctx context.Context, orgID, blogID string) (*content.Blog, error)

	// CreateComment inserts the comment and increments the blog's
	// commentsCount in the same transaction.
	CreateComment(ctx context.Context, comment *Comment) error
	// GetComment loads a non-deleted comment in the tenant scope.
	GetComment(ctx context.Context, orgID, id string) (*Comment, error)
	UpdateComment(ctx context.Context, id, text string) (*Comment, error)
	// SoftDeleteComment flags the comment deleted and decrements the
	// blog's commentsCount in the same transaction.
	SoftDeleteComment(ctx context.Context, id, blogID string) error
	ListCommentsByBlog(ctx context.Context, orgID, blogID string, page Page) ([]*Comment, int, error)
	ListCommentsByUser(ctx context.Context, orgID, userID string, page Page) ([]*Comment, int, error)

	// CreateLike inserts the like and increments the blog's likesCount in
	// the same transaction.
	CreateLike(ctx context.Context, like *Like) error
	GetLike(ctx context.Context, blogID, userID string) (*Like, error)
	// DeleteLike removes the like and decrements likesCount, floored at
	// zero, in the same transaction.
	DeleteLike(ctx context.Context, blogID, userID string) error
}
