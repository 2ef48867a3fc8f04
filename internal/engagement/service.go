package engagement

import (
	"context"
	"fmt"
	"strings"

	"inkwell.org/internal/content"
	"inkwell.org/internal/identity"
	"inkwell.org/internal/ids"
)

// Service implements comments and likes over published blogs.
type Service struct {
	store     Store
	sanitizer content.Sanitizer
}

// NewService constructs the engagement service.
func NewService(store Store, sanitizer content.Sanitizer) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("engagement: store is required")
	}
	if sanitizer == nil {
		return nil, fmt.Errorf("engagement: sanitizer is required")
	}
	return &Service{store: store, sanitizer: sanitizer}, nil
}

func (s *Service) cleanComment(text string) (string, error) {
	cleaned := s.sanitizer.SanitizeText(text)
	if cleaned == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if len(cleaned) > maxCommentLen {
		return "", fmt.Errorf("%w: content must be at most %d characters", ErrInvalidInput, maxCommentLen)
	}
	return cleaned, nil
}

// CreateComment adds a plain-text comment to a published blog. Draft and
// missing blogs both fail with ErrNotFound so a draft's existence never
// leaks to other users.
func (s *Service) CreateComment(ctx context.Context, actor *identity.User, orgID, blogID, text string) (*Comment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	blog, err := s.store.GetBlogForOrg(ctx, orgID, blogID)
	if err != nil {
		return nil, err
	}
	if blog.Status != content.StatusPublished {
		return nil, fmt.Errorf("%w: blog not available for comments", ErrNotFound)
	}
	cleaned, err := s.cleanComment(text)
	if err != nil {
		return nil, err
	}
	comment := &Comment{
		ID:      ids.New(),
		OrgID:   orgID,
		BlogID:  blog.ID,
		UserID:  actor.ID,
		Content: cleaned,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment rewrites a comment's text. Only the comment author or an
// admin may update.
func (s *Service) UpdateComment(ctx context.Context, actor *identity.User, orgID, commentID, text string) (*Comment, error) {
	comment, err := s.store.GetComment(ctx, orgID, commentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(comment.UserID) {
		return nil, ErrUnauthorized
	}
	cleaned, err := s.cleanComment(text)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateComment(ctx, comment.ID, cleaned)
}

// DeleteComment soft-deletes a comment. Permitted for the comment author,
// the blog author, or an admin.
func (s *Service) DeleteComment(ctx context.Context, actor *identity.User, orgID, commentID string) error {
	comment, err := s.store.GetComment(ctx, orgID, commentID)
	if err != nil {
		return err
	}
	allowed := actor.CanModify(comment.UserID)
	if !allowed {
		blog, err := s.store.GetBlogForOrg(ctx, orgID, comment.BlogID)
		if err == nil && blog.AuthorID == actor.ID {
			allowed = true
		}
	}
	if !allowed {
		return ErrUnauthorized
	}
	return s.store.SoftDeleteComment(ctx, comment.ID, comment.BlogID)
}

// ListByBlog returns a blog's visible comments, newest first by default.
func (s *Service) ListByBlog(ctx context.Context, orgID, blogID string, page Page) (*CommentPage, error) {
	if _, err := s.store.GetBlogForOrg(ctx, orgID, blogID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	comments, total, err := s.store.ListCommentsByBlog(ctx, orgID, blogID, page)
	if err != nil {
		return nil, err
	}
	return NewCommentPage(comments, page, total), nil
}

// ListByUser returns one user's visible comments across the organization.
func (s *Service) ListByUser(ctx context.Context, orgID, userID string, page Page) (*CommentPage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	page = page.Normalize()
	comments, total, err := s.store.ListCommentsByUser(ctx, orgID, userID, page)
	if err != nil {
		return nil, err
	}
	return NewCommentPage(comments, page, total), nil
}

// CreateLike records the actor's like. A duplicate (blog, user) pair
// fails with ErrAlreadyExists; the likesCount increment rides in the same
// transaction as the insert.
func (s *Service) CreateLike(ctx context.Context, actor *identity.User, orgID, blogID string) (*content.Blog, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	blog, err := s.store.GetBlogForOrg(ctx, orgID, blogID)
	if err != nil {
		return nil, err
	}
	like := &Like{
		ID:     ids.New(),
		OrgID:  orgID,
		BlogID: blog.ID,
		UserID: actor.ID,
	}
	if err := s.store.CreateLike(ctx, like); err != nil {
		return nil, err
	}
	blog.LikesCount++
	return blog, nil
}

// RemoveLike deletes the actor's like and decrements likesCount, floored
// at zero. Fails with ErrNotFound when no like exists.
func (s *Service) RemoveLike(ctx context.Context, actor *identity.User, orgID, blogID string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	blog, err := s.store.GetBlogForOrg(ctx, orgID, blogID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetLike(ctx, blog.ID, actor.ID); err != nil {
		return err
	}
	return s.store.DeleteLike(ctx, blog.ID, actor.ID)
}
