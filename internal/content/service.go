package content

import (
	"context"
	"fmt"
	"strings"

	gosimpleslug "github.com/gosimple/slug"

	"inkwell.org/internal/identity"
	"inkwell.org/internal/ids"
)

const maxTitleLen = 180

// Service implements the blog lifecycle: draft → published with tenant
// scoping, slug uniqueness and role/ownership checks.
type Service struct {
	store     Store
	sanitizer Sanitizer
}

// NewService constructs the content service.
func NewService(store Store, sanitizer Sanitizer) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("content: store is required")
	}
	if sanitizer == nil {
		return nil, fmt.Errorf("content: sanitizer is required")
	}
	return &Service{store: store, sanitizer: sanitizer}, nil
}

// Slugify converts a title to its URL-safe, lowercase, hyphenated form.
func Slugify(title string) string {
	return gosimpleslug.Make(title)
}

// Create sanitizes the content, derives the slug and persists the blog
// with zeroed counters. A duplicate (org, slug) pair fails with
// ErrAlreadyExists from the store's unique constraint.
func (s *Service) Create(ctx context.Context, actor *identity.User, orgID string, params CreateParams) (*Blog, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	title := strings.TrimSpace(params.Title)
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title is required and must be at most %d characters", ErrInvalidInput, maxTitleLen)
	}
	if strings.TrimSpace(params.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	status := params.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, status)
	}

	blog := &Blog{
		ID:       ids.New(),
		OrgID:    orgID,
		AuthorID: actor.ID,
		Title:    title,
		Slug:     Slugify(title),
		Content:  s.sanitizer.SanitizeHTML(params.Content),
		Status:   status,
		Banner:   params.Banner,
	}
	if blog.Slug == "" {
		return nil, fmt.Errorf("%w: title does not produce a usable slug", ErrInvalidInput)
	}
	if err := s.store.CreateBlog(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// GetBySlug loads a single blog. Drafts are visible only to their author
// or an admin; everyone else gets ErrUnauthorized. Every successful read
// increments viewsCount, repeated reads included.
func (s *Service) GetBySlug(ctx context.Context, actor *identity.User, orgID, slugValue string) (*Blog, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrInvalidInput)
	}
	blog, err := s.store.GetBlogBySlug(ctx, orgID, slugValue)
	if err != nil {
		return nil, err
	}
	if blog.Status == StatusDraft && !actor.CanModify(blog.AuthorID) {
		return nil, ErrUnauthorized
	}
	views, err := s.store.IncrementViews(ctx, blog.ID)
	if err != nil {
		return nil, err
	}
	blog.ViewsCount = views
	return blog, nil
}

// List returns the organization's blogs. Admins see drafts; other callers
// see published blogs only.
func (s *Service) List(ctx context.Context, actor *identity.User, orgID string, page Page) (*BlogPage, error) {
	page = page.Normalize()
	filter := ListFilter{
		OrgID:         orgID,
		PublishedOnly: !actor.IsAdmin(),
	}
	blogs, total, err := s.store.ListBlogs(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return NewBlogPage(blogs, page, total), nil
}

// ListByUser returns one author's blogs. The author and admins see drafts;
// other callers see published blogs only.
func (s *Service) ListByUser(ctx context.Context, actor *identity.User, orgID, authorID string, page Page) (*BlogPage, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	page = page.Normalize()
	filter := ListFilter{
		OrgID:         orgID,
		AuthorID:      authorID,
		PublishedOnly: !actor.CanModify(authorID),
	}
	blogs, total, err := s.store.ListBlogs(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return NewBlogPage(blogs, page, total), nil
}

// Update applies a partial update. Only the author or an admin may update.
// A title change recomputes the slug; the store re-checks uniqueness
// excluding the blog's own id.
func (s *Service) Update(ctx context.Context, actor *identity.User, orgID, blogID string, params UpdateParams) (*Blog, error) {
	blog, err := s.store.GetBlog(ctx, orgID, blogID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(blog.AuthorID) {
		return nil, ErrUnauthorized
	}
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" || len(title) > maxTitleLen {
			return nil, fmt.Errorf("%w: title is required and must be at most %d characters", ErrInvalidInput, maxTitleLen)
		}
		blog.Title = title
		blog.Slug = Slugify(title)
		if blog.Slug == "" {
			return nil, fmt.Errorf("%w: title does not produce a usable slug", ErrInvalidInput)
		}
	}
	if params.Content != nil {
		if strings.TrimSpace(*params.Content) == "" {
			return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
		}
		blog.Content = s.sanitizer.SanitizeHTML(*params.Content)
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, *params.Status)
		}
		blog.Status = *params.Status
	}
	if params.Banner != nil {
		blog.Banner = *params.Banner
	}
	if err := s.store.UpdateBlog(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// Delete hard-removes a blog. Admins may delete any blog in the
// organization; other users only their own. The store cascades to
// comments and likes.
func (s *Service) Delete(ctx context.Context, actor *identity.User, orgID, blogID string) error {
	blog, err := s.store.GetBlog(ctx, orgID, blogID)
	if err != nil {
		return err
	}
	if !actor.CanModify(blog.AuthorID) {
		return ErrUnauthorized
	}
	return s.store.DeleteBlog(ctx, orgID, blog.ID)
}
