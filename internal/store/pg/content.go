package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"inkwell.org/internal/content"
)

const blogColumns = `id, org_id, author_id, title, slug, content, status,
	banner, views_count, likes_count, comments_count, created_at, updated_at`

// Sort keys are validated by Page.Normalize before they reach the store,
// so they can be interpolated into order by without a placeholder.
var blogSortColumns = map[string]string{
	content.SortCreatedAt:  "created_at",
	content.SortViewsCount: "views_count",
	content.SortLikesCount: "likes_count",
}

func scanBlog(row interface{ Scan(...any) error }) (*content.Blog, error) {
	var (
		blog   content.Blog
		banner []byte
	)
	err := row.Scan(
		&blog.ID, &blog.OrgID, &blog.AuthorID, &blog.Title, &blog.Slug,
		&blog.Content, &blog.Status, &banner,
		&blog.ViewsCount, &blog.LikesCount, &blog.CommentsCount,
		&blog.CreatedAt, &blog.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(banner) > 0 {
		if err := json.Unmarshal(banner, &blog.Banner); err != nil {
			return nil, fmt.Errorf("decode banner: %w", err)
		}
	}
	return &blog, nil
}

func (s *Store) CreateBlog(ctx context.Context, blog *content.Blog) error {
	banner, err := json.Marshal(blog.Banner)
	if err != nil {
		return fmt.Errorf("marshal banner: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into blogs (id, org_id, author_id, title, slug, content, status, banner)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning created_at, updated_at
	`, blog.ID, blog.OrgID, blog.AuthorID, blog.Title, blog.Slug,
		blog.Content, blog.Status, banner)
	if err := row.Scan(&blog.CreatedAt, &blog.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return content.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return content.ErrNotFound
			}
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		update organizations set usage_posts = usage_posts + 1, updated_at = now()
		where id = $1
	`, blog.OrgID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetBlog(ctx context.Context, orgID, id string) (*content.Blog, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+blogColumns+` from blogs where org_id = $1 and id = $2`, orgID, id)
	return scanBlog(row)
}

func (s *Store) GetBlogBySlug(ctx context.Context, orgID, slug string) (*content.Blog, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+blogColumns+` from blogs where org_id = $1 and slug = $2`, orgID, slug)
	return scanBlog(row)
}

func (s *Store) ListBlogs(ctx context.Context, filter content.ListFilter, page content.Page) ([]*content.Blog, int, error) {
	where := `org_id = $1`
	args := []any{filter.OrgID}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		where += fmt.Sprintf(" and author_id = $%d", len(args))
	}
	if filter.PublishedOnly {
		args = append(args, content.StatusPublished)
		where += fmt.Sprintf(" and status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from blogs where `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := blogSortColumns[page.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "desc"
	if page.Order == content.OrderAsc {
		order = "asc"
	}
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`select %s from blogs where %s order by %s %s limit $%d offset $%d`,
		blogColumns, where, sortCol, order, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var blogs []*content.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (s *Store) UpdateBlog(ctx context.Context, blog *content.Blog) error {
	banner, err := json.Marshal(blog.Banner)
	if err != nil {
		return fmt.Errorf("marshal banner: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		update blogs
		set title = $1, slug = $2, content = $3, status = $4, banner = $5, updated_at = now()
		where org_id = $6 and id = $7
		returning updated_at
	`, blog.Title, blog.Slug, blog.Content, blog.Status, banner, blog.OrgID, blog.ID)
	if err := row.Scan(&blog.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return content.ErrNotFound
		}
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return content.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteBlog removes the blog with its comments and likes and releases
// the organization's post usage in a single transaction.
func (s *Store) DeleteBlog(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from comments where org_id = $1 and blog_id = $2`, orgID, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`delete from likes where org_id = $1 and blog_id = $2`, orgID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`delete from blogs where org_id = $1 and id = $2`, orgID, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return content.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		update organizations
		set usage_posts = greatest(usage_posts - 1, 0), updated_at = now()
		where id = $1
	`, orgID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		update blogs set views_count = views_count + 1 where id = $1
		returning views_count
	`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, content.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return views, nil
}
