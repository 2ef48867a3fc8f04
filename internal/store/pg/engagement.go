package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkwell.org/internal/content"
	"inkwell.org/internal/engagement"
)

func (s *Store) GetBlogForOrg(ctx context.Context, orgID, blogID string) (*content.Blog, error) {
	blog, err := s.GetBlog(ctx, orgID, blogID)
	if errors.Is(err, content.ErrNotFound) {
		return nil, engagement.ErrNotFound
	}
	return blog, err
}

// Comments -------------------------------------------------------------

const commentColumns = `id, org_id, blog_id, user_id, content, is_deleted, created_at, updated_at`

var commentSortColumns = map[string]string{
	engagement.SortCreatedAt: "created_at",
	engagement.SortUpdatedAt: "updated_at",
}

func scanComment(row interface{ Scan(...any) error }) (*engagement.Comment, error) {
	var comment engagement.Comment
	err := row.Scan(
		&comment.ID, &comment.OrgID, &comment.BlogID, &comment.UserID,
		&comment.Content, &comment.IsDeleted, &comment.CreatedAt, &comment.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engagement.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *engagement.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into comments (id, org_id, blog_id, user_id, content)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, comment.ID, comment.OrgID, comment.BlogID, comment.UserID, comment.Content)
	if err := row.Scan(&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return engagement.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		update blogs set comments_count = comments_count + 1 where id = $1
	`, comment.BlogID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetComment(ctx context.Context, orgID, id string) (*engagement.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+commentColumns+` from comments
		where org_id = $1 and id = $2 and is_deleted = false
	`, orgID, id)
	return scanComment(row)
}

func (s *Store) UpdateComment(ctx context.Context, id, text string) (*engagement.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		update comments set content = $1, updated_at = now()
		where id = $2 and is_deleted = false
		returning `+commentColumns+`
	`, text, id)
	return scanComment(row)
}

// SoftDeleteComment flags the comment deleted and releases the blog's
// comment counter in a single transaction.
func (s *Store) SoftDeleteComment(ctx context.Context, id, blogID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update comments set is_deleted = true, updated_at = now()
		where id = $1 and is_deleted = false
	`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return engagement.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		update blogs set comments_count = greatest(comments_count - 1, 0) where id = $1
	`, blogID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListCommentsByBlog(ctx context.Context, orgID, blogID string, page engagement.Page) ([]*engagement.Comment, int, error) {
	return s.listComments(ctx, "blog_id", orgID, blogID, page)
}

func (s *Store) ListCommentsByUser(ctx context.Context, orgID, userID string, page engagement.Page) ([]*engagement.Comment, int, error) {
	return s.listComments(ctx, "user_id", orgID, userID, page)
}

func (s *Store) listComments(ctx context.Context, scopeCol, orgID, scopeID string, page engagement.Page) ([]*engagement.Comment, int, error) {
	where := fmt.Sprintf(`org_id = $1 and %s = $2 and is_deleted = false`, scopeCol)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from comments where `+where, orgID, scopeID).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := commentSortColumns[page.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "desc"
	if page.Order == engagement.OrderAsc {
		order = "asc"
	}
	query := fmt.Sprintf(`select %s from comments where %s order by %s %s limit $3 offset $4`,
		commentColumns, where, sortCol, order)

	rows, err := s.db.QueryContext(ctx, query, orgID, scopeID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []*engagement.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// Likes ----------------------------------------------------------------

func (s *Store) CreateLike(ctx context.Context, like *engagement.Like) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into likes (id, org_id, blog_id, user_id)
		values ($1, $2, $3, $4)
		returning created_at
	`, like.ID, like.OrgID, like.BlogID, like.UserID)
	if err := row.Scan(&like.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return engagement.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return engagement.ErrNotFound
			}
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		update blogs set likes_count = likes_count + 1 where id = $1
	`, like.BlogID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetLike(ctx context.Context, blogID, userID string) (*engagement.Like, error) {
	var like engagement.Like
	err := s.db.QueryRowContext(ctx, `
		select id, org_id, blog_id, user_id, created_at
		from likes where blog_id = $1 and user_id = $2
	`, blogID, userID).Scan(&like.ID, &like.OrgID, &like.BlogID, &like.UserID, &like.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engagement.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (s *Store) DeleteLike(ctx context.Context, blogID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`delete from likes where blog_id = $1 and user_id = $2`, blogID, userID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return engagement.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		update blogs set likes_count = greatest(likes_count - 1, 0) where id = $1
	`, blogID); err != nil {
		return err
	}
	return tx.Commit()
}
