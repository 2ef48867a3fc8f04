package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"inkwell.org/internal/identity"
)

// Organizations --------------------------------------------------------

const orgColumns = `id, name, slug, domain, plan,
	limit_users, limit_posts, limit_api_calls,
	usage_users, usage_posts, usage_api_calls,
	status, created_at, updated_at`

func scanOrganization(row interface{ Scan(...any) error }) (*identity.Organization, error) {
	var org identity.Organization
	err := row.Scan(
		&org.ID, &org.Name, &org.Slug, &org.Domain, &org.Plan,
		&org.Limits.Users, &org.Limits.Posts, &org.Limits.APICallsPerMonth,
		&org.Usage.CurrentUsers, &org.Usage.CurrentPosts, &org.Usage.APICallsThisMonth,
		&org.Status, &org.CreatedAt, &org.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Store) CreateOrganization(ctx context.Context, org *identity.Organization) error {
	row := s.db.QueryRowContext(ctx, `
		insert into organizations (id, name, slug, domain, plan,
			limit_users, limit_posts, limit_api_calls, status)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		returning created_at, updated_at
	`, org.ID, org.Name, org.Slug, org.Domain, org.Plan,
		org.Limits.Users, org.Limits.Posts, org.Limits.APICallsPerMonth, org.Status)
	if err := row.Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return identity.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, id string) (*identity.Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+orgColumns+` from organizations where id = $1`, id)
	return scanOrganization(row)
}

func (s *Store) UpdateOrganization(ctx context.Context, id string, upd identity.OrganizationUpdate) (*identity.Organization, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Domain != nil {
		setClauses = append(setClauses, fmt.Sprintf("domain = $%d", idx))
		args = append(args, *upd.Domain)
		idx++
	}
	if upd.Plan != nil {
		setClauses = append(setClauses, fmt.Sprintf("plan = $%d", idx))
		args = append(args, *upd.Plan)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		query := fmt.Sprintf(`update organizations set %s where id = $%d`,
			strings.Join(setClauses, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, identity.ErrAlreadyExists
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, identity.ErrNotFound
		}
	}
	return s.GetOrganization(ctx, id)
}

func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementAPICalls(ctx context.Context, orgID string) error {
	_, err := s.db.ExecContext(ctx, `
		update organizations
		set usage_api_calls = usage_api_calls + 1
		where id = $1
	`, orgID)
	return err
}

// API keys -------------------------------------------------------------

func (s *Store) CreateAPIKey(ctx context.Context, key *identity.APIKey) error {
	perms, err := json.Marshal(key.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into api_keys (id, org_id, key_id, key_hash, prefix, type, is_active, permissions)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning created_at, updated_at
	`, key.ID, key.OrgID, key.KeyID, key.KeyHash, key.Prefix, key.Type, key.IsActive, perms)
	if err := row.Scan(&key.CreatedAt, &key.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return identity.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return identity.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, hash []byte) (*identity.APIKey, error) {
	var (
		key      identity.APIKey
		perms    []byte
		lastUsed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		select id, org_id, key_id, key_hash, prefix, type, is_active, permissions, last_used, created_at, updated_at
		from api_keys
		where key_hash = $1
	`, hash).Scan(&key.ID, &key.OrgID, &key.KeyID, &key.KeyHash, &key.Prefix, &key.Type,
		&key.IsActive, &perms, &lastUsed, &key.CreatedAt, &key.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &key.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		key.LastUsed = &t
	}
	return &key, nil
}

func (s *Store) TouchAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update api_keys set last_used = now(), updated_at = now() where id = $1`, id)
	return err
}

func (s *Store) DeactivateAPIKey(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update api_keys set is_active = false, updated_at = now()
		where org_id = $1 and id = $2
	`, orgID, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// Users ----------------------------------------------------------------

const userColumns = `id, org_id, username, email, password_hash,
	first_name, last_name, bio, avatar, role, platform_admin, status,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*identity.User, error) {
	var (
		user  identity.User
		orgID sql.NullString
	)
	err := row.Scan(
		&user.ID, &orgID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Bio, &user.Avatar,
		&user.Role, &user.PlatformAdmin, &user.Status,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if orgID.Valid {
		user.OrgID = orgID.String
	}
	return &user, nil
}

// CreateUser inserts the user and bumps the organization's user counter
// in one transaction, so the quota counter can never drift from the row
// set by a crash between the two writes.
func (s *Store) CreateUser(ctx context.Context, u *identity.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into users (id, org_id, username, email, password_hash,
			first_name, last_name, bio, avatar, role, platform_admin, status)
		values ($1, nullif($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		returning created_at, updated_at
	`, u.ID, u.OrgID, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Bio, u.Avatar, u.Role, u.PlatformAdmin, u.Status)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return identity.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return identity.ErrNotFound
			}
		}
		return err
	}
	if u.OrgID != "" {
		if _, err := tx.ExecContext(ctx, `
			update organizations set usage_users = usage_users + 1, updated_at = now()
			where id = $1
		`, u.OrgID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetUser(ctx context.Context, id string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *Store) FindUserByLogin(ctx context.Context, orgID, login string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+` from users
		where org_id = $1 and (lower(email) = lower($2) or lower(username) = lower($2))
	`, orgID, login)
	return scanUser(row)
}

func (s *Store) DeleteUser(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`delete from users where org_id = $1 and id = $2`, orgID, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return identity.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		update organizations
		set usage_users = greatest(usage_users - 1, 0), updated_at = now()
		where id = $1
	`, orgID); err != nil {
		return err
	}
	return tx.Commit()
}

// Refresh tokens -------------------------------------------------------

func (s *Store) CreateToken(ctx context.Context, tok *identity.RefreshToken) error {
	row := s.db.QueryRowContext(ctx, `
		insert into tokens (id, user_id, token, type, expires_at)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, tok.ID, tok.UserID, tok.Token, tok.Type, tok.ExpiresAt)
	if err := row.Scan(&tok.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return identity.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return identity.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, token string) (*identity.RefreshToken, error) {
	var tok identity.RefreshToken
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, token, type, expires_at, created_at
		from tokens where token = $1
	`, token).Scan(&tok.ID, &tok.UserID, &tok.Token, &tok.Type, &tok.ExpiresAt, &tok.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *Store) DeleteToken(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `delete from tokens where token = $1`, token)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTokensForUser(ctx context.Context, userID, tokenType string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from tokens where user_id = $1 and type = $2`, userID, tokenType)
	return err
}
