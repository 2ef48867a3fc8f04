package identity

import "context"

// Store describes persistence operations required by the identity subsystem.
// Implementations must enforce uniqueness (org slug/domain, per-org
// username/email, api key hash, token string) at the storage layer and
// report violations as ErrAlreadyExists.
type Store interface {
	OrganizationStore
	APIKeyStore
	UserStore
	TokenStore
}

// OrganizationStore manages tenants and their usage counters.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (*Organization, error)
	// DeleteOrganization removes the tenant and cascades to its users,
	// api keys and content.
	DeleteOrganization(ctx context.Context, id string) error
	// IncrementAPICalls bumps usage.apiCallsThisMonth by one atomically.
	IncrementAPICalls(ctx context.Context, orgID string) error
}

// APIKeyStore manages api key lifecycle.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *APIKey) error
	GetAPIKeyByHash(ctx context.Context, hash []byte) (*APIKey, error)
	// TouchAPIKey stamps lastUsed; best effort, called on every authenticated request.
	TouchAPIKey(ctx context.Context, id string) error
	DeactivateAPIKey(ctx context.Context, orgID, id string) error
}

// UserStore manages users within their organization scope.
type UserStore interface {
	// CreateUser inserts the user and increments the organization's
	// currentUsers counter in the same transaction.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	// FindUserByLogin resolves a user within an organization by email or
	// username (whichever matches).
	FindUserByLogin(ctx context.Context, orgID, login string) (*User, error)
	// DeleteUser removes the user and decrements currentUsers, floored at zero.
	DeleteUser(ctx context.Context, orgID, id string) error
}

// TokenStore manages persisted refresh tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, tok *RefreshToken) error
	GetToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteToken(ctx context.Context, token string) error
	// DeleteTokensForUser drops every token of the given type for the user.
	DeleteTokensForUser(ctx context.Context, userID, tokenType string) error
}
