package identity

import "time"

// Plan identifies the subscription tier of an organization.
type Plan string

const (
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Valid reports whether the plan is a known tier.
func (p Plan) Valid() bool {
	return p == PlanStarter || p == PlanProfessional || p == PlanEnterprise
}

// Limits holds per-organization quota ceilings.
type Limits struct {
	Users            int `json:"users"`
	Posts            int `json:"posts"`
	APICallsPerMonth int `json:"apiCallsPerMonth"`
}

// Usage holds the denormalized consumption counters for an organization.
type Usage struct {
	CurrentUsers      int `json:"currentUsers"`
	CurrentPosts      int `json:"currentPosts"`
	APICallsThisMonth int `json:"apiCallsThisMonth"`
}

// DefaultLimits are applied to newly registered organizations.
var DefaultLimits = Limits{Users: 5, Posts: 100, APICallsPerMonth: 10000}

const (
	OrgStatusActive    = "active"
	OrgStatusSuspended = "suspended"
	OrgStatusCancelled = "cancelled"
)

// Organization is the tenant: the unit of data isolation.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Domain    string    `json:"domain"`
	Plan      Plan      `json:"plan"`
	Limits    Limits    `json:"limits"`
	Usage     Usage     `json:"usage"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationUpdate carries the mutable organization fields; nil means unchanged.
type OrganizationUpdate struct {
	Name   *string
	Domain *string
	Plan   *Plan
}

// APIKeyType distinguishes live keys from test keys.
type APIKeyType string

const (
	APIKeyLive APIKeyType = "live"
	APIKeyTest APIKeyType = "test"
)

// APIKey authenticates an organization. The secret is stored only as a
// SHA-256 hash; the plaintext leaves the service exactly once at creation.
type APIKey struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	KeyID       string     `json:"key_id"`
	KeyHash     []byte     `json:"-"`
	Prefix      string     `json:"prefix"`
	Type        APIKeyType `json:"type"`
	IsActive    bool       `json:"is_active"`
	Permissions []string   `json:"permissions"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DefaultKeyPermissions are granted to the key issued at registration.
var DefaultKeyPermissions = []string{"posts.read", "posts.write", "users.read", "users.write"}

// Role is the organization-scoped access level of a user.
type Role string

const (
	RoleOrgAdmin Role = "org_admin"
	RoleOrgUser  Role = "org_user"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleOrgAdmin || r == RoleOrgUser
}

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBanned   = "banned"
)

// User is an actor. Organization membership is mandatory unless the user
// is a platform admin, which is the only org-less variant.
type User struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id,omitempty"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Role          Role      `json:"role"`
	PlatformAdmin bool      `json:"platform_admin,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user may act as an administrator for
// entities in their organization.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.PlatformAdmin || u.Role == RoleOrgAdmin
}

// CanModify reports whether the user may mutate an entity owned by ownerID:
// admins always, everyone else only their own.
func (u *User) CanModify(ownerID string) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || u.ID == ownerID
}

// RefreshToken is a persisted session token record. At most one active
// refresh token exists per user; login replaces any previous one.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenTypeRefresh is the discriminator stored on persisted session tokens.
const TokenTypeRefresh = "refresh_token"
