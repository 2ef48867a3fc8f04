package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell.org/internal/ids"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour

	maxOrgNameLen  = 50
	maxUsernameLen = 20
	maxEmailLen    = 50
	minPasswordLen = 8
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9-]+$`)
	domainPattern = regexp.MustCompile(`^https?://.+`)
)

// Service provides tenant and actor authentication, user provisioning and
// session token issuance.
type Service struct {
	store Store
	now   func() time.Time

	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithTokenSecrets sets the HS256 secrets for access and refresh tokens.
// The two kinds are signed with different secrets on top of the explicit
// type discriminator.
func WithTokenSecrets(accessSecret, refreshSecret string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(accessSecret) == "" || strings.TrimSpace(refreshSecret) == "" {
			return fmt.Errorf("identity: both token secrets are required")
		}
		s.accessSecret = []byte(accessSecret)
		s.refreshSecret = []byte(refreshSecret)
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		store:      store,
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// RegisterOrganizationParams are the inputs for tenant registration.
type RegisterOrganizationParams struct {
	Name   string
	Slug   string
	Domain string
	Plan   Plan
}

// RegisteredOrganization bundles the new tenant with its first api key.
// Key is the plaintext secret; it is not recoverable afterwards.
type RegisteredOrganization struct {
	Organization *Organization
	APIKey       *APIKey
	Key          string
}

// RegisterOrganization creates a tenant and issues its initial test api key.
// Slug and domain collisions surface as ErrAlreadyExists from the store's
// unique constraints.
func (s *Service) RegisterOrganization(ctx context.Context, params RegisterOrganizationParams) (*RegisteredOrganization, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > maxOrgNameLen {
		return nil, fmt.Errorf("%w: organization name is required and must be at most %d characters", ErrInvalidInput, maxOrgNameLen)
	}
	slugValue := strings.ToLower(strings.TrimSpace(params.Slug))
	if !slugPattern.MatchString(slugValue) {
		return nil, fmt.Errorf("%w: slug can only contain lowercase letters, numbers, and hyphens", ErrInvalidInput)
	}
	domain := strings.TrimSpace(params.Domain)
	if !domainPattern.MatchString(domain) {
		return nil, fmt.Errorf("%w: domain must start with http:// or https://", ErrInvalidInput)
	}
	plan := params.Plan
	if plan == "" {
		plan = PlanStarter
	}
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: unsupported plan %s", ErrInvalidInput, plan)
	}

	org := &Organization{
		ID:     ids.New(),
		Name:   name,
		Slug:   slugValue,
		Domain: domain,
		Plan:   plan,
		Limits: DefaultLimits,
		Status: OrgStatusActive,
	}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}

	key, plaintext, err := s.issueAPIKey(ctx, org.ID, APIKeyTest)
	if err != nil {
		return nil, err
	}
	return &RegisteredOrganization{Organization: org, APIKey: key, Key: plaintext}, nil
}

func (s *Service) issueAPIKey(ctx context.Context, orgID string, keyType APIKeyType) (*APIKey, string, error) {
	plaintext, err := generateAPIKeySecret(keyType)
	if err != nil {
		return nil, "", err
	}
	key := &APIKey{
		ID:          ids.New(),
		OrgID:       orgID,
		KeyID:       uuid.NewString(),
		KeyHash:     HashAPIKey(plaintext),
		Prefix:      keyPrefix(keyType),
		Type:        keyType,
		IsActive:    true,
		Permissions: append([]string(nil), DefaultKeyPermissions...),
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}
	return key, plaintext, nil
}

// GetOrganization loads a tenant by id.
func (s *Service) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	return s.store.GetOrganization(ctx, id)
}

// UpdateOrganization applies a partial update.
func (s *Service) UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (*Organization, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len(name) > maxOrgNameLen {
			return nil, fmt.Errorf("%w: organization name is required and must be at most %d characters", ErrInvalidInput, maxOrgNameLen)
		}
		upd.Name = &name
	}
	if upd.Domain != nil {
		domain := strings.TrimSpace(*upd.Domain)
		if !domainPattern.MatchString(domain) {
			return nil, fmt.Errorf("%w: domain must start with http:// or https://", ErrInvalidInput)
		}
		upd.Domain = &domain
	}
	if upd.Plan != nil && !upd.Plan.Valid() {
		return nil, fmt.Errorf("%w: unsupported plan %s", ErrInvalidInput, *upd.Plan)
	}
	return s.store.UpdateOrganization(ctx, id, upd)
}

// DeleteOrganization removes the tenant; the store cascades to users,
// api keys and content.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	return s.store.DeleteOrganization(ctx, id)
}

// AuthenticateAPIKey resolves the tenant for a presented api key. Every
// successful check increments the organization's monthly call counter and
// stamps the key's lastUsed; both are best-effort side effects.
func (s *Service) AuthenticateAPIKey(ctx context.Context, plaintext string) (*Organization, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, ErrInvalidAPIKey
	}
	key, err := s.store.GetAPIKeyByHash(ctx, HashAPIKey(plaintext))
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	if !key.IsActive {
		return nil, ErrInactiveAPIKey
	}
	org, err := s.store.GetOrganization(ctx, key.OrgID)
	if err != nil {
		return nil, err
	}
	if org.Status != OrgStatusActive {
		return nil, ErrUnauthorized
	}
	_ = s.store.IncrementAPICalls(ctx, org.ID)
	_ = s.store.TouchAPIKey(ctx, key.ID)
	org.Usage.APICallsThisMonth++
	return org, nil
}

// RevokeAPIKey deactivates a key within the tenant scope. Requests
// authenticated with a revoked key fail with ErrInactiveAPIKey.
func (s *Service) RevokeAPIKey(ctx context.Context, orgID, keyID string) error {
	if strings.TrimSpace(orgID) == "" || strings.TrimSpace(keyID) == "" {
		return fmt.Errorf("%w: organization id and key id are required", ErrInvalidInput)
	}
	return s.store.DeactivateAPIKey(ctx, orgID, keyID)
}

// CreateUserParams are the inputs for user provisioning.
type CreateUserParams struct {
	OrgID     string
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Bio       string
	Role      Role
}

// CreateUser provisions a user inside an organization, enforcing the user
// quota. The quota check deliberately uses a strict greater-than: an
// organization at exactly its limit still admits one more user.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	orgID := strings.TrimSpace(params.OrgID)
	if orgID == "" {
		return nil, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	username := strings.TrimSpace(params.Username)
	if username == "" || len(username) > maxUsernameLen {
		return nil, fmt.Errorf("%w: username is required and must be at most %d characters", ErrInvalidInput, maxUsernameLen)
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || len(email) > maxEmailLen || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(params.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	role := params.Role
	if role == "" {
		role = RoleOrgUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unsupported role %s", ErrInvalidInput, role)
	}

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		OrgID:        org.ID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Bio:          strings.TrimSpace(params.Bio),
		Role:         role,
		Status:       UserStatusActive,
	}

	if org.Usage.CurrentUsers > org.Limits.Users {
		return nil, fmt.Errorf("%w: user limit reached for organization %s", ErrUsageExceeded, org.Slug)
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TokenPair carries freshly issued session tokens.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Login verifies credentials within the organization scope and issues a
// token pair. Any previously issued refresh token for the user is dropped,
// so exactly one refresh token is live per user.
func (s *Service) Login(ctx context.Context, orgID, login, password string) (*TokenPair, *User, error) {
	login = strings.TrimSpace(strings.ToLower(login))
	if login == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: login and password are required", ErrInvalidInput)
	}
	user, err := s.store.FindUserByLogin(ctx, orgID, login)
	if err != nil {
		return nil, nil, err
	}
	if user.Status != UserStatusActive {
		return nil, nil, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidPassword
	}

	if err := s.store.DeleteTokensForUser(ctx, user.ID, TokenTypeRefresh); err != nil {
		return nil, nil, err
	}

	pair, err := s.mintTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *Service) mintTokens(ctx context.Context, userID string) (*TokenPair, error) {
	now := s.now().UTC()
	access, err := signToken(userID, tokenTypeAccess, s.accessSecret, s.accessTTL, now)
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(userID, tokenTypeRefresh, s.refreshSecret, s.refreshTTL, now)
	if err != nil {
		return nil, err
	}
	rec := &RefreshToken{
		ID:        ids.New(),
		UserID:    userID,
		Token:     refresh,
		Type:      TokenTypeRefresh,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.CreateToken(ctx, rec); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// Refresh exchanges a persisted refresh token for a new access token.
// Expired records are rejected even before any cleanup pass removes them.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	record, err := s.store.GetToken(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	now := s.now().UTC()
	if now.After(record.ExpiresAt) {
		return "", time.Time{}, ErrTokenExpired
	}
	claims, err := parseToken(refreshToken, tokenTypeRefresh, s.refreshSecret, now)
	if err != nil {
		return "", time.Time{}, err
	}
	access, err := signToken(claims.UserID, tokenTypeAccess, s.accessSecret, s.accessTTL, now)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, now.Add(s.accessTTL), nil
}

// Logout revokes the refresh token server-side.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.store.GetToken(ctx, refreshToken); err != nil {
		return err
	}
	return s.store.DeleteToken(ctx, refreshToken)
}

// AuthenticateAccessToken verifies an access token and resolves its actor.
// Non-platform actors must belong to the tenant identified by orgID.
func (s *Service) AuthenticateAccessToken(ctx context.Context, token, orgID string) (*User, error) {
	claims, err := parseToken(token, tokenTypeAccess, s.accessSecret, s.now().UTC())
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status != UserStatusActive {
		return nil, ErrUnauthorized
	}
	if !user.PlatformAdmin && user.OrgID != orgID {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// RequireRole allows the operation when the actor holds any of the listed
// roles or is a platform admin.
func (s *Service) RequireRole(user *User, roles ...Role) error {
	if user == nil {
		return ErrUnauthorized
	}
	if user.PlatformAdmin {
		return nil
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return ErrUnauthorized
}

// DeleteUser removes a user from the organization, releasing quota.
func (s *Service) DeleteUser(ctx context.Context, orgID, userID string) error {
	orgID = strings.TrimSpace(orgID)
	userID = strings.TrimSpace(userID)
	if orgID == "" || userID == "" {
		return fmt.Errorf("%w: organization id and user id are required", ErrInvalidInput)
	}
	return s.store.DeleteUser(ctx, orgID, userID)
}
