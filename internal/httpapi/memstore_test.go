package httpapi

import (
	"context"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"inkwell.org/internal/content"
	"inkwell.org/internal/engagement"
	"inkwell.org/internal/identity"
)

// memStore is an in-memory implementation of all three store interfaces,
// mirroring the uniqueness constraints the SQL schema enforces. It lets
// the HTTP tests run end to end through the real services.
type memStore struct {
	mu sync.Mutex

	orgs     map[string]*identity.Organization
	keys     map[string]*identity.APIKey // by hex key hash
	users    map[string]*identity.User
	tokens   map[string]*identity.RefreshToken // by token string
	blogs    map[string]*content.Blog
	comments map[string]*engagement.Comment
	likes    map[string]*engagement.Like // by blogID+"/"+userID

	seq  int64
	base time.Time
}

var _ identity.Store = (*memStore)(nil)
var _ content.Store = (*memStore)(nil)
var _ engagement.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		orgs:     make(map[string]*identity.Organization),
		keys:     make(map[string]*identity.APIKey),
		users:    make(map[string]*identity.User),
		tokens:   make(map[string]*identity.RefreshToken),
		blogs:    make(map[string]*content.Blog),
		comments: make(map[string]*engagement.Comment),
		likes:    make(map[string]*engagement.Like),
		base:     time.Now().UTC(),
	}
}

// tick returns a strictly increasing timestamp so sort orders are stable.
func (m *memStore) tick() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Millisecond)
}

// --- identity.OrganizationStore ---

func (m *memStore) CreateOrganization(_ context.Context, org *identity.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orgs {
		if existing.Slug == org.Slug || existing.Domain == org.Domain {
			return identity.ErrAlreadyExists
		}
	}
	now := m.tick()
	org.CreatedAt, org.UpdatedAt = now, now
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memStore) GetOrganization(_ context.Context, id string) (*identity.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (m *memStore) UpdateOrganization(_ context.Context, id string, upd identity.OrganizationUpdate) (*identity.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	if upd.Domain != nil {
		for otherID, other := range m.orgs {
			if otherID != id && other.Domain == *upd.Domain {
				return nil, identity.ErrAlreadyExists
			}
		}
		org.Domain = *upd.Domain
	}
	if upd.Name != nil {
		org.Name = *upd.Name
	}
	if upd.Plan != nil {
		org.Plan = *upd.Plan
	}
	org.UpdatedAt = m.tick()
	cp := *org
	return &cp, nil
}

func (m *memStore) DeleteOrganization(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[id]; !ok {
		return identity.ErrNotFound
	}
	delete(m.orgs, id)
	for keyID, key := range m.keys {
		if key.OrgID == id {
			delete(m.keys, keyID)
		}
	}
	for userID, user := range m.users {
		if user.OrgID == id {
			delete(m.users, userID)
			for token, rec := range m.tokens {
				if rec.UserID == userID {
					delete(m.tokens, token)
				}
			}
		}
	}
	for blogID, blog := range m.blogs {
		if blog.OrgID == id {
			delete(m.blogs, blogID)
		}
	}
	for commentID, comment := range m.comments {
		if comment.OrgID == id {
			delete(m.comments, commentID)
		}
	}
	for likeKey, like := range m.likes {
		if like.OrgID == id {
			delete(m.likes, likeKey)
		}
	}
	return nil
}

func (m *memStore) IncrementAPICalls(_ context.Context, orgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if org, ok := m.orgs[orgID]; ok {
		org.Usage.APICallsThisMonth++
	}
	return nil
}

// --- identity.APIKeyStore ---

func (m *memStore) CreateAPIKey(_ context.Context, key *identity.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[key.OrgID]; !ok {
		return identity.ErrNotFound
	}
	hash := hex.EncodeToString(key.KeyHash)
	if _, ok := m.keys[hash]; ok {
		return identity.ErrAlreadyExists
	}
	now := m.tick()
	key.CreatedAt, key.UpdatedAt = now, now
	cp := *key
	m.keys[hash] = &cp
	return nil
}

func (m *memStore) GetAPIKeyByHash(_ context.Context, hash []byte) (*identity.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[hex.EncodeToString(hash)]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *key
	return &cp, nil
}

func (m *memStore) TouchAPIKey(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.keys {
		if key.ID == id {
			now := m.tick()
			key.LastUsed = &now
			return nil
		}
	}
	return nil
}

func (m *memStore) DeactivateAPIKey(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.keys {
		if key.ID == id && key.OrgID == orgID {
			key.IsActive = false
			return nil
		}
	}
	return identity.ErrNotFound
}

// --- identity.UserStore ---

func (m *memStore) CreateUser(_ context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.OrgID != "" {
		if _, ok := m.orgs[u.OrgID]; !ok {
			return identity.ErrNotFound
		}
	}
	for _, existing := range m.users {
		if existing.OrgID == u.OrgID &&
			(strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email)) {
			return identity.ErrAlreadyExists
		}
	}
	now := m.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	if org, ok := m.orgs[u.OrgID]; ok {
		org.Usage.CurrentUsers++
	}
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *memStore) FindUserByLogin(_ context.Context, orgID, login string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.OrgID == orgID &&
			(strings.EqualFold(user.Email, login) || strings.EqualFold(user.Username, login)) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *memStore) DeleteUser(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok || user.OrgID != orgID {
		return identity.ErrNotFound
	}
	delete(m.users, id)
	if org, ok := m.orgs[orgID]; ok && org.Usage.CurrentUsers > 0 {
		org.Usage.CurrentUsers--
	}
	return nil
}

// --- identity.TokenStore ---

func (m *memStore) CreateToken(_ context.Context, tok *identity.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[tok.Token]; ok {
		return identity.ErrAlreadyExists
	}
	tok.CreatedAt = m.tick()
	cp := *tok
	m.tokens[tok.Token] = &cp
	return nil
}

func (m *memStore) GetToken(_ context.Context, token string) (*identity.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tokens[token]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) DeleteToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return identity.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *memStore) DeleteTokensForUser(_ context.Context, userID, tokenType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, rec := range m.tokens {
		if rec.UserID == userID && rec.Type == tokenType {
			delete(m.tokens, token)
		}
	}
	return nil
}

// --- content.Store ---

func (m *memStore) CreateBlog(_ context.Context, blog *content.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.blogs {
		if existing.OrgID == blog.OrgID && existing.Slug == blog.Slug {
			return content.ErrAlreadyExists
		}
	}
	now := m.tick()
	blog.CreatedAt, blog.UpdatedAt = now, now
	cp := *blog
	m.blogs[blog.ID] = &cp
	if org, ok := m.orgs[blog.OrgID]; ok {
		org.Usage.CurrentPosts++
	}
	return nil
}

func (m *memStore) GetBlog(_ context.Context, orgID, id string) (*content.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[id]
	if !ok || blog.OrgID != orgID {
		return nil, content.ErrNotFound
	}
	cp := *blog
	return &cp, nil
}

func (m *memStore) GetBlogBySlug(_ context.Context, orgID, slug string) (*content.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, blog := range m.blogs {
		if blog.OrgID == orgID && blog.Slug == slug {
			cp := *blog
			return &cp, nil
		}
	}
	return nil, content.ErrNotFound
}

func (m *memStore) ListBlogs(_ context.Context, filter content.ListFilter, page content.Page) ([]*content.Blog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*content.Blog
	for _, blog := range m.blogs {
		if blog.OrgID != filter.OrgID {
			continue
		}
		if filter.AuthorID != "" && blog.AuthorID != filter.AuthorID {
			continue
		}
		if filter.PublishedOnly && blog.Status != content.StatusPublished {
			continue
		}
		cp := *blog
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch page.SortBy {
		case content.SortViewsCount:
			less = matched[i].ViewsCount < matched[j].ViewsCount
		case content.SortLikesCount:
			less = matched[i].LikesCount < matched[j].LikesCount
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if page.Order == content.OrderDesc {
			return !less
		}
		return less
	})
	total := len(matched)
	offset := page.Offset()
	if offset >= total {
		return nil, total, nil
	}
	end := offset + page.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memStore) UpdateBlog(_ context.Context, blog *content.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.blogs[blog.ID]
	if !ok || existing.OrgID != blog.OrgID {
		return content.ErrNotFound
	}
	for otherID, other := range m.blogs {
		if otherID != blog.ID && other.OrgID == blog.OrgID && other.Slug == blog.Slug {
			return content.ErrAlreadyExists
		}
	}
	blog.CreatedAt = existing.CreatedAt
	blog.UpdatedAt = m.tick()
	cp := *blog
	m.blogs[blog.ID] = &cp
	return nil
}

func (m *memStore) DeleteBlog(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[id]
	if !ok || blog.OrgID != orgID {
		return content.ErrNotFound
	}
	delete(m.blogs, id)
	for commentID, comment := range m.comments {
		if comment.BlogID == id {
			delete(m.comments, commentID)
		}
	}
	for likeKey, like := range m.likes {
		if like.BlogID == id {
			delete(m.likes, likeKey)
		}
	}
	if org, ok := m.orgs[orgID]; ok && org.Usage.CurrentPosts > 0 {
		org.Usage.CurrentPosts--
	}
	return nil
}

func (m *memStore) IncrementViews(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[id]
	if !ok {
		return 0, content.ErrNotFound
	}
	blog.ViewsCount++
	return blog.ViewsCount, nil
}

// --- engagement.Store ---

func (m *memStore) GetBlogForOrg(ctx context.Context, orgID, blogID string) (*content.Blog, error) {
	blog, err := m.GetBlog(ctx, orgID, blogID)
	if err != nil {
		return nil, engagement.ErrNotFound
	}
	return blog, nil
}

func (m *memStore) CreateComment(_ context.Context, comment *engagement.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[comment.BlogID]
	if !ok {
		return engagement.ErrNotFound
	}
	now := m.tick()
	comment.CreatedAt, comment.UpdatedAt = now, now
	cp := *comment
	m.comments[comment.ID] = &cp
	blog.CommentsCount++
	return nil
}

func (m *memStore) GetComment(_ context.Context, orgID, id string) (*engagement.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment, ok := m.comments[id]
	if !ok || comment.OrgID != orgID || comment.IsDeleted {
		return nil, engagement.ErrNotFound
	}
	cp := *comment
	return &cp, nil
}

func (m *memStore) UpdateComment(_ context.Context, id, text string) (*engagement.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment, ok := m.comments[id]
	if !ok || comment.IsDeleted {
		return nil, engagement.ErrNotFound
	}
	comment.Content = text
	comment.UpdatedAt = m.tick()
	cp := *comment
	return &cp, nil
}

func (m *memStore) SoftDeleteComment(_ context.Context, id, blogID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment, ok := m.comments[id]
	if !ok || comment.IsDeleted {
		return engagement.ErrNotFound
	}
	comment.IsDeleted = true
	if blog, ok := m.blogs[blogID]; ok && blog.CommentsCount > 0 {
		blog.CommentsCount--
	}
	return nil
}

func (m *memStore) ListCommentsByBlog(_ context.Context, orgID, blogID string, page engagement.Page) ([]*engagement.Comment, int, error) {
	return m.listComments(orgID, page, func(c *engagement.Comment) bool { return c.BlogID == blogID })
}

func (m *memStore) ListCommentsByUser(_ context.Context, orgID, userID string, page engagement.Page) ([]*engagement.Comment, int, error) {
	return m.listComments(orgID, page, func(c *engagement.Comment) bool { return c.UserID == userID })
}

func (m *memStore) listComments(orgID string, page engagement.Page, match func(*engagement.Comment) bool) ([]*engagement.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*engagement.Comment
	for _, comment := range m.comments {
		if comment.OrgID != orgID || comment.IsDeleted || !match(comment) {
			continue
		}
		cp := *comment
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		if page.SortBy == engagement.SortUpdatedAt {
			less = matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		} else {
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if page.Order == engagement.OrderDesc {
			return !less
		}
		return less
	})
	total := len(matched)
	offset := page.Offset()
	if offset >= total {
		return nil, total, nil
	}
	end := offset + page.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memStore) CreateLike(_ context.Context, like *engagement.Like) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[like.BlogID]
	if !ok {
		return engagement.ErrNotFound
	}
	likeKey := like.BlogID + "/" + like.UserID
	if _, ok := m.likes[likeKey]; ok {
		return engagement.ErrAlreadyExists
	}
	like.CreatedAt = m.tick()
	cp := *like
	m.likes[likeKey] = &cp
	blog.LikesCount++
	return nil
}

func (m *memStore) GetLike(_ context.Context, blogID, userID string) (*engagement.Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	like, ok := m.likes[blogID+"/"+userID]
	if !ok {
		return nil, engagement.ErrNotFound
	}
	cp := *like
	return &cp, nil
}

func (m *memStore) DeleteLike(_ context.Context, blogID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	likeKey := blogID + "/" + userID
	if _, ok := m.likes[likeKey]; !ok {
		return engagement.ErrNotFound
	}
	delete(m.likes, likeKey)
	if blog, ok := m.blogs[blogID]; ok && blog.LikesCount > 0 {
		blog.LikesCount--
	}
	return nil
}
