package identity

import "context"

type orgContextKey struct{}
type userContextKey struct{}

// ContextWithOrganization attaches the resolved tenant to the context.
func ContextWithOrganization(ctx context.Context, org *Organization) context.Context {
	if org == nil {
		return ctx
	}
	return context.WithValue(ctx, orgContextKey{}, org)
}

// OrganizationFromContext extracts the tenant resolved by the api key middleware.
func OrganizationFromContext(ctx context.Context) (*Organization, bool) {
	if ctx == nil {
		return nil, false
	}
	org, ok := ctx.Value(orgContextKey{}).(*Organization)
	if !ok || org == nil {
		return nil, false
	}
	return org, true
}

// ContextWithUser attaches the authenticated actor to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated actor from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(userContextKey{}).(*User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
