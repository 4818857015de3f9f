package auth

import "context"

var userCtxKey = &contextKey{"user"}
var roleCtxKey = &contextKey{"project-role"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithProjectRole sets the resolved project role in the given context
func WithProjectRole(r context.Context, role Role) context.Context {
	return context.WithValue(r, roleCtxKey, role)
}

// ProjectRoleFromContext finds the resolved project role from the context.
func ProjectRoleFromContext(ctx context.Context) (Role, bool) {
	raw, ok := ctx.Value(roleCtxKey).(Role)
	return raw, ok
}
