package shared

import "context"

// Session carries the acting staff member through every engine call. It is an
// explicit value, never ambient state, so services stay unit-testable.
type Session struct {
	StaffID     string
	Name        string
	Role        Role
	Permissions []string
}

// Allow reports whether the session carries the named permission.
func (s Session) Allow(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// NewSession builds a session for a staff member with the permissions of
// their role.
func NewSession(staffID, name string, role Role) Session {
	return Session{
		StaffID:     staffID,
		Name:        name,
		Role:        role,
		Permissions: RolePermissions(role),
	}
}

type sessionKey struct{}

// ContextWithSession stores the session on the request context.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext retrieves the session placed by the auth middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}
