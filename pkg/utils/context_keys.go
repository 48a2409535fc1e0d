package utils

import (
	"context"
	"slices"
)

type ContextKey string

const (
	UserIDKey    ContextKey = "userId"
	UserEmailKey ContextKey = "email"
	RoleKey      ContextKey = "role"
	ExpiresAtKey ContextKey = "expiresAt"
)

// OperatorRoles may manage invitations and act for any candidate.
var OperatorRoles = []string{"recruiter", "admin"}

// UserID returns the authenticated caller id placed in ctx by the JWT
// middleware, or false for anonymous requests.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

func IsOperator(ctx context.Context) bool {
	return slices.Contains(OperatorRoles, Role(ctx))
}
