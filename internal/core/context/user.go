// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID           string
	Username         string
	IsBackoffice     bool
	IsTroubleshooter bool
	IsSuperuser      bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// IsBackoffice checks if the context user may perform backoffice actions.
func IsBackoffice(ctx context.Context) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return u.IsBackoffice || u.IsSuperuser
}

// IsTroubleshooter checks if the context user may perform troubleshooter actions.
func IsTroubleshooter(ctx context.Context) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return u.IsTroubleshooter || u.IsSuperuser
}
