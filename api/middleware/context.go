package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/internal/activity"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxDisplayName contextKey = "display_name"
)

var errNoUser = errors.New("no authenticated user in context")

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func DisplayNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDisplayName).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the member role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

func WithDisplayName(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDisplayName, name)
}

// Identity reads the actor that Auth placed on the request context.
type Identity struct{}

func (Identity) CurrentUser(ctx context.Context) (activity.Actor, error) {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return activity.Actor{}, errNoUser
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return activity.Actor{}, err
	}
	return activity.Actor{ID: id, DisplayName: DisplayNameFromContext(ctx)}, nil
}
