package auth

import (
	"context"
	"errors"

	"notehub-backend/pkg/common"
)

// UserContext carries the authenticated identity through a request
type UserContext struct {
	UserID   string
	Username string
}

// ErrNoUserInContext is returned when a request reaches an authenticated
// handler without an identity attached.
var ErrNoUserInContext = errors.New("no authenticated user in context")

// SetUserInContext attaches the authenticated user to the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	ctx = common.WithUserID(ctx, user.UserID)
	return common.WithUsername(ctx, user.Username)
}

// GetUserFromContext extracts the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	userID, ok := common.GetUserID(ctx)
	if !ok || userID == "" {
		return nil, ErrNoUserInContext
	}
	username, _ := common.GetUsername(ctx)
	return &UserContext{UserID: userID, Username: username}, nil
}
