package services

import (
	"context"

	"notehub-backend/application/ports"
	"notehub-backend/domain/user"
	"notehub-backend/pkg/auth"
	pkgerrors "notehub-backend/pkg/errors"

	"go.uber.org/zap"
)

// AuthService handles account registration and login. Verified identities
// are carried into the note layer by the auth middleware; the note layer
// trusts them.
type AuthService struct {
	users     ports.UserRepository
	generator *auth.JWTGenerator
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, generator *auth.JWTGenerator, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		generator: generator,
		logger:    logger,
	}
}

// Register creates a new account with a bcrypt-hashed credential
func (s *AuthService) Register(ctx context.Context, username, password string) (user.Snapshot, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return user.Snapshot{}, pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	u, err := user.NewUser(username, hash)
	if err != nil {
		return user.Snapshot{}, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		return user.Snapshot{}, err
	}

	s.logger.Info("User registered", zap.String("userID", u.ID()))
	return u.Snapshot(), nil
}

// Login verifies credentials and issues an access token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, user.Snapshot, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return "", user.Snapshot{}, pkgerrors.NewUnauthorizedError("invalid credentials")
		}
		return "", user.Snapshot{}, err
	}

	if !auth.CheckPassword(u.PasswordHash(), password) {
		return "", user.Snapshot{}, pkgerrors.NewUnauthorizedError("invalid credentials")
	}

	token, err := s.generator.GenerateToken(u.ID(), u.Username())
	if err != nil {
		return "", user.Snapshot{}, pkgerrors.NewInternalError("failed to issue token").WithCause(err)
	}

	return token, u.Snapshot(), nil
}
