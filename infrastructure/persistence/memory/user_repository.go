package memory

import (
	"context"

	"notehub-backend/domain/user"
	pkgerrors "notehub-backend/pkg/errors"
)

// UserRepository implements ports.UserRepository on the in-process store
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a user repository over the given store
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create persists a new user; a duplicate username is a conflict
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == u.Username() {
			return pkgerrors.NewConflictError("username already taken")
		}
	}

	r.store.users[u.ID()] = u.Snapshot()
	return nil
}

// FindByID returns a user by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	snap, ok := r.store.users[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return user.Reconstruct(snap), nil
}

// FindByUsername returns a user by unique username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, snap := range r.store.users {
		if snap.Username == username {
			return user.Reconstruct(snap), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("user")
}

// Exists reports whether a user with the given id exists
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.users[id]
	return ok, nil
}
