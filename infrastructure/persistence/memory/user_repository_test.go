package memory

import (
	"context"
	"testing"

	"notehub-backend/domain/user"
	pkgerrors "notehub-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	u, err := user.NewUser("alice", "hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	t.Run("duplicate username conflicts", func(t *testing.T) {
		dup, err := user.NewUser("alice", "other-hash")
		require.NoError(t, err)
		assert.True(t, pkgerrors.IsConflict(repo.Create(ctx, dup)))
	})
}

func TestUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	u, err := user.NewUser("alice", "hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	byID, err := repo.FindByID(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username())

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), byName.ID())

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.True(t, pkgerrors.IsNotFound(err))

	ok, err := repo.Exists(ctx, u.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
