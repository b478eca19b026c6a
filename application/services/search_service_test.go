package services

import (
	"context"
	"errors"
	"testing"

	"notehub-backend/application/ports"
	"notehub-backend/domain/note"
	"notehub-backend/domain/user"
	"notehub-backend/infrastructure/persistence/memory"
	pkgerrors "notehub-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubIndex is a controllable SearchIndex for exercising the coordinator
type stubIndex struct {
	notes   []*note.Note
	err     error
	indexed []string
	removed []string
}

func (s *stubIndex) Search(ctx context.Context, query, userID string) ([]*note.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.notes, nil
}

func (s *stubIndex) Index(ctx context.Context, n *note.Note) error {
	s.indexed = append(s.indexed, n.ID())
	return nil
}

func (s *stubIndex) Remove(ctx context.Context, noteID string) error {
	s.removed = append(s.removed, noteID)
	return nil
}

// failingRepo overrides the fallback scan with a hard failure
type failingRepo struct {
	ports.NoteRepository
}

func (failingRepo) FindByPattern(ctx context.Context, query, userID string) ([]*note.Note, error) {
	return nil, errors.New("store scan failed")
}

func seedSearchFixture(t *testing.T) (*memory.NoteRepository, *user.User, *user.User) {
	t.Helper()
	store := memory.NewStore()
	notes := memory.NewNoteRepository(store)
	users := memory.NewUserRepository(store)

	ctx := context.Background()
	alice, err := user.NewUser("alice", "hash")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, alice))
	bob, err := user.NewUser("bob", "hash")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, bob))

	return notes, alice, bob
}

func TestSearchUsesIndexWhenHealthy(t *testing.T) {
	ctx := context.Background()
	repo, alice, _ := seedSearchFixture(t)

	indexed, err := note.NewNote("From Index", "milk", alice.ID())
	require.NoError(t, err)
	index := &stubIndex{notes: []*note.Note{indexed}}

	svc := NewSearchService(index, repo, zap.NewNop())

	found, err := svc.Search(ctx, "milk", alice.ID())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "From Index", found[0].Title())
}

func TestSearchFallsBackWhenIndexFails(t *testing.T) {
	ctx := context.Background()
	repo, alice, _ := seedSearchFixture(t)

	_, err := repo.Create(ctx, "Groceries", "buy milk", alice.ID())
	require.NoError(t, err)

	index := &stubIndex{err: errors.New("index unavailable")}
	svc := NewSearchService(index, repo, zap.NewNop())

	found, err := svc.Search(ctx, "milk", alice.ID())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Groceries", found[0].Title())
}

func TestSearchWithoutIndexUsesStoreScan(t *testing.T) {
	ctx := context.Background()
	repo, alice, _ := seedSearchFixture(t)

	_, err := repo.Create(ctx, "Groceries", "buy milk", alice.ID())
	require.NoError(t, err)

	svc := NewSearchService(nil, repo, zap.NewNop())

	found, err := svc.Search(ctx, "milk", alice.ID())
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSearchErrorWhenBothPathsFail(t *testing.T) {
	ctx := context.Background()

	index := &stubIndex{err: errors.New("index unavailable")}
	svc := NewSearchService(index, failingRepo{}, zap.NewNop())

	_, err := svc.Search(ctx, "milk", "user-1")
	assert.True(t, pkgerrors.IsSearch(err))
}

func TestSearchFiltersStaleIndexResults(t *testing.T) {
	ctx := context.Background()
	repo, alice, bob := seedSearchFixture(t)

	mine, err := note.NewNote("Mine", "milk", alice.ID())
	require.NoError(t, err)
	// The index lags the store and still returns bob's note
	theirs, err := note.NewNote("Theirs", "milk", bob.ID())
	require.NoError(t, err)

	index := &stubIndex{notes: []*note.Note{mine, theirs}}
	svc := NewSearchService(index, repo, zap.NewNop())

	found, err := svc.Search(ctx, "milk", alice.ID())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Mine", found[0].Title())
}
