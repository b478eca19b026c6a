package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notehub-backend/application/ports"
	"notehub-backend/domain/note"
	"notehub-backend/domain/user"
	"notehub-backend/infrastructure/cache"
	"notehub-backend/infrastructure/persistence/memory"
	pkgerrors "notehub-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// downCache simulates an unreachable cache backend: every read misses,
// every write is a no-op.
type downCache struct{}

func (downCache) Get(ctx context.Context, key string) ([]byte, bool)              { return nil, false }
func (downCache) Set(ctx context.Context, key string, value []byte, d time.Duration) {}
func (downCache) Delete(ctx context.Context, keys ...string)                      {}

type noteFixture struct {
	svc   *NoteService
	repo  *memory.NoteRepository
	cache ports.Cache
	index *stubIndex
	alice *user.User
	bob   *user.User
}

func newNoteFixture(t *testing.T, kv ports.Cache) *noteFixture {
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

	index := &stubIndex{}
	logger := zap.NewNop()
	searcher := NewSearchService(index, notes, logger)
	svc := NewNoteService(notes, kv, searcher, index, DefaultNoteServiceConfig(), logger)

	return &noteFixture{svc: svc, repo: notes, cache: kv, index: index, alice: alice, bob: bob}
}

func TestGetNoteByIDCacheHitEquivalence(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)

	miss, err := f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	require.NoError(t, err)

	hit, err := f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	require.NoError(t, err)

	missJSON, err := json.Marshal(miss)
	require.NoError(t, err)
	hitJSON, err := json.Marshal(hit)
	require.NoError(t, err)
	assert.JSONEq(t, string(missJSON), string(hitJSON))
}

func TestGetNoteByIDAuthorizationOnCacheHit(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemoryCache()
	f := newNoteFixture(t, kv)

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)

	// Plant bob's entry directly, as if populated before a revocation
	data, err := json.Marshal(created)
	require.NoError(t, err)
	key := cache.Key(cache.QueryGetNoteByID, cache.KeyParts{NoteID: created.ID, UserID: f.bob.ID()})
	kv.Set(ctx, key, data, 0)

	_, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	assert.True(t, pkgerrors.IsAuthorization(err), "a cache hit never bypasses the visibility check")
}

func TestGetNoteByIDUndecodableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemoryCache()
	f := newNoteFixture(t, kv)

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)

	key := cache.Key(cache.QueryGetNoteByID, cache.KeyParts{NoteID: created.ID, UserID: f.alice.ID()})
	kv.Set(ctx, key, []byte("{corrupt"), 0)

	got, err := f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Content)
}

func TestGetNotesListInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	_, err := f.svc.CreateNote(ctx, "First", "one", f.alice.ID())
	require.NoError(t, err)

	listed, err := f.svc.GetNotes(ctx, f.alice.ID())
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// The create drops the cached listing, so the new note shows up
	_, err = f.svc.CreateNote(ctx, "Second", "two", f.alice.ID())
	require.NoError(t, err)

	listed, err = f.svc.GetNotes(ctx, f.alice.ID())
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestUpdateInvalidatesShareeEntries(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)
	_, err = f.svc.ShareNote(ctx, created.ID, "bob", f.alice.ID())
	require.NoError(t, err)

	// Warm bob's entry
	got, err := f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.NoError(t, err)
	require.Equal(t, "buy milk", got.Content)

	_, err = f.svc.UpdateNote(ctx, created.ID, "Groceries", "buy milk and eggs", f.alice.ID())
	require.NoError(t, err)

	got, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.NoError(t, err)
	assert.Equal(t, "buy milk and eggs", got.Content, "bob must never read the stale entry")
}

func TestDeleteInvalidatesEveryReader(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)
	_, err = f.svc.ShareNote(ctx, created.ID, "bob", f.alice.ID())
	require.NoError(t, err)

	// Warm both entries
	_, err = f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	require.NoError(t, err)
	_, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteNote(ctx, created.ID, f.alice.ID()))

	_, err = f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.Contains(t, f.index.removed, created.ID)
}

func TestShareRefreshesEntries(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)

	_, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.True(t, pkgerrors.IsAuthorization(err))

	shared, err := f.svc.ShareNote(ctx, created.ID, "bob", f.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID()}, shared.SharedWith)

	got, err := f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestSelfShareLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)

	_, err = f.svc.ShareNote(ctx, created.ID, "alice", f.alice.ID())
	assert.True(t, pkgerrors.IsSelfShare(err))

	got, err := f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	require.NoError(t, err)
	assert.Empty(t, got.SharedWith)
}

func TestSearchNotesRefiltersCachedResults(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemoryCache()
	f := newNoteFixture(t, kv)

	// Plant a cached result set holding a note alice cannot see
	theirs, err := note.NewNote("Theirs", "milk", f.bob.ID())
	require.NoError(t, err)
	data, err := json.Marshal([]note.Snapshot{theirs.Snapshot()})
	require.NoError(t, err)
	key := cache.Key(cache.QuerySearchNotes, cache.KeyParts{UserID: f.alice.ID(), Query: "milk"})
	kv.Set(ctx, key, data, 0)

	found, err := f.svc.SearchNotes(ctx, "milk", f.alice.ID())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestOperationsSurviveCacheOutage(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, downCache{})

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)

	got, err := f.svc.GetNoteByID(ctx, created.ID, f.alice.ID())
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Content)

	listed, err := f.svc.GetNotes(ctx, f.alice.ID())
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = f.svc.ShareNote(ctx, created.ID, "bob", f.alice.ID())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteNote(ctx, created.ID, f.alice.ID()))
}

// The full lifecycle from two users' perspectives: create, share, read,
// update, delete, with the cache in the loop the whole way.
func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(t, cache.NewMemoryCache())

	created, err := f.svc.CreateNote(ctx, "Groceries", "buy milk", f.alice.ID())
	require.NoError(t, err)
	assert.Contains(t, f.index.indexed, created.ID)

	_, err = f.svc.ShareNote(ctx, created.ID, "bob", f.alice.ID())
	require.NoError(t, err)

	got, err := f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Content)

	_, err = f.svc.UpdateNote(ctx, created.ID, "Groceries", "buy oat milk", f.alice.ID())
	require.NoError(t, err)

	got, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", got.Content)

	require.NoError(t, f.svc.DeleteNote(ctx, created.ID, f.alice.ID()))

	_, err = f.svc.GetNoteByID(ctx, created.ID, f.bob.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	listed, err := f.svc.GetNotes(ctx, f.alice.ID())
	require.NoError(t, err)
	assert.Empty(t, listed)
}
