package services

import (
	"context"
	"encoding/json"
	"time"

	"notehub-backend/application/ports"
	"notehub-backend/domain/note"
	"notehub-backend/infrastructure/cache"
	pkgerrors "notehub-backend/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// NoteServiceConfig controls cache behavior for note operations
type NoteServiceConfig struct {
	NoteTTL   time.Duration // TTL for single-note entries
	ListTTL   time.Duration // TTL for per-user listings
	SearchTTL time.Duration // TTL for search result sets
}

// DefaultNoteServiceConfig returns sensible defaults
func DefaultNoteServiceConfig() NoteServiceConfig {
	return NoteServiceConfig{
		NoteTTL:   5 * time.Minute,
		ListTTL:   time.Minute,
		SearchTTL: time.Minute,
	}
}

// NoteService composes the cache key policy, the key-value cache, the note
// repository and the search coordinator into the operations the request
// layer consumes.
//
// Reads go cache-first: a hit short-circuits the repository, but never the
// authorization check, which is re-evaluated against the cached snapshot.
// Writes go repository-first: the cache is never the authority, entries are
// refreshed or invalidated after the store mutation succeeds.
type NoteService struct {
	repo     ports.NoteRepository
	cache    ports.Cache
	searcher *SearchService
	index    ports.SearchIndex // nil when no index is configured
	config   NoteServiceConfig
	logger   *zap.Logger

	// collapses concurrent cache misses for the same key into one
	// repository read
	group singleflight.Group
}

// NewNoteService creates a new note service
func NewNoteService(
	repo ports.NoteRepository,
	kv ports.Cache,
	searcher *SearchService,
	index ports.SearchIndex,
	config NoteServiceConfig,
	logger *zap.Logger,
) *NoteService {
	return &NoteService{
		repo:     repo,
		cache:    kv,
		searcher: searcher,
		index:    index,
		config:   config,
		logger:   logger,
	}
}

// GetNotes returns all notes owned by userID, cache-first
func (s *NoteService) GetNotes(ctx context.Context, userID string) ([]note.Snapshot, error) {
	key := cache.Key(cache.QueryGetNotes, cache.KeyParts{UserID: userID})

	if data, ok := s.cache.Get(ctx, key); ok {
		var snaps []note.Snapshot
		if err := json.Unmarshal(data, &snaps); err == nil {
			return snaps, nil
		}
		// Undecodable entries are treated as a miss
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		notes, err := s.repo.FindByOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		snaps := note.Snapshots(notes)
		s.cacheSet(ctx, key, snaps, s.config.ListTTL)
		return snaps, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]note.Snapshot), nil
}

// GetNoteByID returns a single note, cache-first. A cache hit is not exempt
// from authorization: the visibility predicate runs against the cached
// snapshot before anything is returned.
func (s *NoteService) GetNoteByID(ctx context.Context, noteID, userID string) (note.Snapshot, error) {
	key := cache.Key(cache.QueryGetNoteByID, cache.KeyParts{NoteID: noteID, UserID: userID})

	if data, ok := s.cache.Get(ctx, key); ok {
		var snap note.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			if !note.Reconstruct(snap).IsVisibleTo(userID) {
				return note.Snapshot{}, pkgerrors.NewAuthorizationError("you are not authorized to see this note")
			}
			return snap, nil
		}
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		n, err := s.repo.FindByID(ctx, noteID, userID)
		if err != nil {
			return nil, err
		}
		snap := n.Snapshot()
		s.cacheSet(ctx, key, snap, s.config.NoteTTL)
		return snap, nil
	})
	if err != nil {
		return note.Snapshot{}, err
	}
	return result.(note.Snapshot), nil
}

// SearchNotes returns the notes visible to userID matching query,
// cache-first. Search entries age out on TTL; they are not invalidated on
// writes because query text is unenumerable.
func (s *NoteService) SearchNotes(ctx context.Context, query, userID string) ([]note.Snapshot, error) {
	key := cache.Key(cache.QuerySearchNotes, cache.KeyParts{UserID: userID, Query: query})

	if data, ok := s.cache.Get(ctx, key); ok {
		var snaps []note.Snapshot
		if err := json.Unmarshal(data, &snaps); err == nil {
			return visibleSnapshots(snaps, userID), nil
		}
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		notes, err := s.searcher.Search(ctx, query, userID)
		if err != nil {
			return nil, err
		}
		snaps := note.Snapshots(notes)
		s.cacheSet(ctx, key, snaps, s.config.SearchTTL)
		return snaps, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]note.Snapshot), nil
}

// CreateNote persists a new note, then refreshes the owner's cache entries
func (s *NoteService) CreateNote(ctx context.Context, title, content, ownerID string) (note.Snapshot, error) {
	n, err := s.repo.Create(ctx, title, content, ownerID)
	if err != nil {
		return note.Snapshot{}, err
	}

	snap := n.Snapshot()
	s.cacheSet(ctx, s.noteKey(n.ID(), ownerID), snap, s.config.NoteTTL)
	s.cache.Delete(ctx, s.listKey(ownerID))

	s.indexNote(ctx, n)

	return snap, nil
}

// UpdateNote replaces a note's title and content, then refreshes the
// owner's entry and drops every sharee's now-stale entry.
func (s *NoteService) UpdateNote(ctx context.Context, noteID, title, content, ownerID string) (note.Snapshot, error) {
	n, err := s.repo.Update(ctx, noteID, title, content, ownerID)
	if err != nil {
		return note.Snapshot{}, err
	}

	snap := n.Snapshot()
	s.cacheSet(ctx, s.noteKey(noteID, ownerID), snap, s.config.NoteTTL)
	stale := []string{s.listKey(ownerID)}
	for _, shareeID := range n.SharedWith() {
		stale = append(stale, s.noteKey(noteID, shareeID))
	}
	s.cache.Delete(ctx, stale...)

	s.indexNote(ctx, n)

	return snap, nil
}

// DeleteNote removes a note, then drops the entries of the owner and every
// prior sharee.
func (s *NoteService) DeleteNote(ctx context.Context, noteID, ownerID string) error {
	deleted, err := s.repo.Delete(ctx, noteID, ownerID)
	if err != nil {
		return err
	}

	stale := []string{
		s.noteKey(noteID, ownerID),
		s.listKey(ownerID),
	}
	for _, shareeID := range deleted.SharedWith() {
		stale = append(stale, s.noteKey(noteID, shareeID))
	}
	s.cache.Delete(ctx, stale...)

	s.removeFromIndex(ctx, noteID)

	return nil
}

// ShareNote adds a user to a note's sharing list, then refreshes the
// entries of the owner and every sharee with the new snapshot.
func (s *NoteService) ShareNote(ctx context.Context, noteID, targetUsername, ownerID string) (note.Snapshot, error) {
	n, err := s.repo.Share(ctx, noteID, targetUsername, ownerID)
	if err != nil {
		return note.Snapshot{}, err
	}

	snap := n.Snapshot()
	s.cacheSet(ctx, s.noteKey(noteID, ownerID), snap, s.config.NoteTTL)
	for _, shareeID := range n.SharedWith() {
		s.cacheSet(ctx, s.noteKey(noteID, shareeID), snap, s.config.NoteTTL)
	}

	s.indexNote(ctx, n)

	return snap, nil
}

// visibleSnapshots re-applies the visibility predicate to cached search
// results before they are returned.
func visibleSnapshots(snaps []note.Snapshot, userID string) []note.Snapshot {
	visible := snaps[:0]
	for _, snap := range snaps {
		if note.Reconstruct(snap).IsVisibleTo(userID) {
			visible = append(visible, snap)
		}
	}
	return visible
}

func (s *NoteService) noteKey(noteID, userID string) string {
	return cache.Key(cache.QueryGetNoteByID, cache.KeyParts{NoteID: noteID, UserID: userID})
}

func (s *NoteService) listKey(userID string) string {
	return cache.Key(cache.QueryGetNotes, cache.KeyParts{UserID: userID})
}

// cacheSet marshals and stores a value; marshal failures are skipped, the
// next read simply misses.
func (s *NoteService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Debug("Skipping cache population", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, data, ttl)
}

// indexNote upserts the note into the search index, best-effort
func (s *NoteService) indexNote(ctx context.Context, n *note.Note) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, n); err != nil {
		s.logger.Warn("Search index update failed",
			zap.String("noteID", n.ID()),
			zap.Error(err),
		)
	}
}

// removeFromIndex deletes the note from the search index, best-effort
func (s *NoteService) removeFromIndex(ctx context.Context, noteID string) {
	if s.index == nil {
		return
	}
	if err := s.index.Remove(ctx, noteID); err != nil {
		s.logger.Warn("Search index removal failed",
			zap.String("noteID", noteID),
			zap.Error(err),
		)
	}
}
