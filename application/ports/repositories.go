package ports

import (
	"context"
	"time"

	"notehub-backend/domain/note"
	"notehub-backend/domain/user"
)

// NoteRepository defines the interface for authoritative note persistence.
// This is a port in hexagonal architecture - the services don't know about
// the implementation. The repository, not the cache, is the source of truth.
type NoteRepository interface {
	// Create persists a new note and appends its id to the owner's
	// back-reference list. Fails with a validation error if the owner
	// does not exist.
	Create(ctx context.Context, title, content, ownerID string) (*note.Note, error)

	// Update replaces title and content. Only the owner may update;
	// the sharing list is untouched.
	Update(ctx context.Context, noteID, title, content, ownerID string) (*note.Note, error)

	// FindByOwner returns all notes the user owns. Notes shared with the
	// user are deliberately excluded from this listing.
	FindByOwner(ctx context.Context, userID string) ([]*note.Note, error)

	// FindByID returns a note the caller is allowed to see: the owner or
	// a user the note was shared with.
	FindByID(ctx context.Context, noteID, userID string) (*note.Note, error)

	// Delete removes a note owned by ownerID and pulls its id out of every
	// user's back-reference list. A note owned by someone else is reported
	// as not found, indistinguishable from a note that never existed.
	// Returns the removed note so callers can invalidate derived state for
	// every prior sharee.
	Delete(ctx context.Context, noteID, ownerID string) (*note.Note, error)

	// Share adds the user behind targetUsername to the note's sharing list
	// and the note to the target's back-references. Idempotent.
	Share(ctx context.Context, noteID, targetUsername, ownerID string) (*note.Note, error)

	// FindByPattern is the search fallback scan: case-insensitive substring
	// match of query against title or content, restricted to notes visible
	// to userID.
	FindByPattern(ctx context.Context, query, userID string) ([]*note.Note, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create persists a new user. Usernames are unique.
	Create(ctx context.Context, u *user.User) error

	// FindByID returns a user by id
	FindByID(ctx context.Context, id string) (*user.User, error)

	// FindByUsername returns a user by unique username
	FindByUsername(ctx context.Context, username string) (*user.User, error)

	// Exists reports whether a user with the given id exists
	Exists(ctx context.Context, id string) (bool, error)
}

// SearchIndex is the optional full-text index in front of the repository.
// Query failures are transient by contract; callers fall back to the
// repository scan.
type SearchIndex interface {
	// Search matches query against note content, restricted to notes where
	// userID is the owner or a sharee.
	Search(ctx context.Context, query, userID string) ([]*note.Note, error)

	// Index upserts a note document. Best-effort; callers never fail a
	// write on an index error.
	Index(ctx context.Context, n *note.Note) error

	// Remove deletes a note document. Best-effort.
	Remove(ctx context.Context, noteID string) error
}

// Cache is a TTL-capable key-value store holding serialized snapshots.
// It is a performance optimization, never a correctness dependency: backend
// failures map to a miss on reads and a no-op on writes, so no method
// returns an error.
type Cache interface {
	// Get returns the raw value for key and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes the given keys
	Delete(ctx context.Context, keys ...string)
}
