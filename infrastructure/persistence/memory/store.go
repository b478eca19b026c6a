// Package memory implements the persistence ports on an in-process store.
// It serves tests and cache-less local development with the same semantics
// as the MongoDB implementation.
package memory

import (
	"sync"

	"notehub-backend/domain/note"
	"notehub-backend/domain/user"
)

// Store holds notes and users behind one lock so note mutations and user
// back-reference updates are observed atomically, matching the contract the
// services rely on.
type Store struct {
	mu    sync.RWMutex
	notes map[string]note.Snapshot
	users map[string]user.Snapshot
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		notes: make(map[string]note.Snapshot),
		users: make(map[string]user.Snapshot),
	}
}
