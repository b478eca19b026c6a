package memory

import (
	"context"

	"notehub-backend/domain/note"
	"notehub-backend/domain/user"
	pkgerrors "notehub-backend/pkg/errors"

	"github.com/google/uuid"
)

// NoteRepository implements ports.NoteRepository on the in-process store
type NoteRepository struct {
	store *Store
}

// NewNoteRepository creates a note repository over the given store
func NewNoteRepository(store *Store) *NoteRepository {
	return &NoteRepository{store: store}
}

// Create persists a new note and appends it to the owner's back-references
func (r *NoteRepository) Create(ctx context.Context, title, content, ownerID string) (*note.Note, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	owner, ok := r.store.users[ownerID]
	if !ok {
		return nil, pkgerrors.NewValidationError("owner does not exist")
	}

	n, err := note.NewNote(title, content, ownerID)
	if err != nil {
		return nil, err
	}

	r.store.notes[n.ID()] = n.Snapshot()

	u := user.Reconstruct(owner)
	u.AddNoteRef(n.ID())
	r.store.users[ownerID] = u.Snapshot()

	return n, nil
}

// Update replaces title and content of an owned note
func (r *NoteRepository) Update(ctx context.Context, noteID, title, content, ownerID string) (*note.Note, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.notes[noteID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("note")
	}

	n := note.Reconstruct(snap)
	if !n.IsOwnedBy(ownerID) {
		return nil, pkgerrors.NewAuthorizationError("you are not authorized to update this note")
	}

	if err := n.UpdateContent(title, content); err != nil {
		return nil, err
	}

	r.store.notes[noteID] = n.Snapshot()
	return n, nil
}

// FindByOwner returns all notes owned by userID
func (r *NoteRepository) FindByOwner(ctx context.Context, userID string) ([]*note.Note, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, pkgerrors.NewValidationError("invalid user id")
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, ok := r.store.users[userID]; !ok {
		return nil, pkgerrors.NewValidationError("user does not exist")
	}

	notes := []*note.Note{}
	for _, snap := range r.store.notes {
		if snap.OwnerID == userID {
			notes = append(notes, note.Reconstruct(snap))
		}
	}
	return notes, nil
}

// FindByID returns a note visible to userID
func (r *NoteRepository) FindByID(ctx context.Context, noteID, userID string) (*note.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	snap, ok := r.store.notes[noteID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("note")
	}

	n := note.Reconstruct(snap)
	if !n.IsVisibleTo(userID) {
		return nil, pkgerrors.NewAuthorizationError("you are not authorized to see this note")
	}
	return n, nil
}

// Delete removes an owned note and every user back-reference to it
func (r *NoteRepository) Delete(ctx context.Context, noteID, ownerID string) (*note.Note, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.notes[noteID]
	if !ok || snap.OwnerID != ownerID {
		// Existing under a different owner is indistinguishable from absent
		return nil, pkgerrors.NewNotFoundError("note")
	}

	delete(r.store.notes, noteID)

	for id, us := range r.store.users {
		u := user.Reconstruct(us)
		if u.References(noteID) {
			u.RemoveNoteRef(noteID)
			r.store.users[id] = u.Snapshot()
		}
	}

	return note.Reconstruct(snap), nil
}

// Share adds the target user to the note's sharing list
func (r *NoteRepository) Share(ctx context.Context, noteID, targetUsername, ownerID string) (*note.Note, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap, ok := r.store.notes[noteID]
	if !ok || snap.OwnerID != ownerID {
		return nil, pkgerrors.NewNotFoundError("note")
	}

	var target *user.User
	for _, us := range r.store.users {
		if us.Username == targetUsername {
			target = user.Reconstruct(us)
			break
		}
	}
	if target == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}

	n := note.Reconstruct(snap)
	changed, err := n.ShareWith(target.ID())
	if err != nil {
		return nil, err
	}
	if !changed {
		return n, nil
	}

	r.store.notes[noteID] = n.Snapshot()

	target.AddNoteRef(noteID)
	r.store.users[target.ID()] = target.Snapshot()

	return n, nil
}

// FindByPattern scans for visible notes matching the query
func (r *NoteRepository) FindByPattern(ctx context.Context, query, userID string) ([]*note.Note, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	notes := []*note.Note{}
	for _, snap := range r.store.notes {
		n := note.Reconstruct(snap)
		if n.IsVisibleTo(userID) && n.Matches(query) {
			notes = append(notes, n)
		}
	}
	return notes, nil
}
