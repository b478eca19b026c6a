package user

import (
	"strings"
	"time"

	pkgerrors "notehub-backend/pkg/errors"

	"github.com/google/uuid"
)

// User is an account that owns and receives notes. NoteIDs is the
// denormalized back-reference list the repository keeps consistent with
// Note.owner and Note.sharedWith.
type User struct {
	id           string
	username     string
	passwordHash string
	noteIDs      []string
	createdAt    time.Time
}

// NewUser creates a new user with no note references
func NewUser(username, passwordHash string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, pkgerrors.NewValidationError("username cannot be empty")
	}
	if passwordHash == "" {
		return nil, pkgerrors.NewValidationError("password hash cannot be empty")
	}

	return &User{
		id:           uuid.New().String(),
		username:     username,
		passwordHash: passwordHash,
		noteIDs:      []string{},
		createdAt:    time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a user from a persisted snapshot
func Reconstruct(s Snapshot) *User {
	notes := make([]string, len(s.NoteIDs))
	copy(notes, s.NoteIDs)
	return &User{
		id:           s.ID,
		username:     s.Username,
		passwordHash: s.PasswordHash,
		noteIDs:      notes,
		createdAt:    s.CreatedAt,
	}
}

// ID returns the user's unique identifier
func (u *User) ID() string { return u.id }

// Username returns the unique username
func (u *User) Username() string { return u.username }

// PasswordHash returns the stored credential material
func (u *User) PasswordHash() string { return u.passwordHash }

// CreatedAt returns the account creation timestamp
func (u *User) CreatedAt() time.Time { return u.createdAt }

// NoteIDs returns a copy of the note back-reference list
func (u *User) NoteIDs() []string {
	notes := make([]string, len(u.noteIDs))
	copy(notes, u.noteIDs)
	return notes
}

// References reports whether the user's back-reference list contains noteID
func (u *User) References(noteID string) bool {
	for _, id := range u.noteIDs {
		if id == noteID {
			return true
		}
	}
	return false
}

// AddNoteRef appends a note back-reference, idempotently
func (u *User) AddNoteRef(noteID string) {
	if u.References(noteID) {
		return
	}
	u.noteIDs = append(u.noteIDs, noteID)
}

// RemoveNoteRef pulls a note back-reference. Safe to call when the
// reference is already gone, so cleanup stays re-driveable.
func (u *User) RemoveNoteRef(noteID string) {
	kept := u.noteIDs[:0]
	for _, id := range u.noteIDs {
		if id != noteID {
			kept = append(kept, id)
		}
	}
	u.noteIDs = kept
}

// Snapshot returns a serializable copy of the user's state
func (u *User) Snapshot() Snapshot {
	notes := make([]string, len(u.noteIDs))
	copy(notes, u.noteIDs)
	return Snapshot{
		ID:           u.id,
		Username:     u.username,
		PasswordHash: u.passwordHash,
		NoteIDs:      notes,
		CreatedAt:    u.createdAt,
	}
}

// Snapshot is the flat representation of a user used for persistence
type Snapshot struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	NoteIDs      []string  `json:"note_ids"`
	CreatedAt    time.Time `json:"created_at"`
}
