package note

import (
	"strings"
	"time"

	pkgerrors "notehub-backend/pkg/errors"

	"github.com/google/uuid"
)

// Note is the main entity representing a user's note.
// Fields are private so the invariants around ownership and sharing can only
// be changed through the entity's own methods.
type Note struct {
	id         string
	ownerID    string
	title      string
	content    string
	sharedWith []string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewNote creates a new note owned by ownerID with an empty sharing list
func NewNote(title, content, ownerID string) (*Note, error) {
	if err := validateFields(title, content); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("owner id cannot be empty")
	}

	now := time.Now().UTC()
	return &Note{
		id:         uuid.New().String(),
		ownerID:    ownerID,
		title:      title,
		content:    content,
		sharedWith: []string{},
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a note from a persisted snapshot without re-running
// creation side effects.
func Reconstruct(s Snapshot) *Note {
	shared := make([]string, len(s.SharedWith))
	copy(shared, s.SharedWith)
	return &Note{
		id:         s.ID,
		ownerID:    s.OwnerID,
		title:      s.Title,
		content:    s.Content,
		sharedWith: shared,
		createdAt:  s.CreatedAt,
		updatedAt:  s.UpdatedAt,
	}
}

// ID returns the note's unique identifier
func (n *Note) ID() string { return n.id }

// OwnerID returns the owning user's identifier
func (n *Note) OwnerID() string { return n.ownerID }

// Title returns the note's title
func (n *Note) Title() string { return n.title }

// Content returns the note's content
func (n *Note) Content() string { return n.content }

// CreatedAt returns the creation timestamp
func (n *Note) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns the last mutation timestamp
func (n *Note) UpdatedAt() time.Time { return n.updatedAt }

// SharedWith returns a copy of the user ids the note is shared with
func (n *Note) SharedWith() []string {
	shared := make([]string, len(n.sharedWith))
	copy(shared, n.sharedWith)
	return shared
}

// IsOwnedBy reports whether userID owns this note.
// Identity equality is canonical string equality throughout the service.
func (n *Note) IsOwnedBy(userID string) bool {
	return n.ownerID == userID
}

// IsVisibleTo reports whether userID may read this note: the owner and every
// user in the sharing list, nobody else. This is the single visibility
// predicate used by repository reads, cache hits and both search paths.
func (n *Note) IsVisibleTo(userID string) bool {
	if n.IsOwnedBy(userID) {
		return true
	}
	for _, id := range n.sharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// UpdateContent replaces title and content, leaving the sharing list untouched
func (n *Note) UpdateContent(title, content string) error {
	if err := validateFields(title, content); err != nil {
		return err
	}
	n.title = title
	n.content = content
	n.updatedAt = time.Now().UTC()
	return nil
}

// ShareWith adds userID to the sharing list. Sharing with the owner is a
// domain-rule violation; sharing twice is a no-op and reports false.
func (n *Note) ShareWith(userID string) (bool, error) {
	if n.IsOwnedBy(userID) {
		return false, pkgerrors.NewSelfShareError()
	}
	for _, id := range n.sharedWith {
		if id == userID {
			return false, nil
		}
	}
	n.sharedWith = append(n.sharedWith, userID)
	return true, nil
}

// Matches reports whether the query occurs in the title or content,
// case-insensitively. Used by the fallback search scan.
func (n *Note) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(n.title), q) ||
		strings.Contains(strings.ToLower(n.content), q)
}

// Snapshot returns a serializable copy of the note's state
func (n *Note) Snapshot() Snapshot {
	shared := make([]string, len(n.sharedWith))
	copy(shared, n.sharedWith)
	return Snapshot{
		ID:         n.id,
		OwnerID:    n.ownerID,
		Title:      n.title,
		Content:    n.content,
		SharedWith: shared,
		CreatedAt:  n.createdAt,
		UpdatedAt:  n.updatedAt,
	}
}

// Snapshot is the flat representation of a note used for persistence,
// cache entries and API responses.
type Snapshot struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	SharedWith []string  `json:"shared_with"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshots converts a slice of notes into snapshots
func Snapshots(notes []*Note) []Snapshot {
	out := make([]Snapshot, len(notes))
	for i, n := range notes {
		out[i] = n.Snapshot()
	}
	return out
}

func validateFields(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	if strings.TrimSpace(content) == "" {
		return pkgerrors.NewValidationError("content cannot be empty")
	}
	return nil
}
