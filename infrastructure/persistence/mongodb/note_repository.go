// Package mongodb implements the persistence ports on the MongoDB document
// store. It owns the referential integrity between notes and the
// back-reference lists on user documents.
package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"notehub-backend/domain/note"
	pkgerrors "notehub-backend/pkg/errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NoteRepository implements ports.NoteRepository backed by MongoDB
type NoteRepository struct {
	notes  *mongo.Collection
	users  *mongo.Collection
	logger *zap.Logger
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *mongo.Database, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{
		notes:  db.Collection("notes"),
		users:  db.Collection("users"),
		logger: logger,
	}
}

// noteDocument represents the MongoDB document structure for a note
type noteDocument struct {
	ID         string    `bson:"_id"`
	OwnerID    string    `bson:"owner_id"`
	Title      string    `bson:"title"`
	Content    string    `bson:"content"`
	SharedWith []string  `bson:"shared_with"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toNoteDocument(n *note.Note) noteDocument {
	s := n.Snapshot()
	return noteDocument{
		ID:         s.ID,
		OwnerID:    s.OwnerID,
		Title:      s.Title,
		Content:    s.Content,
		SharedWith: s.SharedWith,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (d noteDocument) toNote() *note.Note {
	shared := d.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return note.Reconstruct(note.Snapshot{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Title:      d.Title,
		Content:    d.Content,
		SharedWith: shared,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	})
}

// Create persists a new note and appends it to the owner's back-references
func (r *NoteRepository) Create(ctx context.Context, title, content, ownerID string) (*note.Note, error) {
	count, err := r.users.CountDocuments(ctx, bson.M{"_id": ownerID})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("count users", err)
	}
	if count == 0 {
		return nil, pkgerrors.NewValidationError("owner does not exist")
	}

	n, err := note.NewNote(title, content, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := r.notes.InsertOne(ctx, toNoteDocument(n)); err != nil {
		return nil, pkgerrors.NewDatabaseError("insert note", err)
	}

	// Back-reference on the owner; $addToSet keeps this re-driveable
	if _, err := r.users.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{"$addToSet": bson.M{"note_ids": n.ID()}},
	); err != nil {
		return nil, pkgerrors.NewDatabaseError("update owner references", err)
	}

	r.logger.Info("Note created",
		zap.String("noteID", n.ID()),
		zap.String("ownerID", ownerID),
	)

	return n, nil
}

// Update replaces title and content of an owned note
func (r *NoteRepository) Update(ctx context.Context, noteID, title, content, ownerID string) (*note.Note, error) {
	existing, err := r.findDocument(ctx, noteID)
	if err != nil {
		return nil, err
	}

	n := existing.toNote()
	if !n.IsOwnedBy(ownerID) {
		return nil, pkgerrors.NewAuthorizationError("you are not authorized to update this note")
	}

	if err := n.UpdateContent(title, content); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"title":      n.Title(),
		"content":    n.Content(),
		"updated_at": n.UpdatedAt(),
	}}
	if _, err := r.notes.UpdateOne(ctx, bson.M{"_id": noteID, "owner_id": ownerID}, update); err != nil {
		return nil, pkgerrors.NewDatabaseError("update note", err)
	}

	return n, nil
}

// FindByOwner returns all notes owned by userID
func (r *NoteRepository) FindByOwner(ctx context.Context, userID string) ([]*note.Note, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, pkgerrors.NewValidationError("invalid user id")
	}

	count, err := r.users.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("count users", err)
	}
	if count == 0 {
		return nil, pkgerrors.NewValidationError("user does not exist")
	}

	return r.findNotes(ctx, bson.M{"owner_id": userID})
}

// FindByID returns a note visible to userID
func (r *NoteRepository) FindByID(ctx context.Context, noteID, userID string) (*note.Note, error) {
	doc, err := r.findDocument(ctx, noteID)
	if err != nil {
		return nil, err
	}

	n := doc.toNote()
	if !n.IsVisibleTo(userID) {
		return nil, pkgerrors.NewAuthorizationError("you are not authorized to see this note")
	}

	return n, nil
}

// Delete removes an owned note and pulls its id from every user's
// back-reference list. A non-owned note is reported as not found so
// existence is not leaked.
func (r *NoteRepository) Delete(ctx context.Context, noteID, ownerID string) (*note.Note, error) {
	res := r.notes.FindOneAndDelete(ctx, bson.M{"_id": noteID, "owner_id": ownerID})

	var doc noteDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError("note")
		}
		return nil, pkgerrors.NewDatabaseError("delete note", err)
	}

	// Bulk $pull across all users that still reference the note: owner and
	// every sharee. Re-running this after a partial failure is harmless.
	if _, err := r.users.UpdateMany(ctx,
		bson.M{"note_ids": noteID},
		bson.M{"$pull": bson.M{"note_ids": noteID}},
	); err != nil {
		return nil, pkgerrors.NewDatabaseError("remove note references", err)
	}

	r.logger.Info("Note deleted",
		zap.String("noteID", noteID),
		zap.String("ownerID", ownerID),
	)

	return doc.toNote(), nil
}

// Share adds the target user to the note's sharing list
func (r *NoteRepository) Share(ctx context.Context, noteID, targetUsername, ownerID string) (*note.Note, error) {
	res := r.notes.FindOne(ctx, bson.M{"_id": noteID, "owner_id": ownerID})
	var doc noteDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError("note")
		}
		return nil, pkgerrors.NewDatabaseError("find note", err)
	}

	var targetDoc userDocument
	if err := r.users.FindOne(ctx, bson.M{"username": targetUsername}).Decode(&targetDoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError("user")
		}
		return nil, pkgerrors.NewDatabaseError("find user", err)
	}

	n := doc.toNote()
	changed, err := n.ShareWith(targetDoc.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Already shared with this user; nothing to persist
		return n, nil
	}

	if _, err := r.notes.UpdateOne(ctx,
		bson.M{"_id": noteID},
		bson.M{"$addToSet": bson.M{"shared_with": targetDoc.ID}},
	); err != nil {
		return nil, pkgerrors.NewDatabaseError("update note sharing", err)
	}

	if _, err := r.users.UpdateOne(ctx,
		bson.M{"_id": targetDoc.ID},
		bson.M{"$addToSet": bson.M{"note_ids": noteID}},
	); err != nil {
		return nil, pkgerrors.NewDatabaseError("update target references", err)
	}

	r.logger.Info("Note shared",
		zap.String("noteID", noteID),
		zap.String("targetUserID", targetDoc.ID),
	)

	return n, nil
}

// FindByPattern scans for notes visible to userID whose title or content
// contains the query, case-insensitively.
func (r *NoteRepository) FindByPattern(ctx context.Context, query, userID string) ([]*note.Note, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"title": pattern},
				bson.M{"content": pattern},
			}},
			bson.M{"$or": bson.A{
				bson.M{"owner_id": userID},
				bson.M{"shared_with": userID},
			}},
		},
	}

	return r.findNotes(ctx, filter)
}

func (r *NoteRepository) findDocument(ctx context.Context, noteID string) (*noteDocument, error) {
	var doc noteDocument
	if err := r.notes.FindOne(ctx, bson.M{"_id": noteID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError("note")
		}
		return nil, pkgerrors.NewDatabaseError("find note", err)
	}
	return &doc, nil
}

func (r *NoteRepository) findNotes(ctx context.Context, filter bson.M) ([]*note.Note, error) {
	cursor, err := r.notes.Find(ctx, filter)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("find notes", err)
	}
	defer cursor.Close(ctx)

	var docs []noteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, pkgerrors.NewDatabaseError("decode notes", err)
	}

	notes := make([]*note.Note, len(docs))
	for i, doc := range docs {
		notes[i] = doc.toNote()
	}
	return notes, nil
}
