package mongodb

import (
	"context"
	"errors"
	"time"

	"notehub-backend/domain/user"
	pkgerrors "notehub-backend/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UserRepository implements ports.UserRepository backed by MongoDB
type UserRepository struct {
	users  *mongo.Collection
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository and ensures the unique
// username index exists.
func NewUserRepository(ctx context.Context, db *mongo.Database, logger *zap.Logger) (*UserRepository, error) {
	users := db.Collection("users")

	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("create username index", err)
	}

	return &UserRepository{users: users, logger: logger}, nil
}

// userDocument represents the MongoDB document structure for a user
type userDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	NoteIDs      []string  `bson:"note_ids"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d userDocument) toUser() *user.User {
	notes := d.NoteIDs
	if notes == nil {
		notes = []string{}
	}
	return user.Reconstruct(user.Snapshot{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		NoteIDs:      notes,
		CreatedAt:    d.CreatedAt,
	})
}

// Create persists a new user; a duplicate username is a conflict
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	s := u.Snapshot()
	doc := userDocument{
		ID:           s.ID,
		Username:     s.Username,
		PasswordHash: s.PasswordHash,
		NoteIDs:      s.NoteIDs,
		CreatedAt:    s.CreatedAt,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pkgerrors.NewConflictError("username already taken")
		}
		return pkgerrors.NewDatabaseError("insert user", err)
	}

	r.logger.Info("User created", zap.String("userID", s.ID))
	return nil
}

// FindByID returns a user by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError("user")
		}
		return nil, pkgerrors.NewDatabaseError("find user", err)
	}
	return doc.toUser(), nil
}

// FindByUsername returns a user by unique username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError("user")
		}
		return nil, pkgerrors.NewDatabaseError("find user", err)
	}
	return doc.toUser(), nil
}

// Exists reports whether a user with the given id exists
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	count, err := r.users.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, pkgerrors.NewDatabaseError("count users", err)
	}
	return count > 0, nil
}
