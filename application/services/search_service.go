package services

import (
	"context"

	"notehub-backend/application/ports"
	"notehub-backend/domain/note"
	pkgerrors "notehub-backend/pkg/errors"

	"go.uber.org/zap"
)

// SearchService coordinates the two search strategies: the full-text index
// first, then a one-shot fallback to the repository scan when the index
// fails. Both paths share the same visibility predicate so a caller can
// never receive a note it isn't authorized to see, whichever path served it.
//
// The two strategies deliberately approximate each other: the index runs an
// analyzed token match on content, the fallback a case-insensitive substring
// match over title and content.
type SearchService struct {
	index  ports.SearchIndex // nil when no index is configured
	repo   ports.NoteRepository
	logger *zap.Logger
}

// NewSearchService creates a new search coordinator
func NewSearchService(index ports.SearchIndex, repo ports.NoteRepository, logger *zap.Logger) *SearchService {
	return &SearchService{
		index:  index,
		repo:   repo,
		logger: logger,
	}
}

// Search returns the notes visible to userID that match query
func (s *SearchService) Search(ctx context.Context, query, userID string) ([]*note.Note, error) {
	if s.index != nil {
		notes, err := s.index.Search(ctx, query, userID)
		if err == nil {
			return filterVisible(notes, userID), nil
		}
		s.logger.Warn("Search index failed, falling back to store scan",
			zap.String("userID", userID),
			zap.Error(err),
		)
	}

	notes, err := s.repo.FindByPattern(ctx, query, userID)
	if err != nil {
		return nil, pkgerrors.NewSearchError(err)
	}
	return filterVisible(notes, userID), nil
}

// filterVisible re-applies the visibility predicate to search results.
// The index query already restricts by owner and sharee, but the index is
// derived state and may lag the store; the predicate is authoritative.
func filterVisible(notes []*note.Note, userID string) []*note.Note {
	visible := notes[:0]
	for _, n := range notes {
		if n.IsVisibleTo(userID) {
			visible = append(visible, n)
		}
	}
	return visible
}
