// Package search implements the full-text index port on Elasticsearch.
// The index is derived state: writes are best-effort and reads that fail
// are handled by the caller's repository fallback.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"notehub-backend/domain/note"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

const notesIndex = "notes"

// ElasticIndex implements ports.SearchIndex on an Elasticsearch cluster
type ElasticIndex struct {
	client *elasticsearch.Client
	logger *zap.Logger
}

// NewElasticIndex creates a new Elasticsearch-backed index
func NewElasticIndex(addresses []string, logger *zap.Logger) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &ElasticIndex{client: client, logger: logger}, nil
}

// searchQuery is the structured bool query sent to the index: a content
// match AND an owner-or-sharee visibility clause.
func searchQuery(query, userID string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"match": map[string]interface{}{"content": query},
					},
					map[string]interface{}{
						"bool": map[string]interface{}{
							"should": []interface{}{
								map[string]interface{}{
									"term": map[string]interface{}{"owner_id": userID},
								},
								map[string]interface{}{
									"terms": map[string]interface{}{"shared_with": []string{userID}},
								},
							},
							"minimum_should_match": 1,
						},
					},
				},
			},
		},
	}
}

// Search runs the bool query and reconstructs the matched notes
func (i *ElasticIndex) Search(ctx context.Context, query, userID string) ([]*note.Note, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery(query, userID)); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(notesIndex),
		i.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search request failed: %s", res.Status())
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				Source note.Snapshot `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	notes := make([]*note.Note, len(envelope.Hits.Hits))
	for idx, hit := range envelope.Hits.Hits {
		notes[idx] = note.Reconstruct(hit.Source)
	}
	return notes, nil
}

// Index upserts a note document
func (i *ElasticIndex) Index(ctx context.Context, n *note.Note) error {
	data, err := json.Marshal(n.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal note document: %w", err)
	}

	res, err := i.client.Index(
		notesIndex,
		bytes.NewReader(data),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(n.ID()),
	)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index request failed: %s", res.Status())
	}
	return nil
}

// Remove deletes a note document. A missing document is not an error.
func (i *ElasticIndex) Remove(ctx context.Context, noteID string) error {
	res, err := i.client.Delete(
		notesIndex,
		noteID,
		i.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete request failed: %s", res.Status())
	}
	return nil
}
