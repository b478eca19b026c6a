// Package cache provides the cache key policy and the key-value cache
// implementations that sit in front of the note repository.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// QueryType enumerates the cacheable note operations
type QueryType string

const (
	QueryGetNotes    QueryType = "GET_NOTES"
	QueryGetNoteByID QueryType = "GET_NOTE_BY_ID"
	QueryCreateNote  QueryType = "CREATE_NOTE"
	QueryUpdateNote  QueryType = "UPDATE_NOTE"
	QueryDeleteNote  QueryType = "DELETE_NOTE"
	QueryShareNote   QueryType = "SHARE_NOTE"
	QuerySearchNotes QueryType = "SEARCH_NOTES"
)

// KeyParts carries the identities a cache key is derived from
type KeyParts struct {
	UserID string
	NoteID string
	Query  string
}

const keyPrefix = "notehub:"

// Key maps (operation, identities) to a deterministic cache key. Distinct
// tuples never collide: user and note ids are UUIDs and query text is
// hashed. An unknown QueryType is a programming error and panics.
func Key(qt QueryType, p KeyParts) string {
	switch qt {
	case QueryGetNotes:
		return fmt.Sprintf("%snotes:all:%s", keyPrefix, p.UserID)
	case QueryGetNoteByID:
		return fmt.Sprintf("%snotes:id:%s:%s", keyPrefix, p.NoteID, p.UserID)
	case QueryCreateNote:
		return fmt.Sprintf("%snotes:create:%s", keyPrefix, p.UserID)
	case QueryUpdateNote:
		return fmt.Sprintf("%snotes:update:%s:%s", keyPrefix, p.NoteID, p.UserID)
	case QueryDeleteNote:
		return fmt.Sprintf("%snotes:delete:%s:%s", keyPrefix, p.NoteID, p.UserID)
	case QueryShareNote:
		return fmt.Sprintf("%snotes:share:%s:%s", keyPrefix, p.NoteID, p.UserID)
	case QuerySearchNotes:
		return fmt.Sprintf("%snotes:search:%s:%s", keyPrefix, p.UserID, hashQuery(p.Query))
	default:
		panic(fmt.Sprintf("cache: no key defined for query type %q", qt))
	}
}

// hashQuery normalizes free-form query text into a fixed-width key segment
func hashQuery(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("%x", sum)[:16]
}
