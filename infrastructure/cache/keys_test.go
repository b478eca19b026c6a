package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterminism(t *testing.T) {
	parts := KeyParts{UserID: "user-1", NoteID: "note-1", Query: "milk"}

	for _, qt := range []QueryType{
		QueryGetNotes, QueryGetNoteByID, QueryCreateNote,
		QueryUpdateNote, QueryDeleteNote, QueryShareNote, QuerySearchNotes,
	} {
		assert.Equal(t, Key(qt, parts), Key(qt, parts), "key for %s must be stable", qt)
	}
}

func TestKeyDistinctness(t *testing.T) {
	seen := map[string]QueryType{}
	parts := KeyParts{UserID: "user-1", NoteID: "note-1", Query: "milk"}

	for _, qt := range []QueryType{
		QueryGetNotes, QueryGetNoteByID, QueryCreateNote,
		QueryUpdateNote, QueryDeleteNote, QueryShareNote, QuerySearchNotes,
	} {
		key := Key(qt, parts)
		if prev, ok := seen[key]; ok {
			t.Fatalf("key %q produced by both %s and %s", key, prev, qt)
		}
		seen[key] = qt
	}
}

func TestKeyUserIsolation(t *testing.T) {
	a := Key(QueryGetNoteByID, KeyParts{UserID: "user-1", NoteID: "note-1"})
	b := Key(QueryGetNoteByID, KeyParts{UserID: "user-2", NoteID: "note-1"})
	assert.NotEqual(t, a, b)

	a = Key(QuerySearchNotes, KeyParts{UserID: "user-1", Query: "milk"})
	b = Key(QuerySearchNotes, KeyParts{UserID: "user-2", Query: "milk"})
	assert.NotEqual(t, a, b)
}

func TestSearchKeyNormalization(t *testing.T) {
	a := Key(QuerySearchNotes, KeyParts{UserID: "user-1", Query: "Buy  Milk"})
	b := Key(QuerySearchNotes, KeyParts{UserID: "user-1", Query: "buy milk"})
	assert.Equal(t, a, b)

	c := Key(QuerySearchNotes, KeyParts{UserID: "user-1", Query: "buy eggs"})
	assert.NotEqual(t, a, c)
}

func TestKeyPanicsOnUnknownType(t *testing.T) {
	assert.Panics(t, func() {
		Key(QueryType("LIST_EVERYTHING"), KeyParts{UserID: "user-1"})
	})
}
