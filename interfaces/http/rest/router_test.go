package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notehub-backend/application/services"
	"notehub-backend/infrastructure/cache"
	"notehub-backend/infrastructure/persistence/memory"
	"notehub-backend/interfaces/http/rest/handlers"
	"notehub-backend/pkg/auth"
	pkgerrors "notehub-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()
	noteRepo := memory.NewNoteRepository(store)
	userRepo := memory.NewUserRepository(store)
	kv := cache.NewMemoryCache()

	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey:  testSecret,
		Issuer:     "notehub-test",
		ExpiryTime: time.Hour,
	})
	require.NoError(t, err)
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: testSecret,
		Issuer:    "notehub-test",
	})
	require.NoError(t, err)

	searcher := services.NewSearchService(nil, noteRepo, logger)
	noteService := services.NewNoteService(noteRepo, kv, searcher, nil, services.DefaultNoteServiceConfig(), logger)
	authService := services.NewAuthService(userRepo, generator, logger)

	errHandler := pkgerrors.NewErrorHandler(logger)
	noteHandler := handlers.NewNoteHandler(noteService, errHandler, logger)
	authHandler := handlers.NewAuthHandler(authService, errHandler, logger)

	return NewRouter(
		noteHandler,
		authHandler,
		validator,
		auth.NewIPRateLimiter(1000),
		auth.NewUserRateLimiter(1000),
		logger,
	).Setup()
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func signupAndLogin(t *testing.T, srv http.Handler, username string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var login handlers.LoginResponse
	decodeData(t, rec, &login)
	require.NotEmpty(t, login.Token)
	return login.Token
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotesRequireAuthentication(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/notes/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/notes/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ab",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	signupAndLogin(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNoteCRUDOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndLogin(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/notes/", token, map[string]string{
		"title":   "Groceries",
		"content": "buy milk",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/notes/"+created.ID, token, map[string]string{
		"title":   "Groceries",
		"content": "buy oat milk",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		Content string `json:"content"`
	}
	decodeData(t, rec, &updated)
	assert.Equal(t, "buy oat milk", updated.Content)

	rec = doJSON(t, srv, http.MethodGet, "/api/notes/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &listed)
	assert.Len(t, listed, 1)

	rec = doJSON(t, srv, http.MethodDelete, "/api/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/notes/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	aliceToken := signupAndLogin(t, srv, "alice")
	bobToken := signupAndLogin(t, srv, "bob")

	rec := doJSON(t, srv, http.MethodPost, "/api/notes/", aliceToken, map[string]string{
		"title":   "Groceries",
		"content": "buy milk",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &created)

	// Invisible to bob until shared
	rec = doJSON(t, srv, http.MethodGet, "/api/notes/"+created.ID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/notes/"+created.ID+"/share", aliceToken, map[string]string{
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/notes/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Sharing with yourself is a domain violation
	rec = doJSON(t, srv, http.MethodPost, "/api/notes/"+created.ID+"/share", aliceToken, map[string]string{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndLogin(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/notes/", token, map[string]string{
		"title":   "Groceries",
		"content": "buy milk and eggs",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/search?q=milk", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []struct {
		Title string `json:"title"`
	}
	decodeData(t, rec, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Groceries", found[0].Title)

	rec = doJSON(t, srv, http.MethodGet, "/api/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
