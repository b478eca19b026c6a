package rest

import (
	"encoding/json"
	"net/http"

	"notehub-backend/interfaces/http/rest/handlers"
	"notehub-backend/interfaces/http/rest/middleware"
	"notehub-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	noteHandler *handlers.NoteHandler
	authHandler *handlers.AuthHandler
	validator   *auth.JWTValidator
	ipLimiter   *auth.KeyedLimiter
	userLimiter *auth.KeyedLimiter
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	noteHandler *handlers.NoteHandler,
	authHandler *handlers.AuthHandler,
	validator *auth.JWTValidator,
	ipLimiter *auth.KeyedLimiter,
	userLimiter *auth.KeyedLimiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		noteHandler: noteHandler,
		authHandler: authHandler,
		validator:   validator,
		ipLimiter:   ipLimiter,
		userLimiter: userLimiter,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.ipLimiter))

		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", rt.authHandler.Signup)
			r.Post("/login", rt.authHandler.Login)
		})

		// Authenticated note endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.validator, rt.userLimiter, rt.logger))

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", rt.noteHandler.CreateNote)
				r.Get("/", rt.noteHandler.ListNotes)
				r.Get("/{noteID}", rt.noteHandler.GetNote)
				r.Put("/{noteID}", rt.noteHandler.UpdateNote)
				r.Delete("/{noteID}", rt.noteHandler.DeleteNote)
				r.Post("/{noteID}/share", rt.noteHandler.ShareNote)
			})

			r.Get("/search", rt.noteHandler.SearchNotes)
		})
	})

	return router
}

// healthCheck handles GET /health
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
