// Package di wires the application graph by hand. The graph is small enough
// that explicit construction reads better than generated wiring.
package di

import (
	"context"
	"fmt"

	"notehub-backend/application/ports"
	"notehub-backend/application/services"
	"notehub-backend/infrastructure/cache"
	"notehub-backend/infrastructure/config"
	"notehub-backend/infrastructure/persistence/memory"
	"notehub-backend/infrastructure/persistence/mongodb"
	"notehub-backend/infrastructure/search"
	"notehub-backend/interfaces/http/rest/handlers"
	"notehub-backend/pkg/auth"
	pkgerrors "notehub-backend/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Container holds all initialized dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	NoteService   *services.NoteService
	AuthService   *services.AuthService
	SearchService *services.SearchService

	NoteHandler *handlers.NoteHandler
	AuthHandler *handlers.AuthHandler

	JWTValidator *auth.JWTValidator
	IPLimiter    *auth.KeyedLimiter
	UserLimiter  *auth.KeyedLimiter

	mongoClient *mongo.Client
	redisCache  *cache.RedisCache
}

// InitializeContainer constructs the full dependency graph
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	c := &Container{Config: cfg, Logger: logger}

	noteRepo, userRepo, err := c.buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	kv := c.buildCache(cfg, logger)
	index := c.buildSearchIndex(cfg, logger)

	c.SearchService = services.NewSearchService(index, noteRepo, logger)
	c.NoteService = services.NewNoteService(
		noteRepo,
		kv,
		c.SearchService,
		index,
		services.NoteServiceConfig{
			NoteTTL:   cfg.NoteTTL,
			ListTTL:   cfg.ListTTL,
			SearchTTL: cfg.SearchTTL,
		},
		logger,
	)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "development-secret-change-in-production"
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey:  jwtSecret,
		Issuer:     cfg.JWTIssuer,
		ExpiryTime: cfg.TokenExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize jwt generator: %w", err)
	}

	c.JWTValidator, err = auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: jwtSecret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize jwt validator: %w", err)
	}

	c.AuthService = services.NewAuthService(userRepo, generator, logger)

	c.IPLimiter = auth.NewIPRateLimiter(cfg.IPRateLimit)
	c.UserLimiter = auth.NewUserRateLimiter(cfg.UserRateLimit)

	errHandler := pkgerrors.NewErrorHandler(logger)
	c.NoteHandler = handlers.NewNoteHandler(c.NoteService, errHandler, logger)
	c.AuthHandler = handlers.NewAuthHandler(c.AuthService, errHandler, logger)

	return c, nil
}

// Shutdown releases held connections
func (c *Container) Shutdown(ctx context.Context) {
	if c.redisCache != nil {
		if err := c.redisCache.Close(); err != nil {
			c.Logger.Warn("Redis close failed", zap.Error(err))
		}
	}
	if c.mongoClient != nil {
		if err := c.mongoClient.Disconnect(ctx); err != nil {
			c.Logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
}

func (c *Container) buildRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.NoteRepository, ports.UserRepository, error) {
	if cfg.MongoURI == "" {
		logger.Warn("MONGODB_URI not set, using in-memory persistence")
		store := memory.NewStore()
		return memory.NewNoteRepository(store), memory.NewUserRepository(store), nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	c.mongoClient = client

	db := client.Database(cfg.MongoDatabase)
	userRepo, err := mongodb.NewUserRepository(ctx, db, logger)
	if err != nil {
		return nil, nil, err
	}
	return mongodb.NewNoteRepository(db, logger), userRepo, nil
}

func (c *Container) buildCache(cfg *config.Config, logger *zap.Logger) ports.Cache {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-process cache")
		return cache.NewMemoryCache()
	}
	c.redisCache = cache.NewRedisCache(cfg.RedisAddr, logger)
	return c.redisCache
}

func (c *Container) buildSearchIndex(cfg *config.Config, logger *zap.Logger) ports.SearchIndex {
	if cfg.ElasticsearchURL == "" {
		logger.Info("ELASTICSEARCH_URL not set, search uses the store scan")
		return nil
	}

	index, err := search.NewElasticIndex([]string{cfg.ElasticsearchURL}, logger)
	if err != nil {
		// A broken index configuration must not hold the service down;
		// every search falls back to the store scan.
		logger.Warn("Search index unavailable", zap.Error(err))
		return nil
	}
	return index
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
