// Package app wires versewise components together with a dig container.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/versewise/internal/api"
	"github.com/codyseavey/versewise/internal/config"
	"github.com/codyseavey/versewise/internal/database"
	"github.com/codyseavey/versewise/internal/kvstore"
	"github.com/codyseavey/versewise/internal/logging"
	"github.com/codyseavey/versewise/internal/middleware"
	"github.com/codyseavey/versewise/internal/services"
)

const redisPingTimeout = 3 * time.Second

// Closers collects shutdown hooks registered by providers, run in reverse order.
type Closers struct {
	fns []func() error
}

func (c *Closers) add(fn func() error) {
	c.fns = append(c.fns, fn)
}

// Close runs every registered hook and joins their errors.
func (c *Closers) Close() error {
	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.fns = nil
	return errors.Join(errs...)
}

// BuildContainer registers every constructor. Nothing is opened until a
// component is requested with Invoke.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		func() *Closers { return &Closers{} },
		provideLogger,
		provideDatabase,
		provideDurableCache,
		provideStore,
		provideProviderChain,
		provideTranslator,
		provideHistory,
		provideExercises,
		provideMaintenance,
		provideAdminAuth,
		provideRateLimiter,
		provideRouter,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	// the process logger must exist before services capture it
	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return container, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.Init(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	services.SetTranslationDebug(cfg.Translation.Debug)
	return log, nil
}

// provideDatabase opens sqlite for the durable cache. With the redis backend
// no database is opened and nil is returned.
func provideDatabase(cfg *config.Config, closers *Closers) (*gorm.DB, error) {
	if cfg.Cache.Backend == config.CacheBackendRedis {
		return nil, nil
	}

	level := logger.Silent
	if cfg.Database.LogSQL {
		level = logger.Info
	}
	db, err := database.Open(cfg.Database.Path, level)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	closers.add(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return db, nil
}

func provideDurableCache(cfg *config.Config, db *gorm.DB, closers *Closers, log *zap.Logger) (services.DurableCache, error) {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return services.NewTranslationCacheService(db), nil
	}

	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache.redis_url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	log.Info("redis durable cache connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	closers.add(client.Close)
	return services.NewRedisTranslationCache(client), nil
}

// provideStore opens the on-device key-value store; an empty path keeps it in memory.
func provideStore(cfg *config.Config, closers *Closers, log *zap.Logger) (kvstore.Store, error) {
	if cfg.Storage.Path == "" {
		log.Warn("storage.path is empty, reading history will not survive restarts")
		return kvstore.NewMemoryStore(), nil
	}

	store, err := kvstore.OpenBoltStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	closers.add(store.Close)
	return store, nil
}

// provideProviderChain builds providers in the configured fallback order.
func provideProviderChain(cfg *config.Config) (*services.ProviderChain, error) {
	p := cfg.Providers
	available := map[string]services.TranslationProvider{
		services.GoogleProviderName:         services.NewTranslationService(p.GoogleCredentials),
		services.GeminiProviderName:         services.NewGeminiTranslationService(p.GeminiAPIKey, p.GeminiModel),
		services.OpenAIProviderName:         services.NewOpenAITranslationService(p.OpenAIAPIKey, p.OpenAIModel, p.OpenAIBaseURL),
		services.LibreTranslateProviderName: services.NewLibreTranslateService(p.LibreTranslateURL, p.LibreTranslateKey),
	}

	ordered := make([]services.TranslationProvider, 0, len(cfg.Translation.ProviderOrder))
	for _, name := range cfg.Translation.ProviderOrder {
		provider, ok := available[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q in translation.provider_order", name)
		}
		if provider == nil {
			return nil, fmt.Errorf("provider %q listed twice in translation.provider_order", name)
		}
		ordered = append(ordered, provider)
		available[strings.ToLower(strings.TrimSpace(name))] = nil
	}

	return services.NewProviderChain(ordered, services.BreakerSettings{
		ConsecutiveFailures: cfg.Translation.BreakerFailures,
		Timeout:             cfg.Translation.BreakerTimeout,
	}), nil
}

// PolicyFromConfig maps translation settings onto the orchestrator policy.
func PolicyFromConfig(t config.TranslationConfig) services.TranslationPolicy {
	return services.TranslationPolicy{
		SourceLanguage:            t.SourceLanguage,
		DurableQualityThreshold:   t.DurableThreshold,
		TransientQualityThreshold: t.TransientThreshold,
		Retry: services.RetryPolicy{
			MaxRetries: t.MaxRetries,
			BaseDelay:  t.RetryBaseDelay,
			MaxDelay:   t.RetryMaxDelay,
		},
		BatchSize:  t.BatchSize,
		BatchDelay: t.BatchDelay,
	}
}

func provideTranslator(cfg *config.Config, durable services.DurableCache, chain *services.ProviderChain) *services.HybridTranslationService {
	t := cfg.Translation
	memory := services.NewMemoryTranslationCache(services.SystemClock, t.MemoryTTL, t.MemoryCapacity)
	return services.NewHybridTranslationService(memory, durable, chain, PolicyFromConfig(t))
}

func provideHistory(cfg *config.Config, store kvstore.Store) *services.ReadingHistoryService {
	return services.NewReadingHistoryService(store, cfg.History.Cap)
}

func provideExercises(history *services.ReadingHistoryService) *services.VocabularyExerciseService {
	return services.NewVocabularyExerciseService(history, nil)
}

func provideMaintenance(cfg *config.Config, translator *services.HybridTranslationService, db *gorm.DB) *services.CacheMaintenanceWorker {
	return services.NewCacheMaintenanceWorker(translator, db, cfg.Translation.MaintenanceInterval)
}

func provideAdminAuth(cfg *config.Config, log *zap.Logger) *middleware.AdminAuth {
	auth := middleware.NewAdminAuth(cfg.Server.AdminKey)
	if !auth.Enabled() {
		log.Warn("no admin key configured, cache administration is unauthenticated")
	}
	return auth
}

func provideRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
}

// RouterParams are the router's dependencies.
type RouterParams struct {
	dig.In

	Config      *config.Config
	Logger      *zap.Logger
	Translator  *services.HybridTranslationService
	History     *services.ReadingHistoryService
	Exercises   *services.VocabularyExerciseService
	Maintenance *services.CacheMaintenanceWorker
	Auth        *middleware.AdminAuth
	RateLimiter *middleware.RateLimiter
}

func provideRouter(p RouterParams) *gin.Engine {
	if p.Config.Server.GinMode != "" {
		gin.SetMode(p.Config.Server.GinMode)
	}
	return api.NewRouter(api.RouterConfig{
		Translator:  p.Translator,
		History:     p.History,
		Exercises:   p.Exercises,
		Maintenance: p.Maintenance,
		Auth:        p.Auth,
		RateLimiter: p.RateLimiter,
		CORSOrigins: p.Config.Server.CORSOrigins,
		Logger:      p.Logger,
	})
}
