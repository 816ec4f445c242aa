package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/config"
	"github.com/place-resolver/app/controllers"
	"github.com/place-resolver/app/services"
	"github.com/place-resolver/internal/metrics"
	"github.com/place-resolver/internal/poi"
	"github.com/place-resolver/internal/resolver"
	"github.com/place-resolver/internal/search"
	"github.com/place-resolver/routes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// 1. Configuration and logger
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting place resolver",
		zap.String("env", cfg.App.Env),
		zap.String("dataset_source", cfg.Dataset.Source),
		zap.String("cache_backend", cfg.Cache.Backend))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	checks := map[string]controllers.HealthCheck{}

	// 2. MongoDB
	var mongoDB *mongo.Database
	if cfg.NeedsMongo() {
		mongoDB = initMongoDB(cfg, logger)
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
		checks["mongo"] = func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) }
	}

	// 3. Meilisearch mirror
	var searcher *search.POISearcher
	if cfg.Meilisearch.Enabled {
		searcher, err = search.NewPOISearcher(search.SearchConfig{
			Host:      cfg.Meilisearch.URL,
			APIKey:    cfg.Meilisearch.MasterKey,
			IndexName: cfg.Meilisearch.Index,
			Timeout:   cfg.Meilisearch.Timeout,
		}, logger)
		if err != nil {
			logger.Warn("Meilisearch unavailable, suggestions use the local index only", zap.Error(err))
			searcher = nil
		} else {
			checks["meilisearch"] = func(context.Context) error {
				if !searcher.Healthy() {
					return errors.New("meilisearch is not healthy")
				}
				return nil
			}
		}
	}

	// 4. Answer cache
	cacheService := initCache(cfg, mongoDB, logger, checks)
	defer cacheService.Close()

	// 5. POI index
	index := poi.NewIndex(nil, logger)

	var store services.POIStore
	if mongoDB != nil {
		store = services.NewPOIRepository(mongoDB, logger)
	}
	var mirror services.POIMirror
	suggester := resolver.SuggesterChain{resolver.NewFuzzySuggester(index)}
	if searcher != nil {
		mirror = searcher
		suggester = resolver.SuggesterChain{searcher, resolver.NewFuzzySuggester(index)}
	}

	adminService := services.NewAdminService(index, store, mirror, cacheService, m,
		cfg.Dataset.Source, cfg.Dataset.Path, logger)

	report, err := adminService.Bootstrap(context.Background())
	if err != nil {
		logger.Fatal("Failed to load POI dataset", zap.Error(err))
	}
	if searcher != nil {
		if _, err := adminService.RebuildSynonyms(); err != nil {
			logger.Warn("Failed to configure search index", zap.Error(err))
		}
		if _, err := searcher.SeedPOIs(index.Snapshot().All(), report.Version); err != nil {
			logger.Warn("Failed to mirror POIs to Meilisearch", zap.Error(err))
		}
	}
	if n, err := cacheService.InvalidateByDatasetVersion(context.Background(), report.Version); err != nil {
		logger.Warn("Failed to drop stale cached answers", zap.Error(err))
	} else if n > 0 {
		logger.Info("Dropped stale cached answers", zap.Int64("count", n))
	}

	if mc, ok := cacheService.(*services.MongoCacheService); ok && cfg.Cache.WarmUp > 0 {
		if n, err := mc.WarmUp(context.Background(), report.Version, cfg.Cache.WarmUp); err != nil {
			logger.Warn("Cache warm-up failed", zap.Error(err))
		} else {
			logger.Info("Cache warmed up", zap.Int("entries", n))
		}
	}

	chatService := services.NewChatService(index, suggester, cacheService, cfg.Cache.Backend, m,
		cfg.App.RequestTimeout, logger)

	// 6. Controllers and routes
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Dependencies{
		Chat:        controllers.NewChatController(chatService, logger),
		Admin:       controllers.NewAdminController(adminService, chatService, logger),
		Health:      controllers.NewHealthController(index, checks, cfg.App.Version),
		Registry:    registry,
		CORSOrigins: cfg.CORS.AllowOrigins,
		Version:     cfg.App.Version,
		Logger:      logger,
	})

	// 7. Serve until signalled
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func initMongoDB(cfg *config.Config, logger *zap.Logger) *mongo.Database {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
	return client.Database(cfg.Mongo.Database)
}

func initCache(cfg *config.Config, db *mongo.Database, logger *zap.Logger, checks map[string]controllers.HealthCheck) services.ICacheService {
	newRedis := func() *services.RedisCacheService {
		rc, err := services.NewRedisCacheService(cfg.Redis.URL, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		checks["redis"] = rc.Ping
		return rc
	}
	newMongo := func() *services.MongoCacheService {
		mc, err := services.NewMongoCacheService(db, cfg.Cache.L1Size, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
		}
		return mc
	}

	switch cfg.Cache.Backend {
	case services.CacheBackendMemory:
		return services.NewCacheService(cfg.Cache.L1Size, cfg.Cache.TTL)
	case services.CacheBackendRedis:
		return newRedis()
	case services.CacheBackendMongo:
		return newMongo()
	case services.CacheBackendHybrid:
		return services.NewHybridCacheService(newRedis(), newMongo(), logger)
	default:
		return services.NoopCacheService{}
	}
}
