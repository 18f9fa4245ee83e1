package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/chirp/internal/assistant"
	"github.com/zfogg/chirp/internal/auth"
	"github.com/zfogg/chirp/internal/cache"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/email"
	"github.com/zfogg/chirp/internal/handlers"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/maintenance"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/middleware"
	"github.com/zfogg/chirp/internal/search"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/telemetry"
	"github.com/zfogg/chirp/internal/timeline"
	"github.com/zfogg/chirp/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	logger.Log.Info("=== Chirp server starting ===", zap.String("environment", cfg.Environment))
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	metrics.Initialize()

	tp, err := telemetry.InitTracer(ctx, cfg.Tracing, cfg.Environment)
	if err != nil {
		logger.Log.Warn("Tracing disabled, exporter failed to start", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	if err := database.Initialize(cfg.Database, cfg.IsDevelopment()); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}
	if tp != nil {
		if err := database.EnableTracing(); err != nil {
			logger.WarnWithFields("Failed to enable database tracing", err)
		}
	}

	// Redis backs token revocation, rate limits and the search cache. Without it
	// each concern falls back to an in-process equivalent.
	var redisClient *cache.RedisClient
	var revoked auth.RevocationList = auth.NewMemoryRevocationList()
	var counter middleware.WindowCounter
	var resultCache search.ResultCache
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, using in-memory fallbacks", err)
		} else {
			defer redisClient.Close()
			revoked = auth.NewRedisRevocationList(redisClient)
			counter = redisClient
			resultCache = redisClient
		}
	}

	media, localStore := newMediaStore(ctx, cfg)

	var mailer email.Mailer = email.LogMailer{}
	if cfg.Email.FromEmail != "" {
		ses, err := email.NewSESMailer(cfg.Email.Region, cfg.Email.FromEmail, cfg.Email.FromName, cfg.OAuth.FrontendURL)
		if err != nil {
			logger.WarnWithFields("SES unavailable, emails will only be logged", err)
		} else {
			mailer = ses
		}
	}

	tokens := auth.NewTokenIssuer(cfg.Auth)
	authService := auth.NewService(database.DB, tokens, revoked, mailer)

	h := handlers.NewHandlers(authService, timeline.NewService(database.DB), media)

	var generator assistant.Generator
	if gemini := assistant.NewGeminiGenerator(cfg.Gemini); gemini != nil {
		generator = gemini
	} else {
		logger.Log.Info("GEMINI_API_KEY not set, assistant replies with the echo generator")
	}
	h.SetAssistant(assistant.NewService(database.DB, generator))

	if cfg.Search.ElasticsearchURL != "" {
		esClient, err := search.NewClient(ctx, cfg.Search.ElasticsearchURL)
		if err != nil {
			logger.WarnWithFields("Elasticsearch unavailable, search falls back to SQL", err)
		} else {
			created, err := esClient.EnsureIndices(ctx)
			if err != nil {
				logger.WarnWithFields("Failed to prepare search indices", err)
			}
			if created {
				go func() {
					stats, err := search.Backfill(context.Background(), database.DB, esClient)
					if err != nil {
						logger.WarnWithFields("Search backfill failed", err)
						return
					}
					logger.Log.Info("Search backfill complete",
						zap.Int("tweets", stats.Tweets),
						zap.Int("users", stats.Users))
				}()
			}
			h.SetSearchEngine(search.NewCachedClient(esClient, resultCache, search.DefaultCacheTTL))
		}
	}

	if cfg.OAuth.GoogleEnabled() {
		h.SetGoogleOAuth(auth.NewGoogleOAuth(cfg.OAuth), cfg.OAuth)
	}

	cookies := handlers.DefaultCookieSettings()
	cookies.Domain = cfg.Auth.CookieDomain
	if cfg.IsDevelopment() {
		cookies.Secure = false
		cookies.SameSite = http.SameSiteLaxMode
	}
	h.SetCookieSettings(cookies)

	cleanup := maintenance.NewCleanupService(database.DB, cfg.Cleanup.Interval, cfg.Cleanup.NotificationRetention)
	cleanup.Start()

	wsHub := websocket.NewHub()
	wsHub.SetRateLimitConfig(websocket.RateLimitConfig{
		MaxMessagesPerSecond: cfg.Limits.WSMessagesPerSecond,
		BurstSize:            cfg.Limits.WSBurst,
	})
	go wsHub.Run()
	wsHandler := websocket.NewHandler(wsHub, nil)
	h.SetPusher(wsHub)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TracingMiddleware(telemetry.ServiceName))
	r.Use(middleware.SpanAttributesMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := database.Health(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = err.Error()
		}
		c.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"database":  dbStatus,
			"timestamp": time.Now().UTC(),
			"service":   telemetry.ServiceName,
		})
	})

	if localStore != nil {
		r.Static("/uploads", localStore.Dir())
	}

	requireAuth := middleware.AuthMiddleware(authService)
	r.GET("/ws", requireAuth, wsHandler.HandleWebSocket)
	r.GET("/ws/stats", requireAuth, middleware.RequireAdmin(), wsHandler.HandleStats)
	r.POST("/ws/online", requireAuth, wsHandler.HandleOnlineStatus)

	general := middleware.RateLimitConfig{Name: "api", Limit: cfg.Limits.Requests, Window: cfg.Limits.Window}
	authLimit := middleware.AuthRateLimitConfig()
	authLimit.Limit = cfg.Limits.AuthRequests
	authLimit.Window = cfg.Limits.Window

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimitMiddleware(counter, general))
	h.RegisterRoutes(api, requireAuth, middleware.RedisRateLimitMiddleware(counter, authLimit))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Chirp API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleanup.Stop()
	if err := wsHub.Shutdown(shutdownCtx); err != nil {
		logger.WarnWithFields("WebSocket shutdown warning", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

// newMediaStore picks the upload backend. The local store is also returned so
// its directory can be served at /uploads.
func newMediaStore(ctx context.Context, cfg *config.Config) (storage.MediaStore, *storage.LocalStore) {
	switch cfg.Storage.Backend {
	case "s3":
		s3, err := storage.NewS3Store(cfg.Storage.AWSRegion, cfg.Storage.AWSBucket, cfg.Storage.CDNURL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 storage", err)
		}
		if err := s3.CheckBucketAccess(ctx); err != nil {
			logger.WarnWithFields("S3 bucket access failed, uploads will fail", err)
		}
		return s3, nil
	case "minio":
		store, err := storage.NewMinioStore(ctx, cfg.Storage.MinioEndpoint, cfg.Storage.MinioAccessKey,
			cfg.Storage.MinioSecretKey, cfg.Storage.MinioBucket, cfg.Storage.MinioUseSSL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize MinIO storage", err)
		}
		return store, nil
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.BaseURL+"/uploads")
		if err != nil {
			logger.FatalWithFields("Failed to initialize local storage", err)
		}
		return local, local
	}
}
