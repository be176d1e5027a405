package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gantzhq/gantz/handlers"
	"github.com/gantzhq/gantz/internal/config"
	"github.com/gantzhq/gantz/internal/database"
	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/identity"
	"github.com/gantzhq/gantz/internal/service"
	"github.com/gantzhq/gantz/internal/sessions"
	"github.com/gantzhq/gantz/internal/storage"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/internal/upload"
	"github.com/gantzhq/gantz/internal/users"
	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/gantzhq/gantz/pkg/metrics"
	"github.com/gantzhq/gantz/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// blobStore is what the upload helper writes to and the media route reads from.
type blobStore interface {
	upload.BlobStore
	handlers.BlobReader
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s keycloak=%v redis=%v minio=%v",
		cfg.Store.Driver, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := connectRedis(ctx, cfg.Redis)

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		if mongoClient, err = database.ConnectMongoRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5); err != nil {
			logger.Warnf("could not connect to MongoDB: %v", err)
		} else if cfg.Store.Driver != "mongo" {
			// the mongo record store disconnects on Close itself
			defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		}
	}

	st, err := openStore(ctx, cfg, mongoClient)
	if err != nil {
		logger.Fatalf("record store: %v", err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(cctx); err != nil {
			logger.Warnf("closing record store: %v", err)
		}
	}()

	blobs, err := openBlobs(cfg)
	if err != nil {
		logger.Fatalf("blob storage: %v", err)
	}
	uploader := upload.NewHelper(blobs, cfg.Site.UploadPrefix)

	userSvc, sessionSvc, err := openAccounts(ctx, cfg, rdb, mongoClient)
	if err != nil {
		logger.Fatalf("accounts: %v", err)
	}
	ids := identity.NewService(cfg.Keycloak, cfg.JWT, userSvc, sessionSvc, sessions.NewBlacklist(rdb))

	g := gate.New(cfg.Site.AdminEmail, ids)
	ids.OnChange(g.Notify)
	defer g.Subscribe(func(e gate.Event) {
		metrics.AuthEvents.WithLabelValues(e.Kind.String()).Inc()
		logger.Infof("auth: %s %s (admin=%v)", e.Kind, e.Email, g.IsAdmin(e.Email))
	})()

	photos := service.NewPhotos(st.Photos, uploader)
	memos := service.NewMemos(st.Memos, st.Comments, cfg.Site.CascadeComments)
	people := service.NewPeople(st.People, uploader)
	home := service.NewHome(photos, memos, cfg.Site)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"store": true, "blobs": true, "identity": cfg.Keycloak.URL != ""}
		ready := true
		if rdb != nil {
			deps["redis"] = rdb.Ping(c.Request.Context()).Err() == nil
			ready = deps["redis"]
		}
		if mongoClient != nil {
			deps["mongo"] = mongoClient.Ping(c.Request.Context(), nil) == nil
			ready = ready && deps["mongo"]
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterRoutes(r, handlers.Deps{
		Gate:         g,
		Verifier:     ids.Verifier(),
		Revocations:  ids.Revocations(),
		Auth:         ids,
		Photos:       photos,
		Memos:        memos,
		People:       people,
		Home:         home,
		Blobs:        blobs,
		CacheSeconds: cfg.Site.UploadCacheSeconds,
		PageSize:     cfg.Site.PageSize,
		LoginLimit:   limiter(cfg.RateLimit, rdb, "login"),
		CommentLimit: limiter(cfg.RateLimit, rdb, "comment"),
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}

// cors answers preflight requests and allows any origin; the API carries bearer
// tokens, never cookies.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// connectRedis returns nil when Redis is not configured or not reachable; everything
// that uses it has an in-process fallback.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	port := cfg.Port
	if port == "" {
		port = "6379"
	}
	c := redis.NewClient(&redis.Options{Addr: cfg.Host + ":" + port, Password: cfg.Password, DB: cfg.DB})
	if err := c.Ping(ctx).Err(); err != nil {
		logger.Warnf("redis %s:%s unreachable, using in-process fallbacks: %v", cfg.Host, port, err)
		_ = c.Close()
		return nil
	}
	logger.Infof("connected to redis %s:%s", cfg.Host, port)
	return c
}

func openStore(ctx context.Context, cfg *config.Config, mc *mongo.Client) (*store.Store, error) {
	switch cfg.Store.Driver {
	case "mongo":
		if mc == nil {
			return nil, errors.New("mongo unreachable")
		}
		return store.NewMongo(ctx, mc.Database(cfg.MongoDB.Database))
	case "postgres":
		pool, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, 10*time.Second)
		if err != nil {
			return nil, err
		}
		st, err := store.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return st, nil
	}
	logger.Warnf("using the in-memory record store; content is lost on restart")
	return store.NewMemory(), nil
}

func openBlobs(cfg *config.Config) (blobStore, error) {
	if cfg.MinIO.Endpoint == "" {
		logger.Warnf("MINIO_ENDPOINT not set; uploads are kept in memory and served from /media")
		return storage.NewMemory("/media"), nil
	}
	s, err := storage.NewMinIOStorage(cfg.MinIO, cfg.Site.UploadCacheSeconds)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// openAccounts picks where users and refresh sessions live: sessions prefer Redis,
// then Mongo; users prefer Mongo. Memory is the fallback for both.
func openAccounts(ctx context.Context, cfg *config.Config, rdb *redis.Client, mc *mongo.Client) (*users.Service, *sessions.Service, error) {
	var urepo users.UserRepository = users.NewMemoryUserRepository()
	var srepo sessions.Repository = sessions.NewMemoryRepository()

	if mc != nil {
		db := mc.Database(cfg.MongoDB.Database)
		ur, err := users.NewMongoUserRepository(ctx, db.Collection("users"))
		if err != nil {
			return nil, nil, fmt.Errorf("users collection: %w", err)
		}
		urepo = ur
		sr, err := sessions.NewMongoRepository(ctx, db.Collection("sessions"))
		if err != nil {
			return nil, nil, fmt.Errorf("sessions collection: %w", err)
		}
		srepo = sr
	}
	if rdb != nil {
		srepo = sessions.NewRedisRepository(rdb, "session:")
	}
	return users.NewService(urepo), sessions.NewService(srepo), nil
}

// limiter builds the per-route limiter: Redis-backed when configured and reachable,
// otherwise in-process. Nil when rate limiting is off.
func limiter(cfg config.RateLimitConfig, rdb *redis.Client, scope string) gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}
	if cfg.UseRedis && rdb != nil {
		return middleware.RedisRateLimitMiddleware(rdb, scope, cfg.RPS, cfg.Burst, time.Duration(cfg.WindowSeconds)*time.Second)
	}
	return middleware.RateLimitMiddleware(cfg.RPS, cfg.Burst)
}
