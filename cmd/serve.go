package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/ai"
	"github.com/ruby4mag/alert-normalizer/internal/auth"
	"github.com/ruby4mag/alert-normalizer/internal/config"
	"github.com/ruby4mag/alert-normalizer/internal/db"
	"github.com/ruby4mag/alert-normalizer/internal/engine"
	"github.com/ruby4mag/alert-normalizer/internal/handlers"
	"github.com/ruby4mag/alert-normalizer/internal/logger"
	"github.com/ruby4mag/alert-normalizer/internal/metrics"
	"github.com/ruby4mag/alert-normalizer/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return errors.Wrap(err, "build logger")
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required to serve")
	}
	manager, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		return err
	}
	opts, err := engineOptions(cfg.Engine)
	if err != nil {
		return err
	}
	if len(opts.AllowedTenants) == 0 {
		log.Warn("engine.allowed_tenants is empty, alerts will carry no timeOccurred")
	}
	allow, err := auth.IPAllowList(cfg.HTTP.AllowedIPs)
	if err != nil {
		return err
	}

	database, disconnect, err := db.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = disconnect(context.Background()) }()

	rdb, err := db.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := store.NewMongoUsers(database)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	templates := store.NewMongoTemplates(database)
	mappings := store.NewMongoMappings(database)
	rules := store.NewMongoRules(database)

	m := metrics.New()
	h := &handlers.Handler{
		Engine:    engine.New(opts),
		Templates: templates,
		Mappings:  mappings,
		Rules:     rules,
		Users:     users,
		Refresh:   store.RedisRefreshTokens{Redis: rdb},
		Snapshots: &store.CachedSnapshots{
			Next:  store.Loader{Templates: templates, Mappings: mappings, Rules: rules},
			Redis: rdb,
			TTL:   cfg.Redis.SnapshotTTL,
			Log:   log,
		},
		Auth:         manager,
		Metrics:      m,
		Log:          log,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}
	if cfg.AI.Enabled {
		h.Oracle = ai.New(cfg.AI)
		log.Info("language model enabled", zap.String("url", cfg.AI.OllamaURL), zap.String("model", cfg.AI.Model))
	}

	router, err := newRouter(cfg.HTTP, log)
	if err != nil {
		return err
	}
	router.GET("/metrics", gin.WrapH(m.Handler()))
	h.Routes(router, allow, auth.NewLoginLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst).Middleware())

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

// newRouter builds the gin engine with recovery, request logging and CORS.
// No configured origins means any origin. Forwarding headers are only
// honoured from cfg.TrustedProxies.
func newRouter(cfg config.HTTPConfig, log *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, errors.Wrap(err, "trusted proxies")
	}
	r.Use(gin.Recovery(), logger.Middleware(log))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "X-Requested-With", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))
	return r, nil
}
