package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/stratai/internal/api"
	"github.com/nidhogg/stratai/internal/config"
	"github.com/nidhogg/stratai/internal/promptcache"
	"github.com/nidhogg/stratai/internal/skill"
	pgstore "github.com/nidhogg/stratai/internal/store"
	"github.com/nidhogg/stratai/internal/tokens"
	"github.com/nidhogg/stratai/internal/tool"
	"go.uber.org/zap"
)

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/stratai.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	logger.Info("Starting StratAI skill service...", zap.String("config", cfgPath))

	ctx := context.Background()

	// Token estimator
	est, err := tokens.New(cfg.Skills.Estimator, cfg.Skills.Encoding)
	if err != nil {
		logger.Warn("token estimator unavailable, using heuristic",
			zap.String("estimator", cfg.Skills.Estimator), zap.Error(err))
		est = tokens.Heuristic{}
	}

	// Skill pool: built-ins, then plugins from disk
	skills := skill.NewManager(logger)
	skill.RegisterBuiltins(skills)
	plugins, err := skill.LoadFromDir(cfg.Skills.Dir)
	if err != nil {
		logger.Fatal("failed to load skills", zap.String("dir", cfg.Skills.Dir), zap.Error(err))
	}
	for _, s := range plugins {
		skills.Add(s)
	}
	logger.Info("Skills loaded", zap.Int("plugins", len(plugins)), zap.Int("total", len(skills.All())))

	// Initialize PostgreSQL store
	var pgStore *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(ctx, cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(ctx, cfg.Database.Postgres.MigrationsDir); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			if lErr := skills.LoadFrom(ctx, ps); lErr != nil {
				logger.Warn("failed to load skills from DB", zap.Error(lErr))
			}
			skills.SetPersister(ps)
			if sErr := skills.PersistAll(ctx); sErr != nil {
				logger.Warn("failed to sync built-in skills to DB", zap.Error(sErr))
			}
			pgStore = ps
		}
	}

	// Initialize prompt cache
	var cache *promptcache.Cache
	if cfg.Database.Redis.URL != "" {
		c, cErr := promptcache.New(ctx, cfg.Database.Redis.URL, cfg.CacheTTL(), logger)
		if cErr != nil {
			logger.Warn("Redis unavailable, running without prompt cache", zap.Error(cErr))
		} else {
			cache = c
		}
	}

	injector := skill.NewInjector(cfg.Budget(), est, logger)
	composer := promptcache.NewCachedComposer(injector, cache, logger)

	tools := tool.NewRegistry()
	skill.RegisterTools(tools, skills)

	// Build HTTP handler
	var db api.Pinger
	if pgStore != nil {
		db = pgStore
	}
	handler := api.NewHandler(skills, composer, tools, db, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("StratAI listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down StratAI...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if cache != nil {
		cache.Close()
	}
	if pgStore != nil {
		pgStore.Close()
	}
}
