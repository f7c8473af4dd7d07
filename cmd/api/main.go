// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/config"
	"github.com/yourusername/curriculum-forge/internal/curriculum"
	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/pdf"
	"github.com/yourusername/curriculum-forge/internal/server"
	"github.com/yourusername/curriculum-forge/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, logCloser, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	if cfg.SessionSecretGenerated {
		logger.Warn("SESSION_SECRET is not set; using a temporary key (sessions will not survive restarts)")
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := users.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	assets, err := setupAssets(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up asset storage")
	}

	backend, err := setupRedis(cfg, assets, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up redis")
	}
	defer backend.Close()

	pdfOpts := []pdf.Option{}
	if backend.jobs != nil {
		pdfOpts = append(pdfOpts, pdf.WithPurger(backend.jobs))
	}
	exporter, err := pdf.NewService(pdf.Config{
		WorkDir:     cfg.WorkDir,
		MaxLogoSize: cfg.MaxLogoSize,
		Retention:   cfg.ExportRetention,
	}, assets, logger, pdfOpts...)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up pdf exporter")
	}

	provider := curriculum.NewOpenAIProvider(curriculum.ProviderConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	}, logger)
	generator := curriculum.NewService(provider, backend.curricula, cfg.GenerationTimeout, logger)

	authManager := auth.NewManager(auth.NewService(users.NewRepository(db)), logger)

	router := server.NewRouter(server.Deps{
		Config:     cfg,
		Logger:     logger,
		Auth:       authManager,
		Curriculum: curriculum.NewHandler(generator, logger),
		Exporter:   exporter,
		Curricula:  backend.curricula,
		Exports:    backend.exports,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":  srv.Addr,
			"mode":  cfg.GinMode,
			"redis": cfg.UsesRedis(),
		}).Info("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("server stopped")
}
