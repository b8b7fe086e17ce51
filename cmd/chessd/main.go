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

	"go.uber.org/zap"

	appcfg "github.com/karowl/chessd/internal/config"
	"github.com/karowl/chessd/internal/httpapi"
	"github.com/karowl/chessd/internal/match"
	"github.com/karowl/chessd/internal/msgcat"
	"github.com/karowl/chessd/internal/obslog"
	"github.com/karowl/chessd/internal/render"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cat, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		obslog.L().Fatal("message catalog init failed", zap.Error(err))
	}

	mgr, err := match.NewManager(cfg.RedisURL, time.Duration(cfg.MatchTTLSec)*time.Second)
	if err != nil {
		obslog.L().Fatal("match manager init failed", zap.Error(err))
	}
	defer func() { _ = mgr.Close() }()

	var archive match.Archive
	if cfg.DatabaseURL != "" {
		repo, err := match.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("archive init failed", zap.Error(err))
		}
		defer func() { _ = repo.Close() }()
		archive = repo
	} else {
		obslog.L().Warn("DATABASE_URL not set, finished matches are archived in memory only")
		archive = match.NewMemoryArchive()
	}
	mgr.AttachArchive(archive)

	srv, err := httpapi.NewServer(mgr, archive, render.NewPNGRenderer(cfg.BoardImageSize), cat, cfg.Ruleset)
	if err != nil {
		obslog.L().Fatal("server init failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("chessd listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("default_ruleset", cfg.Ruleset),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("http serve failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	obslog.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		obslog.L().Error("shutdown error", zap.Error(err))
	}
}
