package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	watermark "github.com/gcslaoli/gemini-watermark-unblend"
	"github.com/gcslaoli/gemini-watermark-unblend/internal/config"
	"github.com/gcslaoli/gemini-watermark-unblend/internal/httpapi"
	"github.com/gcslaoli/gemini-watermark-unblend/internal/logger"
)

// Build metadata, set with -ldflags "-X main.Version=... -X main.GitCommit=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file")
	flag.Parse()

	cfg, cfgErr := config.New(*configPath)

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	switch {
	case errors.Is(cfgErr, fs.ErrNotExist):
		log.Warn("config file not found, using defaults", zap.String("path", *configPath))
	case cfgErr != nil:
		log.Fatal("invalid config file", zap.String("path", *configPath), zap.Error(cfgErr))
	}

	log.Info("starting gwatermarkd",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
		zap.String("port", cfg.Server.Port))

	engine := watermark.NewEngine(cfg.EngineOptions(log)...)

	// Fail fast when the reference overlays are unreachable.
	for _, size := range []int{48, 96} {
		if _, err := engine.Masks().OpacityMap(size); err != nil {
			log.Fatal("load opacity map", zap.Int("size", size), zap.Error(err))
		}
	}

	gin.SetMode(cfg.Server.Mode)
	router := httpapi.NewRouter(httpapi.NewHandler(engine, log, cfg.Server.MaxUploadSize))

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
