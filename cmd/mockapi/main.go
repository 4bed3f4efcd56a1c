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

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}
	logger.Init(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	mock := mockapi.New(mockapi.Config{
		JWTSecret: cfg.Mock.JWTSecret,
		TokenTTL:  cfg.Mock.TokenTTL,
		FixedOTP:  cfg.Mock.FixedOTP,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Mock.Port,
		Handler:      mock.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", map[string]any{"error": err.Error()})
		}
	}()

	logger.Info("mock api started", map[string]any{"port": cfg.Mock.Port})

	<-ctx.Done()

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{"error": err.Error()})
	}

	logger.Info("mock api stopped cleanly", nil)
}
