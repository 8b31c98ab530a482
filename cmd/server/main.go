package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/stubapi"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg)

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	seed, err := config.LoadZoneSeed(cfg.Stub.ZonesFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load zones")
	}
	logger.WithFields(logrus.Fields{
		"zones":    config.GetZoneKeys(seed.Zones),
		"agencies": len(seed.Agencies),
	}).Info("Loaded zone configuration")

	server := stubapi.NewServer(cfg, seed, logger)
	sweeper := stubapi.NewSweeper(server, time.Duration(cfg.Stub.SweepInterval)*time.Second, logger)
	sweeper.Start()
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Stub.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.Stub.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
