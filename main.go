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

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/internal/app"
	"github.com/lieuxdexception/site/internal/config"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v odoo=%v nats=%v",
		cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "",
		cfg.Storage.Enabled(), cfg.Odoo.Enabled(), cfg.NATS.URL != "")
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, app.Options{MongoAttempts: 5})
	if err != nil {
		logger.Fatalf("failed to wire services: %v", err)
	}
	defer deps.Close(context.Background())

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r, err := newRouter(ctx, deps)
	if err != nil {
		logger.Fatalf("failed to build router: %v", err)
	}

	var workerDone <-chan struct{}
	if cfg.Odoo.SyncMode == leads.SyncAsync && deps.CRM != nil {
		workerDone, err = leads.NewWorker(deps.Leads, deps.Sub).Start(ctx)
		if err != nil {
			logger.Errorf("lead sync worker not started: %v", err)
		}
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("site listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
	if workerDone != nil {
		<-workerDone
	}
}
