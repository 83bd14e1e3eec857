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

	"github.com/joho/godotenv"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/config"
	"github.com/authenticas/authenticas-api/internal/disconnect"
	"github.com/authenticas/authenticas-api/internal/engine"
	"github.com/authenticas/authenticas-api/internal/handlers"
	"github.com/authenticas/authenticas-api/internal/ledger"
	"github.com/authenticas/authenticas-api/internal/links"
	"github.com/authenticas/authenticas-api/internal/routes"
	"github.com/authenticas/authenticas-api/internal/store"
	"github.com/authenticas/authenticas-api/internal/webhook"
)

func main() {
	// 1. Load settings. A missing .env file is fine in production.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	logger := config.NewLogger(cfg.LogLevel)

	// 2. Open the record store.
	s, err := store.Open(store.Config{
		Path:       cfg.DataDir,
		SyncWrites: true,
		Logger:     logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to open record store")
	}
	defer s.Close()

	// 3. Wire the services.
	recorder := audit.NewRecorder(s, logger)
	spendLedger := ledger.NewLedger(s, recorder, logger)
	registry := links.NewRegistry(s)
	dispatcher := webhook.NewDispatcher(webhook.DefaultConfig(), logger)
	verifier := engine.NewEngine(s, registry, spendLedger, recorder, dispatcher, logger)
	workflow := disconnect.NewWorkflow(s, registry, recorder, dispatcher, logger)

	h := &handlers.Handlers{
		Store:      s,
		Logger:     logger,
		JWTSecret:  []byte(cfg.JWTSecret),
		Engine:     verifier,
		Links:      registry,
		Ledger:     spendLedger,
		Audit:      recorder,
		Disconnect: workflow,
		Dispatcher: dispatcher,
	}

	// 4. Serve until interrupted, then drain in-flight webhook deliveries.
	router := routes.SetupRouter(h, cfg)
	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	go func() {
		logger.WithField("port", cfg.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
	dispatcher.Wait()
}
