package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	_ "org-messaging/docs"
	"org-messaging/internal/api"
	"org-messaging/internal/auth"
	"org-messaging/internal/config"
	"org-messaging/internal/events"
	"org-messaging/internal/logger"
	"org-messaging/internal/logic"
	"org-messaging/internal/manager"
	"org-messaging/internal/metrics"
	"org-messaging/internal/storage"
)

// @title Organization Messages API
// @version 1.0
// @description CRUD API for organization-scoped messages with per-organization JWT
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.Debug)
	log.Info().Msg("configuration loaded")

	// Setup JWT Secret
	auth.SetSecret(cfg.Auth.JWTSecret)

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init DB")
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}
	log.Info().Msg("PostgreSQL connected")

	// Init RabbitMQ
	rabbitClient, err := events.NewRabbitClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rabbitClient.Close()
	log.Info().Msg("RabbitMQ connected")

	// Init OrgManager
	orgMgr := manager.NewOrgManager(rabbitClient.GetConnection(), rabbitClient, db)

	// Background loop updating queue depth metrics
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			for _, orgID := range orgMgr.ListOrganizationIDs() {
				rabbitClient.UpdateQueueDepth(orgID)
			}
		}
	}()

	// Recover existing organizations
	orgs, err := db.ListOrganizations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load organizations")
	}

	for _, org := range orgs {
		if err := orgMgr.AddOrganization(org.ID, org.Name, org.Concurrency); err != nil {
			log.Warn().Err(err).Str("organization_id", org.ID.String()).Msg("failed to recover organization")
			continue
		}
		log.Info().Str("organization_id", org.ID.String()).Msg("recovered organization")
	}

	// Init logic + API
	messageLogic := logic.NewMessageLogic(db, rabbitClient, nil)
	apiHandler := api.NewAPI(messageLogic, orgMgr, db, cfg)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: apiHandler.Router(),
	}

	// Graceful Shutdown Setup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	log.Info().Msg("shutdown initiated")

	// Shutdown sequence
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown error")
	}

	// Stop all organization consumers
	orgMgr.ShutdownAll()

	log.Info().Msg("graceful shutdown complete")
}
