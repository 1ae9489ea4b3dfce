// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"

	"darkstore-dispatch-api-server/config"
	"darkstore-dispatch-api-server/internal/api/routes"
	"darkstore-dispatch-api-server/internal/database"
	"darkstore-dispatch-api-server/internal/dispatch"
	"darkstore-dispatch-api-server/internal/socket"
	"darkstore-dispatch-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// 1. Load .env (if present) and configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	gin.SetMode(cfg.Server.Mode)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// 2. Connect MongoDB and make sure the dispatch indexes exist
	ctx := context.Background()
	client, db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		_ = client.Disconnect(ctx)
	}()

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	if err := database.SeedSuperAdmin(db); err != nil {
		log.Fatalf("Failed to seed super admin: %v", err)
	}
	if cfg.Seed.DemoData {
		if err := database.SeedDemoData(db); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// 3. Stores, websocket hub and the dispatch service
	orderStore := store.NewOrderStore(db)
	riderStore := store.NewRiderStore(db)
	dispatchStore := store.NewDispatchStore(db)
	auditSink := store.NewAuditSink(db, logger.With().Str("component", "audit").Logger())

	wsHub := socket.NewHub(logger.With().Str("component", "socket").Logger())

	dispatcher := dispatch.NewService(
		orderStore,
		riderStore,
		dispatchStore,
		auditSink,
		wsHub,
		cfg.Dispatch.BatchSize,
		logger.With().Str("component", "dispatch").Logger(),
	)

	// 4. Router and server
	router := routes.SetupRouter(cfg, db, dispatcher, orderStore, riderStore, wsHub)

	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
