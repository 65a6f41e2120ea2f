package main

import (
	"context"
	"log"

	"github.com/u9401066/medvision-mcp/internal/bootstrap"
	"github.com/u9401066/medvision-mcp/internal/config"
	"github.com/u9401066/medvision-mcp/internal/server"
	"github.com/u9401066/medvision-mcp/internal/tracer"
	"github.com/u9401066/medvision-mcp/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional, memory stores without it)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go container.WebSocketHub.Run()

	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// Model servers may still be starting; analysis reports MODEL_UNAVAILABLE
	// until they come up, so a failed load here is not fatal.
	if err := container.Engine.LoadProviders(context.Background()); err != nil {
		log.Printf("Warning: model providers not loaded yet: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
