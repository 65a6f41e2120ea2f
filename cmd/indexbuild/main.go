package main

import (
	"context"
	"log"

	"github.com/u9401066/medvision-mcp/internal/config"
	"github.com/u9401066/medvision-mcp/internal/pkg/logger"
	"github.com/u9401066/medvision-mcp/internal/repository/implementation"
	"github.com/u9401066/medvision-mcp/pkg/audit"
	"github.com/u9401066/medvision-mcp/pkg/database"
	pktNats "github.com/u9401066/medvision-mcp/pkg/nats"
	"github.com/u9401066/medvision-mcp/pkg/vectorindex"
)

// indexbuild loads the reference case corpus from the metadata directory
// into the pgvector-backed index. Run it after migrate, and again whenever
// the corpus changes.
func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var auditPublisher audit.Publisher = audit.NoopPublisher{}
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("Warn: NATS unavailable, index build will not be audited: %v", err)
	} else {
		auditPublisher = audit.NewNatsPublisher(natsPub, sysLogger)
	}

	idx := vectorindex.NewPgvectorIndex(implementation.NewReferenceCaseRepository(db))

	ctx := context.Background()
	count, err := vectorindex.LoadDir(ctx, idx, cfg.Index.MetadataDir)
	if err != nil {
		log.Fatalf("Error: index build failed: %v", err)
	}

	auditPublisher.PublishIndexBuilt(ctx, count, "pgvector")

	log.Printf("✅ Indexed %d reference cases from %s", count, cfg.Index.MetadataDir)
}
