package main

import (
	"log"
	"os"

	"github.com/u9401066/medvision-mcp/internal/model"
	"github.com/u9401066/medvision-mcp/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Session{},
		&model.Image{},
		&model.Annotation{},
		&model.CanvasEvent{},
		&model.ReferenceCase{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Indexes the retrieval path depends on
	log.Println("Step 3: Creating Indexes...")

	postMigrationSQL := []string{
		// Gapless per-session ordering is enforced at write time; this makes
		// cursor reads cheap.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_canvas_events_session_seq ON canvas_events (session_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_session ON annotations (session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_images_session ON images (session_id);`,
		// IVFFlat over the reference embeddings. lists=100 is fine for the
		// corpus sizes this serves; exact scan remains the fallback.
		`CREATE INDEX IF NOT EXISTS idx_reference_cases_embedding ON reference_cases USING ivfflat (embedding vector_l2_ops) WITH (lists = 100);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v. Continuing...", err)
		}
	}

	log.Println("✅ Migration complete.")
}
