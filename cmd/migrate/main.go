package main

import (
	"os"
	"strings"

	"mpersona-be/internal/config"
	"mpersona-be/internal/model"
	"mpersona-be/internal/repository/implementation"
	"mpersona-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("🚀 Starting broker schema migration")

	// 3. Pre-Migration: Extensions
	color.Yellow("\nStep 1: Setting up extensions")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		color.Red("Warn: Failed to create pgcrypto: %v. Continuing...", err)
	}

	// 4. AutoMigrate
	color.Yellow("\nStep 2: Running AutoMigrate for accounts and facts")
	if err := db.AutoMigrate(&model.Account{}, &model.Fact{}); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}
	color.Green("Tables ready")

	// 5. Post-Migration: full-text index over the ranked fact document
	color.Yellow("\nStep 3: Creating full-text index")
	document := strings.ReplaceAll(implementation.FactDocument, "facts.", "")
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_facts_document ON facts USING GIN ((` + document + `));`
	if err := db.Exec(indexSQL).Error; err != nil {
		color.Red("Warn: Failed to create full-text index: %v", err)
	} else {
		color.Green("Index ready")
	}

	color.Green("\n✅ Success: Database migration completed successfully via GORM.")
}
