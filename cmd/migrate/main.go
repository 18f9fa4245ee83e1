package main

import (
	"fmt"
	"log"
	"os"

	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "reset":
		resetDatabase()
	default:
		fmt.Println("Usage: migrate [up|reset]")
		fmt.Println("  up    - Create or update every table and index")
		fmt.Println("  reset - Drop every table and migrate from scratch (development only)")
		os.Exit(1)
	}
}

func connect() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}

	log.Println("🔄 Connecting to database...")
	if err := database.Initialize(cfg.Database, false); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected")
	return cfg
}

func runMigrationsUp() {
	connect()
	defer database.Close()

	log.Println("📈 Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ All migrations completed successfully!")
}

func resetDatabase() {
	cfg := connect()
	defer database.Close()

	if !cfg.IsDevelopment() {
		log.Fatalf("❌ Refusing to reset a %s database", cfg.Environment)
	}

	log.Println("🧨 Dropping tables...")
	models := database.AllModels()
	// Reverse order so dependents go first
	for i := len(models) - 1; i >= 0; i-- {
		if err := database.DB.Migrator().DropTable(models[i]); err != nil {
			log.Fatalf("❌ Drop failed: %v", err)
		}
	}

	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database reset")
}
