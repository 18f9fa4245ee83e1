package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/seed"
)

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	randomSeed := fs.Int64("seed", 0, "random seed for reproducible data (0 picks one)")
	users := fs.Int("users", seed.DevVolume.Users, "number of users to create in dev mode")
	tweets := fs.Int("tweets", seed.DevVolume.Tweets, "number of tweets to create in dev mode")

	command := "dev"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command = args[0]
		args = args[1:]
	}
	_ = fs.Parse(args)

	switch command {
	case "dev", "test", "clean":
	default:
		fmt.Println("Usage: seed [dev|test|clean] [-seed N] [-users N] [-tweets N]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with minimal data")
		fmt.Println("  clean - Remove all data (use with caution)")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	if err := database.Initialize(cfg.Database, false); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("✅ Database connected")

	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	seeder := seed.NewSeeder(database.DB, *randomSeed)
	switch command {
	case "dev":
		log.Println("🌱 Seeding development database...")
		volume := seed.DevVolume
		volume.Users = *users
		volume.Tweets = *tweets
		if err := seeder.SeedDev(volume); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Printf("✅ Development database seeded! Every account's password is %q", seed.DefaultPassword)
	case "test":
		log.Println("🧪 Seeding test database...")
		if err := seeder.SeedTest(); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Println("✅ Test database seeded successfully!")
	case "clean":
		if !cfg.IsDevelopment() {
			log.Fatalf("❌ Refusing to clean a %s database", cfg.Environment)
		}
		log.Println("🧹 Cleaning seed data...")
		if err := seeder.Clean(); err != nil {
			log.Fatalf("❌ Clean failed: %v", err)
		}
		log.Println("✅ Seed data cleaned successfully!")
	}
}
