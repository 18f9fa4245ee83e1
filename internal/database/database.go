package database

import (
	"fmt"
	"time"

	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize(cfg config.DatabaseConfig, development bool) error {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if development {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on")
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	DB = db
	logger.Log.Info("Database connected", zap.String("driver", db.Dialector.Name()))

	return nil
}

// EnableTracing installs the OpenTelemetry GORM plugin on DB
func EnableTracing() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Use(telemetry.GORMTracingPlugin())
}

// AllModels lists every table owned by the API, in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PasswordReset{},
		&models.Tweet{},
		&models.Like{},
		&models.Bookmark{},
		&models.Retweet{},
		&models.Follow{},
		&models.Notification{},
		&models.Message{},
		&models.Community{},
		&models.CommunityMember{},
		&models.AssistantThread{},
		&models.AssistantMessage{},
	}
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// createIndexes creates indexes AutoMigrate cannot express
func createIndexes() error {
	if DB.Dialector.Name() != "postgres" {
		return nil
	}

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",

		// Timeline: non-reply tweets by recency
		"CREATE INDEX IF NOT EXISTS idx_tweets_timeline ON tweets (created_at DESC) WHERE is_reply = false",
		"CREATE INDEX IF NOT EXISTS idx_tweets_visibility_created ON tweets (visibility, created_at DESC) WHERE is_reply = false",
		"CREATE INDEX IF NOT EXISTS idx_tweets_replies ON tweets (reply_to_id, created_at) WHERE reply_to_id IS NOT NULL",

		// SQL fallback for tweet search
		"CREATE INDEX IF NOT EXISTS idx_tweets_content_search ON tweets USING gin(to_tsvector('english', content))",

		"CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id) WHERE read = false",
		"CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (recipient_id) WHERE read = false",
	}

	for _, stmt := range statements {
		if err := DB.Exec(stmt).Error; err != nil {
			logger.Log.Warn("Failed to create index", zap.String("statement", stmt), zap.Error(err))
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// DecrementExpr lowers a counter column by one without going below zero.
// Written as CASE so it runs on both PostgreSQL and SQLite.
func DecrementExpr(column string) interface{} {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column))
}

// IncrementExpr raises a counter column by one
func IncrementExpr(column string) interface{} {
	return gorm.Expr(column + " + 1")
}
