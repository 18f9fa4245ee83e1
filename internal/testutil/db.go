// Package testutil sets up in-memory databases for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// NewTestDB opens a fresh in-memory SQLite database, migrates every model
// and installs it as database.DB.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	logger.InitializeForTests()

	// A named shared-cache memory DB survives across the pool's connections
	dsn := fmt.Sprintf("file:chirp_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	database.DB = db
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a verified user with the given username
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:   username,
		FullName:   username,
		Email:      username + "@example.com",
		IsVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTweet inserts a top-level tweet
func CreateTweet(t testing.TB, db *gorm.DB, author *models.User, content string, visibility models.Visibility) *models.Tweet {
	t.Helper()
	tweet := &models.Tweet{
		AuthorID:   author.ID,
		Content:    content,
		Visibility: visibility,
	}
	require.NoError(t, db.Create(tweet).Error)
	return tweet
}
