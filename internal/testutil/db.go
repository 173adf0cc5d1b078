// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"snapcircle/internal/database"
	"snapcircle/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database. A single connection
// keeps every statement on the same in-memory instance.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user with a derived email and a placeholder hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@snapcircle.test", username),
		Password: "$2a$10$placeholderplaceholderplaceholderplaceholderpla",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePhoto inserts a photo owned by owner.
func CreatePhoto(t testing.TB, db *gorm.DB, owner *models.User, caption string) *models.Photo {
	t.Helper()
	photo := &models.Photo{
		UserID:   owner.ID,
		ImageURL: fmt.Sprintf("https://img.snapcircle.test/%s/%d.jpg", owner.Username, len(caption)),
		Caption:  caption,
	}
	require.NoError(t, db.Omit("User").Create(photo).Error)
	return photo
}
