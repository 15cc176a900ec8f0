// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"anoa.com/socialgraph/internal/bootstrap"
	"anoa.com/socialgraph/internal/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
// A single connection keeps every statement on the same memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given username and privacy flag.
func CreateUser(t testing.TB, db *gorm.DB, username string, private bool) *entity.User {
	t.Helper()

	u := &entity.User{
		Username:    username,
		DisplayName: username,
		Email:       username + "@example.com",
		IsPrivate:   private,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// ReloadUser reads the user back from the database.
func ReloadUser(t testing.TB, db *gorm.DB, u *entity.User) *entity.User {
	t.Helper()

	var fresh entity.User
	if err := db.First(&fresh, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("reload user %s: %v", u.Username, err)
	}
	return &fresh
}
