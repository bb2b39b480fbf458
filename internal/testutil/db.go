// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"hrms/internal/database"
	"hrms/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts an active user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, DisplayName: email, Password: "x", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCompany inserts a client company.
func CreateCompany(t *testing.T, db *gorm.DB, name string) *model.Company {
	t.Helper()
	c := &model.Company{Name: name, Type: model.CompanyTypeClient}
	require.NoError(t, db.Create(c).Error)
	return c
}
