package sqlite

import (
	"errors"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a pure-Go sqlite database through gorm and migrates the given models.
// The pool is pinned to a single connection, which also keeps ":memory:" databases alive
// for the lifetime of the handle.
func NewSQLiteDB(path string, models ...any) (*gorm.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: empty path")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	return db, nil
}
