package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Init opens the row store. A postgres DSN selects the postgres driver,
// anything else is treated as a sqlite file path.
func Init(dsn string) *gorm.DB {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		if dsn == "" {
			dsn = filepath.Join("data", "medichat.db")
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatalf("failed to create database directory %s: %v", dir, err)
			}
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to open database %s: %v", dsn, err)
	}
	return db
}

// MustMigrate runs AutoMigrate on the provided models.
func MustMigrate(db *gorm.DB, models ...interface{}) {
	if err := db.AutoMigrate(models...); err != nil {
		panic(fmt.Errorf("auto migrate failed: %w", err))
	}
}
