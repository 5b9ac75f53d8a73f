package db

import (
	"fmt"                          // Error wrapping
	"topup_system/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Models lists every table managed by AutoMigrate
func Models() []any {
	return []any{&domain.User{}, &domain.Order{}, &domain.Transaction{}}
}

// Migrate performs automatic migration for the database schema
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
