package db

import (
	"fmt" // Error wrapping

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // PostgreSQL driver for GORM (pgx)
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM query logging
)

// Dialector picks the gorm dialect for a configured driver name
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// Open connects to the SQL database. Query logging is silenced in production.
func Open(driver, dsn string, isProd bool) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	cfg := &gorm.Config{}
	if isProd {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return gdb, nil
}
