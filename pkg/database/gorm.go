package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options configures the question bank connection.
type Options struct {
	DSN             string
	LogLevel        string
	SlowThreshold   time.Duration
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Colorful        bool
}

// ParseLogLevel maps a config value onto gorm's levels. Unknown values
// fall back to warn.
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn", "":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	}
	return logger.Warn, fmt.Errorf("unknown database log level %q", level)
}

func newLogger(opts Options) logger.Interface {
	level, err := ParseLogLevel(opts.LogLevel)
	if err != nil {
		log.Printf("[WARN] %v, using warn", err)
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			// question content and image bytes stay out of the log
			ParameterizedQueries: true,
			Colorful:             opts.Colorful,
		},
	)
}

// Open connects to PostgreSQL and sizes the pool from opts.
func Open(opts Options) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("database connection string is empty")
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		Logger: newLogger(opts),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}
