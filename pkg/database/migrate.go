package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate enables the extensions the schema relies on and runs AutoMigrate
// for the given models.
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
