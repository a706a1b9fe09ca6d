package main

import (
	"log"

	"qbank-admin/internal/config"
	"qbank-admin/internal/model"
	"qbank-admin/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.Open(database.Options{
		DSN:           cfg.Database.Connection,
		LogLevel:      cfg.Database.LogLevel,
		SlowThreshold: cfg.Database.SlowThreshold,
	})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db, model.AllModels()...); err != nil {
		log.Fatalf("Error: migration failed: %v", err)
	}
	log.Println("✅ Migration completed")
}
