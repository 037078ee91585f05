package database

import (
	"pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// MigrateModels runs GORM AutoMigrate for all engine models.
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.Reservation{},
		&models.StatusHistoryEntry{},
		&models.PropertySettings{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates indexes GORM does not create from struct tags.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_reservations_property_status ON reservations(property_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_reservations_status_check_in ON reservations(status, check_in)",
		"CREATE INDEX IF NOT EXISTS idx_reservations_status_check_out ON reservations(status, check_out)",
		"CREATE INDEX IF NOT EXISTS idx_status_history_changed_at ON status_history_entries(changed_at DESC)",
	}

	for _, index := range indexes {
		if err := db.SQL.Exec(index).Error; err != nil {
			return log.Err("failed to create index", err, "sql", index)
		}
	}

	log.Info("Database indexes created successfully")
	return nil
}
