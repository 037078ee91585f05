package initialize

import (
	"pms/config"
	. "pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeSettings(db, log); err != nil {
		return log.Err("failed to initialize property settings", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// initializeSettings backfills a default settings row for any property that
// already has reservations but no automation configuration. The sweep skips
// properties with no settings row, so a missing row silently disables
// automation for that property.
func initializeSettings(db *gorm.DB, log logger.Logger) error {
	log.Info("Backfilling default property settings")

	type propertyOrg struct {
		PropertyID     uuid.UUID
		OrganizationID uuid.UUID
	}

	var missing []propertyOrg
	err := db.Model(&Reservation{}).
		Select("DISTINCT reservations.property_id, reservations.organization_id").
		Joins("LEFT JOIN property_settings ON property_settings.property_id = reservations.property_id").
		Where("property_settings.id IS NULL").
		Scan(&missing).Error
	if err != nil {
		return log.Err("failed to find properties without settings", err)
	}

	for _, property := range missing {
		settings := PropertySettings{
			PropertyID:     property.PropertyID,
			OrganizationID: property.OrganizationID,
			CheckInTime:    "15:00",
			CheckOutTime:   "11:00",

			NoShowGraceHours:         6,
			NoShowLookbackDays:       3,
			LateCheckoutGraceHours:   2,
			LateCheckoutLookbackDays: 2,

			LateCheckoutFeeType:             FeeTypeFlat,
			ConfirmationPendingTimeoutHours: 24,
			AuditLogRetentionDays:           365,
		}
		if err := db.Create(&settings).Error; err != nil {
			return log.Err(
				"failed to create default settings",
				err,
				"propertyId",
				property.PropertyID,
			)
		}
		log.Info("Created default settings", "propertyId", property.PropertyID)
	}

	log.Info("Property settings backfill complete", "count", len(missing))
	return nil
}
