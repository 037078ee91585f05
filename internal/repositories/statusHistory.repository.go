package repositories

import (
	"context"
	"time"

	. "pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusHistoryRepository is the audit trail. Record is a single atomic
// append; entries are never updated, and the only delete path is the bulk
// retention prune.
type StatusHistoryRepository interface {
	Record(ctx context.Context, tx *gorm.DB, entry *StatusHistoryEntry) error
	History(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, limit int) ([]*StatusHistoryEntry, error)
	ListByProperty(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, limit int) ([]*StatusHistoryEntry, error)
	PruneOlderThan(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, cutoff time.Time) (int64, error)
}

type statusHistoryRepository struct {
	log logger.Logger
}

func NewStatusHistoryRepository() StatusHistoryRepository {
	return &statusHistoryRepository{
		log: logger.New("statusHistoryRepository"),
	}
}

func (r *statusHistoryRepository) Record(
	ctx context.Context,
	tx *gorm.DB,
	entry *StatusHistoryEntry,
) error {
	log := r.log.Function("Record")

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return log.Err(
			"failed to append status history entry",
			err,
			"reservationID", entry.ReservationID,
			"newStatus", entry.NewStatus,
		)
	}

	return nil
}

func (r *statusHistoryRepository) History(
	ctx context.Context,
	tx *gorm.DB,
	reservationID uuid.UUID,
	limit int,
) ([]*StatusHistoryEntry, error) {
	log := r.log.Function("History")

	var entries []*StatusHistoryEntry
	err := tx.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("changed_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, log.Err(
			"failed to load status history",
			err,
			"reservationID", reservationID,
		)
	}

	return entries, nil
}

func (r *statusHistoryRepository) ListByProperty(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	limit int,
) ([]*StatusHistoryEntry, error) {
	log := r.log.Function("ListByProperty")

	var entries []*StatusHistoryEntry
	err := tx.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("changed_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, log.Err("failed to list property history", err, "propertyID", propertyID)
	}

	return entries, nil
}

// PruneOlderThan hard-deletes entries past the property's retention window.
// This is the maintenance path only; nothing else deletes audit rows.
func (r *statusHistoryRepository) PruneOlderThan(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	cutoff time.Time,
) (int64, error) {
	log := r.log.Function("PruneOlderThan")

	result := tx.WithContext(ctx).
		Unscoped().
		Where("property_id = ? AND changed_at < ?", propertyID, cutoff).
		Delete(&StatusHistoryEntry{})
	if result.Error != nil {
		return 0, log.Err(
			"failed to prune status history",
			result.Error,
			"propertyID", propertyID,
			"cutoff", cutoff,
		)
	}

	return result.RowsAffected, nil
}
