package repositories

import (
	"context"
	"errors"
	"time"

	. "pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrReservationNotFound is returned when the reservation does not exist or
// does not belong to the given property.
var ErrReservationNotFound = errors.New("reservation not found")

// StatusUpdate is the transition coordinator's atomic write. Guard is the
// status read under the advisory lock; the update applies only while the row
// still carries it.
type StatusUpdate struct {
	Guard        ReservationStatus
	NewStatus    ReservationStatus
	Reason       string
	UpdatedBy    *uuid.UUID
	UpdatedAt    time.Time
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
}

type ReservationRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id, propertyID uuid.UUID) (*Reservation, error)
	UpdateStatusGuarded(ctx context.Context, tx *gorm.DB, id uuid.UUID, update StatusUpdate) (bool, error)

	FindNoShowCandidates(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, cutoff, lookbackStart time.Time) ([]*Reservation, error)
	FindLateCheckouts(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, cutoff, lookbackStart time.Time) ([]*Reservation, error)
	FindExpiredConfirmationPending(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, createdBefore time.Time) ([]*Reservation, error)
	FindDayRollCandidates(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, dayStart, dayEnd time.Time) ([]*Reservation, error)
}

type reservationRepository struct {
	log logger.Logger
}

// NewReservationRepository builds the reservation store. Every method runs on
// the caller's transaction handle, so no connection is held here.
func NewReservationRepository() ReservationRepository {
	return &reservationRepository{
		log: logger.New("reservationRepository"),
	}
}

func (r *reservationRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id, propertyID uuid.UUID,
) (*Reservation, error) {
	log := r.log.Function("GetByID")

	var reservation Reservation
	err := tx.WithContext(ctx).
		Where("id = ? AND property_id = ?", id, propertyID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, log.Err("failed to load reservation", err, "reservationID", id)
	}

	return &reservation, nil
}

// UpdateStatusGuarded performs the optimistic guarded write. It returns false
// with no error when the guard misses, meaning the row's status changed since
// it was read and the caller must treat the attempt as a conflict.
func (r *reservationRepository) UpdateStatusGuarded(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	update StatusUpdate,
) (bool, error) {
	log := r.log.Function("UpdateStatusGuarded")

	values := map[string]any{
		"status":               update.NewStatus,
		"status_updated_by":    update.UpdatedBy,
		"status_updated_at":    update.UpdatedAt,
		"status_change_reason": update.Reason,
	}
	if update.CheckedInAt != nil {
		values["checked_in_at"] = update.CheckedInAt
	}
	if update.CheckedOutAt != nil {
		values["checked_out_at"] = update.CheckedOutAt
	}

	result := tx.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND status = ?", id, update.Guard).
		Updates(values)
	if result.Error != nil {
		return false, log.Err(
			"failed to update reservation status",
			result.Error,
			"reservationID", id,
			"newStatus", update.NewStatus,
		)
	}

	return result.RowsAffected == 1, nil
}

func (r *reservationRepository) FindNoShowCandidates(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	cutoff, lookbackStart time.Time,
) ([]*Reservation, error) {
	log := r.log.Function("FindNoShowCandidates")

	var reservations []*Reservation
	err := tx.WithContext(ctx).
		Where("property_id = ? AND status IN ? AND check_in <= ? AND check_in >= ?",
			propertyID,
			[]ReservationStatus{StatusConfirmed, StatusCheckinDue},
			cutoff,
			lookbackStart,
		).
		Order("check_in ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, log.Err("failed to find no-show candidates", err, "propertyID", propertyID)
	}

	return reservations, nil
}

func (r *reservationRepository) FindLateCheckouts(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	cutoff, lookbackStart time.Time,
) ([]*Reservation, error) {
	log := r.log.Function("FindLateCheckouts")

	var reservations []*Reservation
	err := tx.WithContext(ctx).
		Where("property_id = ? AND status = ? AND check_out <= ? AND check_out >= ?",
			propertyID,
			StatusInHouse,
			cutoff,
			lookbackStart,
		).
		Order("check_out ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, log.Err("failed to find late checkouts", err, "propertyID", propertyID)
	}

	return reservations, nil
}

func (r *reservationRepository) FindExpiredConfirmationPending(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	createdBefore time.Time,
) ([]*Reservation, error) {
	log := r.log.Function("FindExpiredConfirmationPending")

	var reservations []*Reservation
	err := tx.WithContext(ctx).
		Where("property_id = ? AND status = ? AND created_at <= ?",
			propertyID,
			StatusConfirmationPending,
			createdBefore,
		).
		Order("created_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, log.Err(
			"failed to find expired confirmation-pending reservations",
			err,
			"propertyID", propertyID,
		)
	}

	return reservations, nil
}

// FindDayRollCandidates loads every reservation whose state could block or
// warn on a day roll: anything still in-house, pending confirmation, or
// confirmed with a check-in inside the candidate day window.
func (r *reservationRepository) FindDayRollCandidates(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	dayStart, dayEnd time.Time,
) ([]*Reservation, error) {
	log := r.log.Function("FindDayRollCandidates")

	var reservations []*Reservation
	err := tx.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where(
			tx.Where("status = ? AND check_out < ?", StatusInHouse, dayEnd).
				Or("status = ? AND check_in >= ? AND check_in < ?", StatusConfirmationPending, dayStart, dayEnd).
				Or("status IN ? AND check_in < ?", []ReservationStatus{StatusConfirmed, StatusCheckinDue}, dayStart),
		).
		Order("check_in ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, log.Err("failed to find day-roll candidates", err, "propertyID", propertyID)
	}

	return reservations, nil
}
