package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one immutable row of the audit trail. Entries are
// append-only: no update path exists, and the only delete is bulk retention
// pruning driven by the property's audit retention window.
type StatusHistoryEntry struct {
	BaseUUIDModel
	ReservationID uuid.UUID `gorm:"type:uuid;not null;index:idx_history_reservation_time" json:"reservationId"`
	PropertyID    uuid.UUID `gorm:"type:uuid;not null;index:idx_history_property_time"     json:"propertyId"`

	// PreviousStatus is nil only for the creation entry.
	PreviousStatus *ReservationStatus `gorm:"type:text"          json:"previousStatus"`
	NewStatus      ReservationStatus  `gorm:"type:text;not null" json:"newStatus"`

	// ChangedBy is nil for system-initiated (automatic) transitions.
	ChangedBy    *uuid.UUID `gorm:"type:uuid" json:"changedBy"`
	ChangeReason string     `gorm:"type:text" json:"changeReason"`
	IsAutomatic  bool       `gorm:"not null;default:false" json:"isAutomatic"`

	ChangedAt time.Time `gorm:"not null;index:idx_history_reservation_time,sort:desc;index:idx_history_property_time,sort:desc" json:"changedAt"`
}
