package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the engine's aggregate. Status and the status* audit fields
// are mutated exclusively through the transition coordinator; direct writes
// bypass validation and are a bug.
type Reservation struct {
	BaseUUIDModel
	PropertyID     uuid.UUID  `gorm:"type:uuid;not null;index"           json:"propertyId"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index"           json:"organizationId"`
	GuestName      string     `gorm:"type:text"                          json:"guestName"`
	RoomID         *uuid.UUID `gorm:"type:uuid;index"                    json:"roomId"`
	RoomNumber     string     `gorm:"type:text"                          json:"roomNumber"`
	PartySize      int        `gorm:"not null;default:1"                 json:"partySize"`
	CheckIn        time.Time  `gorm:"not null;index"                     json:"checkIn"`
	CheckOut       time.Time  `gorm:"not null;index"                     json:"checkOut"`

	Status        ReservationStatus `gorm:"type:text;not null;index" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"type:text;not null"       json:"paymentStatus"`

	// Money in the smallest currency unit. No floating point anywhere near
	// these fields.
	PaidAmount     int64 `gorm:"not null;default:0" json:"paidAmount"`
	AmountCaptured int64 `gorm:"not null;default:0" json:"amountCaptured"`
	DepositAmount  int64 `gorm:"not null;default:0" json:"depositAmount"`

	StatusUpdatedBy    *uuid.UUID `gorm:"type:uuid" json:"statusUpdatedBy"`
	StatusUpdatedAt    *time.Time `               json:"statusUpdatedAt"`
	StatusChangeReason string     `gorm:"type:text" json:"statusChangeReason"`
	CheckedInAt        *time.Time `               json:"checkedInAt"`
	CheckedOutAt       *time.Time `               json:"checkedOutAt"`
}

// PaymentSufficient reports whether the reservation carries enough payment to
// confirm: any direct payment, or captured funds covering the deposit.
func (r *Reservation) PaymentSufficient() bool {
	return r.PaidAmount > 0 || r.AmountCaptured >= r.DepositAmount
}
