package seed

import (
	"time"

	"pms/config"
	. "pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	propertyID := uuid.New()
	organizationID := uuid.New()
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	settings := PropertySettings{
		PropertyID:     propertyID,
		OrganizationID: organizationID,
		CheckInTime:    "15:00",
		CheckOutTime:   "11:00",

		NoShowGraceHours:         6,
		NoShowLookbackDays:       3,
		LateCheckoutGraceHours:   2,
		LateCheckoutLookbackDays: 2,

		LateCheckoutFee:     5000,
		LateCheckoutFeeType: FeeTypeFlat,

		ConfirmationPendingTimeoutHours: 24,
		AuditLogRetentionDays:           365,
	}
	if err := db.Create(&settings).Error; err != nil {
		return log.Err("failed to seed property settings", err)
	}

	reservations := []Reservation{
		{
			PropertyID:     propertyID,
			OrganizationID: organizationID,
			GuestName:      "Ada Lovelace",
			RoomNumber:     "101",
			PartySize:      2,
			CheckIn:        today.Add(24 * time.Hour),
			CheckOut:       today.Add(72 * time.Hour),
			Status:         StatusConfirmationPending,
			PaymentStatus:  PaymentUnpaid,
			DepositAmount:  10000,
		},
		{
			PropertyID:     propertyID,
			OrganizationID: organizationID,
			GuestName:      "Grace Hopper",
			RoomNumber:     "102",
			PartySize:      1,
			CheckIn:        today,
			CheckOut:       today.Add(48 * time.Hour),
			Status:         StatusConfirmed,
			PaymentStatus:  PaymentPaid,
			PaidAmount:     25000,
			DepositAmount:  10000,
		},
		{
			PropertyID:     propertyID,
			OrganizationID: organizationID,
			GuestName:      "Alan Turing",
			RoomNumber:     "201",
			PartySize:      2,
			CheckIn:        today.Add(-48 * time.Hour),
			CheckOut:       today,
			Status:         StatusInHouse,
			PaymentStatus:  PaymentPartiallyPaid,
			AmountCaptured: 10000,
			DepositAmount:  10000,
		},
		{
			PropertyID:     propertyID,
			OrganizationID: organizationID,
			GuestName:      "Margaret Hamilton",
			RoomNumber:     "202",
			PartySize:      3,
			CheckIn:        today.Add(-96 * time.Hour),
			CheckOut:       today.Add(-72 * time.Hour),
			Status:         StatusCheckedOut,
			PaymentStatus:  PaymentPaid,
			PaidAmount:     45000,
			DepositAmount:  15000,
		},
	}

	for _, reservation := range reservations {
		if err := db.Create(&reservation).Error; err != nil {
			return log.Err("failed to seed reservation", err, "guest", reservation.GuestName)
		}

		entry := StatusHistoryEntry{
			ReservationID:  reservation.ID,
			PropertyID:     propertyID,
			PreviousStatus: nil,
			NewStatus:      reservation.Status,
			ChangeReason:   "Seeded reservation",
			IsAutomatic:    true,
			ChangedAt:      now,
		}
		if err := db.Create(&entry).Error; err != nil {
			return log.Err("failed to seed history entry", err, "guest", reservation.GuestName)
		}
	}

	log.Info("Seed complete", "propertyId", propertyID, "reservations", len(reservations))
	return nil
}
