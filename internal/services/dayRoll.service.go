package services

import (
	"context"
	"fmt"
	"time"

	. "pms/internal/models"
	"pms/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DayRollService computes the issues that must be resolved or explicitly
// overridden before the property's operational day can advance. It is a pure
// read: nothing is mutated, and the proceed-or-stay decision belongs to the
// operator, not to this service.
type DayRollService struct {
	reservations repositories.ReservationRepository
	transactions *TransactionService
	log          logger.Logger
}

func NewDayRollService(
	reservations repositories.ReservationRepository,
	transactions *TransactionService,
) *DayRollService {
	return &DayRollService{
		reservations: reservations,
		transactions: transactions,
		log:          logger.New("dayRollService"),
	}
}

// ComputeIssues returns the blocking and advisory issues for advancing to the
// candidate operational day. Issues are computed fresh on every call and
// never persisted.
func (s *DayRollService) ComputeIssues(
	ctx context.Context,
	propertyID uuid.UUID,
	candidateDate time.Time,
) ([]DayTransitionIssue, error) {
	log := s.log.Function("ComputeIssues")

	dayStart := time.Date(
		candidateDate.Year(), candidateDate.Month(), candidateDate.Day(),
		0, 0, 0, 0, candidateDate.Location(),
	)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var candidates []*Reservation
	err := s.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		candidates, err = s.reservations.FindDayRollCandidates(ctx, tx, propertyID, dayStart, dayEnd)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to load day-roll candidates", err, "propertyID", propertyID)
	}

	issues := make([]DayTransitionIssue, 0, len(candidates))
	for _, reservation := range candidates {
		issues = append(issues, classify(reservation, dayStart, dayEnd)...)
	}

	log.Info(
		"day-roll issues computed",
		"propertyID", propertyID,
		"candidateDate", dayStart.Format("2006-01-02"),
		"issues", len(issues),
	)

	return issues, nil
}

func classify(reservation *Reservation, dayStart, dayEnd time.Time) []DayTransitionIssue {
	var issues []DayTransitionIssue

	switch reservation.Status {
	case StatusInHouse:
		if reservation.CheckOut.Before(dayEnd) {
			issues = append(issues, DayTransitionIssue{
				ReservationID: reservation.ID,
				GuestName:     reservation.GuestName,
				RoomNumber:    reservation.RoomNumber,
				Severity:      SeverityCritical,
				IssueType:     IssueStillInHouse,
				Description: fmt.Sprintf(
					"Guest is still in-house past the %s checkout",
					reservation.CheckOut.Format("2006-01-02"),
				),
				PaymentStatus: reservation.PaymentStatus,
			})
		}
		if reservation.PaymentStatus == PaymentUnpaid {
			issues = append(issues, DayTransitionIssue{
				ReservationID: reservation.ID,
				GuestName:     reservation.GuestName,
				RoomNumber:    reservation.RoomNumber,
				Severity:      SeverityWarning,
				IssueType:     IssueUnpaidInHouse,
				Description:   "In-house reservation has no payment on record",
				PaymentStatus: reservation.PaymentStatus,
			})
		}

	case StatusConfirmationPending:
		if !reservation.CheckIn.Before(dayStart) && reservation.CheckIn.Before(dayEnd) {
			issues = append(issues, DayTransitionIssue{
				ReservationID: reservation.ID,
				GuestName:     reservation.GuestName,
				RoomNumber:    reservation.RoomNumber,
				Severity:      SeverityCritical,
				IssueType:     IssueUnconfirmedArrival,
				Description:   "Arrival-day reservation is still awaiting confirmation",
				PaymentStatus: reservation.PaymentStatus,
			})
		}

	case StatusConfirmed, StatusCheckinDue:
		if reservation.CheckIn.Before(dayStart) {
			issues = append(issues, DayTransitionIssue{
				ReservationID: reservation.ID,
				GuestName:     reservation.GuestName,
				RoomNumber:    reservation.RoomNumber,
				Severity:      SeverityWarning,
				IssueType:     IssueMissedNoShow,
				Description:   "Past-arrival reservation has not been no-show processed",
				PaymentStatus: reservation.PaymentStatus,
			})
		}
	}

	return issues
}

// HasBlockingIssues is a convenience for callers deciding whether the
// automatic day roll may proceed.
func HasBlockingIssues(issues []DayTransitionIssue) bool {
	for _, issue := range issues {
		if issue.Blocking() {
			return true
		}
	}
	return false
}
