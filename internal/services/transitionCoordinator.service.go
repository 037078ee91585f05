package services

import (
	"context"
	"errors"

	. "pms/internal/models"
	"pms/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusNotifier is the outbound notification sink. Implementations must be
// fire-and-forget: the coordinator never waits on delivery and a sink
// failure never rolls back a transition.
type StatusNotifier interface {
	PublishStatusChange(
		reservationID uuid.UUID,
		oldStatus, newStatus, reason string,
		propertyID, organizationID uuid.UUID,
	)
}

// TransitionCoordinatorService is the engine's only mutating entry point. It
// orchestrates basic validation, rule evaluation, the approval gate, and the
// atomic status update plus audit append, all under a per-reservation
// advisory lock.
type TransitionCoordinatorService struct {
	graph        *TransitionGraph
	rules        *RuleEngineService
	locks        *ReservationLockService
	reservations repositories.ReservationRepository
	history      repositories.StatusHistoryRepository
	transactions *TransactionService
	notifier     StatusNotifier
	clock        Clock
	log          logger.Logger
}

func NewTransitionCoordinatorService(
	graph *TransitionGraph,
	rules *RuleEngineService,
	locks *ReservationLockService,
	reservations repositories.ReservationRepository,
	history repositories.StatusHistoryRepository,
	transactions *TransactionService,
	notifier StatusNotifier,
	clock Clock,
) *TransitionCoordinatorService {
	return &TransitionCoordinatorService{
		graph:        graph,
		rules:        rules,
		locks:        locks,
		reservations: reservations,
		history:      history,
		transactions: transactions,
		notifier:     notifier,
		clock:        clock,
		log:          logger.New("transitionCoordinatorService"),
	}
}

// Transition attempts to move the reservation to the requested status. Policy
// outcomes (invalid edge, failed rules, approval gate, conflicts, missing
// reservation) come back as typed results; the error return is reserved for
// infrastructure failures.
func (s *TransitionCoordinatorService) Transition(
	ctx context.Context,
	req TransitionRequest,
) (*TransitionResult, error) {
	log := s.log.Function("Transition")

	release, err := s.locks.Acquire(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, ErrLockTimeout) {
			return &TransitionResult{
				Outcome: OutcomeConflict,
				Reason:  "Another transition on this reservation is in progress",
			}, nil
		}
		return nil, log.Err("failed to acquire reservation lock", err, "reservationID", req.ReservationID)
	}
	defer release()

	var result *TransitionResult
	var oldStatus ReservationStatus
	var orgID uuid.UUID

	txErr := s.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		reservation, err := s.reservations.GetByID(ctx, tx, req.ReservationID, req.PropertyID)
		if err != nil {
			if errors.Is(err, repositories.ErrReservationNotFound) {
				result = &TransitionResult{
					Outcome: OutcomeNotFound,
					Reason:  "Reservation not found",
				}
				return nil
			}
			return err
		}

		oldStatus = reservation.Status
		orgID = reservation.OrganizationID

		// Cheap fast path: reject impossible edges before any rule detail
		// is computed.
		basic := s.graph.Validate(reservation.Status, req.NewStatus)
		if !basic.IsValid {
			result = &TransitionResult{
				Outcome: OutcomeInvalidTransition,
				Reason:  basic.Reason,
			}
			return nil
		}

		evaluation := s.rules.Evaluate(buildTransitionContext(reservation, req))

		if len(evaluation.Errors) > 0 {
			result = &TransitionResult{
				Outcome:                OutcomeValidationFailed,
				Errors:                 evaluation.Errors,
				Warnings:               evaluation.Warnings,
				BusinessRuleViolations: evaluation.BusinessRuleViolations,
				DataIntegrityIssues:    evaluation.DataIntegrityIssues,
			}
			return nil
		}

		if evaluation.RequiresApproval && !req.IsAutomatic && !req.ApprovalOverride {
			result = &TransitionResult{
				Outcome:  OutcomeApprovalRequired,
				Reason:   evaluation.ApprovalReason,
				Warnings: evaluation.Warnings,
			}
			return nil
		}

		now := s.clock.Now()
		update := repositories.StatusUpdate{
			Guard:     reservation.Status,
			NewStatus: req.NewStatus,
			Reason:    req.Reason,
			UpdatedBy: req.ActingUserID,
			UpdatedAt: now,
		}
		switch req.NewStatus {
		case StatusInHouse:
			update.CheckedInAt = &now
		case StatusCheckedOut:
			update.CheckedOutAt = &now
		}

		updated, err := s.reservations.UpdateStatusGuarded(ctx, tx, reservation.ID, update)
		if err != nil {
			return err
		}
		if !updated {
			// The row's status moved between read and write. Never blind
			// overwrite; the caller retries from the top.
			result = &TransitionResult{
				Outcome: OutcomeConflict,
				Reason:  "Reservation status changed during the transition, retry",
			}
			return nil
		}

		previous := oldStatus
		entry := &StatusHistoryEntry{
			ReservationID:  reservation.ID,
			PropertyID:     reservation.PropertyID,
			PreviousStatus: &previous,
			NewStatus:      req.NewStatus,
			ChangedBy:      req.ActingUserID,
			ChangeReason:   req.Reason,
			IsAutomatic:    req.IsAutomatic,
			ChangedAt:      now,
		}
		if err := s.history.Record(ctx, tx, entry); err != nil {
			return err
		}

		reservation.Status = req.NewStatus
		reservation.StatusUpdatedBy = req.ActingUserID
		reservation.StatusUpdatedAt = &now
		reservation.StatusChangeReason = req.Reason
		if update.CheckedInAt != nil {
			reservation.CheckedInAt = update.CheckedInAt
		}
		if update.CheckedOutAt != nil {
			reservation.CheckedOutAt = update.CheckedOutAt
		}

		result = &TransitionResult{
			Outcome:                OutcomeSuccess,
			Reservation:            reservation,
			Warnings:               evaluation.Warnings,
			BusinessRuleViolations: evaluation.BusinessRuleViolations,
			DataIntegrityIssues:    evaluation.DataIntegrityIssues,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if result.Outcome == OutcomeSuccess && s.notifier != nil {
		s.notifier.PublishStatusChange(
			req.ReservationID,
			oldStatus.String(),
			req.NewStatus.String(),
			req.Reason,
			req.PropertyID,
			orgID,
		)
	}

	log.Info(
		"transition attempt finished",
		"reservationID", req.ReservationID,
		"from", oldStatus,
		"to", req.NewStatus,
		"outcome", result.Outcome,
		"isAutomatic", req.IsAutomatic,
	)

	return result, nil
}

// History returns the reservation's audit trail, most recent first.
func (s *TransitionCoordinatorService) History(
	ctx context.Context,
	reservationID uuid.UUID,
	limit int,
) ([]*StatusHistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []*StatusHistoryEntry
	err := s.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		entries, err = s.history.History(ctx, tx, reservationID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// PropertyHistory returns the property-wide audit feed, most recent first.
func (s *TransitionCoordinatorService) PropertyHistory(
	ctx context.Context,
	propertyID uuid.UUID,
	limit int,
) ([]*StatusHistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []*StatusHistoryEntry
	err := s.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		entries, err = s.history.ListByProperty(ctx, tx, propertyID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func buildTransitionContext(reservation *Reservation, req TransitionRequest) TransitionContext {
	return TransitionContext{
		ReservationID:  reservation.ID,
		PropertyID:     reservation.PropertyID,
		OrganizationID: reservation.OrganizationID,
		CurrentStatus:  reservation.Status,
		NewStatus:      req.NewStatus,
		ActingUserID:   req.ActingUserID,
		ActingRole:     req.ActingRole,
		IsAutomatic:    req.IsAutomatic,
		GuestName:      reservation.GuestName,
		CheckIn:        reservation.CheckIn,
		CheckOut:       reservation.CheckOut,
		PaymentStatus:  reservation.PaymentStatus,
		PaidAmount:     reservation.PaidAmount,
		AmountCaptured: reservation.AmountCaptured,
		DepositAmount:  reservation.DepositAmount,
		RoomID:         reservation.RoomID,
		PartySize:      reservation.PartySize,
		CreatedAt:      reservation.CreatedAt,
	}
}
