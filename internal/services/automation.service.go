package services

import (
	"context"
	"sync"
	"time"

	. "pms/internal/models"
	"pms/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	noShowReason              = "Automatic no-show detection"
	confirmationTimeoutReason = "Confirmation timeout exceeded"
)

// FeeNotifier delegates late-checkout fee assessment to billing. The sweep
// only flags; it never moves money and never forces a status change for a
// late checkout.
type FeeNotifier interface {
	PublishLateCheckoutFee(
		reservationID uuid.UUID,
		amount int64,
		currencyNote string,
		propertyID, organizationID uuid.UUID,
	)
}

// AutomationService drives time-based transitions: no-show detection,
// confirmation timeout, and late-checkout fee flagging. Every transition it
// performs goes through the coordinator with IsAutomatic set, so rule
// validation still applies in full; only the approval gate is bypassed.
type AutomationService struct {
	settings     repositories.PropertySettingsRepository
	reservations repositories.ReservationRepository
	coordinator  *TransitionCoordinatorService
	transactions *TransactionService
	billing      FeeNotifier
	clock        Clock
	concurrency  int
	log          logger.Logger
}

func NewAutomationService(
	settings repositories.PropertySettingsRepository,
	reservations repositories.ReservationRepository,
	coordinator *TransitionCoordinatorService,
	transactions *TransactionService,
	billing FeeNotifier,
	clock Clock,
	concurrency int,
) *AutomationService {
	if concurrency <= 0 {
		concurrency = 4
	}

	return &AutomationService{
		settings:     settings,
		reservations: reservations,
		coordinator:  coordinator,
		transactions: transactions,
		billing:      billing,
		clock:        clock,
		concurrency:  concurrency,
		log:          logger.New("automationService"),
	}
}

// SweepStats summarizes one sweep for logging and tests.
type SweepStats struct {
	NoShows              int
	ConfirmationTimeouts int
	LateCheckoutFees     int
	Skipped              int
	Failures             int
}

// RunAllSweeps runs the automation sweep for every property that has a
// settings row. Property failures are isolated: one bad property never stops
// the others.
func (s *AutomationService) RunAllSweeps(ctx context.Context) error {
	log := s.log.Function("RunAllSweeps")

	var propertyIDs []uuid.UUID
	err := s.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		propertyIDs, err = s.settings.ListPropertyIDs(ctx, tx)
		return err
	})
	if err != nil {
		return log.Err("failed to list properties for sweep", err)
	}

	for _, propertyID := range propertyIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := s.RunSweep(ctx, propertyID); err != nil {
			log.Er("property sweep failed", err, "propertyID", propertyID)
		}
	}

	return nil
}

// RunSweep executes one automation pass for a single property. The sweep is
// idempotent: a reservation already past the target edge is rejected by the
// basic validator and counted as skipped, not failed.
func (s *AutomationService) RunSweep(
	ctx context.Context,
	propertyID uuid.UUID,
) (*SweepStats, error) {
	log := s.log.Function("RunSweep")

	var config *AutomationConfig
	var noShows, expired, lateCheckouts []*Reservation

	err := s.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		config, err = s.settings.GetAutomationConfig(ctx, tx, propertyID)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		noShowCutoff := now.Add(-time.Duration(config.NoShowGraceHours) * time.Hour)
		noShowLookback := now.AddDate(0, 0, -config.NoShowLookbackDays)
		noShows, err = s.reservations.FindNoShowCandidates(ctx, tx, propertyID, noShowCutoff, noShowLookback)
		if err != nil {
			return err
		}

		lateCutoff := now.Add(-time.Duration(config.LateCheckoutGraceHours) * time.Hour)
		lateLookback := now.AddDate(0, 0, -config.LateCheckoutLookbackDays)
		lateCheckouts, err = s.reservations.FindLateCheckouts(ctx, tx, propertyID, lateCutoff, lateLookback)
		if err != nil {
			return err
		}

		pendingCutoff := now.Add(-time.Duration(config.ConfirmationPendingTimeoutHours) * time.Hour)
		expired, err = s.reservations.FindExpiredConfirmationPending(ctx, tx, propertyID, pendingCutoff)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to collect sweep candidates", err, "propertyID", propertyID)
	}

	stats := &SweepStats{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	process := func(fn func() (handled bool, skipped bool, err error)) {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			handled, skipped, err := fn()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failures++
			case skipped:
				stats.Skipped++
			case handled:
			}
		}()
	}

	for _, reservation := range noShows {
		res := reservation
		process(func() (bool, bool, error) {
			handled, skipped, err := s.transitionAutomatic(ctx, res, StatusNoShow, noShowReason)
			if handled {
				mu.Lock()
				stats.NoShows++
				mu.Unlock()
			}
			return handled, skipped, err
		})
	}

	for _, reservation := range expired {
		res := reservation
		process(func() (bool, bool, error) {
			handled, skipped, err := s.transitionAutomatic(ctx, res, StatusCancelled, confirmationTimeoutReason)
			if handled {
				mu.Lock()
				stats.ConfirmationTimeouts++
				mu.Unlock()
			}
			return handled, skipped, err
		})
	}

	for _, reservation := range lateCheckouts {
		res := reservation
		process(func() (bool, bool, error) {
			s.assessLateCheckoutFee(res, config)
			mu.Lock()
			stats.LateCheckoutFees++
			mu.Unlock()
			return true, false, nil
		})
	}

	wg.Wait()

	log.Info(
		"automation sweep finished",
		"propertyID", propertyID,
		"noShows", stats.NoShows,
		"confirmationTimeouts", stats.ConfirmationTimeouts,
		"lateCheckoutFees", stats.LateCheckoutFees,
		"skipped", stats.Skipped,
		"failures", stats.Failures,
	)

	return stats, nil
}

// transitionAutomatic pushes one reservation through the coordinator. An
// InvalidTransition outcome means another actor or a previous sweep already
// handled it, which is a skip rather than an error.
func (s *AutomationService) transitionAutomatic(
	ctx context.Context,
	reservation *Reservation,
	target ReservationStatus,
	reason string,
) (handled bool, skipped bool, err error) {
	log := s.log.Function("transitionAutomatic")

	result, err := s.coordinator.Transition(ctx, TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     target,
		Reason:        reason,
		ActingRole:    RoleSystem,
		IsAutomatic:   true,
	})
	if err != nil {
		log.Er("automatic transition failed", err,
			"reservationID", reservation.ID, "target", target)
		return false, false, err
	}

	switch result.Outcome {
	case OutcomeSuccess:
		return true, false, nil
	case OutcomeInvalidTransition:
		// Already in or past the target status.
		return false, true, nil
	case OutcomeConflict:
		// Concurrent manual transition won; next tick re-evaluates.
		return false, true, nil
	default:
		log.Warn(
			"automatic transition rejected",
			"reservationID", reservation.ID,
			"target", target,
			"outcome", result.Outcome,
			"errors", result.Errors,
		)
		return false, false, nil
	}
}

// assessLateCheckoutFee computes the fee and hands it to billing. Percentage
// fees apply to the deposit amount; flat fees are used as-is. All arithmetic
// stays in decimal until the final smallest-unit amount.
func (s *AutomationService) assessLateCheckoutFee(
	reservation *Reservation,
	config *AutomationConfig,
) {
	if s.billing == nil || config.LateCheckoutFee <= 0 {
		return
	}

	amount := config.LateCheckoutFee
	if config.LateCheckoutFeeType == FeeTypePercentage {
		amount = decimal.NewFromInt(reservation.DepositAmount).
			Mul(decimal.NewFromInt(config.LateCheckoutFee)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	}

	if amount <= 0 {
		return
	}

	s.billing.PublishLateCheckoutFee(
		reservation.ID,
		amount,
		"late checkout fee",
		reservation.PropertyID,
		reservation.OrganizationID,
	)
}
