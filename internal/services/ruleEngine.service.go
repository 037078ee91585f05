package services

import (
	"fmt"
	"time"

	. "pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// RuleEngineService evaluates configurable business rules for a proposed
// transition. Every rule category runs independently and failures accumulate;
// the engine never short-circuits, so the caller always sees the full
// picture in one evaluation.
type RuleEngineService struct {
	graph                 *TransitionGraph
	earlyArrivalThreshold time.Duration
	clock                 Clock
	log                   logger.Logger
}

func NewRuleEngineService(
	graph *TransitionGraph,
	earlyArrivalThresholdHours int,
	clock Clock,
) *RuleEngineService {
	return &RuleEngineService{
		graph:                 graph,
		earlyArrivalThreshold: time.Duration(earlyArrivalThresholdHours) * time.Hour,
		clock:                 clock,
		log:                   logger.New("ruleEngineService"),
	}
}

// Evaluate runs all rule categories against the transition context. It is a
// pure read-only evaluation: no lock is required and no state is touched.
func (s *RuleEngineService) Evaluate(tc TransitionContext) RuleEvaluation {
	evaluation := RuleEvaluation{
		Errors:                 []string{},
		Warnings:               []string{},
		BusinessRuleViolations: []string{},
		DataIntegrityIssues:    []string{},
	}

	s.evaluatePaymentSufficiency(tc, &evaluation)
	s.evaluateTimingSanity(tc, &evaluation)
	s.evaluateApprovalGate(tc, &evaluation)
	s.evaluateDataIntegrity(tc, &evaluation)

	return evaluation
}

// evaluatePaymentSufficiency blocks confirmation without money on the books.
// All comparisons are in the smallest currency unit; no rounding happens
// here.
func (s *RuleEngineService) evaluatePaymentSufficiency(
	tc TransitionContext,
	evaluation *RuleEvaluation,
) {
	intoConfirmed := tc.NewStatus == StatusConfirmed &&
		(tc.CurrentStatus == StatusConfirmationPending || tc.CurrentStatus == StatusNoShow)
	if !intoConfirmed {
		return
	}

	sufficient := tc.PaidAmount > 0 || tc.AmountCaptured >= tc.DepositAmount
	if sufficient {
		return
	}

	evaluation.Errors = append(evaluation.Errors, fmt.Sprintf(
		"Insufficient payment to confirm: paid %d, captured %d of %d deposit",
		tc.PaidAmount, tc.AmountCaptured, tc.DepositAmount,
	))
	evaluation.BusinessRuleViolations = append(
		evaluation.BusinessRuleViolations,
		"PAYMENT_SUFFICIENCY",
	)
}

// evaluateTimingSanity warns on check-ins well before the arrival date. A
// warning rather than a block: early check-in proceeds through a deliberate
// override decision made outside this engine.
func (s *RuleEngineService) evaluateTimingSanity(
	tc TransitionContext,
	evaluation *RuleEvaluation,
) {
	if tc.NewStatus != StatusInHouse {
		return
	}

	earliest := tc.CheckIn.Add(-s.earlyArrivalThreshold)
	now := s.clock.Now()
	if now.Before(earliest) {
		evaluation.Warnings = append(evaluation.Warnings, fmt.Sprintf(
			"Check-in is %s before the reservation's arrival date",
			tc.CheckIn.Sub(now).Round(time.Minute),
		))
	}
}

// evaluateApprovalGate sets the declarative approval flag on critical edges
// for actors below property-manager authority. The approval workflow itself
// is external; automatic transitions consult the same table but the flag is
// applied by the coordinator only for human actors.
func (s *RuleEngineService) evaluateApprovalGate(
	tc TransitionContext,
	evaluation *RuleEvaluation,
) {
	critical, reason := s.graph.IsCritical(tc.CurrentStatus, tc.NewStatus)
	if !critical {
		return
	}

	if tc.ActingRole.AtLeast(RolePropertyMgr) {
		return
	}

	evaluation.RequiresApproval = true
	evaluation.ApprovalReason = reason
}

// evaluateDataIntegrity reports pre-existing data quality problems as
// non-blocking advisories; they describe the reservation, not the
// transition.
func (s *RuleEngineService) evaluateDataIntegrity(
	tc TransitionContext,
	evaluation *RuleEvaluation,
) {
	if tc.GuestName == "" {
		evaluation.DataIntegrityIssues = append(
			evaluation.DataIntegrityIssues,
			"Reservation has no guest name",
		)
	}

	if tc.RoomID == nil {
		evaluation.DataIntegrityIssues = append(
			evaluation.DataIntegrityIssues,
			"Reservation has no room assigned",
		)
	}

	if !tc.CheckOut.After(tc.CheckIn) {
		evaluation.DataIntegrityIssues = append(
			evaluation.DataIntegrityIssues,
			fmt.Sprintf(
				"Check-out %s is not after check-in %s",
				tc.CheckOut.Format(time.RFC3339),
				tc.CheckIn.Format(time.RFC3339),
			),
		)
	}
}
