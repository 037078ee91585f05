package services

import (
	"testing"
	"time"

	. "pms/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newTestRuleEngine(now time.Time) *RuleEngineService {
	return NewRuleEngineService(NewTransitionGraph(), 4, fixedClock{now: now})
}

func cleanContext(now time.Time) TransitionContext {
	roomID := uuid.New()
	return TransitionContext{
		ReservationID: uuid.New(),
		PropertyID:    uuid.New(),
		CurrentStatus: StatusConfirmed,
		NewStatus:     StatusCheckinDue,
		ActingRole:    RoleFrontDesk,
		GuestName:     "Test Guest",
		CheckIn:       now,
		CheckOut:      now.Add(48 * time.Hour),
		PaymentStatus: PaymentPaid,
		PaidAmount:    10000,
		DepositAmount: 5000,
		RoomID:        &roomID,
		PartySize:     2,
	}
}

func TestRuleEngine_CleanTransitionPasses(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	engine := newTestRuleEngine(now)

	evaluation := engine.Evaluate(cleanContext(now))

	assert.Empty(t, evaluation.Errors)
	assert.Empty(t, evaluation.Warnings)
	assert.Empty(t, evaluation.BusinessRuleViolations)
	assert.Empty(t, evaluation.DataIntegrityIssues)
	assert.False(t, evaluation.RequiresApproval)
}

func TestRuleEngine_PaymentSufficiency(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	engine := newTestRuleEngine(now)

	testCases := []struct {
		name      string
		from      ReservationStatus
		paid      int64
		captured  int64
		deposit   int64
		wantError bool
	}{
		{
			name:      "unpaid confirmation is blocked",
			from:      StatusConfirmationPending,
			deposit:   10000,
			wantError: true,
		},
		{
			name:      "partial capture below deposit is blocked",
			from:      StatusConfirmationPending,
			captured:  9000,
			deposit:   10000,
			wantError: true,
		},
		{
			name:    "any direct payment confirms",
			from:    StatusConfirmationPending,
			paid:    1,
			deposit: 10000,
		},
		{
			name:     "captured deposit confirms",
			from:     StatusConfirmationPending,
			captured: 10000,
			deposit:  10000,
		},
		{
			name:      "no-show reactivation checks payment too",
			from:      StatusNoShow,
			deposit:   10000,
			wantError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transitionContext := cleanContext(now)
			transitionContext.CurrentStatus = tc.from
			transitionContext.NewStatus = StatusConfirmed
			transitionContext.ActingRole = RolePropertyMgr
			transitionContext.PaidAmount = tc.paid
			transitionContext.AmountCaptured = tc.captured
			transitionContext.DepositAmount = tc.deposit

			evaluation := engine.Evaluate(transitionContext)

			if tc.wantError {
				assert.Len(t, evaluation.Errors, 1)
				assert.Contains(t, evaluation.Errors[0], "Insufficient payment to confirm")
				assert.Contains(t, evaluation.BusinessRuleViolations, "PAYMENT_SUFFICIENCY")
			} else {
				assert.Empty(t, evaluation.Errors)
				assert.Empty(t, evaluation.BusinessRuleViolations)
			}
		})
	}

	t.Run("payment is not checked outside confirmation edges", func(t *testing.T) {
		transitionContext := cleanContext(now)
		transitionContext.CurrentStatus = StatusCheckinDue
		transitionContext.NewStatus = StatusInHouse
		transitionContext.PaidAmount = 0
		transitionContext.DepositAmount = 10000

		evaluation := engine.Evaluate(transitionContext)
		assert.Empty(t, evaluation.Errors)
	})
}

func TestRuleEngine_EarlyArrivalWarning(t *testing.T) {
	now := time.Date(2025, 8, 15, 8, 0, 0, 0, time.UTC)
	engine := newTestRuleEngine(now)

	t.Run("check-in well before arrival warns but does not block", func(t *testing.T) {
		transitionContext := cleanContext(now)
		transitionContext.CurrentStatus = StatusConfirmed
		transitionContext.NewStatus = StatusInHouse
		transitionContext.CheckIn = now.Add(26 * time.Hour)

		evaluation := engine.Evaluate(transitionContext)

		assert.Empty(t, evaluation.Errors)
		assert.Len(t, evaluation.Warnings, 1)
		assert.Contains(t, evaluation.Warnings[0], "before the reservation's arrival date")
	})

	t.Run("check-in within the threshold is silent", func(t *testing.T) {
		transitionContext := cleanContext(now)
		transitionContext.CurrentStatus = StatusConfirmed
		transitionContext.NewStatus = StatusInHouse
		transitionContext.CheckIn = now.Add(3 * time.Hour)

		evaluation := engine.Evaluate(transitionContext)
		assert.Empty(t, evaluation.Warnings)
	})
}

func TestRuleEngine_ApprovalGate(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	engine := newTestRuleEngine(now)

	t.Run("front desk needs approval for critical edges", func(t *testing.T) {
		transitionContext := cleanContext(now)
		transitionContext.CurrentStatus = StatusConfirmed
		transitionContext.NewStatus = StatusCancelled
		transitionContext.ActingRole = RoleFrontDesk

		evaluation := engine.Evaluate(transitionContext)

		assert.True(t, evaluation.RequiresApproval)
		assert.NotEmpty(t, evaluation.ApprovalReason)
		assert.Empty(t, evaluation.Errors, "approval gate must not produce errors")
	})

	t.Run("property manager passes the gate", func(t *testing.T) {
		transitionContext := cleanContext(now)
		transitionContext.CurrentStatus = StatusConfirmed
		transitionContext.NewStatus = StatusCancelled
		transitionContext.ActingRole = RolePropertyMgr

		evaluation := engine.Evaluate(transitionContext)
		assert.False(t, evaluation.RequiresApproval)
	})

	t.Run("non-critical edges never gate", func(t *testing.T) {
		transitionContext := cleanContext(now)
		transitionContext.CurrentStatus = StatusCheckinDue
		transitionContext.NewStatus = StatusInHouse
		transitionContext.ActingRole = RoleHousekeeper

		evaluation := engine.Evaluate(transitionContext)
		assert.False(t, evaluation.RequiresApproval)
	})
}

func TestRuleEngine_DataIntegrityAdvisories(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	engine := newTestRuleEngine(now)

	transitionContext := cleanContext(now)
	transitionContext.GuestName = ""
	transitionContext.RoomID = nil
	transitionContext.CheckOut = transitionContext.CheckIn

	evaluation := engine.Evaluate(transitionContext)

	assert.Len(t, evaluation.DataIntegrityIssues, 3)
	assert.Empty(t, evaluation.Errors, "integrity advisories never block")
}

func TestRuleEngine_AccumulatesAcrossCategories(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	engine := newTestRuleEngine(now)

	// One context violating payment, integrity, and the approval gate at once.
	transitionContext := cleanContext(now)
	transitionContext.CurrentStatus = StatusNoShow
	transitionContext.NewStatus = StatusConfirmed
	transitionContext.ActingRole = RoleFrontDesk
	transitionContext.PaidAmount = 0
	transitionContext.AmountCaptured = 0
	transitionContext.DepositAmount = 10000
	transitionContext.GuestName = ""

	evaluation := engine.Evaluate(transitionContext)

	assert.NotEmpty(t, evaluation.Errors)
	assert.NotEmpty(t, evaluation.BusinessRuleViolations)
	assert.NotEmpty(t, evaluation.DataIntegrityIssues)
	assert.True(t, evaluation.RequiresApproval)
}
