package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSufficient(t *testing.T) {
	testCases := []struct {
		name       string
		paidAmount int64
		captured   int64
		deposit    int64
		expected   bool
	}{
		{
			name:       "direct payment counts regardless of deposit",
			paidAmount: 100,
			deposit:    50000,
			expected:   true,
		},
		{
			name:     "captured funds covering the deposit count",
			captured: 10000,
			deposit:  10000,
			expected: true,
		},
		{
			name:     "captured funds above the deposit count",
			captured: 15000,
			deposit:  10000,
			expected: true,
		},
		{
			name:     "partial capture below the deposit is insufficient",
			captured: 9999,
			deposit:  10000,
			expected: false,
		},
		{
			name:     "no money and a deposit requirement is insufficient",
			deposit:  10000,
			expected: false,
		},
		{
			name:     "zero deposit requires nothing",
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reservation := Reservation{
				PaidAmount:     tc.paidAmount,
				AmountCaptured: tc.captured,
				DepositAmount:  tc.deposit,
			}
			assert.Equal(t, tc.expected, reservation.PaymentSufficient())
		})
	}
}

func TestDayTransitionIssueBlocking(t *testing.T) {
	critical := DayTransitionIssue{Severity: SeverityCritical}
	warning := DayTransitionIssue{Severity: SeverityWarning}

	assert.True(t, critical.Blocking())
	assert.False(t, warning.Blocking())
}
