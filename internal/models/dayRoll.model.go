package models

import "github.com/google/uuid"

type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityWarning  IssueSeverity = "warning"
)

type DayTransitionIssueType string

const (
	IssueStillInHouse       DayTransitionIssueType = "STILL_IN_HOUSE"
	IssueUnconfirmedArrival DayTransitionIssueType = "UNCONFIRMED_ARRIVAL"
	IssueMissedNoShow       DayTransitionIssueType = "MISSED_NO_SHOW"
	IssueUnpaidInHouse      DayTransitionIssueType = "UNPAID_IN_HOUSE"
)

// DayTransitionIssue is computed fresh on every day-roll check and never
// persisted. Critical issues block the automatic day roll; warnings do not.
type DayTransitionIssue struct {
	ReservationID uuid.UUID              `json:"reservationId"`
	GuestName     string                 `json:"guestName"`
	RoomNumber    string                 `json:"roomNumber"`
	Severity      IssueSeverity          `json:"severity"`
	IssueType     DayTransitionIssueType `json:"issueType"`
	Description   string                 `json:"description"`
	PaymentStatus PaymentStatus          `json:"paymentStatus,omitempty"`
}

// Blocking reports whether the issue prevents an automatic day roll.
func (i DayTransitionIssue) Blocking() bool {
	return i.Severity == SeverityCritical
}
