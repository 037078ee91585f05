package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies the result of a transition attempt. Callers pattern
// match on this instead of unwrapping error chains.
type Outcome string

const (
	OutcomeSuccess           Outcome = "SUCCESS"
	OutcomeInvalidTransition Outcome = "INVALID_TRANSITION"
	OutcomeValidationFailed  Outcome = "VALIDATION_FAILED"
	OutcomeApprovalRequired  Outcome = "APPROVAL_REQUIRED"
	OutcomeConflict          Outcome = "CONFLICT"
	OutcomeNotFound          Outcome = "NOT_FOUND"
)

// TransitionRequest is the single mutating entry point's input.
type TransitionRequest struct {
	ReservationID uuid.UUID         `json:"reservationId"`
	PropertyID    uuid.UUID         `json:"propertyId"`
	NewStatus     ReservationStatus `json:"newStatus"`
	Reason        string            `json:"reason"`
	ActingUserID  *uuid.UUID        `json:"actingUserId"`
	ActingRole    Role              `json:"actingRole"`
	IsAutomatic   bool              `json:"isAutomatic"`

	// ApprovalOverride marks a re-invocation after an external approval
	// workflow signed off on a critical transition.
	ApprovalOverride bool `json:"approvalOverride"`
}

// TransitionContext is the snapshot the rule engine evaluates. It is built
// once per attempt from the reservation read under the advisory lock, so the
// evaluation and the eventual write see the same state.
type TransitionContext struct {
	ReservationID  uuid.UUID
	PropertyID     uuid.UUID
	OrganizationID uuid.UUID
	CurrentStatus  ReservationStatus
	NewStatus      ReservationStatus
	ActingUserID   *uuid.UUID
	ActingRole     Role
	IsAutomatic    bool

	GuestName      string
	CheckIn        time.Time
	CheckOut       time.Time
	PaymentStatus  PaymentStatus
	PaidAmount     int64
	AmountCaptured int64
	DepositAmount  int64
	RoomID         *uuid.UUID
	PartySize      int
	CreatedAt      time.Time
}

// RuleEvaluation accumulates every rule category's findings. Errors block the
// write; everything else is advisory detail the caller shows all at once.
type RuleEvaluation struct {
	Errors                 []string `json:"errors"`
	Warnings               []string `json:"warnings"`
	RequiresApproval       bool     `json:"requiresApproval"`
	ApprovalReason         string   `json:"approvalReason,omitempty"`
	BusinessRuleViolations []string `json:"businessRuleViolations"`
	DataIntegrityIssues    []string `json:"dataIntegrityIssues"`
}

// BasicValidation is the transition-graph check result.
type BasicValidation struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason,omitempty"`
}

// TransitionResult is the typed outcome of a transition attempt. Exactly one
// Outcome is set; Reservation is populated only on success.
type TransitionResult struct {
	Outcome                Outcome      `json:"outcome"`
	Reason                 string       `json:"reason,omitempty"`
	Reservation            *Reservation `json:"reservation,omitempty"`
	Errors                 []string     `json:"errors,omitempty"`
	Warnings               []string     `json:"warnings,omitempty"`
	BusinessRuleViolations []string     `json:"businessRuleViolations,omitempty"`
	DataIntegrityIssues    []string     `json:"dataIntegrityIssues,omitempty"`
}
