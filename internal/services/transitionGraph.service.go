package services

import (
	"fmt"

	. "pms/internal/models"
)

// transitionEdges is the full lifecycle graph. CHECKED_OUT and CANCELLED are
// terminal apart from the explicit undo/reactivate edges, and nothing may
// enter CONFIRMATION_PENDING after creation.
var transitionEdges = map[ReservationStatus][]ReservationStatus{
	StatusConfirmationPending: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusCheckinDue, StatusInHouse, StatusNoShow, StatusCancelled},
	StatusCheckinDue:          {StatusInHouse, StatusNoShow, StatusCancelled},
	StatusInHouse:             {StatusCheckoutDue, StatusCheckedOut, StatusConfirmed, StatusCancelled},
	StatusCheckoutDue:         {StatusCheckedOut},
	StatusCheckedOut:          {},
	StatusNoShow:              {StatusConfirmed},
	StatusCancelled:           {},
}

type transitionPair struct {
	From ReservationStatus
	To   ReservationStatus
}

// criticalTransitions are the edges that require elevated role or an explicit
// approval override. The undo and reactivate edges live here as ordinary
// graph edges flagged critical, nothing special-cased.
var criticalTransitions = map[transitionPair]string{
	{StatusConfirmed, StatusCancelled}: "Cancelling a confirmed reservation requires manager approval",
	{StatusInHouse, StatusCancelled}:   "Cancelling an in-house reservation requires manager approval",
	{StatusNoShow, StatusConfirmed}:    "Reactivating a no-show reservation requires manager approval",
	{StatusInHouse, StatusConfirmed}:   "Undoing a check-in requires manager approval",
}

type TransitionGraph struct{}

func NewTransitionGraph() *TransitionGraph {
	return &TransitionGraph{}
}

// AllowedNext returns the statuses reachable from the given status. Unknown
// statuses have no outgoing edges.
func (g *TransitionGraph) AllowedNext(status ReservationStatus) []ReservationStatus {
	next, ok := transitionEdges[status]
	if !ok {
		return nil
	}
	return next
}

// CanTransition reports whether the edge from current to proposed exists.
func (g *TransitionGraph) CanTransition(current, proposed ReservationStatus) bool {
	for _, next := range transitionEdges[current] {
		if next == proposed {
			return true
		}
	}
	return false
}

// IsCritical reports whether the edge is flagged critical and, if so, why.
func (g *TransitionGraph) IsCritical(current, proposed ReservationStatus) (bool, string) {
	reason, ok := criticalTransitions[transitionPair{current, proposed}]
	return ok, reason
}

// Validate is the basic validator: a pure check of the proposed edge against
// the graph. No side effects, no I/O, safe to call any number of times. An
// unknown target is a policy violation, not a crash.
func (g *TransitionGraph) Validate(current, proposed ReservationStatus) BasicValidation {
	if current == proposed {
		return BasicValidation{
			IsValid: false,
			Reason:  fmt.Sprintf("Reservation is already %s", current),
		}
	}

	if g.CanTransition(current, proposed) {
		return BasicValidation{IsValid: true}
	}

	return BasicValidation{
		IsValid: false,
		Reason:  fmt.Sprintf("Cannot transition from %s to %s", current, proposed),
	}
}
