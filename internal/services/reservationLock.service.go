package services

import (
	"context"
	"errors"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// ErrLockTimeout is returned when the advisory lock could not be acquired
// within the configured timeout. The coordinator maps it to a Conflict
// outcome rather than blocking the caller indefinitely.
var ErrLockTimeout = errors.New("reservation lock acquisition timed out")

type lockEntry struct {
	slot chan struct{}
	refs int
}

// ReservationLockService serializes transitions on the same reservation while
// letting different reservations proceed in parallel. Each reservation gets a
// one-slot semaphore, created on first use and dropped when the last holder
// releases it.
type ReservationLockService struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]*lockEntry
	timeout time.Duration
	log     logger.Logger
}

func NewReservationLockService(timeout time.Duration) *ReservationLockService {
	return &ReservationLockService{
		locks:   make(map[uuid.UUID]*lockEntry),
		timeout: timeout,
		log:     logger.New("reservationLockService"),
	}
}

// Acquire takes the advisory lock for the reservation, waiting at most the
// configured timeout. The returned release function must be called exactly
// once.
func (s *ReservationLockService) Acquire(
	ctx context.Context,
	reservationID uuid.UUID,
) (func(), error) {
	log := s.log.Function("Acquire")

	s.mu.Lock()
	entry, ok := s.locks[reservationID]
	if !ok {
		entry = &lockEntry{slot: make(chan struct{}, 1)}
		s.locks[reservationID] = entry
	}
	entry.refs++
	s.mu.Unlock()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case entry.slot <- struct{}{}:
		return func() {
			<-entry.slot
			s.release(reservationID, entry)
		}, nil
	case <-timer.C:
		s.release(reservationID, entry)
		log.Warn("lock acquisition timed out", "reservationID", reservationID, "timeout", s.timeout)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		s.release(reservationID, entry)
		return nil, ctx.Err()
	}
}

func (s *ReservationLockService) release(reservationID uuid.UUID, entry *lockEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(s.locks, reservationID)
	}
}

// ActiveLocks returns the number of reservations currently holding or waiting
// on a lock. Used by health reporting.
func (s *ReservationLockService) ActiveLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
