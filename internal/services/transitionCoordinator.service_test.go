package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"pms/internal/database"
	. "pms/internal/models"
	"pms/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fakeReservationRepo is an in-memory ReservationRepository. The guarded
// update honors the same status-guard contract as the real repository.
type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*Reservation
	updates      []repositories.StatusUpdate

	// forceGuardMiss makes the next guarded update report zero rows.
	forceGuardMiss bool

	// staleNoShowCandidates are returned by the no-show candidate query on
	// top of the status matches, simulating rows whose status moved on after
	// they were selected.
	staleNoShowCandidates []*Reservation
}

func newFakeReservationRepo(reservations ...*Reservation) *fakeReservationRepo {
	repo := &fakeReservationRepo{reservations: make(map[uuid.UUID]*Reservation)}
	for _, reservation := range reservations {
		repo.reservations[reservation.ID] = reservation
	}
	return repo
}

func (f *fakeReservationRepo) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id, propertyID uuid.UUID,
) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reservation, ok := f.reservations[id]
	if !ok || reservation.PropertyID != propertyID {
		return nil, repositories.ErrReservationNotFound
	}
	copied := *reservation
	return &copied, nil
}

func (f *fakeReservationRepo) UpdateStatusGuarded(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	update repositories.StatusUpdate,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forceGuardMiss {
		f.forceGuardMiss = false
		return false, nil
	}

	reservation, ok := f.reservations[id]
	if !ok || reservation.Status != update.Guard {
		return false, nil
	}

	reservation.Status = update.NewStatus
	reservation.StatusChangeReason = update.Reason
	reservation.StatusUpdatedBy = update.UpdatedBy
	updatedAt := update.UpdatedAt
	reservation.StatusUpdatedAt = &updatedAt
	if update.CheckedInAt != nil {
		reservation.CheckedInAt = update.CheckedInAt
	}
	if update.CheckedOutAt != nil {
		reservation.CheckedOutAt = update.CheckedOutAt
	}
	f.updates = append(f.updates, update)
	return true, nil
}

func (f *fakeReservationRepo) FindNoShowCandidates(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	cutoff, lookbackStart time.Time,
) ([]*Reservation, error) {
	matches := f.findByStatus(propertyID, StatusConfirmed, StatusCheckinDue)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reservation := range f.staleNoShowCandidates {
		copied := *reservation
		matches = append(matches, &copied)
	}
	return matches, nil
}

func (f *fakeReservationRepo) FindLateCheckouts(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	cutoff, lookbackStart time.Time,
) ([]*Reservation, error) {
	return f.findByStatus(propertyID, StatusInHouse), nil
}

func (f *fakeReservationRepo) FindExpiredConfirmationPending(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	createdBefore time.Time,
) ([]*Reservation, error) {
	return f.findByStatus(propertyID, StatusConfirmationPending), nil
}

func (f *fakeReservationRepo) FindDayRollCandidates(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	dayStart, dayEnd time.Time,
) ([]*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []*Reservation
	for _, reservation := range f.reservations {
		if reservation.PropertyID == propertyID {
			copied := *reservation
			matches = append(matches, &copied)
		}
	}
	return matches, nil
}

func (f *fakeReservationRepo) findByStatus(
	propertyID uuid.UUID,
	statuses ...ReservationStatus,
) []*Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []*Reservation
	for _, reservation := range f.reservations {
		if reservation.PropertyID != propertyID {
			continue
		}
		for _, status := range statuses {
			if reservation.Status == status {
				copied := *reservation
				matches = append(matches, &copied)
				break
			}
		}
	}
	return matches
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*StatusHistoryEntry
}

func (f *fakeHistoryRepo) Record(ctx context.Context, tx *gorm.DB, entry *StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) History(
	ctx context.Context,
	tx *gorm.DB,
	reservationID uuid.UUID,
	limit int,
) ([]*StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var entries []*StatusHistoryEntry
	for i := len(f.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if f.entries[i].ReservationID == reservationID {
			entries = append(entries, f.entries[i])
		}
	}
	return entries, nil
}

func (f *fakeHistoryRepo) ListByProperty(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	limit int,
) ([]*StatusHistoryEntry, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) PruneOlderThan(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	cutoff time.Time,
) (int64, error) {
	return 0, nil
}

type statusChange struct {
	reservationID        uuid.UUID
	oldStatus, newStatus string
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []statusChange
}

func (f *fakeNotifier) PublishStatusChange(
	reservationID uuid.UUID,
	oldStatus, newStatus, reason string,
	propertyID, organizationID uuid.UUID,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, statusChange{
		reservationID: reservationID,
		oldStatus:     oldStatus,
		newStatus:     newStatus,
	})
}

type coordinatorFixture struct {
	coordinator  *TransitionCoordinatorService
	reservations *fakeReservationRepo
	history      *fakeHistoryRepo
	notifier     *fakeNotifier
	clock        fixedClock
}

// newCoordinatorFixture wires a coordinator over in-memory repositories. Each
// Transition call runs one transaction, so the sqlmock expects one
// begin/commit pair per expected call.
func newCoordinatorFixture(
	t *testing.T,
	transactionCount int,
	reservations ...*Reservation,
) *coordinatorFixture {
	gormDB, mock := setupTestDB(t)
	for range transactionCount {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	clock := fixedClock{now: time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)}
	graph := NewTransitionGraph()
	reservationRepo := newFakeReservationRepo(reservations...)
	historyRepo := &fakeHistoryRepo{}
	notifier := &fakeNotifier{}

	coordinator := NewTransitionCoordinatorService(
		graph,
		NewRuleEngineService(graph, 4, clock),
		NewReservationLockService(time.Second),
		reservationRepo,
		historyRepo,
		NewTransactionService(database.DB{SQL: gormDB}),
		notifier,
		clock,
	)

	return &coordinatorFixture{
		coordinator:  coordinator,
		reservations: reservationRepo,
		history:      historyRepo,
		notifier:     notifier,
		clock:        clock,
	}
}

func testReservation(status ReservationStatus) *Reservation {
	roomID := uuid.New()
	reservation := &Reservation{
		PropertyID:     uuid.New(),
		OrganizationID: uuid.New(),
		GuestName:      "Test Guest",
		RoomID:         &roomID,
		RoomNumber:     "101",
		PartySize:      2,
		CheckIn:        time.Date(2025, 8, 15, 15, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2025, 8, 17, 11, 0, 0, 0, time.UTC),
		Status:         status,
		PaymentStatus:  PaymentPaid,
		PaidAmount:     20000,
		DepositAmount:  10000,
	}
	reservation.ID = uuid.New()
	return reservation
}

func TestCoordinator_SuccessfulTransition(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 1, reservation)
	userID := uuid.New()

	result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusInHouse,
		Reason:        "Guest arrived",
		ActingUserID:  &userID,
		ActingRole:    RoleFrontDesk,
	})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.NotNil(t, result.Reservation)
	assert.Equal(t, StatusInHouse, result.Reservation.Status)
	assert.NotNil(t, result.Reservation.CheckedInAt)

	// Exactly one audit entry, carrying the prior status.
	assert.Len(t, fixture.history.entries, 1)
	entry := fixture.history.entries[0]
	assert.Equal(t, reservation.ID, entry.ReservationID)
	assert.NotNil(t, entry.PreviousStatus)
	assert.Equal(t, StatusConfirmed, *entry.PreviousStatus)
	assert.Equal(t, StatusInHouse, entry.NewStatus)
	assert.Equal(t, "Guest arrived", entry.ChangeReason)
	assert.False(t, entry.IsAutomatic)

	assert.Len(t, fixture.notifier.changes, 1)
	assert.Equal(t, "CONFIRMED", fixture.notifier.changes[0].oldStatus)
	assert.Equal(t, "IN_HOUSE", fixture.notifier.changes[0].newStatus)
}

func TestCoordinator_InvalidTransitionWritesNothing(t *testing.T) {
	reservation := testReservation(StatusCheckedOut)
	fixture := newCoordinatorFixture(t, 1, reservation)

	result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusInHouse,
		ActingRole:    RoleFrontDesk,
	})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeInvalidTransition, result.Outcome)
	assert.Equal(t, "Cannot transition from CHECKED_OUT to IN_HOUSE", result.Reason)

	assert.Empty(t, fixture.reservations.updates, "no write on a rejected edge")
	assert.Empty(t, fixture.history.entries, "no audit entry on a rejected edge")
	assert.Empty(t, fixture.notifier.changes)
}

func TestCoordinator_ValidationFailedBlocksWrite(t *testing.T) {
	reservation := testReservation(StatusConfirmationPending)
	reservation.PaidAmount = 0
	reservation.AmountCaptured = 0
	fixture := newCoordinatorFixture(t, 1, reservation)

	result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusConfirmed,
		ActingRole:    RolePropertyMgr,
	})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValidationFailed, result.Outcome)
	assert.NotEmpty(t, result.Errors)
	assert.Contains(t, result.BusinessRuleViolations, "PAYMENT_SUFFICIENCY")

	assert.Empty(t, fixture.reservations.updates)
	assert.Empty(t, fixture.history.entries)
}

func TestCoordinator_ApprovalRequired(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 2, reservation)

	request := TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusCancelled,
		Reason:        "Guest cancelled",
		ActingRole:    RoleFrontDesk,
	}

	result, err := fixture.coordinator.Transition(context.Background(), request)
	assert.NoError(t, err)
	assert.Equal(t, OutcomeApprovalRequired, result.Outcome)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, fixture.history.entries)

	// Re-invocation after the external approval workflow signs off.
	request.ApprovalOverride = true
	result, err = fixture.coordinator.Transition(context.Background(), request)
	assert.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Len(t, fixture.history.entries, 1)
}

func TestCoordinator_ManagerPassesApprovalGate(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 1, reservation)

	result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusCancelled,
		Reason:        "Overbooking resolution",
		ActingRole:    RolePropertyMgr,
	})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
}

func TestCoordinator_GuardMissIsConflict(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 1, reservation)
	fixture.reservations.forceGuardMiss = true

	result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusInHouse,
		ActingRole:    RoleFrontDesk,
	})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeConflict, result.Outcome)
	assert.Empty(t, fixture.history.entries, "no audit entry when the guard misses")
	assert.Empty(t, fixture.notifier.changes)
}

func TestCoordinator_NotFound(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 2, reservation)

	t.Run("unknown reservation", func(t *testing.T) {
		result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
			ReservationID: uuid.New(),
			PropertyID:    reservation.PropertyID,
			NewStatus:     StatusInHouse,
			ActingRole:    RoleFrontDesk,
		})
		assert.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, result.Outcome)
	})

	t.Run("wrong property scopes to not found", func(t *testing.T) {
		result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
			ReservationID: reservation.ID,
			PropertyID:    uuid.New(),
			NewStatus:     StatusInHouse,
			ActingRole:    RoleFrontDesk,
		})
		assert.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, result.Outcome)
	})
}

func TestCoordinator_LockTimeoutIsConflict(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 0, reservation)

	// Hold the lock externally so the coordinator's acquire times out.
	locks := NewReservationLockService(20 * time.Millisecond)
	fixture.coordinator.locks = locks
	release, err := locks.Acquire(context.Background(), reservation.ID)
	assert.NoError(t, err)
	defer release()

	result, err := fixture.coordinator.Transition(context.Background(), TransitionRequest{
		ReservationID: reservation.ID,
		PropertyID:    reservation.PropertyID,
		NewStatus:     StatusInHouse,
		ActingRole:    RoleFrontDesk,
	})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeConflict, result.Outcome)
	assert.Empty(t, fixture.history.entries)
}

func TestCoordinator_HistoryLimitClamped(t *testing.T) {
	reservation := testReservation(StatusConfirmed)
	fixture := newCoordinatorFixture(t, 3, reservation)

	for _, entry := range []*StatusHistoryEntry{
		{ReservationID: reservation.ID, NewStatus: StatusConfirmed},
		{ReservationID: reservation.ID, NewStatus: StatusInHouse},
	} {
		assert.NoError(t, fixture.history.Record(context.Background(), nil, entry))
	}

	entries, err := fixture.coordinator.History(context.Background(), reservation.ID, 0)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = fixture.coordinator.History(context.Background(), reservation.ID, 1)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = fixture.coordinator.History(context.Background(), reservation.ID, 500)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCoordinator_ConcurrentTransitionsKeepAuditLinear(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	// Transactions from competing goroutines interleave freely; only the
	// total count matters.
	mock.MatchExpectationsInOrder(false)

	targets := []ReservationStatus{
		StatusInHouse, StatusCheckedOut, StatusInHouse, StatusCheckedOut,
		StatusInHouse, StatusCheckedOut, StatusInHouse, StatusCheckedOut,
	}
	for range targets {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	reservation := testReservation(StatusConfirmed)
	clock := fixedClock{now: time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)}
	graph := NewTransitionGraph()
	reservationRepo := newFakeReservationRepo(reservation)
	historyRepo := &fakeHistoryRepo{}

	coordinator := NewTransitionCoordinatorService(
		graph,
		NewRuleEngineService(graph, 4, clock),
		NewReservationLockService(5*time.Second),
		reservationRepo,
		historyRepo,
		NewTransactionService(database.DB{SQL: gormDB}),
		&fakeNotifier{},
		clock,
	)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := coordinator.Transition(context.Background(), TransitionRequest{
				ReservationID: reservation.ID,
				PropertyID:    reservation.PropertyID,
				NewStatus:     target,
				Reason:        "Concurrent lifecycle push",
				ActingRole:    RolePropertyMgr,
			})
			assert.NoError(t, err)
			if result.Outcome == OutcomeSuccess {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	entries := historyRepo.entries
	assert.NotEmpty(t, entries)
	assert.Len(t, entries, successes, "every success appends exactly one audit entry")

	assert.NotNil(t, entries[0].PreviousStatus)
	assert.Equal(t, StatusConfirmed, *entries[0].PreviousStatus)

	// The trail must read as a single chain: each entry picks up where the
	// last one left off, and no two entries claim the same starting status.
	seen := map[ReservationStatus]bool{}
	for i, entry := range entries {
		assert.NotNil(t, entry.PreviousStatus)
		assert.False(t, seen[*entry.PreviousStatus],
			"two transitions recorded the same previous status")
		seen[*entry.PreviousStatus] = true
		if i > 0 {
			assert.Equal(t, entries[i-1].NewStatus, *entry.PreviousStatus)
		}
	}

	current, err := reservationRepo.GetByID(
		context.Background(), nil, reservation.ID, reservation.PropertyID,
	)
	assert.NoError(t, err)
	assert.Equal(t, entries[len(entries)-1].NewStatus, current.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
