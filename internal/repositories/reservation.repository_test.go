package repositories_test

import (
	"context"
	"testing"
	"time"

	"pms/internal/database"
	"pms/internal/models"
	"pms/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupRepoTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	// Matches the production connection: single statements run outside an
	// implicit transaction, so guarded updates are a single Exec.
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestReservationRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupRepoTestDB(t)
	repo := repositories.NewReservationRepository()

	mock.ExpectQuery(`SELECT .* FROM "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	reservation, err := repo.GetByID(context.Background(), gormDB, uuid.New(), uuid.New())

	assert.Nil(t, reservation)
	assert.ErrorIs(t, err, repositories.ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_UpdateStatusGuarded(t *testing.T) {
	t.Run("guard hit updates one row", func(t *testing.T) {
		gormDB, mock := setupRepoTestDB(t)
		repo := repositories.NewReservationRepository()

		mock.ExpectExec(`UPDATE "reservations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		updated, err := repo.UpdateStatusGuarded(
			context.Background(), gormDB, uuid.New(), repositories.StatusUpdate{
				Guard:     models.StatusConfirmed,
				NewStatus: models.StatusInHouse,
				Reason:    "Guest arrived",
				UpdatedAt: time.Now().UTC(),
			},
		)

		assert.NoError(t, err)
		assert.True(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard miss reports false without error", func(t *testing.T) {
		gormDB, mock := setupRepoTestDB(t)
		repo := repositories.NewReservationRepository()

		mock.ExpectExec(`UPDATE "reservations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		updated, err := repo.UpdateStatusGuarded(
			context.Background(), gormDB, uuid.New(), repositories.StatusUpdate{
				Guard:     models.StatusConfirmed,
				NewStatus: models.StatusInHouse,
				UpdatedAt: time.Now().UTC(),
			},
		)

		assert.NoError(t, err)
		assert.False(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPropertySettingsRepository_GetAutomationConfig_NotFound(t *testing.T) {
	gormDB, mock := setupRepoTestDB(t)
	// No cache client wired; the lookup goes straight to the database.
	repo := repositories.NewPropertySettingsRepository(database.DB{SQL: gormDB}, 10)

	mock.ExpectQuery(`SELECT .* FROM "property_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	config, err := repo.GetAutomationConfig(context.Background(), gormDB, uuid.New())

	assert.Nil(t, config)
	assert.ErrorIs(t, err, repositories.ErrSettingsNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
