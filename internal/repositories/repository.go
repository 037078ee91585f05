package repositories

import (
	"pms/internal/database"
)

type Repository struct {
	Reservation      ReservationRepository
	StatusHistory    StatusHistoryRepository
	PropertySettings PropertySettingsRepository
}

func New(db database.DB, configCacheTTLMinutes int) Repository {
	return Repository{
		Reservation:      NewReservationRepository(),
		StatusHistory:    NewStatusHistoryRepository(),
		PropertySettings: NewPropertySettingsRepository(db, configCacheTTLMinutes),
	}
}
