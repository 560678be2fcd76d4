package service

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"maintenance-service/internal/cache"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/storage"
	"maintenance-service/internal/testfixtures"
)

type env struct {
	ctx   context.Context
	db    *gorm.DB
	store *repository.Store
	clock *testfixtures.Clock
	files *storage.LocalStorage

	users       *UserService
	equipment   *EquipmentService
	technicians *TechnicianService
	requests    *RequestService
	repairLogs  *RepairLogService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testfixtures.NewDB(t)
	store := repository.NewStore(db)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	files, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("media root: %v", err)
	}
	stats := cache.Noop{}

	return &env{
		ctx:         context.Background(),
		db:          db,
		store:       store,
		clock:       clock,
		files:       files,
		users:       NewUserService(store, stats),
		equipment:   NewEquipmentService(store, stats),
		technicians: NewTechnicianService(store),
		requests:    NewRequestService(store, files, stats, clock.Now),
		repairLogs:  NewRepairLogService(store),
	}
}

func adminOf(u *model.User) model.Principal {
	return model.Principal{UserID: u.ID, Username: u.Username, Role: model.RoleAdmin, Superuser: u.IsSuperuser}
}

func technicianOf(t *model.Technician) model.Principal {
	return model.Principal{UserID: t.UserID, Role: model.RoleTechnician}
}

func userOf(u *model.User) model.Principal {
	return model.Principal{UserID: u.ID, Username: u.Username, Role: model.RoleUser}
}

func ptr[T any](v T) *T {
	return &v
}
