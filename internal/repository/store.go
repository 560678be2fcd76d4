package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle so a
// service can run several of them inside a single transaction.
type Store struct {
	db *gorm.DB

	Users       *UserRepository
	Equipment   *EquipmentRepository
	Technicians *TechnicianRepository
	Requests    *RequestRepository
	RepairLogs  *RepairLogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Equipment:   NewEquipmentRepository(db),
		Technicians: NewTechnicianRepository(db),
		Requests:    NewRequestRepository(db),
		RepairLogs:  NewRepairLogRepository(db),
	}
}

// Transaction runs fn with a Store bound to one transaction. Returning an
// error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
