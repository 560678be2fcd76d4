package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type EquipmentService struct {
	store *repository.Store
	stats StatsCache
}

func NewEquipmentService(store *repository.Store, stats StatsCache) *EquipmentService {
	return &EquipmentService{
		store: store,
		stats: stats,
	}
}

type EquipmentInput struct {
	EquipmentCode *string
	Name          *string
	Department    *string
	Location      *string
	Status        *string
	PurchaseDate  *time.Time
	Description   *string
}

func (s *EquipmentService) Create(ctx context.Context, principal model.Principal, input EquipmentInput) (*model.Equipment, error) {
	equipment := &model.Equipment{Status: model.EquipmentStatusActive}
	if err := s.apply(ctx, principal, equipment, input, true); err != nil {
		return nil, err
	}

	if err := s.store.Equipment.Create(ctx, equipment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidField("equipment_code", "equipment with this equipment code already exists.")
		}
		return nil, err
	}
	return s.Get(ctx, equipment.ID)
}

func (s *EquipmentService) Get(ctx context.Context, id uint) (*model.Equipment, error) {
	equipment, err := s.store.Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := decorateEquipment(ctx, s.store, []*model.Equipment{equipment}); err != nil {
		return nil, err
	}
	return equipment, nil
}

func (s *EquipmentService) List(ctx context.Context, filter repository.EquipmentListFilter) ([]model.Equipment, error) {
	equipment, err := s.store.Equipment.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := decorateEquipment(ctx, s.store, pointers(equipment)); err != nil {
		return nil, err
	}
	return equipment, nil
}

// Update edits the equipment. The status field is honoured for admins only;
// otherwise status follows request transitions.
func (s *EquipmentService) Update(ctx context.Context, principal model.Principal, id uint, input EquipmentInput) (*model.Equipment, error) {
	equipment, err := s.store.Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := s.apply(ctx, principal, equipment, input, false); err != nil {
		return nil, err
	}

	if err := s.store.Equipment.Update(ctx, equipment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidField("equipment_code", "equipment with this equipment code already exists.")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *EquipmentService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Equipment.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	invalidateStats(ctx, s.stats)
	return nil
}

// MaintenanceHistory lists every request filed against the equipment, newest
// first.
func (s *EquipmentService) MaintenanceHistory(ctx context.Context, id uint) ([]model.MaintenanceRequest, error) {
	if _, err := s.store.Equipment.GetByID(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	requests, err := s.store.Requests.List(ctx, repository.RequestListFilter{EquipmentID: &id, PreloadAll: true})
	if err != nil {
		return nil, err
	}
	if err := decorateRequests(ctx, s.store, pointers(requests)); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *EquipmentService) Statistics(ctx context.Context) (*model.EquipmentStatistics, error) {
	counts, err := s.store.Equipment.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	stats := &model.EquipmentStatistics{
		Active:       counts[model.EquipmentStatusActive],
		UnderRepair:  counts[model.EquipmentStatusUnderRepair],
		OutOfService: counts[model.EquipmentStatusOutOfService],
	}
	for _, n := range counts {
		stats.TotalEquipment += n
	}
	return stats, nil
}

func (s *EquipmentService) apply(ctx context.Context, principal model.Principal, equipment *model.Equipment, input EquipmentInput, creating bool) error {
	fields := fieldErrors{}

	required := func(field string, value *string, target *string) {
		if value == nil {
			if creating {
				fields.add(field, "This field is required.")
			}
			return
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			fields.add(field, "This field may not be blank.")
			return
		}
		*target = v
	}
	required("equipment_code", input.EquipmentCode, &equipment.EquipmentCode)
	required("name", input.Name, &equipment.Name)
	required("department", input.Department, &equipment.Department)
	required("location", input.Location, &equipment.Location)

	if input.Status != nil && principal.IsAdmin() {
		status := model.EquipmentStatus(*input.Status)
		if !status.Valid() {
			fields.add("status", "Invalid equipment status.")
		} else {
			equipment.Status = status
		}
	}
	if input.PurchaseDate != nil {
		date := input.PurchaseDate.UTC().Truncate(24 * time.Hour)
		equipment.PurchaseDate = &date
	}
	if input.Description != nil {
		equipment.Description = *input.Description
	}

	if err := fields.err(); err != nil {
		return err
	}

	if input.EquipmentCode != nil {
		taken, err := s.store.Equipment.CodeTaken(ctx, equipment.EquipmentCode, equipment.ID)
		if err != nil {
			return err
		}
		if taken {
			return invalidField("equipment_code", "equipment with this equipment code already exists.")
		}
	}
	return nil
}
