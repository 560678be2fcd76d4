package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

var (
	maxLaborHours = decimal.RequireFromString("999.99")
	maxCost       = decimal.RequireFromString("99999999.99")
)

type RepairLogService struct {
	store *repository.Store
}

func NewRepairLogService(store *repository.Store) *RepairLogService {
	return &RepairLogService{store: store}
}

type RepairLogInput struct {
	MaintenanceRequestID *uint
	TechnicianID         *uint
	Description          *string
	PartsUsed            *string
	LaborHours           *decimal.Decimal
	Cost                 *decimal.Decimal
	StartedAt            *time.Time
	CompletedAt          *time.Time
	Notes                *string
}

func (s *RepairLogService) Create(ctx context.Context, input RepairLogInput) (*model.RepairLog, error) {
	log := &model.RepairLog{Cost: decimal.Zero}

	fields := fieldErrors{}
	if input.MaintenanceRequestID == nil {
		fields.add("maintenance_request_id", "This field is required.")
	}
	if input.TechnicianID == nil {
		fields.add("technician_id", "This field is required.")
	}
	if input.Description == nil {
		fields.add("description", "This field is required.")
	}
	if input.LaborHours == nil {
		fields.add("labor_hours", "This field is required.")
	}
	if input.StartedAt == nil {
		fields.add("started_at", "This field is required.")
	}
	if err := s.apply(ctx, log, input, fields); err != nil {
		return nil, err
	}

	if err := s.store.RepairLogs.Create(ctx, log); err != nil {
		return nil, err
	}
	return s.Get(ctx, log.ID)
}

func (s *RepairLogService) Get(ctx context.Context, id uint) (*model.RepairLog, error) {
	log, err := s.store.RepairLogs.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := decorateTechnicians(ctx, s.store, []*model.Technician{log.Technician}); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *RepairLogService) List(ctx context.Context, filter repository.RepairLogListFilter) ([]model.RepairLog, error) {
	return listRepairLogs(ctx, s.store, filter)
}

func listRepairLogs(ctx context.Context, store *repository.Store, filter repository.RepairLogListFilter) ([]model.RepairLog, error) {
	logs, err := store.RepairLogs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	technicians := make([]*model.Technician, 0, len(logs))
	for i := range logs {
		technicians = append(technicians, logs[i].Technician)
	}
	if err := decorateTechnicians(ctx, store, technicians); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *RepairLogService) Update(ctx context.Context, id uint, input RepairLogInput) (*model.RepairLog, error) {
	log, err := s.store.RepairLogs.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	log.Technician = nil
	log.MaintenanceRequest = nil

	if err := s.apply(ctx, log, input, fieldErrors{}); err != nil {
		return nil, err
	}
	if err := s.store.RepairLogs.Update(ctx, log); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *RepairLogService) Delete(ctx context.Context, id uint) error {
	return mapNotFound(s.store.RepairLogs.Delete(ctx, id))
}

func (s *RepairLogService) Summary(ctx context.Context, principal model.Principal) (*model.RepairLogSummary, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	summary, err := s.store.RepairLogs.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *RepairLogService) apply(ctx context.Context, log *model.RepairLog, input RepairLogInput, fields fieldErrors) error {
	if input.MaintenanceRequestID != nil {
		if _, err := s.store.Requests.GetByID(ctx, *input.MaintenanceRequestID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			fields.add("maintenance_request_id", "Maintenance request does not exist.")
		}
		log.MaintenanceRequestID = *input.MaintenanceRequestID
	}
	if input.TechnicianID != nil {
		if _, err := s.store.Technicians.GetByID(ctx, *input.TechnicianID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			fields.add("technician_id", "Technician does not exist.")
		}
		log.TechnicianID = *input.TechnicianID
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			fields.add("description", "This field may not be blank.")
		}
		log.Description = description
	}
	if input.PartsUsed != nil {
		log.PartsUsed = *input.PartsUsed
	}
	if input.LaborHours != nil {
		if msg := checkAmount(*input.LaborHours, maxLaborHours); msg != "" {
			fields.add("labor_hours", msg)
		}
		log.LaborHours = *input.LaborHours
	}
	if input.Cost != nil {
		if msg := checkAmount(*input.Cost, maxCost); msg != "" {
			fields.add("cost", msg)
		}
		log.Cost = *input.Cost
	}
	if input.StartedAt != nil {
		log.StartedAt = input.StartedAt.UTC()
	}
	if input.CompletedAt != nil {
		completed := input.CompletedAt.UTC()
		log.CompletedAt = &completed
	}
	if input.Notes != nil {
		log.Notes = *input.Notes
	}

	if log.CompletedAt != nil && !log.StartedAt.IsZero() && log.CompletedAt.Before(log.StartedAt) {
		fields.add("completed_at", "Completion time cannot precede the start time.")
	}
	return fields.err()
}

// checkAmount validates a non-negative amount with at most two decimal
// places.
func checkAmount(d, limit decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return "Ensure this value is greater than or equal to 0."
	case !d.Equal(d.Round(2)):
		return "Ensure that there are no more than 2 decimal places."
	case d.GreaterThan(limit):
		return "Ensure this value is less than or equal to " + limit.String() + "."
	}
	return ""
}
