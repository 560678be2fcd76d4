package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type TechnicianService struct {
	store *repository.Store
}

func NewTechnicianService(store *repository.Store) *TechnicianService {
	return &TechnicianService{store: store}
}

type TechnicianInput struct {
	UserID      *uint
	EmployeeID  *string
	Expertise   *string
	Phone       *string
	IsAvailable *bool
}

func (s *TechnicianService) Create(ctx context.Context, input TechnicianInput) (*model.Technician, error) {
	technician := &model.Technician{
		Expertise:   model.ExpertiseGeneral,
		IsAvailable: true,
	}

	fields := fieldErrors{}
	if input.UserID == nil || *input.UserID == 0 {
		fields.add("user_id", "This field is required.")
	} else {
		if _, err := s.store.Users.GetByID(ctx, *input.UserID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			fields.add("user_id", "User does not exist.")
		} else {
			exists, err := s.store.Technicians.ExistsForUser(ctx, *input.UserID)
			if err != nil {
				return nil, err
			}
			if exists {
				fields.add("user_id", "technician with this user already exists.")
			}
		}
		technician.UserID = *input.UserID
	}
	if input.EmployeeID == nil {
		fields.add("employee_id", "This field is required.")
	}
	if err := s.apply(ctx, technician, input, fields); err != nil {
		return nil, err
	}

	if err := s.store.Technicians.Create(ctx, technician); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return s.Get(ctx, technician.ID)
}

func (s *TechnicianService) Get(ctx context.Context, id uint) (*model.Technician, error) {
	technician, err := s.store.Technicians.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := decorateTechnicians(ctx, s.store, []*model.Technician{technician}); err != nil {
		return nil, err
	}
	return technician, nil
}

func (s *TechnicianService) List(ctx context.Context, filter repository.TechnicianListFilter) ([]model.Technician, error) {
	technicians, err := s.store.Technicians.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := decorateTechnicians(ctx, s.store, pointers(technicians)); err != nil {
		return nil, err
	}
	return technicians, nil
}

// Update edits the profile. The linked user cannot be changed.
func (s *TechnicianService) Update(ctx context.Context, id uint, input TechnicianInput) (*model.Technician, error) {
	technician, err := s.store.Technicians.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	fields := fieldErrors{}
	if input.UserID != nil && *input.UserID != technician.UserID {
		fields.add("user_id", "The linked user cannot be changed.")
	}
	if err := s.apply(ctx, technician, input, fields); err != nil {
		return nil, err
	}

	if err := s.store.Technicians.Update(ctx, technician); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *TechnicianService) Delete(ctx context.Context, id uint) error {
	return mapNotFound(s.store.Technicians.Delete(ctx, id))
}

// AssignedJobs lists the technician's open requests.
func (s *TechnicianService) AssignedJobs(ctx context.Context, id uint) ([]model.MaintenanceRequest, error) {
	return s.requests(ctx, id, model.OpenStatuses)
}

// WorkHistory lists every repair log the technician wrote.
func (s *TechnicianService) WorkHistory(ctx context.Context, id uint) ([]model.RepairLog, error) {
	if _, err := s.store.Technicians.GetByID(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	return listRepairLogs(ctx, s.store, repository.RepairLogListFilter{TechnicianID: &id})
}

func (s *TechnicianService) requests(ctx context.Context, id uint, statuses []model.RequestStatus) ([]model.MaintenanceRequest, error) {
	if _, err := s.store.Technicians.GetByID(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	requests, err := s.store.Requests.List(ctx, repository.RequestListFilter{
		TechnicianID: &id,
		Statuses:     statuses,
		PreloadAll:   true,
	})
	if err != nil {
		return nil, err
	}
	if err := decorateRequests(ctx, s.store, pointers(requests)); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *TechnicianService) apply(ctx context.Context, technician *model.Technician, input TechnicianInput, fields fieldErrors) error {
	if input.EmployeeID != nil {
		employeeID := strings.TrimSpace(*input.EmployeeID)
		if employeeID == "" {
			fields.add("employee_id", "This field may not be blank.")
		} else {
			taken, err := s.store.Technicians.EmployeeIDTaken(ctx, employeeID, technician.ID)
			if err != nil {
				return err
			}
			if taken {
				fields.add("employee_id", "technician with this employee id already exists.")
			}
			technician.EmployeeID = employeeID
		}
	}
	if input.Expertise != nil {
		expertise := model.Expertise(*input.Expertise)
		if !expertise.Valid() {
			fields.add("expertise", "Invalid expertise.")
		} else {
			technician.Expertise = expertise
		}
	}
	if input.Phone != nil {
		technician.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.IsAvailable != nil {
		technician.IsAvailable = *input.IsAvailable
	}
	return fields.err()
}
