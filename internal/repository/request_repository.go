package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-service/internal/model"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, request *model.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(request).Error
}

// LastCodeWithPrefix returns the highest request code starting with prefix,
// or an empty string when there is none.
func (r *RequestRepository) LastCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	var request model.MaintenanceRequest
	err := r.db.WithContext(ctx).
		Select("request_code").
		Where("request_code LIKE ?", prefix+"%").
		Order("request_code DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return request.RequestCode, nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id uint) (*model.MaintenanceRequest, error) {
	var request model.MaintenanceRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetForUpdate reads the request with a row lock. It must run inside a
// transaction.
func (r *RequestRepository) GetForUpdate(ctx context.Context, id uint) (*model.MaintenanceRequest, error) {
	var request model.MaintenanceRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetDetails loads the request with requester, equipment, technician and
// repair logs.
func (r *RequestRepository) GetDetails(ctx context.Context, id uint) (*model.MaintenanceRequest, error) {
	var request model.MaintenanceRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Equipment").
		Preload("AssignedTechnician.User").
		Preload("RepairLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}).
		Preload("RepairLogs.Technician.User").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) Update(ctx context.Context, request *model.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(request).Error
}

// Delete removes the request and its repair logs.
func (r *RequestRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.MaintenanceRequest
		if err := tx.Where("id = ?", id).First(&request).Error; err != nil {
			return err
		}
		if err := tx.Where("maintenance_request_id = ?", id).Delete(&model.RepairLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.MaintenanceRequest{}, id).Error
	})
}

// Visibility restricts a listing to requests filed by UserID or assigned to
// TechnicianID.
type Visibility struct {
	UserID       uint
	TechnicianID *uint
}

type RequestListFilter struct {
	RequesterID  *uint
	EquipmentID  *uint
	TechnicianID *uint
	Statuses     []model.RequestStatus
	Priorities   []model.Priority
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Visibility   *Visibility
	PreloadAll   bool
}

func (r *RequestRepository) List(ctx context.Context, filter RequestListFilter) ([]model.MaintenanceRequest, error) {
	var requests []model.MaintenanceRequest
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}), filter)

	if filter.PreloadAll {
		query = query.
			Preload("Requester").
			Preload("Equipment").
			Preload("AssignedTechnician.User")
	}

	if err := query.Order("created_at DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *RequestRepository) applyFilter(query *gorm.DB, filter RequestListFilter) *gorm.DB {
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.EquipmentID != nil {
		query = query.Where("equipment_id = ?", *filter.EquipmentID)
	}
	if filter.TechnicianID != nil {
		query = query.Where("assigned_technician_id = ?", *filter.TechnicianID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.Priorities) > 0 {
		query = query.Where("priority IN ?", filter.Priorities)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if v := filter.Visibility; v != nil {
		if v.TechnicianID != nil {
			query = query.Where("(requester_id = ? OR assigned_technician_id = ?)", v.UserID, *v.TechnicianID)
		} else {
			query = query.Where("requester_id = ?", v.UserID)
		}
	}
	return query
}

// StatusCounts returns request counts per status, optionally limited to one
// requester.
func (r *RequestRepository) StatusCounts(ctx context.Context, requesterID *uint) (map[model.RequestStatus]int64, error) {
	var rows []struct {
		Status model.RequestStatus
		Count  int64
	}
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}), RequestListFilter{RequesterID: requesterID})
	err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *RequestRepository) CountByPriority(ctx context.Context, requesterID *uint, priority model.Priority) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}), RequestListFilter{RequesterID: requesterID})
	err := query.Where("priority = ?", priority).Count(&count).Error
	return count, err
}

// CountInProgressOn counts IN_PROGRESS requests on the equipment other than
// exceptID.
func (r *RequestRepository) CountInProgressOn(ctx context.Context, equipmentID, exceptID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}).
		Where("equipment_id = ? AND id <> ? AND status = ?", equipmentID, exceptID, model.RequestStatusInProgress).
		Count(&count).Error
	return count, err
}

// CompletionSpans returns creation and completion times of completed
// requests that carry a completion timestamp.
func (r *RequestRepository) CompletionSpans(ctx context.Context, requesterID *uint) ([]model.CompletionSpan, error) {
	var requests []model.MaintenanceRequest
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}), RequestListFilter{
		RequesterID: requesterID,
		Statuses:    []model.RequestStatus{model.RequestStatusCompleted},
	})
	err := query.Select("created_at", "completed_at").Where("completed_at IS NOT NULL").Find(&requests).Error
	if err != nil {
		return nil, err
	}

	spans := make([]model.CompletionSpan, 0, len(requests))
	for _, req := range requests {
		spans = append(spans, model.CompletionSpan{CreatedAt: req.CreatedAt, CompletedAt: *req.CompletedAt})
	}
	return spans, nil
}
