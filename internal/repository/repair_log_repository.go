package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-service/internal/model"
)

type RepairLogRepository struct {
	db *gorm.DB
}

func NewRepairLogRepository(db *gorm.DB) *RepairLogRepository {
	return &RepairLogRepository{db: db}
}

func (r *RepairLogRepository) Create(ctx context.Context, log *model.RepairLog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}

func (r *RepairLogRepository) GetByID(ctx context.Context, id uint) (*model.RepairLog, error) {
	var log model.RepairLog
	err := r.db.WithContext(ctx).
		Preload("Technician.User").
		Preload("MaintenanceRequest").
		Where("id = ?", id).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *RepairLogRepository) Update(ctx context.Context, log *model.RepairLog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(log).Error
}

func (r *RepairLogRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.RepairLog{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type RepairLogListFilter struct {
	RequestID    *uint
	TechnicianID *uint
}

func (r *RepairLogRepository) List(ctx context.Context, filter RepairLogListFilter) ([]model.RepairLog, error) {
	var logs []model.RepairLog
	query := r.db.WithContext(ctx).Model(&model.RepairLog{}).
		Preload("Technician.User").
		Preload("MaintenanceRequest")

	if filter.RequestID != nil {
		query = query.Where("maintenance_request_id = ?", *filter.RequestID)
	}
	if filter.TechnicianID != nil {
		query = query.Where("technician_id = ?", *filter.TechnicianID)
	}

	if err := query.Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *RepairLogRepository) Summary(ctx context.Context) (model.RepairLogSummary, error) {
	var row struct {
		Total    int64
		AvgHours decimal.NullDecimal
		AvgCost  decimal.NullDecimal
		SumHours decimal.NullDecimal
		SumCost  decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.RepairLog{}).
		Select("COUNT(*) AS total, AVG(labor_hours) AS avg_hours, AVG(cost) AS avg_cost, SUM(labor_hours) AS sum_hours, SUM(cost) AS sum_cost").
		Scan(&row).Error
	if err != nil {
		return model.RepairLogSummary{}, err
	}

	return model.RepairLogSummary{
		TotalRepairLogs:   row.Total,
		AverageLaborHours: row.AvgHours.Decimal.Round(2),
		AverageCost:       row.AvgCost.Decimal.Round(2),
		TotalLaborHours:   row.SumHours.Decimal,
		TotalCost:         row.SumCost.Decimal,
	}, nil
}
