package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-service/internal/model"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(ctx context.Context, equipment *model.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment).Error
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id uint) (*model.Equipment, error) {
	var equipment model.Equipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&equipment).Error
	if err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *EquipmentRepository) CodeTaken(ctx context.Context, code string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("equipment_code = ? AND id <> ?", code, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *EquipmentRepository) Update(ctx context.Context, equipment *model.Equipment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(equipment).Error
}

func (r *EquipmentRepository) UpdateStatus(ctx context.Context, id uint, status model.EquipmentStatus) error {
	return r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete removes the equipment together with its requests and their logs.
func (r *EquipmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var equipment model.Equipment
		if err := tx.Where("id = ?", id).First(&equipment).Error; err != nil {
			return err
		}

		requests := tx.Model(&model.MaintenanceRequest{}).Select("id").Where("equipment_id = ?", id)
		if err := tx.Where("maintenance_request_id IN (?)", requests).Delete(&model.RepairLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("equipment_id = ?", id).Delete(&model.MaintenanceRequest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Equipment{}, id).Error
	})
}

type EquipmentListFilter struct {
	Status     *model.EquipmentStatus
	Department *string
}

func (r *EquipmentRepository) List(ctx context.Context, filter EquipmentListFilter) ([]model.Equipment, error) {
	var equipment []model.Equipment
	query := r.db.WithContext(ctx).Model(&model.Equipment{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Department != nil {
		query = query.Where("LOWER(department) LIKE ?", "%"+lower(*filter.Department)+"%")
	}

	if err := query.Order("created_at DESC").Order("id DESC").Find(&equipment).Error; err != nil {
		return nil, err
	}

	return equipment, nil
}

// RequestCounts returns the number of maintenance requests per equipment id.
func (r *EquipmentRepository) RequestCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		EquipmentID uint
		Count       int64
	}
	err := r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}).
		Select("equipment_id, COUNT(*) AS count").
		Where("equipment_id IN ?", ids).
		Group("equipment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.EquipmentID] = row.Count
	}
	return counts, nil
}

func (r *EquipmentRepository) StatusCounts(ctx context.Context) (map[model.EquipmentStatus]int64, error) {
	var rows []struct {
		Status model.EquipmentStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.EquipmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
