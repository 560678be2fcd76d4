package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-service/internal/model"
)

type TechnicianRepository struct {
	db *gorm.DB
}

func NewTechnicianRepository(db *gorm.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

func (r *TechnicianRepository) Create(ctx context.Context, technician *model.Technician) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(technician).Error
}

func (r *TechnicianRepository) GetByID(ctx context.Context, id uint) (*model.Technician, error) {
	var technician model.Technician
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&technician).Error
	if err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *TechnicianRepository) GetByUserID(ctx context.Context, userID uint) (*model.Technician, error) {
	var technician model.Technician
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&technician).Error
	if err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *TechnicianRepository) ExistsForUser(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Technician{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *TechnicianRepository) EmployeeIDTaken(ctx context.Context, employeeID string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Technician{}).
		Where("employee_id = ? AND id <> ?", employeeID, exceptID).
		Count(&count).Error
	return count > 0, err
}

// UserIDs returns the ids of every user holding a technician profile.
func (r *TechnicianRepository) UserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Technician{}).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *TechnicianRepository) Update(ctx context.Context, technician *model.Technician) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(technician).Error
}

// Delete removes the technician and their repair logs. Requests assigned to
// them are kept and become unassigned.
func (r *TechnicianRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var technician model.Technician
		if err := tx.Where("id = ?", id).First(&technician).Error; err != nil {
			return err
		}
		return deleteTechnician(tx, id)
	})
}

func deleteTechnician(tx *gorm.DB, id uint) error {
	err := tx.Model(&model.MaintenanceRequest{}).
		Where("assigned_technician_id = ?", id).
		Update("assigned_technician_id", nil).Error
	if err != nil {
		return err
	}
	if err := tx.Where("technician_id = ?", id).Delete(&model.RepairLog{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Technician{}, id).Error
}

type TechnicianListFilter struct {
	IsAvailable *bool
	Expertise   *model.Expertise
}

func (r *TechnicianRepository) List(ctx context.Context, filter TechnicianListFilter) ([]model.Technician, error) {
	var technicians []model.Technician
	query := r.db.WithContext(ctx).Model(&model.Technician{}).Preload("User")

	if filter.IsAvailable != nil {
		query = query.Where("is_available = ?", *filter.IsAvailable)
	}
	if filter.Expertise != nil {
		query = query.Where("expertise = ?", *filter.Expertise)
	}

	if err := query.Order("id ASC").Find(&technicians).Error; err != nil {
		return nil, err
	}

	return technicians, nil
}

// ActiveJobCounts returns the number of open requests assigned to each
// technician id.
func (r *TechnicianRepository) ActiveJobCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		AssignedTechnicianID uint
		Count                int64
	}
	err := r.db.WithContext(ctx).Model(&model.MaintenanceRequest{}).
		Select("assigned_technician_id, COUNT(*) AS count").
		Where("assigned_technician_id IN ?", ids).
		Where("status IN ?", model.OpenStatuses).
		Group("assigned_technician_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AssignedTechnicianID] = row.Count
	}
	return counts, nil
}
