package model

import (
	"time"

	"gorm.io/gorm"
)

type EquipmentStatus string

const (
	EquipmentStatusActive       EquipmentStatus = "ACTIVE"
	EquipmentStatusUnderRepair  EquipmentStatus = "UNDER_REPAIR"
	EquipmentStatusOutOfService EquipmentStatus = "OUT_OF_SERVICE"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentStatusActive, EquipmentStatusUnderRepair, EquipmentStatusOutOfService:
		return true
	default:
		return false
	}
}

type Equipment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	EquipmentCode string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"equipment_code"`
	Name          string          `gorm:"type:varchar(200);not null" json:"name"`
	Department    string          `gorm:"type:varchar(100);not null" json:"department"`
	Location      string          `gorm:"type:varchar(200);not null" json:"location"`
	Status        EquipmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PurchaseDate  *time.Time      `gorm:"type:date" json:"purchase_date"`
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	TotalMaintenanceRequests int64 `gorm:"-" json:"total_maintenance_requests"`
}

func (Equipment) TableName() string {
	return "equipment"
}

func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.Status == "" {
		e.Status = EquipmentStatusActive
	}
	return nil
}
