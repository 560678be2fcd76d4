package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RepairLog struct {
	ID                   uint                `gorm:"primaryKey" json:"id"`
	MaintenanceRequestID uint                `gorm:"not null;index" json:"maintenance_request_id"`
	MaintenanceRequest   *MaintenanceRequest `json:"maintenance_request,omitempty"`
	TechnicianID         uint                `gorm:"not null;index" json:"technician_id"`
	Technician           *Technician         `gorm:"constraint:OnDelete:CASCADE" json:"technician,omitempty"`
	Description          string              `gorm:"type:text;not null" json:"description"`
	PartsUsed            string              `gorm:"type:text" json:"parts_used"`
	LaborHours           decimal.Decimal     `gorm:"type:numeric(5,2);not null" json:"labor_hours"`
	Cost                 decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"cost"`
	StartedAt            time.Time           `gorm:"not null" json:"started_at"`
	CompletedAt          *time.Time          `json:"completed_at"`
	Notes                string              `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time           `gorm:"autoCreateTime" json:"created_at"`

	DurationHours *float64 `gorm:"-" json:"duration_hours"`
}

func (RepairLog) TableName() string {
	return "repair_logs"
}

func (l *RepairLog) AfterFind(tx *gorm.DB) error {
	l.DurationHours = l.Duration()
	return nil
}

// Duration is the wall-clock repair time in hours, nil while the repair is open.
func (l *RepairLog) Duration() *float64 {
	if l.CompletedAt == nil || l.StartedAt.IsZero() {
		return nil
	}
	hours := RoundHours(l.CompletedAt.Sub(l.StartedAt).Hours())
	return &hours
}

// RoundHours rounds to two decimal places.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
