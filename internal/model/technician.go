package model

import "time"

type Expertise string

const (
	ExpertiseElectrical Expertise = "ELECTRICAL"
	ExpertiseMechanical Expertise = "MECHANICAL"
	ExpertiseIT         Expertise = "IT"
	ExpertisePlumbing   Expertise = "PLUMBING"
	ExpertiseGeneral    Expertise = "GENERAL"
)

func (e Expertise) Valid() bool {
	switch e {
	case ExpertiseElectrical, ExpertiseMechanical, ExpertiseIT, ExpertisePlumbing, ExpertiseGeneral:
		return true
	default:
		return false
	}
}

type Technician struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	EmployeeID  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"employee_id"`
	Expertise   Expertise `gorm:"type:varchar(20);not null" json:"expertise"`
	Phone       string    `gorm:"type:varchar(20)" json:"phone"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	ActiveJobs int64 `gorm:"-" json:"active_jobs"`
}

func (Technician) TableName() string {
	return "technicians"
}
