package model

import (
	"time"

	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusCancelled  RequestStatus = "CANCELLED"
)

// RequestStatuses lists every status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusInProgress,
	RequestStatusCompleted,
	RequestStatusCancelled,
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseRequestStatus accepts only the exact enum spelling.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	status := RequestStatus(raw)
	return status, status.Valid()
}

// OpenStatuses are the statuses still waiting on a technician.
var OpenStatuses = []RequestStatus{RequestStatusPending, RequestStatusInProgress}

type MaintenanceRequest struct {
	ID                   uint          `gorm:"primaryKey" json:"id"`
	RequestCode          string        `gorm:"type:varchar(50);uniqueIndex;not null" json:"request_code"`
	RequesterID          uint          `gorm:"not null;index" json:"requester_id"`
	Requester            *User         `gorm:"constraint:OnDelete:CASCADE" json:"requester,omitempty"`
	EquipmentID          uint          `gorm:"not null;index" json:"equipment_id"`
	Equipment            *Equipment    `gorm:"constraint:OnDelete:CASCADE" json:"equipment,omitempty"`
	ProblemDescription   string        `gorm:"type:text;not null" json:"problem_description"`
	ProblemImage         *string       `gorm:"type:varchar(255)" json:"problem_image"`
	Priority             Priority      `gorm:"type:varchar(10);not null;index" json:"priority"`
	Status               RequestStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AssignedTechnicianID *uint         `gorm:"index" json:"assigned_technician_id"`
	AssignedTechnician   *Technician   `gorm:"constraint:OnDelete:SET NULL" json:"assigned_technician,omitempty"`
	CreatedAt            time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt          *time.Time    `json:"completed_at"`

	RepairLogs []RepairLog `gorm:"foreignKey:MaintenanceRequestID" json:"repair_logs,omitempty"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

func (r *MaintenanceRequest) BeforeCreate(tx *gorm.DB) error {
	if r.Priority == "" {
		r.Priority = PriorityLow
	}
	if r.Status == "" {
		r.Status = RequestStatusPending
	}
	return nil
}

// IsUrgent reports an open request with medium or high priority.
func (r *MaintenanceRequest) IsUrgent() bool {
	open := r.Status == RequestStatusPending || r.Status == RequestStatusInProgress
	return open && (r.Priority == PriorityMedium || r.Priority == PriorityHigh)
}
