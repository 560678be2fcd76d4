package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatistics struct {
	TotalRequests         int64   `json:"total_requests"`
	PendingRequests       int64   `json:"pending_requests"`
	InProgressRequests    int64   `json:"in_progress_requests"`
	CompletedRequests     int64   `json:"completed_requests"`
	CancelledRequests     int64   `json:"cancelled_requests"`
	HighPriorityRequests  int64   `json:"high_priority_requests"`
	AverageCompletionTime float64 `json:"average_completion_time"`
}

type EquipmentStatistics struct {
	TotalEquipment int64 `json:"total_equipment"`
	Active         int64 `json:"active"`
	UnderRepair    int64 `json:"under_repair"`
	OutOfService   int64 `json:"out_of_service"`
}

type RepairLogSummary struct {
	TotalRepairLogs   int64           `json:"total_repair_logs"`
	AverageLaborHours decimal.Decimal `json:"average_labor_hours"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	TotalLaborHours   decimal.Decimal `json:"total_labor_hours"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

type RolesSummary struct {
	TotalUsers  int64 `json:"total_users"`
	Admins      int64 `json:"admins"`
	Technicians int64 `json:"technicians"`
	Users       int64 `json:"users"`
}

// CompletionSpan is the creation and completion instant of a finished request.
type CompletionSpan struct {
	CreatedAt   time.Time
	CompletedAt time.Time
}

// AverageCompletionHours sums the spans and divides by their count, rounded
// to two decimals. No spans yields zero.
func AverageCompletionHours(spans []CompletionSpan) float64 {
	if len(spans) == 0 {
		return 0
	}
	var total float64
	for _, s := range spans {
		total += s.CompletedAt.Sub(s.CreatedAt).Hours()
	}
	return RoundHours(total / float64(len(spans)))
}
