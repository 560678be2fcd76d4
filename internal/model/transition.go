package model

import "time"

// Transition is the outcome of moving a request to a new status.
type Transition struct {
	Request          MaintenanceRequest
	Equipment        Equipment
	EquipmentChanged bool
}

// ApplyStatus moves req to status and derives the linked equipment state.
// IN_PROGRESS puts the equipment under repair; COMPLETED returns it to
// service and stamps the completion time when none is set. The inputs are
// not modified.
func ApplyStatus(req MaintenanceRequest, eq Equipment, status RequestStatus, now time.Time) Transition {
	req.Status = status

	changed := false
	switch status {
	case RequestStatusInProgress:
		if eq.Status != EquipmentStatusUnderRepair {
			eq.Status = EquipmentStatusUnderRepair
			changed = true
		}
	case RequestStatusCompleted:
		if eq.Status != EquipmentStatusActive {
			eq.Status = EquipmentStatusActive
			changed = true
		}
		if req.CompletedAt == nil {
			completed := now
			req.CompletedAt = &completed
		}
	}

	return Transition{Request: req, Equipment: eq, EquipmentChanged: changed}
}
