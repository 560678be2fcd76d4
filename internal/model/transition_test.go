package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStatus(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name          string
		from          EquipmentStatus
		completedAt   *time.Time
		to            RequestStatus
		wantEquipment EquipmentStatus
		wantChanged   bool
		wantCompleted *time.Time
	}{
		{
			name:          "in progress puts equipment under repair",
			from:          EquipmentStatusActive,
			to:            RequestStatusInProgress,
			wantEquipment: EquipmentStatusUnderRepair,
			wantChanged:   true,
		},
		{
			name:          "in progress on equipment already under repair",
			from:          EquipmentStatusUnderRepair,
			to:            RequestStatusInProgress,
			wantEquipment: EquipmentStatusUnderRepair,
		},
		{
			name:          "completed returns equipment to service and stamps time",
			from:          EquipmentStatusUnderRepair,
			to:            RequestStatusCompleted,
			wantEquipment: EquipmentStatusActive,
			wantChanged:   true,
			wantCompleted: &now,
		},
		{
			name:          "completed keeps an existing completion time",
			from:          EquipmentStatusOutOfService,
			completedAt:   &earlier,
			to:            RequestStatusCompleted,
			wantEquipment: EquipmentStatusActive,
			wantChanged:   true,
			wantCompleted: &earlier,
		},
		{
			name:          "cancelled leaves equipment alone",
			from:          EquipmentStatusUnderRepair,
			to:            RequestStatusCancelled,
			wantEquipment: EquipmentStatusUnderRepair,
		},
		{
			name:          "pending leaves equipment alone",
			from:          EquipmentStatusOutOfService,
			to:            RequestStatusPending,
			wantEquipment: EquipmentStatusOutOfService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := MaintenanceRequest{ID: 1, Status: RequestStatusPending, CompletedAt: tt.completedAt}
			eq := Equipment{ID: 2, Status: tt.from}

			got := ApplyStatus(req, eq, tt.to, now)

			assert.Equal(t, tt.to, got.Request.Status)
			assert.Equal(t, tt.wantEquipment, got.Equipment.Status)
			assert.Equal(t, tt.wantChanged, got.EquipmentChanged)
			if tt.wantCompleted == nil {
				assert.Nil(t, got.Request.CompletedAt)
			} else {
				require.NotNil(t, got.Request.CompletedAt)
				assert.True(t, tt.wantCompleted.Equal(*got.Request.CompletedAt))
			}

			assert.Equal(t, RequestStatusPending, req.Status, "input request must not change")
			assert.Equal(t, tt.from, eq.Status, "input equipment must not change")
		})
	}
}
