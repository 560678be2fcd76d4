package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"maintenance-service/internal/model"
)

const (
	SheetName   = "Maintenance requests"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout  = "2006-01-02 15:04"
)

var Headers = []any{
	"Request code",
	"Equipment code",
	"Equipment",
	"Department",
	"Requester",
	"Priority",
	"Status",
	"Technician",
	"Problem",
	"Created at",
	"Completed at",
}

// FileName is the download name for an export produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("maintenance_requests_%s.xlsx", t.Format("2006-01-02"))
}

// WriteRequests renders one row per request under a bold header row.
func WriteRequests(w io.Writer, requests []model.MaintenanceRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, style); err != nil {
		return err
	}

	for i := range requests {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := toRow(&requests[i])
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(SheetName, "A", "B", 20)
	_ = f.SetColWidth(SheetName, "C", "E", 25)
	_ = f.SetColWidth(SheetName, "I", "I", 50)
	_ = f.SetColWidth(SheetName, "J", "K", 18)

	return f.Write(w)
}

func toRow(r *model.MaintenanceRequest) []any {
	var equipmentCode, equipmentName, department, requester, technician, completed string
	if r.Equipment != nil {
		equipmentCode = r.Equipment.EquipmentCode
		equipmentName = r.Equipment.Name
		department = r.Equipment.Department
	}
	if r.Requester != nil {
		requester = r.Requester.DisplayName()
	}
	if r.AssignedTechnician != nil && r.AssignedTechnician.User != nil {
		technician = r.AssignedTechnician.User.DisplayName()
	}
	if r.CompletedAt != nil {
		completed = r.CompletedAt.UTC().Format(timeLayout)
	}

	return []any{
		r.RequestCode,
		equipmentCode,
		equipmentName,
		department,
		requester,
		string(r.Priority),
		string(r.Status),
		technician,
		r.ProblemDescription,
		r.CreatedAt.UTC().Format(timeLayout),
		completed,
	}
}
