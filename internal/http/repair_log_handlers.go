package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"maintenance-service/internal/repository"
	"maintenance-service/internal/service"
)

type repairLogRequest struct {
	MaintenanceRequestID *uint            `json:"maintenance_request_id"`
	TechnicianID         *uint            `json:"technician_id"`
	Description          *string          `json:"description"`
	PartsUsed            *string          `json:"parts_used"`
	LaborHours           *decimal.Decimal `json:"labor_hours"`
	Cost                 *decimal.Decimal `json:"cost"`
	StartedAt            *time.Time       `json:"started_at"`
	CompletedAt          *time.Time       `json:"completed_at"`
	Notes                *string          `json:"notes"`
}

func (r repairLogRequest) input() service.RepairLogInput {
	return service.RepairLogInput{
		MaintenanceRequestID: r.MaintenanceRequestID,
		TechnicianID:         r.TechnicianID,
		Description:          r.Description,
		PartsUsed:            r.PartsUsed,
		LaborHours:           r.LaborHours,
		Cost:                 r.Cost,
		StartedAt:            r.StartedAt,
		CompletedAt:          r.CompletedAt,
		Notes:                r.Notes,
	}
}

func (h *Handler) listRepairLogs(c *gin.Context) {
	q := newQueryParams(c)
	filter := repository.RepairLogListFilter{
		RequestID:    q.uintParam("maintenance_request"),
		TechnicianID: q.uintParam("technician"),
	}
	if !q.ok() {
		return
	}

	logs, err := h.repairLogService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(logs))
}

func (h *Handler) createRepairLog(c *gin.Context) {
	var req repairLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	log, err := h.repairLogService.Create(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(log))
}

func (h *Handler) getRepairLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	log, err := h.repairLogService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(log))
}

func (h *Handler) updateRepairLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req repairLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	log, err := h.repairLogService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(log))
}

func (h *Handler) deleteRepairLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.repairLogService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) repairLogSummary(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	summary, err := h.repairLogService.Summary(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}
