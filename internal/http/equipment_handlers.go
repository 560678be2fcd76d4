package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/service"
)

type equipmentRequest struct {
	EquipmentCode *string `json:"equipment_code" binding:"omitempty,max=50"`
	Name          *string `json:"name" binding:"omitempty,max=200"`
	Department    *string `json:"department" binding:"omitempty,max=100"`
	Location      *string `json:"location" binding:"omitempty,max=200"`
	Status        *string `json:"status"`
	PurchaseDate  *string `json:"purchase_date"`
	Description   *string `json:"description"`
}

func (r equipmentRequest) input() (service.EquipmentInput, map[string]string) {
	input := service.EquipmentInput{
		EquipmentCode: r.EquipmentCode,
		Name:          r.Name,
		Department:    r.Department,
		Location:      r.Location,
		Status:        r.Status,
		Description:   r.Description,
	}
	if r.PurchaseDate != nil && strings.TrimSpace(*r.PurchaseDate) != "" {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(*r.PurchaseDate))
		if err != nil {
			return input, map[string]string{"purchase_date": "Date has wrong format. Use YYYY-MM-DD."}
		}
		input.PurchaseDate = &date
	}
	return input, nil
}

func (h *Handler) listEquipment(c *gin.Context) {
	q := newQueryParams(c)
	filter := repository.EquipmentListFilter{
		Status:     enum(q, "status", model.EquipmentStatus.Valid),
		Department: q.strParam("department"),
	}
	if !q.ok() {
		return
	}

	equipment, err := h.equipmentService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(equipment))
}

func (h *Handler) createEquipment(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	input, fields := req.input()
	if fields != nil {
		c.JSON(http.StatusBadRequest, validationResponse(fields))
		return
	}

	equipment, err := h.equipmentService.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(equipment))
}

func (h *Handler) getEquipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	equipment, err := h.equipmentService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(equipment))
}

func (h *Handler) updateEquipment(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	input, fields := req.input()
	if fields != nil {
		c.JSON(http.StatusBadRequest, validationResponse(fields))
		return
	}

	equipment, err := h.equipmentService.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(equipment))
}

func (h *Handler) deleteEquipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.equipmentService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) maintenanceHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	requests, err := h.equipmentService.MaintenanceHistory(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(requests))
}

func (h *Handler) equipmentStatistics(c *gin.Context) {
	stats, err := h.equipmentService.Statistics(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}
