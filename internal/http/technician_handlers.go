package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/service"
)

type technicianRequest struct {
	UserID      *uint   `json:"user_id"`
	EmployeeID  *string `json:"employee_id" binding:"omitempty,max=50"`
	Expertise   *string `json:"expertise"`
	Phone       *string `json:"phone" binding:"omitempty,max=20"`
	IsAvailable *bool   `json:"is_available"`
}

func (r technicianRequest) input() service.TechnicianInput {
	return service.TechnicianInput{
		UserID:      r.UserID,
		EmployeeID:  r.EmployeeID,
		Expertise:   r.Expertise,
		Phone:       r.Phone,
		IsAvailable: r.IsAvailable,
	}
}

func (h *Handler) listTechnicians(c *gin.Context) {
	q := newQueryParams(c)
	filter := repository.TechnicianListFilter{
		IsAvailable: q.boolParam("is_available"),
		Expertise:   enum(q, "expertise", model.Expertise.Valid),
	}
	if !q.ok() {
		return
	}

	technicians, err := h.technicianService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(technicians))
}

func (h *Handler) createTechnician(c *gin.Context) {
	var req technicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	technician, err := h.technicianService.Create(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(technician))
}

func (h *Handler) getTechnician(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	technician, err := h.technicianService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(technician))
}

func (h *Handler) updateTechnician(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req technicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	technician, err := h.technicianService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(technician))
}

func (h *Handler) deleteTechnician(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.technicianService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) assignedJobs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	requests, err := h.technicianService.AssignedJobs(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(requests))
}

func (h *Handler) workHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	logs, err := h.technicianService.WorkHistory(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(logs))
}
