package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/model"
	"maintenance-service/internal/report"
	"maintenance-service/internal/service"
)

// createRequest accepts JSON or a multipart form carrying problem_image.
func (h *Handler) createRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		EquipmentID        uint   `json:"equipment_id" form:"equipment_id" binding:"required"`
		ProblemDescription string `json:"problem_description" form:"problem_description" binding:"required"`
		Priority           string `json:"priority" form:"priority"`
	}

	if err := c.ShouldBind(&req); err != nil {
		h.bindError(c, err)
		return
	}

	input := service.CreateRequestInput{
		EquipmentID:        req.EquipmentID,
		ProblemDescription: req.ProblemDescription,
		Priority:           req.Priority,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("problem_image")
		switch {
		case err == nil:
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, validationResponse(map[string]string{"problem_image": "Upload a valid image."}))
				return
			}
			defer file.Close()
			if err := checkImage(file); err != nil {
				c.JSON(http.StatusBadRequest, validationResponse(map[string]string{
					"problem_image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
				}))
				return
			}
			input.Image = &service.Upload{Filename: fileHeader.Filename, Content: file}
		case !errors.Is(err, http.ErrMissingFile):
			c.JSON(http.StatusBadRequest, validationResponse(map[string]string{"problem_image": "Upload a valid image."}))
			return
		}
	}

	request, err := h.requestService.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(request))
}

var imageContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"}

var errNotImage = errors.New("not an image")

// checkImage sniffs the first bytes of the upload and rewinds it.
func checkImage(file io.ReadSeeker) error {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if !slices.Contains(imageContentTypes, http.DetectContentType(head[:n])) {
		return errNotImage
	}
	return nil
}

func (h *Handler) listRequests(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	q := newQueryParams(c)
	mine := q.boolParam("my_requests")
	params := service.RequestListParams{
		MyRequests:   mine != nil && *mine,
		Status:       enum(q, "status", model.RequestStatus.Valid),
		Priority:     enum(q, "priority", model.Priority.Valid),
		TechnicianID: q.uintParam("technician"),
		DateFrom:     q.timeParam("date_from"),
		DateTo:       q.timeParam("date_to"),
	}
	if !q.ok() {
		return
	}

	requests, err := h.requestService.List(c.Request.Context(), principal, params)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(requests))
}

func (h *Handler) getRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	request, err := h.requestService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(request))
}

func (h *Handler) updateRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		EquipmentID        *uint   `json:"equipment_id"`
		ProblemDescription *string `json:"problem_description"`
		Priority           *string `json:"priority"`
		Status             *string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	request, err := h.requestService.Update(c.Request.Context(), principal, id, service.UpdateRequestInput{
		EquipmentID:        req.EquipmentID,
		ProblemDescription: req.ProblemDescription,
		Priority:           req.Priority,
		Status:             req.Status,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(request))
}

func (h *Handler) deleteRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.requestService.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) assignTechnician(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		TechnicianID uint `json:"technician_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	request, err := h.requestService.AssignTechnician(c.Request.Context(), principal, id, req.TechnicianID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse("technician assigned", request))
}

func (h *Handler) updateRequestStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	request, err := h.requestService.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse("status updated", request))
}

func (h *Handler) requestStatistics(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	q := newQueryParams(c)
	requesterID := q.uintParam("requester")
	if !q.ok() {
		return
	}

	stats, err := h.requestService.Statistics(c.Request.Context(), principal, requesterID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) urgentRequests(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	requests, err := h.requestService.Urgent(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(requests))
}

func (h *Handler) exportRequests(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	buf, err := h.requestService.Export(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(time.Now().UTC())))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}
