package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"maintenance-service/internal/http/middleware"
	"maintenance-service/internal/model"
	"maintenance-service/internal/service"
)

type Handler struct {
	authService       *service.AuthService
	userService       *service.UserService
	equipmentService  *service.EquipmentService
	technicianService *service.TechnicianService
	requestService    *service.RequestService
	repairLogService  *service.RepairLogService
	log               zerolog.Logger
}

func NewHandler(
	authService *service.AuthService,
	userService *service.UserService,
	equipmentService *service.EquipmentService,
	technicianService *service.TechnicianService,
	requestService *service.RequestService,
	repairLogService *service.RepairLogService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		authService:       authService,
		userService:       userService,
		equipmentService:  equipmentService,
		technicianService: technicianService,
		requestService:    requestService,
		repairLogService:  repairLogService,
		log:               log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/token", h.obtainToken)
		authGroup.POST("/token/refresh", h.refreshToken)
	}

	protected := api.Group("/")
	protected.Use(authMiddleware)

	users := protected.Group("/users")
	{
		users.GET("", h.listUsers)
		users.GET("/me", h.me)
		users.GET("/roles_summary", h.rolesSummary)
		users.GET("/:id", h.getUser)
		users.PUT("/:id", h.updateUser)
		users.PATCH("/:id", h.updateUser)
		users.DELETE("/:id", h.deleteUser)
		users.POST("/:id/make_admin", h.makeAdmin)
		users.POST("/:id/remove_admin", h.removeAdmin)
	}

	equipment := protected.Group("/equipment")
	{
		equipment.GET("", h.listEquipment)
		equipment.POST("", h.createEquipment)
		equipment.GET("/statistics", h.equipmentStatistics)
		equipment.GET("/:id", h.getEquipment)
		equipment.PUT("/:id", h.updateEquipment)
		equipment.PATCH("/:id", h.updateEquipment)
		equipment.DELETE("/:id", h.deleteEquipment)
		equipment.GET("/:id/maintenance_history", h.maintenanceHistory)
	}

	technicians := protected.Group("/technicians")
	{
		technicians.GET("", h.listTechnicians)
		technicians.POST("", h.createTechnician)
		technicians.GET("/:id", h.getTechnician)
		technicians.PUT("/:id", h.updateTechnician)
		technicians.PATCH("/:id", h.updateTechnician)
		technicians.DELETE("/:id", h.deleteTechnician)
		technicians.GET("/:id/assigned_jobs", h.assignedJobs)
		technicians.GET("/:id/work_history", h.workHistory)
	}

	requests := protected.Group("/maintenance-requests")
	{
		requests.GET("", h.listRequests)
		requests.POST("", h.createRequest)
		requests.GET("/statistics", h.requestStatistics)
		requests.GET("/urgent", h.urgentRequests)
		requests.GET("/export", h.exportRequests)
		requests.GET("/:id", h.getRequest)
		requests.PUT("/:id", h.updateRequest)
		requests.PATCH("/:id", h.updateRequest)
		requests.DELETE("/:id", h.deleteRequest)
		requests.POST("/:id/assign_technician", h.assignTechnician)
		requests.POST("/:id/update_status", h.updateRequestStatus)
	}

	repairLogs := protected.Group("/repair-logs")
	{
		repairLogs.GET("", h.listRepairLogs)
		repairLogs.POST("", h.createRepairLog)
		repairLogs.GET("/summary", h.repairLogSummary)
		repairLogs.GET("/:id", h.getRepairLog)
		repairLogs.PUT("/:id", h.updateRepairLog)
		repairLogs.PATCH("/:id", h.updateRepairLog)
		repairLogs.DELETE("/:id", h.deleteRepairLog)
	}
}

// principal returns the caller with its role resolved from the database,
// not from the token claim.
func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	claimed, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return model.Principal{}, false
	}
	principal, err := h.authService.Principal(c.Request.Context(), claimed.UserID)
	if err != nil {
		h.handleError(c, err)
		return model.Principal{}, false
	}
	return principal, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, validationResponse(verr.Fields))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse(service.ErrUnauthorized.Error()))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(service.ErrPermissionDenied.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.logger(c).Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

// logger prefers the request-scoped logger set by the logging middleware.
func (h *Handler) logger(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.log
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func messageResponse(message string, data interface{}) gin.H {
	return gin.H{
		"message": message,
		"data":    data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func validationResponse(fields map[string]string) gin.H {
	return gin.H{
		"error":  service.ErrInvalidInput.Error(),
		"fields": fields,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, errorResponse(service.ErrNotFound.Error()))
		return 0, false
	}
	return uint(id), true
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
