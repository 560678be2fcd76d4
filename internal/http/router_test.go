package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/cache"
	"maintenance-service/internal/http/middleware"
	"maintenance-service/internal/model"
	"maintenance-service/internal/report"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/service"
	"maintenance-service/internal/storage"
	"maintenance-service/internal/testfixtures"
)

type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	admin      *model.User
	user       *model.User
	technician *model.Technician
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.db = testfixtures.NewDB(s.T())
	store := repository.NewStore(s.db)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	files, err := storage.NewLocalStorage(s.T().TempDir())
	s.Require().NoError(err)

	issuer := auth.NewIssuer("test-secret", time.Hour, 24*time.Hour)
	parser := auth.NewParser("test-secret")
	stats := cache.Noop{}
	log := zerolog.Nop()

	handler := NewHandler(
		service.NewAuthService(store, issuer, parser, time.Now),
		service.NewUserService(store, stats),
		service.NewEquipmentService(store, stats),
		service.NewTechnicianService(store),
		service.NewRequestService(store, files, stats, clock.Now),
		service.NewRepairLogService(store),
		log,
	)
	s.router = NewRouter(handler, middleware.Auth(parser), RouterConfig{Environment: "test"}, log)

	s.admin = testfixtures.CreateUser(s.T(), s.db, testfixtures.AsStaff())
	s.user = testfixtures.CreateUser(s.T(), s.db)
	s.technician = testfixtures.CreateTechnician(s.T(), s.db, nil)
}

func (s *RouterTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *RouterTestSuite) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) token(username string) string {
	rec := s.do(http.MethodPost, "/api/auth/token", "", map[string]string{
		"username": username,
		"password": testfixtures.Password,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &tokens))
	s.Require().NotEmpty(tokens.Access)
	return tokens.Access
}

func (s *RouterTestSuite) decode(rec *httptest.ResponseRecorder, dest any) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if dest != nil {
		s.Require().NoError(json.Unmarshal(env.Data, dest))
	}
	return env
}

func (s *RouterTestSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestRegisterLoginAndMe() {
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":         "jdoe",
		"email":            "jdoe@example.com",
		"password":         "hunter22",
		"password_confirm": "hunter22",
		"first_name":       "John",
		"last_name":        "Doe",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/token", "", map[string]string{"username": "jdoe", "password": "wrong-pass"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/token", "", map[string]string{"username": "jdoe", "password": "hunter22"})
	s.Require().Equal(http.StatusOK, rec.Code)
	var tokens struct {
		Access  string     `json:"access"`
		Refresh string     `json:"refresh"`
		User    model.User `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &tokens))
	s.Equal(model.RoleUser, tokens.User.Role)

	rec = s.do(http.MethodGet, "/api/users/me", tokens.Access, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var me model.User
	s.decode(rec, &me)
	s.Equal("jdoe", me.Username)
	s.Equal("John Doe", me.FullName)

	rec = s.do(http.MethodPost, "/api/auth/token/refresh", "", map[string]string{"refresh": tokens.Refresh})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/token/refresh", "", map[string]string{"refresh": tokens.Access})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestRegisterValidation() {
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":         s.user.Username,
		"password":         "hunter22",
		"password_confirm": "hunter23",
	})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	env := s.decode(rec, nil)
	s.Contains(env.Fields, "password_confirm")

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":         s.user.Username,
		"password":         "hunter22",
		"password_confirm": "hunter22",
	})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	env = s.decode(rec, nil)
	s.Contains(env.Fields, "username")
}

func (s *RouterTestSuite) TestRequiresToken() {
	rec := s.do(http.MethodGet, "/api/maintenance-requests", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/maintenance-requests", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestMaintenanceFlow() {
	adminToken := s.token(s.admin.Username)
	userToken := s.token(s.user.Username)
	techToken := s.token(s.technician.User.Username)

	rec := s.do(http.MethodPost, "/api/equipment", adminToken, map[string]string{
		"equipment_code": "PC001",
		"name":           "Office desktop",
		"department":     "Accounting",
		"location":       "Floor 2",
		"purchase_date":  "2023-01-10",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var pc model.Equipment
	s.decode(rec, &pc)
	s.Equal(model.EquipmentStatusActive, pc.Status)

	rec = s.do(http.MethodPost, "/api/maintenance-requests", userToken, map[string]any{
		"equipment_id":        pc.ID,
		"problem_description": "Does not boot",
		"priority":            "HIGH",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created model.MaintenanceRequest
	s.decode(rec, &created)
	s.Equal("REQ202403150001", created.RequestCode)
	s.Equal(model.RequestStatusPending, created.Status)

	path := fmt.Sprintf("/api/maintenance-requests/%d", created.ID)

	rec = s.do(http.MethodPost, path+"/update_status", userToken, map[string]string{"status": "COMPLETED"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, path+"/assign_technician", adminToken, map[string]any{"technician_id": s.technician.ID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var assigned model.MaintenanceRequest
	env := s.decode(rec, &assigned)
	s.Equal("technician assigned", env.Message)
	s.Equal(model.RequestStatusInProgress, assigned.Status)

	rec = s.do(http.MethodGet, path, techToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, path+"/update_status", techToken, map[string]string{"status": "COMPLETED"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var done model.MaintenanceRequest
	s.decode(rec, &done)
	s.Equal(model.RequestStatusCompleted, done.Status)
	s.NotNil(done.CompletedAt)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/equipment/%d", pc.ID), userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var after model.Equipment
	s.decode(rec, &after)
	s.Equal(model.EquipmentStatusActive, after.Status)
	s.EqualValues(1, after.TotalMaintenanceRequests)

	rec = s.do(http.MethodPost, "/api/repair-logs", techToken, map[string]any{
		"maintenance_request_id": created.ID,
		"technician_id":          s.technician.ID,
		"description":            "Replaced power supply",
		"labor_hours":            "1.50",
		"cost":                   "120.00",
		"started_at":             "2024-03-15T10:00:00Z",
		"completed_at":           "2024-03-15T11:30:00Z",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/repair-logs?maintenance_request=%d", created.ID), techToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var logs []model.RepairLog
	s.decode(rec, &logs)
	s.Len(logs, 1)

	rec = s.do(http.MethodGet, "/api/repair-logs/summary", userToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/api/repair-logs/summary", adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (s *RouterTestSuite) uploadRequest(token string, equipmentID uint, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	s.Require().NoError(writer.WriteField("equipment_id", fmt.Sprint(equipmentID)))
	s.Require().NoError(writer.WriteField("problem_description", "Cracked screen"))
	s.Require().NoError(writer.WriteField("priority", "LOW"))
	part, err := writer.CreateFormFile("problem_image", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/maintenance-requests", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.send(req, token)
}

func (s *RouterTestSuite) TestCreateRequestWithImage() {
	userToken := s.token(s.user.Username)
	equipment := testfixtures.CreateEquipment(s.T(), s.db)

	rec := s.uploadRequest(userToken, equipment.ID, "screen.png", pngHeader)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created model.MaintenanceRequest
	s.decode(rec, &created)
	s.Require().NotNil(created.ProblemImage)
	s.Contains(*created.ProblemImage, "problem_images/")
	s.Equal(model.PriorityLow, created.Priority)
}

func (s *RouterTestSuite) TestCreateRequestRejectsNonImage() {
	userToken := s.token(s.user.Username)
	equipment := testfixtures.CreateEquipment(s.T(), s.db)

	rec := s.uploadRequest(userToken, equipment.ID, "screen.png", []byte("just some notes about the screen"))
	s.Require().Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	env := s.decode(rec, nil)
	s.Contains(env.Fields, "problem_image")

	var count int64
	s.Require().NoError(s.db.Model(&model.MaintenanceRequest{}).Count(&count).Error)
	s.Zero(count)
}

func (s *RouterTestSuite) TestErrorMapping() {
	userToken := s.token(s.user.Username)
	other := testfixtures.CreateUser(s.T(), s.db)
	equipment := testfixtures.CreateEquipment(s.T(), s.db)
	foreign := testfixtures.CreateRequest(s.T(), s.db, other, equipment)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"hidden request", http.MethodGet, fmt.Sprintf("/api/maintenance-requests/%d", foreign.ID), nil, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/maintenance-requests/abc", nil, http.StatusNotFound},
		{"missing equipment", http.MethodGet, "/api/equipment/9999", nil, http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/maintenance-requests?status=BROKEN", nil, http.StatusBadRequest},
		{"bad date filter", http.MethodGet, "/api/maintenance-requests?date_from=yesterday", nil, http.StatusBadRequest},
		{"user list is admin only", http.MethodGet, "/api/users", nil, http.StatusForbidden},
		{"export is admin only", http.MethodGet, "/api/maintenance-requests/export", nil, http.StatusForbidden},
		{"missing body fields", http.MethodPost, "/api/maintenance-requests", map[string]any{}, http.StatusBadRequest},
		{"unknown priority", http.MethodPost, "/api/maintenance-requests", map[string]any{
			"equipment_id":        equipment.ID,
			"problem_description": "Noise",
			"priority":            "BLOCKER",
		}, http.StatusBadRequest},
		{"bad purchase date", http.MethodPost, "/api/equipment", map[string]any{
			"equipment_code": "X1",
			"name":           "Printer",
			"department":     "Ops",
			"location":       "Hall",
			"purchase_date":  "10/01/2023",
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(tt.method, tt.path, userToken, tt.body)
			s.Equal(tt.status, rec.Code, rec.Body.String())
		})
	}
}

func (s *RouterTestSuite) TestListAndExport() {
	adminToken := s.token(s.admin.Username)
	userToken := s.token(s.user.Username)
	equipment := testfixtures.CreateEquipment(s.T(), s.db)
	testfixtures.CreateRequest(s.T(), s.db, s.user, equipment, testfixtures.WithPriority(model.PriorityHigh))
	testfixtures.CreateRequest(s.T(), s.db, s.admin, equipment)

	rec := s.do(http.MethodGet, "/api/maintenance-requests", userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var mine []model.MaintenanceRequest
	s.decode(rec, &mine)
	s.Len(mine, 1)

	rec = s.do(http.MethodGet, "/api/maintenance-requests?priority=high", adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var high []model.MaintenanceRequest
	s.decode(rec, &high)
	s.Len(high, 1)

	rec = s.do(http.MethodGet, "/api/maintenance-requests/urgent", adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var urgent []model.MaintenanceRequest
	s.decode(rec, &urgent)
	s.Require().Len(urgent, 1)
	s.Equal(model.PriorityHigh, urgent[0].Priority)

	rec = s.do(http.MethodGet, "/api/maintenance-requests/statistics", adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats model.RequestStatistics
	s.decode(rec, &stats)
	s.EqualValues(2, stats.TotalRequests)

	rec = s.do(http.MethodGet, "/api/maintenance-requests/export", adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(report.ContentType, rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Content-Disposition"), "attachment")
	s.NotZero(rec.Body.Len())
}

func (s *RouterTestSuite) TestRequesterCancelsPendingRequest() {
	userToken := s.token(s.user.Username)
	equipment := testfixtures.CreateEquipment(s.T(), s.db)
	req := testfixtures.CreateRequest(s.T(), s.db, s.user, equipment)
	path := fmt.Sprintf("/api/maintenance-requests/%d/update_status", req.ID)

	rec := s.do(http.MethodPost, path, userToken, map[string]string{"status": "CANCELLED"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var cancelled model.MaintenanceRequest
	s.decode(rec, &cancelled)
	s.Equal(model.RequestStatusCancelled, cancelled.Status)

	rec = s.do(http.MethodPost, path, userToken, map[string]string{"status": "PENDING"})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterTestSuite) TestDemotionAppliesToIssuedToken() {
	super := testfixtures.CreateUser(s.T(), s.db, testfixtures.AsSuperuser())
	superToken := s.token(super.Username)
	staffToken := s.token(s.admin.Username)

	rec := s.do(http.MethodGet, "/api/users", staffToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, fmt.Sprintf("/api/users/%d/remove_admin", s.admin.ID), superToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/users", staffToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	userToken := s.token(s.user.Username)
	s.Require().NoError(s.db.Model(&model.User{}).Where("id = ?", s.user.ID).Update("is_active", false).Error)
	rec = s.do(http.MethodGet, "/api/users/me", userToken, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
