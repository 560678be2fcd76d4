package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-service/internal/model"
)

// Password is the plain-text password of every fixture user.
const Password = "secret123"

var counter uint64

func next() uint64 {
	return atomic.AddUint64(&counter, 1)
}

var passwordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

func mustCreate(tb testing.TB, db *gorm.DB, value any) {
	tb.Helper()
	if err := db.Omit(clause.Associations).Create(value).Error; err != nil {
		tb.Fatalf("failed to create fixture %T: %v", value, err)
	}
}

// UserOption customises a fixture user before it is inserted.
type UserOption func(*model.User)

func AsStaff() UserOption {
	return func(u *model.User) { u.IsStaff = true }
}

func AsSuperuser() UserOption {
	return func(u *model.User) { u.IsSuperuser = true }
}

func CreateUser(tb testing.TB, db *gorm.DB, opts ...UserOption) *model.User {
	tb.Helper()
	n := next()
	user := &model.User{
		Username:     fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), n),
		Email:        fmt.Sprintf("user%d@%s", n, gofakeit.DomainName()),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		PasswordHash: passwordHash,
		IsActive:     true,
		DateJoined:   ReferenceTime(),
	}
	for _, opt := range opts {
		opt(user)
	}
	mustCreate(tb, db, user)
	return user
}

type EquipmentOption func(*model.Equipment)

func WithEquipmentCode(code string) EquipmentOption {
	return func(e *model.Equipment) { e.EquipmentCode = code }
}

func WithEquipmentStatus(status model.EquipmentStatus) EquipmentOption {
	return func(e *model.Equipment) { e.Status = status }
}

func WithDepartment(department string) EquipmentOption {
	return func(e *model.Equipment) { e.Department = department }
}

func CreateEquipment(tb testing.TB, db *gorm.DB, opts ...EquipmentOption) *model.Equipment {
	tb.Helper()
	equipment := &model.Equipment{
		EquipmentCode: fmt.Sprintf("EQ%05d", next()),
		Name:          gofakeit.ProductName(),
		Department:    gofakeit.Company(),
		Location:      gofakeit.Country(),
		Status:        model.EquipmentStatusActive,
	}
	for _, opt := range opts {
		opt(equipment)
	}
	mustCreate(tb, db, equipment)
	return equipment
}

// CreateTechnician inserts a technician profile, creating a backing user when
// user is nil.
func CreateTechnician(tb testing.TB, db *gorm.DB, user *model.User) *model.Technician {
	tb.Helper()
	if user == nil {
		user = CreateUser(tb, db)
	}
	technician := &model.Technician{
		UserID:      user.ID,
		EmployeeID:  fmt.Sprintf("EMP%05d", next()),
		Expertise:   model.ExpertiseGeneral,
		Phone:       gofakeit.Phone(),
		IsAvailable: true,
		CreatedAt:   ReferenceTime(),
	}
	mustCreate(tb, db, technician)
	technician.User = user
	return technician
}

type RequestOption func(*model.MaintenanceRequest)

func WithStatus(status model.RequestStatus) RequestOption {
	return func(r *model.MaintenanceRequest) { r.Status = status }
}

func WithPriority(priority model.Priority) RequestOption {
	return func(r *model.MaintenanceRequest) { r.Priority = priority }
}

func WithAssignee(technician *model.Technician) RequestOption {
	return func(r *model.MaintenanceRequest) { r.AssignedTechnicianID = &technician.ID }
}

func WithCreatedAt(t time.Time) RequestOption {
	return func(r *model.MaintenanceRequest) { r.CreatedAt = t }
}

func WithCompletedAt(t time.Time) RequestOption {
	return func(r *model.MaintenanceRequest) { r.CompletedAt = &t }
}

func CreateRequest(tb testing.TB, db *gorm.DB, requester *model.User, equipment *model.Equipment, opts ...RequestOption) *model.MaintenanceRequest {
	tb.Helper()
	n := next()
	request := &model.MaintenanceRequest{
		RequestCode:        fmt.Sprintf("FIX%011d", n),
		RequesterID:        requester.ID,
		EquipmentID:        equipment.ID,
		ProblemDescription: gofakeit.Sentence(8),
		Priority:           model.PriorityLow,
		Status:             model.RequestStatusPending,
		CreatedAt:          ReferenceTime(),
	}
	for _, opt := range opts {
		opt(request)
	}
	mustCreate(tb, db, request)
	return request
}

func CreateRepairLog(tb testing.TB, db *gorm.DB, request *model.MaintenanceRequest, technician *model.Technician, hours, cost string) *model.RepairLog {
	tb.Helper()
	log := &model.RepairLog{
		MaintenanceRequestID: request.ID,
		TechnicianID:         technician.ID,
		Description:          gofakeit.Sentence(6),
		LaborHours:           decimal.RequireFromString(hours),
		Cost:                 decimal.RequireFromString(cost),
		StartedAt:            ReferenceTime(),
	}
	mustCreate(tb, db, log)
	return log
}
