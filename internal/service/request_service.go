package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/report"
	"maintenance-service/internal/repository"
)

const (
	maxCodeAttempts  = 5
	problemImagesDir = "problem_images"
)

type RequestService struct {
	store *repository.Store
	files FileStore
	stats StatsCache
	now   func() time.Time
}

func NewRequestService(store *repository.Store, files FileStore, stats StatsCache, now func() time.Time) *RequestService {
	if now == nil {
		now = time.Now
	}
	return &RequestService{
		store: store,
		files: files,
		stats: stats,
		now:   now,
	}
}

type CreateRequestInput struct {
	EquipmentID        uint
	ProblemDescription string
	Priority           string
	Image              *Upload
}

// Create files a new request for the caller. The request code is allocated
// from the current day's sequence and retried when a concurrent insert takes
// the same code.
func (s *RequestService) Create(ctx context.Context, principal model.Principal, input CreateRequestInput) (*model.MaintenanceRequest, error) {
	fields := fieldErrors{}
	if input.EquipmentID == 0 {
		fields.add("equipment_id", "This field is required.")
	} else if _, err := s.store.Equipment.GetByID(ctx, input.EquipmentID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		fields.add("equipment_id", "Equipment does not exist.")
	}
	description := strings.TrimSpace(input.ProblemDescription)
	if description == "" {
		fields.add("problem_description", "This field is required.")
	}
	priority := model.PriorityLow
	if input.Priority != "" {
		priority = model.Priority(input.Priority)
		if !priority.Valid() {
			fields.add("priority", "Invalid priority.")
		}
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	request := &model.MaintenanceRequest{
		RequesterID:        principal.UserID,
		EquipmentID:        input.EquipmentID,
		ProblemDescription: description,
		Priority:           priority,
		Status:             model.RequestStatusPending,
		CreatedAt:          now,
	}

	if input.Image != nil {
		path, err := s.files.Save(ctx, input.Image.Content, input.Image.Filename, problemImagesDir)
		if err != nil {
			return nil, fmt.Errorf("save problem image: %w", err)
		}
		request.ProblemImage = &path
	}

	if err := s.insertWithCode(ctx, request, now); err != nil {
		if request.ProblemImage != nil {
			if derr := s.files.Delete(*request.ProblemImage); derr != nil {
				zerolog.Ctx(ctx).Warn().Err(derr).Str("path", *request.ProblemImage).Msg("failed to remove orphaned image")
			}
		}
		return nil, err
	}

	invalidateStats(ctx, s.stats)
	return s.details(ctx, request.ID)
}

func (s *RequestService) insertWithCode(ctx context.Context, request *model.MaintenanceRequest, now time.Time) error {
	prefix := model.RequestCodeDayPrefix(now)

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			last, err := tx.Requests.LastCodeWithPrefix(ctx, prefix)
			if err != nil {
				return err
			}
			code, err := model.NextRequestCode(prefix, last)
			if err != nil {
				return err
			}
			request.ID = 0
			request.RequestCode = code
			return tx.Requests.Create(ctx, request)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gorm.ErrDuplicatedKey):
			zerolog.Ctx(ctx).Debug().Int("attempt", attempt).Str("code", request.RequestCode).Msg("request code taken, retrying")
			continue
		case errors.Is(err, model.ErrRequestCodeExhausted), errors.Is(err, model.ErrMalformedRequestCode):
			return fmt.Errorf("%w: %v", ErrConflict, err)
		default:
			return err
		}
	}
	return fmt.Errorf("%w: could not allocate request code after %d attempts", ErrConflict, maxCodeAttempts)
}

// Get returns the request with nested relations. Requests the caller may not
// see are reported as missing.
func (s *RequestService) Get(ctx context.Context, principal model.Principal, id uint) (*model.MaintenanceRequest, error) {
	request, err := s.details(ctx, id)
	if err != nil {
		return nil, err
	}
	visibility, err := s.visibility(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !visible(visibility, request) {
		return nil, ErrNotFound
	}
	return request, nil
}

type RequestListParams struct {
	MyRequests   bool
	Status       *model.RequestStatus
	Priority     *model.Priority
	TechnicianID *uint
	DateFrom     *time.Time
	DateTo       *time.Time
}

func (s *RequestService) List(ctx context.Context, principal model.Principal, params RequestListParams) ([]model.MaintenanceRequest, error) {
	filter := repository.RequestListFilter{
		TechnicianID: params.TechnicianID,
		CreatedFrom:  params.DateFrom,
		CreatedTo:    params.DateTo,
		PreloadAll:   true,
	}
	if params.Status != nil {
		filter.Statuses = []model.RequestStatus{*params.Status}
	}
	if params.Priority != nil {
		filter.Priorities = []model.Priority{*params.Priority}
	}
	return s.list(ctx, principal, params.MyRequests, filter)
}

// Urgent lists open requests with medium or high priority, scoped like List.
func (s *RequestService) Urgent(ctx context.Context, principal model.Principal) ([]model.MaintenanceRequest, error) {
	return s.list(ctx, principal, false, repository.RequestListFilter{
		Statuses:   model.OpenStatuses,
		Priorities: []model.Priority{model.PriorityMedium, model.PriorityHigh},
		PreloadAll: true,
	})
}

func (s *RequestService) list(ctx context.Context, principal model.Principal, mine bool, filter repository.RequestListFilter) ([]model.MaintenanceRequest, error) {
	if mine {
		filter.RequesterID = &principal.UserID
	}
	visibility, err := s.visibility(ctx, principal)
	if err != nil {
		return nil, err
	}
	filter.Visibility = visibility

	requests, err := s.store.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := decorateRequests(ctx, s.store, pointers(requests)); err != nil {
		return nil, err
	}
	return requests, nil
}

type UpdateRequestInput struct {
	EquipmentID        *uint
	ProblemDescription *string
	Priority           *string
	Status             *string
}

// Update edits a visible request. A status change goes through the same
// transition and permission rules as update_status. Moving the request to
// other equipment re-applies its current status to the new equipment.
func (s *RequestService) Update(ctx context.Context, principal model.Principal, id uint, input UpdateRequestInput) (*model.MaintenanceRequest, error) {
	visibility, err := s.visibility(ctx, principal)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		request, err := tx.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if !visible(visibility, request) {
			return ErrNotFound
		}
		previousEquipmentID := request.EquipmentID

		fields := fieldErrors{}
		if input.EquipmentID != nil {
			if _, err := tx.Equipment.GetByID(ctx, *input.EquipmentID); err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				fields.add("equipment_id", "Equipment does not exist.")
			}
			request.EquipmentID = *input.EquipmentID
		}
		if input.ProblemDescription != nil {
			description := strings.TrimSpace(*input.ProblemDescription)
			if description == "" {
				fields.add("problem_description", "This field may not be blank.")
			}
			request.ProblemDescription = description
		}
		if input.Priority != nil {
			priority := model.Priority(*input.Priority)
			if !priority.Valid() {
				fields.add("priority", "Invalid priority.")
			}
			request.Priority = priority
		}
		var status model.RequestStatus
		if input.Status != nil {
			var ok bool
			if status, ok = model.ParseRequestStatus(*input.Status); !ok {
				fields.add("status", "Invalid status.")
			}
		}
		if err := fields.err(); err != nil {
			return err
		}

		moved := request.EquipmentID != previousEquipmentID
		switch {
		case input.Status != nil:
			if err := authorizeStatusChange(principal, visibility, request, status); err != nil {
				return err
			}
			err = s.transition(ctx, tx, request, status)
		case moved:
			err = s.transition(ctx, tx, request, request.Status)
		default:
			err = tx.Requests.Update(ctx, request)
		}
		if err != nil || !moved {
			return err
		}
		return s.releaseEquipment(ctx, tx, previousEquipmentID, request.ID)
	})
	if err != nil {
		return nil, err
	}

	invalidateStats(ctx, s.stats)
	return s.details(ctx, id)
}

// Delete removes a request filed by the caller, or any request for admins.
func (s *RequestService) Delete(ctx context.Context, principal model.Principal, id uint) error {
	request, err := s.store.Requests.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	visibility, err := s.visibility(ctx, principal)
	if err != nil {
		return err
	}
	if !visible(visibility, request) {
		return ErrNotFound
	}
	if !principal.IsAdmin() && request.RequesterID != principal.UserID {
		return ErrPermissionDenied
	}

	if err := s.store.Requests.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	if request.ProblemImage != nil {
		if err := s.files.Delete(*request.ProblemImage); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", *request.ProblemImage).Msg("failed to remove problem image")
		}
	}

	invalidateStats(ctx, s.stats)
	return nil
}

// AssignTechnician assigns the technician and moves the request to
// IN_PROGRESS. The request row stays locked until the transaction ends so
// concurrent assignments apply one after the other.
func (s *RequestService) AssignTechnician(ctx context.Context, principal model.Principal, id, technicianID uint) (*model.MaintenanceRequest, error) {
	if technicianID == 0 {
		return nil, invalidField("technician_id", "This field is required.")
	}
	visibility, err := s.visibility(ctx, principal)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		request, err := tx.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if !visible(visibility, request) {
			return ErrNotFound
		}
		if err := authorizeStatusChange(principal, visibility, request, model.RequestStatusInProgress); err != nil {
			return err
		}

		technician, err := tx.Technicians.GetByID(ctx, technicianID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("technician %d: %w", technicianID, ErrNotFound)
			}
			return err
		}

		request.AssignedTechnicianID = &technician.ID
		return s.transition(ctx, tx, request, model.RequestStatusInProgress)
	})
	if err != nil {
		return nil, err
	}

	invalidateStats(ctx, s.stats)
	return s.details(ctx, id)
}

// UpdateStatus sets the status to one of the four enum values exactly.
// COMPLETED always stamps a fresh completion time.
// See authorizeStatusChange for who may do it.
func (s *RequestService) UpdateStatus(ctx context.Context, principal model.Principal, id uint, raw string) (*model.MaintenanceRequest, error) {
	status, ok := model.ParseRequestStatus(raw)
	if !ok {
		return nil, invalidField("status", "Invalid status.")
	}
	visibility, err := s.visibility(ctx, principal)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		request, err := tx.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if !visible(visibility, request) {
			return ErrNotFound
		}
		if err := authorizeStatusChange(principal, visibility, request, status); err != nil {
			return err
		}
		if status == model.RequestStatusCompleted {
			request.CompletedAt = nil
		}
		return s.transition(ctx, tx, request, status)
	})
	if err != nil {
		return nil, err
	}

	invalidateStats(ctx, s.stats)
	return s.details(ctx, id)
}

// Statistics aggregates over every request for admins, optionally narrowed
// to one requester, and over the caller's own requests otherwise.
func (s *RequestService) Statistics(ctx context.Context, principal model.Principal, requesterID *uint) (*model.RequestStatistics, error) {
	scope := requesterID
	if !principal.IsAdmin() {
		scope = &principal.UserID
	}

	key := "requests:all"
	if scope != nil {
		key = fmt.Sprintf("requests:requester:%d", *scope)
	}

	var cached model.RequestStatistics
	hit, err := s.stats.Get(ctx, key, &cached)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("statistics cache read failed")
	}
	if hit {
		return &cached, nil
	}

	counts, err := s.store.Requests.StatusCounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	high, err := s.store.Requests.CountByPriority(ctx, scope, model.PriorityHigh)
	if err != nil {
		return nil, err
	}
	spans, err := s.store.Requests.CompletionSpans(ctx, scope)
	if err != nil {
		return nil, err
	}

	stats := &model.RequestStatistics{
		PendingRequests:       counts[model.RequestStatusPending],
		InProgressRequests:    counts[model.RequestStatusInProgress],
		CompletedRequests:     counts[model.RequestStatusCompleted],
		CancelledRequests:     counts[model.RequestStatusCancelled],
		HighPriorityRequests:  high,
		AverageCompletionTime: model.AverageCompletionHours(spans),
	}
	for _, n := range counts {
		stats.TotalRequests += n
	}

	if err := s.stats.Set(ctx, key, stats); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("statistics cache write failed")
	}
	return stats, nil
}

// Export renders every request as an XLSX workbook. Admin only.
func (s *RequestService) Export(ctx context.Context, principal model.Principal) (*bytes.Buffer, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	requests, err := s.list(ctx, principal, false, repository.RequestListFilter{PreloadAll: true})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteRequests(&buf, requests); err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return &buf, nil
}

// transition applies the status change and persists the request and, when it
// changed, the equipment status.
func (s *RequestService) transition(ctx context.Context, tx *repository.Store, request *model.MaintenanceRequest, status model.RequestStatus) error {
	equipment, err := tx.Equipment.GetByID(ctx, request.EquipmentID)
	if err != nil {
		return mapNotFound(err)
	}

	t := model.ApplyStatus(*request, *equipment, status, s.now().UTC())
	*request = t.Request
	if err := tx.Requests.Update(ctx, request); err != nil {
		return err
	}
	if t.EquipmentChanged {
		return tx.Equipment.UpdateStatus(ctx, equipment.ID, t.Equipment.Status)
	}
	return nil
}

// releaseEquipment returns equipment left under repair to service once no
// other request is working on it.
func (s *RequestService) releaseEquipment(ctx context.Context, tx *repository.Store, equipmentID, requestID uint) error {
	equipment, err := tx.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return mapNotFound(err)
	}
	if equipment.Status != model.EquipmentStatusUnderRepair {
		return nil
	}
	busy, err := tx.Requests.CountInProgressOn(ctx, equipmentID, requestID)
	if err != nil || busy > 0 {
		return err
	}
	return tx.Equipment.UpdateStatus(ctx, equipmentID, model.EquipmentStatusActive)
}

func (s *RequestService) details(ctx context.Context, id uint) (*model.MaintenanceRequest, error) {
	request, err := s.store.Requests.GetDetails(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := decorateRequests(ctx, s.store, []*model.MaintenanceRequest{request}); err != nil {
		return nil, err
	}
	return request, nil
}

// visibility returns nil for admins, who see every request.
func (s *RequestService) visibility(ctx context.Context, principal model.Principal) (*repository.Visibility, error) {
	if principal.IsAdmin() {
		return nil, nil
	}
	v := &repository.Visibility{UserID: principal.UserID}
	if principal.IsTechnician() {
		technician, err := s.store.Technicians.GetByUserID(ctx, principal.UserID)
		switch {
		case err == nil:
			v.TechnicianID = &technician.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return v, nil
}

func visible(v *repository.Visibility, request *model.MaintenanceRequest) bool {
	if v == nil {
		return true
	}
	return request.RequesterID == v.UserID || assignedTo(v, request)
}

// authorizeStatusChange decides who may move request to status. Admins may
// always. Technicians may while the request is assigned to them and still
// open. The requester may cancel a request that is still pending.
func authorizeStatusChange(principal model.Principal, v *repository.Visibility, request *model.MaintenanceRequest, status model.RequestStatus) error {
	if principal.IsAdmin() {
		return nil
	}
	if principal.IsTechnician() && assignedTo(v, request) && lo.Contains(model.OpenStatuses, request.Status) {
		return nil
	}
	if request.RequesterID == principal.UserID &&
		request.Status == model.RequestStatusPending &&
		status == model.RequestStatusCancelled {
		return nil
	}
	return ErrPermissionDenied
}

func assignedTo(v *repository.Visibility, request *model.MaintenanceRequest) bool {
	return v != nil && v.TechnicianID != nil &&
		request.AssignedTechnicianID != nil && *request.AssignedTechnicianID == *v.TechnicianID
}
