package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/testfixtures"
)

func TestRequestRepositoryLastCodeWithPrefix(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	code, err := store.Requests.LastCodeWithPrefix(ctx, "REQ20240315")
	require.NoError(t, err)
	assert.Empty(t, code)

	user := testfixtures.CreateUser(t, db)
	equipment := testfixtures.CreateEquipment(t, db)
	for _, c := range []string{"REQ202403150002", "REQ202403150011", "REQ202403140099"} {
		req := &model.MaintenanceRequest{
			RequestCode:        c,
			RequesterID:        user.ID,
			EquipmentID:        equipment.ID,
			ProblemDescription: "broken",
			CreatedAt:          testfixtures.ReferenceTime(),
		}
		require.NoError(t, store.Requests.Create(ctx, req))
	}

	code, err = store.Requests.LastCodeWithPrefix(ctx, "REQ20240315")
	require.NoError(t, err)
	assert.Equal(t, "REQ202403150011", code)
}

func TestRequestRepositoryDuplicateCode(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testfixtures.CreateUser(t, db)
	equipment := testfixtures.CreateEquipment(t, db)
	newRequest := func() *model.MaintenanceRequest {
		return &model.MaintenanceRequest{
			RequestCode:        "REQ202403150001",
			RequesterID:        user.ID,
			EquipmentID:        equipment.ID,
			ProblemDescription: "broken",
			CreatedAt:          testfixtures.ReferenceTime(),
		}
	}

	require.NoError(t, store.Requests.Create(ctx, newRequest()))
	err := store.Requests.Create(ctx, newRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestRequestRepositoryListVisibility(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	equipment := testfixtures.CreateEquipment(t, db)
	alice := testfixtures.CreateUser(t, db)
	bob := testfixtures.CreateUser(t, db)
	tech := testfixtures.CreateTechnician(t, db, nil)

	own := testfixtures.CreateRequest(t, db, alice, equipment)
	assigned := testfixtures.CreateRequest(t, db, bob, equipment, testfixtures.WithAssignee(tech))
	testfixtures.CreateRequest(t, db, bob, equipment)

	all, err := store.Requests.List(ctx, RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.Requests.List(ctx, RequestListFilter{Visibility: &Visibility{UserID: alice.ID}})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, own.ID, mine[0].ID)

	techView, err := store.Requests.List(ctx, RequestListFilter{
		Visibility: &Visibility{UserID: tech.UserID, TechnicianID: &tech.ID},
	})
	require.NoError(t, err)
	require.Len(t, techView, 1)
	assert.Equal(t, assigned.ID, techView[0].ID)
}

func TestRequestRepositoryListFilters(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testfixtures.CreateUser(t, db)
	equipment := testfixtures.CreateEquipment(t, db)
	base := testfixtures.ReferenceTime()

	early := testfixtures.CreateRequest(t, db, user, equipment, testfixtures.WithCreatedAt(base.Add(-48*time.Hour)))
	high := testfixtures.CreateRequest(t, db, user, equipment,
		testfixtures.WithPriority(model.PriorityHigh),
		testfixtures.WithStatus(model.RequestStatusInProgress),
	)

	byStatus, err := store.Requests.List(ctx, RequestListFilter{Statuses: []model.RequestStatus{model.RequestStatusInProgress}})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, high.ID, byStatus[0].ID)

	from := base.Add(-time.Hour)
	recent, err := store.Requests.List(ctx, RequestListFilter{CreatedFrom: &from})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, high.ID, recent[0].ID)

	to := base.Add(-24 * time.Hour)
	older, err := store.Requests.List(ctx, RequestListFilter{CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, early.ID, older[0].ID)
}

func TestRequestRepositoryStatistics(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testfixtures.CreateUser(t, db)
	other := testfixtures.CreateUser(t, db)
	equipment := testfixtures.CreateEquipment(t, db)
	base := testfixtures.ReferenceTime()

	testfixtures.CreateRequest(t, db, user, equipment, testfixtures.WithPriority(model.PriorityHigh))
	testfixtures.CreateRequest(t, db, user, equipment,
		testfixtures.WithStatus(model.RequestStatusCompleted),
		testfixtures.WithCompletedAt(base.Add(2*time.Hour)),
	)
	testfixtures.CreateRequest(t, db, other, equipment, testfixtures.WithStatus(model.RequestStatusCancelled))

	counts, err := store.Requests.StatusCounts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.RequestStatusPending])
	assert.Equal(t, int64(1), counts[model.RequestStatusCompleted])
	assert.Equal(t, int64(1), counts[model.RequestStatusCancelled])

	scoped, err := store.Requests.StatusCounts(ctx, &user.ID)
	require.NoError(t, err)
	assert.Zero(t, scoped[model.RequestStatusCancelled])

	high, err := store.Requests.CountByPriority(ctx, nil, model.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, int64(1), high)

	spans, err := store.Requests.CompletionSpans(ctx, nil)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, 2.0, model.AverageCompletionHours(spans))
}

func TestEquipmentRepositoryDeleteCascades(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testfixtures.CreateUser(t, db)
	tech := testfixtures.CreateTechnician(t, db, nil)
	equipment := testfixtures.CreateEquipment(t, db)
	keep := testfixtures.CreateEquipment(t, db)

	req := testfixtures.CreateRequest(t, db, user, equipment)
	testfixtures.CreateRepairLog(t, db, req, tech, "1.5", "20")
	kept := testfixtures.CreateRequest(t, db, user, keep)

	require.NoError(t, store.Equipment.Delete(ctx, equipment.ID))

	_, err := store.Requests.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	logs, err := store.RepairLogs.List(ctx, RepairLogListFilter{RequestID: &req.ID})
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = store.Requests.GetByID(ctx, kept.ID)
	assert.NoError(t, err)

	err = store.Equipment.Delete(ctx, equipment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTechnicianRepositoryDeleteUnassigns(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	user := testfixtures.CreateUser(t, db)
	tech := testfixtures.CreateTechnician(t, db, nil)
	equipment := testfixtures.CreateEquipment(t, db)
	req := testfixtures.CreateRequest(t, db, user, equipment, testfixtures.WithAssignee(tech))
	testfixtures.CreateRepairLog(t, db, req, tech, "2", "0")

	require.NoError(t, store.Technicians.Delete(ctx, tech.ID))

	got, err := store.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTechnicianID)

	logs, err := store.RepairLogs.List(ctx, RepairLogListFilter{TechnicianID: &tech.ID})
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = store.Users.GetByID(ctx, tech.UserID)
	assert.NoError(t, err)
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	techUser := testfixtures.CreateUser(t, db)
	tech := testfixtures.CreateTechnician(t, db, techUser)
	other := testfixtures.CreateUser(t, db)
	equipment := testfixtures.CreateEquipment(t, db)

	filed := testfixtures.CreateRequest(t, db, techUser, equipment)
	assigned := testfixtures.CreateRequest(t, db, other, equipment, testfixtures.WithAssignee(tech))

	require.NoError(t, store.Users.Delete(ctx, techUser.ID))

	_, err := store.Technicians.GetByID(ctx, tech.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = store.Requests.GetByID(ctx, filed.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := store.Requests.GetByID(ctx, assigned.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTechnicianID)
}

func TestRepairLogRepositorySummary(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	empty, err := store.RepairLogs.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRepairLogs)
	assert.True(t, empty.TotalCost.IsZero())

	user := testfixtures.CreateUser(t, db)
	tech := testfixtures.CreateTechnician(t, db, nil)
	equipment := testfixtures.CreateEquipment(t, db)
	req := testfixtures.CreateRequest(t, db, user, equipment)
	testfixtures.CreateRepairLog(t, db, req, tech, "1.5", "100")
	testfixtures.CreateRepairLog(t, db, req, tech, "2.5", "50")

	summary, err := store.RepairLogs.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalRepairLogs)
	assert.True(t, decimal.NewFromInt(2).Equal(summary.AverageLaborHours), summary.AverageLaborHours.String())
	assert.True(t, decimal.NewFromInt(75).Equal(summary.AverageCost), summary.AverageCost.String())
	assert.True(t, decimal.NewFromInt(4).Equal(summary.TotalLaborHours), summary.TotalLaborHours.String())
	assert.True(t, decimal.NewFromInt(150).Equal(summary.TotalCost), summary.TotalCost.String())
}

func TestStoreTransactionRollsBack(t *testing.T) {
	db := testfixtures.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	equipment := testfixtures.CreateEquipment(t, db)
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Equipment.UpdateStatus(ctx, equipment.ID, model.EquipmentStatusOutOfService); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Equipment.GetByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EquipmentStatusActive, got.Status)
}
