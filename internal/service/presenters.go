package service

import (
	"context"

	"github.com/samber/lo"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

func decorateUser(user *model.User, role model.Role) {
	if user == nil {
		return
	}
	user.FullName = user.DisplayName()
	user.Role = role
}

// decorateUsers resolves the role of each user with one technician lookup.
func decorateUsers(ctx context.Context, store *repository.Store, users []*model.User) error {
	users = lo.Filter(users, func(u *model.User, _ int) bool { return u != nil })
	if len(users) == 0 {
		return nil
	}
	techUserIDs, err := store.Technicians.UserIDs(ctx)
	if err != nil {
		return err
	}
	technicians := lo.SliceToMap(techUserIDs, func(id uint) (uint, struct{}) { return id, struct{}{} })
	for _, u := range users {
		_, hasTechnician := technicians[u.ID]
		decorateUser(u, model.ResolveRole(u.IsSuperuser, u.IsStaff, hasTechnician))
	}
	return nil
}

func decorateTechnicians(ctx context.Context, store *repository.Store, technicians []*model.Technician) error {
	technicians = lo.Filter(technicians, func(t *model.Technician, _ int) bool { return t != nil })
	if len(technicians) == 0 {
		return nil
	}
	ids := lo.Uniq(lo.Map(technicians, func(t *model.Technician, _ int) uint { return t.ID }))
	counts, err := store.Technicians.ActiveJobCounts(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range technicians {
		t.ActiveJobs = counts[t.ID]
		if t.User != nil {
			decorateUser(t.User, model.ResolveRole(t.User.IsSuperuser, t.User.IsStaff, true))
		}
	}
	return nil
}

func decorateEquipment(ctx context.Context, store *repository.Store, equipment []*model.Equipment) error {
	equipment = lo.Filter(equipment, func(e *model.Equipment, _ int) bool { return e != nil })
	if len(equipment) == 0 {
		return nil
	}
	ids := lo.Uniq(lo.Map(equipment, func(e *model.Equipment, _ int) uint { return e.ID }))
	counts, err := store.Equipment.RequestCounts(ctx, ids)
	if err != nil {
		return err
	}
	for _, e := range equipment {
		e.TotalMaintenanceRequests = counts[e.ID]
	}
	return nil
}

// decorateRequests fills the computed fields of every nested relation.
func decorateRequests(ctx context.Context, store *repository.Store, requests []*model.MaintenanceRequest) error {
	var (
		users       []*model.User
		equipment   []*model.Equipment
		technicians []*model.Technician
	)
	for _, r := range requests {
		users = append(users, r.Requester)
		equipment = append(equipment, r.Equipment)
		technicians = append(technicians, r.AssignedTechnician)
		for i := range r.RepairLogs {
			technicians = append(technicians, r.RepairLogs[i].Technician)
		}
	}
	if err := decorateUsers(ctx, store, users); err != nil {
		return err
	}
	if err := decorateEquipment(ctx, store, equipment); err != nil {
		return err
	}
	return decorateTechnicians(ctx, store, technicians)
}

func pointers[T any](items []T) []*T {
	return lo.Map(items, func(_ T, i int) *T { return &items[i] })
}
