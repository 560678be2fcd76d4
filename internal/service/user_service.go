package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

type UserService struct {
	store *repository.Store
	stats StatsCache
}

func NewUserService(store *repository.Store, stats StatsCache) *UserService {
	return &UserService{
		store: store,
		stats: stats,
	}
}

func (s *UserService) Me(ctx context.Context, principal model.Principal) (*model.User, error) {
	return s.load(ctx, principal.UserID)
}

func (s *UserService) List(ctx context.Context, principal model.Principal) ([]model.User, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := decorateUsers(ctx, s.store, pointers(users)); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, principal model.Principal, id uint) (*model.User, error) {
	if !principal.IsAdmin() && principal.UserID != id {
		return nil, ErrNotFound
	}
	return s.load(ctx, id)
}

type UpdateUserInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	IsActive  *bool
	IsStaff   *bool
}

// Update edits profile fields. Only admins may change is_active and is_staff.
func (s *UserService) Update(ctx context.Context, principal model.Principal, id uint, input UpdateUserInput) (*model.User, error) {
	if !principal.IsAdmin() && principal.UserID != id {
		return nil, ErrNotFound
	}
	if !principal.IsAdmin() && (input.IsActive != nil || input.IsStaff != nil) {
		return nil, ErrPermissionDenied
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	fields := fieldErrors{}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			fields.add("username", "This field may not be blank.")
		} else {
			taken, err := s.store.Users.UsernameTaken(ctx, username, id)
			if err != nil {
				return nil, err
			}
			if taken {
				fields.add("username", "A user with that username already exists.")
			}
			user.Username = username
		}
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidField("username", "A user with that username already exists.")
		}
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, principal model.Principal, id uint) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if err := s.store.Users.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	invalidateStats(ctx, s.stats)
	return nil
}

func (s *UserService) RolesSummary(ctx context.Context, principal model.Principal) (*model.RolesSummary, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	users, err := s.List(ctx, principal)
	if err != nil {
		return nil, err
	}

	summary := &model.RolesSummary{TotalUsers: int64(len(users))}
	for _, u := range users {
		switch u.Role {
		case model.RoleAdmin:
			summary.Admins++
		case model.RoleTechnician:
			summary.Technicians++
		default:
			summary.Users++
		}
	}
	return summary, nil
}

func (s *UserService) MakeAdmin(ctx context.Context, principal model.Principal, id uint) (*model.User, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := s.store.Users.SetStaff(ctx, id, true); err != nil {
		return nil, mapNotFound(err)
	}
	return s.load(ctx, id)
}

// RemoveAdmin clears the staff flag. Superusers cannot be demoted this way.
func (s *UserService) RemoveAdmin(ctx context.Context, principal model.Principal, id uint) (*model.User, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if user.IsSuperuser {
		return nil, ErrPermissionDenied
	}
	if err := s.store.Users.SetStaff(ctx, id, false); err != nil {
		return nil, mapNotFound(err)
	}
	return s.load(ctx, id)
}

func (s *UserService) load(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := decorateUsers(ctx, s.store, []*model.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}
