package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
)

const minPasswordLength = 6

type AuthService struct {
	store  *repository.Store
	issuer *auth.Issuer
	parser *auth.Parser
	now    func() time.Time
}

func NewAuthService(store *repository.Store, issuer *auth.Issuer, parser *auth.Parser, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		store:  store,
		issuer: issuer,
		parser: parser,
		now:    now,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	fields := fieldErrors{}
	if input.Username == "" {
		fields.add("username", "This field is required.")
	}
	if len(input.Password) < minPasswordLength {
		fields.add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
	if len(input.PasswordConfirm) < minPasswordLength {
		fields.add("password_confirm", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
	if input.Password != input.PasswordConfirm {
		fields.add("password_confirm", "Passwords do not match.")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	taken, err := s.store.Users.UsernameTaken(ctx, input.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalidField("username", "A user with that username already exists.")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		IsActive:     true,
		DateJoined:   s.now().UTC(),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidField("username", "A user with that username already exists.")
		}
		return nil, err
	}

	decorateUser(user, model.RoleUser)
	return user, nil
}

type LoginResult struct {
	Tokens auth.TokenPair
	User   *model.User
}

// Login checks the credentials and issues an access/refresh pair carrying the
// resolved role.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.store.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}

	role, err := s.roleOf(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issuer.Issue(user, role)
	if err != nil {
		return nil, err
	}

	decorateUser(user, role)
	return &LoginResult{Tokens: tokens, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The role is
// resolved again from the current user record.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parser.ParseRefresh(refreshToken)
	if err != nil {
		return "", ErrUnauthorized
	}

	user, err := s.store.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrUnauthorized
	}

	role, err := s.roleOf(ctx, user)
	if err != nil {
		return "", err
	}
	return s.issuer.IssueAccess(user, role)
}

// Principal rebuilds the caller from the current user record so role
// changes apply before the access token expires. Missing or inactive users
// are unauthorized.
func (s *AuthService) Principal(ctx context.Context, userID uint) (model.Principal, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Principal{}, ErrUnauthorized
		}
		return model.Principal{}, err
	}
	if !user.IsActive {
		return model.Principal{}, ErrUnauthorized
	}

	role, err := s.roleOf(ctx, user)
	if err != nil {
		return model.Principal{}, err
	}
	return model.Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		Superuser: user.IsSuperuser,
	}, nil
}

func (s *AuthService) roleOf(ctx context.Context, user *model.User) (model.Role, error) {
	hasTechnician, err := s.store.Technicians.ExistsForUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	return model.ResolveRole(user.IsSuperuser, user.IsStaff, hasTechnician), nil
}
