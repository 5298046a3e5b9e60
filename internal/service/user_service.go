package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserService manages internal staff accounts.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// RegisterInput describes a new staff account.
type RegisterInput struct {
	Username string
	Password string
	Division string
	Role     string
}

// UsernamesByDivision lists staff usernames of a division, used to fill
// assignee pickers. An empty division means the caller's own.
func (s *UserService) UsernamesByDivision(ctx context.Context, p domain.Principal, rawDivision string) ([]string, error) {
	staff, err := policy.RequireInternal(p)
	if err != nil {
		return nil, err
	}
	division := staff.Division
	if strings.TrimSpace(rawDivision) != "" {
		division, err = domain.ParseDivision(rawDivision)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid division", map[string]any{"division": rawDivision})
		}
	}
	return s.users.ListUsernamesByDivision(ctx, division)
}

// Register provisions a staff account. Only managers may call it.
func (s *UserService) Register(ctx context.Context, p domain.Principal, input RegisterInput) (*domain.User, error) {
	if err := policy.CanProvisionUsers(p); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}
	division, err := domain.ParseDivision(input.Division)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid division", map[string]any{"division": input.Division})
	}
	role := domain.RoleEmployee
	if input.Role != "" {
		role = domain.InternalRole(strings.ToLower(strings.TrimSpace(input.Role)))
		if !role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
		}
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already exists", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Division:     division,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent insert surfaces as a unique violation
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
