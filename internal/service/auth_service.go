package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	throttleScopeInternal = "internal"
	throttleScopeClient   = "client"
)

// AuthService coordinates login and password change flows for both account kinds.
type AuthService struct {
	users       repository.UserRepository
	clientUsers repository.ClientUserRepository
	tokenMgr    *auth.TokenManager
	throttle    *auth.LoginThrottle
	bcryptCost  int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	ClientUserRepo repository.ClientUserRepository
	TokenManager   *auth.TokenManager
	Throttle       *auth.LoginThrottle
}

// LoginResult is returned by both login flows.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret,
			time.Duration(cfg.InternalTokenTTLMinutes)*time.Minute,
			time.Duration(cfg.ClientTokenTTLMinutes)*time.Minute)
	}
	return &AuthService{
		users:       deps.UserRepo,
		clientUsers: deps.ClientUserRepo,
		tokenMgr:    tokens,
		throttle:    deps.Throttle,
		bcryptCost:  cfg.BcryptCost,
	}
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid credentials")
}

// LoginInternal authenticates a staff member.
func (s *AuthService) LoginInternal(ctx context.Context, username, password string) (*domain.User, LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, LoginResult{}, apperrors.NewValidationError("username and password are required", nil)
	}
	if err := s.throttle.Allow(ctx, throttleScopeInternal, username); err != nil {
		return nil, LoginResult{}, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.throttle.Fail(ctx, throttleScopeInternal, username)
			return nil, LoginResult{}, invalidCredentials()
		}
		return nil, LoginResult{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.throttle.Fail(ctx, throttleScopeInternal, username)
		return nil, LoginResult{}, invalidCredentials()
	}
	s.throttle.Reset(ctx, throttleScopeInternal, username)

	token, exp, err := s.tokenMgr.IssueInternal(user)
	if err != nil {
		return nil, LoginResult{}, apperrors.NewInternalError(err)
	}
	return user, LoginResult{Token: token, ExpiresAt: exp}, nil
}

// LoginClient authenticates a client portal user.
func (s *AuthService) LoginClient(ctx context.Context, email, password string) (*domain.ClientUser, LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, LoginResult{}, apperrors.NewValidationError("email and password are required", nil)
	}
	if err := s.throttle.Allow(ctx, throttleScopeClient, email); err != nil {
		return nil, LoginResult{}, err
	}

	user, err := s.clientUsers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.throttle.Fail(ctx, throttleScopeClient, email)
			return nil, LoginResult{}, invalidCredentials()
		}
		return nil, LoginResult{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.throttle.Fail(ctx, throttleScopeClient, email)
		return nil, LoginResult{}, invalidCredentials()
	}
	s.throttle.Reset(ctx, throttleScopeClient, email)

	token, exp, err := s.tokenMgr.IssueClient(user)
	if err != nil {
		return nil, LoginResult{}, apperrors.NewInternalError(err)
	}
	return user, LoginResult{Token: token, ExpiresAt: exp}, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.NewValidationError("current and new password are required", nil)
	}

	switch v := p.(type) {
	case domain.InternalPrincipal:
		user, err := s.users.GetByUsername(ctx, v.Username)
		if err != nil {
			return notFoundAs(err, "user")
		}
		if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
		hash, err := auth.HashPassword(newPassword, s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return s.users.UpdatePassword(ctx, v.Username, hash)
	case domain.ClientPrincipal:
		user, err := s.clientUsers.GetByID(ctx, v.ID)
		if err != nil {
			return notFoundAs(err, "user")
		}
		if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
		hash, err := auth.HashPassword(newPassword, s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return s.clientUsers.UpdatePassword(ctx, v.ID, hash)
	case nil:
		return apperrors.NewUnauthorized("authentication required")
	default:
		return apperrors.NewForbidden("unsupported principal")
	}
}

func notFoundAs(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}
