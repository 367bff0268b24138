package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	Heartbeat(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo    repository.UserRepository
	publisher   events.Publisher
	idleTimeout time.Duration
	log         zerolog.Logger
}

// NewAuthService builds the auth service. A zero idleTimeout disables the
// inactivity check.
func NewAuthService(userRepo repository.UserRepository, publisher events.Publisher, idleTimeout time.Duration) AuthService {
	return &authService{
		userRepo:    userRepo,
		publisher:   publisher,
		idleTimeout: idleTimeout,
		log:         logger.WithComponent("auth-service"),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("find user", err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new version invalidates tokens issued before
	tokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, tokenVersion); err != nil {
		return nil, storageErr("update session", err)
	}
	if err := s.userRepo.UpdateLastSeen(ctx, user.ID); err != nil {
		return nil, storageErr("update session", err)
	}
	now := time.Now()
	user.TokenVersion = tokenVersion
	user.LastSeenAt = &now

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.GetPrivilegeCodes(), tokenVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	userLog := logger.WithUserID(user.ID.String())
	userLog.Info().Str("email", user.Email).Msg("User logged in")
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("find user", err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	if user.SessionIdle(s.idleTimeout, time.Now()) {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(ctx, userID); err != nil {
		return storageErr("update last seen", err)
	}

	notify(ctx, s.publisher, s.log, events.Event{
		Type:   "user_status_update",
		Action: "online",
		Data: map[string]interface{}{
			"id":           userID.String(),
			"last_seen_at": time.Now().UTC(),
		},
		User: events.User{ID: userID.String()},
	})
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storageErr("find user", err)
	}

	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	return s.setPassword(ctx, user, newPassword)
}

// ResetPassword sets a new password without the old one and logs out every
// session. It backs the admin CLI, not the HTTP API.
func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storageErr("find user", err)
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *authService) setPassword(ctx context.Context, user *model.User, newPassword string) error {
	if len(newPassword) < 6 {
		return &ValidationError{Field: "Password", Tag: "min", Param: "6"}
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return storageErr("update password", err)
	}
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		return storageErr("invalidate sessions", err)
	}
	s.log.Info().Str("user_id", user.ID.String()).Msg("Password changed")
	return nil
}
