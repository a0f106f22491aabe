package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const DefaultTokenTTL = 8 * time.Hour

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	Store  UserStore
	Secret string
	TTL    time.Duration
	Logger *zap.Logger
}

func NewService(store UserStore, secret string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Secret: secret, TTL: DefaultTokenTTL, Logger: logger.Named("auth")}
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserContext `json:"user"`
}

// Login verifies the password and issues a signed token. Unknown users and wrong
// passwords return the same error.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email, RoleName: user.RoleName}, s.TTL)
	if err != nil {
		return Session{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.Logger.Warn("update last_login failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.Logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", user.RoleName))
	return s.session(user, token), nil
}

// Refresh issues a new token for an authenticated caller. The user must still be
// active, and the role is re-read so role changes take effect.
func (s *Service) Refresh(ctx context.Context, caller UserContext) (Session, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, caller.Email)
	if err != nil || user.ID != caller.UserID {
		return Session{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email, RoleName: user.RoleName}, s.TTL)
	if err != nil {
		return Session{}, err
	}
	return s.session(user, token), nil
}

func (s *Service) session(user AuthUser, token string) Session {
	return Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.TTL),
		User:      UserContext{UserID: user.ID, Email: user.Email, RoleName: user.RoleName},
	}
}
