package service

import (
	"context"
	"strings"

	"inventory-service/config"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionStore binds the current operator to a session token
type SessionStore interface {
	CurrentUser(ctx context.Context, token string) *models.User
	SetCurrentUser(ctx context.Context, token string, user *models.User) error
}

// AuthService checks the configured admin credentials and manages sessions
type AuthService struct {
	sessions SessionStore
	cfg      config.AuthConfig
	newToken func() string
	logger   *zap.Logger
}

func NewAuthService(sessions SessionStore, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		sessions: sessions,
		cfg:      cfg,
		newToken: uuid.NewString,
		logger:   util.GetLogger(),
	}
}

// Login returns a new session token for the admin. The email match ignores case.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	if s.cfg.AdminPasswordHash == "" ||
		!strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(s.cfg.AdminEmail)) {
		return "", models.User{}, reject(KindUnauthorized, ErrInvalidCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", models.User{}, reject(KindUnauthorized, ErrInvalidCredentials, "invalid email or password")
	}

	user := models.User{ID: s.cfg.AdminID, Name: s.cfg.AdminName}
	token := s.newToken()
	if err := s.sessions.SetCurrentUser(ctx, token, &user); err != nil {
		util.FailSpan(span, err)
		return "", models.User{}, &Error{Kind: KindPersistence, Message: "failed to start session", Err: err}
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return token, user, nil
}

// Logout ends the session; failures are only logged
func (s *AuthService) Logout(ctx context.Context, token string) {
	if err := s.sessions.SetCurrentUser(ctx, token, nil); err != nil {
		s.logger.Warn("Failed to clear session", zap.Error(err))
	}
}

// CurrentUser resolves a token; nil means no session
func (s *AuthService) CurrentUser(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}
	return s.sessions.CurrentUser(ctx, token)
}
