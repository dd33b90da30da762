package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"weightlog/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService handles authentication and session management.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	sessionTTL time.Duration
}

// NewAuthService creates a new authentication service. Sessions live for
// sessionTTL before they expire.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Login authenticates a user and creates a session, returning the token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	if err := s.sessions.Create(ctx, user.ID, token, time.Now().Add(s.sessionTTL)); err != nil {
		return "", err
	}

	log.Debugf("user %d logged in", user.ID)
	return token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession resolves a session token to its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// CreateInitialUser creates the first user if no users exist yet.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("users already exist")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.users.Create(ctx, username, string(hash))
	return err
}

// ValidateForwardAuth resolves the Remote-User header set by a forward
// auth proxy, auto-provisioning the user on first sight.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}

	user, err := s.users.GetByUsername(ctx, remoteUser)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.users.Create(ctx, remoteUser, "")
		if err != nil {
			return nil, err
		}
		log.Infof("auto-provisioned forward-auth user %q", remoteUser)
	}

	return user, nil
}

// LoginWithUser creates a session for an already authenticated user
// (e.g. after an SSO callback), auto-provisioning if missing.
func (s *AuthService) LoginWithUser(ctx context.Context, username string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		// SSO users carry no local password.
		user, err = s.users.Create(ctx, username, "")
		if err != nil {
			// Creation can race a concurrent first login on the unique
			// username constraint; fall back to re-reading.
			user, err = s.users.GetByUsername(ctx, username)
			if err != nil {
				return "", err
			}
			if user == nil {
				return "", ErrUserNotFound
			}
		}
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	if err := s.sessions.Create(ctx, user.ID, token, time.Now().Add(s.sessionTTL)); err != nil {
		return "", err
	}

	return token, nil
}

// CleanupExpiredSessions removes all expired sessions.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
