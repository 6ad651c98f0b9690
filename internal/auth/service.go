package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"novatrade/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionTTL        = 7 * 24 * time.Hour
	minPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("session expired or invalid")
	ErrInvalidEmail       = errors.New("a valid email address is required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*repository.User, error)
	FindByEmail(ctx context.Context, email string) (*repository.User, error)
	FindByID(ctx context.Context, id int64) (*repository.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

type SessionStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Session is a signed-in user's handle: an opaque token plus identity.
type Session struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Service implements password accounts with opaque session tokens kept in
// Redis. Authentication loss is the only condition that tears a dashboard
// down, so session checks happen per request, not per fetch.
type Service struct {
	tracer   trace.Tracer
	users    UserStore
	sessions SessionStore
}

func NewService(tracer trace.Tracer, users UserStore, sessions SessionStore) *Service {
	return &Service{tracer: tracer, users: users, sessions: sessions}
}

// CreateAccount registers a new user and signs them in.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.create-account")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// SignInWithPassword verifies credentials and opens a session.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.sign-in")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// SignOut invalidates a session token. Unknown tokens are not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "auth.sign-out")
	defer span.End()

	return s.sessions.Del(ctx, sessionKey(token)).Err()
}

// Authenticate resolves a session token to a user ID.
func (s *Service) Authenticate(ctx context.Context, token string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "auth.authenticate")
	defer span.End()

	if token == "" {
		return 0, ErrInvalidSession
	}
	val, err := s.sessions.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrInvalidSession
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrInvalidSession
	}
	return userID, nil
}

func (s *Service) openSession(ctx context.Context, user *repository.User) (*Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.sessions.Set(ctx, sessionKey(token), strconv.FormatInt(user.ID, 10), sessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	_ = s.users.UpdateLastLogin(ctx, user.ID)

	return &Session{Token: token, UserID: user.ID, Email: user.Email}, nil
}

func sessionKey(token string) string {
	return "session:" + token
}
