package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"staff-api/internal/apperr"
)

const (
	defaultTokenTTL = 24 * time.Hour
	tokenType       = "access"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")
	ErrAccountDeactivated = apperr.New(apperr.KindUnauthorized, "account is deactivated")
	ErrAccountLocked      = apperr.New(apperr.KindLocked, "account temporarily locked due to too many failed login attempts")

	ErrMissingToken    = apperr.New(apperr.KindUnauthorized, "access denied, no token provided")
	ErrInvalidToken    = apperr.New(apperr.KindUnauthorized, "invalid token")
	ErrTokenExpired    = apperr.New(apperr.KindUnauthorized, "token expired")
	ErrAccountNotFound = apperr.New(apperr.KindUnauthorized, "account not found")
	ErrAccountInactive = apperr.New(apperr.KindUnauthorized, "account is inactive")
)

type Store interface {
	GetByUsername(ctx context.Context, username string) (Admin, error)
	GetByID(ctx context.Context, id string) (Admin, error)
	RegisterFailedAttempt(ctx context.Context, id string, policy LockPolicy, now time.Time) (LockState, error)
	RecordLogin(ctx context.Context, id string, now time.Time) error
	UpsertAdmin(ctx context.Context, admin Admin) error
}

type Service struct {
	store     Store
	jwtSecret []byte
	tokenTTL  time.Duration
	policy    LockPolicy
	now       func() time.Time
}

func NewService(store Store, jwtSecret string) *Service {
	return &Service{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  defaultTokenTTL,
		policy:    DefaultLockPolicy(),
		now:       time.Now,
	}
}

func (s *Service) WithSecurityConfig(maxAttempts int, lockDuration time.Duration, tokenTTL time.Duration) {
	if maxAttempts > 0 {
		s.policy.MaxAttempts = maxAttempts
	}
	if lockDuration > 0 {
		s.policy.Window = lockDuration
	}
	if tokenTTL > 0 {
		s.tokenTTL = tokenTTL
	}
}

func (s *Service) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login checks, in order: existence, lock window, active flag, password.
// Only a password mismatch consumes an attempt.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	admin, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			burnCompare(password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if admin.IsLocked(now) {
		return Session{}, apperr.Locked(ErrAccountLocked.Message, *admin.LockUntil)
	}
	if !admin.IsActive {
		return Session{}, ErrAccountDeactivated
	}

	if !CheckPassword(admin.PasswordHash, password) {
		if _, err := s.store.RegisterFailedAttempt(ctx, admin.ID, s.policy, now); err != nil {
			return Session{}, err
		}
		return Session{}, ErrInvalidCredentials
	}

	if err := s.store.RecordLogin(ctx, admin.ID, now); err != nil {
		return Session{}, err
	}
	admin.LoginAttempts = 0
	admin.LockUntil = nil
	admin.LastLogin = &now

	token, err := s.issueToken(admin, now)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokenTTL.Seconds()),
		Admin:     admin.Profile(),
	}, nil
}

// Authenticate resolves a bearer token to an active admin.
func (s *Service) Authenticate(ctx context.Context, token string) (Admin, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Admin{}, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Admin{}, apperr.Wrap(ErrTokenExpired, err)
		}
		return Admin{}, apperr.Wrap(ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Type != tokenType || claims.Subject == "" {
		return Admin{}, ErrInvalidToken
	}

	admin, err := s.store.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return Admin{}, ErrAccountNotFound
		}
		return Admin{}, err
	}
	if !admin.IsActive {
		return Admin{}, ErrAccountInactive
	}

	return admin, nil
}

func (s *Service) issueToken(admin Admin, now time.Time) (string, error) {
	claims := Claims{
		Username: admin.Username,
		Role:     admin.Role,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return encoded, nil
}

// BootstrapFromEnv seeds one admin account. Hashing happens here, before the
// record reaches the store.
func (s *Service) BootstrapFromEnv(ctx context.Context, username, email, password, role string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)

	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required together")
	}
	if email == "" {
		email = strings.ToLower(username) + "@localhost"
	}

	adminRole := Role(strings.TrimSpace(role))
	if adminRole == "" {
		adminRole = RoleAdmin
	}
	if !adminRole.Valid() {
		return fmt.Errorf("invalid admin role %q", role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return s.store.UpsertAdmin(ctx, Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         adminRole,
		IsActive:     true,
	})
}
