// Package services – AccountService
//
// This file implements registration and login for the two disjoint user
// classes (patients and admins). Passwords are bcrypt-hashed on the way in
// and never stored raw; logins return a short-lived HS256 JWT carrying
// either a patient id or an admin id, which the HTTP auth middleware
// resolves back into an explicit identity for every downstream call.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mrahman/clinic-portal-backend/internal/domain"
	"github.com/mrahman/clinic-portal-backend/internal/repo"
)

// minPasswordLen matches the portal's registration rule.
const minPasswordLen = 6

// ErrBadToken is returned when a presented JWT cannot be verified.
var ErrBadToken = errors.New("invalid token")

// Role distinguishes the two user classes inside issued tokens.
type Role string

const (
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	Subject string `json:"sub_id"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// AccountService implements the identity store operations.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Secret signs and verifies issued tokens.
	Secret string
	// TokenTTL bounds token lifetime; defaults to 15 minutes when zero.
	TokenTTL time.Duration
}

// NewAccountService constructs an AccountService with the default TTL.
func NewAccountService(db *gorm.DB, secret string) *AccountService {
	return &AccountService{DB: db, Secret: secret, TokenTTL: 15 * time.Minute}
}

// RegisterPatient creates a patient account. The caller-chosen id becomes
// the patient's external identifier.
func (s *AccountService) RegisterPatient(ctx context.Context, id, name, email, password string) (*domain.Patient, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(email) == "" {
		return nil, ErrMissingField
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	p, err := repo.CreatePatient(ctx, s.DB, id, name, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return p, nil
}

// LoginPatient verifies a patient's credentials and returns a signed token.
func (s *AccountService) LoginPatient(ctx context.Context, email, password string) (string, *domain.Patient, error) {
	p, err := repo.GetPatientByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !checkPassword(p.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := s.makeToken(p.ID, RolePatient)
	if err != nil {
		return "", nil, err
	}
	return tok, p, nil
}

// RegisterAdmin creates an admin account. Unlike the patient flow the id is
// generated server-side.
func (s *AccountService) RegisterAdmin(ctx context.Context, name, email, password string) (*domain.Admin, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrMissingField
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	a, err := repo.CreateAdmin(ctx, s.DB, name, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return a, nil
}

// LoginAdmin verifies an admin's credentials and returns a signed token.
func (s *AccountService) LoginAdmin(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	a, err := repo.GetAdminByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !checkPassword(a.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := s.makeToken(a.ID, RoleAdmin)
	if err != nil {
		return "", nil, err
	}
	return tok, a, nil
}

// ParseToken verifies a presented token and returns its claims.
func (s *AccountService) ParseToken(raw string) (*Claims, error) {
	return ParseToken(raw, s.Secret)
}

// ParseToken verifies raw against secret, rejecting any non-HMAC signing
// method to block algorithm-confusion attacks.
func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}

func (s *AccountService) makeToken(subject string, role Role) (string, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	c := Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.Secret))
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
