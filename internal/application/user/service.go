package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/servicehub/servicehub-api/internal/domain"
	"github.com/servicehub/servicehub-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPasswordHash        = "password_hash"
	fieldIsPhoneVerified     = "is_phone_verified"
	fieldIsEmailVerified     = "is_email_verified"
	fieldResetToken          = "reset_token"
	fieldResetTokenExpiresAt = "reset_token_expires_at"
)

// Service resolves phone numbers and emails to durable identities.
type Service interface {
	// ResolveOrCreateByPhone returns the identity owning the phone number,
	// creating one on first use. A fresh identity is not phone-verified yet —
	// flipping the flag after OTP success is the caller's job.
	ResolveOrCreateByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	CreateWithPassword(ctx context.Context, req domain.EmailRegisterRequest) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetToken(ctx context.Context, resetToken string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	MarkPhoneVerified(ctx context.Context, userID string) error
	MarkEmailVerified(ctx context.Context, userID string) error
	SetResetToken(ctx context.Context, userID, token string, expiresAt int64) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, resetToken string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ClearResetToken(ctx context.Context, userID string) error
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) ResolveOrCreateByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	u, err := s.repo.GetByPhone(ctx, phoneNumber)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	u = &domain.User{
		UserID:      id.New(),
		PhoneNumber: &phoneNumber,
		Role:        domain.RoleCustomer,
		AuthMethod:  domain.AuthMethodPhone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) CreateWithPassword(ctx context.Context, req domain.EmailRegisterRequest) (*domain.User, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	firstName, lastName := splitFullName(req.FullName)
	now := time.Now().UTC()
	email := req.Email
	u := &domain.User{
		UserID:       id.New(),
		Email:        &email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         domain.RoleCustomer,
		AuthMethod:   domain.AuthMethodEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) FindByResetToken(ctx context.Context, resetToken string) (*domain.User, error) {
	return s.repo.GetByResetToken(ctx, resetToken)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// MarkPhoneVerified is idempotent; flipping an already-true flag is harmless.
func (s *service) MarkPhoneVerified(ctx context.Context, userID string) error {
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldIsPhoneVerified: true})
}

func (s *service) MarkEmailVerified(ctx context.Context, userID string) error {
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldIsEmailVerified: true})
}

func (s *service) SetResetToken(ctx context.Context, userID, token string, expiresAt int64) error {
	return s.repo.Update(ctx, userID, map[string]interface{}{
		fieldResetToken:          token,
		fieldResetTokenExpiresAt: expiresAt,
	})
}

func (s *service) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return err
	}
	return s.repo.ClearResetToken(ctx, userID)
}

// VerifyPassword reports whether plaintext matches the stored hash. An identity
// without a hash (phone-only account) simply fails the check; that is a valid
// outcome, not an error.
func VerifyPassword(u *domain.User, plaintext string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

func splitFullName(fullName string) (string, string) {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
