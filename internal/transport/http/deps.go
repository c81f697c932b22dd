package http

import (
	"context"

	"github.com/servicehub/servicehub-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, resetToken string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ClearResetToken(ctx context.Context, userID string) error
}

// OtpRepository is the minimal interface the router requires from an OTP store.
type OtpRepository interface {
	Put(ctx context.Context, o *domain.OtpRecord) error
	ListUnused(ctx context.Context, identifier string) ([]domain.OtpRecord, error)
	// Consume must be an atomic conditional update: it returns false, nil when
	// the record was already used.
	Consume(ctx context.Context, otpID string) (bool, error)
	DeleteExpired(ctx context.Context, now int64) (int, error)
}
