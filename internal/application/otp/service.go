package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/servicehub/servicehub-api/internal/domain"
	"github.com/servicehub/servicehub-api/internal/pkg/id"
)

// Service is the OTP engine: it produces and validates one-time passcodes.
type Service interface {
	// Create stores a new code for the identifier and returns it in plaintext.
	// Prior outstanding codes for the same identifier stay valid.
	Create(ctx context.Context, identifier string) (string, error)
	// Verify consumes the matching unused code. At most one concurrent call
	// per code returns true; wrong, used and expired codes all return false.
	Verify(ctx context.Context, identifier, code string) (bool, error)
	// Latest returns the newest unused, unexpired code for the identifier.
	Latest(ctx context.Context, identifier string) (string, bool, error)
	// CleanupExpired deletes expired records. Advisory housekeeping only:
	// Verify checks expiry itself, so correctness never depends on this.
	CleanupExpired(ctx context.Context) (int, error)
}

type otpStore interface {
	Put(ctx context.Context, o *domain.OtpRecord) error
	ListUnused(ctx context.Context, identifier string) ([]domain.OtpRecord, error)
	Consume(ctx context.Context, otpID string) (bool, error)
	DeleteExpired(ctx context.Context, now int64) (int, error)
}

type service struct {
	repo   otpStore
	expiry time.Duration
}

func NewService(repo otpStore, expiry time.Duration) Service {
	return &service{repo: repo, expiry: expiry}
}

// generateCode draws a 6-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (s *service) Create(ctx context.Context, identifier string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := time.Now()
	rec := &domain.OtpRecord{
		OtpID:      id.New(),
		Identifier: identifier,
		Code:       code,
		Used:       false,
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(s.expiry).Unix(),
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return "", err
	}
	return code, nil
}

func (s *service) Verify(ctx context.Context, identifier, code string) (bool, error) {
	records, err := s.repo.ListUnused(ctx, identifier)
	if err != nil {
		return false, err
	}
	now := time.Now().Unix()
	for _, rec := range records {
		if rec.Code != code {
			continue
		}
		// Expired rows stay in place for the reaper; they just fail here.
		if rec.ExpiresAt < now {
			return false, nil
		}
		// The store's conditional update is the single point of consumption,
		// so two racing calls cannot both succeed.
		return s.repo.Consume(ctx, rec.OtpID)
	}
	return false, nil
}

func (s *service) Latest(ctx context.Context, identifier string) (string, bool, error) {
	records, err := s.repo.ListUnused(ctx, identifier)
	if err != nil {
		return "", false, err
	}
	now := time.Now().Unix()
	for _, rec := range records {
		if rec.ExpiresAt >= now {
			return rec.Code, true, nil
		}
	}
	return "", false, nil
}

func (s *service) CleanupExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, time.Now().Unix())
}
