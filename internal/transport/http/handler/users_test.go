package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/servicehub/servicehub-api/internal/config"
	"github.com/servicehub/servicehub-api/internal/domain"
	jwtinfra "github.com/servicehub/servicehub-api/internal/infrastructure/jwt"
	"github.com/servicehub/servicehub-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) ResolveOrCreateByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	args := m.Called(ctx, phoneNumber)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) CreateWithPassword(ctx context.Context, req domain.EmailRegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) FindByResetToken(ctx context.Context, resetToken string) (*domain.User, error) {
	args := m.Called(ctx, resetToken)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) MarkPhoneVerified(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockUserSvc) MarkEmailVerified(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockUserSvc) SetResetToken(ctx context.Context, userID, token string, expiresAt int64) error {
	return m.Called(ctx, userID, token, expiresAt).Error(0)
}
func (m *mockUserSvc) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	return m.Called(ctx, userID, newPassword).Error(0)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// --- Profile ---

func TestProfile_MissingClaims(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := httptest.NewRequest(http.MethodGet, "/v1/users/profile", nil)
	rr := httptest.NewRecorder()
	h.Profile(rr, r) // called directly, no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProfile_UserGone(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	h := NewUserHandler(svc)

	token, err := p.Sign("u1", "+12345678901", "")
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/v1/users/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Profile), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProfile_HappyPath_NeverLeaksSecrets(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	phone := "+12345678901"
	svc.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID:          "u1",
		PhoneNumber:     &phone,
		FirstName:       "Ann",
		Role:            domain.RoleCustomer,
		IsPhoneVerified: true,
		PasswordHash:    "$2a$10$secret",
		ResetToken:      "reset-secret",
	}, nil)
	h := NewUserHandler(svc)

	token, err := p.Sign("u1", phone, "")
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/v1/users/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Profile), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "u1", resp["id"])
	assert.Equal(t, phone, resp["phoneNumber"])
	assert.Equal(t, true, resp["isPhoneVerified"])
	// The envelope must never carry credential material.
	for _, k := range []string{"password_hash", "passwordHash", "reset_token", "resetToken"} {
		_, present := resp[k]
		assert.False(t, present, "response must not contain %q", k)
	}
	svc.AssertExpectations(t)
}
