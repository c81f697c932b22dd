package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/servicehub/servicehub-api/internal/application/otp"
	"github.com/servicehub/servicehub-api/internal/application/user"
	"github.com/servicehub/servicehub-api/internal/domain"
	snsinfra "github.com/servicehub/servicehub-api/internal/infrastructure/sns"
	pkgtoken "github.com/servicehub/servicehub-api/internal/pkg/token"
)

// smsTimeout bounds the notification gateway call. A slow provider degrades
// to the fallback path instead of blocking OTP issuance.
const smsTimeout = 5 * time.Second

// SendOtpResult is the outcome of an OTP send. OTP is populated only in
// development mode; production responses never carry the code.
type SendOtpResult struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

// GetOtpResult is the outcome of the dev-only OTP retrieval.
type GetOtpResult struct {
	OTP     *string `json:"otp"`
	Message string  `json:"message"`
}

// AuthResult carries a signed access token and the authenticated identity.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

type Service interface {
	SendOtp(ctx context.Context, phoneNumber string) (*SendOtpResult, error)
	GetOtpForTesting(ctx context.Context, phoneNumber string) (*GetOtpResult, error)
	VerifyOtpAndAuthenticate(ctx context.Context, phoneNumber, code string) (*AuthResult, error)
	EmailRegister(ctx context.Context, req domain.EmailRegisterRequest) (*AuthResult, error)
	EmailLogin(ctx context.Context, req domain.EmailLoginRequest) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID, phoneNumber, email string) (string, error)
}

type service struct {
	otpSvc           otp.Service
	userSvc          user.Service
	smsSender        snsinfra.SMSSender
	mailer           mailer
	jwtProvider      jwtSigner
	devMode          bool
	resetTokenExpiry time.Duration
	frontendURL      string
}

type ServiceDeps struct {
	OtpService       otp.Service
	UserService      user.Service
	SMSSender        snsinfra.SMSSender
	Mailer           mailer
	JWTProvider      jwtSigner
	DevMode          bool
	ResetTokenExpiry time.Duration
	FrontendURL      string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otpSvc:           deps.OtpService,
		userSvc:          deps.UserService,
		smsSender:        deps.SMSSender,
		mailer:           deps.Mailer,
		jwtProvider:      deps.JWTProvider,
		devMode:          deps.DevMode,
		resetTokenExpiry: deps.ResetTokenExpiry,
		frontendURL:      deps.FrontendURL,
	}
}

// SendOtp creates a code and dispatches it best-effort. Gateway failure never
// fails the request: the caller always gets a success message, with the code
// embedded when running outside production.
func (s *service) SendOtp(ctx context.Context, phoneNumber string) (*SendOtpResult, error) {
	code, err := s.otpSvc.Create(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	smsCtx, cancel := context.WithTimeout(ctx, smsTimeout)
	defer cancel()

	message := "OTP sent successfully via SMS"
	body := "Your SERVICEHUB verification code is: " + code
	if err := s.smsSender.SendSMS(smsCtx, phoneNumber, body); err != nil {
		slog.Warn("sms delivery failed", "to", phoneNumber, "err", err)
		message = deliveryFailureMessage(err)
	}

	res := &SendOtpResult{Message: message}
	if s.devMode {
		res.OTP = code
	}
	return res, nil
}

// deliveryFailureMessage maps known provider rejection codes to a status the
// client can surface. The overall request still succeeds.
func deliveryFailureMessage(err error) string {
	var de *snsinfra.DeliveryError
	if errors.As(err, &de) {
		switch de.Code {
		case snsinfra.CodeUnverifiedRecipient:
			return "OTP sent successfully (Recipient number not verified - Trial account restriction. Verify number in provider console or upgrade account)"
		case snsinfra.CodeInvalidSender:
			return "OTP sent successfully (Invalid sender number - check SMS sender configuration)"
		case snsinfra.CodeSenderIsRecipient:
			return "OTP sent successfully (Sender and recipient cannot be the same number)"
		}
	}
	return "OTP sent successfully (SMS failed, OTP shown for testing)"
}

func (s *service) GetOtpForTesting(ctx context.Context, phoneNumber string) (*GetOtpResult, error) {
	if !s.devMode {
		return nil, fmt.Errorf("otp retrieval: %w", domain.ErrDevOnly)
	}
	code, ok, err := s.otpSvc.Latest(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &GetOtpResult{
			OTP:     nil,
			Message: "No active OTP found for this phone number. Please request a new OTP first.",
		}, nil
	}
	return &GetOtpResult{OTP: &code, Message: "Latest OTP retrieved successfully"}, nil
}

func (s *service) VerifyOtpAndAuthenticate(ctx context.Context, phoneNumber, code string) (*AuthResult, error) {
	ok, err := s.otpSvc.Verify(ctx, phoneNumber, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid or expired OTP: %w", domain.ErrUnauthorized)
	}

	// A crash between here and token issuance leaves the code consumed with no
	// session minted; the client requests a fresh code. Documented trade-off,
	// no cross-store transaction.
	u, err := s.userSvc.ResolveOrCreateByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if !u.IsPhoneVerified {
		if err := s.userSvc.MarkPhoneVerified(ctx, u.UserID); err != nil {
			return nil, err
		}
		u.IsPhoneVerified = true
	}

	token, err := s.jwtProvider.Sign(u.UserID, phoneNumber, "")
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: u}, nil
}

func (s *service) EmailRegister(ctx context.Context, req domain.EmailRegisterRequest) (*AuthResult, error) {
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("password and confirm password do not match: %w", domain.ErrConflict)
	}
	u, err := s.userSvc.CreateWithPassword(ctx, req)
	if err != nil {
		return nil, err
	}
	token, err := s.jwtProvider.Sign(u.UserID, "", req.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: u}, nil
}

func (s *service) EmailLogin(ctx context.Context, req domain.EmailLoginRequest) (*AuthResult, error) {
	u, err := s.userSvc.FindByEmail(ctx, req.Email)
	if err != nil {
		// Same message for unknown email and bad password.
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if !user.VerifyPassword(u, req.Password) {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	token, err := s.jwtProvider.Sign(u.UserID, "", req.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: u}, nil
}

// ForgotPassword stores a reset token and emails a link. It succeeds from the
// caller's view even for unknown emails, so accounts cannot be enumerated.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.userSvc.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := pkgtoken.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.resetTokenExpiry).Unix()
	if err := s.userSvc.SetResetToken(ctx, u.UserID, token, expiresAt); err != nil {
		return err
	}
	link := s.frontendURL + "/reset-password?token=" + token
	if err := s.mailer.SendEmail(email, "Reset your ServiceHub password",
		"Click the link to reset your password: "+link); err != nil {
		slog.Warn("reset email delivery failed", "to", email, "err", err)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.userSvc.FindByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized)
	}
	if u.ResetTokenExpiresAt < time.Now().Unix() {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized)
	}
	return s.userSvc.UpdatePassword(ctx, u.UserID, newPassword)
}
