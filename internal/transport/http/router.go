package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/servicehub/servicehub-api/internal/application/auth"
	"github.com/servicehub/servicehub-api/internal/application/otp"
	"github.com/servicehub/servicehub-api/internal/application/user"
	"github.com/servicehub/servicehub-api/internal/config"
	jwtinfra "github.com/servicehub/servicehub-api/internal/infrastructure/jwt"
	"github.com/servicehub/servicehub-api/internal/infrastructure/smtp"
	"github.com/servicehub/servicehub-api/internal/infrastructure/sns"
	"github.com/servicehub/servicehub-api/internal/transport/http/handler"
	appmiddleware "github.com/servicehub/servicehub-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	OtpRepo     OtpRepository
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(deps.OtpRepo, cfg.OTPExpiry)
	userSvc := user.NewService(deps.UserRepo)
	authSvc := auth.NewService(auth.ServiceDeps{
		OtpService:       otpSvc,
		UserService:      userSvc,
		SMSSender:        deps.SMSSender,
		Mailer:           deps.Mailer,
		JWTProvider:      deps.JWTProvider,
		DevMode:          cfg.DevMode,
		ResetTokenExpiry: cfg.ResetTokenExpiry,
		FrontendURL:      cfg.FrontendURL,
	})

	healthH := handler.NewHealthHandler()
	phoneH := handler.NewPhoneAuthHandler(authSvc)
	emailH := handler.NewEmailAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/phone/send-otp", phoneH.SendOtp)
		r.With(sensitiveRL.Limit).Post("/auth/phone/verify-otp", phoneH.VerifyOtp)
		r.With(sensitiveRL.Limit).Post("/auth/email/register", emailH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/email/login", emailH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/email/forgot-password", emailH.ForgotPassword)
		r.With(sensitiveRL.Limit).Post("/auth/email/reset-password", emailH.ResetPassword)

		// The testing retrieval route exists only in development mode: a
		// production process never registers the handler at all.
		if cfg.DevMode {
			r.Post("/auth/phone/get-otp", phoneH.GetOtp)
		}

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/users/profile", userH.Profile)
		})
	})

	return r
}
