package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/servicehub/servicehub-api/internal/application/otp"
	"github.com/servicehub/servicehub-api/internal/config"
	"github.com/servicehub/servicehub-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/servicehub/servicehub-api/internal/infrastructure/jwt"
	"github.com/servicehub/servicehub-api/internal/infrastructure/smtp"
	"github.com/servicehub/servicehub-api/internal/infrastructure/sns"
	transporthttp "github.com/servicehub/servicehub-api/internal/transport/http"
)

// reapInterval is how often expired OTP records are swept. Housekeeping only:
// verification checks expiry itself and DynamoDB TTL is the backstop.
const reapInterval = 15 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// SMS sender: null-object fallback when SNS is unavailable, so OTP
	// issuance never depends on the transport being configured.
	smsSender, err := sns.NewSender(cfg)
	if err != nil {
		log.Printf("WARN: SNS sender not available, using noop: %v", err)
		smsSender = sns.NewNoopSender()
	}

	var mailer smtp.Mailer
	if cfg.SMTPHost != "" {
		mailer = smtp.NewMailer(cfg)
	} else {
		mailer = smtp.NewNoopMailer()
	}

	otpRepo := dynamo.NewOtpRepo(dynamoClient, cfg.DynamoTables.Otps)

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OtpRepo:     otpRepo,
		Mailer:      mailer,
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go runReaper(reaperCtx, otp.NewService(otpRepo, cfg.OTPExpiry))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopReaper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// runReaper periodically deletes expired OTP records until ctx is cancelled.
func runReaper(ctx context.Context, otpSvc otp.Service) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := otpSvc.CleanupExpired(ctx); err != nil {
				log.Printf("WARN: otp cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("otp cleanup removed %d expired records", n)
			}
		}
	}
}
