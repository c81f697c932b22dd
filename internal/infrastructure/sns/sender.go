package sns

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/servicehub/servicehub-api/internal/config"
)

// Provider error codes the auth service interprets when choosing a
// user-facing status message. Values follow the carrier convention used by
// trial SMS accounts.
const (
	CodeUnverifiedRecipient = 21608
	CodeInvalidSender       = 21659
	CodeSenderIsRecipient   = 21266
)

// DeliveryError is a provider rejection with a machine-readable code.
type DeliveryError struct {
	Code    int
	Message string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sms delivery failed (code %d): %s", e.Code, e.Message)
}

// SMSSender sends SMS messages. Delivery is best-effort: callers must treat
// any error as a degraded-but-successful outcome, never as a request failure.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type sender struct {
	client *sns.Client
}

// NewSender builds an AWS SNS backed sender.
func NewSender(cfg *config.Config) (SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}

type noopSender struct{}

// NewNoopSender returns the sender used when no SMS provider is configured.
// It logs and reports success so OTP issuance never depends on transport health.
func NewNoopSender() SMSSender {
	return noopSender{}
}

func (noopSender) SendSMS(_ context.Context, to, _ string) error {
	slog.Info("sms transport not configured, message dropped", "to", to)
	return nil
}
