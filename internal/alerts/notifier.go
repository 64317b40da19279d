// internal/alerts/notifier.go
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"sms-librarian/internal/common/config"
	"sms-librarian/internal/common/logger"
)

// Interfaces for mocking the AWS clients in tests.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier raises an operator alert when signature-validation failures burst
// past a threshold inside a window — the usual signature of someone probing
// the webhook with forged requests. One alert fires per window.
type Notifier struct {
	cfg config.AlertsConfig
	ses SESService
	sns SNSService
	log logger.Logger

	mu          sync.Mutex
	windowStart time.Time
	failures    int
	alerted     bool
}

func NewNotifier(cfg config.AlertsConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg: cfg,
		ses: sesClient,
		sns: snsClient,
		log: log.WithFields(map[string]interface{}{"component": "alerts"}),
	}
}

// SignatureFailure records one failed validation attributed to senderID.
func (n *Notifier) SignatureFailure(ctx context.Context, senderID string) {
	if n == nil || !n.cfg.Enabled {
		return
	}

	window := time.Duration(n.cfg.WindowSeconds) * time.Second
	now := time.Now()

	n.mu.Lock()
	if now.Sub(n.windowStart) >= window {
		n.windowStart = now
		n.failures = 0
		n.alerted = false
	}
	n.failures++
	shouldAlert := n.failures >= n.cfg.FailureThreshold && !n.alerted
	if shouldAlert {
		n.alerted = true
	}
	count := n.failures
	n.mu.Unlock()

	if !shouldAlert {
		return
	}

	message := fmt.Sprintf(
		"SMS webhook: %d signature validation failures in the last %s (latest sender %s). Possible forged-request probing.",
		count, window, senderID)

	// Alert delivery must not block the webhook response path.
	go n.deliver(message)
}

func (n *Notifier) deliver(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if n.cfg.Email.Enabled && n.ses != nil {
		_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
			Source: aws.String(n.cfg.Email.FromEmail),
			Destination: &sestypes.Destination{
				ToAddresses: []string{n.cfg.Email.ToEmail},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String("SMS webhook security alert")},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(message)},
				},
			},
		})
		if err != nil {
			n.log.Error("failed to send alert email", map[string]interface{}{"error": err.Error()})
		}
	}

	if n.cfg.SMS.Enabled && n.sns != nil {
		input := &sns.PublishInput{
			PhoneNumber: aws.String(n.cfg.SMS.PhoneNumber),
			Message:     aws.String(message),
		}
		if n.cfg.SMS.SenderID != "" {
			input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
				"AWS.SNS.SMS.SenderID": {
					DataType:    aws.String("String"),
					StringValue: aws.String(n.cfg.SMS.SenderID),
				},
			}
		}
		if _, err := n.sns.Publish(ctx, input); err != nil {
			n.log.Error("failed to send alert SMS", map[string]interface{}{"error": err.Error()})
		}
	}
}
