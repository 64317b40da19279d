// internal/sms/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "sms-librarian/internal/common/errors"
	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/common/metrics"
	"sms-librarian/internal/common/observability"
	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/dedupe"
	"sms-librarian/internal/sms/handlers"
	"sms-librarian/internal/sms/intent"
	"sms-librarian/internal/sms/ratelimit"
	"sms-librarian/internal/sms/signature"
	"sms-librarian/internal/sms/twiml"
)

const (
	unauthorizedMessage = "Sorry, this number isn't set up to use the library assistant."
	throttledMessage    = "You're sending messages a little too quickly. Please wait %d seconds and try again."
)

// SecurityNotifier receives signature-validation failures for operator
// alerting. Implemented by the alerts package; a nil notifier disables it.
type SecurityNotifier interface {
	SignatureFailure(ctx context.Context, senderID string)
}

// Reply is the terminal outcome of one pipeline run. Body is always a
// complete, well-formed payload for the given status.
type Reply struct {
	StatusCode int
	Body       string
	PlainText  bool // 401s are plain text; everything else is TwiML
}

// Config carries the pipeline's tunables.
type Config struct {
	SkipSignature       bool
	SkipAuthorization   bool
	ConfidenceThreshold float64
	MaxBodyLength       int
}

// Orchestrator drives one inbound message through the gate sequence:
// authenticate, authorize, rate-check, classify, dispatch, update context,
// format. Each gate is hard: failing one terminates the run with the gate's
// reply and nothing downstream executes.
type Orchestrator struct {
	cfg       Config
	validator *signature.Validator
	limiter   *ratelimit.Limiter
	contexts  *conversation.Store
	registry  *handlers.Registry
	service   library.Service
	dedupe    *dedupe.Store
	notifier  SecurityNotifier
	obs       *observability.Observability
	tracing   *observability.Tracing
	logger    logger.Logger
}

func New(
	cfg Config,
	validator *signature.Validator,
	limiter *ratelimit.Limiter,
	contexts *conversation.Store,
	registry *handlers.Registry,
	service library.Service,
	dedupeStore *dedupe.Store,
	notifier SecurityNotifier,
	obs *observability.Observability,
	tracing *observability.Tracing,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		validator: validator,
		limiter:   limiter,
		contexts:  contexts,
		registry:  registry,
		service:   service,
		dedupe:    dedupeStore,
		notifier:  notifier,
		obs:       obs,
		tracing:   tracing,
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Process runs the full pipeline for one webhook request. fullURL and params
// are the raw material for signature reconstruction; msg is the parsed
// message.
func (o *Orchestrator) Process(ctx context.Context, msg models.IncomingMessage, signatureHeader, fullURL string, params map[string]string) Reply {
	started := time.Now()
	senderID := library.NormalizePhoneNumber(msg.From)

	log := o.logger.WithFields(map[string]interface{}{
		"messageSid": msg.MessageSid,
		"sender":     senderID,
	})

	// AUTHENTICATED
	ctx, authSpan := o.tracing.StartSpan(ctx, "sms.authenticate")
	authenticated := o.cfg.SkipSignature || o.validator.Validate(signatureHeader, fullURL, params)
	authSpan.End()
	if !authenticated {
		metrics.SignatureFailures.Inc()
		metrics.WebhookRequests.WithLabelValues("unauthenticated").Inc()
		log.Warn("rejected webhook with invalid signature", map[string]interface{}{
			"code": string(apperrors.ErrCodeSignatureInvalid),
		})
		if o.notifier != nil {
			o.notifier.SignatureFailure(ctx, senderID)
		}
		return Reply{StatusCode: http.StatusUnauthorized, Body: "invalid signature", PlainText: true}
	}

	// Redelivery suppression: a MessageSid we already answered gets an empty
	// acknowledgment so the sender isn't texted twice.
	if o.dedupe != nil && !o.dedupe.FirstSeen(ctx, msg.MessageSid) {
		metrics.DedupeHits.Inc()
		metrics.WebhookRequests.WithLabelValues("duplicate").Inc()
		log.Info("suppressed redelivered webhook", nil)
		return Reply{StatusCode: http.StatusOK, Body: twiml.Empty()}
	}

	// AUTHORIZED — content-level gate. The provider needs a 200 even for
	// refusals, otherwise it retries the webhook.
	if !o.authorized(ctx, senderID, log) {
		metrics.WebhookRequests.WithLabelValues("unauthorized").Inc()
		return o.reply(unauthorizedMessage)
	}

	// RATE-CHECKED
	result := o.limiter.CheckAndIncrement(senderID, time.Now())
	if !result.Allowed {
		metrics.RateLimitRejections.Inc()
		metrics.WebhookRequests.WithLabelValues("rate_limited").Inc()
		log.Info("rate limited sender", map[string]interface{}{
			"code":       string(apperrors.ErrCodeRateLimited),
			"retryAfter": result.RetryAfter.Seconds(),
		})
		seconds := int(result.RetryAfter.Seconds()) + 1
		return o.reply(fmt.Sprintf(throttledMessage, seconds))
	}

	// CLASSIFIED
	ctx, classifySpan := o.tracing.StartSpan(ctx, "sms.classify")
	classification := intent.Classify(msg.Body)
	classifySpan.End()
	metrics.MessagesClassified.WithLabelValues(string(classification.Intent)).Inc()

	// Context read happens before dispatch so "page 200" can refer to the
	// book from the previous message.
	conv := o.contexts.Get(senderID)

	// DISPATCHED
	dispatched := classification.Intent
	params2 := classification.Parameters
	if !classification.Actionable(o.cfg.ConfidenceThreshold) {
		dispatched = intent.IntentUnknown
		params2.Query = strings.TrimSpace(classification.RawMessage)
	}
	handler := o.registry.Resolve(dispatched)

	ctx, dispatchSpan := o.tracing.StartSpan(ctx, "sms.dispatch")
	handlerStart := time.Now()
	resp := handler.Handle(ctx, params2, conv)
	metrics.HandlerDuration.WithLabelValues(string(dispatched)).Observe(time.Since(handlerStart).Seconds())
	dispatchSpan.End()

	// CONTEXT-UPDATED — runs regardless of handler success so a failed
	// command still updates "what we were just talking about" when the
	// handler resolved a book.
	upd := conversation.Update{}
	intentStr := string(classification.Intent)
	upd.LastIntent = &intentStr
	if bookID, ok := resp.BookID(); ok {
		upd.LastBookID = &bookID
	}
	o.contexts.Apply(senderID, upd)

	outcome := "handled"
	if !resp.Success {
		outcome = "handler_failure"
	}
	metrics.WebhookRequests.WithLabelValues(outcome).Inc()
	if o.obs != nil {
		o.obs.RecordMessageProcessed(ctx, string(dispatched), outcome)
		o.obs.RecordMessageDuration(ctx, time.Since(started), string(dispatched))
	}

	log.Info("processed message", map[string]interface{}{
		"intent":     string(classification.Intent),
		"dispatched": string(dispatched),
		"confidence": classification.Confidence,
		"success":    resp.Success,
		"durationMs": time.Since(started).Milliseconds(),
	})

	// FORMATTED
	return o.reply(resp.Message)
}

func (o *Orchestrator) reply(message string) Reply {
	return Reply{
		StatusCode: http.StatusOK,
		Body:       twiml.Message(message, o.cfg.MaxBodyLength),
	}
}

// authorized checks the sender against the allow-list loaded fresh from the
// Library Data Service. Fails open: a load failure or an empty list admits the
// sender, trading strictness for availability.
func (o *Orchestrator) authorized(ctx context.Context, senderID string, log logger.Logger) bool {
	if o.cfg.SkipAuthorization {
		return true
	}

	allowed, err := o.service.AuthorizedSenders(ctx)
	if err != nil {
		log.Warn("allow-list load failed, admitting sender", map[string]interface{}{
			"code":  string(apperrors.CodeOf(err)),
			"error": err.Error(),
		})
		return true
	}
	if len(allowed) == 0 {
		return true
	}

	for _, number := range allowed {
		if number == senderID {
			return true
		}
	}
	log.Info("refused unauthorized sender", map[string]interface{}{
		"code": string(apperrors.ErrCodeSenderUnauthorized),
	})
	return false
}
