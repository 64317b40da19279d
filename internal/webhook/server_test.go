// internal/webhook/server_test.go
package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/handlers"
	"sms-librarian/internal/sms/orchestrator"
	"sms-librarian/internal/sms/ratelimit"
	"sms-librarian/internal/sms/signature"
)

const (
	testAuthToken = "12345678901234567890123456789012"
	testBaseURL   = "https://example.com"
)

// ==========================
// Test Helper Functions
// ==========================

// stubService is a minimal library.Service for routing-level tests; command
// semantics are covered in the handlers package.
type stubService struct{}

func (stubService) GetBook(context.Context, int) (*models.Book, error) {
	return nil, library.ErrBookNotFound
}
func (stubService) FindBooksByTitle(context.Context, string, int) ([]models.Book, error) {
	return nil, nil
}
func (stubService) SearchBooks(context.Context, string, int) (*library.SearchResult, error) {
	return &library.SearchResult{}, nil
}
func (stubService) ListByStatus(context.Context, models.BookStatus, int) ([]models.Book, error) {
	return nil, nil
}
func (stubService) UpdateProgress(context.Context, library.ProgressUpdate) error { return nil }
func (stubService) SetStatus(context.Context, int, models.BookStatus) error      { return nil }
func (stubService) ReadingStats(context.Context) (*models.ReadingStats, error) {
	return &models.ReadingStats{}, nil
}
func (stubService) AuthorizedSenders(context.Context) ([]string, error) { return nil, nil }

func newTestServer(t *testing.T, skipSignature bool) *Server {
	t.Helper()
	log := logger.NewNoOpLogger()
	svc := stubService{}

	orch := orchestrator.New(
		orchestrator.Config{
			SkipSignature:       skipSignature,
			ConfidenceThreshold: 0.5,
			MaxBodyLength:       1600,
		},
		signature.NewValidator(testAuthToken),
		ratelimit.NewLimiter(60*time.Second, 10),
		conversation.NewStore(30*time.Minute),
		handlers.NewRegistry(svc, log),
		svc,
		nil, nil, nil, nil,
		log,
	)
	return NewServer(orch, testBaseURL, log)
}

func postForm(t *testing.T, s *Server, form url.Values, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if sign {
		params := make(map[string]string, len(form))
		for key := range form {
			params[key] = form.Get(key)
		}
		sig := signature.NewValidator(testAuthToken).Expected(testBaseURL+"/webhook/sms", params)
		req.Header.Set(signatureHeader, sig)
	}

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func smsForm(from, body string) url.Values {
	return url.Values{
		"MessageSid": {"SM1234567890abcdef"},
		"AccountSid": {"AC1234567890abcdef"},
		"From":       {from},
		"To":         {"+15557654321"},
		"Body":       {body},
	}
}

// ==========================
// Webhook Endpoint Tests
// ==========================

func TestServer_GetIsLivenessProbe(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/webhook/sms", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sms webhook up")
}

func TestServer_ValidMessageRepliesWithTwiML(t *testing.T) {
	s := newTestServer(t, true)

	rec := postForm(t, s, smsForm("+15551234567", "help"), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response><Message>")
	assert.Contains(t, rec.Body.String(), "start &lt;title&gt;")
}

func TestServer_SignedRequestAccepted(t *testing.T) {
	s := newTestServer(t, false)

	rec := postForm(t, s, smsForm("+15551234567", "help"), true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Message>")
}

func TestServer_UnsignedRequestRejected(t *testing.T) {
	s := newTestServer(t, false)

	rec := postForm(t, s, smsForm("+15551234567", "help"), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestServer_TamperedBodyRejected(t *testing.T) {
	s := newTestServer(t, false)

	form := smsForm("+15551234567", "help")
	req := httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Signature computed over different content.
	params := map[string]string{"Body": "something else"}
	sig := signature.NewValidator(testAuthToken).Expected(testBaseURL+"/webhook/sms", params)
	req.Header.Set(signatureHeader, sig)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==========================
// Malformed Request Tests
// ==========================

func TestServer_MissingBodyField(t *testing.T) {
	s := newTestServer(t, true)

	form := smsForm("+15551234567", "help")
	form.Del("Body")
	rec := postForm(t, s, form, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response><Message>",
		"even a 400 must carry well-formed XML")
}

func TestServer_MissingSender(t *testing.T) {
	s := newTestServer(t, true)

	form := smsForm("", "help")
	rec := postForm(t, s, form, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_EmptyBodyIsProcessed(t *testing.T) {
	s := newTestServer(t, true)

	// Body present but empty is a malformed command, not a malformed request:
	// the pipeline answers it with usage help.
	rec := postForm(t, s, smsForm("+15551234567", ""), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "didn&#39;t understand")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodDelete, "/webhook/sms", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// Rate Limiting Tests
// ==========================

func TestServer_RateLimitsSender(t *testing.T) {
	s := newTestServer(t, true)

	for i := 0; i < 10; i++ {
		rec := postForm(t, s, smsForm("+15551234567", "help"), false)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postForm(t, s, smsForm("+15551234567", "help"), false)
	assert.Equal(t, http.StatusOK, rec.Code, "throttling replies 200 so the provider does not retry")
	assert.Contains(t, rec.Body.String(), "too quickly")

	// An unrelated sender is unaffected.
	other := postForm(t, s, smsForm("+15559999999", "help"), false)
	assert.Contains(t, other.Body.String(), "commands")
}

// ==========================
// Health and Metrics Tests
// ==========================

type staticCheck struct{ err error }

func (c staticCheck) Ping(context.Context) error { return c.err }

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t, true)
	s.AddHealthCheck("postgres", staticCheck{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres: ok")
}

func TestServer_HealthzFailingDependency(t *testing.T) {
	s := newTestServer(t, true)
	s.AddHealthCheck("redis", staticCheck{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis: unavailable")
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
