// internal/webhook/server.go
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "sms-librarian/internal/common/errors"
	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/orchestrator"
	"sms-librarian/internal/sms/twiml"
)

const signatureHeader = "X-Twilio-Signature"

const internalErrorMessage = "Sorry, something went wrong. Please try again shortly."

// HealthChecker reports backing-store reachability for the health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server exposes the provider-facing webhook plus liveness, health, and
// metrics endpoints.
type Server struct {
	orch           *orchestrator.Orchestrator
	logger         logger.Logger
	webhookBaseURL string
	checks         map[string]HealthChecker
}

func NewServer(orch *orchestrator.Orchestrator, webhookBaseURL string, log logger.Logger) *Server {
	return &Server{
		orch:           orch,
		logger:         log.WithFields(map[string]interface{}{"component": "webhook"}),
		webhookBaseURL: strings.TrimRight(webhookBaseURL, "/"),
		checks:         make(map[string]HealthChecker),
	}
}

// AddHealthCheck registers a named backing store for /healthz reporting.
func (s *Server) AddHealthCheck(name string, check HealthChecker) {
	s.checks[name] = check
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/sms", s.handleSMS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Liveness probe, no authentication.
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "sms webhook up")
	case http.MethodPost:
		s.handleInbound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	log := s.logger.WithFields(map[string]interface{}{"requestId": requestID})

	// The provider must always get well-formed XML back, even if the pipeline
	// panics somewhere below.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic processing webhook", map[string]interface{}{"panic": fmt.Sprint(rec)})
			writeXML(w, http.StatusInternalServerError, twiml.Message(internalErrorMessage, 0))
		}
	}()

	if err := r.ParseForm(); err != nil {
		log.Warn("unparseable webhook form", map[string]interface{}{
			"code":  string(apperrors.ErrCodeMalformedRequest),
			"error": err.Error(),
		})
		writeXML(w, http.StatusBadRequest, twiml.Message("Invalid request.", 0))
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}

	msg := models.IncomingMessage{
		MessageSid:  params["MessageSid"],
		AccountSid:  params["AccountSid"],
		From:        params["From"],
		To:          params["To"],
		Body:        params["Body"],
		NumMedia:    atoiOrZero(params["NumMedia"]),
		NumSegments: atoiOrZero(params["NumSegments"]),
	}

	if _, ok := params["Body"]; !ok || msg.From == "" {
		log.Warn("webhook missing required fields", map[string]interface{}{
			"code": string(apperrors.ErrCodeMalformedRequest),
		})
		writeXML(w, http.StatusBadRequest, twiml.Message("Missing message body or sender.", 0))
		return
	}

	reply := s.orch.Process(r.Context(), msg, r.Header.Get(signatureHeader), s.fullURL(r), params)

	if reply.PlainText {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(reply.StatusCode)
		fmt.Fprintln(w, reply.Body)
		return
	}
	writeXML(w, reply.StatusCode, reply.Body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	var b strings.Builder
	b.WriteString("ok\n")
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			fmt.Fprintf(&b, "%s: unavailable\n", name)
		} else {
			fmt.Fprintf(&b, "%s: ok\n", name)
		}
	}

	w.WriteHeader(status)
	fmt.Fprint(w, b.String())
}

// fullURL reconstructs the URL the provider signed. Behind a proxy the scheme
// and host seen locally differ from the public ones, so a configured base URL
// takes precedence.
func (s *Server) fullURL(r *http.Request) string {
	if s.webhookBaseURL != "" {
		return s.webhookBaseURL + r.URL.RequestURI()
	}

	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func writeXML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
