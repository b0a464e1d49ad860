package services

import (
	"context"
	"sync"

	"gymdash/internal/config"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SentEmail is one message captured by TestEmailService.
type SentEmail struct {
	To       string
	Subject  string
	Template string
	Body     string
}

// TestEmailService renders emails but never sends them. Messages are logged and
// kept in memory so tests and local runs can inspect them.
type TestEmailService struct {
	cfg    *config.Config
	logger *observability.Logger

	mu   sync.Mutex
	sent []SentEmail
}

var _ serviceinterfaces.EmailService = (*TestEmailService)(nil)

// NewTestEmailService creates a new TestEmailService instance
func NewTestEmailService(cfg *config.Config, logger *observability.Logger) *TestEmailService {
	return &TestEmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// SendEmail renders the template and records the message (test mode - no SMTP)
func (e *TestEmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := otel.Tracer("test-email-service").Start(ctx, "SendEmail",
		trace.WithAttributes(
			attribute.String("email.to", to),
			attribute.String("email.template", templateName),
		),
	)
	defer observability.FinishSpan(span, &err)

	body, err := renderEmail(emailTemplates, templateName, data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.sent = append(e.sent, SentEmail{To: to, Subject: subject, Template: templateName, Body: body})
	e.mu.Unlock()

	e.logger.Info(ctx, "TEST MODE: Would send email", map[string]interface{}{
		"to":       to,
		"subject":  subject,
		"template": templateName,
	})
	return nil
}

// IsEnabled always returns true in test mode
func (e *TestEmailService) IsEnabled() bool {
	return true
}

// Sent returns a copy of the captured messages.
func (e *TestEmailService) Sent() []SentEmail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SentEmail(nil), e.sent...)
}
