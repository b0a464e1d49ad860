package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"gymdash/internal/config"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/mail.v2"
)

// mailSender is the part of *mail.Dialer the service uses.
type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// EmailService implements serviceinterfaces.EmailService over SMTP using gomail
type EmailService struct {
	cfg       *config.Config
	logger    *observability.Logger
	sender    mailSender
	templates map[string]*template.Template
}

// Ensure EmailService implements the EmailService interface
var _ serviceinterfaces.EmailService = (*EmailService)(nil)

// NewEmailService creates a new EmailService instance
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var sender mailSender
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		sender = mail.NewDialer(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}

	return &EmailService{
		cfg:       cfg,
		logger:    logger,
		sender:    sender,
		templates: emailTemplates,
	}
}

// SendEmail renders templateName with data and sends it to a single recipient
func (e *EmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := otel.Tracer("email-service").Start(ctx, "SendEmail",
		trace.WithAttributes(
			attribute.String("email.to", to),
			attribute.String("email.subject", subject),
			attribute.String("email.template", templateName),
		),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping email send", map[string]interface{}{
			"to":       to,
			"template": templateName,
		})
		return nil
	}

	if e.sender == nil {
		return contextutils.ErrorWithContextf("email service not properly configured")
	}

	content, err := renderEmail(e.templates, templateName, data)
	if err != nil {
		return contextutils.WrapError(err, "failed to generate email content")
	}

	m := mail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", e.cfg.Email.SMTP.FromName, e.cfg.Email.SMTP.FromAddress))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err = e.sender.DialAndSend(m); err != nil {
		e.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
			"to":       to,
			"template": templateName,
			"subject":  subject,
		})
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeExternalServiceFailed, contextutils.SeverityError,
			"failed to send email", "", err)
	}

	e.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"to":       to,
		"template": templateName,
		"subject":  subject,
	})

	return nil
}

// IsEnabled returns whether email functionality is enabled
func (e *EmailService) IsEnabled() bool {
	return e.cfg.Email.Enabled && e.cfg.Email.SMTP.Host != ""
}

func renderEmail(templates map[string]*template.Template, name string, data map[string]interface{}) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", contextutils.ErrorWithContextf("unknown template: %s", name)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", contextutils.WrapError(err, "failed to execute template")
	}
	return buf.String(), nil
}

const emailLayout = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1F6FEB; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9f9f9; padding: 20px; }
        .button { display: inline-block; background-color: #1F6FEB; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { background-color: #eee; padding: 15px; text-align: center; font-size: 12px; color: #666; border-radius: 0 0 5px 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>{{template "title" .}}</h1></div>
        <div class="content">{{template "body" .}}</div>
        <div class="footer"><p>Sent by GymDash. You receive this because you are involved in this request.</p></div>
    </div>
</body>
</html>`

const requestCreatedBody = `
{{define "title"}}New feature request{{end}}
{{define "body"}}
<h2>{{.Title}}</h2>
<p><strong>Category:</strong> {{.Category}}<br><strong>Priority:</strong> {{.Priority}}</p>
<p><strong>SLA deadline:</strong> {{.Deadline}}</p>
<div style="text-align: center;"><a href="{{.RequestURL}}" class="button">Open request</a></div>
{{end}}`

const statusChangedBody = `
{{define "title"}}Request status updated{{end}}
{{define "body"}}
<h2>{{.Title}}</h2>
<p>Your request moved from <strong>{{.FromStatus}}</strong> to <strong>{{.ToStatus}}</strong>.</p>
<div style="text-align: center;"><a href="{{.RequestURL}}" class="button">View request</a></div>
{{end}}`

const testEmailBody = `
{{define "title"}}Test email{{end}}
{{define "body"}}
<p>This is a test email to verify that your email settings are working correctly.</p>
<p><strong>Message:</strong> {{.Message}}</p>
{{end}}`

var emailTemplates = map[string]*template.Template{
	"request_created": template.Must(template.Must(template.New("request_created").Parse(emailLayout)).Parse(requestCreatedBody)),
	"status_changed":  template.Must(template.Must(template.New("status_changed").Parse(emailLayout)).Parse(statusChangedBody)),
	"test_email":      template.Must(template.Must(template.New("test_email").Parse(emailLayout)).Parse(testEmailBody)),
}
