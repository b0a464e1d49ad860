package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"

	"go.opentelemetry.io/otel/attribute"
)

// NotificationService emails staff about new requests and requesters about status
// changes. Every failure is logged and swallowed.
type NotificationService struct {
	cfg      *config.Config
	email    serviceinterfaces.EmailService
	accounts serviceinterfaces.AccountStore
	logger   *observability.Logger
}

var _ serviceinterfaces.Notifier = (*NotificationService)(nil)

// NewNotificationService creates a notifier backed by email.
func NewNotificationService(cfg *config.Config, email serviceinterfaces.EmailService, accounts serviceinterfaces.AccountStore, logger *observability.Logger) *NotificationService {
	return &NotificationService{cfg: cfg, email: email, accounts: accounts, logger: logger}
}

func (n *NotificationService) requestURL(r *models.FeatureRequest) string {
	return fmt.Sprintf("%s/requests/%s", strings.TrimRight(n.cfg.Server.AppBaseURL, "/"), r.ID)
}

// staffRecipients returns the configured inbox, or every staff address when none is set.
func (n *NotificationService) staffRecipients(ctx context.Context) ([]string, error) {
	if n.cfg.Email.StaffInbox != "" {
		return []string{n.cfg.Email.StaffInbox}, nil
	}
	return n.accounts.FindStaffEmails(ctx)
}

// RequestCreated tells staff that a new request is waiting for review.
func (n *NotificationService) RequestCreated(ctx context.Context, r *models.FeatureRequest) {
	ctx, span := observability.TraceNotificationFunction(ctx, "RequestCreated",
		observability.AttributeRequestID(r.ID),
		observability.AttributeTenantID(r.TenantID),
	)
	defer span.End()

	if !n.email.IsEnabled() {
		return
	}

	recipients, err := n.staffRecipients(ctx)
	if err != nil {
		n.logger.Error(ctx, "Failed to resolve staff recipients", err, map[string]interface{}{
			"request_id": r.ID.String(),
		})
		return
	}
	span.SetAttributes(attribute.Int("notification.recipients", len(recipients)))

	subject := fmt.Sprintf("[%s] New feature request: %s", r.Priority, r.Title)
	data := map[string]interface{}{
		"Title":      r.Title,
		"Category":   string(r.Category),
		"Priority":   string(r.Priority),
		"Deadline":   r.SLADeadline.Format(time.RFC1123),
		"RequestURL": n.requestURL(r),
	}
	for _, to := range recipients {
		if err := n.email.SendEmail(ctx, to, subject, "request_created", data); err != nil {
			n.logger.Error(ctx, "Failed to notify staff of new request", err, map[string]interface{}{
				"request_id": r.ID.String(),
				"to":         to,
			})
		}
	}
}

// StatusChanged tells the requester that their request was completed or rejected.
// Intermediate moves are not mailed.
func (n *NotificationService) StatusChanged(ctx context.Context, r *models.FeatureRequest, from models.Status) {
	ctx, span := observability.TraceNotificationFunction(ctx, "StatusChanged",
		observability.AttributeRequestID(r.ID),
		observability.AttributeStatus("status.from", from),
		observability.AttributeStatus("status.to", r.Status),
	)
	defer span.End()

	if !r.Status.IsTerminal() || !n.email.IsEnabled() {
		return
	}

	requester, err := n.accounts.FindUserByID(ctx, r.RequesterID)
	if err != nil {
		n.logger.Warn(ctx, "Requester not found, skipping status notification", map[string]interface{}{
			"request_id":   r.ID.String(),
			"requester_id": r.RequesterID.String(),
			"error":        err.Error(),
		})
		return
	}
	if !requester.Email.Valid || requester.Email.String == "" {
		n.logger.Debug(ctx, "Requester has no email address, skipping status notification", map[string]interface{}{
			"request_id": r.ID.String(),
		})
		return
	}

	subject := fmt.Sprintf("Your request %q is now %s", r.Title, r.Status)
	data := map[string]interface{}{
		"Title":      r.Title,
		"FromStatus": string(from),
		"ToStatus":   string(r.Status),
		"RequestURL": n.requestURL(r),
	}
	if err := n.email.SendEmail(ctx, requester.Email.String, subject, "status_changed", data); err != nil {
		n.logger.Error(ctx, "Failed to notify requester of status change", err, map[string]interface{}{
			"request_id": r.ID.String(),
		})
	}
}
