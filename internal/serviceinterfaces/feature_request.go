package serviceinterfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gymdash/internal/models"
)

// FeatureRequestService is the lifecycle controller consumed by handlers and the admin CLI.
type FeatureRequestService interface {
	CreateRequest(ctx context.Context, tenantID, requesterID uuid.UUID, in models.CreateRequestInput) (*models.FeatureRequest, error)
	Transition(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, to models.Status) (*models.FeatureRequest, error)
	OverrideStatus(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, to models.Status, reason string) (*models.FeatureRequest, error)
	UpdateStaffFields(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, in models.StaffFieldsInput) (*models.FeatureRequest, error)
	AddComment(ctx context.Context, tenantID, requestID uuid.UUID, author models.Actor, content string, isInternal bool) (*models.Comment, error)
	AddAttachment(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, in models.AttachmentInput) (*models.Attachment, error)

	GetRequest(ctx context.Context, tenantID, requestID uuid.UUID, viewer models.Actor) (*models.FeatureRequestView, error)
	ListRequests(ctx context.Context, tenantID uuid.UUID, filter models.FeatureRequestFilter) ([]models.FeatureRequestSummary, int, error)
	ListComments(ctx context.Context, tenantID, requestID uuid.UUID, viewer models.Actor) ([]models.Comment, error)
	ListAttachments(ctx context.Context, tenantID, requestID uuid.UUID) ([]models.Attachment, error)
	History(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor) ([]models.StatusEvent, error)
	SLAReport(ctx context.Context, tenantID uuid.UUID, now time.Time) (*models.SLAReport, error)
}

// IssueTracker exports a request to an external issue tracker.
type IssueTracker interface {
	CreateIssue(ctx context.Context, r *models.FeatureRequest) (*models.IssueRef, error)
	IsEnabled() bool
}

// Notifier sends best-effort lifecycle notifications. Failures never reach the caller.
type Notifier interface {
	RequestCreated(ctx context.Context, r *models.FeatureRequest)
	StatusChanged(ctx context.Context, r *models.FeatureRequest, from models.Status)
}
