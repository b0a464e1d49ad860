package serviceinterfaces

import (
	"context"

	"github.com/google/uuid"

	"gymdash/internal/models"
)

// FeatureRequestStore is the tenant-scoped persistence contract for the request aggregate.
//
// Every method takes the tenant explicitly. A row that exists under another tenant
// must be reported exactly like a row that does not exist (contextutils.ErrRecordNotFound).
// Other failures are returned as DATABASE_* AppErrors and are never retried here.
type FeatureRequestStore interface {
	InsertRequest(ctx context.Context, tenantID uuid.UUID, r *models.FeatureRequest) error
	UpdateRequest(ctx context.Context, tenantID, id uuid.UUID, patch models.FeatureRequestPatch) (*models.FeatureRequest, error)
	FindRequestByID(ctx context.Context, tenantID, id uuid.UUID) (*models.FeatureRequest, error)
	// FindRequestsByTenant returns one page plus the total number of matches.
	FindRequestsByTenant(ctx context.Context, tenantID uuid.UUID, filter models.FeatureRequestFilter) ([]models.FeatureRequest, int, error)

	InsertComment(ctx context.Context, tenantID uuid.UUID, c *models.Comment) error
	FindComments(ctx context.Context, tenantID, requestID uuid.UUID) ([]models.Comment, error)

	InsertAttachment(ctx context.Context, tenantID uuid.UUID, a *models.Attachment) error
	FindAttachments(ctx context.Context, tenantID, requestID uuid.UUID) ([]models.Attachment, error)

	InsertStatusEvent(ctx context.Context, tenantID uuid.UUID, e *models.StatusEvent) error
	FindStatusEvents(ctx context.Context, tenantID, requestID uuid.UUID) ([]models.StatusEvent, error)
}

// AccountStore persists tenants and users.
type AccountStore interface {
	InsertTenant(ctx context.Context, t *models.Tenant) error
	FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)

	InsertUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindStaffEmails(ctx context.Context) ([]string, error)
}
