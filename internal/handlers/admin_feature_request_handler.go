package handlers

import (
	"net/http"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// TransitionInput is the body of the transition endpoint.
type TransitionInput struct {
	Status string `json:"status"`
}

// OverrideInput is the body of the override endpoint.
type OverrideInput struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// AdminFeatureRequestHandler serves the staff routes. Staff work across tenants,
// so every route names its tenant in the path.
type AdminFeatureRequestHandler struct {
	service serviceinterfaces.FeatureRequestService
	tracker serviceinterfaces.IssueTracker
	config  *config.Config
	logger  *observability.Logger
}

// NewAdminFeatureRequestHandler creates a new AdminFeatureRequestHandler instance. tracker may be nil.
func NewAdminFeatureRequestHandler(
	service serviceinterfaces.FeatureRequestService,
	tracker serviceinterfaces.IssueTracker,
	cfg *config.Config,
	logger *observability.Logger,
) *AdminFeatureRequestHandler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &AdminFeatureRequestHandler{
		service: service,
		tracker: tracker,
		config:  cfg,
		logger:  logger,
	}
}

// scope resolves the staff caller and the tenant path parameter, plus the request id when withRequest is set.
func (h *AdminFeatureRequestHandler) scope(c *gin.Context, withRequest bool) (staff models.Actor, tenantID, requestID uuid.UUID, ok bool) {
	identity, err := currentStaff(c)
	if err != nil {
		HandleAppError(c, err)
		return models.Actor{}, uuid.Nil, uuid.Nil, false
	}
	if tenantID, err = tenantParam(c); err != nil {
		HandleAppError(c, err)
		return models.Actor{}, uuid.Nil, uuid.Nil, false
	}
	if withRequest {
		if requestID, err = uuidParam(c, "id"); err != nil {
			HandleAppError(c, err)
			return models.Actor{}, uuid.Nil, uuid.Nil, false
		}
	}
	return identity.Actor(), tenantID, requestID, true
}

// ListRequests handles GET /v1/admin/tenants/:tenant_id/feature-requests
func (h *AdminFeatureRequestHandler) ListRequests(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_list_feature_requests")
	defer observability.FinishSpan(span, nil)

	_, tenantID, _, ok := h.scope(c, false)
	if !ok {
		return
	}
	filter, err := parseRequestFilter(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	items, total, err := h.service.ListRequests(ctx, tenantID, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	WritePaginated(c, "requests", items, Pagination{Limit: filter.Limit, Offset: filter.Offset, Total: total}, gin.H{
		"tenant_id": tenantID,
	})
}

// GetRequest handles GET /v1/admin/tenants/:tenant_id/feature-requests/:id
func (h *AdminFeatureRequestHandler) GetRequest(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_get_feature_request")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	view, err := h.service.GetRequest(ctx, tenantID, requestID, staff)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Transition handles POST /v1/admin/tenants/:tenant_id/feature-requests/:id/transition
func (h *AdminFeatureRequestHandler) Transition(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_transition")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	var in TransitionInput
	if !bindJSON(c, &in) {
		return
	}

	r, err := h.service.Transition(ctx, tenantID, requestID, staff, models.Status(in.Status))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

// UpdateStaffFields handles PATCH /v1/admin/tenants/:tenant_id/feature-requests/:id
func (h *AdminFeatureRequestHandler) UpdateStaffFields(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_update_staff_fields")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	var in models.StaffFieldsInput
	if !bindJSON(c, &in) {
		return
	}

	r, err := h.service.UpdateStaffFields(ctx, tenantID, requestID, staff, in)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

// OverrideStatus handles POST /v1/admin/tenants/:tenant_id/feature-requests/:id/override
func (h *AdminFeatureRequestHandler) OverrideStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_override_status")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	var in OverrideInput
	if !bindJSON(c, &in) {
		return
	}

	r, err := h.service.OverrideStatus(ctx, tenantID, requestID, staff, models.Status(in.Status), in.Reason)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

// AddComment handles POST /v1/admin/tenants/:tenant_id/feature-requests/:id/comments
func (h *AdminFeatureRequestHandler) AddComment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_add_comment")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	var in CommentInput
	if !bindJSON(c, &in) {
		return
	}

	comment, err := h.service.AddComment(ctx, tenantID, requestID, staff, in.Content, in.IsInternal)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// History handles GET /v1/admin/tenants/:tenant_id/feature-requests/:id/history
func (h *AdminFeatureRequestHandler) History(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_history")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	events, err := h.service.History(ctx, tenantID, requestID, staff)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// CreateLinearIssue handles POST /v1/admin/tenants/:tenant_id/feature-requests/:id/linear-issue
func (h *AdminFeatureRequestHandler) CreateLinearIssue(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_create_linear_issue")
	defer observability.FinishSpan(span, nil)

	staff, tenantID, requestID, ok := h.scope(c, true)
	if !ok {
		return
	}
	if h.tracker == nil || !h.tracker.IsEnabled() {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrServiceUnavailable, "issue tracker integration is disabled"))
		return
	}

	view, err := h.service.GetRequest(ctx, tenantID, requestID, staff)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	issue, err := h.tracker.CreateIssue(ctx, view.Request)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.String("linear.issue", issue.Identifier))

	h.logger.Info(ctx, "Feature request exported to Linear", map[string]interface{}{
		"request_id": requestID.String(),
		"tenant_id":  tenantID.String(),
		"issue":      issue.Identifier,
	})
	c.JSON(http.StatusCreated, issue)
}
