package handlers

import (
	"net/http"
	"time"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CommentInput is the body of the comment endpoints. IsInternal is ignored for non-staff.
type CommentInput struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// FeatureRequestHandler serves the tenant-facing feature request routes. Every
// call is scoped to the caller's own tenant.
type FeatureRequestHandler struct {
	service serviceinterfaces.FeatureRequestService
	config  *config.Config
	logger  *observability.Logger
}

// NewFeatureRequestHandler creates a new FeatureRequestHandler instance
func NewFeatureRequestHandler(service serviceinterfaces.FeatureRequestService, cfg *config.Config, logger *observability.Logger) *FeatureRequestHandler {
	return &FeatureRequestHandler{
		service: service,
		config:  cfg,
		logger:  logger,
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return false
	}
	return true
}

// parseRequestFilter reads the list query params shared by tenant and admin listings.
func parseRequestFilter(c *gin.Context) (models.FeatureRequestFilter, error) {
	var filter models.FeatureRequestFilter
	filter.Limit, filter.Offset = ParsePagination(c, config.DefaultPageSize, config.MaxPageSize)

	filters := ParseFilters(c, "status", "category", "priority", "search")
	if raw, ok := filters["status"]; ok {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return filter, contextutils.NewValidationError("status", "unknown status")
		}
		filter.Status = &status
	}
	if raw, ok := filters["category"]; ok {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return filter, contextutils.NewValidationError("category", "unknown category")
		}
		filter.Category = &category
	}
	if raw, ok := filters["priority"]; ok {
		priority, err := models.ParsePriority(raw)
		if err != nil {
			return filter, contextutils.NewValidationError("priority", "unknown priority")
		}
		filter.Priority = &priority
	}
	filter.Search = filters["search"]
	return filter, nil
}

// CreateRequest handles POST /v1/feature-requests. A request saved without its
// submission comment is still a 201, with a warning attached.
func (h *FeatureRequestHandler) CreateRequest(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_feature_request")
	defer observability.FinishSpan(span, nil)

	identity, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	var in models.CreateRequestInput
	if !bindJSON(c, &in) {
		return
	}

	r, err := h.service.CreateRequest(ctx, tenantID, identity.UserID, in)
	if err != nil {
		if r != nil && contextutils.IsError(err, contextutils.ErrPartialFailure) {
			_ = c.Error(err)
			c.JSON(http.StatusCreated, gin.H{
				"request": r,
				"warning": gin.H{
					"code":    string(contextutils.ErrorCodePartialFailure),
					"message": "request created but its submission comment could not be saved",
				},
			})
			return
		}
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": r})
}

// ListRequests handles GET /v1/feature-requests. mine=true narrows to the caller's own requests.
func (h *FeatureRequestHandler) ListRequests(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_feature_requests")
	defer observability.FinishSpan(span, nil)

	identity, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	filter, err := parseRequestFilter(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if c.Query("mine") == "true" {
		filter.RequesterID = &identity.UserID
	}

	items, total, err := h.service.ListRequests(ctx, tenantID, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	WritePaginated(c, "requests", items, Pagination{Limit: filter.Limit, Offset: filter.Offset, Total: total}, nil)
}

// GetRequest handles GET /v1/feature-requests/:id
func (h *FeatureRequestHandler) GetRequest(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feature_request")
	defer observability.FinishSpan(span, nil)

	identity, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	requestID, err := uuidParam(c, "id")
	if err != nil {
		HandleAppError(c, err)
		return
	}

	view, err := h.service.GetRequest(ctx, tenantID, requestID, identity.Actor())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddComment handles POST /v1/feature-requests/:id/comments
func (h *FeatureRequestHandler) AddComment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "add_comment")
	defer observability.FinishSpan(span, nil)

	identity, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	requestID, err := uuidParam(c, "id")
	if err != nil {
		HandleAppError(c, err)
		return
	}
	var in CommentInput
	if !bindJSON(c, &in) {
		return
	}

	comment, err := h.service.AddComment(ctx, tenantID, requestID, identity.Actor(), in.Content, in.IsInternal)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /v1/feature-requests/:id/comments
func (h *FeatureRequestHandler) ListComments(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_comments")
	defer observability.FinishSpan(span, nil)

	identity, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	requestID, err := uuidParam(c, "id")
	if err != nil {
		HandleAppError(c, err)
		return
	}

	comments, err := h.service.ListComments(ctx, tenantID, requestID, identity.Actor())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddAttachment handles POST /v1/feature-requests/:id/attachments
func (h *FeatureRequestHandler) AddAttachment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "add_attachment")
	defer observability.FinishSpan(span, nil)

	identity, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	requestID, err := uuidParam(c, "id")
	if err != nil {
		HandleAppError(c, err)
		return
	}
	var in models.AttachmentInput
	if !bindJSON(c, &in) {
		return
	}

	attachment, err := h.service.AddAttachment(ctx, tenantID, requestID, identity.Actor(), in)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// ListAttachments handles GET /v1/feature-requests/:id/attachments
func (h *FeatureRequestHandler) ListAttachments(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_attachments")
	defer observability.FinishSpan(span, nil)

	_, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	requestID, err := uuidParam(c, "id")
	if err != nil {
		HandleAppError(c, err)
		return
	}

	attachments, err := h.service.ListAttachments(ctx, tenantID, requestID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}

// SLAReport handles GET /v1/feature-requests/sla-report
func (h *FeatureRequestHandler) SLAReport(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "sla_report")
	defer observability.FinishSpan(span, nil)

	_, tenantID, err := currentTenantUser(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	report, err := h.service.SLAReport(ctx, tenantID, time.Now().UTC())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// tenantParam reads the :tenant_id path parameter of admin routes.
func tenantParam(c *gin.Context) (uuid.UUID, error) {
	return uuidParam(c, "tenant_id")
}
