package handlers

import (
	"net/http"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/services"

	"github.com/gin-gonic/gin"
)

// UserAdminHandler lets staff provision tenants and logins.
type UserAdminHandler struct {
	userService services.UserServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewUserAdminHandler creates a new UserAdminHandler instance
func NewUserAdminHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *UserAdminHandler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &UserAdminHandler{
		userService: userService,
		config:      cfg,
		logger:      logger,
	}
}

// ListTenants handles GET /v1/admin/tenants
func (h *UserAdminHandler) ListTenants(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_list_tenants")
	defer observability.FinishSpan(span, nil)

	if _, err := currentStaff(c); err != nil {
		HandleAppError(c, err)
		return
	}
	tenants, err := h.userService.ListTenants(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

// CreateTenant handles POST /v1/admin/tenants
func (h *UserAdminHandler) CreateTenant(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_create_tenant")
	defer observability.FinishSpan(span, nil)

	if _, err := currentStaff(c); err != nil {
		HandleAppError(c, err)
		return
	}
	var in models.CreateTenantInput
	if !bindJSON(c, &in) {
		return
	}

	tenant, err := h.userService.CreateTenant(ctx, in)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// CreateUser handles POST /v1/admin/users
func (h *UserAdminHandler) CreateUser(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_create_user")
	defer observability.FinishSpan(span, nil)

	if _, err := currentStaff(c); err != nil {
		HandleAppError(c, err)
		return
	}
	var in models.CreateUserInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := h.userService.CreateUser(ctx, in)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
