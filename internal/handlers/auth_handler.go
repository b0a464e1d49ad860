package handlers

import (
	"net/http"

	"gymdash/internal/config"
	"gymdash/internal/middleware"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/services"
	contextutils "gymdash/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	userService services.UserServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      logger,
	}
}

func identityForUser(user *models.User) middleware.Identity {
	return middleware.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		TenantID: user.TenantID,
	}
}

// Login handles user login requests
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := contextutils.ValidateStruct(req); err != nil {
		HandleAppError(c, err)
		return
	}

	// Set span attributes for observability
	span.SetAttributes(
		attribute.String("auth.username", req.Username),
		attribute.Bool("auth.password_provided", req.Password != ""),
	)

	user, err := h.userService.AuthenticateUser(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.Warn(ctx, "Authentication failed for user", map[string]interface{}{
			"username": req.Username,
			"error":    err.Error(),
		})
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(user.ID),
		observability.AttributeRole(user.Role),
	)

	// Create session
	session := sessions.Default(c)
	session.Clear()
	if err := middleware.SaveIdentity(session, identityForUser(user)); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": user.ID.String()})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// Logout handles user logout requests
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	session := sessions.Default(c)
	if identity, ok := middleware.IdentityFromSession(session); ok {
		span.SetAttributes(
			observability.AttributeUserID(identity.UserID),
			attribute.String("user.username", identity.Username),
		)
	}

	session.Clear()
	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// Status returns the current authentication status
func (h *AuthHandler) Status(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "status")
	defer observability.FinishSpan(span, nil)

	identity, ok := GetIdentityFromSession(c)
	if !ok {
		span.SetAttributes(attribute.Bool("auth.authenticated", false))
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.authenticated", true),
		observability.AttributeUserID(identity.UserID),
	)

	user, err := h.userService.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			h.logger.Error(ctx, "Error getting user by ID", err, map[string]interface{}{"user_id": identity.UserID.String()})
			HandleAppError(c, err)
			return
		}

		// User not found, clear session
		session := sessions.Default(c)
		session.Clear()
		if err := session.Save(); err != nil {
			h.logger.Error(ctx, "Error saving session", err, nil)
		}
		span.SetAttributes(attribute.Bool("auth.user_found", false))
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.user_found", true),
		attribute.String("user.username", user.Username),
		observability.AttributeRole(user.Role),
	)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          user,
	})
}
