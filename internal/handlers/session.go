package handlers

import (
	"gymdash/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetIdentityFromSession retrieves the current caller from the session.
// Returns false if not authenticated or if any stored value is invalid.
func GetIdentityFromSession(c *gin.Context) (middleware.Identity, bool) {
	return middleware.IdentityFromSession(sessions.Default(c))
}
