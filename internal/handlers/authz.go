package handlers

import (
	"errors"

	"gymdash/internal/middleware"
	contextutils "gymdash/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated indicates no current user could be determined
	ErrUnauthenticated = contextutils.WrapError(contextutils.ErrUnauthorized, "user not authenticated")
	// ErrNoTenant indicates a tenant route was reached by a caller without a tenant
	ErrNoTenant = contextutils.WrapError(contextutils.ErrForbidden, "caller does not belong to a tenant")
)

// GetCurrentIdentity returns the authenticated caller.
// It first checks the Gin context (set by RequireAuth and friends),
// then falls back to the session store.
func GetCurrentIdentity(c *gin.Context) (middleware.Identity, error) {
	if identity, ok := middleware.GetIdentity(c); ok {
		return identity, nil
	}
	if identity, ok := GetIdentityFromSession(c); ok {
		return identity, nil
	}
	return middleware.Identity{}, ErrUnauthenticated
}

// currentTenantUser returns the caller and the tenant every tenant route is scoped to.
func currentTenantUser(c *gin.Context) (middleware.Identity, uuid.UUID, error) {
	identity, err := GetCurrentIdentity(c)
	if err != nil {
		return middleware.Identity{}, uuid.Nil, err
	}
	if !identity.TenantID.Valid {
		return middleware.Identity{}, uuid.Nil, ErrNoTenant
	}
	return identity, identity.TenantID.UUID, nil
}

// currentStaff returns the caller if they are staff.
func currentStaff(c *gin.Context) (middleware.Identity, error) {
	identity, err := GetCurrentIdentity(c)
	if err != nil {
		return middleware.Identity{}, err
	}
	if !identity.Role.IsStaff() {
		return middleware.Identity{}, contextutils.ErrForbidden
	}
	return identity, nil
}

var errMalformedID = errors.New("malformed id")

// uuidParam parses a path parameter. A malformed id is reported as not found so
// probing ids reveals nothing.
func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeRecordNotFound,
			contextutils.SeverityInfo,
			"record not found",
			"",
			errMalformedID,
		)
	}
	return id, nil
}
