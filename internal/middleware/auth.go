// Package middleware provides authentication and authorization middleware for the Gin web framework.
package middleware

import (
	"net/http"

	"gymdash/internal/models"
	contextutils "gymdash/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Session keys for storing user information. Values are stored as strings so the
// cookie codec never has to round-trip custom types.
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// UsernameKey is the key used to store username in session
	UsernameKey = "username"
	// RoleKey is the key used to store the user's role in session
	RoleKey = "role"
	// TenantIDKey is the key used to store the tenant ID in session; empty for staff
	TenantIDKey = "tenant_id"
)

// Identity is the authenticated caller as restored from the session.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
	TenantID uuid.NullUUID
}

// Actor returns the identity as a lifecycle actor.
func (i Identity) Actor() models.Actor {
	return models.Actor{UserID: i.UserID, Role: i.Role}
}

// identityContextKey is where RequireAuth stores the Identity on the gin context.
const identityContextKey = "gymdash.identity"

func sessionString(session sessions.Session, key string) string {
	s, _ := session.Get(key).(string)
	return s
}

// IdentityFromSession restores the caller from the session. Any malformed entry means unauthenticated.
func IdentityFromSession(session sessions.Session) (Identity, bool) {
	userID, err := uuid.Parse(sessionString(session, UserIDKey))
	if err != nil {
		return Identity{}, false
	}
	username := sessionString(session, UsernameKey)
	if username == "" {
		return Identity{}, false
	}
	role, err := models.ParseRole(sessionString(session, RoleKey))
	if err != nil {
		return Identity{}, false
	}

	identity := Identity{UserID: userID, Username: username, Role: role}
	if raw := sessionString(session, TenantIDKey); raw != "" {
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			return Identity{}, false
		}
		identity.TenantID = uuid.NullUUID{UUID: tenantID, Valid: true}
	}
	// Staff never belong to a tenant and tenant users always do.
	if role.IsStaff() == identity.TenantID.Valid {
		return Identity{}, false
	}
	return identity, true
}

// SaveIdentity writes the identity into the session.
func SaveIdentity(session sessions.Session, identity Identity) error {
	session.Set(UserIDKey, identity.UserID.String())
	session.Set(UsernameKey, identity.Username)
	session.Set(RoleKey, string(identity.Role))
	if identity.TenantID.Valid {
		session.Set(TenantIDKey, identity.TenantID.UUID.String())
	} else {
		session.Delete(TenantIDKey)
	}
	return session.Save()
}

// SetIdentity stores the identity on the gin context for handlers.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(identityContextKey, identity)
}

// GetIdentity returns the identity stored by RequireAuth.
func GetIdentity(c *gin.Context) (Identity, bool) {
	raw, ok := c.Get(identityContextKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := raw.(Identity)
	return identity, ok
}

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  string(contextutils.ErrorCodeUnauthorized),
	})
	c.Abort()
}

func abortForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"error": "not permitted",
		"code":  string(contextutils.ErrorCodeForbidden),
	})
	c.Abort()
}

// authenticate restores the identity or aborts with 401. It does not advance the chain.
func authenticate(c *gin.Context) (Identity, bool) {
	identity, ok := IdentityFromSession(sessions.Default(c))
	if !ok {
		abortUnauthorized(c)
		return Identity{}, false
	}

	// Store user info in context for handlers and log enrichment
	SetIdentity(c, identity)
	ctx := contextutils.WithUserID(c.Request.Context(), identity.UserID.String())
	if identity.TenantID.Valid {
		ctx = contextutils.WithTenantID(ctx, identity.TenantID.UUID.String())
	}
	c.Request = c.Request.WithContext(ctx)
	return identity, true
}

// RequireAuth returns a middleware that requires authentication
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireStaff returns a middleware that requires an authenticated staff user
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c)
		if !ok {
			return
		}
		if !identity.Role.IsStaff() {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireTenantUser returns a middleware that requires an authenticated user of a tenant.
// Staff reach tenant data through the admin routes instead.
func RequireTenantUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c)
		if !ok {
			return
		}
		if !identity.TenantID.Valid {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}
