package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// organizationHeader carries the tenant scope on every API request.
// Authentication itself is handled upstream; this service trusts the
// header as its tenancy boundary.
const organizationHeader = "X-Organization-ID"

// organizationKey is the gin context key for the resolved tenant.
const organizationKey = "organization_id"

// TenantMiddleware resolves the organization scope and rejects requests
// without one.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		organizationID := strings.TrimSpace(c.GetHeader(organizationHeader))
		if organizationID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "organization id is required"})
			return
		}
		c.Set(organizationKey, organizationID)
		c.Next()
	}
}

// OrganizationID returns the tenant scope resolved by TenantMiddleware.
func OrganizationID(c *gin.Context) string {
	return c.GetString(organizationKey)
}
