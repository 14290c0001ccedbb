package handlers

import "github.com/gin-gonic/gin"

// organizationID reads the tenant scope resolved by the tenant middleware.
func organizationID(c *gin.Context) string {
	return c.GetString("organization_id")
}
