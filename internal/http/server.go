// Package http assembles the gin router for the storefront service.
package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/merchflow/storefront/internal/http/api/admin"
	"github.com/merchflow/storefront/internal/http/api/storefront"
	"github.com/merchflow/storefront/internal/smartrule"
)

// BuildRouter wires every API surface onto one gin engine.
func BuildRouter(rules *smartrule.Rules, engine *smartrule.Engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	tenant := TenantMiddleware()
	admin.RegisterAdminRoutes(router, tenant, rules, engine)
	storefront.RegisterStorefrontRoutes(router, tenant, engine)

	return router
}
