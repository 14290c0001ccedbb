// Package admin registers the merchant-facing management API.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/merchflow/storefront/internal/http/api/admin/handlers"
	"github.com/merchflow/storefront/internal/smartrule"
)

// RegisterAdminRoutes registers smart rule management routes.
func RegisterAdminRoutes(r *gin.Engine, tenant gin.HandlerFunc, rules *smartrule.Rules, engine *smartrule.Engine) {
	if r == nil || rules == nil || engine == nil {
		return
	}

	group := r.Group("/v0/admin")
	group.Use(tenant)

	ruleHandler := handlers.NewSmartRuleHandler(rules, engine)
	group.GET("/smart-rules", ruleHandler.List)
	group.POST("/smart-rules", ruleHandler.Create)
	group.POST("/smart-rules/preview", ruleHandler.Preview)
	group.GET("/smart-rules/:id", ruleHandler.Get)
	group.PUT("/smart-rules/:id", ruleHandler.Update)
	group.DELETE("/smart-rules/:id", ruleHandler.Delete)
	group.POST("/smart-rules/:id/execute", ruleHandler.Execute)
	group.DELETE("/cache", ruleHandler.InvalidateCache)
}
