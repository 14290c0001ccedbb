// Package storefront registers the public page-rendering API.
package storefront

import (
	"github.com/gin-gonic/gin"
	"github.com/merchflow/storefront/internal/http/api/storefront/handlers"
	"github.com/merchflow/storefront/internal/smartrule"
)

// RegisterStorefrontRoutes registers section content routes.
func RegisterStorefrontRoutes(r *gin.Engine, tenant gin.HandlerFunc, engine *smartrule.Engine) {
	if r == nil || engine == nil {
		return
	}

	group := r.Group("/v0/storefront")
	group.Use(tenant)

	sectionHandler := handlers.NewSectionHandler(engine)
	group.GET("/sections/rules/:id/products", sectionHandler.RuleProducts)
	group.POST("/sections/products", sectionHandler.AdHocProducts)
}
