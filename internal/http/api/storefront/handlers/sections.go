package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/merchflow/storefront/internal/models"
	"github.com/merchflow/storefront/internal/smartrule"
	"gorm.io/datatypes"
)

// SectionHandler serves product content for storefront page sections.
type SectionHandler struct {
	engine *smartrule.Engine // Execution engine.
}

// NewSectionHandler constructs a section handler.
func NewSectionHandler(engine *smartrule.Engine) *SectionHandler {
	return &SectionHandler{engine: engine}
}

// RuleProducts executes a saved rule for one page section. A missing or
// inactive rule renders as an empty section rather than an error, so a
// stale page reference never breaks the render.
func (h *SectionHandler) RuleProducts(c *gin.Context) {
	limit := parseLimitQuery(c)
	results, errExec := h.engine.Execute(c.Request.Context(), organizationID(c), c.Param("id"), limit)
	if errExec != nil {
		if errors.Is(errExec, smartrule.ErrRuleNotFound) {
			c.JSON(http.StatusOK, gin.H{"products": []smartrule.ProductDTO{}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "section content unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": results})
}

// adHocRuleRequest is a rule body embedded in a static section config.
type adHocRuleRequest struct {
	RuleType           string              `json:"ruleType"`
	Filters            []models.RuleFilter `json:"filters"`
	SortBy             string              `json:"sortBy"`
	SortOrder          string              `json:"sortOrder"`
	Limit              int                 `json:"limit"`
	PinnedProductIDs   []string            `json:"pinnedProductIds"`
	ExcludedProductIDs []string            `json:"excludedProductIds"`
	ManualProductIDs   []string            `json:"manualProductIds"`
}

// AdHocProducts executes an unsaved rule body embedded in a section
// configuration. Never cached, never counted against any saved rule.
func (h *SectionHandler) AdHocProducts(c *gin.Context) {
	var body adHocRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rule := &models.SmartRule{
		OrganizationID:     organizationID(c),
		RuleType:           models.RuleType(strings.TrimSpace(body.RuleType)),
		Filters:            datatypes.NewJSONSlice(body.Filters),
		SortBy:             strings.TrimSpace(body.SortBy),
		SortOrder:          strings.ToLower(strings.TrimSpace(body.SortOrder)),
		Limit:              body.Limit,
		PinnedProductIDs:   datatypes.NewJSONSlice(body.PinnedProductIDs),
		ExcludedProductIDs: datatypes.NewJSONSlice(body.ExcludedProductIDs),
		ManualProductIDs:   datatypes.NewJSONSlice(body.ManualProductIDs),
		IsActive:           true,
	}
	if errValidate := smartrule.Validate(rule); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
		return
	}

	results, errExec := h.engine.ExecuteAdHoc(c.Request.Context(), organizationID(c), rule)
	if errExec != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "section content unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": results})
}

// organizationID reads the tenant scope resolved by the tenant middleware.
func organizationID(c *gin.Context) string {
	return c.GetString("organization_id")
}

// parseLimitQuery reads an optional positive limit query parameter.
func parseLimitQuery(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0
	}
	limit, errParse := strconv.Atoi(raw)
	if errParse != nil || limit < 1 {
		return 0
	}
	return limit
}
