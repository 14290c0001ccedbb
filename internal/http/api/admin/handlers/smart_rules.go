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

// SmartRuleHandler manages admin CRUD, preview, and execution endpoints
// for smart rules.
type SmartRuleHandler struct {
	rules  *smartrule.Rules  // Rule lifecycle with cache invalidation.
	engine *smartrule.Engine // Execution engine.
}

// NewSmartRuleHandler constructs a smart rule handler.
func NewSmartRuleHandler(rules *smartrule.Rules, engine *smartrule.Engine) *SmartRuleHandler {
	return &SmartRuleHandler{rules: rules, engine: engine}
}

// smartRuleRequest captures the payload for creating or updating a rule.
// Field names are the public contract shared with the page builder.
type smartRuleRequest struct {
	Name                 string              `json:"name"`                 // Display name.
	RuleType             string              `json:"ruleType"`             // Merchandising strategy.
	Filters              []models.RuleFilter `json:"filters"`              // Generic refinements.
	SortBy               string              `json:"sortBy"`               // Default sort field.
	SortOrder            string              `json:"sortOrder"`            // asc or desc.
	Limit                int                 `json:"limit"`                // Requested result count.
	PinnedProductIDs     []string            `json:"pinnedProductIds"`     // Always shown first.
	ExcludedProductIDs   []string            `json:"excludedProductIds"`   // Never shown.
	ManualProductIDs     []string            `json:"manualProductIds"`     // manual_selection list.
	CacheDurationMinutes int                 `json:"cacheDurationMinutes"` // Result cache TTL.
	IsActive             *bool               `json:"isActive"`             // Defaults to true on create.
}

// toModel builds the persisted rule from the request payload.
func (body *smartRuleRequest) toModel(organizationID, ruleID string) *models.SmartRule {
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}
	return &models.SmartRule{
		ID:                   ruleID,
		OrganizationID:       organizationID,
		Name:                 strings.TrimSpace(body.Name),
		RuleType:             models.RuleType(strings.TrimSpace(body.RuleType)),
		Filters:              datatypes.NewJSONSlice(body.Filters),
		SortBy:               strings.TrimSpace(body.SortBy),
		SortOrder:            strings.ToLower(strings.TrimSpace(body.SortOrder)),
		Limit:                body.Limit,
		PinnedProductIDs:     datatypes.NewJSONSlice(body.PinnedProductIDs),
		ExcludedProductIDs:   datatypes.NewJSONSlice(body.ExcludedProductIDs),
		ManualProductIDs:     datatypes.NewJSONSlice(body.ManualProductIDs),
		CacheDurationMinutes: body.CacheDurationMinutes,
		IsActive:             isActive,
	}
}

// ruleResponse renders a rule with the public contract field names.
func ruleResponse(rule *models.SmartRule) gin.H {
	return gin.H{
		"id":                   rule.ID,
		"organizationId":       rule.OrganizationID,
		"name":                 rule.Name,
		"ruleType":             rule.RuleType,
		"filters":              []models.RuleFilter(rule.Filters),
		"sortBy":               rule.SortBy,
		"sortOrder":            rule.SortOrder,
		"limit":                rule.Limit,
		"pinnedProductIds":     []string(rule.PinnedProductIDs),
		"excludedProductIds":   []string(rule.ExcludedProductIDs),
		"manualProductIds":     []string(rule.ManualProductIDs),
		"cacheDurationMinutes": rule.CacheDurationMinutes,
		"isActive":             rule.IsActive,
		"executionCount":       rule.ExecutionCount,
		"lastExecutedAt":       rule.LastExecutedAt,
		"createdAt":            rule.CreatedAt,
		"updatedAt":            rule.UpdatedAt,
	}
}

// List returns every rule owned by the organization.
func (h *SmartRuleHandler) List(c *gin.Context) {
	rules, errList := h.rules.List(c.Request.Context(), organizationID(c))
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rules"})
		return
	}

	out := make([]gin.H, 0, len(rules))
	for i := range rules {
		out = append(out, ruleResponse(&rules[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}

// Get returns one rule.
func (h *SmartRuleHandler) Get(c *gin.Context) {
	rule, errGet := h.rules.Get(c.Request.Context(), organizationID(c), c.Param("id"))
	if errGet != nil {
		if errors.Is(errGet, smartrule.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rule"})
		return
	}
	c.JSON(http.StatusOK, ruleResponse(rule))
}

// Create validates input and inserts a rule.
func (h *SmartRuleHandler) Create(c *gin.Context) {
	var body smartRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	rule := body.toModel(organizationID(c), "")
	if errCreate := h.rules.Create(c.Request.Context(), rule); errCreate != nil {
		if errors.Is(errCreate, smartrule.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errCreate.Error()})
		return
	}
	c.JSON(http.StatusCreated, ruleResponse(rule))
}

// Update validates input, saves the rule, and invalidates its cache.
func (h *SmartRuleHandler) Update(c *gin.Context) {
	var body smartRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rule := body.toModel(organizationID(c), c.Param("id"))
	if errUpdate := h.rules.Update(c.Request.Context(), rule); errUpdate != nil {
		if errors.Is(errUpdate, smartrule.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errUpdate.Error()})
		return
	}
	c.JSON(http.StatusOK, ruleResponse(rule))
}

// Delete removes a rule and invalidates its cache.
func (h *SmartRuleHandler) Delete(c *gin.Context) {
	if errDelete := h.rules.Delete(c.Request.Context(), organizationID(c), c.Param("id")); errDelete != nil {
		if errors.Is(errDelete, smartrule.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Execute runs a persisted rule, honoring an optional limit override.
func (h *SmartRuleHandler) Execute(c *gin.Context) {
	limit := parseLimitQuery(c)
	results, errExec := h.engine.Execute(c.Request.Context(), organizationID(c), c.Param("id"), limit)
	if errExec != nil {
		if errors.Is(errExec, smartrule.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rule execution failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": results})
}

// previewRequest wraps an unsaved rule body for preview.
type previewRequest struct {
	smartRuleRequest
	PreviewLimit int `json:"previewLimit"` // Optional limit override for the preview.
}

// Preview runs an unsaved rule body and reports the unlimited match count.
func (h *SmartRuleHandler) Preview(c *gin.Context) {
	var body previewRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rule := body.toModel(organizationID(c), "")
	if errValidate := smartrule.Validate(rule); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
		return
	}

	results, estimated, errPreview := h.engine.Preview(c.Request.Context(), organizationID(c), rule, body.PreviewLimit)
	if errPreview != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rule preview failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":        results,
		"estimatedCount": estimated,
	})
}

// InvalidateCache drops every cached result of the organization.
func (h *SmartRuleHandler) InvalidateCache(c *gin.Context) {
	if errInvalidate := h.rules.InvalidateAll(c.Request.Context(), organizationID(c)); errInvalidate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache invalidation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
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
