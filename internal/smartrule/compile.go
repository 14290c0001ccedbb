// Package smartrule compiles declarative merchandising rules into catalog
// query plans and executes them with caching and merchandising overrides.
package smartrule

import (
	"strconv"
	"strings"
	"time"

	"github.com/merchflow/storefront/internal/catalog"
	"github.com/merchflow/storefront/internal/models"
)

// MaxLimit caps the result size of every rule execution, whatever the rule
// or caller requests.
const MaxLimit = 50

// DefaultLimit applies when a rule carries no usable limit.
const DefaultLimit = 20

const (
	defaultNewArrivalsWindowDays = 30
	trendingWindowDays           = 7
	clearanceMinDiscountPercent  = 10
	defaultLowStockThreshold     = 10
	deadStockMinQuantity         = 5
	defaultDormantDays           = 90
)

// discountPercentExpr computes the effective discount as a percentage of
// the selling price.
const discountPercentExpr = "(products.selling_price - products.discounted_price) * 100.0 / products.selling_price"

// strategyFunc patches a plan with one rule type's predicate and sort.
// Strategies never see pin/exclude overrides and never mutate the rule.
type strategyFunc func(plan *catalog.Plan, rule *models.SmartRule, now time.Time)

// strategies is the closed dispatch table over rule types.
var strategies = map[models.RuleType]strategyFunc{
	models.RuleTypeNewArrivals:     compileNewArrivals,
	models.RuleTypeBestSellers:     compileBestSellers,
	models.RuleTypeTrending:        compileTrending,
	models.RuleTypeClearanceSale:   compileClearanceSale,
	models.RuleTypeHeavyDiscount:   compileHeavyDiscount,
	models.RuleTypeCategoryBased:   compileCategoryBased,
	models.RuleTypeLowStock:        compileLowStock,
	models.RuleTypeDeadStock:       compileDeadStock,
	models.RuleTypeManualSelection: compileManualSelection,
	models.RuleTypeCustomQuery:     compileCustomQuery,
}

// Compile turns a rule into a concrete query plan for one execution. It is
// a pure function of (rule, organizationID, now); the rule is never
// mutated. Soft-deleted rows are excluded by the store's delete marker.
func Compile(rule *models.SmartRule, organizationID string, now time.Time) catalog.Plan {
	plan := catalog.Plan{}
	plan.Where("products.organization_id = ?", organizationID)
	plan.Where("products.is_active = ?", true)

	if key, ok := ruleSortKey(rule); ok {
		plan.OrderBy(key)
	}

	if strategy, ok := strategies[rule.RuleType]; ok {
		strategy(&plan, rule, now)
	}

	if rule.RuleType != models.RuleTypeManualSelection {
		applyPriceWindow(&plan, rule.Filters)
		for _, filter := range rule.Filters {
			if predicate, ok := translateFilter(rule.RuleType, filter); ok {
				plan.Predicates = append(plan.Predicates, predicate)
			}
		}
		plan.Limit = ClampLimit(rule.Limit)
	}

	return plan
}

// ClampLimit resolves a requested result count into the allowed range.
// Non-positive requests fall back to the default.
func ClampLimit(requested int) int {
	if requested <= 0 {
		return DefaultLimit
	}
	if requested > MaxLimit {
		return MaxLimit
	}
	return requested
}

func compileNewArrivals(plan *catalog.Plan, rule *models.SmartRule, now time.Time) {
	window := windowDays(rule.Filters, "createdAt", defaultNewArrivalsWindowDays)
	plan.Where("products.created_at >= ?", now.AddDate(0, 0, -window))
	plan.OrderBy(catalog.SortKey{Column: "products.created_at", Desc: true})
}

func compileBestSellers(plan *catalog.Plan, rule *models.SmartRule, now time.Time) {
	plan.Where("products.sales_count > ?", 0)
	if window := windowDays(rule.Filters, "lastSold", 0); window > 0 {
		plan.Where("products.last_sold >= ?", now.AddDate(0, 0, -window))
	}
	plan.OrderBy(
		catalog.SortKey{Column: "products.sales_count", Desc: true},
		catalog.SortKey{Column: "products.last_sold", Desc: true},
	)
}

func compileTrending(plan *catalog.Plan, _ *models.SmartRule, now time.Time) {
	cutoff := now.AddDate(0, 0, -trendingWindowDays)
	plan.Where("(products.last_sold >= ? OR products.updated_at >= ?)", cutoff, cutoff)
	plan.OrderBy(catalog.SortKey{Column: "products.last_sold", Desc: true})
}

func compileClearanceSale(plan *catalog.Plan, _ *models.SmartRule, _ time.Time) {
	plan.Where("products.discounted_price IS NOT NULL")
	plan.Where("products.selling_price > ?", 0)
	plan.Where(discountPercentExpr+" >= ?", clearanceMinDiscountPercent)
	plan.Select("discount_percent", discountPercentExpr)
	plan.OrderBy(catalog.SortKey{Column: "discount_percent", Desc: true})
}

func compileHeavyDiscount(plan *catalog.Plan, rule *models.SmartRule, _ time.Time) {
	plan.Where("products.discounted_price IS NOT NULL")
	if minDiscount, ok := numericFilterValue(rule.Filters, "minDiscount"); ok && minDiscount > 0 && minDiscount < 100 {
		plan.Where("products.discounted_price <= products.selling_price * ?", 1-minDiscount/100)
	}
	plan.OrderBy(catalog.SortKey{Column: "products.discounted_price", Desc: false})
}

func compileCategoryBased(plan *catalog.Plan, rule *models.SmartRule, _ time.Time) {
	// A missing or blank category id is a no-op, not an error; the rule
	// degrades to its generic filters.
	if id := stringFilterValue(rule.Filters, "category", "categoryId"); id != "" {
		plan.Where("products.category_id = ?", id)
	}
}

func compileLowStock(plan *catalog.Plan, rule *models.SmartRule, _ time.Time) {
	threshold := float64(defaultLowStockThreshold)
	if value, ok := numericFilterValue(rule.Filters, "threshold", "stock"); ok && value > 0 {
		threshold = value
	}
	plan.Where(totalStockExpr+" <= ?", threshold)
}

func compileDeadStock(plan *catalog.Plan, rule *models.SmartRule, now time.Time) {
	dormant := defaultDormantDays
	if value, ok := numericFilterValue(rule.Filters, "dormantDays"); ok && value > 0 {
		dormant = int(value)
	}
	cutoff := now.AddDate(0, 0, -dormant)
	plan.Where(totalStockExpr+" > ?", deadStockMinQuantity)
	plan.Where("(products.last_sold IS NULL OR products.last_sold < ?)", cutoff)
	plan.OrderBy(catalog.SortKey{Column: "products.created_at", Desc: false})
}

func compileManualSelection(plan *catalog.Plan, rule *models.SmartRule, _ time.Time) {
	// Manual selection is evaluated standalone: generic filters do not
	// apply and the requested order is preserved exactly.
	ids := compactIDs(rule.ManualProductIDs)
	if len(ids) == 0 {
		plan.Where("1 = 0")
		plan.Limit = ClampLimit(rule.Limit)
		return
	}
	plan.Where("products.id IN ?", ids)
	plan.IDOrder = ids

	limit := len(ids)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	plan.Limit = limit
}

func compileCustomQuery(plan *catalog.Plan, rule *models.SmartRule, _ time.Time) {
	// Behavior is driven entirely by the generic filters; the default sort
	// applies only when the rule does not set its own.
	if strings.TrimSpace(rule.SortBy) == "" {
		plan.OrderBy(catalog.SortKey{Column: "products.created_at", Desc: true})
	}
}

// applyPriceWindow folds the shared price_min/price_max filter fields into
// range predicates. They are strategy-level inputs common to all types, so
// the generic translator never sees them.
func applyPriceWindow(plan *catalog.Plan, filters []models.RuleFilter) {
	if minPrice, ok := numericFilterValue(filters, "price_min"); ok {
		plan.Where("products.selling_price >= ?", minPrice)
	}
	if maxPrice, ok := numericFilterValue(filters, "price_max"); ok {
		plan.Where("products.selling_price <= ?", maxPrice)
	}
}

// ruleSortKey resolves the rule's own sortBy/sortOrder into a sort key.
func ruleSortKey(rule *models.SmartRule) (catalog.SortKey, bool) {
	field := strings.TrimSpace(rule.SortBy)
	if field == "" {
		return catalog.SortKey{}, false
	}
	column, ok := fieldColumns[field]
	if !ok {
		return catalog.SortKey{}, false
	}
	desc := !strings.EqualFold(strings.TrimSpace(rule.SortOrder), "asc")
	return catalog.SortKey{Column: column, Desc: desc}, true
}

// windowDays reads a day-count filter value such as "7d", "7", or 7.
func windowDays(filters []models.RuleFilter, field string, fallback int) int {
	raw, ok := filterValue(filters, field)
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(v), "d")
		if parsed, errParse := strconv.Atoi(trimmed); errParse == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// numericFilterValue reads the first numeric value among the given fields.
func numericFilterValue(filters []models.RuleFilter, fields ...string) (float64, bool) {
	for _, field := range fields {
		raw, ok := filterValue(filters, field)
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			if parsed, errParse := strconv.ParseFloat(strings.TrimSpace(v), 64); errParse == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// stringFilterValue reads the first non-empty string value among fields.
func stringFilterValue(filters []models.RuleFilter, fields ...string) string {
	for _, field := range fields {
		raw, ok := filterValue(filters, field)
		if !ok {
			continue
		}
		if s, isString := raw.(string); isString {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// filterValue finds the first filter for field carrying a usable value.
func filterValue(filters []models.RuleFilter, field string) (any, bool) {
	for _, filter := range filters {
		if filter.Field != field || isEmptyValue(filter.Value) {
			continue
		}
		return filter.Value, true
	}
	return nil, false
}

// compactIDs trims and dedupes an id list, preserving order.
func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
