package smartrule

import (
	"fmt"
	"strings"

	"github.com/merchflow/storefront/internal/catalog"
	"github.com/merchflow/storefront/internal/models"
)

// totalStockExpr sums on-hand quantity across every inventory location of
// the current product row.
const totalStockExpr = "(SELECT COALESCE(SUM(il.quantity), 0) FROM inventory_locations il WHERE il.product_id = products.id)"

// fieldColumns maps public filter field names onto catalog columns. The
// map doubles as the alias table: merchant-facing names (category, brand,
// price, stock) resolve to the stored columns they stand for. A field not
// listed here is not filterable and its filter silently no-ops.
var fieldColumns = map[string]string{
	"id":              "products.id",
	"name":            "products.name",
	"slug":            "products.slug",
	"sku":             "products.sku",
	"description":     "products.description",
	"currency":        "products.currency",
	"tags":            "products.tags",
	"category":        "products.category_id",
	"categoryId":      "products.category_id",
	"brand":           "products.brand_id",
	"brandId":         "products.brand_id",
	"price":           "products.selling_price",
	"sellingPrice":    "products.selling_price",
	"discountedPrice": "products.discounted_price",
	"createdAt":       "products.created_at",
	"updatedAt":       "products.updated_at",
	"salesCount":      "products.sales_count",
	"lastSold":        "products.last_sold",
	"stock":           totalStockExpr,
}

// strategyOwnedFields lists, per rule type, the filter fields its strategy
// consumes. The generic translator skips them so a strategy input is never
// applied twice.
var strategyOwnedFields = map[models.RuleType]map[string]struct{}{
	models.RuleTypeNewArrivals:   {"createdAt": {}},
	models.RuleTypeBestSellers:   {"lastSold": {}},
	models.RuleTypeCategoryBased: {"category": {}, "categoryId": {}},
	models.RuleTypeHeavyDiscount: {"minDiscount": {}},
	models.RuleTypeLowStock:      {"threshold": {}, "stock": {}},
	models.RuleTypeDeadStock:     {"dormantDays": {}},
}

// translateFilter turns one generic rule filter into a plan predicate.
// The second return is false when the filter must be skipped: empty value,
// strategy-owned field, unknown field or operator, or a between missing
// its upper bound. Filters are optional refinements, never hard failures.
func translateFilter(ruleType models.RuleType, filter models.RuleFilter) (catalog.Predicate, bool) {
	field := strings.TrimSpace(filter.Field)
	if field == "" || isEmptyValue(filter.Value) {
		return catalog.Predicate{}, false
	}
	if owned, ok := strategyOwnedFields[ruleType]; ok {
		if _, reserved := owned[field]; reserved {
			return catalog.Predicate{}, false
		}
	}

	column, known := fieldColumns[field]
	if !known {
		return catalog.Predicate{}, false
	}

	switch filter.Operator {
	case models.OperatorEquals:
		return catalog.Predicate{Expr: column + " = ?", Args: []any{filter.Value}}, true
	case models.OperatorNotEquals:
		return catalog.Predicate{Expr: column + " <> ?", Args: []any{filter.Value}}, true
	case models.OperatorGreaterThan:
		return catalog.Predicate{Expr: column + " > ?", Args: []any{filter.Value}}, true
	case models.OperatorLessThan:
		return catalog.Predicate{Expr: column + " < ?", Args: []any{filter.Value}}, true
	case models.OperatorBetween:
		if isEmptyValue(filter.Value2) {
			return catalog.Predicate{}, false
		}
		return catalog.Predicate{Expr: column + " BETWEEN ? AND ?", Args: []any{filter.Value, filter.Value2}}, true
	case models.OperatorContains:
		pattern := "%" + strings.ToLower(stringValue(filter.Value)) + "%"
		return catalog.Predicate{Expr: "LOWER(" + column + ") LIKE ?", Args: []any{pattern}}, true
	case models.OperatorIn:
		values := normalizeInValues(filter.Value)
		if len(values) == 0 {
			return catalog.Predicate{}, false
		}
		return catalog.Predicate{Expr: column + " IN ?", Args: []any{values}}, true
	default:
		return catalog.Predicate{}, false
	}
}

// isEmptyValue reports whether a filter operand carries no usable value.
func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// normalizeInValues accepts a scalar or array operand and returns the
// membership list, dropping empty entries.
func normalizeInValues(value any) []any {
	var raw []any
	switch v := value.(type) {
	case []any:
		raw = v
	case []string:
		raw = make([]any, 0, len(v))
		for _, item := range v {
			raw = append(raw, item)
		}
	default:
		raw = []any{value}
	}

	values := make([]any, 0, len(raw))
	for _, item := range raw {
		if isEmptyValue(item) {
			continue
		}
		values = append(values, item)
	}
	return values
}

// stringValue renders a scalar operand as its string form for LIKE patterns.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}
