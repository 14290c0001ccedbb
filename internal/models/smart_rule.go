package models

import (
	"time"

	"gorm.io/datatypes"
)

// RuleType identifies the merchandising strategy a smart rule uses.
type RuleType string

// RuleType values cover every supported merchandising strategy.
const (
	// RuleTypeNewArrivals selects recently created products.
	RuleTypeNewArrivals RuleType = "new_arrivals"
	// RuleTypeBestSellers selects products by sales volume.
	RuleTypeBestSellers RuleType = "best_sellers"
	// RuleTypeClearanceSale selects products discounted at least 10 percent.
	RuleTypeClearanceSale RuleType = "clearance_sale"
	// RuleTypeTrending selects products sold or updated in the last week.
	RuleTypeTrending RuleType = "trending"
	// RuleTypeCategoryBased selects products from one category.
	RuleTypeCategoryBased RuleType = "category_based"
	// RuleTypeLowStock selects products at or below a stock threshold.
	RuleTypeLowStock RuleType = "low_stock"
	// RuleTypeDeadStock selects stocked products that stopped selling.
	RuleTypeDeadStock RuleType = "dead_stock"
	// RuleTypeHeavyDiscount selects products with a deep discount applied.
	RuleTypeHeavyDiscount RuleType = "heavy_discount"
	// RuleTypeManualSelection returns an explicit, ordered product list.
	RuleTypeManualSelection RuleType = "manual_selection"
	// RuleTypeCustomQuery is driven entirely by the rule's generic filters.
	RuleTypeCustomQuery RuleType = "custom_query"
)

// Valid reports whether t is one of the supported rule types.
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeNewArrivals, RuleTypeBestSellers, RuleTypeClearanceSale,
		RuleTypeTrending, RuleTypeCategoryBased, RuleTypeLowStock,
		RuleTypeDeadStock, RuleTypeHeavyDiscount, RuleTypeManualSelection,
		RuleTypeCustomQuery:
		return true
	}
	return false
}

// FilterOperator is the comparison a rule filter applies to a field.
type FilterOperator string

// FilterOperator values supported by the generic filter translator.
const (
	// OperatorEquals matches exact values.
	OperatorEquals FilterOperator = "equals"
	// OperatorNotEquals excludes exact values.
	OperatorNotEquals FilterOperator = "not_equals"
	// OperatorContains matches a case-insensitive substring.
	OperatorContains FilterOperator = "contains"
	// OperatorGreaterThan matches values above the operand.
	OperatorGreaterThan FilterOperator = "greater_than"
	// OperatorLessThan matches values below the operand.
	OperatorLessThan FilterOperator = "less_than"
	// OperatorBetween matches values in the [value, value2] range.
	OperatorBetween FilterOperator = "between"
	// OperatorIn matches set membership.
	OperatorIn FilterOperator = "in"
)

// RuleFilter is one generic refinement applied on top of a rule strategy.
type RuleFilter struct {
	Field    string         `json:"field"`            // Public field name, alias-resolved before use.
	Operator FilterOperator `json:"operator"`         // Comparison operator.
	Value    any            `json:"value"`            // Primary operand.
	Value2   any            `json:"value2,omitempty"` // Upper bound for between.
}

// SmartRule is a persisted declarative merchandising configuration.
type SmartRule struct {
	ID             string `gorm:"type:varchar(64);primaryKey"`     // UUID primary key.
	OrganizationID string `gorm:"type:varchar(64);not null;index"` // Tenant scope, immutable.
	Name           string `gorm:"type:varchar(255);not null"`      // Display name.

	RuleType RuleType                        `gorm:"type:varchar(32);not null;index"` // Merchandising strategy.
	Filters  datatypes.JSONSlice[RuleFilter] `gorm:"type:json"`                       // Ordered generic filters.

	SortBy    string `gorm:"type:varchar(64)"`                 // Default sort field, strategies may override.
	SortOrder string `gorm:"type:varchar(4);default:desc"`     // asc or desc.
	Limit     int    `gorm:"column:result_limit;not null;default:20"` // Requested result count, always clamped.

	PinnedProductIDs   datatypes.JSONSlice[string] `gorm:"type:json"` // Always shown first, in order.
	ExcludedProductIDs datatypes.JSONSlice[string] `gorm:"type:json"` // Never shown.
	ManualProductIDs   datatypes.JSONSlice[string] `gorm:"type:json"` // Explicit list for manual_selection.

	CacheDurationMinutes int  `gorm:"not null;default:15"`         // Result cache TTL.
	IsActive             bool `gorm:"not null;default:true;index"` // Whether the rule may execute.

	ExecutionCount int64      `gorm:"not null;default:0"` // Uncached execution counter.
	LastExecutedAt *time.Time `gorm:""`                   // Last uncached execution.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName sets the smart rules table name.
func (SmartRule) TableName() string { return "smart_rules" }
