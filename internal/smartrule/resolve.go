package smartrule

import (
	"github.com/merchflow/storefront/internal/catalog"
	"github.com/merchflow/storefront/internal/models"
)

// ApplyOverrides layers the rule's merchandising overrides onto a compiled
// plan. This is the only place pin/exclude semantics exist; the compiler
// and its strategies are unaware of them.
func ApplyOverrides(plan *catalog.Plan, rule *models.SmartRule) {
	excluded := compactIDs(rule.ExcludedProductIDs)
	if len(excluded) > 0 {
		plan.Where("products.id NOT IN ?", excluded)
	}

	// Pinned products are fetched separately and prepended; keeping them
	// out of the plan guarantees the remainder never duplicates a pin.
	if pinned := PinnedIDs(rule); len(pinned) > 0 {
		plan.Where("products.id NOT IN ?", pinned)
	}
}

// PinnedIDs returns the rule's pinned ids in order, with exclusions
// already removed. When a product is both pinned and excluded, exclusion
// wins.
func PinnedIDs(rule *models.SmartRule) []string {
	pinned := compactIDs(rule.PinnedProductIDs)
	if len(pinned) == 0 {
		return nil
	}

	excluded := make(map[string]struct{}, len(rule.ExcludedProductIDs))
	for _, id := range compactIDs(rule.ExcludedProductIDs) {
		excluded[id] = struct{}{}
	}

	out := make([]string, 0, len(pinned))
	for _, id := range pinned {
		if _, drop := excluded[id]; drop {
			continue
		}
		out = append(out, id)
	}
	return out
}

// MergePinned prepends the pinned products to the strategy result,
// deduplicates, and truncates to limit.
func MergePinned(pinned, rest []models.Product, limit int) []models.Product {
	if limit <= 0 {
		return nil
	}
	if len(pinned) > limit {
		pinned = pinned[:limit]
	}

	seen := make(map[string]struct{}, len(pinned))
	merged := make([]models.Product, 0, limit)
	for _, product := range pinned {
		seen[product.ID] = struct{}{}
		merged = append(merged, product)
	}

	for _, product := range rest {
		if len(merged) >= limit {
			break
		}
		if _, dup := seen[product.ID]; dup {
			continue
		}
		seen[product.ID] = struct{}{}
		merged = append(merged, product)
	}
	return merged
}
