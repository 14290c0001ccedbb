package smartrule

import (
	"context"
	"fmt"
	"strings"

	"github.com/merchflow/storefront/internal/models"
	"github.com/merchflow/storefront/internal/rulecache"
	"github.com/merchflow/storefront/internal/store"
)

// Rules manages smart rule lifecycle. Every mutation synchronously drops
// the rule's cached results before reporting success, so no reader can hit
// a cache entry produced by superseded rule logic; the TTL is only a
// backstop.
type Rules struct {
	store store.RuleStore // Rule persistence.
	cache rulecache.Cache // Result cache, nil disables invalidation.
}

// NewRules constructs a Rules service.
func NewRules(ruleStore store.RuleStore, cache rulecache.Cache) *Rules {
	return &Rules{store: ruleStore, cache: cache}
}

// Get loads one rule scoped to the organization.
func (r *Rules) Get(ctx context.Context, organizationID, ruleID string) (*models.SmartRule, error) {
	return r.store.FindByID(ctx, organizationID, ruleID)
}

// List returns every rule owned by the organization.
func (r *Rules) List(ctx context.Context, organizationID string) ([]models.SmartRule, error) {
	return r.store.ListByOrganization(ctx, organizationID)
}

// Create validates and inserts a rule.
func (r *Rules) Create(ctx context.Context, rule *models.SmartRule) error {
	if errValidate := Validate(rule); errValidate != nil {
		return errValidate
	}
	return r.store.Create(ctx, rule)
}

// Update validates and saves a rule, then invalidates its cached results.
func (r *Rules) Update(ctx context.Context, rule *models.SmartRule) error {
	if errValidate := Validate(rule); errValidate != nil {
		return errValidate
	}
	if errUpdate := r.store.Update(ctx, rule); errUpdate != nil {
		return errUpdate
	}
	return r.invalidate(ctx, rule.OrganizationID, rule.ID)
}

// Delete removes a rule, then invalidates its cached results.
func (r *Rules) Delete(ctx context.Context, organizationID, ruleID string) error {
	if errDelete := r.store.Delete(ctx, organizationID, ruleID); errDelete != nil {
		return errDelete
	}
	return r.invalidate(ctx, organizationID, ruleID)
}

// InvalidateAll drops every cached result of the organization. Idempotent.
func (r *Rules) InvalidateAll(ctx context.Context, organizationID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.DeleteByPrefix(ctx, rulecache.OrganizationPrefix(organizationID))
}

func (r *Rules) invalidate(ctx context.Context, organizationID, ruleID string) error {
	if r.cache == nil {
		return nil
	}
	if errDelete := r.cache.Delete(ctx, rulecache.RuleKey(organizationID, ruleID)); errDelete != nil {
		return fmt.Errorf("smartrule: invalidate rule %s: %w", ruleID, errDelete)
	}
	return nil
}

// Validate checks a rule body for structural problems that should be
// rejected at save time. Filter values are not validated here; unusable
// filters degrade to no-ops at execution time.
func Validate(rule *models.SmartRule) error {
	if rule == nil {
		return fmt.Errorf("smartrule: nil rule")
	}
	if strings.TrimSpace(rule.OrganizationID) == "" {
		return fmt.Errorf("smartrule: organization id is required")
	}
	if !rule.RuleType.Valid() {
		return fmt.Errorf("smartrule: unknown rule type %q", rule.RuleType)
	}
	switch strings.ToLower(strings.TrimSpace(rule.SortOrder)) {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("smartrule: sort order must be asc or desc")
	}
	if rule.Limit < 0 {
		return fmt.Errorf("smartrule: limit must not be negative")
	}
	if rule.CacheDurationMinutes < 0 {
		return fmt.Errorf("smartrule: cache duration must not be negative")
	}
	for _, filter := range rule.Filters {
		switch filter.Operator {
		case models.OperatorEquals, models.OperatorNotEquals, models.OperatorContains,
			models.OperatorGreaterThan, models.OperatorLessThan,
			models.OperatorBetween, models.OperatorIn:
		default:
			return fmt.Errorf("smartrule: unknown filter operator %q", filter.Operator)
		}
	}
	return nil
}
