package smartrule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/merchflow/storefront/internal/catalog"
	"github.com/merchflow/storefront/internal/models"
	"github.com/merchflow/storefront/internal/rulecache"
	"github.com/merchflow/storefront/internal/store"
	log "github.com/sirupsen/logrus"
)

// ErrRuleNotFound reports a rule that is missing, foreign, or inactive.
// It aliases the store sentinel so callers can test either package.
var ErrRuleNotFound = store.ErrRuleNotFound

// DefaultCacheMinutes applies when a rule has no cache duration set.
const DefaultCacheMinutes = 15

// cacheEntry is the serialized form of one cached execution result.
type cacheEntry struct {
	Results  []ProductDTO `json:"results"`
	StoredAt time.Time    `json:"storedAt"`
}

// Engine orchestrates rule execution: cache lookup, compile on miss,
// catalog query, projection, cache store, and usage stats.
type Engine struct {
	rules   store.RuleStore // Persisted rule lookup and stat updates.
	catalog catalog.Store   // Read-only catalog query boundary.
	cache   rulecache.Cache // Result cache, nil disables caching.
	now     func() time.Time
}

// NewEngine constructs an Engine. A nil cache disables result caching.
func NewEngine(rules store.RuleStore, catalogStore catalog.Store, cache rulecache.Cache) *Engine {
	return &Engine{
		rules:   rules,
		catalog: catalogStore,
		cache:   cache,
		now:     time.Now,
	}
}

// SetClock overrides the engine's time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Execute runs a persisted rule. overrideLimit, when positive, takes
// precedence over the rule's own limit and is still capped at MaxLimit.
// Cache and stat failures never fail the request; only a missing rule or
// a catalog failure does.
func (e *Engine) Execute(ctx context.Context, organizationID, ruleID string, overrideLimit int) ([]ProductDTO, error) {
	rule, errFind := e.rules.FindActiveByID(ctx, organizationID, ruleID)
	if errFind != nil {
		return nil, errFind
	}

	key := rulecache.RuleKey(organizationID, ruleID)
	if cached, ok := e.cacheGet(ctx, key); ok {
		return truncate(cached, overrideLimit), nil
	}

	dtos, errRun := e.run(ctx, rule, organizationID, overrideLimit)
	if errRun != nil {
		return nil, errRun
	}

	e.cacheSet(ctx, key, dtos, rule.CacheDurationMinutes)

	if errStat := e.rules.RecordExecution(ctx, organizationID, ruleID, e.now()); errStat != nil {
		log.Warnf("smartrule: stat update for rule %s: %v", ruleID, errStat)
	}

	return dtos, nil
}

// Preview runs an unsaved rule body and reports the unlimited match count
// alongside the limited results. It never touches the cache or any
// persisted rule's stats.
func (e *Engine) Preview(ctx context.Context, organizationID string, rule *models.SmartRule, limit int) ([]ProductDTO, int64, error) {
	dtos, errRun := e.run(ctx, rule, organizationID, limit)
	if errRun != nil {
		return nil, 0, errRun
	}

	countPlan := Compile(rule, organizationID, e.now())
	ApplyOverrides(&countPlan, rule)
	total, errCount := e.catalog.Count(ctx, countPlan)
	if errCount != nil {
		return nil, 0, errCount
	}
	// Pinned products live outside the compiled plan.
	total += int64(len(PinnedIDs(rule)))

	return dtos, total, nil
}

// ExecuteAdHoc runs an unsaved rule body for static sections that embed a
// rule configuration instead of referencing a saved rule. Uncached.
func (e *Engine) ExecuteAdHoc(ctx context.Context, organizationID string, rule *models.SmartRule) ([]ProductDTO, error) {
	return e.run(ctx, rule, organizationID, 0)
}

// Invalidate removes one rule's cached results. Absent entries are fine.
func (e *Engine) Invalidate(ctx context.Context, organizationID, ruleID string) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Delete(ctx, rulecache.RuleKey(organizationID, ruleID))
}

// InvalidateOrganization removes every cached result of one tenant.
func (e *Engine) InvalidateOrganization(ctx context.Context, organizationID string) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.DeleteByPrefix(ctx, rulecache.OrganizationPrefix(organizationID))
}

// run compiles, resolves, and executes one rule without touching the
// cache or stats.
func (e *Engine) run(ctx context.Context, rule *models.SmartRule, organizationID string, overrideLimit int) ([]ProductDTO, error) {
	if rule == nil {
		return nil, fmt.Errorf("smartrule: nil rule")
	}

	plan := Compile(rule, organizationID, e.now())
	ApplyOverrides(&plan, rule)

	limit := plan.Limit
	if overrideLimit > 0 {
		limit = ClampLimit(overrideLimit)
		if rule.RuleType == models.RuleTypeManualSelection && plan.Limit < limit {
			limit = plan.Limit
		}
	}

	var pinned []models.Product
	if ids := PinnedIDs(rule); len(ids) > 0 {
		var errPinned error
		pinned, errPinned = e.catalog.FindByIDs(ctx, organizationID, ids)
		if errPinned != nil {
			return nil, errPinned
		}
		if len(pinned) > limit {
			pinned = pinned[:limit]
		}
	}

	var rest []models.Product
	if remaining := limit - len(pinned); remaining > 0 {
		plan.Limit = remaining
		var errQuery error
		rest, errQuery = e.catalog.Query(ctx, plan)
		if errQuery != nil {
			return nil, errQuery
		}
	}

	return ToDTOs(MergePinned(pinned, rest, limit)), nil
}

// cacheGet reads and decodes a cached entry. An unreachable cache or a
// corrupt entry degrades to a miss.
func (e *Engine) cacheGet(ctx context.Context, key string) ([]ProductDTO, bool) {
	if e.cache == nil {
		return nil, false
	}
	raw, ok, errGet := e.cache.Get(ctx, key)
	if errGet != nil {
		log.Warnf("smartrule: cache get %s: %v", key, errGet)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entry cacheEntry
	if errDecode := json.Unmarshal(raw, &entry); errDecode != nil {
		log.Warnf("smartrule: cache decode %s: %v", key, errDecode)
		return nil, false
	}
	return entry.Results, true
}

// cacheSet stores an execution result. Failures are logged and swallowed.
func (e *Engine) cacheSet(ctx context.Context, key string, dtos []ProductDTO, minutes int) {
	if e.cache == nil {
		return
	}
	if minutes <= 0 {
		minutes = DefaultCacheMinutes
	}
	raw, errEncode := json.Marshal(cacheEntry{Results: dtos, StoredAt: e.now().UTC()})
	if errEncode != nil {
		log.Warnf("smartrule: cache encode %s: %v", key, errEncode)
		return
	}
	if errSet := e.cache.Set(ctx, key, raw, time.Duration(minutes)*time.Minute); errSet != nil {
		log.Warnf("smartrule: cache set %s: %v", key, errSet)
	}
}

// truncate caps a cached result to an override limit.
func truncate(dtos []ProductDTO, overrideLimit int) []ProductDTO {
	if overrideLimit <= 0 {
		return dtos
	}
	limit := ClampLimit(overrideLimit)
	if len(dtos) > limit {
		return dtos[:limit]
	}
	return dtos
}
