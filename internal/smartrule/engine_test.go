package smartrule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/merchflow/storefront/internal/catalog"
	dbpkg "github.com/merchflow/storefront/internal/db"
	"github.com/merchflow/storefront/internal/models"
	"github.com/merchflow/storefront/internal/rulecache"
	"github.com/merchflow/storefront/internal/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// countingStore wraps the catalog store to observe query traffic.
type countingStore struct {
	inner   catalog.Store
	queries int
}

func (c *countingStore) Query(ctx context.Context, plan catalog.Plan) ([]models.Product, error) {
	c.queries++
	return c.inner.Query(ctx, plan)
}

func (c *countingStore) Count(ctx context.Context, plan catalog.Plan) (int64, error) {
	return c.inner.Count(ctx, plan)
}

func (c *countingStore) FindByIDs(ctx context.Context, organizationID string, ids []string) ([]models.Product, error) {
	c.queries++
	return c.inner.FindByIDs(ctx, organizationID, ids)
}

type testEnv struct {
	conn    *gorm.DB
	engine  *Engine
	rules   *Rules
	cache   *rulecache.MemoryCache
	catalog *countingStore
	store   *store.GormRuleStore
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	env := &testEnv{
		conn:    conn,
		cache:   rulecache.NewMemoryCache(),
		store:   store.NewGormRuleStore(conn),
		catalog: &countingStore{inner: catalog.NewGormStore(conn)},
		now:     time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	env.engine = NewEngine(env.store, env.catalog, env.cache)
	env.engine.SetClock(func() time.Time { return env.now })
	env.rules = NewRules(env.store, env.cache)
	return env
}

// seedProduct inserts one product with a single inventory row. Timestamps
// are forced afterwards so gorm's auto-time hooks cannot overwrite them.
func (env *testEnv) seedProduct(t *testing.T, product models.Product, quantity int64) {
	t.Helper()

	if product.OrganizationID == "" {
		product.OrganizationID = "org-1"
	}
	if product.Name == "" {
		product.Name = "Product " + product.ID
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}
	product.IsActive = true
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = env.now.AddDate(0, 0, -60)
	}
	updatedAt := product.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	if errCreate := env.conn.Create(&product).Error; errCreate != nil {
		t.Fatalf("seed product %s: %v", product.ID, errCreate)
	}
	if errFix := env.conn.Model(&models.Product{}).
		Where("id = ?", product.ID).
		UpdateColumns(map[string]any{"created_at": createdAt, "updated_at": updatedAt}).Error; errFix != nil {
		t.Fatalf("fix timestamps %s: %v", product.ID, errFix)
	}
	if quantity >= 0 {
		row := models.InventoryLocation{ProductID: product.ID, Location: "main", Quantity: quantity}
		if errInv := env.conn.Create(&row).Error; errInv != nil {
			t.Fatalf("seed inventory %s: %v", product.ID, errInv)
		}
	}
}

func (env *testEnv) seedRule(t *testing.T, rule models.SmartRule) string {
	t.Helper()
	if rule.OrganizationID == "" {
		rule.OrganizationID = "org-1"
	}
	if rule.Name == "" {
		rule.Name = "rule " + string(rule.RuleType)
	}
	rule.IsActive = true
	if errCreate := env.rules.Create(context.Background(), &rule); errCreate != nil {
		t.Fatalf("seed rule: %v", errCreate)
	}
	return rule.ID
}

func timePtr(v time.Time) *time.Time { return &v }

func dtoIDs(dtos []ProductDTO) []string {
	ids := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		ids = append(ids, dto.ID)
	}
	return ids
}

func assertIDs(t *testing.T, dtos []ProductDTO, want ...string) {
	t.Helper()
	got := dtoIDs(dtos)
	if len(got) != len(want) {
		t.Fatalf("ids %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids %v want %v", got, want)
		}
	}
}

func TestExecuteNewArrivalsWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, models.Product{ID: "new-1", CreatedAt: env.now.AddDate(0, 0, -1)}, 5)
	env.seedProduct(t, models.Product{ID: "new-2", CreatedAt: env.now.AddDate(0, 0, -2)}, 5)
	env.seedProduct(t, models.Product{ID: "new-3", CreatedAt: env.now.AddDate(0, 0, -6)}, 5)
	for i := 0; i < 10; i++ {
		env.seedProduct(t, models.Product{
			ID:        fmt.Sprintf("old-%02d", i),
			CreatedAt: env.now.AddDate(0, 0, -10-i),
		}, 5)
	}

	ruleID := env.seedRule(t, models.SmartRule{
		RuleType: models.RuleTypeNewArrivals,
		Filters: datatypes.NewJSONSlice([]models.RuleFilter{
			{Field: "createdAt", Operator: models.OperatorEquals, Value: "7d"},
		}),
		Limit: 5,
	})

	results, errExec := env.engine.Execute(ctx, "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "new-1", "new-2", "new-3")
}

func TestExecuteManualSelectionDropsUnknownIDs(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "A"}, 5)
	env.seedProduct(t, models.Product{ID: "B"}, 5)

	ruleID := env.seedRule(t, models.SmartRule{
		RuleType:         models.RuleTypeManualSelection,
		ManualProductIDs: datatypes.NewJSONSlice([]string{"A", "B", "Z"}),
	})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "A", "B")
}

func TestExecuteManualSelectionPreservesOrder(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "A"}, 5)
	env.seedProduct(t, models.Product{ID: "B"}, 5)
	env.seedProduct(t, models.Product{ID: "C"}, 5)

	ruleID := env.seedRule(t, models.SmartRule{
		RuleType:         models.RuleTypeManualSelection,
		ManualProductIDs: datatypes.NewJSONSlice([]string{"C", "A", "B"}),
	})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "C", "A", "B")
}

func TestExecuteClearanceThreshold(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "shallow", SellingPrice: 100, DiscountedPrice: floatPtr(95)}, 5)
	env.seedProduct(t, models.Product{ID: "deep", SellingPrice: 100, DiscountedPrice: floatPtr(80)}, 5)

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeClearanceSale})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "deep")
}

func TestExclusionBeatsPin(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "P1"}, 5)
	env.seedProduct(t, models.Product{ID: "P2"}, 5)

	ruleID := env.seedRule(t, models.SmartRule{
		RuleType:           models.RuleTypeCustomQuery,
		PinnedProductIDs:   datatypes.NewJSONSlice([]string{"P1"}),
		ExcludedProductIDs: datatypes.NewJSONSlice([]string{"P1"}),
	})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	for _, dto := range results {
		if dto.ID == "P1" {
			t.Fatal("excluded product surfaced despite being pinned")
		}
	}
	assertIDs(t, results, "P2")
}

func TestPinInvariant(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"A", "B", "C", "P2", "P3"} {
		env.seedProduct(t, models.Product{ID: id}, 5)
	}

	ruleID := env.seedRule(t, models.SmartRule{
		RuleType:         models.RuleTypeCustomQuery,
		PinnedProductIDs: datatypes.NewJSONSlice([]string{"P2", "P3"}),
		SortBy:           "name",
		SortOrder:        "asc",
		Limit:            4,
	})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "P2", "P3", "A", "B")
}

func TestTenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, models.Product{ID: "mine"}, 5)
	env.seedProduct(t, models.Product{ID: "theirs", OrganizationID: "org-2"}, 5)

	customID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})
	results, errExec := env.engine.Execute(ctx, "org-1", customID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "mine")

	// Manual selection must silently drop foreign ids too.
	manualID := env.seedRule(t, models.SmartRule{
		RuleType:         models.RuleTypeManualSelection,
		ManualProductIDs: datatypes.NewJSONSlice([]string{"theirs", "mine"}),
	})
	results, errExec = env.engine.Execute(ctx, "org-1", manualID, 0)
	if errExec != nil {
		t.Fatalf("execute manual: %v", errExec)
	}
	assertIDs(t, results, "mine")
}

func TestLimitInvariant(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 60; i++ {
		env.seedProduct(t, models.Product{ID: fmt.Sprintf("bulk-%02d", i)}, 5)
	}

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery, Limit: 500})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	if len(results) != MaxLimit {
		t.Fatalf("result length %d, cap is %d", len(results), MaxLimit)
	}

	// Caller overrides are capped the same way.
	moreResults, errOverride := env.engine.Execute(context.Background(), "org-1", ruleID, 10000)
	if errOverride != nil {
		t.Fatalf("execute with override: %v", errOverride)
	}
	if len(moreResults) > MaxLimit {
		t.Fatalf("override escaped the cap: %d", len(moreResults))
	}
}

func TestOverrideLimitTakesPrecedence(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 10; i++ {
		env.seedProduct(t, models.Product{ID: fmt.Sprintf("p-%02d", i)}, 5)
	}
	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery, Limit: 8})

	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 3)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	if len(results) != 3 {
		t.Fatalf("override limit ignored: got %d", len(results))
	}
}

func TestCacheIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, models.Product{ID: "A"}, 5)
	env.seedProduct(t, models.Product{ID: "B"}, 5)
	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})

	first, errFirst := env.engine.Execute(ctx, "org-1", ruleID, 0)
	if errFirst != nil {
		t.Fatalf("first execute: %v", errFirst)
	}
	queriesAfterFirst := env.catalog.queries

	second, errSecond := env.engine.Execute(ctx, "org-1", ruleID, 0)
	if errSecond != nil {
		t.Fatalf("second execute: %v", errSecond)
	}
	if env.catalog.queries != queriesAfterFirst {
		t.Fatalf("cached execution hit the catalog: %d -> %d", queriesAfterFirst, env.catalog.queries)
	}

	rawFirst, _ := json.Marshal(first)
	rawSecond, _ := json.Marshal(second)
	if !bytes.Equal(rawFirst, rawSecond) {
		t.Fatalf("cached result differs:\n%s\n%s", rawFirst, rawSecond)
	}
}

func TestInvalidationOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		env.seedProduct(t, models.Product{ID: fmt.Sprintf("p-%d", i)}, 5)
	}
	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery, Limit: 6})

	first, errFirst := env.engine.Execute(ctx, "org-1", ruleID, 0)
	if errFirst != nil {
		t.Fatalf("execute: %v", errFirst)
	}
	if len(first) != 6 {
		t.Fatalf("warmup length %d", len(first))
	}

	updated, errGet := env.rules.Get(ctx, "org-1", ruleID)
	if errGet != nil {
		t.Fatalf("get rule: %v", errGet)
	}
	updated.Limit = 2
	if errUpdate := env.rules.Update(ctx, updated); errUpdate != nil {
		t.Fatalf("update rule: %v", errUpdate)
	}

	second, errSecond := env.engine.Execute(ctx, "org-1", ruleID, 0)
	if errSecond != nil {
		t.Fatalf("execute after update: %v", errSecond)
	}
	if len(second) != 2 {
		t.Fatalf("stale cache served after update: length %d", len(second))
	}
}

func TestInvalidationOnDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, models.Product{ID: "A"}, 5)
	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})

	if _, errWarm := env.engine.Execute(ctx, "org-1", ruleID, 0); errWarm != nil {
		t.Fatalf("warmup execute: %v", errWarm)
	}
	if errDelete := env.rules.Delete(ctx, "org-1", ruleID); errDelete != nil {
		t.Fatalf("delete rule: %v", errDelete)
	}

	if _, errExec := env.engine.Execute(ctx, "org-1", ruleID, 0); !errors.Is(errExec, ErrRuleNotFound) {
		t.Fatalf("deleted rule must not serve cached results, got %v", errExec)
	}
}

func TestExecuteInactiveRuleNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})
	if errDeactivate := env.conn.Model(&models.SmartRule{}).
		Where("id = ?", ruleID).
		UpdateColumn("is_active", false).Error; errDeactivate != nil {
		t.Fatalf("deactivate: %v", errDeactivate)
	}

	if _, errExec := env.engine.Execute(ctx, "org-1", ruleID, 0); !errors.Is(errExec, ErrRuleNotFound) {
		t.Fatalf("inactive rule: got %v want ErrRuleNotFound", errExec)
	}
}

func TestExecuteUpdatesStatsOnceUncached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, models.Product{ID: "A"}, 5)
	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})

	if _, errExec := env.engine.Execute(ctx, "org-1", ruleID, 0); errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	if _, errExec := env.engine.Execute(ctx, "org-1", ruleID, 0); errExec != nil {
		t.Fatalf("cached execute: %v", errExec)
	}

	rule, errGet := env.rules.Get(ctx, "org-1", ruleID)
	if errGet != nil {
		t.Fatalf("get rule: %v", errGet)
	}
	if rule.ExecutionCount != 1 {
		t.Fatalf("execution count %d want 1 (cache hits do not count)", rule.ExecutionCount)
	}
	if rule.LastExecutedAt == nil {
		t.Fatal("last executed timestamp missing")
	}
}

func TestPreviewTouchesNeitherCacheNorStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.seedProduct(t, models.Product{ID: fmt.Sprintf("p-%d", i)}, 5)
	}
	persistedID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})

	adHoc := &models.SmartRule{
		OrganizationID: "org-1",
		RuleType:       models.RuleTypeCustomQuery,
		Limit:          2,
	}
	results, estimated, errPreview := env.engine.Preview(ctx, "org-1", adHoc, 0)
	if errPreview != nil {
		t.Fatalf("preview: %v", errPreview)
	}
	if len(results) != 2 {
		t.Fatalf("preview results %d want 2", len(results))
	}
	if estimated != 5 {
		t.Fatalf("estimated count %d want 5", estimated)
	}

	if env.cache.Len() != 0 {
		t.Fatal("preview wrote to the cache")
	}
	persisted, errGet := env.rules.Get(ctx, "org-1", persistedID)
	if errGet != nil {
		t.Fatalf("get rule: %v", errGet)
	}
	if persisted.ExecutionCount != 0 {
		t.Fatal("preview incremented a persisted rule's stats")
	}
}

func TestExecuteAdHocUncached(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "A"}, 5)
	results, errExec := env.engine.ExecuteAdHoc(context.Background(), "org-1", &models.SmartRule{
		OrganizationID: "org-1",
		RuleType:       models.RuleTypeCustomQuery,
	})
	if errExec != nil {
		t.Fatalf("ad hoc execute: %v", errExec)
	}
	assertIDs(t, results, "A")
	if env.cache.Len() != 0 {
		t.Fatal("ad hoc execution wrote to the cache")
	}
}

func TestLowStockRule(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "scarce"}, 3)
	env.seedProduct(t, models.Product{ID: "plenty"}, 50)

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeLowStock})
	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "scarce")
}

func TestDeadStockRule(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{
		ID:        "dormant",
		CreatedAt: env.now.AddDate(0, 0, -200),
	}, 10)
	env.seedProduct(t, models.Product{
		ID:        "selling",
		CreatedAt: env.now.AddDate(0, 0, -200),
		LastSold:  timePtr(env.now.AddDate(0, 0, -3)),
	}, 10)
	env.seedProduct(t, models.Product{
		ID:        "out-of-stock",
		CreatedAt: env.now.AddDate(0, 0, -200),
	}, 2)

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeDeadStock})
	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "dormant")
}

func TestBestSellersOrdering(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{ID: "gold", SalesCount: 90, LastSold: timePtr(env.now.AddDate(0, 0, -1))}, 5)
	env.seedProduct(t, models.Product{ID: "silver", SalesCount: 40, LastSold: timePtr(env.now.AddDate(0, 0, -2))}, 5)
	env.seedProduct(t, models.Product{ID: "never-sold", SalesCount: 0}, 5)

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeBestSellers})
	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "gold", "silver")
}

func TestTrendingWindow(t *testing.T) {
	env := newTestEnv(t)

	env.seedProduct(t, models.Product{
		ID:       "hot",
		LastSold: timePtr(env.now.AddDate(0, 0, -2)),
	}, 5)
	env.seedProduct(t, models.Product{
		ID:        "stale",
		CreatedAt: env.now.AddDate(0, 0, -90),
		UpdatedAt: env.now.AddDate(0, 0, -90),
		LastSold:  timePtr(env.now.AddDate(0, 0, -60)),
	}, 5)

	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeTrending})
	results, errExec := env.engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execute: %v", errExec)
	}
	assertIDs(t, results, "hot")
}

// failingCache simulates an unreachable cache backend.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) Delete(context.Context, ...string) error { return errors.New("cache down") }
func (failingCache) DeleteByPrefix(context.Context, string) error {
	return errors.New("cache down")
}

func TestCacheUnavailableDegradesToUncached(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, models.Product{ID: "A"}, 5)
	ruleID := env.seedRule(t, models.SmartRule{RuleType: models.RuleTypeCustomQuery})

	engine := NewEngine(env.store, env.catalog, failingCache{})
	engine.SetClock(func() time.Time { return env.now })

	results, errExec := engine.Execute(context.Background(), "org-1", ruleID, 0)
	if errExec != nil {
		t.Fatalf("execution must survive a dead cache: %v", errExec)
	}
	assertIDs(t, results, "A")
}

func TestExcludedNeverAppearsAcrossRuleTypes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, models.Product{ID: "banned", SellingPrice: 100, DiscountedPrice: floatPtr(50), SalesCount: 99, LastSold: timePtr(env.now.AddDate(0, 0, -1)), CreatedAt: env.now.AddDate(0, 0, -1)}, 3)
	env.seedProduct(t, models.Product{ID: "ok", SellingPrice: 100, DiscountedPrice: floatPtr(50), SalesCount: 10, LastSold: timePtr(env.now.AddDate(0, 0, -1)), CreatedAt: env.now.AddDate(0, 0, -1)}, 3)

	types := []models.RuleType{
		models.RuleTypeNewArrivals,
		models.RuleTypeBestSellers,
		models.RuleTypeClearanceSale,
		models.RuleTypeTrending,
		models.RuleTypeLowStock,
		models.RuleTypeHeavyDiscount,
		models.RuleTypeCustomQuery,
	}
	for _, ruleType := range types {
		ruleID := env.seedRule(t, models.SmartRule{
			RuleType:           ruleType,
			ExcludedProductIDs: datatypes.NewJSONSlice([]string{"banned"}),
		})
		results, errExec := env.engine.Execute(ctx, "org-1", ruleID, 0)
		if errExec != nil {
			t.Fatalf("%s: execute: %v", ruleType, errExec)
		}
		for _, dto := range results {
			if dto.ID == "banned" {
				t.Fatalf("%s returned an excluded product", ruleType)
			}
		}
	}

	// Manual selection honors exclusions as well.
	manualID := env.seedRule(t, models.SmartRule{
		RuleType:           models.RuleTypeManualSelection,
		ManualProductIDs:   datatypes.NewJSONSlice([]string{"banned", "ok"}),
		ExcludedProductIDs: datatypes.NewJSONSlice([]string{"banned"}),
	})
	results, errExec := env.engine.Execute(ctx, "org-1", manualID, 0)
	if errExec != nil {
		t.Fatalf("manual: execute: %v", errExec)
	}
	assertIDs(t, results, "ok")
}
