package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/merchflow/storefront/internal/models"
	"gorm.io/gorm"
)

// Store is the read-only query boundary to the product catalog.
type Store interface {
	// Query runs a compiled plan and returns matching products with
	// inventory rows loaded.
	Query(ctx context.Context, plan Plan) ([]models.Product, error)
	// Count returns the unlimited match count for a plan.
	Count(ctx context.Context, plan Plan) (int64, error)
	// FindByIDs returns the tenant's active products among ids, in the
	// order ids lists them. Unknown or foreign ids are silently absent.
	FindByIDs(ctx context.Context, organizationID string, ids []string) ([]models.Product, error)
}

// GormStore executes compiled plans against a GORM-managed catalog.
type GormStore struct {
	db *gorm.DB // Catalog database handle.
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// Query runs a compiled plan and returns matching products.
func (s *GormStore) Query(ctx context.Context, plan Plan) ([]models.Product, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog: nil store")
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).Preload("Inventory")

	if len(plan.Computed) > 0 {
		columns := []string{"products.*"}
		for _, computed := range plan.Computed {
			columns = append(columns, fmt.Sprintf("(%s) AS %s", computed.Expr, computed.Alias))
		}
		query = query.Select(strings.Join(columns, ", "))
	}

	for _, predicate := range plan.Predicates {
		query = query.Where(predicate.Expr, predicate.Args...)
	}

	for _, key := range plan.Sort {
		query = query.Order(orderExpr(key))
	}
	// Stable tiebreak keeps repeated executions byte-identical.
	query = query.Order("products.id ASC")

	// With an explicit id order the limit must apply after reordering,
	// otherwise SQL would truncate by storage order first.
	if plan.Limit > 0 && len(plan.IDOrder) == 0 {
		query = query.Limit(plan.Limit)
	}

	var rows []models.Product
	if errFind := query.Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("catalog: query: %w", errFind)
	}

	if len(plan.IDOrder) > 0 {
		rows = reorderByIDs(rows, plan.IDOrder)
		if plan.Limit > 0 && len(rows) > plan.Limit {
			rows = rows[:plan.Limit]
		}
	}
	return rows, nil
}

// Count returns the unlimited match count for a plan.
func (s *GormStore) Count(ctx context.Context, plan Plan) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("catalog: nil store")
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})
	for _, predicate := range plan.Predicates {
		query = query.Where(predicate.Expr, predicate.Args...)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		return 0, fmt.Errorf("catalog: count: %w", errCount)
	}
	return total, nil
}

// FindByIDs returns the tenant's active products among ids, preserving order.
func (s *GormStore) FindByIDs(ctx context.Context, organizationID string, ids []string) ([]models.Product, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog: nil store")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []models.Product
	if errFind := s.db.WithContext(ctx).
		Preload("Inventory").
		Where("organization_id = ?", organizationID).
		Where("is_active = ?", true).
		Where("id IN ?", ids).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("catalog: find by ids: %w", errFind)
	}

	return reorderByIDs(rows, ids), nil
}

// orderExpr renders one sort key. Columns come from the compiler's closed
// alias tables, never from caller input.
func orderExpr(key SortKey) string {
	if key.Desc {
		return key.Column + " DESC"
	}
	return key.Column + " ASC"
}

// reorderByIDs arranges rows to match the given id order, dropping ids
// that matched no row.
func reorderByIDs(rows []models.Product, ids []string) []models.Product {
	byID := make(map[string]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	ordered := make([]models.Product, 0, len(rows))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered
}
