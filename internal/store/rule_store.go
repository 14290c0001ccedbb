// Package store persists smart rules and their execution counters.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchflow/storefront/internal/models"
	"gorm.io/gorm"
)

// ErrRuleNotFound reports a rule that is missing, foreign, or inactive.
var ErrRuleNotFound = errors.New("smart rule not found")

// RuleStore is the persistence boundary for smart rules.
type RuleStore interface {
	FindActiveByID(ctx context.Context, organizationID, ruleID string) (*models.SmartRule, error)
	FindByID(ctx context.Context, organizationID, ruleID string) (*models.SmartRule, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]models.SmartRule, error)
	Create(ctx context.Context, rule *models.SmartRule) error
	Update(ctx context.Context, rule *models.SmartRule) error
	Delete(ctx context.Context, organizationID, ruleID string) error
	RecordExecution(ctx context.Context, organizationID, ruleID string, at time.Time) error
}

// GormRuleStore is the GORM-backed RuleStore.
type GormRuleStore struct {
	db *gorm.DB // Database handle for smart rules.
}

// NewGormRuleStore constructs a GormRuleStore.
func NewGormRuleStore(db *gorm.DB) *GormRuleStore { return &GormRuleStore{db: db} }

// FindActiveByID loads one active rule scoped to the organization.
func (s *GormRuleStore) FindActiveByID(ctx context.Context, organizationID, ruleID string) (*models.SmartRule, error) {
	var rule models.SmartRule
	if errFind := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Where("id = ?", ruleID).
		Where("is_active = ?", true).
		First(&rule).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("store: find active rule: %w", errFind)
	}
	return &rule, nil
}

// FindByID loads one rule scoped to the organization, active or not.
func (s *GormRuleStore) FindByID(ctx context.Context, organizationID, ruleID string) (*models.SmartRule, error) {
	var rule models.SmartRule
	if errFind := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Where("id = ?", ruleID).
		First(&rule).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("store: find rule: %w", errFind)
	}
	return &rule, nil
}

// ListByOrganization returns every rule owned by the organization.
func (s *GormRuleStore) ListByOrganization(ctx context.Context, organizationID string) ([]models.SmartRule, error) {
	var rules []models.SmartRule
	if errFind := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&rules).Error; errFind != nil {
		return nil, fmt.Errorf("store: list rules: %w", errFind)
	}
	return rules, nil
}

// Create inserts a rule, assigning an ID when none is set.
func (s *GormRuleStore) Create(ctx context.Context, rule *models.SmartRule) error {
	if rule == nil {
		return fmt.Errorf("store: nil rule")
	}
	if strings.TrimSpace(rule.ID) == "" {
		rule.ID = uuid.NewString()
	}
	if errCreate := s.db.WithContext(ctx).Create(rule).Error; errCreate != nil {
		return fmt.Errorf("store: create rule: %w", errCreate)
	}
	return nil
}

// Update saves a rule. The organization scope is immutable; a rule not
// owned by rule.OrganizationID reports ErrRuleNotFound.
func (s *GormRuleStore) Update(ctx context.Context, rule *models.SmartRule) error {
	if rule == nil {
		return fmt.Errorf("store: nil rule")
	}

	var existing models.SmartRule
	if errFind := s.db.WithContext(ctx).
		Where("organization_id = ?", rule.OrganizationID).
		Where("id = ?", rule.ID).
		First(&existing).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("store: find rule: %w", errFind)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.ExecutionCount = existing.ExecutionCount
	rule.LastExecutedAt = existing.LastExecutedAt
	if errSave := s.db.WithContext(ctx).Save(rule).Error; errSave != nil {
		return fmt.Errorf("store: update rule: %w", errSave)
	}
	return nil
}

// Delete removes a rule scoped to the organization.
func (s *GormRuleStore) Delete(ctx context.Context, organizationID, ruleID string) error {
	result := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Where("id = ?", ruleID).
		Delete(&models.SmartRule{})
	if result.Error != nil {
		return fmt.Errorf("store: delete rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// RecordExecution bumps the execution counter and timestamp. Callers treat
// a failure here as non-fatal.
func (s *GormRuleStore) RecordExecution(ctx context.Context, organizationID, ruleID string, at time.Time) error {
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.SmartRule{}).
		Where("organization_id = ?", organizationID).
		Where("id = ?", ruleID).
		UpdateColumns(map[string]any{
			"execution_count":  gorm.Expr("execution_count + 1"),
			"last_executed_at": at,
		}).Error; errUpdate != nil {
		return fmt.Errorf("store: record execution: %w", errUpdate)
	}
	return nil
}
