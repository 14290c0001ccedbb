// Package rulecache stores serialized smart rule results keyed per
// organization and rule, with TTL expiry and explicit invalidation.
package rulecache

import (
	"context"
	"time"
)

// Cache is the narrow key/value contract the execution engine depends on.
// Implementations must treat a missing key as (nil, false, nil), not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

const keyPrefix = "smartrule:"

// RuleKey builds the cache key for one rule's results.
func RuleKey(organizationID, ruleID string) string {
	return keyPrefix + organizationID + ":" + ruleID
}

// OrganizationPrefix builds the key prefix covering every rule of one tenant.
func OrganizationPrefix(organizationID string) string {
	return keyPrefix + organizationID + ":"
}
