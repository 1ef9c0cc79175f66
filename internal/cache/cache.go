// Package cache provides the time-boxed, tag-addressable cache that sits in
// front of listing and dashboard queries. Values are opaque byte slices
// (marshaled responses); entries expire after a per-entry TTL and can also be
// dropped in bulk by tag.
//
// The cache is advisory only. Quota and dedup decisions always go to the
// ledger directly and must never read through this package.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Store is implemented by the in-memory and Redis backends.
type Store interface {
	// Get returns the cached value for key, or false if absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl and registers it under the given tags.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	// Invalidate drops every entry registered under any of the given tags.
	Invalidate(ctx context.Context, tags ...string) error
}

// Key builds a cache key from the full argument tuple of a query.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// IntPart formats an integer key segment.
func IntPart(v int) string {
	return strconv.Itoa(v)
}
