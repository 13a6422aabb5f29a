// Copyright 2025 Atrium Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates that the key was not found in cache
	ErrCacheMiss = redis.Nil
)

// QueryFunc defines a function that queries data from database
// T is the type of data to be queried
type QueryFunc[T any] func(ctx context.Context) (T, error)

// KeyFunc defines a function that generates cache key from parameters
type KeyFunc func(params ...any) string

// CachedQuery provides a generic cache-aside pattern implementation
// It queries the cache first, and falls back to database if cache miss
type CachedQuery[T any] struct {
	cache     ICache
	keyFunc   KeyFunc
	queryFunc QueryFunc[T]
	ttl       time.Duration
	logPrefix string
}

// CachedQueryOption configures CachedQuery behavior
type CachedQueryOption[T any] func(*CachedQuery[T])

// WithTTL sets the cache expiration time
func WithTTL[T any](ttl time.Duration) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.ttl = ttl
	}
}

// WithLogPrefix sets the log prefix for debugging
func WithLogPrefix[T any](prefix string) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.logPrefix = prefix
	}
}

// NewCachedQuery creates a new CachedQuery instance
// cache: cache instance
// keyFunc: function to generate cache key from parameters
// queryFunc: function to query data from database
// opts: optional configurations
func NewCachedQuery[T any](
	cache ICache,
	keyFunc KeyFunc,
	queryFunc QueryFunc[T],
	opts ...CachedQueryOption[T],
) *CachedQuery[T] {
	cq := &CachedQuery[T]{
		cache:     cache,
		keyFunc:   keyFunc,
		queryFunc: queryFunc,
		ttl:       1 * time.Hour, // default TTL
		logPrefix: "[CachedQuery]",
	}

	for _, opt := range opts {
		opt(cq)
	}

	return cq
}

// Get queries data with cache-aside pattern
// It first checks the cache, if miss, queries from database and caches the result
// params: parameters used to generate cache key
func (cq *CachedQuery[T]) Get(ctx context.Context, params ...any) (T, error) {
	var zero T
	cacheKey := cq.keyFunc(params...)

	if result, ok := cq.tryCached(ctx, cacheKey); ok {
		return result, nil
	}

	// Cache miss, query from database
	log.Debugw(cq.logPrefix+" cache miss, querying from database", "key", cacheKey)
	result, err := cq.queryFunc(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to query from database: %w", err)
	}

	cq.store(ctx, cacheKey, result)
	return result, nil
}

// GetOrSet queries data with cache-aside pattern, but allows setting a custom value if cache miss
// This is useful when you want to set a default value or handle cache miss differently
func (cq *CachedQuery[T]) GetOrSet(ctx context.Context, setFunc func(ctx context.Context) (T, error), params ...any) (T, error) {
	var zero T
	cacheKey := cq.keyFunc(params...)

	if result, ok := cq.tryCached(ctx, cacheKey); ok {
		return result, nil
	}

	// Cache miss, use setFunc to get/set value
	result, err := setFunc(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to set value: %w", err)
	}

	cq.store(ctx, cacheKey, result)
	return result, nil
}

// Invalidate removes the cached data
func (cq *CachedQuery[T]) Invalidate(ctx context.Context, params ...any) error {
	if cq.cache == nil {
		return nil
	}
	cacheKey := cq.keyFunc(params...)
	err := cq.cache.Del(ctx, cacheKey).Err()
	if err != nil {
		log.Warnw(cq.logPrefix+" failed to invalidate cache", "key", cacheKey, "error", err)
		return err
	}
	log.Debugw(cq.logPrefix+" cache invalidated", "key", cacheKey)
	return nil
}

// tryCached attempts a cache read, returning ok=false on miss or decode failure
func (cq *CachedQuery[T]) tryCached(ctx context.Context, cacheKey string) (T, bool) {
	var zero T
	if cq.cache == nil {
		return zero, false
	}

	cacheData, err := cq.cache.Get(ctx, cacheKey).Result()
	if err == nil && cacheData != "" {
		var result T
		if err := sonic.UnmarshalString(cacheData, &result); err == nil {
			log.Debugw(cq.logPrefix+" cache hit", "key", cacheKey)
			return result, true
		}
		log.Warnw(cq.logPrefix+" failed to unmarshal cached data", "key", cacheKey, "error", err)
	} else if !errors.Is(err, ErrCacheMiss) {
		log.Warnw(cq.logPrefix+" cache get error", "key", cacheKey, "error", err)
	}
	return zero, false
}

// store writes a result back to the cache, logging but not propagating failures
func (cq *CachedQuery[T]) store(ctx context.Context, cacheKey string, result T) {
	if cq.cache == nil {
		return
	}

	cacheData, err := sonic.MarshalString(result)
	if err != nil {
		log.Warnw(cq.logPrefix+" failed to marshal result for caching", "key", cacheKey, "error", err)
		return
	}
	if err := cq.cache.Set(ctx, cacheKey, cacheData, cq.ttl).Err(); err != nil {
		log.Warnw(cq.logPrefix+" failed to cache result", "key", cacheKey, "error", err)
		return
	}
	log.Debugw(cq.logPrefix+" cached result", "key", cacheKey)
}
