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
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// mockCache is a simple mock implementation of ICache for testing
type mockCache struct {
	data map[string]string
}

func newMockCache() *mockCache {
	return &mockCache{
		data: make(map[string]string),
	}
}

func (m *mockCache) Get(ctx context.Context, key string) *redis.StringCmd {
	val, ok := m.data[key]
	if !ok {
		cmd := redis.NewStringCmd(ctx, "get", key)
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd := redis.NewStringCmd(ctx, "get", key)
	cmd.SetVal(val)
	return cmd
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	count := int64(0)
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			count++
		}
	}
	cmd := redis.NewIntCmd(ctx, "del", keys)
	cmd.SetVal(count)
	return cmd
}

func (m *mockCache) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	count := int64(0)
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			count++
		}
	}
	cmd := redis.NewIntCmd(ctx, "exists", keys)
	cmd.SetVal(count)
	return cmd
}

func (m *mockCache) TTL(ctx context.Context, key string) *redis.DurationCmd {
	cmd := redis.NewDurationCmd(ctx, time.Second, "ttl", key)
	if _, ok := m.data[key]; ok {
		cmd.SetVal(-1 * time.Second)
	} else {
		cmd.SetVal(-2 * time.Second)
	}
	return cmd
}

func (m *mockCache) Pipeline() redis.Pipeliner {
	return nil
}

func (m *mockCache) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "hset", key, values)
	cmd.SetVal(int64(len(values) / 2))
	return cmd
}

func (m *mockCache) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	cmd := redis.NewMapStringStringCmd(ctx, "hgetall", key)
	cmd.SetVal(make(map[string]string))
	return cmd
}

func (m *mockCache) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "hdel", key, fields)
	cmd.SetVal(int64(len(fields)))
	return cmd
}

func (m *mockCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key, expiration)
	cmd.SetVal(true)
	return cmd
}

type menuEntry struct {
	MenuKey string `json:"menuKey"`
	Label   string `json:"label"`
}

func TestCachedQuery_Get_CacheHit(t *testing.T) {
	mockCache := newMockCache()
	ctx := context.Background()

	// Pre-populate cache
	cachedData := `{"menuKey":"contacts","label":"Contacts"}`
	mockCache.Set(ctx, "menu:contacts", cachedData, time.Hour)

	keyFunc := func(params ...any) string {
		return "menu:" + params[0].(string)
	}

	queryFunc := func(ctx context.Context) (menuEntry, error) {
		t.Error("queryFunc should not be called on cache hit")
		return menuEntry{}, nil
	}

	cq := NewCachedQuery(mockCache, keyFunc, queryFunc, WithLogPrefix[menuEntry]("[Test]"))

	result, err := cq.Get(ctx, "contacts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MenuKey != "contacts" || result.Label != "Contacts" {
		t.Errorf("expected {MenuKey:contacts, Label:Contacts}, got %+v", result)
	}
}

func TestCachedQuery_Get_CacheMiss(t *testing.T) {
	mockCache := newMockCache()
	ctx := context.Background()

	keyFunc := func(params ...any) string {
		return "menu:" + params[0].(string)
	}

	queryCalled := false
	queryFunc := func(ctx context.Context) (menuEntry, error) {
		queryCalled = true
		return menuEntry{MenuKey: "deals", Label: "Deals"}, nil
	}

	cq := NewCachedQuery(mockCache, keyFunc, queryFunc, WithLogPrefix[menuEntry]("[Test]"))

	result, err := cq.Get(ctx, "deals")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !queryCalled {
		t.Error("queryFunc should be called on cache miss")
	}

	if result.MenuKey != "deals" || result.Label != "Deals" {
		t.Errorf("expected {MenuKey:deals, Label:Deals}, got %+v", result)
	}

	// Verify data is cached
	cached, err := mockCache.Get(ctx, "menu:deals").Result()
	if err != nil {
		t.Fatalf("data should be cached: %v", err)
	}
	if cached == "" {
		t.Error("cached data should not be empty")
	}
}

func TestCachedQuery_Get_QueryError(t *testing.T) {
	mockCache := newMockCache()
	ctx := context.Background()

	keyFunc := func(params ...any) string {
		return "menu:" + params[0].(string)
	}

	queryFunc := func(ctx context.Context) (menuEntry, error) {
		return menuEntry{}, errors.New("database error")
	}

	cq := NewCachedQuery(mockCache, keyFunc, queryFunc, WithLogPrefix[menuEntry]("[Test]"))

	_, err := cq.Get(ctx, "broken")
	if err == nil {
		t.Error("expected error from queryFunc")
	}
}

func TestCachedQuery_Invalidate(t *testing.T) {
	mockCache := newMockCache()
	ctx := context.Background()

	// Pre-populate cache
	mockCache.Set(ctx, "menu:contacts", `{"menuKey":"contacts","label":"Contacts"}`, time.Hour)

	keyFunc := func(params ...any) string {
		return "menu:" + params[0].(string)
	}

	queryFunc := func(ctx context.Context) (menuEntry, error) {
		return menuEntry{}, nil
	}

	cq := NewCachedQuery(mockCache, keyFunc, queryFunc, WithLogPrefix[menuEntry]("[Test]"))

	err := cq.Invalidate(ctx, "contacts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify cache is deleted
	_, err = mockCache.Get(ctx, "menu:contacts").Result()
	if !errors.Is(err, redis.Nil) {
		t.Error("cache should be deleted")
	}
}

func TestCachedQuery_WithTTL(t *testing.T) {
	mockCache := newMockCache()
	ctx := context.Background()

	keyFunc := func(params ...any) string {
		return "menu:" + params[0].(string)
	}

	queryFunc := func(ctx context.Context) (menuEntry, error) {
		return menuEntry{MenuKey: "contacts", Label: "Contacts"}, nil
	}

	customTTL := 30 * time.Minute
	cq := NewCachedQuery(mockCache, keyFunc, queryFunc, WithTTL[menuEntry](customTTL))

	_, err := cq.Get(ctx, "contacts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cq.ttl != customTTL {
		t.Errorf("expected TTL %v, got %v", customTTL, cq.ttl)
	}
}

func TestCachedQuery_GetOrSet(t *testing.T) {
	mockCache := newMockCache()
	ctx := context.Background()

	keyFunc := func(params ...any) string {
		return "menu:" + params[0].(string)
	}

	setFunc := func(ctx context.Context) (menuEntry, error) {
		return menuEntry{MenuKey: "reports", Label: "Reports"}, nil
	}

	cq := NewCachedQuery(mockCache, keyFunc, nil, WithLogPrefix[menuEntry]("[Test]"))

	result, err := cq.GetOrSet(ctx, setFunc, "reports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MenuKey != "reports" || result.Label != "Reports" {
		t.Errorf("expected {MenuKey:reports, Label:Reports}, got %+v", result)
	}

	// Verify data is cached
	cached, err := mockCache.Get(ctx, "menu:reports").Result()
	if err != nil {
		t.Fatalf("data should be cached: %v", err)
	}
	if cached == "" {
		t.Error("cached data should not be empty")
	}
}
