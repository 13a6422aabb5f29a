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

package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/statemachine"
	"gorm.io/gorm"
)

type fakeIdentity struct {
	mu    sync.Mutex
	codes []string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeIdentity) RolesOf(ctx context.Context, principalId string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	codes, err, delay := f.codes, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, errs.Wrap(ctx.Err(), errs.KindNetwork, "fetch roles of principal "+principalId)
		}
	}
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (f *fakeIdentity) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeIdentity) set(codes []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes, f.err = codes, err
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[string]model.Role
	err   error
}

func (f *fakeRoleRepo) GetActiveRolesByCodes(roleCodes []string) ([]model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Role, 0, len(roleCodes))
	for _, code := range roleCodes {
		if role, ok := f.roles[code]; ok && role.Status == model.RoleStatusActive {
			out = append(out, role)
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) CreateRole(*model.Role) error { return nil }

func (f *fakeRoleRepo) GetRole(string) (*model.Role, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) GetRoleByCode(string) (*model.Role, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) ListRoles(*model.ListRolesReq) ([]model.Role, int64, error) {
	return nil, 0, nil
}

func (f *fakeRoleRepo) UpdateRoleByRoleId(string, map[string]any) error { return nil }
func (f *fakeRoleRepo) DeleteRoleByRoleId(string) error                 { return nil }

type fakeMenuRepo struct {
	menus []model.Menu
	items []model.MenuItem
}

func (f *fakeMenuRepo) GetAllMenus() ([]model.Menu, error)         { return f.menus, nil }
func (f *fakeMenuRepo) GetAllMenuItems() ([]model.MenuItem, error) { return f.items, nil }

func (f *fakeMenuRepo) CreateMenu(*model.Menu) error { return nil }

func (f *fakeMenuRepo) GetMenu(string) (*model.Menu, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMenuRepo) UpdateMenuByMenuCode(string, map[string]any) error { return nil }
func (f *fakeMenuRepo) DeleteMenuWithItems(string) error                  { return nil }
func (f *fakeMenuRepo) CreateMenuItem(*model.MenuItem) error              { return nil }

func (f *fakeMenuRepo) GetMenuItem(string) (*model.MenuItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMenuRepo) GetMenuItemsByMenuCode(string) ([]model.MenuItem, error) {
	return nil, nil
}

func (f *fakeMenuRepo) UpdateMenuItemByItemCode(string, map[string]any) error { return nil }
func (f *fakeMenuRepo) RetireMenuItem(string) error                           { return nil }

func salesManagerRepo(t *testing.T) *fakeRoleRepo {
	t.Helper()
	return &fakeRoleRepo{roles: map[string]model.Role{
		"SALES_MANAGER": activeRole(t, "SALES_MANAGER", model.GrantMap{"SALES": {"CONTACTS", "DEALS"}}),
	}}
}

func newTestResolver(idc *fakeIdentity, roleRepo *fakeRoleRepo, snapshots *cache.HybridCache, cfg Config) *Resolver {
	loader := catalog.NewLoader(&fakeMenuRepo{menus: fixtureMenus(), items: fixtureItems()}, nil, catalog.Config{})
	return NewResolver(idc, roleRepo, loader, snapshots, cfg)
}

func TestResolveBuildsQueryableState(t *testing.T) {
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{})
	h := r.Handle("u-1")

	if state := h.Resolve(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("Resolve() = %v, want %v (err: %v)", state, statemachine.ResolutionReady, h.Err())
	}
	if h.IsLoading() {
		t.Error("IsLoading() = true after settle")
	}
	if h.Err() != nil {
		t.Errorf("Err() = %v, want nil", h.Err())
	}

	if !h.HasMenuAccess("CONTACTS") || !h.HasMenuAccess("DEALS") {
		t.Error("granted items not visible")
	}
	if h.HasMenuAccess("CAMPAIGNS") || h.HasMenuAccess("UNKNOWN_CODE") {
		t.Error("ungranted items visible")
	}
	if !h.HasPermission("deal:read") {
		t.Error("HasPermission(deal:read) = false, want true")
	}

	menu := h.UserMenu()
	if len(menu) != 1 || menu[0].MenuCode != "SALES" {
		t.Fatalf("UserMenu() = %v, want the single SALES group", menuCodes(menu))
	}
	items := h.MenuItemsByGroup("SALES")
	if len(items) != 2 || items[0].ItemCode != "CONTACTS" || items[1].ItemCode != "DEALS" {
		t.Errorf("MenuItemsByGroup(SALES) = %v, want [CONTACTS DEALS]", itemCodes(items))
	}
	if got := h.MenuItemsByGroup("MARKETING"); len(got) != 0 {
		t.Errorf("MenuItemsByGroup(MARKETING) = %v, want empty", got)
	}
}

func TestDefaultDenyBeforeResolve(t *testing.T) {
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{})
	h := r.Handle("u-1")

	if !h.IsLoading() {
		t.Error("IsLoading() = false on a fresh handle")
	}
	if h.HasMenuAccess("CONTACTS") {
		t.Error("HasMenuAccess granted before resolution")
	}
	if h.HasPermission("deal:read") {
		t.Error("HasPermission granted before resolution")
	}
	if got := h.UserMenu(); len(got) != 0 {
		t.Errorf("UserMenu() = %v before resolution, want empty", got)
	}
	if got := h.MenuItemsByGroup("SALES"); len(got) != 0 {
		t.Errorf("MenuItemsByGroup() = %v before resolution, want empty", got)
	}
}

func TestZeroGrantsSettlesAccessDenied(t *testing.T) {
	idc := &fakeIdentity{codes: []string{}}
	r := newTestResolver(idc, &fakeRoleRepo{roles: map[string]model.Role{}}, nil, Config{})
	h := r.Handle("u-1")

	if state := h.Resolve(context.Background()); state != statemachine.ResolutionError {
		t.Fatalf("Resolve() = %v, want %v", state, statemachine.ResolutionError)
	}
	if h.IsLoading() {
		t.Error("IsLoading() = true after settle")
	}
	if got := errs.KindOf(h.Err()); got != errs.KindAccessDenied {
		t.Errorf("KindOf(Err()) = %v, want %v", got, errs.KindAccessDenied)
	}
	if h.Snapshot() != nil {
		t.Error("Snapshot() non-nil in error state")
	}
	if h.HasMenuAccess("CONTACTS") {
		t.Error("HasMenuAccess granted in error state")
	}
}

func TestUpstreamTimeoutSettlesNetwork(t *testing.T) {
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}, delay: 500 * time.Millisecond}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{
		FetchTimeout: 50 * time.Millisecond,
		WaitBudget:   time.Second,
	})
	h := r.Handle("u-1")

	if state := h.Resolve(context.Background()); state != statemachine.ResolutionError {
		t.Fatalf("Resolve() = %v, want %v", state, statemachine.ResolutionError)
	}
	if h.IsLoading() {
		t.Error("IsLoading() = true, want false after timeout settles")
	}
	if got := errs.KindOf(h.Err()); got != errs.KindNetwork {
		t.Errorf("KindOf(Err()) = %v, want %v (timeout is a transport failure, not a denial)", got, errs.KindNetwork)
	}
}

func TestOverlappingRefreshCollapses(t *testing.T) {
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}, delay: 150 * time.Millisecond}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{WaitBudget: 2 * time.Second})
	h := r.Handle("u-1")

	states := make(chan statemachine.ResolutionState, 2)
	go func() { states <- h.RefreshAccess(context.Background()) }()
	time.Sleep(30 * time.Millisecond) // 第二次调用落在第一次的航班窗口内
	go func() { states <- h.RefreshAccess(context.Background()) }()

	for i := 0; i < 2; i++ {
		if state := <-states; state != statemachine.ResolutionReady {
			t.Errorf("caller %d observed %v, want %v", i, state, statemachine.ResolutionReady)
		}
	}
	if got := idc.callCount(); got != 1 {
		t.Errorf("upstream fetch count = %d, want exactly 1", got)
	}
	if !h.HasMenuAccess("CONTACTS") {
		t.Error("shared flight did not publish the snapshot")
	}
}

func TestSupersededCommitIsDiscarded(t *testing.T) {
	st := &principalState{sm: statemachine.NewResolutionStateMachine()}

	older := st.begin()
	newer := st.begin()

	if ok := st.commit(newer, &Snapshot{ItemCodes: []string{"NEW"}}, nil); !ok {
		t.Fatal("fresh commit rejected")
	}
	if ok := st.commit(older, &Snapshot{ItemCodes: []string{"OLD"}}, nil); ok {
		t.Fatal("superseded commit was applied")
	}

	state, snap, err := st.view()
	if state != statemachine.ResolutionReady || err != nil {
		t.Fatalf("state = %v err = %v, want READY nil", state, err)
	}
	if len(snap.ItemCodes) != 1 || snap.ItemCodes[0] != "NEW" {
		t.Errorf("snapshot = %v, want the newer generation to win", snap.ItemCodes)
	}
}

func TestErrorStateStickyUntilRefresh(t *testing.T) {
	idc := &fakeIdentity{err: errs.New(errs.KindNetwork, "identity unreachable")}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{})
	h := r.Handle("u-1")

	if state := h.Resolve(context.Background()); state != statemachine.ResolutionError {
		t.Fatalf("Resolve() = %v, want error state", state)
	}
	if got := idc.callCount(); got != 1 {
		t.Fatalf("upstream fetch count = %d, want 1", got)
	}

	// 错误状态不自动重试：再次 Resolve 不触发上游读取
	idc.set([]string{"SALES_MANAGER"}, nil)
	if state := h.Resolve(context.Background()); state != statemachine.ResolutionError {
		t.Fatalf("Resolve() after failure = %v, want sticky error state", state)
	}
	if got := idc.callCount(); got != 1 {
		t.Errorf("upstream fetch count = %d after second Resolve, want still 1", got)
	}

	// 显式刷新才重新解析
	if state := h.RefreshAccess(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("RefreshAccess() = %v, want %v (err: %v)", state, statemachine.ResolutionReady, h.Err())
	}
	if got := idc.callCount(); got != 2 {
		t.Errorf("upstream fetch count = %d after refresh, want 2", got)
	}
	if h.Err() != nil {
		t.Errorf("Err() = %v after successful refresh, want nil", h.Err())
	}
}

func TestSnapshotCacheSharedAcrossResolvers(t *testing.T) {
	hybrid := cache.NewHybridCache(
		cache.NewFastCache(cache.FastCacheConfig{}), nil,
		cache.HybridCacheConfig{LocalEnabled: true},
	)
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}}
	roleRepo := salesManagerRepo(t)

	r1 := newTestResolver(idc, roleRepo, hybrid, Config{})
	if state := r1.Handle("u-1").Resolve(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("first Resolve() = %v, want READY", state)
	}
	if got := idc.callCount(); got != 1 {
		t.Fatalf("upstream fetch count = %d, want 1", got)
	}

	// 第二个实例命中缓存快照，不再读上游
	r2 := newTestResolver(idc, roleRepo, hybrid, Config{})
	h2 := r2.Handle("u-1")
	if state := h2.Resolve(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("cached Resolve() = %v, want READY", state)
	}
	if got := idc.callCount(); got != 1 {
		t.Errorf("upstream fetch count = %d after cached resolve, want still 1", got)
	}
	if !h2.HasMenuAccess("CONTACTS") {
		t.Error("cached snapshot lost grants")
	}

	// 刷新先作废缓存，必须重新读上游
	if state := h2.RefreshAccess(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("RefreshAccess() = %v, want READY", state)
	}
	if got := idc.callCount(); got != 2 {
		t.Errorf("upstream fetch count = %d after refresh, want 2", got)
	}
}

func TestExpiredSnapshotReresolves(t *testing.T) {
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{SnapshotTTL: 30 * time.Millisecond})
	h := r.Handle("u-1")

	if state := h.Resolve(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("Resolve() = %v, want READY", state)
	}
	time.Sleep(60 * time.Millisecond)

	if state := h.Resolve(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("Resolve() after expiry = %v, want READY", state)
	}
	if got := idc.callCount(); got != 2 {
		t.Errorf("upstream fetch count = %d, want 2 (expiry forces re-resolution)", got)
	}
}

func TestDiscardDropsPrincipalState(t *testing.T) {
	idc := &fakeIdentity{codes: []string{"SALES_MANAGER"}}
	r := newTestResolver(idc, salesManagerRepo(t), nil, Config{})

	h := r.Handle("u-1")
	if state := h.Resolve(context.Background()); state != statemachine.ResolutionReady {
		t.Fatalf("Resolve() = %v, want READY", state)
	}

	r.Discard(context.Background(), "u-1")

	fresh := r.Handle("u-1")
	if !fresh.IsLoading() {
		t.Error("handle after Discard is not back to loading")
	}
	if fresh.HasMenuAccess("CONTACTS") {
		t.Error("grants survived Discard")
	}
}
