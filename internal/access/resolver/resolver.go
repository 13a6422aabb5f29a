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
	"time"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/consts"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/internal/access/repo"
	"github.com/atriumcrm/atrium/internal/identity"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/metrics"
	"github.com/atriumcrm/atrium/pkg/statemachine"
	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Config 解析器配置
type Config struct {
	FetchTimeout time.Duration // 单次上游解析预算，超时归为 NETWORK
	WaitBudget   time.Duration // 调用方等待解析结果的预算，耗尽即报告 LOADING
	SnapshotTTL  time.Duration // 快照时效，过期后下次查询触发重解析
}

// SetDefaults 填充缺省值
func (c *Config) SetDefaults() {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 5 * time.Second
	}
	if c.WaitBudget <= 0 {
		c.WaitBudget = 2 * time.Second
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = 5 * time.Minute
	}
}

// Resolver 把主体的角色授权与菜单目录解析为可查询的访问快照
// 重叠的解析合并为一次上游读取；代际计数保证被取代的响应不会覆盖更新的状态
type Resolver struct {
	identity  identity.IClient
	roleRepo  repo.IRoleRepository
	loader    *catalog.Loader
	snapshots *cache.HybridCache
	cfg       Config

	flights singleflight.Group

	mu     sync.Mutex
	states map[string]*principalState
}

func NewResolver(identityClient identity.IClient, roleRepo repo.IRoleRepository,
	loader *catalog.Loader, snapshots *cache.HybridCache, cfg Config) *Resolver {
	cfg.SetDefaults()
	return &Resolver{
		identity:  identityClient,
		roleRepo:  roleRepo,
		loader:    loader,
		snapshots: snapshots,
		cfg:       cfg,
		states:    make(map[string]*principalState),
	}
}

// principalState 单主体的解析状态；snapshot 与 err 互斥
type principalState struct {
	mu       sync.RWMutex
	sm       *statemachine.StateMachine[statemachine.ResolutionState]
	snapshot *Snapshot
	err      error
	issued   uint64 // 已分配的最新代际
	applied  uint64 // 已提交的最新代际
}

// begin 开启一个解析代际；已settle的状态回到 LOADING
func (st *principalState) begin() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.issued++
	if st.sm.Current().IsSettled() {
		if err := st.sm.TriggerEvent(statemachine.EventRefreshRequested); err != nil {
			log.Warnw("access resolution refresh transition failed", "error", err)
		}
	}
	return st.issued
}

// commit 提交一次解析结果，后写胜出：过期代际被丢弃，
// 被取代的响应不会覆盖更新的状态
func (st *principalState) commit(gen uint64, snap *Snapshot, err error) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if gen < st.applied {
		log.Debugw("discarding superseded access resolution", "generation", gen, "applied", st.applied)
		return false
	}
	st.applied = gen
	st.snapshot = snap
	st.err = err

	event := statemachine.EventResolveSucceeded
	if err != nil {
		event = statemachine.EventResolveFailed
	}
	if st.sm.Current().IsSettled() {
		// 新代际在旧代际 settle 之后落地：先回 LOADING 保持迁移合法
		_ = st.sm.TriggerEvent(statemachine.EventRefreshRequested)
	}
	if smErr := st.sm.TriggerEvent(event); smErr != nil {
		log.Warnw("access resolution state transition failed", "event", event, "error", smErr)
	}
	return true
}

func (st *principalState) view() (statemachine.ResolutionState, *Snapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sm.Current(), st.snapshot, st.err
}

func (r *Resolver) state(principalId string) *principalState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[principalId]
	if !ok {
		st = &principalState{sm: statemachine.NewResolutionStateMachine()}
		r.states[principalId] = st
	}
	return st
}

// Handle 返回主体的解析句柄；导航渲染与路由守卫通过句柄查询同一份快照
func (r *Resolver) Handle(principalId string) *Handle {
	return &Handle{r: r, principalId: principalId, st: r.state(principalId)}
}

// Discard 丢弃主体的解析状态与缓存快照（登出时调用）
func (r *Resolver) Discard(ctx context.Context, principalId string) {
	r.mu.Lock()
	delete(r.states, principalId)
	r.mu.Unlock()
	if r.snapshots != nil {
		r.snapshots.Del(ctx, consts.SnapshotKey+principalId)
	}
}

// resolve 发起或加入一次解析航班，在 ctx 允许的时间内等待结果
// 等待方先行退出时航班在后台继续，结果仍会提交
func (r *Resolver) resolve(ctx context.Context, st *principalState, principalId, trigger string, useCache bool) statemachine.ResolutionState {
	ch := r.flights.DoChan(principalId, func() (any, error) {
		r.fetch(st, principalId, trigger, useCache)
		return nil, nil
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}
	state, _, _ := st.view()
	return state
}

// fetch 执行一次完整解析并提交
// 航班不依附单个请求的生命周期，用独立的超时上下文
func (r *Resolver) fetch(st *principalState, principalId, trigger string, useCache bool) {
	gen := st.begin()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.FetchTimeout)
	defer cancel()

	if useCache {
		if snap := r.cachedSnapshot(ctx, principalId); snap != nil {
			st.commit(gen, snap, nil)
			metrics.RecordResolve(trigger, time.Since(start))
			return
		}
	}

	snap, err := r.fetchUpstream(ctx, principalId)
	if err == nil && r.snapshots != nil {
		r.snapshots.Set(ctx, consts.SnapshotKey+principalId, snap, r.cfg.SnapshotTTL)
	}
	st.commit(gen, snap, err)
	metrics.RecordResolve(trigger, time.Since(start))

	if err != nil {
		log.Errorw("access resolution failed",
			"principalId", principalId, "trigger", trigger, "kind", errs.KindOf(err), "error", err)
	}
}

// fetchUpstream 并发拉取两路输入：主体角色（身份服务 + 角色表）与菜单目录
// 两路完成顺序不限，快照是两者的纯函数
func (r *Resolver) fetchUpstream(ctx context.Context, principalId string) (*Snapshot, error) {
	var (
		roles []model.Role
		ix    *catalog.Index
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		roleCodes, err := r.identity.RolesOf(egCtx, principalId)
		if err != nil {
			return err
		}
		roles, err = r.roleRepo.GetActiveRolesByCodes(roleCodes)
		if err != nil {
			return errs.Wrap(err, errs.KindNetwork, "load active roles of principal "+principalId)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		ix, err = r.loader.GetIndex(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return BuildSnapshot(principalId, roles, ix)
}

func (r *Resolver) cachedSnapshot(ctx context.Context, principalId string) *Snapshot {
	if r.snapshots == nil {
		return nil
	}
	raw := r.snapshots.Get(ctx, consts.SnapshotKey+principalId).Val()
	if raw == "" {
		return nil
	}
	var snap Snapshot
	if err := sonic.UnmarshalString(raw, &snap); err != nil {
		log.Warnw("discarding undecodable access snapshot", "principalId", principalId, "error", err)
		r.snapshots.Del(ctx, consts.SnapshotKey+principalId)
		return nil
	}
	return &snap
}

// Handle 绑定单个主体的查询入口
type Handle struct {
	r           *Resolver
	principalId string
	st          *principalState
}

func (h *Handle) PrincipalId() string {
	return h.principalId
}

// Resolve 确保访问视图已解析：已settle且快照未过期时直接返回；
// 否则发起或加入解析航班，最多等待 WaitBudget
func (h *Handle) Resolve(ctx context.Context) statemachine.ResolutionState {
	state, snap, _ := h.st.view()
	if state.IsSettled() {
		if state == statemachine.ResolutionReady && snap != nil &&
			time.Since(snap.ResolvedAt) > h.r.cfg.SnapshotTTL {
			return h.RefreshAccess(ctx)
		}
		return state
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.r.cfg.WaitBudget)
	defer cancel()
	return h.r.resolve(waitCtx, h.st, h.principalId, "initial", true)
}

// RefreshAccess 强制重新解析：先作废缓存快照，重叠调用合并为一次上游读取，
// 所有调用方观察到同一个最终状态
func (h *Handle) RefreshAccess(ctx context.Context) statemachine.ResolutionState {
	if h.r.snapshots != nil {
		h.r.snapshots.Del(ctx, consts.SnapshotKey+h.principalId)
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.r.cfg.WaitBudget)
	defer cancel()
	return h.r.resolve(waitCtx, h.st, h.principalId, "refresh", false)
}

// State 当前解析状态
func (h *Handle) State() statemachine.ResolutionState {
	state, _, _ := h.st.view()
	return state
}

// IsLoading 解析是否仍在进行
func (h *Handle) IsLoading() bool {
	return !h.State().IsSettled()
}

// Err 解析失败时的类型化错误；成功或未settle时为 nil
func (h *Handle) Err() error {
	_, _, err := h.st.view()
	return err
}

// Snapshot 当前快照；LOADING 或 ERROR 时为 nil
func (h *Handle) Snapshot() *Snapshot {
	_, snap, _ := h.st.view()
	return snap
}

// UserMenu 主体可见的过滤后导航树
func (h *Handle) UserMenu() []model.MenuGroup {
	snap := h.Snapshot()
	if snap == nil {
		return []model.MenuGroup{}
	}
	return snap.Menus
}

// MenuItemsByGroup 指定菜单组下主体可见的菜单项
func (h *Handle) MenuItemsByGroup(menuCode string) []model.MenuItem {
	return h.Snapshot().MenuItemsByGroup(menuCode)
}

// HasMenuAccess 默认拒绝：未解析或未知编码一律 false，从不panic
func (h *Handle) HasMenuAccess(itemCode string) bool {
	return h.Snapshot().HasMenuAccess(itemCode)
}

// HasPermission 同 HasMenuAccess，查权限编码集
func (h *Handle) HasPermission(permissionCode string) bool {
	return h.Snapshot().HasPermission(permissionCode)
}
