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

package service

import (
	"context"
	"time"

	"github.com/atriumcrm/atrium/internal/access/consts"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/navigation"
	"github.com/atriumcrm/atrium/internal/access/resolver"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/statemachine"
)

// AccessService 访问边界服务：刷新、权限探测、导航载荷、登出清理
// 导航与守卫共享解析器里同一份快照，不各自持有副本
type AccessService struct {
	resolver *resolver.Resolver
	sessions cache.ICache
}

func NewAccessService(resolver *resolver.Resolver, sessions cache.ICache) *AccessService {
	return &AccessService{resolver: resolver, sessions: sessions}
}

// AccessStatus 主体解析状态报告
type AccessStatus struct {
	PrincipalId string     `json:"principalId"`
	State       string     `json:"state"`
	ErrorKind   string     `json:"errorKind,omitempty"`
	Error       string     `json:"error,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// Loading 解析尚未settle
func (s *AccessStatus) Loading() bool {
	return !statemachine.ResolutionState(s.State).IsSettled()
}

// AccessCheck 单个权限探测结果；未settle或出错时一律拒绝
type AccessCheck struct {
	AccessStatus
	Item       string `json:"item,omitempty"`
	Permission string `json:"permission,omitempty"`
	Granted    bool   `json:"granted"`
}

func status(h *resolver.Handle, state statemachine.ResolutionState) *AccessStatus {
	st := &AccessStatus{
		PrincipalId: h.PrincipalId(),
		State:       string(state),
	}
	if err := h.Err(); err != nil {
		st.ErrorKind = string(errs.KindOf(err))
		st.Error = err.Error()
	}
	if snap := h.Snapshot(); snap != nil {
		t := snap.ResolvedAt
		st.ResolvedAt = &t
	}
	return st
}

// Status 当前解析状态报告，未解析过的主体会触发一次解析
func (as *AccessService) Status(ctx context.Context, principalId string) *AccessStatus {
	h := as.resolver.Handle(principalId)
	return status(h, h.Resolve(ctx))
}

// Refresh 强制重新解析主体授权
func (as *AccessService) Refresh(ctx context.Context, principalId string) *AccessStatus {
	h := as.resolver.Handle(principalId)
	state := h.RefreshAccess(ctx)
	log.Infow("access refresh requested", "principalId", principalId, "state", state)
	return status(h, state)
}

// CheckMenuItem 菜单项可见性探测
func (as *AccessService) CheckMenuItem(ctx context.Context, principalId, itemCode string) *AccessCheck {
	h := as.resolver.Handle(principalId)
	state := h.Resolve(ctx)
	return &AccessCheck{
		AccessStatus: *status(h, state),
		Item:         itemCode,
		Granted:      h.HasMenuAccess(itemCode),
	}
}

// CheckPermission 细粒度权限探测
func (as *AccessService) CheckPermission(ctx context.Context, principalId, permissionCode string) *AccessCheck {
	h := as.resolver.Handle(principalId)
	state := h.Resolve(ctx)
	return &AccessCheck{
		AccessStatus: *status(h, state),
		Permission:   permissionCode,
		Granted:      h.HasPermission(permissionCode),
	}
}

// Navigation 侧边栏导航载荷，按当前路径标记活动项
// 未就绪的主体得到空导航（默认拒绝），状态随载荷一起返回
func (as *AccessService) Navigation(ctx context.Context, principalId, path string) (navigation.View, *AccessStatus) {
	h := as.resolver.Handle(principalId)
	state := h.Resolve(ctx)
	return navigation.Render(h.UserMenu(), path), status(h, state)
}

// Logout 登出清理：吊销会话，丢弃主体解析状态与缓存快照
// 会话删掉后认证中间件立即拒绝该令牌，解析状态清理是尽力而为
func (as *AccessService) Logout(ctx context.Context, principalId string) {
	if err := as.sessions.Del(ctx, consts.SessionKey+principalId).Err(); err != nil {
		log.Warnw("failed to revoke session", "principalId", principalId, "error", err)
	}
	as.resolver.Discard(ctx, principalId)
	log.Infow("principal access state discarded", "principalId", principalId)
}
