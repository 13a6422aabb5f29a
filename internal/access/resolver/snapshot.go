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
	"slices"
	"time"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
)

// Snapshot 主体的已解析访问视图：过滤后的导航树加两张查询集
// 导航渲染与路由守卫消费同一份快照，不各自维护副本
type Snapshot struct {
	PrincipalId string            `json:"principalId"`
	RoleCodes   []string          `json:"roleCodes"`
	Menus       []model.MenuGroup `json:"menus"`
	ItemCodes   []string          `json:"itemCodes"`
	Permissions []string          `json:"permissions"`
	ResolvedAt  time.Time         `json:"resolvedAt"`
}

// BuildSnapshot 由主体的在用角色与菜单目录构建访问快照（纯函数）
// 各角色的授权先按目录归一化再求并集；并集为空即无任何可见项，视为拒绝
func BuildSnapshot(principalId string, roles []model.Role, ix *catalog.Index) (*Snapshot, error) {
	granted := make(map[string]map[string]struct{})
	roleCodes := make([]string, 0, len(roles))
	total := 0
	for i := range roles {
		gm, err := roles[i].Grants()
		if err != nil {
			return nil, errs.Wrap(err, errs.KindUnknown, "decode grants of role "+roles[i].RoleCode)
		}
		roleCodes = append(roleCodes, roles[i].RoleCode)
		for menuCode, itemCodes := range ix.Prune(gm) {
			set := granted[menuCode]
			if set == nil {
				set = make(map[string]struct{}, len(itemCodes))
				granted[menuCode] = set
			}
			for _, code := range itemCodes {
				if _, ok := set[code]; !ok {
					set[code] = struct{}{}
					total++
				}
			}
		}
	}
	if total == 0 {
		return nil, errs.Newf(errs.KindAccessDenied, "principal %s has no menu grants", principalId)
	}

	snap := &Snapshot{
		PrincipalId: principalId,
		RoleCodes:   roleCodes,
		Menus:       make([]model.MenuGroup, 0, len(granted)),
		ItemCodes:   make([]string, 0, total),
		ResolvedAt:  time.Now(),
	}
	permSeen := make(map[string]struct{})
	for _, group := range ix.Groups() {
		set := granted[group.MenuCode]
		if len(set) == 0 {
			continue
		}
		visible := make([]model.MenuItem, 0, len(set))
		for _, item := range group.Items {
			if _, ok := set[item.ItemCode]; !ok {
				continue
			}
			visible = append(visible, item)
			snap.ItemCodes = append(snap.ItemCodes, item.ItemCode)
			if perm := item.RequiresPermission; perm != "" {
				if _, dup := permSeen[perm]; !dup {
					permSeen[perm] = struct{}{}
					snap.Permissions = append(snap.Permissions, perm)
				}
			}
		}
		snap.Menus = append(snap.Menus, model.MenuGroup{Menu: group.Menu, Items: visible})
	}
	return snap, nil
}

// HasMenuAccess 默认拒绝：nil 快照或未知编码一律 false，从不panic
func (s *Snapshot) HasMenuAccess(itemCode string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.ItemCodes, itemCode)
}

// HasPermission 权限编码来自可见菜单项的 requiresPermission 投影，
// 与菜单可见性是两个独立的查询集
func (s *Snapshot) HasPermission(permissionCode string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Permissions, permissionCode)
}

// MenuItemsByGroup 主体在指定菜单组下可见的菜单项，按 sortOrder；无可见项时为空
func (s *Snapshot) MenuItemsByGroup(menuCode string) []model.MenuItem {
	if s == nil {
		return []model.MenuItem{}
	}
	for _, group := range s.Menus {
		if group.MenuCode == menuCode {
			return group.Items
		}
	}
	return []model.MenuItem{}
}
