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

// Package selection 维护角色编辑期间的授权选择状态。
// 纯内存、同步、无 I/O；草稿的存取由 service 层负责。
package selection

import (
	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/model"
)

// Editor 角色授权编辑器
//
// 两个输入（持久化授权、菜单目录）经网络独立到达、先后不定，
// 每次任一输入变化都以两者的纯函数重建选择状态，而不是一次性初始化。
// 目录外的菜单/菜单项引用一律静默丢弃（默认拒绝），不报错。
//
// 非并发安全：每个编辑会话使用独立实例。
type Editor struct {
	persisted model.GrantMap
	catalog   *catalog.Index
	working   model.GrantMap
}

func NewEditor() *Editor {
	return &Editor{
		persisted: model.GrantMap{},
		working:   model.GrantMap{},
	}
}

// SetGrants 持久化授权到达（或重载）
func (e *Editor) SetGrants(gm model.GrantMap) {
	e.persisted = gm.Clone()
	e.reconcile()
}

// SetCatalog 菜单目录到达（或刷新）
func (e *Editor) SetCatalog(ix *catalog.Index) {
	e.catalog = ix
	e.reconcile()
}

// reconcile 以两个输入的纯函数重建选择状态
// 目录未就绪时仅做与目录无关的归一化，授权原样保留
func (e *Editor) reconcile() {
	e.working = e.catalog.Prune(e.persisted)
}

// ToggleMenu 切换菜单组选择
// 已选 → 整键移除（级联取消全部菜单项）；未选 → 以目录当前全量菜单项授权，
// 避免出现零项授权
func (e *Editor) ToggleMenu(menuCode string) {
	if _, selected := e.working[menuCode]; selected {
		delete(e.working, menuCode)
		return
	}
	codes := e.catalog.ItemCodesOf(menuCode)
	if len(codes) == 0 {
		return
	}
	items := make([]string, len(codes))
	copy(items, codes)
	e.working[menuCode] = items
}

// ToggleMenuItem 切换菜单项授权
// 菜单组本身未选中时是空操作：项级编辑只在已选菜单组内有意义
func (e *Editor) ToggleMenuItem(menuCode, itemCode string) {
	current, selected := e.working[menuCode]
	if !selected {
		return
	}
	for i, code := range current {
		if code == itemCode {
			next := append(current[:i:i], current[i+1:]...)
			if len(next) == 0 {
				// 空集与键不存在等价
				delete(e.working, menuCode)
			} else {
				e.working[menuCode] = next
			}
			return
		}
	}
	if !e.catalog.HasItem(menuCode, itemCode) {
		return
	}
	e.working[menuCode] = append(current, itemCode)
}

// SelectAllMenuItems 全选（true）或清空整个菜单组（false）
func (e *Editor) SelectAllMenuItems(menuCode string, selectAll bool) {
	if !selectAll {
		delete(e.working, menuCode)
		return
	}
	codes := e.catalog.ItemCodesOf(menuCode)
	if len(codes) == 0 {
		return
	}
	items := make([]string, len(codes))
	copy(items, codes)
	e.working[menuCode] = items
}

// IsAllMenuItemsSelected 菜单组下目录定义的全部菜单项是否都已授权
func (e *Editor) IsAllMenuItemsSelected(menuCode string) bool {
	items := e.catalog.ItemCodesOf(menuCode)
	if len(items) == 0 {
		return false
	}
	granted := e.working[menuCode]
	if len(granted) != len(items) {
		return false
	}
	set := make(map[string]struct{}, len(granted))
	for _, code := range granted {
		set[code] = struct{}{}
	}
	for _, code := range items {
		if _, ok := set[code]; !ok {
			return false
		}
	}
	return true
}

// IsAnyMenuItemsSelected 菜单组下是否有任一菜单项被授权
func (e *Editor) IsAnyMenuItemsSelected(menuCode string) bool {
	return len(e.working[menuCode]) > 0
}

// SelectedMenuCount 已选菜单组数量
func (e *Editor) SelectedMenuCount() int {
	return len(e.working)
}

// SelectedMenuItemCount 已授权菜单项总数
func (e *Editor) SelectedMenuItemCount() int {
	return e.working.ItemCount()
}

// SelectedMenus 已选菜单组编码
func (e *Editor) SelectedMenus() []string {
	return e.working.SelectedMenus()
}

// Reset 清空选择状态，目录保留
func (e *Editor) Reset() {
	e.persisted = model.GrantMap{}
	e.working = model.GrantMap{}
}

// Grants 当前选择状态的副本，已归一化，可直接持久化
func (e *Editor) Grants() model.GrantMap {
	return e.working.Clone()
}
