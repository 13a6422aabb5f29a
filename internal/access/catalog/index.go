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

package catalog

import (
	"sort"

	"github.com/atriumcrm/atrium/internal/access/model"
)

// Index 菜单目录的只读查找结构
// 由目录快照构建，组和项均按 sortOrder 排序
type Index struct {
	groups      []model.MenuGroup
	menus       map[string]*model.Menu
	itemsByMenu map[string][]model.MenuItem
	items       map[string]*model.MenuItem
}

// BuildIndex 从菜单组与菜单项快照构建索引
// 归属不存在菜单组的菜单项被丢弃
func BuildIndex(menus []model.Menu, items []model.MenuItem) *Index {
	sorted := make([]model.Menu, len(menus))
	copy(sorted, menus)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	byMenu := make(map[string][]model.MenuItem, len(sorted))
	for _, item := range items {
		byMenu[item.MenuCode] = append(byMenu[item.MenuCode], item)
	}
	for menuCode := range byMenu {
		group := byMenu[menuCode]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].SortOrder < group[j].SortOrder
		})
		byMenu[menuCode] = group
	}

	ix := &Index{
		groups:      make([]model.MenuGroup, 0, len(sorted)),
		menus:       make(map[string]*model.Menu, len(sorted)),
		itemsByMenu: make(map[string][]model.MenuItem, len(sorted)),
		items:       make(map[string]*model.MenuItem),
	}
	for i := range sorted {
		menu := sorted[i]
		group := byMenu[menu.MenuCode]
		ix.groups = append(ix.groups, model.MenuGroup{Menu: menu, Items: group})
		ix.menus[menu.MenuCode] = &sorted[i]
		ix.itemsByMenu[menu.MenuCode] = group
		for j := range group {
			ix.items[group[j].ItemCode] = &group[j]
		}
	}
	return ix
}

// BuildIndexFromGroups 从目录树构建索引（缓存反序列化路径）
func BuildIndexFromGroups(groups []model.MenuGroup) *Index {
	menus := make([]model.Menu, 0, len(groups))
	var items []model.MenuItem
	for _, g := range groups {
		menus = append(menus, g.Menu)
		items = append(items, g.Items...)
	}
	return BuildIndex(menus, items)
}

// Groups 所有菜单组及其有序菜单项
func (ix *Index) Groups() []model.MenuGroup {
	if ix == nil {
		return nil
	}
	return ix.groups
}

// Group 按编码查找菜单组
func (ix *Index) Group(menuCode string) (*model.Menu, bool) {
	if ix == nil {
		return nil, false
	}
	menu, ok := ix.menus[menuCode]
	return menu, ok
}

// HasMenu 菜单组是否存在于目录
func (ix *Index) HasMenu(menuCode string) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.menus[menuCode]
	return ok
}

// ItemsOf 菜单组下的有序菜单项；未知菜单组返回空切片
func (ix *Index) ItemsOf(menuCode string) []model.MenuItem {
	if ix == nil {
		return nil
	}
	return ix.itemsByMenu[menuCode]
}

// ItemCodesOf 菜单组下全部菜单项编码，按 sortOrder 顺序
func (ix *Index) ItemCodesOf(menuCode string) []string {
	items := ix.ItemsOf(menuCode)
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.ItemCode)
	}
	return codes
}

// Item 按编码查找菜单项
func (ix *Index) Item(itemCode string) (*model.MenuItem, bool) {
	if ix == nil {
		return nil, false
	}
	item, ok := ix.items[itemCode]
	return item, ok
}

// HasItem 菜单项是否归属指定菜单组
func (ix *Index) HasItem(menuCode, itemCode string) bool {
	item, ok := ix.Item(itemCode)
	return ok && item.MenuCode == menuCode
}

// Prune 对授权映射做目录归一化：丢弃目录外的菜单组键和菜单项编码、
// 去重、清除空键。nil 索引（目录未就绪）仅做与目录无关的归一化
func (ix *Index) Prune(gm model.GrantMap) model.GrantMap {
	if ix == nil {
		return gm.Normalize()
	}
	out := make(model.GrantMap, len(gm))
	for menuCode, itemCodes := range gm {
		if !ix.HasMenu(menuCode) {
			continue
		}
		seen := make(map[string]struct{}, len(itemCodes))
		items := make([]string, 0, len(itemCodes))
		for _, code := range itemCodes {
			if _, dup := seen[code]; dup {
				continue
			}
			if !ix.HasItem(menuCode, code) {
				continue
			}
			seen[code] = struct{}{}
			items = append(items, code)
		}
		if len(items) == 0 {
			continue
		}
		out[menuCode] = items
	}
	return out
}
