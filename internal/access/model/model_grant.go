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

package model

import "sort"

// GrantMap 角色的菜单授权映射：menuCode -> 已授予的 itemCode 列表
// 空的 itemCode 集合与键不存在等价，归一化后不允许出现空值键
type GrantMap map[string][]string

// Normalize 返回归一化副本：去掉重复 itemCode（保留首次出现顺序）、丢弃空键
func (gm GrantMap) Normalize() GrantMap {
	out := make(GrantMap, len(gm))
	for menuCode, itemCodes := range gm {
		seen := make(map[string]struct{}, len(itemCodes))
		items := make([]string, 0, len(itemCodes))
		for _, code := range itemCodes {
			if _, ok := seen[code]; ok {
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

// Clone 深拷贝
func (gm GrantMap) Clone() GrantMap {
	out := make(GrantMap, len(gm))
	for menuCode, itemCodes := range gm {
		items := make([]string, len(itemCodes))
		copy(items, itemCodes)
		out[menuCode] = items
	}
	return out
}

// SelectedMenus 非空授权的菜单组编码，排序后返回
func (gm GrantMap) SelectedMenus() []string {
	menus := make([]string, 0, len(gm))
	for menuCode, itemCodes := range gm {
		if len(itemCodes) > 0 {
			menus = append(menus, menuCode)
		}
	}
	sort.Strings(menus)
	return menus
}

// ItemCount 授权的菜单项总数
func (gm GrantMap) ItemCount() int {
	n := 0
	for _, itemCodes := range gm {
		n += len(itemCodes)
	}
	return n
}

// Has 判断某菜单项是否被授权
func (gm GrantMap) Has(menuCode, itemCode string) bool {
	for _, code := range gm[menuCode] {
		if code == itemCode {
			return true
		}
	}
	return false
}

// Equal 严格相等：键集合一致，且每个键下的 itemCode 顺序一致
func (gm GrantMap) Equal(other GrantMap) bool {
	if len(gm) != len(other) {
		return false
	}
	for menuCode, itemCodes := range gm {
		otherItems, ok := other[menuCode]
		if !ok || len(itemCodes) != len(otherItems) {
			return false
		}
		for i, code := range itemCodes {
			if code != otherItems[i] {
				return false
			}
		}
	}
	return true
}
