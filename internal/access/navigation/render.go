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

// Package navigation 把主体可见的菜单树渲染为侧边栏载荷。
// 渲染是 (菜单树, 当前路径) 的纯函数，可见性过滤在解析阶段完成。
package navigation

import (
	"sort"

	"github.com/atriumcrm/atrium/internal/access/model"
)

// View 侧边栏渲染结果
type View struct {
	Groups []Group `json:"groups"`
}

// Group 渲染后的菜单组
type Group struct {
	MenuCode string `json:"menuCode"`
	MenuName string `json:"menuName"`
	Icon     Icon   `json:"icon"`
	Items    []Item `json:"items"`
}

// Item 渲染后的菜单项
type Item struct {
	ItemCode string `json:"itemCode"`
	ItemName string `json:"itemName"`
	Url      string `json:"url"`
	Icon     Icon   `json:"icon"`
	Active   bool   `json:"active"`
}

// Render 由可见菜单树与当前路径生成导航视图
// 组、项均按 sortOrder 呈现；无可见项的组不渲染；
// 高亮用当前路径与 item.url 的精确匹配，父级不会在深层子路由下误亮
func Render(groups []model.MenuGroup, currentPath string) View {
	ordered := make([]model.MenuGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	view := View{Groups: make([]Group, 0, len(ordered))}
	for _, mg := range ordered {
		if len(mg.Items) == 0 {
			continue
		}
		items := make([]model.MenuItem, len(mg.Items))
		copy(items, mg.Items)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].SortOrder < items[j].SortOrder
		})

		group := Group{
			MenuCode: mg.MenuCode,
			MenuName: mg.MenuName,
			Icon:     ResolveIcon(mg.Icon),
			Items:    make([]Item, 0, len(items)),
		}
		for _, it := range items {
			group.Items = append(group.Items, Item{
				ItemCode: it.ItemCode,
				ItemName: it.ItemName,
				Url:      it.Url,
				Icon:     ResolveIcon(it.Icon),
				Active:   it.Url != "" && it.Url == currentPath,
			})
		}
		view.Groups = append(view.Groups, group)
	}
	return view
}
