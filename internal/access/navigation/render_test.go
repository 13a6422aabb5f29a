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

package navigation

import (
	"testing"

	"github.com/atriumcrm/atrium/internal/access/model"
)

func visibleTree() []model.MenuGroup {
	// 故意乱序录入，渲染必须按 sortOrder 重排
	return []model.MenuGroup{
		{
			Menu: model.Menu{MenuCode: "MARKETING", MenuName: "Marketing", Icon: "megaphone", SortOrder: 2},
			Items: []model.MenuItem{
				{ItemCode: "CAMPAIGNS", ItemName: "Campaigns", Url: "/marketing/campaigns", Icon: "megaphone", SortOrder: 1},
			},
		},
		{
			Menu: model.Menu{MenuCode: "SALES", MenuName: "Sales", Icon: "briefcase", SortOrder: 1},
			Items: []model.MenuItem{
				{ItemCode: "DEALS", ItemName: "Deals", Url: "/sales/deals", Icon: "handshake", SortOrder: 2},
				{ItemCode: "CONTACTS", ItemName: "Contacts", Url: "/sales/contacts", Icon: "users", SortOrder: 1},
			},
		},
	}
}

func TestRenderOrdersBySortOrder(t *testing.T) {
	view := Render(visibleTree(), "/")

	if len(view.Groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(view.Groups))
	}
	if view.Groups[0].MenuCode != "SALES" || view.Groups[1].MenuCode != "MARKETING" {
		t.Errorf("group order = [%s %s], want [SALES MARKETING]",
			view.Groups[0].MenuCode, view.Groups[1].MenuCode)
	}

	sales := view.Groups[0].Items
	if len(sales) != 2 || sales[0].ItemCode != "CONTACTS" || sales[1].ItemCode != "DEALS" {
		t.Errorf("SALES item order = %v, want [CONTACTS DEALS]", sales)
	}
}

func TestRenderDropsEmptyGroups(t *testing.T) {
	tree := append(visibleTree(), model.MenuGroup{
		Menu: model.Menu{MenuCode: "REPORTS", MenuName: "Reports", Icon: "chart", SortOrder: 3},
	})

	view := Render(tree, "/")

	for _, g := range view.Groups {
		if g.MenuCode == "REPORTS" {
			t.Error("group without visible items was rendered")
		}
	}
}

func TestRenderActiveIsExactPathMatch(t *testing.T) {
	tests := []struct {
		name        string
		currentPath string
		wantActive  string // 期望高亮的 itemCode，空表示无
	}{
		{"exact item path", "/sales/deals", "DEALS"},
		{"another exact path", "/marketing/campaigns", "CAMPAIGNS"},
		{"prefix of an item path", "/sales", ""},
		{"deep child route", "/sales/deals/42", ""},
		{"trailing slash differs", "/sales/deals/", ""},
		{"unrelated path", "/settings", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Render(visibleTree(), tt.currentPath)

			var active []string
			for _, g := range view.Groups {
				for _, it := range g.Items {
					if it.Active {
						active = append(active, it.ItemCode)
					}
				}
			}

			switch {
			case tt.wantActive == "" && len(active) != 0:
				t.Errorf("active items = %v, want none", active)
			case tt.wantActive != "" && (len(active) != 1 || active[0] != tt.wantActive):
				t.Errorf("active items = %v, want [%s]", active, tt.wantActive)
			}
		})
	}
}

func TestRenderItemWithoutUrlNeverActive(t *testing.T) {
	tree := []model.MenuGroup{
		{
			Menu: model.Menu{MenuCode: "SALES", MenuName: "Sales", Icon: "briefcase", SortOrder: 1},
			Items: []model.MenuItem{
				{ItemCode: "SECTION", ItemName: "Section", Url: "", SortOrder: 1},
			},
		},
	}

	view := Render(tree, "")
	if view.Groups[0].Items[0].Active {
		t.Error("item without url highlighted on empty current path")
	}
}

func TestRenderEmptyTree(t *testing.T) {
	view := Render(nil, "/sales/deals")
	if len(view.Groups) != 0 {
		t.Errorf("Groups = %v, want empty", view.Groups)
	}
}

func TestRenderResolvesIcons(t *testing.T) {
	view := Render(visibleTree(), "/")

	if got := view.Groups[0].Icon; got.Name != "briefcase" {
		t.Errorf("SALES group icon = %v, want briefcase", got)
	}
	if got := view.Groups[0].Items[1].Icon; got.Name != "handshake" {
		t.Errorf("DEALS icon = %v, want handshake", got)
	}
}
