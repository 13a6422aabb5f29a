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

import (
	"reflect"
	"testing"
)

func TestGrantMapNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   GrantMap
		want GrantMap
	}{
		{
			name: "drops empty keys",
			in:   GrantMap{"SALES": {"CONTACTS"}, "REPORTS": {}},
			want: GrantMap{"SALES": {"CONTACTS"}},
		},
		{
			name: "dedupes preserving first occurrence",
			in:   GrantMap{"SALES": {"DEALS", "CONTACTS", "DEALS"}},
			want: GrantMap{"SALES": {"DEALS", "CONTACTS"}},
		},
		{
			name: "nil map yields empty map",
			in:   nil,
			want: GrantMap{},
		},
		{
			name: "already normalized is unchanged",
			in:   GrantMap{"SALES": {"CONTACTS", "DEALS"}, "MARKETING": {"CAMPAIGNS"}},
			want: GrantMap{"SALES": {"CONTACTS", "DEALS"}, "MARKETING": {"CAMPAIGNS"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if !got.Equal(tt.want) {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrantMapNormalizeNeverYieldsEmptySet(t *testing.T) {
	gm := GrantMap{"SALES": {}, "MARKETING": nil, "REPORTS": {"DASHBOARD"}}
	got := gm.Normalize()

	for menuCode, itemCodes := range got {
		if len(itemCodes) == 0 {
			t.Errorf("menu %q kept an empty item set after Normalize()", menuCode)
		}
	}
	if _, ok := got["SALES"]; ok {
		t.Error("empty SALES key survived normalization")
	}
}

func TestGrantMapClone(t *testing.T) {
	orig := GrantMap{"SALES": {"CONTACTS", "DEALS"}}
	cp := orig.Clone()

	cp["SALES"][0] = "MUTATED"
	cp["MARKETING"] = []string{"CAMPAIGNS"}

	if orig["SALES"][0] != "CONTACTS" {
		t.Error("Clone() shares backing array with the original")
	}
	if _, ok := orig["MARKETING"]; ok {
		t.Error("Clone() shares key space with the original")
	}
}

func TestGrantMapSelectedMenus(t *testing.T) {
	gm := GrantMap{
		"SALES":     {"CONTACTS"},
		"MARKETING": {"CAMPAIGNS", "SEGMENTS"},
	}
	want := []string{"MARKETING", "SALES"}
	if got := gm.SelectedMenus(); !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedMenus() = %v, want %v", got, want)
	}

	if got := (GrantMap{}).SelectedMenus(); len(got) != 0 {
		t.Errorf("SelectedMenus() on empty map = %v, want empty", got)
	}
}

func TestGrantMapItemCount(t *testing.T) {
	gm := GrantMap{
		"SALES":     {"CONTACTS", "DEALS"},
		"MARKETING": {"CAMPAIGNS"},
	}
	if got := gm.ItemCount(); got != 3 {
		t.Errorf("ItemCount() = %d, want 3", got)
	}
}

func TestGrantMapHas(t *testing.T) {
	gm := GrantMap{"SALES": {"CONTACTS", "DEALS"}}

	if !gm.Has("SALES", "DEALS") {
		t.Error("Has(SALES, DEALS) = false, want true")
	}
	if gm.Has("SALES", "REPORTS") {
		t.Error("Has(SALES, REPORTS) = true, want false")
	}
	if gm.Has("MARKETING", "CAMPAIGNS") {
		t.Error("Has on absent menu = true, want false")
	}
}

func TestGrantMapEqual(t *testing.T) {
	a := GrantMap{"SALES": {"CONTACTS", "DEALS"}}

	if !a.Equal(GrantMap{"SALES": {"CONTACTS", "DEALS"}}) {
		t.Error("identical maps reported unequal")
	}
	// 顺序敏感：持久化的授权顺序属于状态的一部分
	if a.Equal(GrantMap{"SALES": {"DEALS", "CONTACTS"}}) {
		t.Error("reordered item sets reported equal")
	}
	if a.Equal(GrantMap{"SALES": {"CONTACTS"}}) {
		t.Error("subset reported equal")
	}
	if a.Equal(GrantMap{"MARKETING": {"CONTACTS", "DEALS"}}) {
		t.Error("different keys reported equal")
	}
}
