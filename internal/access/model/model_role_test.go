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

import "testing"

func TestValidRoleCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"SALES_MANAGER", true},
		{"ADMIN", true},
		{"A", true},
		{"_", true},
		{"sales_manager", false},
		{"SALES-MANAGER", false},
		{"SALES MANAGER", false},
		{"SALES1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ValidRoleCode(tt.code); got != tt.want {
				t.Errorf("ValidRoleCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestValidRoleStatus(t *testing.T) {
	for _, status := range []string{RoleStatusActive, RoleStatusInactive, RoleStatusSuspended} {
		if !ValidRoleStatus(status) {
			t.Errorf("ValidRoleStatus(%q) = false, want true", status)
		}
	}
	if ValidRoleStatus("DELETED") {
		t.Error("ValidRoleStatus(DELETED) = true, want false")
	}
	if ValidRoleStatus("") {
		t.Error("ValidRoleStatus(empty) = true, want false")
	}
}

func TestRoleGrantsRoundTrip(t *testing.T) {
	role := &Role{RoleCode: "SALES_MANAGER", RoleName: "Sales Manager"}
	in := GrantMap{"SALES": {"CONTACTS", "DEALS"}}

	if err := role.SetGrants(in); err != nil {
		t.Fatalf("SetGrants() error = %v", err)
	}
	out, err := role.Grants()
	if err != nil {
		t.Fatalf("Grants() error = %v", err)
	}

	// 原样往返：顺序不变，无隐式增删
	if !out.Equal(in) {
		t.Errorf("round-trip changed the map: got %v, want %v", out, in)
	}
}

func TestRoleGrantsEmptyColumn(t *testing.T) {
	role := &Role{RoleCode: "ADMIN"}

	gm, err := role.Grants()
	if err != nil {
		t.Fatalf("Grants() error = %v", err)
	}
	if gm == nil {
		t.Fatal("Grants() on empty column = nil, want empty map")
	}
	if len(gm) != 0 {
		t.Errorf("Grants() on empty column = %v, want empty map", gm)
	}
}

func TestRoleSetGrantsNil(t *testing.T) {
	role := &Role{RoleCode: "ADMIN"}
	if err := role.SetGrants(nil); err != nil {
		t.Fatalf("SetGrants(nil) error = %v", err)
	}

	gm, err := role.Grants()
	if err != nil {
		t.Fatalf("Grants() error = %v", err)
	}
	if len(gm) != 0 {
		t.Errorf("Grants() after SetGrants(nil) = %v, want empty map", gm)
	}
}
