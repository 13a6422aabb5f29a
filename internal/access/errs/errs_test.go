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

package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"new validation", New(KindValidation, "role code must match ^[A-Z_]+$"), KindValidation},
		{"newf network", Newf(KindNetwork, "identity service unreachable: %s", "dial timeout"), KindNetwork},
		{"wrapped persistence", Wrap(errors.New("duplicate entry"), KindPersistence, "create role"), KindPersistence},
		{"plain error", errors.New("something"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindNotFound, "role SALES_MANAGER not found")
	outer := fmt.Errorf("load role for edit: %w", inner)

	if got := KindOf(outer); got != KindNotFound {
		t.Errorf("KindOf(wrapped) = %v, want %v", got, KindNotFound)
	}
	if !IsKind(outer, KindNotFound) {
		t.Error("IsKind(wrapped, NOT_FOUND) = false, want true")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, KindNetwork, "fetch grants"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestOuterKindWins(t *testing.T) {
	// 外层重新分类时以外层为准
	inner := New(KindUnknown, "status 500")
	outer := Wrap(inner, KindNetwork, "grant fetch")

	if got := KindOf(outer); got != KindNetwork {
		t.Errorf("KindOf() = %v, want %v", got, KindNetwork)
	}
}

func TestIsKindNil(t *testing.T) {
	if IsKind(nil, KindNetwork) {
		t.Error("IsKind(nil) = true, want false")
	}
}
