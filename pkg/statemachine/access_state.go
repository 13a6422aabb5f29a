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

package statemachine

// ResolutionState 访问快照解析的生命周期状态
type ResolutionState string

const (
	ResolutionLoading ResolutionState = "LOADING"
	ResolutionReady   ResolutionState = "READY"
	ResolutionError   ResolutionState = "ERROR"
)

// Resolution events.
const (
	EventResolveSucceeded Event = "RESOLVE_SUCCEEDED"
	EventResolveFailed    Event = "RESOLVE_FAILED"
	EventRefreshRequested Event = "REFRESH_REQUESTED"
)

// IsSettled 判断解析是否已得到结果
func (rs ResolutionState) IsSettled() bool {
	return rs == ResolutionReady || rs == ResolutionError
}

// NewResolutionStateMachine 创建访问解析状态机
// LOADING → READY | ERROR；READY/ERROR 在刷新时回到 LOADING
func NewResolutionStateMachine() *StateMachine[ResolutionState] {
	sm := NewWithState(ResolutionLoading)

	sm.AddEventTransition(ResolutionLoading, EventResolveSucceeded, ResolutionReady).
		AddEventTransition(ResolutionLoading, EventResolveFailed, ResolutionError).
		AddEventTransition(ResolutionReady, EventRefreshRequested, ResolutionLoading).
		AddEventTransition(ResolutionError, EventRefreshRequested, ResolutionLoading)

	return sm
}

// GuardState 路由守卫对单个请求的判定状态
type GuardState string

const (
	GuardLoading GuardState = "LOADING"
	GuardGranted GuardState = "GRANTED"
	GuardDenied  GuardState = "DENIED"
)

// IsTerminal 判断守卫判定是否已完成
func (gs GuardState) IsTerminal() bool {
	return gs == GuardGranted || gs == GuardDenied
}

// NewGuardStateMachine 创建路由守卫状态机
// 每个请求从 LOADING 出发，落到 GRANTED 或 DENIED
func NewGuardStateMachine() *StateMachine[GuardState] {
	sm := NewWithState(GuardLoading)

	sm.AddTransitions(GuardLoading, GuardGranted, GuardDenied)

	return sm
}
