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

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// 定义测试用状态
type ReviewStatus string

const (
	ReviewDraft     ReviewStatus = "DRAFT"
	ReviewSubmitted ReviewStatus = "SUBMITTED"
	ReviewApproved  ReviewStatus = "APPROVED"
	ReviewRejected  ReviewStatus = "REJECTED"
	ReviewArchived  ReviewStatus = "ARCHIVED"
)

func TestStateMachine_Basic(t *testing.T) {
	sm := NewWithState(ReviewDraft)

	sm.AddTransitions(ReviewDraft, ReviewSubmitted).
		AddTransitions(ReviewSubmitted, ReviewApproved, ReviewRejected).
		AddTransitions(ReviewApproved, ReviewArchived)

	// 测试当前状态
	if sm.Current() != ReviewDraft {
		t.Errorf("expected current state to be %v, got %v", ReviewDraft, sm.Current())
	}

	// 测试初始状态
	if sm.Initial() != ReviewDraft {
		t.Errorf("expected initial state to be %v, got %v", ReviewDraft, sm.Initial())
	}

	// 测试合法转移
	if err := sm.TransitionTo(ReviewSubmitted); err != nil {
		t.Errorf("expected transition to succeed, got error: %v", err)
	}

	if sm.Current() != ReviewSubmitted {
		t.Errorf("expected current state to be %v, got %v", ReviewSubmitted, sm.Current())
	}

	// 测试非法转移
	if err := sm.TransitionTo(ReviewArchived); err == nil {
		t.Error("expected transition to fail, but it succeeded")
	}
}

func TestStateMachine_CanTransition(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted)

	if !sm.CanTransitionTo(ReviewSubmitted) {
		t.Error("expected to be able to transition to SUBMITTED")
	}

	if sm.CanTransitionTo(ReviewApproved) {
		t.Error("expected NOT to be able to transition to APPROVED")
	}
}

func TestStateMachine_EventTransitions(t *testing.T) {
	const (
		eventSubmit  Event = "SUBMIT"
		eventApprove Event = "APPROVE"
	)

	sm := NewWithState(ReviewDraft)
	sm.AddEventTransition(ReviewDraft, eventSubmit, ReviewSubmitted).
		AddEventTransition(ReviewSubmitted, eventApprove, ReviewApproved)

	if !sm.CanTransitionWithEvent(ReviewDraft, eventSubmit) {
		t.Error("expected SUBMIT to be valid in DRAFT")
	}

	if err := sm.TriggerEvent(eventSubmit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sm.Current() != ReviewSubmitted {
		t.Errorf("expected state SUBMITTED, got %v", sm.Current())
	}

	// 在当前状态下没有定义的事件应报错
	if err := sm.TriggerEvent(eventSubmit); err == nil {
		t.Error("expected error for undefined event in SUBMITTED")
	}

	if err := sm.TriggerEvent(eventApprove); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sm.Current() != ReviewApproved {
		t.Errorf("expected state APPROVED, got %v", sm.Current())
	}
}

func TestStateMachine_Hooks(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted).
		AddTransitions(ReviewSubmitted, ReviewApproved)

	// 记录钩子执行顺序
	var executionOrder []string

	sm.OnExit(ReviewDraft, func(state ReviewStatus) error {
		executionOrder = append(executionOrder, "exit:draft")
		return nil
	})

	sm.OnTransition(func(from, to ReviewStatus, event Event) error {
		executionOrder = append(executionOrder, "transition")
		return nil
	})

	sm.OnEnter(ReviewSubmitted, func(state ReviewStatus) error {
		executionOrder = append(executionOrder, "enter:submitted")
		return nil
	})

	if err := sm.TransitionTo(ReviewSubmitted); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// 验证执行顺序
	expected := []string{"exit:draft", "transition", "enter:submitted"}
	if len(executionOrder) != len(expected) {
		t.Fatalf("expected %d hooks, got %d", len(expected), len(executionOrder))
	}

	for i, v := range expected {
		if executionOrder[i] != v {
			t.Errorf("expected hook[%d] to be %s, got %s", i, v, executionOrder[i])
		}
	}
}

func TestStateMachine_HookErrors(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted)

	testErr := errors.New("hook error")

	// 注册一个会失败的钩子
	sm.OnEnter(ReviewSubmitted, func(state ReviewStatus) error {
		return testErr
	})

	err := sm.TransitionTo(ReviewSubmitted)
	if err == nil {
		t.Error("expected error from hook, got nil")
	}

	// 验证状态已更新（即使钩子失败）
	if sm.Current() != ReviewSubmitted {
		t.Errorf("expected state to be %v even after hook error, got %v", ReviewSubmitted, sm.Current())
	}
}

func TestStateMachine_Validators(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted)

	// 添加验证器
	sm.AddValidator(func(from, to ReviewStatus, event Event) error {
		if to == ReviewSubmitted {
			return errors.New("submission not allowed")
		}
		return nil
	})

	err := sm.TransitionTo(ReviewSubmitted)
	if err == nil {
		t.Error("expected validator to reject transition")
	}

	// 验证状态未改变
	if sm.Current() != ReviewDraft {
		t.Errorf("expected state to remain %v, got %v", ReviewDraft, sm.Current())
	}
}

func TestStateMachine_History(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted).
		AddTransitions(ReviewSubmitted, ReviewApproved)

	// 执行几次转移
	_ = sm.TransitionTo(ReviewSubmitted)
	time.Sleep(10 * time.Millisecond)
	_ = sm.TransitionTo(ReviewApproved)

	history := sm.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}

	// 验证第一条记录
	if history[0].From != ReviewDraft || history[0].To != ReviewSubmitted {
		t.Errorf("unexpected first history record: %v -> %v", history[0].From, history[0].To)
	}

	// 验证第二条记录
	if history[1].From != ReviewSubmitted || history[1].To != ReviewApproved {
		t.Errorf("unexpected second history record: %v -> %v", history[1].From, history[1].To)
	}

	// 验证时间戳
	if history[1].Timestamp.Before(history[0].Timestamp) {
		t.Error("expected second record to have later timestamp")
	}
}

func TestStateMachine_MaxHistorySize(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.SetMaxHistorySize(2)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted).
		AddTransitions(ReviewSubmitted, ReviewDraft)

	// 执行多次转移
	for i := 0; i < 5; i++ {
		_ = sm.TransitionTo(ReviewSubmitted)
		_ = sm.Transition(ReviewSubmitted, ReviewDraft, "")
	}

	history := sm.History()
	if len(history) != 2 {
		t.Errorf("expected history size to be limited to 2, got %d", len(history))
	}
}

func TestStateMachine_Reset(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted)

	_ = sm.TransitionTo(ReviewSubmitted)

	if sm.Current() != ReviewSubmitted {
		t.Errorf("expected current state to be %v, got %v", ReviewSubmitted, sm.Current())
	}

	sm.Reset()

	if sm.Current() != ReviewDraft {
		t.Errorf("expected state to be reset to %v, got %v", ReviewDraft, sm.Current())
	}

	if len(sm.History()) != 0 {
		t.Errorf("expected history to be cleared, got %d records", len(sm.History()))
	}
}

func TestStateMachine_IsOneOf(t *testing.T) {
	sm := NewWithState(ReviewDraft)

	if !sm.IsOneOf(ReviewDraft, ReviewSubmitted) {
		t.Error("expected IsOneOf to return true")
	}

	if sm.IsOneOf(ReviewSubmitted, ReviewApproved) {
		t.Error("expected IsOneOf to return false")
	}
}

func TestStateMachine_GetValidNextStates(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted, ReviewArchived)

	states := sm.GetValidNextStates(ReviewDraft)
	if len(states) != 2 {
		t.Errorf("expected 2 next states, got %d", len(states))
	}
}

func TestStateMachine_GetAllStates(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted).
		AddTransitions(ReviewSubmitted, ReviewApproved).
		AddTransitions(ReviewApproved, ReviewArchived)

	states := sm.GetAllStates()
	if len(states) != 4 {
		t.Errorf("expected 4 states, got %d", len(states))
	}
}

func TestStateMachine_OnError(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted)

	var errorCaught bool
	sm.OnError(func(from, to ReviewStatus, event Event, err error) {
		errorCaught = true
	})

	// 尝试非法转移
	_ = sm.TransitionTo(ReviewApproved)

	if !errorCaught {
		t.Error("expected error handler to be called")
	}
}

func TestStateMachine_Concurrency(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted).
		AddTransitions(ReviewSubmitted, ReviewDraft)

	// 并发读写测试
	done := make(chan bool, 100)

	for i := 0; i < 50; i++ {
		go func() {
			_ = sm.TransitionTo(ReviewSubmitted)
			done <- true
		}()
		go func() {
			_ = sm.Transition(ReviewSubmitted, ReviewDraft, "")
			done <- true
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	// 验证状态机仍然可用
	_ = sm.Current()
	_ = sm.History()
}

func TestStateMachine_ToDot(t *testing.T) {
	sm := NewWithState(ReviewDraft)
	sm.AddTransitions(ReviewDraft, ReviewSubmitted, ReviewArchived).
		AddTransitions(ReviewSubmitted, ReviewApproved)

	dot := sm.ToDot("ReviewStateMachine")

	// 基本验证
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}

	// 检查是否包含关键元素
	if !strings.Contains(dot, "digraph ReviewStateMachine") {
		t.Error("DOT output should contain diagram name")
	}

	if !strings.Contains(dot, "DRAFT") {
		t.Error("DOT output should contain states")
	}
}
