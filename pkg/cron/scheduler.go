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

package cron

import (
	"fmt"
	"sync"
	"time"

	"github.com/atriumcrm/atrium/pkg/log"
	robcron "github.com/robfig/cron"
)

// MetricsRecorder receives scheduler telemetry. A nil recorder disables recording.
type MetricsRecorder interface {
	RecordJobRun(jobName string, duration time.Duration, err error)
	UpdateNextRun(jobName string, nextRun time.Time)
	UpdateJobsCount(count int)
}

var (
	recorderMu sync.RWMutex
	recorder   MetricsRecorder
)

// SetMetricsRecorder installs the telemetry sink for all schedulers.
func SetMetricsRecorder(r MetricsRecorder) {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	recorder = r
}

func getRecorder() MetricsRecorder {
	recorderMu.RLock()
	defer recorderMu.RUnlock()
	return recorder
}

// Scheduler wraps robfig/cron with named jobs, panic isolation and run telemetry.
// Specs use the six-field cron syntax or @every descriptors.
type Scheduler struct {
	cron *robcron.Cron
	mu   sync.Mutex
	jobs []string
}

// NewScheduler creates an empty scheduler. Call Start to begin dispatching.
func NewScheduler() *Scheduler {
	return &Scheduler{cron: robcron.New()}
}

// AddFunc registers cmd to run on the given spec. The name identifies the
// job in logs and metrics.
func (s *Scheduler) AddFunc(spec, name string, cmd func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.cron.AddFunc(spec, func() {
		runJob(name, cmd)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	s.jobs = append(s.jobs, name)
	if r := getRecorder(); r != nil {
		r.UpdateJobsCount(len(s.jobs))
	}
	return nil
}

// runJob executes one job run with panic recovery and telemetry.
func runJob(name string, cmd func()) {
	start := time.Now()
	var runErr error

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				runErr = fmt.Errorf("job %q panicked: %v", name, rec)
				log.Errorw("cron job panicked", "job", name, "panic", rec)
			}
		}()
		cmd()
	}()

	if r := getRecorder(); r != nil {
		r.RecordJobRun(name, time.Since(start), runErr)
	}
}

// Start begins dispatching scheduled jobs in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.updateNextRuns()
}

// Stop halts the scheduler. Running jobs are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// JobNames returns the names of all registered jobs, in registration order.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// updateNextRuns reports the next fire time of each entry to the recorder.
// Entry order matches registration order for AddFunc jobs.
func (s *Scheduler) updateNextRuns() {
	r := getRecorder()
	if r == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	for i, entry := range entries {
		if i < len(s.jobs) {
			r.UpdateNextRun(s.jobs[i], entry.Next)
		}
	}
}
