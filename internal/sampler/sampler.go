/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package sampler polls local CPU, memory, and disk utilization on a fixed
// cadence. Samples feed an in-memory rolling window for live charting and
// are persisted to the store on a slower, decoupled cadence.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"netwatch/internal/storage"
)

// Sample is one reading of local system utilization, all values in [0,100].
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	CPU       float64   `json:"cpu"`
	Memory    float64   `json:"memory"`
	Disk      float64   `json:"disk"`
}

// Dependency injection points for testing.
var (
	cpuPercent    = cpu.Percent
	virtualMemory = mem.VirtualMemory
	diskUsage     = disk.Usage
)

// ReadSystem reads the current CPU, memory, and disk utilization.
func ReadSystem() (Sample, error) {
	s := Sample{Timestamp: time.Now()}

	cpuPercents, err := cpuPercent(0, false)
	if err != nil {
		return s, fmt.Errorf("failed to get CPU percent: %w", err)
	}
	if len(cpuPercents) > 0 {
		s.CPU = cpuPercents[0]
	}

	vmStat, err := virtualMemory()
	if err != nil {
		return s, fmt.Errorf("failed to get memory stats: %w", err)
	}
	s.Memory = vmStat.UsedPercent

	usage, err := diskUsage(diskRoot())
	if err != nil {
		return s, fmt.Errorf("failed to get disk usage: %w", err)
	}
	s.Disk = usage.UsedPercent

	return s, nil
}

// diskRoot returns the filesystem root to measure per platform.
func diskRoot() string {
	if runtime.GOOS == "windows" {
		return "C:"
	}
	return "/"
}

// Sampler runs the periodic sampling loop.
type Sampler struct {
	store        *storage.Store
	logger       *slog.Logger
	interval     time.Duration
	persistEvery time.Duration
	read         func() (Sample, error)

	mu          sync.RWMutex
	window      *ring
	lastPersist time.Time
	subs        map[chan Sample]struct{}
}

// New creates a sampler persisting to store. windowSize bounds the live
// in-memory window; persistEvery is the minimum gap between persisted
// samples, independent of the sampling interval.
func New(store *storage.Store, logger *slog.Logger, interval, persistEvery time.Duration, windowSize int) *Sampler {
	if interval <= 0 {
		interval = time.Second
	}
	if persistEvery <= 0 {
		persistEvery = 10 * time.Second
	}
	return &Sampler{
		store:        store,
		logger:       logger,
		interval:     interval,
		persistEvery: persistEvery,
		read:         ReadSystem,
		window:       newRing(windowSize),
		subs:         make(map[chan Sample]struct{}),
	}
}

// Run begins the sampling loop and blocks until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("Starting metrics sampler",
		"interval", s.interval,
		"persist_every", s.persistEvery,
	)

	// First reading establishes the gopsutil CPU baseline
	s.tick(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Metrics sampler stopping...")
			return nil
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick performs one sampling cycle: read, extend the live window, fan out to
// subscribers, and persist when the persistence gap has elapsed. A store
// write failure is logged and swallowed; losing one sample is acceptable.
func (s *Sampler) tick(ctx context.Context, now time.Time) {
	sample, err := s.read()
	if err != nil {
		s.logger.Warn("Failed to read system metrics", "error", err)
		return
	}

	s.mu.Lock()
	s.window.push(sample)
	shouldPersist := s.lastPersist.IsZero() || now.Sub(s.lastPersist) >= s.persistEvery
	if shouldPersist {
		s.lastPersist = now
	}
	for ch := range s.subs {
		select {
		case ch <- sample:
		default:
			// Slow subscriber, drop rather than stall the loop
		}
	}
	s.mu.Unlock()

	if !shouldPersist {
		return
	}

	rec := &storage.SystemLog{
		Timestamp:     sample.Timestamp,
		CPUPercent:    sample.CPU,
		MemoryPercent: sample.Memory,
		DiskPercent:   sample.Disk,
	}
	if err := s.store.AppendSystemLog(ctx, rec); err != nil {
		s.logger.Warn("Failed to persist system sample", "error", err)
	}
}

// Window returns the live sample window, oldest to newest.
func (s *Sampler) Window() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window.snapshot()
}

// Latest returns the most recent sample, if any.
func (s *Sampler) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window.latest()
}

// Subscribe registers a live sample feed. The returned cancel function must
// be called to release the subscription.
func (s *Sampler) Subscribe() (<-chan Sample, func()) {
	ch := make(chan Sample, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}
