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

// Package uptime runs the periodic reachability monitor over a mutable set
// of hosts. Each tick snapshots the host set, probes every valid entry
// concurrently, persists all results, and refreshes the in-memory status
// table. One host's failure never delays or aborts the rest of the tick.
package uptime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"netwatch/internal/probe"
	"netwatch/internal/storage"
)

// Probes within one tick run concurrently, bounded so a long host list
// cannot exhaust sockets.
const maxConcurrentProbes = 16

// ProbeFunc performs one reachability probe. Injected so the scheduler can
// be exercised without network access.
type ProbeFunc func(ctx context.Context, target string) probe.PingResult

// HostStatus is one row of the rendered status table.
type HostStatus struct {
	Host      string       `json:"host"`
	Status    probe.Status `json:"status"`
	LatencyMs *float64     `json:"latency_ms,omitempty"`
	CheckedAt time.Time    `json:"checked_at"`
}

// Monitor is the periodic reachability scheduler.
type Monitor struct {
	store    *storage.Store
	logger   *slog.Logger
	interval time.Duration
	probe    ProbeFunc

	mu       sync.RWMutex
	hosts    []string
	statuses []HostStatus
}

// New creates a monitor probing via probeFn every interval.
func New(store *storage.Store, logger *slog.Logger, interval time.Duration, probeFn ProbeFunc) *Monitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Monitor{
		store:    store,
		logger:   logger,
		interval: interval,
		probe:    probeFn,
	}
}

// SetHosts replaces the monitored host set. Duplicates are dropped while
// preserving order. The change takes effect on the next tick; an in-flight
// tick keeps the snapshot it started with.
func (m *Monitor) SetHosts(hosts []string) {
	seen := make(map[string]struct{}, len(hosts))
	deduped := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		deduped = append(deduped, h)
	}

	m.mu.Lock()
	m.hosts = deduped
	m.mu.Unlock()
}

// Hosts returns a copy of the current host set.
func (m *Monitor) Hosts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.hosts))
	copy(out, m.hosts)
	return out
}

// Statuses returns the status table from the most recent completed tick,
// in host-set order.
func (m *Monitor) Statuses() []HostStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]HostStatus, len(m.statuses))
	copy(out, m.statuses)
	return out
}

// Run begins the monitoring loop and blocks until ctx is cancelled.
// The first tick fires immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Starting uptime monitor", "interval", m.interval)

	m.Tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Uptime monitor stopping...")
			return nil
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick executes one scheduler pass against a snapshot of the host set.
// Invalid entries produce an Invalid Host row without a probe attempt;
// every result, including those, is persisted. The tick commits its result
// table only after all probes have resolved or individually timed out.
//
// All rows of one tick share the tick-snapshot timestamp. Rows are inserted
// in host-set order after the probes complete, so per-probe completion times
// would let a slow probe at a low index insert a later timestamp before an
// earlier one and break the table's chronological ordering.
func (m *Monitor) Tick(ctx context.Context) {
	hosts := m.Hosts()
	if len(hosts) == 0 {
		return
	}

	now := time.Now()
	results := make([]HostStatus, len(hosts))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentProbes)

	for i, host := range hosts {
		i, host := i, host

		if !probe.ValidHost(host) {
			results[i] = HostStatus{
				Host:      host,
				Status:    probe.StatusInvalidHost,
				CheckedAt: now,
			}
			continue
		}

		g.Go(func() error {
			res := m.probe(ctx, host)
			results[i] = HostStatus{
				Host:      host,
				Status:    res.Status,
				LatencyMs: res.LatencyMs,
				CheckedAt: now,
			}
			return nil
		})
	}

	// Probes never return errors; Wait is the tick's completion barrier.
	_ = g.Wait()

	for _, r := range results {
		rec := &storage.NetworkLog{
			Timestamp: r.CheckedAt,
			Target:    r.Host,
			Status:    string(r.Status),
			LatencyMs: r.LatencyMs,
		}
		if err := m.store.AppendNetworkLog(ctx, rec); err != nil {
			m.logger.Warn("Failed to persist ping result", "target", r.Host, "error", err)
		}
	}

	m.mu.Lock()
	m.statuses = results
	m.mu.Unlock()

	m.logger.Debug("Uptime tick completed", "hosts", len(hosts))
}
