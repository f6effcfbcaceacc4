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

package uptime

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"netwatch/internal/probe"
	"netwatch/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "uptime.db"), testLogger())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetHostsDedupes(t *testing.T) {
	m := New(openTestStore(t), testLogger(), time.Minute, nil)

	m.SetHosts([]string{"8.8.8.8", "example.com", "8.8.8.8", "", "example.com"})

	got := m.Hosts()
	want := []string{"8.8.8.8", "example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hosts() = %v, want %v", got, want)
	}
}

func TestTickSkipsProbeForInvalidHost(t *testing.T) {
	store := openTestStore(t)

	var mu sync.Mutex
	probed := []string{}
	probeFn := func(ctx context.Context, target string) probe.PingResult {
		mu.Lock()
		probed = append(probed, target)
		mu.Unlock()
		lat := 5.0
		return probe.PingResult{
			Timestamp: time.Now(),
			Target:    target,
			Status:    probe.StatusOnline,
			LatencyMs: &lat,
		}
	}

	m := New(store, testLogger(), time.Minute, probeFn)
	m.SetHosts([]string{"8.8.8.8", "not a host!!"})

	ctx := context.Background()
	m.Tick(ctx)

	mu.Lock()
	if len(probed) != 1 || probed[0] != "8.8.8.8" {
		t.Errorf("probed hosts = %v, want only 8.8.8.8", probed)
	}
	mu.Unlock()

	statuses := m.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("len(Statuses()) = %d, want 2", len(statuses))
	}
	if statuses[0].Host != "8.8.8.8" || statuses[0].Status != probe.StatusOnline {
		t.Errorf("statuses[0] = %+v, want Online 8.8.8.8", statuses[0])
	}
	if statuses[1].Host != "not a host!!" || statuses[1].Status != probe.StatusInvalidHost {
		t.Errorf("statuses[1] = %+v, want Invalid Host row", statuses[1])
	}

	// Every result is persisted, invalid entries included
	rows, err := store.FetchNetworkLogs(ctx, 10)
	if err != nil {
		t.Fatalf("FetchNetworkLogs() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("persisted rows = %d, want 2", len(rows))
	}
}

func TestTickIsolatesHostFailures(t *testing.T) {
	store := openTestStore(t)

	probeFn := func(ctx context.Context, target string) probe.PingResult {
		res := probe.PingResult{Timestamp: time.Now(), Target: target}
		if target == "down.example.com" {
			res.Status = probe.StatusError
			return res
		}
		lat := 1.25
		res.Status = probe.StatusOnline
		res.LatencyMs = &lat
		return res
	}

	m := New(store, testLogger(), time.Minute, probeFn)
	m.SetHosts([]string{"down.example.com", "8.8.8.8"})
	m.Tick(context.Background())

	statuses := m.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("len(Statuses()) = %d, want 2", len(statuses))
	}
	if statuses[0].Status != probe.StatusError {
		t.Errorf("statuses[0].Status = %q, want %q", statuses[0].Status, probe.StatusError)
	}
	if statuses[1].Status != probe.StatusOnline {
		t.Errorf("statuses[1].Status = %q, want %q", statuses[1].Status, probe.StatusOnline)
	}
	if statuses[1].LatencyMs == nil || *statuses[1].LatencyMs != 1.25 {
		t.Errorf("statuses[1].LatencyMs = %v, want 1.25", statuses[1].LatencyMs)
	}
}

func TestTickEmptyHostSet(t *testing.T) {
	called := false
	probeFn := func(ctx context.Context, target string) probe.PingResult {
		called = true
		return probe.PingResult{}
	}

	m := New(openTestStore(t), testLogger(), time.Minute, probeFn)
	m.Tick(context.Background())

	if called {
		t.Error("Tick probed with an empty host set")
	}
	if got := m.Statuses(); len(got) != 0 {
		t.Errorf("Statuses() = %v, want empty", got)
	}
}

func TestTickTimestampsChronological(t *testing.T) {
	store := openTestStore(t)

	// The first host's probe resolves last, so its row would carry the
	// latest completion time while being inserted first.
	probeFn := func(ctx context.Context, target string) probe.PingResult {
		if target == "slow.example.com" {
			time.Sleep(50 * time.Millisecond)
		}
		lat := 2.5
		return probe.PingResult{
			Timestamp: time.Now(),
			Target:    target,
			Status:    probe.StatusOnline,
			LatencyMs: &lat,
		}
	}

	m := New(store, testLogger(), time.Minute, probeFn)
	m.SetHosts([]string{"slow.example.com", "fast.example.com"})

	ctx := context.Background()
	m.Tick(ctx)
	m.Tick(ctx)

	rows, err := store.FetchNetworkLogs(ctx, 10)
	if err != nil {
		t.Fatalf("FetchNetworkLogs() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("persisted rows = %d, want 4", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp.Before(rows[i-1].Timestamp) {
			t.Errorf("rows[%d] (%s, %v) earlier than rows[%d] (%s, %v)",
				i, rows[i].Target, rows[i].Timestamp,
				i-1, rows[i-1].Target, rows[i-1].Timestamp)
		}
	}
	// Rows of one tick share the tick-snapshot timestamp
	if !rows[0].Timestamp.Equal(rows[1].Timestamp) {
		t.Errorf("first tick timestamps differ: %v vs %v", rows[0].Timestamp, rows[1].Timestamp)
	}
	if !rows[2].Timestamp.Equal(rows[3].Timestamp) {
		t.Errorf("second tick timestamps differ: %v vs %v", rows[2].Timestamp, rows[3].Timestamp)
	}
}

func TestHostSetChangeAppliesNextTick(t *testing.T) {
	probeFn := func(ctx context.Context, target string) probe.PingResult {
		return probe.PingResult{Timestamp: time.Now(), Target: target, Status: probe.StatusOffline}
	}

	m := New(openTestStore(t), testLogger(), time.Minute, probeFn)
	m.SetHosts([]string{"a.example.com"})
	m.Tick(context.Background())

	m.SetHosts([]string{"b.example.com", "c.example.com"})
	m.Tick(context.Background())

	statuses := m.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("len(Statuses()) = %d, want 2", len(statuses))
	}
	if statuses[0].Host != "b.example.com" || statuses[1].Host != "c.example.com" {
		t.Errorf("status hosts = %v, want replaced host set", []string{statuses[0].Host, statuses[1].Host})
	}
}
