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

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"netwatch/internal/exporter"
	"netwatch/internal/probe"
	"netwatch/internal/sampler"
	"netwatch/internal/storage"
	"netwatch/internal/uptime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()

	logger := testLogger()
	store, err := storage.Open(filepath.Join(t.TempDir(), "server.db"), logger)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	smp := sampler.New(store, logger, time.Second, 10*time.Second, 50)
	mon := uptime.New(store, logger, time.Minute, func(ctx context.Context, target string) probe.PingResult {
		return probe.PingResult{Timestamp: time.Now(), Target: target, Status: probe.StatusOffline}
	})
	exp := exporter.NewCSVExporter(time.UTC, logger)

	opts := Options{
		PingTimeout: time.Second,
		ScanTimeout: 100 * time.Millisecond,
		ScanWorkers: 10,
	}
	return New(store, smp, mon, exp, opts, logger), store
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestGetVersion(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, "GET", "/api/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := resp["version"]; !ok {
		t.Error("response missing version field")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestGetStatus(t *testing.T) {
	s, _ := newTestServer(t)

	orig := checkLink
	checkLink = func(timeout time.Duration) bool { return true }
	defer func() { checkLink = orig }()

	rr := doJSON(t, s, "GET", "/api/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["online"] != true {
		t.Errorf("online = %v, want true", resp["online"])
	}
}

func TestPingValidTarget(t *testing.T) {
	s, store := newTestServer(t)

	lat := 8.15
	orig := pingTarget
	pingTarget = func(ctx context.Context, target string, timeout time.Duration, logger *slog.Logger) probe.PingResult {
		return probe.PingResult{
			Timestamp: time.Now(),
			Target:    target,
			Status:    probe.StatusOnline,
			LatencyMs: &lat,
		}
	}
	defer func() { pingTarget = orig }()

	rr := doJSON(t, s, "POST", "/api/ping", `{"target":"8.8.8.8"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp probe.PingResult
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != probe.StatusOnline {
		t.Errorf("Status = %q, want Online", resp.Status)
	}
	if resp.LatencyMs == nil || *resp.LatencyMs != 8.15 {
		t.Errorf("LatencyMs = %v, want 8.15", resp.LatencyMs)
	}

	// Probe result is persisted
	rows, err := store.FetchNetworkLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchNetworkLogs() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Target != "8.8.8.8" {
		t.Errorf("persisted rows = %+v, want one for 8.8.8.8", rows)
	}
}

func TestPingRejectsInvalidTarget(t *testing.T) {
	s, _ := newTestServer(t)

	called := false
	orig := pingTarget
	pingTarget = func(ctx context.Context, target string, timeout time.Duration, logger *slog.Logger) probe.PingResult {
		called = true
		return probe.PingResult{}
	}
	defer func() { pingTarget = orig }()

	rr := doJSON(t, s, "POST", "/api/ping", `{"target":"not a host!!"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if called {
		t.Error("invalid target was probed")
	}
}

func TestScanPartialSpecWarns(t *testing.T) {
	s, store := newTestServer(t)

	var scanned []int
	orig := scanPorts
	scanPorts = func(ctx context.Context, host string, ports []int, workers int, timeout time.Duration) []int {
		scanned = ports
		return []int{80}
	}
	defer func() { scanPorts = orig }()

	rr := doJSON(t, s, "POST", "/api/scan", `{"target":"example.com","ports":"80,65536"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	if !reflect.DeepEqual(scanned, []int{80}) {
		t.Errorf("scanned ports = %v, want [80]", scanned)
	}

	var resp scanResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !reflect.DeepEqual(resp.OpenPorts, []int{80}) {
		t.Errorf("OpenPorts = %v, want [80]", resp.OpenPorts)
	}
	if len(resp.Warnings) == 0 {
		t.Error("rejected token 65536 produced no warning")
	}

	rows, err := store.FetchPortLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchPortLogs() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Port != 80 || rows[0].Status != storage.PortStatusOpen {
		t.Errorf("persisted rows = %+v, want one Open row for port 80", rows)
	}
}

func TestScanRejectsAllInvalidSpec(t *testing.T) {
	s, _ := newTestServer(t)

	called := false
	orig := scanPorts
	scanPorts = func(ctx context.Context, host string, ports []int, workers int, timeout time.Duration) []int {
		called = true
		return nil
	}
	defer func() { scanPorts = orig }()

	rr := doJSON(t, s, "POST", "/api/scan", `{"target":"example.com","ports":"abc,0"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if called {
		t.Error("scan ran with no valid ports")
	}
}

func TestHostsRoundtrip(t *testing.T) {
	s, _ := newTestServer(t)

	var saved []string
	s.opts.SaveHosts = func(hosts []string) error {
		saved = hosts
		return nil
	}

	rr := doJSON(t, s, "PUT", "/api/hosts", `{"hosts":["a.example.com","a.example.com","b.example.com"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", rr.Code)
	}

	want := []string{"a.example.com", "b.example.com"}
	if !reflect.DeepEqual(saved, want) {
		t.Errorf("saved hosts = %v, want deduped %v", saved, want)
	}

	rr = doJSON(t, s, "GET", "/api/hosts", "")
	var resp map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !reflect.DeepEqual(resp["hosts"], want) {
		t.Errorf("GET hosts = %v, want %v", resp["hosts"], want)
	}
}

func TestGetLogsUnknownKind(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, "GET", "/api/logs/bogus", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestGetLogsLimit(t *testing.T) {
	s, store := newTestServer(t)

	ctx := context.Background()
	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		rec := &storage.SystemLog{Timestamp: base.Add(time.Duration(i) * time.Second), CPUPercent: float64(i)}
		if err := store.AppendSystemLog(ctx, rec); err != nil {
			t.Fatalf("AppendSystemLog() error = %v", err)
		}
	}

	rr := doJSON(t, s, "GET", "/api/logs/system?limit=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var rows []storage.SystemLog
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	// Most recent two, chronological order
	if rows[0].CPUPercent != 3 || rows[1].CPUPercent != 4 {
		t.Errorf("rows CPU = %v, %v; want 3, 4", rows[0].CPUPercent, rows[1].CPUPercent)
	}
}

func TestExportLogsCSV(t *testing.T) {
	s, store := newTestServer(t)

	rec := &storage.NetworkLog{Timestamp: time.Now(), Target: "8.8.8.8", Status: "Offline"}
	if err := store.AppendNetworkLog(context.Background(), rec); err != nil {
		t.Fatalf("AppendNetworkLog() error = %v", err)
	}

	rr := doJSON(t, s, "GET", "/api/logs/network/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q, want CSV attachment", cd)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "8.8.8.8") || !strings.Contains(body, "N/A") {
		t.Errorf("export body missing expected row: %q", body)
	}
}

func TestUptimeEmptyBeforeFirstTick(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, "GET", "/api/uptime", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var rows []uptime.HostStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want empty before first tick", rows)
	}
}

func TestCORSHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, "GET", "/api/version", "")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
