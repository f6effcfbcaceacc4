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
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"netwatch/internal/probe"
	"netwatch/internal/storage"
	"netwatch/pkg/version"
)

// Dependency injection points for testing.
var (
	pingTarget = probe.Ping
	scanPorts  = probe.ScanPorts
	checkLink  = probe.CheckConnection
)

const defaultLogLimit = 100

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

// handleGetStatus returns the agent's own health view: internet
// connectivity and the latest local sample.
func (s *Server) handleGetStatus(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]interface{}{
		"online": checkLink(s.opts.PingTimeout),
	}
	if latest, ok := s.sampler.Latest(); ok {
		resp["latest_sample"] = latest
	}
	s.writeJSON(w, resp)
}

// handleGetMetrics returns the live in-memory sample window, oldest first.
func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	window := s.sampler.Window()
	if limit := parseLimit(r, 0); limit > 0 && limit < len(window) {
		window = window[len(window)-limit:]
	}
	s.writeJSON(w, window)
}

type pingRequest struct {
	Target string `json:"target"`
}

// handlePing performs an on-demand reachability probe. Invalid host tokens
// are rejected before any probe attempt; every probe outcome is a normal
// result row and is persisted best-effort.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !probe.ValidHost(req.Target) {
		s.writeError(w, "Invalid hostname or IP address", http.StatusBadRequest)
		return
	}

	result := pingTarget(r.Context(), req.Target, s.opts.PingTimeout, s.logger)
	s.appendPing(r.Context(), result)

	s.writeJSON(w, result)
}

type scanRequest struct {
	Target string `json:"target"`
	Ports  string `json:"ports"`
}

type scanResponse struct {
	Target    string        `json:"target"`
	Timestamp time.Time     `json:"timestamp"`
	OpenPorts []int         `json:"open_ports"`
	Results   []portRowJSON `json:"results"`
	Warnings  []string      `json:"warnings,omitempty"`
}

type portRowJSON struct {
	Port   int    `json:"port"`
	Status string `json:"status"`
}

// handleScan performs an on-demand TCP port scan. Rejected port spec tokens
// are reported as warnings while the remaining valid ports are still
// scanned; a spec with no valid port at all is an input error.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !probe.ValidHost(req.Target) {
		s.writeError(w, "Invalid hostname or IP address", http.StatusBadRequest)
		return
	}

	ports, parseErr := probe.ParsePortSpec(req.Ports)
	if len(ports) == 0 {
		msg := "No valid ports in specification"
		if parseErr != nil {
			msg = parseErr.Error()
		}
		s.writeError(w, msg, http.StatusBadRequest)
		return
	}

	open := scanPorts(r.Context(), req.Target, ports, s.opts.ScanWorkers, s.opts.ScanTimeout)

	if err := s.store.AppendPortScan(r.Context(), req.Target, open, ports); err != nil {
		s.logger.Warn("Failed to persist port scan", "target", req.Target, "error", err)
	}

	openSet := make(map[int]struct{}, len(open))
	for _, p := range open {
		openSet[p] = struct{}{}
	}

	resp := scanResponse{
		Target:    req.Target,
		Timestamp: time.Now(),
		OpenPorts: open,
	}
	for _, p := range ports {
		status := "Closed"
		if _, ok := openSet[p]; ok {
			status = "Open"
		}
		resp.Results = append(resp.Results, portRowJSON{Port: p, Status: status})
	}
	if parseErr != nil {
		resp.Warnings = append(resp.Warnings, parseErr.Error())
	}

	s.writeJSON(w, resp)
}

// handleGetHosts returns the monitored host set.
func (s *Server) handleGetHosts(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string][]string{"hosts": s.monitor.Hosts()})
}

type hostsRequest struct {
	Hosts []string `json:"hosts"`
}

// handlePutHosts replaces the monitored host set. Entries are not validated
// here: invalid entries surface as Invalid Host rows on the next tick.
func (s *Server) handlePutHosts(w http.ResponseWriter, r *http.Request) {
	var req hostsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.monitor.SetHosts(req.Hosts)

	if s.opts.SaveHosts != nil {
		if err := s.opts.SaveHosts(s.monitor.Hosts()); err != nil {
			s.logger.Warn("Failed to persist host set", "error", err)
		}
	}

	s.writeJSON(w, map[string][]string{"hosts": s.monitor.Hosts()})
}

// handleGetUptime returns the status table from the most recent tick.
func (s *Server) handleGetUptime(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.monitor.Statuses())
}

// handleGetLogs returns historical records for one log kind.
// Read failures degrade to an empty result set, never a failed request.
func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	limit := parseLimit(r, defaultLogLimit)

	switch kind {
	case "system":
		rows, _ := s.store.FetchSystemLogs(r.Context(), limit)
		s.writeJSON(w, rows)
	case "network":
		rows, _ := s.store.FetchNetworkLogs(r.Context(), limit)
		s.writeJSON(w, rows)
	case "ports":
		rows, _ := s.store.FetchPortLogs(r.Context(), limit)
		s.writeJSON(w, rows)
	default:
		s.writeError(w, fmt.Sprintf("unknown log kind: %s", kind), http.StatusNotFound)
	}
}

// handleExportLogs streams one log kind as a CSV download.
func (s *Server) handleExportLogs(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	limit := parseLimit(r, defaultLogLimit)

	var data []byte
	switch kind {
	case "system":
		rows, _ := s.store.FetchSystemLogs(r.Context(), limit)
		data = s.exporter.SystemLogs(rows)
	case "network":
		rows, _ := s.store.FetchNetworkLogs(r.Context(), limit)
		data = s.exporter.NetworkLogs(rows)
	case "ports":
		rows, _ := s.store.FetchPortLogs(r.Context(), limit)
		data = s.exporter.PortLogs(rows)
	default:
		s.writeError(w, fmt.Sprintf("unknown log kind: %s", kind), http.StatusNotFound)
		return
	}

	filename := fmt.Sprintf("%s_logs_%s.csv", kind, time.Now().Format("20060102150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write CSV export", "error", err)
	}
}

// appendPing persists one ping result best-effort.
func (s *Server) appendPing(ctx context.Context, result probe.PingResult) {
	rec := &storage.NetworkLog{
		Timestamp: result.Timestamp,
		Target:    result.Target,
		Status:    string(result.Status),
		LatencyMs: result.LatencyMs,
	}
	if err := s.store.AppendNetworkLog(ctx, rec); err != nil {
		s.logger.Warn("Failed to persist ping result", "target", result.Target, "error", err)
	}
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
