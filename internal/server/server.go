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

// Package server exposes the agent's HTTP API: live metrics, the uptime
// status table, on-demand ping and port scan, log history, and CSV export.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"netwatch/internal/exporter"
	"netwatch/internal/sampler"
	"netwatch/internal/storage"
	"netwatch/internal/uptime"
)

// Options carries the probe tuning the handlers need.
type Options struct {
	PingTimeout time.Duration
	ScanTimeout time.Duration
	ScanWorkers int

	// SaveHosts persists operator edits to the monitored host set.
	// Optional; edits still apply in memory when nil or failing.
	SaveHosts func([]string) error
}

// Server is the HTTP API server.
type Server struct {
	store    *storage.Store
	sampler  *sampler.Sampler
	monitor  *uptime.Monitor
	exporter *exporter.CSVExporter
	opts     Options
	logger   *slog.Logger
	router   *mux.Router
}

// New creates the API server and sets up routes.
func New(store *storage.Store, smp *sampler.Sampler, mon *uptime.Monitor, exp *exporter.CSVExporter, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:    store,
		sampler:  smp,
		monitor:  mon,
		exporter: exp,
		opts:     opts,
		logger:   logger,
		router:   mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET")
	s.router.HandleFunc("/api/status", s.handleGetStatus).Methods("GET")
	s.router.HandleFunc("/api/metrics", s.handleGetMetrics).Methods("GET")
	s.router.HandleFunc("/api/metrics/stream", s.handleMetricsStream).Methods("GET")
	s.router.HandleFunc("/api/ping", s.handlePing).Methods("POST")
	s.router.HandleFunc("/api/scan", s.handleScan).Methods("POST")
	s.router.HandleFunc("/api/hosts", s.handleGetHosts).Methods("GET")
	s.router.HandleFunc("/api/hosts", s.handlePutHosts).Methods("PUT")
	s.router.HandleFunc("/api/uptime", s.handleGetUptime).Methods("GET")
	s.router.HandleFunc("/api/logs/{kind}", s.handleGetLogs).Methods("GET")
	s.router.HandleFunc("/api/logs/{kind}/export", s.handleExportLogs).Methods("GET")
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests, tagging each with a request ID.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
