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

// Package exporter renders fetched log records into downloadable CSV
// artifacts. A formatting failure yields an empty artifact and never touches
// the stored data.
package exporter

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"strconv"
	"time"

	"netwatch/internal/storage"
)

const timestampLayout = "2006-01-02 15:04:05"

// The absence sentinel used where a row has no latency value.
const notAvailable = "N/A"

// CSVExporter formats log records as CSV with timestamps rendered in a
// fixed timezone.
type CSVExporter struct {
	location *time.Location
	logger   *slog.Logger
}

// NewCSVExporter creates an exporter rendering timestamps in loc.
// A nil loc falls back to the local timezone.
func NewCSVExporter(loc *time.Location, logger *slog.Logger) *CSVExporter {
	if loc == nil {
		loc = time.Local
	}
	return &CSVExporter{location: loc, logger: logger}
}

// SystemLogs renders system metric records to CSV bytes.
func (e *CSVExporter) SystemLogs(rows []storage.SystemLog) []byte {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"id", "timestamp", "cpu_percent", "memory_percent", "disk_percent"})
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.In(e.location).Format(timestampLayout),
			formatFloat(r.CPUPercent),
			formatFloat(r.MemoryPercent),
			formatFloat(r.DiskPercent),
		})
	}
	return e.render(records)
}

// NetworkLogs renders ping result records to CSV bytes.
func (e *CSVExporter) NetworkLogs(rows []storage.NetworkLog) []byte {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"id", "timestamp", "target", "status", "latency_ms"})
	for _, r := range rows {
		latency := notAvailable
		if r.LatencyMs != nil {
			latency = formatFloat(*r.LatencyMs)
		}
		records = append(records, []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.In(e.location).Format(timestampLayout),
			r.Target,
			r.Status,
			latency,
		})
	}
	return e.render(records)
}

// PortLogs renders port scan records to CSV bytes.
func (e *CSVExporter) PortLogs(rows []storage.PortLog) []byte {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"id", "timestamp", "target", "port", "status"})
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.In(e.location).Format(timestampLayout),
			r.Target,
			strconv.Itoa(r.Port),
			r.Status,
		})
	}
	return e.render(records)
}

// render writes the records through encoding/csv into an in-memory buffer.
// On a write error the artifact degrades to empty; the underlying records
// remain untouched in the store.
func (e *CSVExporter) render(records [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.WriteAll(records); err != nil {
		if e.logger != nil {
			e.logger.Error("Failed to render CSV export", "error", err)
		}
		return []byte{}
	}

	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
