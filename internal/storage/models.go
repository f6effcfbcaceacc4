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

package storage

import "time"

// SystemLog is one persisted system metrics sample.
type SystemLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp     time.Time `gorm:"not null;index" json:"timestamp"`
	CPUPercent    float64   `gorm:"not null" json:"cpu_percent"`
	MemoryPercent float64   `gorm:"not null" json:"memory_percent"`
	DiskPercent   float64   `gorm:"not null" json:"disk_percent"`
}

// TableName overrides the GORM default.
func (SystemLog) TableName() string { return "system_logs" }

// NetworkLog is one persisted reachability probe result.
// LatencyMs is NULL unless the target was online.
type NetworkLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Target    string    `gorm:"not null" json:"target"`
	Status    string    `gorm:"not null" json:"status"`
	LatencyMs *float64  `json:"latency_ms"`
}

// TableName overrides the GORM default.
func (NetworkLog) TableName() string { return "network_logs" }

// PortLog is one persisted row of a port scan. A scan of N ports produces
// N rows sharing a single timestamp.
type PortLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Target    string    `gorm:"not null" json:"target"`
	Port      int       `gorm:"not null" json:"port"`
	Status    string    `gorm:"not null" json:"status"`
}

// TableName overrides the GORM default.
func (PortLog) TableName() string { return "port_logs" }

// Port scan row statuses.
const (
	PortStatusOpen   = "Open"
	PortStatusClosed = "Closed"
)
