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

// Package probe implements the stateless network probe primitives:
// a timed reachability check and a TCP connect probe, each with a
// bounded timeout. Probe failures degrade to status values and never
// propagate to the caller as errors.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"regexp"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Status classifies the outcome of one reachability probe.
type Status string

const (
	StatusOnline      Status = "Online"
	StatusOffline     Status = "Offline"
	StatusHostUnknown Status = "Host Unknown"
	StatusError       Status = "Error"
	StatusInvalidHost Status = "Invalid Host"
)

// DefaultPingTimeout bounds a single reachability probe.
const DefaultPingTimeout = 3 * time.Second

// PingResult is the outcome of a single reachability probe.
// LatencyMs is set only when Status is StatusOnline.
type PingResult struct {
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"target"`
	Status    Status    `json:"status"`
	LatencyMs *float64  `json:"latency_ms,omitempty"`
}

var hostPattern = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

// ValidHost reports whether s is an acceptable hostname or IP token.
func ValidHost(s string) bool {
	return s != "" && hostPattern.MatchString(s)
}

// Dependency injection point for testing.
var runPinger = runICMPPinger

// Ping performs one reachability probe against target with the given timeout
// and classifies the outcome. It never returns an error: transport failures
// are logged and reported as StatusError so that probing one host cannot
// abort a batch.
func Ping(ctx context.Context, target string, timeout time.Duration, logger *slog.Logger) PingResult {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}

	result := PingResult{
		Timestamp: time.Now(),
		Target:    target,
	}

	latency, err := runPinger(ctx, target, timeout)
	switch {
	case err == nil && latency >= 0:
		// Round-trip measured, rounded to 2 decimal places
		ms := math.Round(latency*100) / 100
		result.Status = StatusOnline
		result.LatencyMs = &ms
	case err == nil:
		// No reply within the timeout
		result.Status = StatusOffline
	case isResolutionFailure(err):
		result.Status = StatusHostUnknown
	default:
		// Permission denied, unreachable network and friends
		if logger != nil {
			logger.Warn("Ping probe failed", "target", target, "error", err)
		}
		result.Status = StatusError
	}

	return result
}

// runICMPPinger sends a single ICMP echo and returns the round-trip time in
// milliseconds. A negative latency with a nil error means no reply arrived
// before the timeout.
func runICMPPinger(ctx context.Context, target string, timeout time.Duration) (float64, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return -1, err
	}

	pinger.Count = 1
	pinger.Timeout = timeout
	// Unprivileged UDP mode so the agent does not require raw sockets
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return -1, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return -1, nil
	}

	return float64(stats.AvgRtt) / float64(time.Millisecond), nil
}

// isResolutionFailure reports whether err stems from name resolution.
func isResolutionFailure(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// CheckConnection reports whether the machine has a live internet connection
// by attempting a TCP connection to a well-known DNS endpoint.
func CheckConnection(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("8.8.8.8", "53"), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
