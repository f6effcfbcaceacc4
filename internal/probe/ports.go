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

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Port scan defaults.
const (
	DefaultScanTimeout = 500 * time.Millisecond
	DefaultScanWorkers = 50

	minPort = 1
	maxPort = 65535
)

// ParsePortSpec parses a comma-separated port specification such as
// "22, 80, 443, 8000-8010" into a deduplicated ascending port list.
//
// Invalid tokens (non-numeric, out of [1,65535], or a range with start > end)
// do not poison the rest of the parse: valid tokens still produce ports, and
// the rejected tokens are reported through the returned error. Callers decide
// whether to proceed with the partial set.
func ParsePortSpec(spec string) ([]int, error) {
	seen := make(map[int]struct{})
	var errs []error

	if strings.TrimSpace(spec) == "" {
		return nil, errors.New("port specification is empty")
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err1 != nil || err2 != nil {
				errs = append(errs, fmt.Errorf("invalid port range: %s", part))
				continue
			}
			if start < minPort || end > maxPort || start > end {
				errs = append(errs, fmt.Errorf("invalid port range: %s", part))
				continue
			}
			for p := start; p <= end; p++ {
				seen[p] = struct{}{}
			}
			continue
		}

		port, err := strconv.Atoi(part)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid port format: %s", part))
			continue
		}
		if port < minPort || port > maxPort {
			errs = append(errs, fmt.Errorf("invalid port number: %d", port))
			continue
		}
		seen[port] = struct{}{}
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	return ports, errors.Join(errs...)
}

// Dependency injection point for testing.
var dialPort = func(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", address)
}

// CheckPort attempts a single TCP connect to (host, port). An established
// connection means the port is open; a timeout, refusal, or any other socket
// error means closed. Errors never escape the probe boundary.
func CheckPort(ctx context.Context, host string, port int, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}

	conn, err := dialPort(ctx, net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ScanPorts fans the port batch out across a bounded worker pool and returns
// the ascending list of ports found open. Submitting more ports than workers
// queues rather than fails, and the scan completes only once every submitted
// port has resolved, so the result set is identical across completion orders.
func ScanPorts(ctx context.Context, host string, ports []int, workers int, timeout time.Duration) []int {
	if workers <= 0 {
		workers = DefaultScanWorkers
	}
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}

	var (
		mu   sync.Mutex
		open []int
	)

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, port := range ports {
		port := port
		g.Go(func() error {
			if CheckPort(ctx, host, port, timeout) {
				mu.Lock()
				open = append(open, port)
				mu.Unlock()
			}
			return nil
		})
	}

	// Workers never return errors; Wait only provides the completion barrier.
	_ = g.Wait()

	sort.Ints(open)
	return open
}
