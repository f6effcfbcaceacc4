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

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"netwatch/internal/probe"
	"netwatch/internal/storage"
)

var scanPortSpec string

var scanCmd = &cobra.Command{
	Use:   "scan <host>",
	Short: "Scan TCP ports on a host and log the results",
	Long: `Scan a set of TCP ports on a host using a bounded worker pool. Each
scanned port is appended to the port log as Open or Closed. The port
specification accepts single ports and inclusive ranges.

Examples:
  netwatch scan 127.0.0.1 --ports 22,80,443
  netwatch scan example.com --ports 8000-8010,443`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanPortSpec, "ports", "p", "80,443,8080",
		"Ports to scan (e.g., '22,80,443,8000-8010')")
}

func runScan(_ *cobra.Command, args []string) error {
	target := args[0]
	if !probe.ValidHost(target) {
		return fmt.Errorf("invalid hostname or IP address: %s", target)
	}

	ports, parseErr := probe.ParsePortSpec(scanPortSpec)
	if len(ports) == 0 {
		if parseErr != nil {
			return fmt.Errorf("no valid ports to scan: %w", parseErr)
		}
		return fmt.Errorf("no valid ports to scan")
	}
	if parseErr != nil {
		// Rejected tokens are reported, remaining valid ports still scan
		fmt.Fprintf(os.Stderr, "Warning: %v\n", parseErr)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := InitLogger(cfg.LogLevel, cfg.LogFile)

	ctx := context.Background()
	fmt.Printf("Scanning %d ports on %s...\n", len(ports), target)
	open := probe.ScanPorts(ctx, target, ports, cfg.ScanWorkers, cfg.ScanTimeout())

	store, err := storage.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
	} else {
		defer store.Close()
		if err := store.AppendPortScan(ctx, target, open, ports); err != nil {
			logger.Warn("Failed to persist port scan", "error", err)
		}
	}

	if len(open) == 0 {
		fmt.Println("Scan complete. No open ports found in the specified range.")
		return nil
	}

	openStrs := make([]string, len(open))
	for i, p := range open {
		openStrs[i] = fmt.Sprintf("%d", p)
	}
	fmt.Printf("Scan complete. Open ports: %s\n", strings.Join(openStrs, ", "))

	return nil
}
