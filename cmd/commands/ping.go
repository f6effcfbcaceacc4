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

	"github.com/spf13/cobra"

	"netwatch/internal/probe"
	"netwatch/internal/storage"
)

var pingCmd = &cobra.Command{
	Use:   "ping <host>",
	Short: "Ping a host once and log the result",
	Long: `Perform one reachability probe against a host or IP address. The outcome
(Online, Offline, Host Unknown, or Error) is printed and appended to the
network log.

Examples:
  netwatch ping 8.8.8.8
  netwatch ping example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(_ *cobra.Command, args []string) error {
	target := args[0]
	if !probe.ValidHost(target) {
		return fmt.Errorf("invalid hostname or IP address: %s", target)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := InitLogger(cfg.LogLevel, cfg.LogFile)

	ctx := context.Background()
	result := probe.Ping(ctx, target, cfg.PingTimeout(), logger)

	store, err := storage.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
	} else {
		defer store.Close()
		rec := &storage.NetworkLog{
			Timestamp: result.Timestamp,
			Target:    result.Target,
			Status:    string(result.Status),
			LatencyMs: result.LatencyMs,
		}
		if err := store.AppendNetworkLog(ctx, rec); err != nil {
			logger.Warn("Failed to persist ping result", "error", err)
		}
	}

	if result.LatencyMs != nil {
		fmt.Printf("%s is %s (latency: %.2f ms)\n", target, result.Status, *result.LatencyMs)
	} else {
		fmt.Printf("%s is %s\n", target, result.Status)
	}

	return nil
}
