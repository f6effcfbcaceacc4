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
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"netwatch/internal/exporter"
	"netwatch/internal/probe"
	"netwatch/internal/sampler"
	"netwatch/internal/server"
	"netwatch/internal/storage"
	"netwatch/internal/uptime"
	"netwatch/pkg/version"
)

var (
	// Serve command specific flags
	serveAddr     string
	serveDatabase string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the monitoring agent",
	Long: `Start the NetWatch agent: the metrics sampler, the uptime monitor, and the
HTTP API run until interrupted. Results are appended to the local SQLite log.

Examples:
  # Run with the default configuration file
  netwatch serve

  # Custom listen address and database
  netwatch serve --addr 127.0.0.1:9090 --database /var/lib/netwatch/logs.db`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"HTTP API listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDatabase, "database", "",
		"Path to the SQLite database file (overrides config)")
}

// runServe is the main agent entry point.
func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}
	if serveDatabase != "" {
		cfg.DatabasePath = serveDatabase
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)

	logger.Info("Starting NetWatch",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Info("Configuration loaded", "config", cfg.String())

	store, err := storage.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	smp := sampler.New(store, logger, cfg.SampleInterval(), cfg.PersistInterval(), cfg.LiveWindow)

	pingFn := func(ctx context.Context, target string) probe.PingResult {
		return probe.Ping(ctx, target, cfg.PingTimeout(), logger)
	}
	mon := uptime.New(store, logger, cfg.UptimeInterval(), pingFn)
	mon.SetHosts(cfg.Hosts)

	exp := exporter.NewCSVExporter(cfg.Location(), logger)

	srv := server.New(store, smp, mon, exp, server.Options{
		PingTimeout: cfg.PingTimeout(),
		ScanTimeout: cfg.ScanTimeout(),
		ScanWorkers: cfg.ScanWorkers,
		SaveHosts: func(hosts []string) error {
			cfg.Hosts = hosts
			return cfg.Save(configPath)
		},
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Shutdown on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The two periodic schedules run on independent goroutines so a stuck
	// probe in one cannot delay the other's ticks.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return smp.Run(gctx)
	})
	g.Go(func() error {
		return mon.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("HTTP API listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Agent stopped with error", "error", err)
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
