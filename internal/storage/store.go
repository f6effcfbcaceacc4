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

// Package storage provides the append-only time-series store backing the
// agent. Three record kinds are kept in a single local SQLite file; the only
// read path is a bounded most-recent-N fetch returned in chronological order.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps the GORM handle for the append-only log tables.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path and ensures the log
// tables exist. Table creation is idempotent, so reopening an existing
// database is safe.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		// Appends are single independent inserts
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&SystemLog{}, &NetworkLog{}, &PortLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate log tables: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AppendSystemLog durably writes one system metrics record.
func (s *Store) AppendSystemLog(ctx context.Context, rec *SystemLog) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append system log: %w", err)
	}
	return nil
}

// AppendNetworkLog durably writes one reachability probe record.
func (s *Store) AppendNetworkLog(ctx context.Context, rec *NetworkLog) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append network log: %w", err)
	}
	return nil
}

// AppendPortScan writes one row per scanned port, all sharing a single
// timestamp: Open for ports present in open, Closed for the rest.
func (s *Store) AppendPortScan(ctx context.Context, target string, open, scanned []int) error {
	if len(scanned) == 0 {
		return nil
	}

	openSet := make(map[int]struct{}, len(open))
	for _, p := range open {
		openSet[p] = struct{}{}
	}

	now := time.Now()
	rows := make([]PortLog, 0, len(scanned))
	for _, port := range scanned {
		status := PortStatusClosed
		if _, ok := openSet[port]; ok {
			status = PortStatusOpen
		}
		rows = append(rows, PortLog{
			Timestamp: now,
			Target:    target,
			Port:      port,
			Status:    status,
		})
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append port scan: %w", err)
	}
	return nil
}

// FetchSystemLogs returns the most recent limit system records in
// chronological order. Read failures degrade to an empty result set.
func (s *Store) FetchSystemLogs(ctx context.Context, limit int) ([]SystemLog, error) {
	var rows []SystemLog
	if err := s.fetch(ctx, limit, &rows); err != nil {
		return []SystemLog{}, err
	}
	reverse(rows)
	return rows, nil
}

// FetchNetworkLogs returns the most recent limit ping records in
// chronological order.
func (s *Store) FetchNetworkLogs(ctx context.Context, limit int) ([]NetworkLog, error) {
	var rows []NetworkLog
	if err := s.fetch(ctx, limit, &rows); err != nil {
		return []NetworkLog{}, err
	}
	reverse(rows)
	return rows, nil
}

// FetchPortLogs returns the most recent limit port scan records in
// chronological order.
func (s *Store) FetchPortLogs(ctx context.Context, limit int) ([]PortLog, error) {
	var rows []PortLog
	if err := s.fetch(ctx, limit, &rows); err != nil {
		return []PortLog{}, err
	}
	reverse(rows)
	return rows, nil
}

// fetch retrieves the most recent limit rows by insertion order, newest
// first. Callers reverse the slice so consumers always see oldest to newest.
func (s *Store) fetch(ctx context.Context, limit int, dest any) error {
	if limit <= 0 {
		limit = 100
	}
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(dest).Error; err != nil {
		if s.logger != nil {
			s.logger.Warn("Store read failed", "error", err)
		}
		return fmt.Errorf("fetch logs: %w", err)
	}
	return nil
}

func reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
