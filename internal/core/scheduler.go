package core

// scheduler.go runs the periodic table snapshot job.
//
// When an Archiver is configured, the job stores the same CSV an export
// would produce under snapshots/<timestamp>_table_export.csv. A snapshot
// identical to the previous one is skipped, so an idle table does not fill
// the archive. Failures are logged and retried on the next tick; they
// never stop the scheduler.

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/JonMunkholm/tablekit/internal/logging"
)

// DefaultSnapshotInterval is used when StartSnapshotScheduler gets a
// non-positive interval.
const DefaultSnapshotInterval = time.Hour

// StartSnapshotScheduler snapshots the table immediately and then every
// interval until ctx is cancelled. It returns at once when no Archiver is
// configured.
func (s *Service) StartSnapshotScheduler(ctx context.Context, interval time.Duration) {
	logger := logging.FromContext(ctx)
	if s.archiver == nil {
		logger.Debug("snapshot scheduler disabled, no archiver configured")
		return
	}
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	logger.Info("snapshot scheduler started", "interval", interval.String())

	s.runSnapshotJob(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("snapshot scheduler stopped")
			return
		case <-ticker.C:
			s.runSnapshotJob(ctx)
		}
	}
}

func (s *Service) runSnapshotJob(ctx context.Context) {
	start := time.Now()
	name, written, err := s.Snapshot(ctx)
	logger := logging.FromContext(ctx)
	switch {
	case err != nil:
		logger.Error("snapshot failed", "op", "snapshot", "error", err)
	case !written:
		logger.Debug("snapshot skipped, table unchanged", "op", "snapshot")
	default:
		logger.Info("snapshot archived",
			"op", "snapshot",
			"name", name,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Snapshot archives the current table unless it matches the last snapshot.
// written reports whether anything was stored.
func (s *Service) Snapshot(ctx context.Context) (name string, written bool, err error) {
	if s.archiver == nil {
		return "", false, nil
	}

	s.mu.Lock()
	records := s.records.Clone()
	columns := s.columns.Visible()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := ExportCSV(&buf, records, columns); err != nil {
		return "", false, fmt.Errorf("render snapshot: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())

	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if sum == s.lastSnapshot {
		return "", false, nil
	}

	name = SnapshotName(s.now())
	if err := s.archiver.Archive(ctx, name, buf.Bytes()); err != nil {
		return "", false, fmt.Errorf("archive snapshot %s: %w", name, err)
	}
	s.lastSnapshot = sum
	return name, true, nil
}

// SnapshotName returns the archive object name for a snapshot taken at t.
func SnapshotName(t time.Time) string {
	return "snapshots/" + t.UTC().Format("20060102T150405Z") + "_" + ExportFileName
}
