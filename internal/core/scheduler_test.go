package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSnapshot_SkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	arch := &fakeArchiver{}
	svc := newTestService(t, nil, Options{Seed: true, Archiver: arch})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	name, written, err := svc.Snapshot(ctx)
	if err != nil || !written {
		t.Fatalf("first Snapshot() = %q, %v, %v", name, written, err)
	}
	if name != "snapshots/20240301T120000Z_table_export.csv" {
		t.Errorf("name = %q", name)
	}
	if !strings.HasPrefix(string(arch.data[0]), "name,email,age,role\n") {
		t.Errorf("snapshot content = %q", arch.data[0])
	}

	if _, written, _ := svc.Snapshot(ctx); written {
		t.Error("unchanged table was archived again")
	}

	svc.AddRow(ctx, Fields{"name": "Eve"})
	if _, written, _ := svc.Snapshot(ctx); !written {
		t.Error("changed table was not archived")
	}
	if len(arch.names) != 2 {
		t.Errorf("archived %d snapshots, want 2", len(arch.names))
	}
}

func TestSnapshot_ArchiveErrorRetries(t *testing.T) {
	ctx := context.Background()
	arch := &fakeArchiver{err: errors.New("bucket unavailable")}
	svc := newTestService(t, nil, Options{Seed: true, Archiver: arch})

	if _, _, err := svc.Snapshot(ctx); err == nil {
		t.Fatal("Snapshot() error = nil, want archive failure")
	}

	arch.err = nil
	if _, written, err := svc.Snapshot(ctx); err != nil || !written {
		t.Errorf("retry Snapshot() = %v, %v; want written", written, err)
	}
}

func TestSnapshot_NoArchiver(t *testing.T) {
	svc := newTestService(t, nil, Options{Seed: true})
	if _, written, err := svc.Snapshot(context.Background()); written || err != nil {
		t.Errorf("Snapshot() = %v, %v; want no-op", written, err)
	}
	// Returns immediately instead of blocking.
	svc.StartSnapshotScheduler(context.Background(), time.Millisecond)
}

func TestStartSnapshotScheduler_StopsOnCancel(t *testing.T) {
	arch := &fakeArchiver{}
	svc := newTestService(t, nil, Options{Seed: true, Archiver: arch})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.StartSnapshotScheduler(ctx, time.Hour)

	if len(arch.names) != 1 {
		t.Errorf("snapshots on start = %d, want 1", len(arch.names))
	}
}
