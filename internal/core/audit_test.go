package core

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAuditLog_RecordCarriesRequestContext(t *testing.T) {
	log := NewAuditLog(10)

	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7", UserAgent: "curl/8.0"})

	entry := log.Record(ctx, AuditLogParams{Action: ActionRowDelete, RecordID: "r1", RowsAffected: 1})

	if entry.ID == "" {
		t.Error("entry has no ID")
	}
	if entry.IPAddress != "10.0.0.7" || entry.UserAgent != "curl/8.0" {
		t.Errorf("request metadata = %q %q", entry.IPAddress, entry.UserAgent)
	}
	if entry.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want %q", entry.Severity, SeverityHigh)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestAuditLog_BoundedNewestFirst(t *testing.T) {
	log := NewAuditLog(3)
	for i := 0; i < 5; i++ {
		log.Record(context.Background(), AuditLogParams{Action: ActionRowAdd, RecordID: fmt.Sprint(i)})
	}

	all := log.Entries(0)
	if len(all) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(all))
	}
	for i, want := range []string{"4", "3", "2"} {
		if all[i].RecordID != want {
			t.Errorf("Entries()[%d].RecordID = %q, want %q", i, all[i].RecordID, want)
		}
	}

	if got := log.Entries(1); len(got) != 1 || got[0].RecordID != "4" {
		t.Errorf("Entries(1) = %v", got)
	}
}

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		action AuditAction
		want   AuditSeverity
	}{
		{ActionColumnReset, SeverityCritical},
		{ActionImport, SeverityHigh},
		{ActionRowsReplace, SeverityHigh},
		{ActionExport, SeverityLow},
		{ActionColumnReorder, SeverityLow},
		{ActionRowUpdate, SeverityMedium},
		{ActionEditCommit, SeverityMedium},
	}
	for _, tt := range tests {
		if got := determineSeverity(tt.action); got != tt.want {
			t.Errorf("determineSeverity(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestAuditLog_Query(t *testing.T) {
	log := NewAuditLog(10)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := base
	log.now = func() time.Time { return clock }

	for i, action := range []AuditAction{ActionRowAdd, ActionRowDelete, ActionRowAdd, ActionColumnReset} {
		clock = base.Add(time.Duration(i) * time.Minute)
		log.Record(context.Background(), AuditLogParams{Action: action, RecordID: fmt.Sprint(i)})
	}

	tests := []struct {
		name string
		opts AuditLogOptions
		want []string
	}{
		{"all", AuditLogOptions{}, []string{"3", "2", "1", "0"}},
		{"action", AuditLogOptions{Action: ActionRowAdd}, []string{"2", "0"}},
		{"severity", AuditLogOptions{Severity: SeverityHigh}, []string{"1"}},
		{"limit after filter", AuditLogOptions{Action: ActionRowAdd, Limit: 1}, []string{"2"}},
		{"window", AuditLogOptions{StartTime: base.Add(time.Minute), EndTime: base.Add(3 * time.Minute)}, []string{"2", "1"}},
		{"no match", AuditLogOptions{Action: ActionExport}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := log.Query(tt.opts)
			ids := make([]string, len(got))
			for i, e := range got {
				ids[i] = e.RecordID
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Query() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestWriteAuditCSV(t *testing.T) {
	var buf bytes.Buffer
	entries := []AuditEntry{{
		ID:        "a1",
		Action:    ActionImport,
		Severity:  SeverityHigh,
		Detail:    "2 new columns, \"quoted\"",
		CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}}
	if err := WriteAuditCSV(&buf, entries); err != nil {
		t.Fatal(err)
	}
	want := "id,created_at,action,severity,record_id,column,rows,detail,ip,user_agent\n" +
		"a1,2024-05-01T09:00:00Z,import,high,,,0,\"2 new columns, \"\"quoted\"\"\",,\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}
}
