package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/tablekit/internal/logging"
)

// ImportSummary describes an applied import.
type ImportSummary struct {
	Rows         int      `json:"rows"`
	AddedColumns []Column `json:"addedColumns"`
}

// Import parses CSV from r and, if the whole file parses, appends any new
// columns to the registry and replaces every record. On any failure the
// table is left exactly as it was.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		s.importFinished(err, 0)
		return ImportSummary{}, err
	}
	defer s.limiter.Release()

	// Parse outside the lock; only the apply step needs it.
	result, err := importCSV(r, s.Columns(), s.maxImportSize)
	if err != nil {
		logger.Warn("import rejected", "op", "import", "error", err)
		s.importFinished(err, 0)
		return ImportSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Columns may have been added while parsing; only append what is still new.
	next := s.columns
	var added []Column
	for _, col := range result.Columns {
		if next.Has(col.Key) {
			continue
		}
		next = next.Add(col.Key, col.Label)
		added = append(added, col)
	}
	if err := s.setColumns(ctx, next); err != nil {
		logger.Error("import aborted, column registry not saved", "op", "import", "error", err)
		s.importFinished(err, 0)
		return ImportSummary{}, err
	}
	s.setRecords(result.Records)
	s.importFinished(nil, len(result.Records))

	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionImport,
		RowsAffected: len(result.Records),
		Detail:       fmt.Sprintf("%d new columns", len(added)),
	})
	logger.Info("import applied",
		"op", "import",
		"rows", len(result.Records),
		"columns", len(added),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if added == nil {
		added = []Column{}
	}
	return ImportSummary{Rows: len(result.Records), AddedColumns: added}, nil
}

func (s *Service) importFinished(err error, rows int) {
	if s.observer != nil {
		s.observer.ImportFinished(resultLabel(err), rows)
	}
}

// Export writes every record as CSV, using the visible columns in registry
// order. It returns the number of data rows written. When an Archiver is
// configured a copy is stored as exports/<timestamp>_table_export.csv;
// archive failures are logged and do not fail the export.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	s.mu.Lock()
	records := s.records.Clone()
	columns := s.columns.Visible()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := ExportCSV(&buf, records, columns); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	data := buf.Bytes()

	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}

	logger := logging.FromContext(ctx)
	if s.archiver != nil {
		name := ArchiveName(s.now())
		if err := s.archiver.Archive(ctx, name, data); err != nil {
			logger.Error("export archive failed", "op", "export", "name", name, "error", err)
		} else {
			logger.Debug("export archived", "op", "export", "name", name, "bytes", len(data))
		}
	}

	if s.observer != nil {
		s.observer.ExportFinished(len(records))
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionExport,
		RowsAffected: len(records),
		Detail:       fmt.Sprintf("%d columns", len(columns)),
	})
	logger.Info("export written", "op", "export", "rows", len(records), "columns", len(columns))
	return len(records), nil
}

// ArchiveName returns the archive object name for an export made at t.
func ArchiveName(t time.Time) string {
	return "exports/" + t.UTC().Format("20060102T150405Z") + "_" + ExportFileName
}
