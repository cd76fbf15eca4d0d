package core

import (
	"context"
	"io"
	"time"

	"github.com/JonMunkholm/tablekit/internal/logging"
)

// PreviewSummary contains the summary counts for an import preview.
type PreviewSummary struct {
	TotalRows   int `json:"totalRows"`   // Rows the import would load
	CurrentRows int `json:"currentRows"` // Rows the import would replace
	ErrorRows   int `json:"errorRows"`   // Rows that would fail a validation rule if edited
	NewColumns  int `json:"newColumns"`
}

// RowPreview represents a single row for preview display.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
}

// ErrorPreview represents a row whose values break a validation rule.
// Import does not reject such rows; the preview only reports them.
type ErrorPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
	Errors     []string          `json:"errors"`
}

// ImportPreview is the complete result of a read-only import analysis.
type ImportPreview struct {
	Summary          PreviewSummary `json:"summary"`
	NewColumns       []Column       `json:"newColumns"`
	Samples          []RowPreview   `json:"samples"`
	ErrorSamples     []ErrorPreview `json:"errorSamples"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

// Sample limits
const (
	maxRowSamples   = 10
	maxErrorSamples = 20
)

// PreviewImport parses r exactly like Import but changes nothing. It
// reports what the import would load and which rows already break a
// validation rule. Parse failures are returned as Import would return them.
func (s *Service) PreviewImport(ctx context.Context, r io.Reader) (ImportPreview, error) {
	start := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		return ImportPreview{}, err
	}
	defer s.limiter.Release()

	result, err := importCSV(r, s.Columns(), s.maxImportSize)
	if err != nil {
		logging.FromContext(ctx).Debug("import preview rejected", "op", "preview", "error", err)
		return ImportPreview{}, err
	}

	s.mu.Lock()
	current := len(s.records)
	rules := s.rules
	s.mu.Unlock()

	preview := analyzeImport(result, rules)
	preview.Summary.CurrentRows = current
	preview.ProcessingTimeMs = time.Since(start).Milliseconds()
	return preview, nil
}

func analyzeImport(result ImportResult, rules RuleSet) ImportPreview {
	preview := ImportPreview{
		Summary: PreviewSummary{
			TotalRows:  len(result.Records),
			NewColumns: len(result.Columns),
		},
		NewColumns:   result.Columns,
		Samples:      []RowPreview{},
		ErrorSamples: []ErrorPreview{},
	}
	if preview.NewColumns == nil {
		preview.NewColumns = []Column{}
	}

	for i, rec := range result.Records {
		lineNum := result.line(i)

		if len(preview.Samples) < maxRowSamples {
			preview.Samples = append(preview.Samples, RowPreview{
				LineNumber: lineNum,
				Values:     previewValues(rec.Fields),
			})
		}

		errs := rules.Validate(rec.ID, rec.Fields)
		if len(errs) == 0 {
			continue
		}
		preview.Summary.ErrorRows++
		if len(preview.ErrorSamples) < maxErrorSamples {
			msgs := make([]string, len(errs))
			for j, fe := range errs {
				msgs[j] = fe.Error()
			}
			preview.ErrorSamples = append(preview.ErrorSamples, ErrorPreview{
				LineNumber: lineNum,
				Values:     previewValues(rec.Fields),
				Errors:     msgs,
			})
		}
	}
	return preview
}

func previewValues(fields Fields) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = FormatValue(v)
	}
	return out
}
