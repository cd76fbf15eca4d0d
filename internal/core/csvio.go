package core

// csvio.go converts between CSV text and the record store / column registry.
//
// Import reconciles an arbitrary external schema with the registry:
//   - Headers are normalized (trim, lowercase, whitespace -> "_")
//   - A header normalizing to "id" is dropped; identifiers are always generated
//   - Unknown headers become new visible columns with a derived label
//   - Every data row becomes a new record; missing cells read as ""
//
// Import is all-or-nothing: any parse failure aborts before anything is
// returned. Applying the result replaces every record in the store.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ExportFileName is the download name of an export.
const ExportFileName = "table_export.csv"

// ExportContentType is the MIME type of an export.
const ExportContentType = "text/csv;charset=utf-8"

// DefaultMaxImportSize bounds how much input an import reads (10MB).
const DefaultMaxImportSize = 10 << 20

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")
	// ErrNoHeaders is returned when no header survives normalization.
	ErrNoHeaders = errors.New("no usable headers")
	// ErrFileTooLarge is returned when the input exceeds the import size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoVisibleColumns is returned when an export has no column to write.
	ErrNoVisibleColumns = errors.New("no visible columns to export")
)

// ImportFormatError reports CSV input that cannot be imported.
// The whole import is rejected; nothing is applied.
type ImportFormatError struct {
	Line int // 1-based input line, 0 if unknown
	Err  error
}

func (e *ImportFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ImportFormatError) Unwrap() error {
	return e.Err
}

// ImportResult is a parsed CSV ready to be applied.
type ImportResult struct {
	Columns []Column `json:"columns"` // Columns to append to the registry
	Records Records  `json:"records"` // Replacement record set
	Lines   []int    `json:"-"`       // Input line each record starts on
}

// line returns the input line record i starts on. Results built without
// line information count one line per record after the header.
func (r ImportResult) line(i int) int {
	if i < len(r.Lines) {
		return r.Lines[i]
	}
	return i + 2
}

// headerField maps a CSV column position to a normalized key.
type headerField struct {
	pos int
	key string
}

// ImportCSV parses CSV text with a header row against the existing registry.
func ImportCSV(r io.Reader, existing Columns) (ImportResult, error) {
	return importCSV(r, existing, DefaultMaxImportSize)
}

func importCSV(r io.Reader, existing Columns, maxSize int64) (ImportResult, error) {
	data, err := readImport(r, maxSize)
	if err != nil {
		return ImportResult{}, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // short rows are padded with ""

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, &ImportFormatError{Err: ErrEmptyFile}
	}
	if err != nil {
		return ImportResult{}, parseFailure(err)
	}

	fields, added := reconcileHeaders(header, existing)
	if len(fields) == 0 {
		return ImportResult{}, &ImportFormatError{Line: 1, Err: ErrNoHeaders}
	}

	records := Records{}
	var lines []int
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportResult{}, parseFailure(err)
		}

		values := make(Fields, len(fields))
		for _, f := range fields {
			v := ""
			if f.pos < len(row) {
				v = row[f.pos]
			}
			values[f.key] = v
		}
		records = append(records, NewRecord(values))
		line, _ := reader.FieldPos(0)
		lines = append(lines, line)
	}

	return ImportResult{Columns: added, Records: records, Lines: lines}, nil
}

// reconcileHeaders normalizes the header row. It returns the positions to
// copy and the columns the registry does not know yet, in header order.
func reconcileHeaders(header []string, existing Columns) ([]headerField, []Column) {
	var fields []headerField
	var added []Column
	seen := make(map[string]bool)

	for i, raw := range header {
		key := NormalizeKey(raw)
		if key == "" || key == "id" {
			continue
		}
		fields = append(fields, headerField{pos: i, key: key})

		if seen[key] || existing.Has(key) {
			continue
		}
		seen[key] = true
		added = append(added, Column{Key: key, Label: LabelFromKey(key), Visible: true})
	}
	return fields, added
}

func parseFailure(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ImportFormatError{Line: pe.Line, Err: pe.Err}
	}
	return &ImportFormatError{Err: err}
}

// ExportCSV writes records as CSV using only the given columns, in order.
// The identifier is never written. Callers pass the visible columns.
//
// A row consisting of one empty field is written as "" so it survives a
// re-import; csv readers skip blank lines.
func ExportCSV(w io.Writer, records Records, columns Columns) error {
	keys := columns.Keys()
	if len(keys) == 0 {
		return ErrNoVisibleColumns
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(keys))
	for _, rec := range records {
		for i, k := range keys {
			row[i] = rec.Cell(k)
		}
		if len(row) == 1 && row[0] == "" {
			if err := writeEmptyRow(w, cw); err != nil {
				return fmt.Errorf("write row %s: %w", rec.ID, err)
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeEmptyRow flushes cw and writes a quoted empty field to w.
func writeEmptyRow(w io.Writer, cw *csv.Writer) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}
