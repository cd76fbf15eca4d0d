// Package core provides the business logic of the table manager.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the tablectl terminal viewer and
// tests without modification.
//
// # Architecture
//
// The package is organized around five components:
//
//   - Column Registry: [Columns], the ordered column definitions (key, label,
//     visibility) that decide which fields exist and which are shown.
//   - Record Store: [Records], rows with a generated identifier and a
//     flexible field map.
//   - View Pipeline: [ComputeView], a pure filter -> sort -> paginate
//     function of records, columns and [ViewState].
//   - Edit Session: [Session], per-row drafts with all-or-nothing commit
//     gated by a [RuleSet].
//   - CSV Adapter: [ImportCSV] and [ExportCSV].
//
// [Service] ties them together for one table, serializing access and
// persisting the column registry through a [ColumnStore].
//
// # View Pipeline
//
// A record passes the filter if any of its field values contains the query
// as a case-insensitive substring. Sorting compares the lowercased text of
// the sort column and is stable in both directions. Pages past the end are
// empty, never an error:
//
//	res := core.ComputeView(records, columns, core.ViewState{
//	    Query:         "bo",
//	    SortKey:       "age",
//	    SortDirection: core.SortDesc,
//	    PageSize:      10,
//	})
//
// # Import
//
// Headers are normalized ("Phone Number" -> "phone_number"), an "id" header
// is dropped, and unknown headers become new visible columns. A parse
// failure anywhere aborts the whole import with an [ImportFormatError];
// otherwise every record is replaced. [Service.PreviewImport] runs the same
// parse and reports the outcome without applying it.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL001-VAL003: Validation errors (not a number, rule failed, save blocked)
//   - IMP001-IMP004: Import errors (invalid CSV, empty file, no headers, busy)
//   - FILE001-FILE002: File errors (too large, missing)
//   - COL001-COL002, ROW001, STO001, RATE001: Column, row, storage and rate limit errors
//
// # Audit Logging
//
// Mutations are recorded in a bounded in-memory journal with severity levels:
//
//   - Low: Exports, column visibility and order
//   - Medium: Column and row additions, row edits, edit commits
//   - High: Imports, row deletions, record replacement
//   - Critical: Column reset
package core
