package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "empty file maps correctly",
			err:         &ImportFormatError{Err: ErrEmptyFile},
			wantCode:    "IMP002",
			wantMessage: "The file is empty",
		},
		{
			name:        "no headers maps correctly",
			err:         &ImportFormatError{Line: 1, Err: ErrNoHeaders},
			wantCode:    "IMP003",
			wantMessage: "The header row has no usable column names",
		},
		{
			name:        "malformed csv maps correctly",
			err:         &ImportFormatError{Line: 3, Err: errors.New(`extraneous or missing " in quoted-field`)},
			wantCode:    "IMP001",
			wantMessage: "Invalid CSV format.",
		},
		{
			name:        "wrapped file too large maps correctly",
			err:         fmt.Errorf("%w: limit is 10 bytes", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum import size",
		},
		{
			name:        "busy limiter maps correctly",
			err:         ErrTooManyImports,
			wantCode:    "IMP004",
			wantMessage: "Too many imports in progress",
		},
		{
			name:        "empty column key maps correctly",
			err:         ErrEmptyColumnKey,
			wantCode:    "COL001",
			wantMessage: "Column key is empty",
		},
		{
			name:        "export without visible columns maps correctly",
			err:         fmt.Errorf("export: %w", ErrNoVisibleColumns),
			wantCode:    "COL002",
			wantMessage: "There are no visible columns to export",
		},
		{
			name:        "missing record maps correctly",
			err:         fmt.Errorf("record abc: %w", ErrNotFound),
			wantCode:    "ROW001",
			wantMessage: "Row not found",
		},
		{
			name:        "validation errors map to save blocked",
			err:         ValidationErrors{{RecordID: "r1", Column: "age", Message: "Age must be >= 0"}},
			wantCode:    "VAL003",
			wantMessage: "Fix validation errors before saving.",
		},
		{
			name:        "numeric field error keeps its text",
			err:         FieldError{Column: "age", Message: "Age must be a number"},
			wantCode:    "VAL001",
			wantMessage: "Age must be a number",
		},
		{
			name:        "rule field error keeps its text",
			err:         FieldError{Column: "age", Message: "Age must be >= 0"},
			wantCode:    "VAL002",
			wantMessage: "Age must be >= 0",
		},
		{
			name:        "storage failure matches by pattern",
			err:         errors.New("save columns: database is locked"),
			wantCode:    "STO001",
			wantMessage: "Column settings could not be saved",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT EXCEEDED for 10.0.0.1"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyImports)

	expected := "Too many imports in progress (Code: IMP004). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrEmptyColumnKey,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ImportFormatError{Line: 2, Err: errors.New("bare quote")}
		userErr := NewUserError(techErr)

		if userErr.Error() != "Invalid CSV format." {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
		if got := MapError(fmt.Errorf("handler: %w", userErr)); got.Code != "IMP001" {
			t.Errorf("MapError(wrapped UserError) code = %q, want IMP001", got.Code)
		}
	})
}

func TestImportFormatError_Message(t *testing.T) {
	err := &ImportFormatError{Line: 4, Err: ErrNoHeaders}
	if !strings.Contains(err.Error(), "line 4") {
		t.Errorf("Error() = %q, want line number", err.Error())
	}
	if !errors.Is(err, ErrNoHeaders) {
		t.Error("errors.Is(ImportFormatError, ErrNoHeaders) = false, want true")
	}
}
