package core

// error_messages.go maps technical errors to user-friendly messages with a
// code for support reference.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Not a number: a numeric column holds text
//	         Action: Enter a plain number such as 42 or 3.5
//	VAL002 - Rule failed: a value breaks its column's rule (e.g. age >= 0)
//	         Action: Correct the highlighted cells
//	VAL003 - Validation failed: one or more drafted cells are invalid
//	         Action: Fix validation errors before saving
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Invalid CSV: the file could not be parsed
//	         Action: Check quoting; every quote must be closed
//	IMP002 - Empty file: no header row was found
//	         Action: Upload a CSV file with a header row
//	IMP003 - No headers: no header produced a usable column key
//	         Action: Give each column a name in the first row
//	IMP004 - System busy: too many imports in progress
//	         Action: Please wait a moment and try again
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the file exceeds the import size limit
//	          Action: Split the file into smaller chunks
//	FILE002 - No file: no file was selected
//	          Action: Please select a CSV file to import
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Empty key: the column key is blank after normalization
//	         Action: Enter a field key containing letters or digits
//	COL002 - No visible columns: an export has nothing to write
//	         Action: Show at least one column, then export again
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Not found: the row no longer exists
//	         Action: Refresh the table
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Save failed: column settings could not be stored
//	         Action: Try again; the previous column settings are still active
//
// # Rate Limit Errors (RATE001)
//
//	RATE001 - Too many requests: the per-client request budget is spent
//	          Action: Please wait a minute and try again
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Typed errors are matched first with errors.Is/errors.As. Anything else
// falls through to case-insensitive substring patterns; the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgNotNumber = UserMessage{
		Message: "A numeric column contains text",
		Action:  "Enter a plain number such as 42 or 3.5",
		Code:    "VAL001",
	}
	msgRuleFailed = UserMessage{
		Message: "A value does not satisfy its column rule",
		Action:  "Correct the highlighted cells",
		Code:    "VAL002",
	}
	msgValidation = UserMessage{
		Message: "Fix validation errors before saving.",
		Action:  "Correct the highlighted cells, or cancel to discard all edits",
		Code:    "VAL003",
	}
	msgInvalidCSV = UserMessage{
		Message: "Invalid CSV format.",
		Action:  "Check quoting; every quote must be closed",
		Code:    "IMP001",
	}
	msgEmptyFile = UserMessage{
		Message: "The file is empty",
		Action:  "Upload a CSV file with a header row",
		Code:    "IMP002",
	}
	msgNoHeaders = UserMessage{
		Message: "The header row has no usable column names",
		Action:  "Give each column a name in the first row",
		Code:    "IMP003",
	}
	msgBusy = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP004",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum import size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to import",
		Code:    "FILE002",
	}
	msgEmptyKey = UserMessage{
		Message: "Column key is empty",
		Action:  "Enter a field key containing letters or digits",
		Code:    "COL001",
	}
	msgNoVisibleColumns = UserMessage{
		Message: "There are no visible columns to export",
		Action:  "Show at least one column, then export again",
		Code:    "COL002",
	}
	msgNotFound = UserMessage{
		Message: "Row not found",
		Action:  "The row may have been deleted or replaced by an import. Refresh the table",
		Code:    "ROW001",
	}
	msgStorage = UserMessage{
		Message: "Column settings could not be saved",
		Action:  "Try again; the previous column settings are still active",
		Code:    "STO001",
	}
	msgRateLimit = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a minute and try again",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched with strings.Contains on the lowercased error.
var errorPatterns = []errorPattern{
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "too many concurrent imports", msg: msgBusy},
	{pattern: "invalid csv", msg: msgInvalidCSV},
	{pattern: "must be a number", msg: msgNotNumber},
	{pattern: "validation failed", msg: msgValidation},
	{pattern: "save columns", msg: msgStorage},
	{pattern: "rate limit exceeded", msg: msgRateLimit},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	switch {
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, ErrNoHeaders):
		return msgNoHeaders
	case errors.Is(err, ErrFileTooLarge):
		return msgTooLarge
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.Is(err, ErrEmptyColumnKey):
		return msgEmptyKey
	case errors.Is(err, ErrNoVisibleColumns):
		return msgNoVisibleColumns
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	}

	var fe FieldError
	if errors.As(err, &fe) {
		return fieldMessage(fe)
	}

	var ife *ImportFormatError
	if errors.As(err, &ife) {
		return msgInvalidCSV
	}

	var ve ValidationErrors
	if errors.As(err, &ve) {
		return msgValidation
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// fieldMessage maps a single cell failure, keeping its specific text.
func fieldMessage(fe FieldError) UserMessage {
	base := msgRuleFailed
	if strings.HasSuffix(fe.Message, "must be a number") {
		base = msgNotNumber
	}
	base.Message = fe.Message
	return base
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown to users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and wraps it. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
