package core

// input.go prepares raw import bytes for the CSV parser.
//
// Spreadsheet exports commonly carry a UTF-8 byte order mark and, when saved
// with the wrong encoding, stray invalid bytes. Both are cleaned up here so
// the first header never normalizes to "\ufeffname" and the parser never
// sees broken UTF-8:
//
//   - A leading BOM (0xEF 0xBB 0xBF) is removed
//   - Invalid UTF-8 sequences become U+FFFD
//
// Input is read whole, bounded by the import size limit.

import (
	"bytes"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readImport reads at most maxSize bytes from r and returns them cleaned.
// A non-positive maxSize means DefaultMaxImportSize.
func readImport(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxImportSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxSize)
	}

	return sanitizeUTF8(skipBOM(data)), nil
}

// skipBOM removes a leading UTF-8 byte order mark.
func skipBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces each run of invalid UTF-8 with the replacement character.
func sanitizeUTF8(data []byte) []byte {
	if isAllASCII(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

// isAllASCII is a fast path; most CSV input is plain ASCII.
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
