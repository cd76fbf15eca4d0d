// Package archive keeps a copy of every exported CSV file.
//
// Drivers:
//
//	none: exports are not archived (Open returns nil, nil)
//	fs:   files are written below a local directory
//	s3:   objects are written to an S3 or S3-compatible bucket
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/core"
)

// Options configures Open.
type Options struct {
	Driver string
	Dir    string
	S3     S3Config
}

// Open returns the archiver selected by opts.Driver. The "none" driver
// yields a nil archiver, which the table service treats as disabled.
func Open(ctx context.Context, opts Options) (core.Archiver, error) {
	switch opts.Driver {
	case "", "none":
		return nil, nil
	case "fs":
		fs, err := NewFS(opts.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "s3":
		store, err := NewS3(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", opts.Driver)
	}
}

// cleanName rejects names that would escape the archive root.
func cleanName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty archive name")
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid absolute archive name %q", name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return clean, nil
}
