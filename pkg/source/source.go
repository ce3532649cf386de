// Package source loads manifest text for scanning.
//
// A Provider yields labeled manifests without interpreting them; extraction
// never touches the filesystem itself. The local provider covers files and
// directory trees, and the serve API constructs manifests directly from
// request bodies.
package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/depscout/depscout/pkg/errors"
)

// Manifest is one unit of scan input: a label for the report and the raw
// source text.
type Manifest struct {
	Label string
	Text  string
}

// Provider yields the manifests to scan.
type Provider interface {
	Manifests(ctx context.Context) ([]Manifest, error)
}

// Local loads manifests from the filesystem. Each path may be a setup.py
// file or a directory, which is walked for files named setup.py.
type Local struct {
	paths []string
}

// NewLocal creates a Local provider over the given paths.
func NewLocal(paths ...string) *Local {
	return &Local{paths: paths}
}

// Manifests resolves every configured path. An unreadable input is a
// scan-level error: silently skipping it would report a clean result for
// something that was never checked.
func (l *Local) Manifests(ctx context.Context) ([]Manifest, error) {
	var out []Manifest
	for _, path := range l.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read input %s", path)
		}

		if !info.IsDir() {
			m, err := readManifest(path)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
			continue
		}

		found, err := walkDir(ctx, path)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func walkDir(ctx context.Context, root string) ([]Manifest, error) {
	var out []Manifest
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read input %s", path)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || d.Name() != "setup.py" {
			return nil
		}
		m, err := readManifest(path)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read input %s", path)
	}
	return Manifest{Label: filepath.ToSlash(path), Text: string(data)}, nil
}
