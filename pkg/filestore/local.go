// Package filestore keeps uploaded documents on local disk.
package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
)

const scheme = "file://"

var (
	kindRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	extRe  = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// Local stores files under baseDir/<kind>/<uuid><ext> and hands out
// locators of the form file://<kind>/<uuid><ext>.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, apperr.Internal("prepare upload dir", err)
	}
	return &Local{baseDir: baseDir}, nil
}

func (l *Local) Store(_ context.Context, kind, ext string, data []byte) (string, error) {
	ext = strings.ToLower(ext)
	if !kindRe.MatchString(kind) || !extRe.MatchString(ext) {
		return "", apperr.Validation("invalid file kind or extension")
	}
	dir := filepath.Join(l.baseDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Internal("prepare storage", err)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", apperr.Internal("store file", err)
	}
	return scheme + kind + "/" + name, nil
}

func (l *Local) Retrieve(_ context.Context, locator string) ([]byte, error) {
	path, err := l.resolve(locator)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.NotFound("file not found")
	}
	if err != nil {
		return nil, apperr.Internal("read file", err)
	}
	return data, nil
}

// resolve maps a locator to a path inside baseDir and rejects anything
// that would escape it.
func (l *Local) resolve(locator string) (string, error) {
	rel, ok := strings.CutPrefix(locator, scheme)
	if !ok || rel == "" {
		return "", apperr.Validation("invalid file locator")
	}
	kind, name, ok := strings.Cut(rel, "/")
	if !ok || !kindRe.MatchString(kind) || name == "" || strings.ContainsAny(name, `/\`) || name == ".." || name == "." {
		return "", apperr.Validation("invalid file locator")
	}
	return filepath.Join(l.baseDir, kind, name), nil
}
