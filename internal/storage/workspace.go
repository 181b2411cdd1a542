package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// ErrUnsupportedType is returned for uploads outside the allowed MIME set.
var ErrUnsupportedType = errors.New("unsupported media type")

const (
	// ArtifactHTML is the rendered-tables artifact file name.
	ArtifactHTML = "tables.html"
	// ArtifactJSON is the serialized-metadata artifact file name.
	ArtifactJSON = "tables.json"
)

var allowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// AllowedMIME reports whether an upload content type is accepted.
func AllowedMIME(contentType string) bool {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	_, ok := allowedMIMETypes[strings.TrimSpace(contentType)]
	return ok
}

// Slug derives the content-addressed, filesystem-safe key for an
// uploaded file: sha256 of the display name plus the lower-cased
// original extension.
func Slug(displayName string) string {
	digest := sha256.Sum256([]byte(displayName))
	return hex.EncodeToString(digest[:]) + strings.ToLower(filepath.Ext(displayName))
}

// Workspace manages the ephemeral per-request directory tree holding
// uploaded sources and produced artifacts.
type Workspace struct {
	baseDir  string
	maxBytes int64
}

// NewWorkspace creates the workspace root if needed.
func NewWorkspace(baseDir string, maxBytes int64) (*Workspace, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}
	return &Workspace{baseDir: baseDir, maxBytes: maxBytes}, nil
}

// MaxBytes returns the per-file upload size limit.
func (w *Workspace) MaxBytes() int64 { return w.maxBytes }

// CreateRequestDir creates the isolated working directory for a request.
func (w *Workspace) CreateRequestDir(requestID string) (string, error) {
	dir := filepath.Join(w.baseDir, requestID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating request directory: %w", err)
	}
	return dir, nil
}

// SaveUpload streams an upload into the request directory under its
// slug, enforcing the size limit. The partial file is removed when the
// limit is exceeded.
func (w *Workspace) SaveUpload(requestDir, slug string, r io.Reader) (string, error) {
	dest := filepath.Join(requestDir, slug)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, w.maxBytes+1))
	closeErr := f.Close()
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if closeErr != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing upload file: %w", closeErr)
	}
	if written > w.maxBytes {
		os.Remove(dest)
		return "", ErrTooLarge
	}
	return dest, nil
}

// OutputDir creates and returns the per-file artifact directory.
func (w *Workspace) OutputDir(requestDir, slug string) (string, error) {
	dir := filepath.Join(requestDir, slug+".out")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// RemoveRequestDir deletes a request's entire directory tree.
func (w *Workspace) RemoveRequestDir(requestDir string) error {
	if requestDir == "" || requestDir == string(filepath.Separator) {
		return fmt.Errorf("refusing to remove %q", requestDir)
	}
	return os.RemoveAll(requestDir)
}
