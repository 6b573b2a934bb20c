// Package reporting provides the built-in report renderer: snapshots are
// written as JSON artifacts to a local directory. PDF or HTML rendering
// can replace it behind the same interface.
package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/domain/report"
)

// FileRenderer implements report.Renderer by writing JSON files.
type FileRenderer struct {
	dir string
}

// Ensure compile-time interface compliance.
var _ report.Renderer = (*FileRenderer)(nil)

// NewFileRenderer creates a renderer writing into dir, creating it if needed.
func NewFileRenderer(dir string) (*FileRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileRenderer{dir: dir}, nil
}

// Render writes the snapshot and returns the artifact file name as ref.
func (r *FileRenderer) Render(ctx context.Context, snapshot *report.Snapshot) (string, error) {
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	ref := fmt.Sprintf("session-%s-%d.json",
		snapshot.Session.ID, time.Now().UTC().UnixMilli())

	if err := os.WriteFile(filepath.Join(r.dir, ref), payload, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return ref, nil
}

// Open resolves a stored artifact by its ref for serving.
func (r *FileRenderer) Open(ref string) (io.ReadCloser, error) {
	// Refs are plain file names; anything else is a client mistake.
	if ref == "" || strings.ContainsAny(ref, "/\\") || strings.Contains(ref, "..") {
		return nil, apperror.NewValidation("invalid artifact ref")
	}

	f, err := os.Open(filepath.Join(r.dir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NewNotFound("report artifact", ref)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}
