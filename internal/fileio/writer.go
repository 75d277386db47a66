package fileio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"desshell/internal/domain"
)

// RotatingWriter splits query exports across multiple files once the
// current one grows past a size cap. The first file keeps the plain
// name until it rolls over, at which point it is renamed with the
// 1-indexed suffix and writing continues in base_000002.ext.
type RotatingWriter struct {
	base     string
	ext      string
	schema   domain.Schema
	maxBytes int64

	index   int
	cur     Writer
	curPath string
	written int64
}

// NewRotatingWriter creates a writer for path rotating at maxMB
// megabytes. maxMB <= 0 disables rotation.
func NewRotatingWriter(path string, schema domain.Schema, maxMB int) (*RotatingWriter, error) {
	if err := CheckFiletype(path); err != nil {
		return nil, err
	}
	e := filepath.Ext(path)
	return &RotatingWriter{
		base:     strings.TrimSuffix(path, e),
		ext:      e,
		schema:   schema,
		maxBytes: int64(maxMB) << 20,
		index:    1,
	}, nil
}

func (w *RotatingWriter) indexedPath(index int) string {
	return fmt.Sprintf("%s_%06d%s", w.base, index, w.ext)
}

func (w *RotatingWriter) currentPath() string {
	if w.index == 1 {
		return w.base + w.ext
	}
	return w.indexedPath(w.index)
}

// WriteChunk writes rows to the current file, rotating first when the
// running size estimate has passed the cap
func (w *RotatingWriter) WriteChunk(rows []domain.Row) error {
	if w.cur != nil && w.maxBytes > 0 && w.written > w.maxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	if w.cur == nil {
		w.curPath = w.currentPath()
		cur, err := Create(w.curPath, w.schema)
		if err != nil {
			return err
		}
		w.cur = cur
		w.written = 0
	}

	if err := w.cur.WriteChunk(rows); err != nil {
		return err
	}
	for _, row := range rows {
		w.written += rowBytes(row)
	}
	return nil
}

func (w *RotatingWriter) rotate() error {
	if err := w.cur.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.curPath, err)
	}
	w.cur = nil

	// The very first file was written without a suffix; give it one
	// so the series is uniformly numbered
	if w.index == 1 {
		if err := os.Rename(w.base+w.ext, w.indexedPath(1)); err != nil {
			return fmt.Errorf("rename first output file: %w", err)
		}
	}
	w.index++
	return nil
}

// FileCount reports how many files the writer has produced so far
func (w *RotatingWriter) FileCount() int {
	if w.cur == nil && w.written == 0 && w.index == 1 {
		return 0
	}
	return w.index
}

// Close closes the current file
func (w *RotatingWriter) Close() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.Close()
	w.cur = nil
	return err
}
