// Package latticelog provides the ambient structured logger (spec §5,
// §6.2): JSON lines via log/slog, written to a rotating file that rolls
// over at 10 MiB. No third-party structured logger appears anywhere in the
// retrieved corpus, so this stays on the standard library's slog rather
// than introducing zap/zerolog/logrus with no grounding.
package latticelog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const maxLogSize = 10 * 1024 * 1024 // 10 MiB (spec §6.2)

// RotatingWriter is an io.Writer that rolls the underlying file over to a
// ".1" sibling once it exceeds maxLogSize, rather than truncating or
// appending without bound.
type RotatingWriter struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	written int64
}

// NewRotatingWriter opens (or creates) path for append and prepares rotation
// bookkeeping.
func NewRotatingWriter(path string) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	return &RotatingWriter{path: path, file: f, written: info.Size()}, nil
}

// Write implements io.Writer, rotating first if p would push the file past
// maxLogSize.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > maxLogSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// rotate renames the current file aside with a ".1" suffix (replacing any
// earlier rotated file) and opens a fresh one at the original path.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close log file before rotation: %w", err)
	}
	rotated := w.path + ".1"
	if err := os.Rename(w.path, rotated); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reopen log file after rotation: %w", err)
	}
	w.file = f
	w.written = 0
	return nil
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// New builds a JSON slog.Logger writing to path, rotating at 10 MiB.
// verbosity follows the CLI's -v/-vv convention: 0=warn, 1=info, 2=debug.
func New(path string, verbosity int) (*slog.Logger, *RotatingWriter, error) {
	w, err := NewRotatingWriter(path)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), w, nil
}
