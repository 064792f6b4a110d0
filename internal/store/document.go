package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// LoadDocument reads a whole JSON document from path into dst.
// A missing or corrupt file is treated as an empty document: the error is
// logged and dst is left untouched, so callers continue with best-effort
// data instead of failing the message loop.
func LoadDocument(path string, dst any) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read document", "path", path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("corrupt document, starting empty", "path", path, "error", err)
	}
}

// SaveDocument writes v as a whole JSON document, atomically (temp file +
// rename). The parent directory is created if needed.
func SaveDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "doc-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
