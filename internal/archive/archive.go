package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveExport moves an existing export file into the archive directory
// next to it, stamped with the current time. It returns the archive path,
// or "" when there was nothing to archive.
func ArchiveExport(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat export file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("export path is a directory: %s", path)
	}

	archiveDir := filepath.Join(filepath.Dir(path), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405"), ext))

	// Two exports within the same second
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405.000000"), ext))
	}

	if err := os.Rename(path, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive export: %w", err)
	}

	slog.Default().Info("previous export archived", slog.String("from", path), slog.String("to", archivePath))
	return archivePath, nil
}
