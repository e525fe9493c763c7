package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// ArchiveLimits bounds what ExpandWorkbooks extracts from a zip archive.
type ArchiveLimits struct {
	MaxFileSize  int64 // per entry, 0 = unlimited
	MaxTotalSize int64 // all entries, 0 = unlimited
	MaxFiles     int   // 0 = unlimited
}

// DefaultArchiveLimits returns limits suitable for store price-list bundles.
func DefaultArchiveLimits() ArchiveLimits {
	return ArchiveLimits{
		MaxFileSize:  50 * 1024 * 1024,
		MaxTotalSize: 200 * 1024 * 1024,
		MaxFiles:     500,
	}
}

// Workbook is a named XLSX document.
type Workbook struct {
	Name    string
	Content []byte
}

var skipEntries = []string{"__MACOSX", ".DS_Store", "Thumbs.db", "~$"}

// ExpandWorkbooks extracts the .xlsx entries of a zip archive, in archive order.
// Entries with unsafe paths are skipped; names are flattened to their base name.
func ExpandWorkbooks(ctx context.Context, content []byte, limits ArchiveLimits) ([]Workbook, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	var (
		workbooks []Workbook
		total     int64
	)
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() {
			continue
		}

		name, err := safeEntryName(file.Name)
		if err != nil || skipEntry(file.Name) {
			continue
		}
		if !strings.EqualFold(path.Ext(name), ".xlsx") {
			continue
		}

		if limits.MaxFiles > 0 && len(workbooks) >= limits.MaxFiles {
			return nil, fmt.Errorf("too many workbooks in archive (limit: %d)", limits.MaxFiles)
		}
		if limits.MaxFileSize > 0 && int64(file.UncompressedSize64) > limits.MaxFileSize {
			return nil, fmt.Errorf("entry %s exceeds maximum size (%d > %d)", name, file.UncompressedSize64, limits.MaxFileSize)
		}

		data, err := readEntry(file, limits.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", name, err)
		}

		total += int64(len(data))
		if limits.MaxTotalSize > 0 && total > limits.MaxTotalSize {
			return nil, fmt.Errorf("archive exceeds maximum extracted size (%d bytes)", limits.MaxTotalSize)
		}

		workbooks = append(workbooks, Workbook{Name: name, Content: data})
	}

	return workbooks, nil
}

// readEntry reads a zip entry, enforcing the real size rather than the declared one.
func readEntry(file *zip.File, maxSize int64) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("exceeds maximum size (%d bytes)", maxSize)
	}
	return data, nil
}

// safeEntryName rejects absolute and escaping paths and returns the base name.
func safeEntryName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(name) || (len(name) >= 2 && name[1] == ':') {
		return "", fmt.Errorf("absolute path not allowed: %s", name)
	}
	cleaned := path.Clean(name)
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", name)
		}
	}
	base := path.Base(cleaned)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("invalid entry name: %s", name)
	}
	return base, nil
}

func skipEntry(name string) bool {
	for _, pattern := range skipEntries {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}
