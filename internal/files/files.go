// Package files reads and writes the local copy of a shared document.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotRegular = errors.New("not a regular file")

// Document is the local copy of a shared document.
type Document struct {
	// Path is absolute.
	Path   string
	Name   string
	Data   []byte
	Exists bool
}

// ReadDocument loads path. A missing file is not an error: the document
// simply starts empty. Directories and unreadable files are.
func ReadDocument(path string) (Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("invalid path %s: %w", path, err)
	}
	doc := Document{Path: abs, Name: filepath.Base(abs)}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	doc.Data, err = os.ReadFile(abs)
	if err != nil {
		return Document{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	doc.Exists = true
	return doc, nil
}

// UniquePath returns name, or name with " (1)", " (2)", ... inserted before
// the extension if something already exists there.
func UniquePath(name string) string {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return name
	}

	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// FormatSize formats bytes to human readable string
func FormatSize(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
