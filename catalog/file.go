package catalog

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName returns the catalog file name for a locale.
func FileName(locale string) string {
	return locale + ".json"
}

// ReadTree reads and parses a nested JSON catalog file.
func ReadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadFlat reads a nested JSON catalog file and flattens it.
func ReadFlat(path string) (*Flat, error) {
	t, err := ReadTree(path)
	if err != nil {
		return nil, err
	}
	return Flatten(t), nil
}

// WriteTree writes t to path, replacing any previous content.
func WriteTree(path string, t *Tree) error {
	data, err := t.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
