package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteHTMLFile renders data into path, creating parent directories.
func WriteHTMLFile(path string, data PageData) error {
	return writeFile(path, func(f *os.File) error { return RenderHTML(f, data) })
}

// WriteJSONLFile writes records into path, creating parent directories.
func WriteJSONLFile(path string, records []Record) error {
	return writeFile(path, func(f *os.File) error { return WriteJSONL(f, records) })
}

func writeFile(path string, render func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
