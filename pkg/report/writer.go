package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Output file names.
const (
	IndexFile = "report.json"
	JUnitFile = "junit.xml"
	HTMLFile  = "report.html"
)

// Write writes report.json, junit.xml and report.html into outputDir.
func Write(outputDir string, index *Index) error {
	if err := ensureDir(outputDir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := atomicWriteJSON(filepath.Join(outputDir, IndexFile), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := WriteJUnit(filepath.Join(outputDir, JUnitFile), index); err != nil {
		return fmt.Errorf("write junit: %w", err)
	}
	if err := GenerateHTML(outputDir, HTMLConfig{Title: "Tokodon UI acceptance"}); err != nil {
		return fmt.Errorf("generate html: %w", err)
	}
	return nil
}

// ReadIndex loads report.json from reportDir.
func ReadIndex(reportDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(reportDir, IndexFile))
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse %s: %w", IndexFile, err)
	}
	return &index, nil
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// atomicWrite writes data to a temp file in the same directory and renames
// it over path, so readers never see a partial file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
