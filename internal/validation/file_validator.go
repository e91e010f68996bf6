// Package validation checks local workbook inputs and export destinations
// before the pipeline touches them.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Workbook extensions accepted by the file sources.
const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
)

// FileValidator validates workbook paths and output locations.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateFile checks that path exists, is a regular file and is readable.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path is a readable workbook with extension
// ext (ExtXLSX or ExtXLS). Office lock files ("~$name.xlsx") are rejected.
func (v *FileValidator) ValidateWorkbook(path, ext string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	got := strings.ToLower(filepath.Ext(path))
	if got != ext {
		v.logger.Error("Unexpected workbook extension",
			slog.String("file", path),
			slog.String("extension", got),
			slog.String("expected", ext))
		return fmt.Errorf("file %s is not a %s workbook (extension: %s)", path, ext, got)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Rejecting Office lock file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created, and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateExportPath checks that a CSV export can be written to path.
func (v *FileValidator) ValidateExportPath(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return fmt.Errorf("export file %s must have a .csv extension", path)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
