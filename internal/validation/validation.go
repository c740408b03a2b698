// Package validation checks command-line input before it reaches the mapping core.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fjacquet/colmap/internal/fileutils"
	"fjacquet/colmap/internal/models"
)

// StatementExtensions lists the file types the preview loader can read.
var StatementExtensions = []string{".csv", ".txt", ".tsv", ".xlsx", ".xlsm"}

// OutputFormats lists the report formats of the scan command.
var OutputFormats = []string{"text", "json", "csv"}

// IsValidPath checks if a given path exists and is a regular file or directory.
func IsValidPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}

	return nil
}

// IsValidStatementFile checks that path is an existing file of a supported type.
func IsValidStatementFile(path string) error {
	if path == "" {
		return fmt.Errorf("a statement file is required")
	}
	if err := IsValidPath(path); err != nil {
		return err
	}
	if !fileutils.FileExists(path) {
		return fmt.Errorf("statement path %s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range StatementExtensions {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported statement file type %q. Supported types are %s",
		ext, strings.Join(StatementExtensions, ", "))
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	for _, f := range OutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s. Supported formats are 'text', 'json', 'csv'", format)
}

// ParseColumnAssignment parses an assignment of the form "3=description".
// The column must be a non-negative integer and the field a mappable field
// or do_not_use.
func ParseColumnAssignment(s string) (int, models.FieldName, error) {
	col, name, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", fmt.Errorf("invalid column assignment %q (expected COLUMN=FIELD, e.g. 0=date)", s)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil || idx < 0 {
		return 0, "", fmt.Errorf("invalid column %q in assignment %q (expected a column index such as 0, 1, 2)", col, s)
	}

	field, ok := models.ParseFieldName(name)
	if !ok {
		return 0, "", fmt.Errorf("unknown field %q in assignment %q", name, s)
	}
	return idx, field, nil
}
