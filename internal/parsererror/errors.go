// Package parsererror defines the typed errors raised while reading statements
// and their saved column mappings.
package parsererror

import (
	"fmt"
	"strconv"
	"strings"

	"fjacquet/colmap/internal/models"
)

// ParseError represents an error while reading a single statement value
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure of a schema attribute or input
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// InvalidFormatError represents an input file that cannot be read as a statement.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string // Optional: a snippet of the actual content for debugging
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// MappingCorruptionError is returned when a mapping about to be written holds
// references that fail validation. Built mappings come from known column
// indices, so outside the store write gate this indicates a defect.
type MappingCorruptionError struct {
	Bank   string
	Report models.CorruptionReport
}

func (e *MappingCorruptionError) Error() string {
	if e.Bank != "" {
		return fmt.Sprintf("refusing to save corrupted column mapping for bank %q: %s", e.Bank, e.Report)
	}
	return fmt.Sprintf("corrupted column mapping: %s", e.Report)
}

// FieldResolutionFailure records one field the resolver could not map to a column.
type FieldResolutionFailure struct {
	Field  models.FieldName
	Value  string
	Reason models.ReasonCode
}

// ColumnResolutionError is returned when a saved mapping cannot be resolved
// against a statement file. Its message is shown to users as is.
type ColumnResolutionError struct {
	Bank             string
	Format           string
	Failures         []FieldResolutionFailure
	MissingRequired  []models.FieldName
	AvailableColumns []int
}

// FailedFields returns the distinct fields that failed, in failure order.
func (e *ColumnResolutionError) FailedFields() []models.FieldName {
	seen := make(map[models.FieldName]bool)
	var fields []models.FieldName
	for _, f := range e.Failures {
		if !seen[f.Field] {
			seen[f.Field] = true
			fields = append(fields, f.Field)
		}
	}
	return fields
}

func (e *ColumnResolutionError) Error() string {
	var b strings.Builder

	bank := e.Bank
	if e.Format != "" {
		bank = fmt.Sprintf("%s (format %q)", e.Bank, e.Format)
	}
	fmt.Fprintf(&b, "Could not resolve the saved column mapping for bank %q", e.Bank)
	if e.Format != "" {
		fmt.Fprintf(&b, " (format %q)", e.Format)
	}
	b.WriteString(".\n")

	if len(e.Failures) > 0 {
		b.WriteString("Cause: saved mappings contain data values instead of column indices.\n")
		b.WriteString("Invalid fields:\n")
		for _, f := range e.Failures {
			fmt.Fprintf(&b, "  - %s: %q (%s)\n", f.Field, f.Value, f.Reason.Describe())
		}
	}
	if len(e.MissingRequired) > 0 {
		names := make([]string, len(e.MissingRequired))
		for i, f := range e.MissingRequired {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "Missing required fields: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("To fix this:\n")
	fmt.Fprintf(&b, "  1. Disable or clear the saved column mapping preference for bank %s.\n", bank)
	b.WriteString("  2. Re-upload the statement file.\n")
	b.WriteString("  3. Re-map each field using column indices such as \"0\", \"1\", \"2\" " +
		"(not header names, column letters or data values).\n")

	cols := make([]string, len(e.AvailableColumns))
	for i, c := range e.AvailableColumns {
		cols[i] = strconv.Itoa(c)
	}
	if len(cols) == 0 {
		b.WriteString("Available columns: none detected in this file")
	} else {
		fmt.Fprintf(&b, "Available columns: %s", strings.Join(cols, ", "))
	}
	return b.String()
}
