// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/preview"
	"fjacquet/colmap/internal/store"
	"fjacquet/colmap/internal/validation"
)

// SchemaFlags identifies the saved schema a command works on.
type SchemaFlags struct {
	Bank   string
	Format string
	File   string
}

// Key returns the store key named by the flags.
func (f SchemaFlags) Key() models.SchemaKey {
	return models.SchemaKey{Bank: strings.TrimSpace(f.Bank), Format: strings.TrimSpace(f.Format)}
}

// Validate checks that a bank is named and, when requireFile is set, that the
// statement file can be read.
func (f SchemaFlags) Validate(requireFile bool) error {
	if strings.TrimSpace(f.Bank) == "" {
		return fmt.Errorf("--bank is required")
	}
	if requireFile || f.File != "" {
		return validation.IsValidStatementFile(f.File)
	}
	return nil
}

// LoadSchema fetches the saved schema for key. A missing schema yields an
// error telling the user how to create one.
func LoadSchema(ctx context.Context, st store.PreferenceStore, key models.SchemaKey) (models.ParsingSchema, error) {
	schema, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return schema, fmt.Errorf("no saved column mapping for bank %s; create one with 'colmap suggest' and 'colmap map': %w", key, err)
	}
	if err != nil {
		return schema, fmt.Errorf("failed to load column mapping for bank %s: %w", key, err)
	}
	return schema, nil
}

// LoadStatement reads the statement file for a schema whose data starts at
// firstTransactionRow.
func LoadStatement(loader *preview.Loader, path string, firstTransactionRow int, log logging.Logger) (models.Preview, error) {
	p, err := loader.LoadFile(path, firstTransactionRow)
	if err != nil {
		return p, fmt.Errorf("failed to read statement: %w", err)
	}
	log.Debug("Statement loaded",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldColumn, p.TotalColumns),
		logging.F(logging.FieldRow, p.TotalRows))
	return p, nil
}

// HeaderLabel returns the header text of column col, or "" when there is none.
func HeaderLabel(headers []string, col int) string {
	if col < 0 || col >= len(headers) {
		return ""
	}
	return strings.TrimSpace(headers[col])
}

// WriteAssignments prints one line per column of the file, with the field it
// is assigned to and its header text.
func WriteAssignments(w io.Writer, assignments mapping.Assignments, headers []string, totalColumns int) error {
	if totalColumns < len(headers) {
		totalColumns = len(headers)
	}
	for _, col := range assignments.Columns() {
		if col >= totalColumns {
			totalColumns = col + 1
		}
	}

	var b strings.Builder
	for col := 0; col < totalColumns; col++ {
		field, ok := assignments[col]
		name := "-"
		if ok {
			name = string(field)
		}
		fmt.Fprintf(&b, "  %3d  %-14s %s\n", col, name, HeaderLabel(headers, col))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// MapCommand renders the map invocation that saves assignments for key.
func MapCommand(key models.SchemaKey, assignments mapping.Assignments, firstTransactionRow int) string {
	parts := []string{"colmap map --bank " + quote(key.Bank)}
	if key.Format != "" {
		parts = append(parts, "--format "+quote(key.Format))
	}
	for _, col := range assignments.Columns() {
		field := assignments[col]
		if field == models.FieldDoNotUse {
			continue
		}
		parts = append(parts, fmt.Sprintf("--column %d=%s", col, field))
	}
	parts = append(parts, fmt.Sprintf("--first-row %d", firstTransactionRow))
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t'\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
