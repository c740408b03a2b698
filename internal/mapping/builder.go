// Package mapping converts between the column-to-field assignments a user
// edits in the mapping wizard and the field-to-column mapping that is saved.
package mapping

import (
	"sort"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"
)

// Assignments maps a zero-based column index to the field it feeds.
type Assignments map[int]models.FieldName

// Columns returns the assigned column indices in ascending order.
func (a Assignments) Columns() []int {
	cols := make([]int, 0, len(a))
	for col := range a {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	return cols
}

// ReviewResult is the wizard pre-fill derived from a saved schema.
type ReviewResult struct {
	Assignments Assignments
	// Corrupted is set when at least one saved reference could not be used.
	// Assignments is then empty: a corrupted schema is never partially applied.
	Corrupted bool
	// Legacy lists fields resolved through a header name rather than an index.
	Legacy []models.FieldName
	Report models.CorruptionReport
}

// Builder produces and reads back field mappings.
type Builder struct {
	policy columnref.Policy
	logger logging.Logger
}

// NewBuilder creates a Builder validating with policy.
func NewBuilder(policy columnref.Policy, logger logging.Logger) *Builder {
	return &Builder{
		policy: policy,
		logger: logger.WithField(logging.FieldComponent, "mapping"),
	}
}

// BuildFieldMapping turns column assignments into a field mapping. Columns are
// visited in ascending order, so description columns are always listed by
// index and the output does not depend on map iteration. do_not_use, unknown
// fields and negative indices are dropped. When two columns claim the same
// single-column field the lowest index wins.
//
// The result is validated before it is returned; a failure yields a
// *parsererror.MappingCorruptionError.
func (b *Builder) BuildFieldMapping(assignments Assignments) (models.FieldMapping, error) {
	var m models.FieldMapping

	for _, col := range assignments.Columns() {
		field := assignments[col]
		if col < 0 || !field.IsMappable() {
			continue
		}
		ref := models.ColumnRefFromIndex(col)

		if field.IsMultiColumn() {
			m.AppendDescription(ref)
			continue
		}
		if existing, ok := m.Single(field); ok {
			b.logger.Warn("Field assigned to several columns, keeping the first",
				logging.F(logging.FieldField, field),
				logging.F(logging.FieldColumn, existing),
				logging.F("ignored_column", col))
			continue
		}
		_ = m.Set(field, ref)
	}

	if report := b.policy.CollectInvalidMappings(m); !report.IsEmpty() {
		return models.FieldMapping{}, &parsererror.MappingCorruptionError{Report: report}
	}
	return m, nil
}

// LoadMappingForReview converts a saved schema back into assignments for the
// wizard. Index references are used directly; anything else is looked up as a
// legacy header name in detectedHeaders. If any reference resolves neither
// way, or two fields land on the same column, the whole result is marked
// corrupted and no assignment is returned.
func (b *Builder) LoadMappingForReview(schema models.ParsingSchema, detectedHeaders []string) ReviewResult {
	result := ReviewResult{Assignments: Assignments{}}
	logger := b.logger.WithFields(
		logging.F(logging.FieldBank, schema.Bank),
		logging.F(logging.FieldFormat, schema.Format))

	if schema.DecodeError != "" {
		result.Corrupted = true
		result.Report = b.policy.CollectSchemaIssues(schema)
		logger.Warn("Saved column mapping could not be decoded", logging.F(logging.FieldReason, schema.DecodeError))
		return result
	}

	assignments := Assignments{}
	for _, field := range schema.ColumnMappings.Fields() {
		refs := schema.ColumnMappings.Refs(field)
		if len(refs) == 0 {
			result.Report = append(result.Report, models.CorruptionIssue{Field: field, Reason: models.ReasonNotNumeric})
			continue
		}

		for _, ref := range refs {
			idx, legacy, issue := b.locate(field, ref, detectedHeaders)
			if issue != nil {
				result.Report = append(result.Report, *issue)
				continue
			}
			if legacy {
				result.Legacy = appendUnique(result.Legacy, field)
				logger.Warn("Saved mapping uses a header name instead of a column index",
					logging.F(logging.FieldField, field),
					logging.F(logging.FieldValue, string(ref)),
					logging.F(logging.FieldColumn, idx))
			}
			if owner, taken := assignments[idx]; taken && owner != field {
				logger.Warn("Column claimed by several fields",
					logging.F(logging.FieldColumn, idx),
					logging.F(logging.FieldField, owner),
					logging.F("conflicting_field", field))
				result.Report = append(result.Report, models.CorruptionIssue{
					Field:  field,
					Value:  string(ref),
					Reason: models.ReasonColumnConflict,
				})
				continue
			}
			assignments[idx] = field
		}
	}

	if !result.Report.IsEmpty() {
		result.Corrupted = true
		result.Legacy = nil
		logger.Warn("Saved column mapping is corrupted, discarding it",
			logging.F(logging.FieldCount, len(result.Report)),
			logging.F(logging.FieldReason, result.Report.String()))
		return result
	}

	result.Assignments = assignments
	return result
}

// locate finds the column of one saved reference, by index first and then by
// legacy header name.
func (b *Builder) locate(field models.FieldName, ref models.ColumnRef, headers []string) (idx int, legacy bool, issue *models.CorruptionIssue) {
	if idx, ok := b.policy.Index(ref); ok {
		return idx, false, nil
	}
	if idx, ok := LookupLegacyHeader(headers, string(ref)); ok {
		return idx, true, nil
	}
	return 0, false, &models.CorruptionIssue{
		Field:  field,
		Value:  string(ref),
		Reason: UnresolvedReason(b.policy, string(ref)),
	}
}

func appendUnique(fields []models.FieldName, f models.FieldName) []models.FieldName {
	for _, existing := range fields {
		if existing == f {
			return fields
		}
	}
	return append(fields, f)
}
