// Package columnref decides whether a stored column reference is a genuine
// column index or a data value that leaked into a saved mapping.
//
// It is the single rule set shared by the mapping builder, the resolver, the
// store write gate and the remediation scanner. Nothing here logs or returns
// errors: callers decide whether an invalid reference is fatal.
package columnref

import (
	"regexp"
	"strconv"

	"fjacquet/colmap/internal/models"
)

const (
	// DefaultMaxColumnIndex is the largest column index accepted as a reference.
	DefaultMaxColumnIndex = 100
	// DefaultMaxReferenceLength is the longest string accepted as a reference.
	DefaultMaxReferenceLength = 3
)

var (
	datePattern    = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)
	decimalPattern = regexp.MustCompile(`\d+[.,]\d+`)
)

// Policy holds the thresholds a column reference must respect.
type Policy struct {
	MaxColumnIndex     int
	MaxReferenceLength int
}

// DefaultPolicy returns the thresholds used unless configuration overrides them.
func DefaultPolicy() Policy {
	return Policy{
		MaxColumnIndex:     DefaultMaxColumnIndex,
		MaxReferenceLength: DefaultMaxReferenceLength,
	}
}

// Classify returns the reason value is not a valid column reference, or ""
// when it is one. Every check is applied; the first failing one in the order
// date, decimal, length, integer form, range names the reason.
func (p Policy) Classify(value string) models.ReasonCode {
	switch {
	case datePattern.MatchString(value):
		return models.ReasonDatePattern
	case decimalPattern.MatchString(value):
		return models.ReasonDecimalPattern
	case len(value) > p.MaxReferenceLength:
		return models.ReasonTooLong
	}

	n, err := strconv.Atoi(value)
	if err != nil || strconv.Itoa(n) != value {
		// Rejects "", " 1", "01", "+1" and anything non-integer.
		if err == nil && n < 0 {
			return models.ReasonOutOfRange
		}
		return models.ReasonNotNumeric
	}
	if n < 0 || n > p.MaxColumnIndex {
		return models.ReasonOutOfRange
	}
	return ""
}

// IsValid reports whether value is a canonical column index within bounds.
func (p Policy) IsValid(value string) bool {
	return p.Classify(value) == ""
}

// Index parses a valid reference. ok is false when the reference is invalid.
func (p Policy) Index(ref models.ColumnRef) (idx int, ok bool) {
	if !p.IsValid(string(ref)) {
		return 0, false
	}
	idx, _ = strconv.Atoi(string(ref))
	return idx, true
}

// ValidateAll reports whether every reference is valid. An empty list is not.
func (p Policy) ValidateAll(refs []models.ColumnRef) bool {
	if len(refs) == 0 {
		return false
	}
	for _, ref := range refs {
		if !p.IsValid(string(ref)) {
			return false
		}
	}
	return true
}

// Validate accepts loosely typed input, as decoded from JSON: a string, a
// ColumnRef, or a list of either for multi-column fields. Any other type is
// invalid.
func (p Policy) Validate(value interface{}) bool {
	switch v := value.(type) {
	case string:
		return p.IsValid(v)
	case models.ColumnRef:
		return p.IsValid(string(v))
	case []models.ColumnRef:
		return p.ValidateAll(v)
	case []string:
		refs := make([]models.ColumnRef, len(v))
		for i, s := range v {
			refs[i] = models.ColumnRef(s)
		}
		return p.ValidateAll(refs)
	case []interface{}:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			s, isString := item.(string)
			if !isString || !p.IsValid(s) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CollectInvalidMappings returns one issue per offending reference, in
// canonical field order. A field that is present with no value is reported as
// not_numeric.
func (p Policy) CollectInvalidMappings(m models.FieldMapping) models.CorruptionReport {
	var report models.CorruptionReport
	for _, field := range m.Fields() {
		refs := m.Refs(field)
		if len(refs) == 0 {
			report = append(report, models.CorruptionIssue{
				Field:  field,
				Reason: models.ReasonNotNumeric,
			})
			continue
		}
		for _, ref := range refs {
			if reason := p.Classify(string(ref)); reason != "" {
				report = append(report, models.CorruptionIssue{
					Field:  field,
					Value:  string(ref),
					Reason: reason,
				})
			}
		}
	}
	return report
}

// CollectSchemaIssues extends CollectInvalidMappings with the decode failure a
// store may have recorded for the schema.
func (p Policy) CollectSchemaIssues(s models.ParsingSchema) models.CorruptionReport {
	if s.DecodeError != "" {
		return models.CorruptionReport{{
			Field:  models.FieldColumnMappings,
			Value:  s.RawMappings,
			Reason: models.ReasonNotNumeric,
		}}
	}
	return p.CollectInvalidMappings(s.ColumnMappings)
}

var defaultPolicy = DefaultPolicy()

// IsValidColumnReference applies the default policy to a single value.
func IsValidColumnReference(value string) bool {
	return defaultPolicy.IsValid(value)
}

// ValidateColumnReference applies the default policy to a value or a list.
func ValidateColumnReference(value interface{}) bool {
	return defaultPolicy.Validate(value)
}

// CollectInvalidMappings applies the default policy to a whole mapping.
func CollectInvalidMappings(m models.FieldMapping) models.CorruptionReport {
	return defaultPolicy.CollectInvalidMappings(m)
}
