package models

import (
	"fmt"
	"strings"
)

// ReasonCode classifies why a column reference was rejected.
type ReasonCode string

const (
	ReasonNotNumeric             ReasonCode = "not_numeric"
	ReasonOutOfRange             ReasonCode = "out_of_range"
	ReasonDatePattern            ReasonCode = "date_pattern"
	ReasonDecimalPattern         ReasonCode = "decimal_pattern"
	ReasonTooLong                ReasonCode = "too_long"
	ReasonHeaderNameUnresolvable ReasonCode = "header_name_unresolvable"
	// ReasonColumnConflict marks a reference whose column is already claimed
	// by another field of the same mapping.
	ReasonColumnConflict ReasonCode = "column_conflict"
)

// Describe returns a short human explanation of the reason.
func (r ReasonCode) Describe() string {
	switch r {
	case ReasonNotNumeric:
		return "not a column index"
	case ReasonOutOfRange:
		return "column index out of range"
	case ReasonDatePattern:
		return "looks like a date"
	case ReasonDecimalPattern:
		return "looks like an amount"
	case ReasonTooLong:
		return "too long to be a column index"
	case ReasonHeaderNameUnresolvable:
		return "no header with this name in the file"
	case ReasonColumnConflict:
		return "column already used by another field"
	default:
		return string(r)
	}
}

// CorruptionIssue is one offending value in a field mapping.
type CorruptionIssue struct {
	Field  FieldName  `json:"field"`
	Value  string     `json:"value"`
	Reason ReasonCode `json:"reason"`
}

func (i CorruptionIssue) String() string {
	return fmt.Sprintf("%s=%q (%s)", i.Field, i.Value, i.Reason)
}

// CorruptionReport lists every offending value found in a mapping.
type CorruptionReport []CorruptionIssue

// IsEmpty reports whether no issue was found.
func (r CorruptionReport) IsEmpty() bool { return len(r) == 0 }

// Fields returns the distinct fields with issues, in report order.
func (r CorruptionReport) Fields() []FieldName {
	seen := make(map[FieldName]bool, len(r))
	var fields []FieldName
	for _, issue := range r {
		if !seen[issue.Field] {
			seen[issue.Field] = true
			fields = append(fields, issue.Field)
		}
	}
	return fields
}

// ForField returns the issues recorded against field.
func (r CorruptionReport) ForField(field FieldName) CorruptionReport {
	var out CorruptionReport
	for _, issue := range r {
		if issue.Field == field {
			out = append(out, issue)
		}
	}
	return out
}

func (r CorruptionReport) String() string {
	parts := make([]string, len(r))
	for i, issue := range r {
		parts[i] = issue.String()
	}
	return strings.Join(parts, ", ")
}
