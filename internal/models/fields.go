// Package models defines the column mapping data shared by the validator, the
// builder, the resolver and the stores.
package models

import (
	"strconv"
	"strings"
)

// FieldName identifies a semantic transaction field a statement column can feed.
type FieldName string

const (
	FieldDate        FieldName = "date"
	FieldAmount      FieldName = "amount"
	FieldBalance     FieldName = "balance"
	FieldVendorPayee FieldName = "vendor_payee"
	FieldCategory    FieldName = "category"
	FieldCurrency    FieldName = "currency"
	FieldInflow      FieldName = "inflow"
	FieldOutflow     FieldName = "outflow"
	FieldDescription FieldName = "description"

	// FieldDoNotUse marks a column as deliberately unmapped. It is accepted in
	// column assignments and never serialized.
	FieldDoNotUse FieldName = "do_not_use"

	// FieldColumnMappings is used in corruption reports when the stored mapping
	// as a whole could not be decoded.
	FieldColumnMappings FieldName = "column_mappings"
)

// MappableFields lists every field a FieldMapping can hold, in canonical order.
var MappableFields = []FieldName{
	FieldDate,
	FieldAmount,
	FieldBalance,
	FieldVendorPayee,
	FieldCategory,
	FieldCurrency,
	FieldInflow,
	FieldOutflow,
	FieldDescription,
}

// RequiredFields must resolve for a statement to be parsed.
var RequiredFields = []FieldName{FieldDate, FieldAmount, FieldDescription}

// ParseFieldName normalizes s and reports whether it names a mappable field or
// do_not_use.
func ParseFieldName(s string) (FieldName, bool) {
	f := FieldName(strings.ToLower(strings.TrimSpace(s)))
	if f == FieldDoNotUse || f.IsMappable() {
		return f, true
	}
	return "", false
}

// IsMappable reports whether f can appear as a key of a FieldMapping.
func (f FieldName) IsMappable() bool {
	for _, m := range MappableFields {
		if f == m {
			return true
		}
	}
	return false
}

// IsMultiColumn reports whether f aggregates several source columns.
func (f FieldName) IsMultiColumn() bool {
	return f == FieldDescription
}

// IsRequired reports whether f must resolve before rows can be parsed.
func (f FieldName) IsRequired() bool {
	for _, r := range RequiredFields {
		if f == r {
			return true
		}
	}
	return false
}

func (f FieldName) String() string { return string(f) }

// ColumnRef is the persisted form of a zero-based column index, e.g. "0", "12".
// Values read back from storage are not guaranteed to be canonical; run them
// through the columnref validator before use.
type ColumnRef string

// ColumnRefFromIndex returns the canonical reference for a column index.
func ColumnRefFromIndex(i int) ColumnRef {
	return ColumnRef(strconv.Itoa(i))
}

func (r ColumnRef) String() string { return string(r) }
