package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldName(t *testing.T) {
	tests := []struct {
		input string
		want  FieldName
		ok    bool
	}{
		{" Date ", FieldDate, true},
		{"VENDOR_PAYEE", FieldVendorPayee, true},
		{"do_not_use", FieldDoNotUse, true},
		{"iban", "", false},
		{"column_mappings", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFieldName(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldName_Kinds(t *testing.T) {
	assert.True(t, FieldDescription.IsMultiColumn())
	assert.False(t, FieldAmount.IsMultiColumn())

	for _, f := range []FieldName{FieldDate, FieldAmount, FieldDescription} {
		assert.True(t, f.IsRequired(), f)
	}
	assert.False(t, FieldBalance.IsRequired())

	assert.False(t, FieldDoNotUse.IsMappable())
	assert.Len(t, MappableFields, 9)
}

func TestColumnRefFromIndex(t *testing.T) {
	assert.Equal(t, ColumnRef("0"), ColumnRefFromIndex(0))
	assert.Equal(t, ColumnRef("42"), ColumnRefFromIndex(42))
	assert.Equal(t, "7", ColumnRefFromIndex(7).String())
}
