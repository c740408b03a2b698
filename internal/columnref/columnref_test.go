package columnref

import (
	"strconv"
	"testing"

	"fjacquet/colmap/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsValidColumnReference_AllCanonicalIndices(t *testing.T) {
	for i := 0; i <= DefaultMaxColumnIndex; i++ {
		s := strconv.Itoa(i)
		assert.True(t, IsValidColumnReference(s), "expected %q to be valid", s)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected models.ReasonCode
	}{
		{name: "zero", value: "0", expected: ""},
		{name: "upper bound", value: "100", expected: ""},
		{name: "above upper bound", value: "101", expected: models.ReasonOutOfRange},
		{name: "negative", value: "-1", expected: models.ReasonOutOfRange},
		{name: "leading zero", value: "01", expected: models.ReasonNotNumeric},
		{name: "leading space", value: " 1", expected: models.ReasonNotNumeric},
		{name: "plus sign", value: "+1", expected: models.ReasonNotNumeric},
		{name: "empty", value: "", expected: models.ReasonNotNumeric},
		{name: "letters", value: "PLN", expected: models.ReasonNotNumeric},
		{name: "column letter", value: "B", expected: models.ReasonNotNumeric},
		{name: "decimal with dot", value: "1.0", expected: models.ReasonDecimalPattern},
		{name: "pi", value: "3.14", expected: models.ReasonDecimalPattern},
		{name: "locale decimal", value: "21483,27", expected: models.ReasonDecimalPattern},
		{name: "dashed date", value: "02-01-2025", expected: models.ReasonDatePattern},
		{name: "short slashed date", value: "1/1/25", expected: models.ReasonDatePattern},
		{name: "long header name", value: "Description", expected: models.ReasonTooLong},
		{name: "four digits", value: "1000", expected: models.ReasonTooLong},
	}

	policy := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Classify(tt.value))
			assert.Equal(t, tt.expected == "", policy.IsValid(tt.value))
		})
	}
}

func TestValidateColumnReference(t *testing.T) {
	assert.True(t, ValidateColumnReference("3"))
	assert.True(t, ValidateColumnReference(models.ColumnRef("3")))
	assert.True(t, ValidateColumnReference([]string{"2", "3", "4"}))
	assert.True(t, ValidateColumnReference([]interface{}{"2", "3"}))

	assert.False(t, ValidateColumnReference([]string{"2", "02-01-2025"}))
	assert.False(t, ValidateColumnReference([]string{}))
	assert.False(t, ValidateColumnReference([]interface{}{"2", 3}))
	assert.False(t, ValidateColumnReference(3))
	assert.False(t, ValidateColumnReference(nil))
	assert.False(t, ValidateColumnReference(map[string]string{"a": "1"}))
}

func TestPolicy_Overridable(t *testing.T) {
	wide := Policy{MaxColumnIndex: 500, MaxReferenceLength: 3}
	assert.True(t, wide.IsValid("250"))
	assert.False(t, DefaultPolicy().IsValid("250"))

	idx, ok := wide.Index("250")
	assert.True(t, ok)
	assert.Equal(t, 250, idx)

	_, ok = wide.Index("abc")
	assert.False(t, ok)
}

func productionCorruption() models.FieldMapping {
	var m models.FieldMapping
	_ = m.Set(models.FieldDate, "02-01-2025")
	_ = m.Set(models.FieldAmount, "21483,27")
	_ = m.Set(models.FieldBalance, "26480,21")
	m.SetDescription([]models.ColumnRef{"'66 1090 1883 0000 0001 3310 6183", "SUHEL E ABU SHOUK", "PLN"})
	return m
}

func TestCollectInvalidMappings_ProductionCase(t *testing.T) {
	report := CollectInvalidMappings(productionCorruption())

	assert.ElementsMatch(t,
		[]models.FieldName{models.FieldDate, models.FieldAmount, models.FieldBalance, models.FieldDescription},
		report.Fields())

	assert.Equal(t, models.ReasonDatePattern, report.ForField(models.FieldDate)[0].Reason)
	assert.Equal(t, models.ReasonDecimalPattern, report.ForField(models.FieldAmount)[0].Reason)
	assert.Equal(t, models.ReasonDecimalPattern, report.ForField(models.FieldBalance)[0].Reason)

	desc := report.ForField(models.FieldDescription)
	assert.Len(t, desc, 3)
	assert.Equal(t, models.ReasonTooLong, desc[0].Reason)
	assert.Equal(t, models.ReasonTooLong, desc[1].Reason)
	assert.Equal(t, models.ReasonNotNumeric, desc[2].Reason)
	assert.Equal(t, "PLN", desc[2].Value)
}

func TestCollectInvalidMappings_Clean(t *testing.T) {
	var m models.FieldMapping
	_ = m.Set(models.FieldDate, "1")
	_ = m.Set(models.FieldAmount, "5")
	_ = m.Set(models.FieldBalance, "6")
	m.SetDescription([]models.ColumnRef{"2", "3", "4"})

	assert.True(t, CollectInvalidMappings(m).IsEmpty())
}

func TestCollectInvalidMappings_EmptyValues(t *testing.T) {
	var m models.FieldMapping
	_ = m.Set(models.FieldDate, "")
	m.SetDescription(nil)

	report := CollectInvalidMappings(m)
	assert.Len(t, report, 2)
	for _, issue := range report {
		assert.Equal(t, models.ReasonNotNumeric, issue.Reason)
	}
}

func TestCollectSchemaIssues_DecodeError(t *testing.T) {
	schema := models.ParsingSchema{
		Bank:        "mbank",
		DecodeError: "unexpected end of JSON input",
		RawMappings: `{"date": "1"`,
	}

	report := DefaultPolicy().CollectSchemaIssues(schema)
	assert.Len(t, report, 1)
	assert.Equal(t, models.FieldColumnMappings, report[0].Field)
	assert.Equal(t, `{"date": "1"`, report[0].Value)
	assert.Equal(t, models.ReasonNotNumeric, report[0].Reason)
}
