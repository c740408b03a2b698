package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountSign(t *testing.T) {
	sign, err := ParseAmountSign("")
	require.NoError(t, err)
	assert.Equal(t, AmountPositiveIsCredit, sign)

	sign, err = ParseAmountSign(" DEBIT ")
	require.NoError(t, err)
	assert.Equal(t, AmountPositiveIsDebit, sign)

	_, err = ParseAmountSign("positive")
	assert.ErrorContains(t, err, "invalid amount_positive_is")
}

func TestParsingSchema_Identity(t *testing.T) {
	s := ParsingSchema{Bank: "mbank", Format: "csv", Enabled: true}
	assert.Equal(t, SchemaKey{Bank: "mbank", Format: "csv"}, s.Key())
	assert.Equal(t, "mbank/csv", s.Key().String())
	assert.Equal(t, "csv", s.Name())
	assert.Equal(t, StateActive, s.State())

	s.Format = ""
	s.Enabled = false
	assert.Equal(t, "mbank", s.Key().String())
	assert.Equal(t, "default", s.Name())
	assert.Equal(t, StateDisabled, s.State())
}

func TestPreview_Sample(t *testing.T) {
	p := Preview{Rows: [][]string{{"h"}, {"1"}, {"2"}, {"3"}}}

	assert.Equal(t, [][]string{{"1"}, {"2"}}, p.Sample(2, 2))
	assert.Equal(t, [][]string{{"1"}, {"2"}, {"3"}}, p.Sample(2, 0))
	assert.Equal(t, [][]string{{"h"}}, p.Sample(0, 1))
	assert.Nil(t, p.Sample(9, 1))
}
