package models

import (
	"fmt"
	"strings"
	"time"
)

// AmountSign tells which direction a positive amount in the statement means.
type AmountSign string

const (
	AmountPositiveIsDebit  AmountSign = "debit"
	AmountPositiveIsCredit AmountSign = "credit"
)

// ParseAmountSign accepts "debit" or "credit" in any case. An empty string
// yields the credit convention.
func ParseAmountSign(s string) (AmountSign, error) {
	switch AmountSign(strings.ToLower(strings.TrimSpace(s))) {
	case "", AmountPositiveIsCredit:
		return AmountPositiveIsCredit, nil
	case AmountPositiveIsDebit:
		return AmountPositiveIsDebit, nil
	default:
		return "", fmt.Errorf("invalid amount_positive_is %q (must be 'debit' or 'credit')", s)
	}
}

// SchemaState is the remediation state of a stored schema.
type SchemaState string

const (
	StateActive   SchemaState = "active"
	StateDisabled SchemaState = "disabled"
	// StateRemoved is only reported for schemas deleted by remediation.
	StateRemoved SchemaState = "removed"
)

// SchemaKey identifies the schema of one bank statement format.
type SchemaKey struct {
	Bank   string
	Format string
}

func (k SchemaKey) String() string {
	if k.Format == "" {
		return k.Bank
	}
	return k.Bank + "/" + k.Format
}

// ParsingSchema is the persisted configuration for reading one bank's
// statement format.
type ParsingSchema struct {
	ID                  string       `json:"id" yaml:"id"`
	Bank                string       `json:"bank_name" yaml:"bank_name"`
	Format              string       `json:"format_name" yaml:"format_name"`
	ColumnMappings      FieldMapping `json:"column_mappings" yaml:"column_mappings"`
	FirstTransactionRow int          `json:"first_transaction_row" yaml:"first_transaction_row"`
	DateFormat          string       `json:"date_format" yaml:"date_format"`
	Currency            string       `json:"currency" yaml:"currency"`
	AmountPositiveIs    AmountSign   `json:"amount_positive_is" yaml:"amount_positive_is"`
	Enabled             bool         `json:"enabled" yaml:"enabled"`
	UpdatedAt           time.Time    `json:"updated_at" yaml:"updated_at"`

	// DecodeError is set by stores when the stored column mappings could not
	// be decoded; RawMappings then holds the stored text.
	DecodeError string `json:"-" yaml:"-"`
	RawMappings string `json:"-" yaml:"-"`
}

// Key returns the (bank, format) identity of the schema.
func (s ParsingSchema) Key() SchemaKey {
	return SchemaKey{Bank: s.Bank, Format: s.Format}
}

// State reports whether the schema is active or disabled.
func (s ParsingSchema) State() SchemaState {
	if s.Enabled {
		return StateActive
	}
	return StateDisabled
}

// Name is the human-readable schema name used in reports.
func (s ParsingSchema) Name() string {
	if s.Format == "" {
		return "default"
	}
	return s.Format
}
