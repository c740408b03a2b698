// Package currencyutils parses the amount and currency cells found in bank
// statements.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	symbolPattern       = regexp.MustCompile(`[€$£¥₣₤₧₹₺₽₩฿₫₲₴₸₼₪]|\b[A-Z]{3}\b`)
	groupingReplacer    = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "", "'", "", "\u2019", "")
	currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ParseAmount parses a string representation of an amount into a decimal value
// It handles various formats like "1,234.56", "1.234,56", "1234.56", "1234,56",
// "(12.50)" and "12.50-". An empty string is zero.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)
	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount converts various currency string formats to a standard format that can be parsed by decimal.NewFromString
// Handles patterns like "CHF 1'234.56", "€1.234,56", "$1,234.56", "1 234,56", etc.
func StandardizeAmount(amountStr string) string {
	s := strings.TrimSpace(amountStr)
	s = symbolPattern.ReplaceAllString(s, "")
	s = groupingReplacer.Replace(s)

	negative := false
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		negative, s = true, s[1:len(s)-1]
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "\u2212"):
		negative, s = true, strings.TrimLeft(s, "-\u2212")
	case strings.HasSuffix(s, "-"):
		negative, s = true, strings.TrimSuffix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if dot < comma {
			// European format (1.234,56)
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// Comma used as decimal separator (1234,56)
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// Comma used as thousand separator (1,234)
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		parts := strings.Split(s, ".")
		if len(parts[len(parts)-1]) == 3 {
			// Dots used as thousand separators (1.234.567)
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if negative {
		s = "-" + s
	}
	return s
}

// LooksLikeAmount reports whether s is a non-empty cell that parses as an amount.
func LooksLikeAmount(s string) bool {
	if !strings.ContainsAny(s, "0123456789") {
		return false
	}
	_, err := ParseAmount(s)
	return err == nil
}

// IsCurrencyCode reports whether s is a three-letter ISO 4217 style code.
func IsCurrencyCode(s string) bool {
	return currencyCodePattern.MatchString(strings.TrimSpace(s))
}

// FormatAmount formats a decimal amount to a consistent display format with the specified currency.
// The amount is formatted with two decimal places without inserting thousands separators.
// Returns strings like "CHF 1234.56" or "€1234.56"
func FormatAmount(amount decimal.Decimal, currency string) string {
	formattedAmount := amount.StringFixed(2)

	if currency != "" {
		switch strings.ToUpper(currency) {
		case "EUR":
			return "€" + formattedAmount
		case "USD":
			return "$" + formattedAmount
		case "GBP":
			return "£" + formattedAmount
		case "JPY":
			return "¥" + formattedAmount
		default:
			return strings.ToUpper(currency) + " " + formattedAmount
		}
	}

	return formattedAmount
}
