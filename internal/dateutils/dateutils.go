// Package dateutils parses the date cells found in bank statements.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutEuropean  = "02.01.2006"
	DateLayoutUS        = "01/02/2006"
	DateLayoutFull      = "2006-01-02 15:04:05"
	DateLayoutWithMonth = "2-Jan-2006"
)

// CommonFormats is a list of standard formats to try when parsing dates
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutEuropean,
	DateLayoutUS,
	DateLayoutFull,
	DateLayoutWithMonth,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2.1.2006",
	"02.01.06",
	"2006-01-02T15:04:05Z07:00",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

var spaces = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using multiple common formats
// Returns the parsed time and the detected format
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseWithFormat parses dateStr with a statement date_format. An empty format
// falls back to ParseDate.
func ParseWithFormat(dateStr, format string) (time.Time, error) {
	if strings.TrimSpace(format) == "" {
		t, _, err := ParseDate(dateStr)
		return t, err
	}
	layout := LayoutFromPattern(format)
	t, err := time.Parse(layout, CleanDateString(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q does not match format %q: %w", dateStr, format, err)
	}
	return t, nil
}

// LooksLikeDate reports whether s parses with one of CommonFormats.
func LooksLikeDate(s string) bool {
	_, _, err := ParseDate(s)
	return err == nil
}

// LayoutFromPattern turns a date_format into a Go layout. It accepts strftime
// patterns ("%d.%m.%Y"), token patterns ("DD.MM.YYYY", "yyyy-mm-dd") and Go
// layouts, which are returned unchanged.
func LayoutFromPattern(pattern string) string {
	switch {
	case strings.Contains(pattern, "%"):
		return strftimeReplacer.Replace(pattern)
	case strings.IndexFunc(pattern, unicode.IsDigit) >= 0:
		return pattern
	default:
		return tokensToLayout(pattern)
	}
}

var strftimeReplacer = strings.NewReplacer(
	"%d", "02", "%e", "2", "%m", "01", "%Y", "2006", "%y", "06",
	"%b", "Jan", "%B", "January", "%H", "15", "%M", "04", "%S", "05",
)

func tokensToLayout(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := unicode.ToUpper(runes[i])
		n := 1
		for i+n < len(runes) && unicode.ToUpper(runes[i+n]) == r {
			n++
		}
		switch r {
		case 'Y':
			if n >= 4 {
				b.WriteString("2006")
			} else {
				b.WriteString("06")
			}
		case 'M':
			b.WriteString([]string{"1", "01", "Jan", "January"}[min(n, 4)-1])
		case 'D':
			if n >= 2 {
				b.WriteString("02")
			} else {
				b.WriteString("2")
			}
		default:
			b.WriteString(string(runes[i : i+n]))
		}
		i += n
	}
	return b.String()
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
