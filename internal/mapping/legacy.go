package mapping

import (
	"unicode"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/models"
)

// LookupLegacyHeader resolves a reference saved before mappings were stored
// by index: raw must equal a detected header exactly. The first matching
// column wins. This path is read-only; new mappings are always written with
// indices.
func LookupLegacyHeader(headers []string, raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	for i, h := range headers {
		if h == raw {
			return i, true
		}
	}
	return 0, false
}

// UnresolvedReason explains a reference that is neither an index nor a known
// header. Dates, amounts and numbers keep their data reason; text containing
// letters that matched no header is reported as an unresolvable header name.
func UnresolvedReason(policy columnref.Policy, raw string) models.ReasonCode {
	reason := policy.Classify(raw)
	if (reason == models.ReasonNotNumeric || reason == models.ReasonTooLong) && hasLetter(raw) {
		return models.ReasonHeaderNameUnresolvable
	}
	if reason == "" {
		return models.ReasonOutOfRange
	}
	return reason
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
