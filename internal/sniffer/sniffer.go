// Package sniffer suggests column assignments for a statement that has no
// saved mapping yet.
package sniffer

import (
	"strings"

	"fjacquet/colmap/internal/currencyutils"
	"fjacquet/colmap/internal/dateutils"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"
	"fjacquet/colmap/internal/models"
)

// headerKeywords maps header fragments (multi-language, lower case) to
// fields. Order matters: the first field whose fragment matches wins.
var headerKeywords = []struct {
	field    models.FieldName
	keywords []string
}{
	{models.FieldBalance, []string{"balance", "saldo", "solde", "kontostand"}},
	{models.FieldInflow, []string{"credit", "crédito", "credito", "abono", "wpływy", "haben", "inflow"}},
	{models.FieldOutflow, []string{"debit", "débito", "debito", "cargo", "wydatki", "soll", "outflow"}},
	{models.FieldDate, []string{"date", "data", "fecha", "datum"}},
	{models.FieldAmount, []string{"amount", "kwota", "importe", "montant", "betrag", "valor", "montante"}},
	{models.FieldCurrency, []string{"currency", "waluta", "devise", "währung", "moneda", "ccy"}},
	{models.FieldCategory, []string{"category", "kategoria", "categoria", "catégorie", "kategorie"}},
	{models.FieldVendorPayee, []string{"payee", "merchant", "nadawca", "odbiorca", "counterparty", "beneficiary", "empfänger"}},
	{models.FieldDescription, []string{"description", "descri", "opis", "tytuł", "libellé", "memo", "details", "verwendungszweck", "concepto"}},
}

// sampleSize bounds the data rows inspected per column.
const sampleSize = 20

// Suggestion is a proposed mapping with the reason behind each column.
type Suggestion struct {
	Assignments mapping.Assignments
	Reasons     map[int]string
	Mapping     models.FieldMapping
}

// Sniffer proposes assignments from headers and data shape.
type Sniffer struct {
	builder *mapping.Builder
	logger  logging.Logger
}

// New creates a Sniffer whose suggestions go through builder.
func New(builder *mapping.Builder, logger logging.Logger) *Sniffer {
	return &Sniffer{builder: builder, logger: logger.WithField(logging.FieldComponent, "sniffer")}
}

// Suggest proposes assignments for p, whose data starts at the 1-indexed
// firstTransactionRow. Header keywords are tried first, then the data shape of
// the remaining columns.
func (s *Sniffer) Suggest(p models.Preview, firstTransactionRow int) (Suggestion, error) {
	sug := Suggestion{Assignments: mapping.Assignments{}, Reasons: map[int]string{}}
	taken := map[models.FieldName]bool{}
	assign := func(col int, field models.FieldName, reason string) {
		sug.Assignments[col] = field
		sug.Reasons[col] = reason
		if !field.IsMultiColumn() {
			taken[field] = true
		}
	}

	for col, header := range p.DetectedHeaders {
		if field, kw, ok := matchHeader(header); ok && (field.IsMultiColumn() || !taken[field]) {
			assign(col, field, "header contains \""+kw+"\"")
		}
	}

	sample := p.Sample(firstTransactionRow, sampleSize)
	for col := 0; col < p.TotalColumns; col++ {
		if _, done := sug.Assignments[col]; done {
			continue
		}
		values := columnValues(sample, col)
		if len(values) == 0 {
			continue
		}
		switch {
		case !taken[models.FieldDate] && all(values, dateutils.LooksLikeDate):
			assign(col, models.FieldDate, "values look like dates")
		case !taken[models.FieldCurrency] && all(values, currencyutils.IsCurrencyCode):
			assign(col, models.FieldCurrency, "values look like currency codes")
		case all(values, looksLikeAmount):
			if !taken[models.FieldAmount] && !taken[models.FieldInflow] {
				assign(col, models.FieldAmount, "values look like amounts")
			} else if !taken[models.FieldBalance] {
				assign(col, models.FieldBalance, "values look like amounts")
			}
		}
	}

	if !hasField(sug.Assignments, models.FieldDescription) {
		if col, ok := longestTextColumn(sample, p.TotalColumns, sug.Assignments); ok {
			assign(col, models.FieldDescription, "longest text column")
		}
	}

	m, err := s.builder.BuildFieldMapping(sug.Assignments)
	if err != nil {
		return sug, err
	}
	sug.Mapping = m

	s.logger.Debug("Suggested column assignments", logging.F(logging.FieldCount, len(sug.Assignments)))
	return sug, nil
}

func matchHeader(header string) (models.FieldName, string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "", "", false
	}
	for _, entry := range headerKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(h, kw) {
				return entry.field, kw, true
			}
		}
	}
	return "", "", false
}

func looksLikeAmount(v string) bool {
	return !dateutils.LooksLikeDate(v) && currencyutils.LooksLikeAmount(v)
}

func columnValues(rows [][]string, col int) []string {
	var values []string
	for _, row := range rows {
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return len(values) > 0
}

func hasField(a mapping.Assignments, field models.FieldName) bool {
	for _, f := range a {
		if f == field {
			return true
		}
	}
	return false
}

func longestTextColumn(rows [][]string, total int, assigned mapping.Assignments) (int, bool) {
	best, bestLen := -1, 0
	for col := 0; col < total; col++ {
		if _, done := assigned[col]; done {
			continue
		}
		length := 0
		for _, v := range columnValues(rows, col) {
			if looksLikeAmount(v) || dateutils.LooksLikeDate(v) {
				length = 0
				break
			}
			length += len(v)
		}
		if length > bestLen {
			best, bestLen = col, length
		}
	}
	return best, best >= 0
}
