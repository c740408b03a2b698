package statement

import (
	"encoding/csv"
	"fmt"
	"io"

	"fjacquet/colmap/internal/currencyutils"
	"fjacquet/colmap/internal/dateutils"
	"fjacquet/colmap/internal/models"

	"github.com/gocarina/gocsv"
)

// csvRow is the exported transaction layout.
type csvRow struct {
	Row         int    `csv:"Row"`
	Date        string `csv:"Date"`
	Amount      string `csv:"Amount"`
	Currency    string `csv:"Currency"`
	Balance     string `csv:"Balance"`
	Description string `csv:"Description"`
	VendorPayee string `csv:"VendorPayee"`
	Category    string `csv:"Category"`
	CreditDebit string `csv:"CreditDebit"`
}

// WriteCSV writes transactions with the given delimiter; dates are ISO and
// amounts carry two decimals.
func WriteCSV(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	rows := make([]csvRow, len(transactions))
	for i, tx := range transactions {
		rows[i] = csvRow{
			Row:         tx.Row,
			Date:        dateutils.ToISODate(tx.Date),
			Amount:      currencyutils.FormatAmount(tx.Amount, ""),
			Currency:    tx.Currency,
			Description: tx.Description,
			VendorPayee: tx.VendorPayee,
			Category:    tx.Category,
			CreditDebit: "DBIT",
		}
		if tx.IsCredit() {
			rows[i].CreditDebit = "CRDT"
		}
		if tx.Balance.Valid {
			rows[i].Balance = currencyutils.FormatAmount(tx.Balance.Decimal, "")
		}
	}

	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}
