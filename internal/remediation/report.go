package remediation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// ScanReport is the outcome of a scan, in a form meant for both operators and
// tooling.
type ScanReport struct {
	Mode      Mode      `json:"mode"`
	ScannedAt time.Time `json:"scanned_at"`
	Scanned   int       `json:"scanned"`
	Clean     []Entry   `json:"clean"`
	Corrupted []Entry   `json:"corrupted"`
}

// Count returns how many corrupted entries ended with action.
func (r *ScanReport) Count(action Action) int {
	n := 0
	for _, e := range r.Corrupted {
		if e.Action == action {
			n++
		}
	}
	return n
}

// HasCorruption reports whether any corrupted schema was found.
func (r *ScanReport) HasCorruption() bool {
	return len(r.Corrupted) > 0
}

// WriteText prints a human-readable summary.
func (r *ScanReport) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %d parsing schemas (mode: %s)\n", r.Scanned, r.Mode)
	fmt.Fprintf(&b, "Clean: %d\n", len(r.Clean))
	fmt.Fprintf(&b, "Corrupted: %d\n", len(r.Corrupted))

	for _, e := range r.Corrupted {
		fmt.Fprintf(&b, "\n%s / %s [%s] -> %s\n", e.Bank, e.Name, e.State, e.Action)
		for _, issue := range e.Issues {
			fmt.Fprintf(&b, "  - %s: %q (%s: %s)\n", issue.Field, issue.Value, issue.Reason, issue.Reason.Describe())
		}
		if e.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", e.Error)
		}
	}

	switch {
	case !r.HasCorruption():
	case r.Mode == ModeDryRun:
		b.WriteString("\nDry run: no changes were made. Re-run with --no-dry-run to disable the corrupted schemas, " +
			"or --no-dry-run --delete to remove them.\n")
	default:
		fmt.Fprintf(&b, "\nDisabled: %d, deleted: %d, already disabled: %d, skipped: %d, failed: %d\n",
			r.Count(ActionDisabled), r.Count(ActionDeleted), r.Count(ActionAlreadyDisabled),
			r.Count(ActionSkipped), r.Count(ActionFailed))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *ScanReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// issueRow is one CSV line: a single offending value of a corrupted schema.
type issueRow struct {
	Bank     string `csv:"bank_name"`
	Format   string `csv:"format_name"`
	SchemaID string `csv:"schema_id"`
	State    string `csv:"state"`
	Action   string `csv:"action"`
	Field    string `csv:"field"`
	Value    string `csv:"value"`
	Reason   string `csv:"reason"`
}

// WriteCSV writes one row per corrupted value.
func (r *ScanReport) WriteCSV(w io.Writer) error {
	rows := make([]issueRow, 0, len(r.Corrupted))
	for _, e := range r.Corrupted {
		for _, issue := range e.Issues {
			rows = append(rows, issueRow{
				Bank:     e.Bank,
				Format:   e.Format,
				SchemaID: e.SchemaID,
				State:    string(e.State),
				Action:   string(e.Action),
				Field:    string(issue.Field),
				Value:    issue.Value,
				Reason:   string(issue.Reason),
			})
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("error writing scan report CSV: %w", err)
	}
	return nil
}
