package models

// Preview is the tabular view of a statement file handed to the mapping core.
// Rows holds every raw row of the file, header rows included.
type Preview struct {
	DetectedHeaders []string
	Rows            [][]string
	TotalColumns    int
	TotalRows       int
}

// Sample returns up to n rows starting at the 1-indexed row first.
func (p Preview) Sample(first, n int) [][]string {
	start := first - 1
	if start < 0 {
		start = 0
	}
	if start >= len(p.Rows) {
		return nil
	}
	end := start + n
	if n <= 0 || end > len(p.Rows) {
		end = len(p.Rows)
	}
	return p.Rows[start:end]
}
