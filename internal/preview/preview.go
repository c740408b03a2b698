// Package preview reads a statement file into the tabular preview the mapping
// core works on.
package preview

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile is returned when a statement holds no rows.
var ErrEmptyFile = errors.New("statement file is empty")

// Candidates lists the delimiters tried when none is configured.
var Candidates = []rune{',', ';', '\t', '|'}

// Loader builds previews from CSV and XLSX statements.
type Loader struct {
	delimiter rune
	maxRows   int
	logger    logging.Logger
}

// NewLoader creates a Loader. A zero delimiter is sniffed per file; maxRows
// caps the rows kept in a preview (0 keeps all).
func NewLoader(delimiter rune, maxRows int, logger logging.Logger) *Loader {
	return &Loader{
		delimiter: delimiter,
		maxRows:   maxRows,
		logger:    logger.WithField(logging.FieldComponent, "preview"),
	}
}

// WithMaxRows returns a copy of l keeping at most n rows.
func (l *Loader) WithMaxRows(n int) *Loader {
	c := *l
	c.maxRows = n
	return &c
}

// LoadFile reads the statement at path. The row before firstTransactionRow is
// taken as the header row.
func (l *Loader) LoadFile(path string, firstTransactionRow int) (models.Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Preview{}, fmt.Errorf("error opening statement file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var p models.Preview
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		p, err = l.ReadXLSX(f, firstTransactionRow)
	default:
		p, err = l.ReadCSV(f, firstTransactionRow)
	}
	if err != nil {
		var formatErr *parsererror.InvalidFormatError
		if errors.As(err, &formatErr) {
			formatErr.FilePath = path
		}
		return models.Preview{}, err
	}

	l.logger.Debug("Loaded statement preview",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, p.TotalRows),
		logging.F(logging.FieldColumn, p.TotalColumns))
	return p, nil
}

// ReadCSV reads delimited text from r.
func (l *Loader) ReadCSV(r io.Reader, firstTransactionRow int) (models.Preview, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Preview{}, fmt.Errorf("error reading statement: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Preview{}, ErrEmptyFile
	}

	delim := l.delimiter
	if delim == 0 {
		delim = DetectDelimiter(sampleLines(data, 20))
		l.logger.Debug("Detected delimiter", logging.F(logging.FieldDelimiter, string(delim)))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return models.Preview{}, &parsererror.InvalidFormatError{
			ExpectedFormat:       fmt.Sprintf("%q-delimited text", delim),
			ActualContentSnippet: snippet(data),
			Msg:                  err.Error(),
		}
	}
	return l.build(rows, firstTransactionRow)
}

// ReadXLSX reads the first sheet of a workbook from r.
func (l *Loader) ReadXLSX(r io.Reader, firstTransactionRow int) (models.Preview, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return models.Preview{}, &parsererror.InvalidFormatError{ExpectedFormat: "XLSX workbook", Msg: err.Error()}
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	rows, err := book.GetRows(sheet)
	if err != nil {
		return models.Preview{}, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}
	return l.build(rows, firstTransactionRow)
}

// FromRows builds a preview from rows already in memory.
func FromRows(rows [][]string, firstTransactionRow int) models.Preview {
	p, _ := (&Loader{}).build(rows, firstTransactionRow)
	return p
}

func (l *Loader) build(rows [][]string, firstTransactionRow int) (models.Preview, error) {
	if len(rows) == 0 {
		return models.Preview{}, ErrEmptyFile
	}

	p := models.Preview{TotalRows: len(rows)}
	for _, row := range rows {
		if len(row) > p.TotalColumns {
			p.TotalColumns = len(row)
		}
	}

	if h := firstTransactionRow - 2; h >= 0 && h < len(rows) {
		p.DetectedHeaders = make([]string, len(rows[h]))
		for i, cell := range rows[h] {
			p.DetectedHeaders[i] = strings.TrimSpace(cell)
		}
	}

	if l.maxRows > 0 && len(rows) > l.maxRows {
		rows = rows[:l.maxRows]
	}
	p.Rows = rows
	return p, nil
}

// DetectDelimiter picks the candidate that splits the most lines into the
// same number of fields, preferring more fields on ties. It falls back to a
// comma.
func DetectDelimiter(lines []string) rune {
	best, bestLines, bestFields := ',', 0, 0
	for _, d := range Candidates {
		counts := make(map[int]int)
		for _, line := range lines {
			if n := strings.Count(line, string(d)); n > 0 {
				counts[n]++
			}
		}
		for fields, n := range counts {
			if n > bestLines || (n == bestLines && fields > bestFields) {
				best, bestLines, bestFields = d, n, fields
			}
		}
	}
	return best
}

func sampleLines(data []byte, n int) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

func snippet(data []byte) string {
	s := string(data)
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
