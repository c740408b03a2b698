package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name        string
		dateStr     string
		expectedOk  bool
		expectedY   int
		expectedM   time.Month
		expectedD   int
		expectedFmt string
	}{
		{"ISO format", "2023-01-15", true, 2023, time.January, 15, DateLayoutISO},
		{"European format", "15.01.2023", true, 2023, time.January, 15, DateLayoutEuropean},
		{"US format", "01/15/2023", true, 2023, time.January, 15, DateLayoutUS},
		{"Dash-separated EU", "15-01-2023", true, 2023, time.January, 15, "02-01-2006"},
		{"Full timestamp", "2023-01-15 10:30:45", true, 2023, time.January, 15, DateLayoutFull},
		{"With month name", "15-Jan-2023", true, 2023, time.January, 15, DateLayoutWithMonth},
		{"Extra spaces", "  02 Jan   2025 ", true, 2025, time.January, 2, "02 Jan 2006"},
		{"Empty string", "", false, 0, 0, 0, ""},
		{"Invalid format", "not a date", false, 0, 0, 0, ""},
		{"Amount", "21483,27", false, 0, 0, 0, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			date, format, err := ParseDate(tc.dateStr)

			if tc.expectedOk {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedY, date.Year())
				assert.Equal(t, tc.expectedM, date.Month())
				assert.Equal(t, tc.expectedD, date.Day())
				assert.Equal(t, tc.expectedFmt, format)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLayoutFromPattern(t *testing.T) {
	tests := []struct {
		pattern string
		layout  string
	}{
		{"DD.MM.YYYY", "02.01.2006"},
		{"dd-mm-yyyy", "02-01-2006"},
		{"YYYY-MM-DD", "2006-01-02"},
		{"D/M/YY", "2/1/06"},
		{"DD MMM YYYY", "02 Jan 2006"},
		{"%d/%m/%Y", "02/01/2006"},
		{"%Y-%m-%d %H:%M", "2006-01-02 15:04"},
		{"02.01.2006", "02.01.2006"},
		{"Jan 2, 2006", "Jan 2, 2006"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.layout, LayoutFromPattern(tt.pattern))
		})
	}
}

func TestParseWithFormat(t *testing.T) {
	got, err := ParseWithFormat("02-01-2025", "DD-MM-YYYY")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseWithFormat("01/02/2025", "%m/%d/%Y")
	require.NoError(t, err)
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 2, got.Day())

	got, err = ParseWithFormat("2025-03-04", "")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())

	_, err = ParseWithFormat("2025-03-04", "DD.MM.YYYY")
	assert.ErrorContains(t, err, `does not match format "DD.MM.YYYY"`)
}

func TestLooksLikeDate(t *testing.T) {
	assert.True(t, LooksLikeDate("02-01-2025"))
	assert.True(t, LooksLikeDate("2025/01/02"))
	assert.False(t, LooksLikeDate("1200,00"))
	assert.False(t, LooksLikeDate("PLN"))
}

func TestToISODate(t *testing.T) {
	testDate := time.Date(2023, time.January, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "2023-01-15", ToISODate(testDate))
	assert.Equal(t, "", ToISODate(time.Time{}))
}

func TestCleanDateString(t *testing.T) {
	assert.Equal(t, "15 Jan 2023", CleanDateString("  15   Jan\t2023 "))
}
