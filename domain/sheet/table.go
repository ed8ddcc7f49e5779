package sheet

import (
	"strings"
)

// Table represents the tabular region extracted from one worksheet: the
// human-readable column labels kept for validation, the trimmed header codes,
// and the raw data rows. Labels, Headers and Rows share column positions.
type Table struct {
	Labels  []string   // label row from the metadata block, may be empty
	Headers []string   // column codes, whitespace-trimmed at load
	Rows    [][]string // data rows, raw cell strings
}

// ColumnIndex returns the position of a header code. Matching is exact on the
// trimmed code; the first occurrence wins when a workbook repeats a header.
func (t *Table) ColumnIndex(code string) (int, bool) {
	code = strings.TrimSpace(code)
	for i, h := range t.Headers {
		if h == code {
			return i, true
		}
	}
	return 0, false
}

// Label returns the label aligned with column i, or "" when the label row is
// missing or shorter than the header row.
func (t *Table) Label(i int) string {
	if i < 0 || i >= len(t.Labels) {
		return ""
	}
	return t.Labels[i]
}

// HasLabels reports whether a label row was extracted from the workbook.
func (t *Table) HasLabels() bool {
	return len(t.Labels) > 0
}

// Cell returns the cell at (row, col), or "" when the row is shorter than
// col. Worksheets routinely produce ragged rows.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// NormalizeLabel collapses runs of whitespace to single spaces and trims the
// ends, so "Main  Incoming Water " compares equal to "Main Incoming Water".
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LabelsMatch compares two labels after whitespace normalization,
// case-insensitively. This is the drift check that catches a worksheet whose
// columns were rearranged or repurposed since the mapping was configured.
func LabelsMatch(a, b string) bool {
	return strings.EqualFold(NormalizeLabel(a), NormalizeLabel(b))
}
