package progress

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidRange is returned when an A1 range cannot be parsed.
var ErrInvalidRange = errors.New("invalid A1 range")

// ColumnName converts a 0-based column index into its A1 letters
// (0 -> A, 25 -> Z, 26 -> AA).
func ColumnName(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex converts A1 column letters into a 0-based index.
func ColumnIndex(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidRange)
	}
	n := 0
	for _, r := range strings.ToUpper(name) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidRange, name)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// Range is a parsed A1 range. Columns and rows are 0-based; an open end
// (e.g. "A2:A" or "1:1") is -1.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses "Sheet!A1:B2", "Sheet!A2:A", "Sheet!1:1" or "Sheet!F1".
func ParseRange(rng string) (Range, error) {
	var r Range
	ref := rng
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		r.Sheet = strings.ReplaceAll(strings.Trim(rng[:i], "'"), "''", "'")
		ref = rng[i+1:]
	}

	start, end, hasEnd := strings.Cut(ref, ":")
	sc, sr, err := parseCell(start)
	if err != nil {
		return Range{}, fmt.Errorf("%s: %w", rng, err)
	}
	if sc < 0 {
		sc = 0
	}
	if sr < 0 {
		sr = 0
	}
	r.StartCol, r.StartRow = sc, sr

	if !hasEnd {
		r.EndCol, r.EndRow = sc, sr
		return r, nil
	}
	ec, er, err := parseCell(end)
	if err != nil {
		return Range{}, fmt.Errorf("%s: %w", rng, err)
	}
	r.EndCol, r.EndRow = ec, er
	return r, nil
}

// parseCell splits "AB12" into column 27 and row 11. A missing part is -1.
func parseCell(cell string) (col, row int, err error) {
	i := 0
	for i < len(cell) && ((cell[i] >= 'A' && cell[i] <= 'Z') || (cell[i] >= 'a' && cell[i] <= 'z')) {
		i++
	}
	letters, digits := cell[:i], cell[i:]
	if letters == "" && digits == "" {
		return 0, 0, fmt.Errorf("%w: empty cell reference", ErrInvalidRange)
	}

	col, row = -1, -1
	if letters != "" {
		if col, err = ColumnIndex(letters); err != nil {
			return 0, 0, err
		}
	}
	if digits != "" {
		n, convErr := strconv.Atoi(digits)
		if convErr != nil || n < 1 {
			return 0, 0, fmt.Errorf("%w: row %q", ErrInvalidRange, digits)
		}
		row = n - 1
	}
	return col, row, nil
}

// CellRange formats a bounded range on sheet. Rows and columns are 0-based.
func CellRange(sheet string, startCol, startRow, endCol, endRow int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", QuoteSheet(sheet),
		ColumnName(startCol), startRow+1, ColumnName(endCol), endRow+1)
}

// QuoteSheet returns sheet as it must appear before "!" in an A1 range.
// Names made only of letters, digits and underscores are left bare.
func QuoteSheet(sheet string) string {
	for _, r := range sheet {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
		}
	}
	return sheet
}
