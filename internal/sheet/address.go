package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Range is a rectangular cell range on one sheet. Coordinates are 1-based
// like excelize cell names. A range obtained from a table is bound to the
// table's current layout and becomes stale once the table is resized.
type Range struct {
	Sheet    string
	FirstCol int
	FirstRow int
	LastCol  int
	LastRow  int

	table string
	gen   uint64
}

// RowCount returns the number of rows covered by the range
func (r Range) RowCount() int {
	if r.LastRow < r.FirstRow {
		return 0
	}
	return r.LastRow - r.FirstRow + 1
}

// ColumnCount returns the number of columns covered by the range
func (r Range) ColumnCount() int {
	if r.LastCol < r.FirstCol {
		return 0
	}
	return r.LastCol - r.FirstCol + 1
}

// StartCell returns the top-left cell name, e.g. "A2"
func (r Range) StartCell() string {
	return cellName(r.FirstCol, r.FirstRow)
}

// EndCell returns the bottom-right cell name, e.g. "G9"
func (r Range) EndCell() string {
	return cellName(r.LastCol, r.LastRow)
}

// Ref returns the range reference without the sheet, e.g. "A2:G9"
func (r Range) Ref() string {
	return r.StartCell() + ":" + r.EndCell()
}

// Address returns the sheet-qualified reference, e.g. "Deck!A2:G9"
func (r Range) Address() string {
	return QuoteSheet(r.Sheet) + "!" + r.Ref()
}

func (r Range) String() string {
	return r.Address()
}

// Contains reports whether the 1-based cell lies within the range
func (r Range) Contains(col, row int) bool {
	return col >= r.FirstCol && col <= r.LastCol && row >= r.FirstRow && row <= r.LastRow
}

// QuoteSheet quotes a sheet name for use in an address when needed
func QuoteSheet(name string) string {
	if strings.ContainsAny(name, " '!-+()") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// SplitAddress splits "Sheet!A1:B2" into sheet and reference. The sheet is
// empty when the address has no sheet part. Absolute markers are removed.
func SplitAddress(address string) (string, string) {
	address = strings.ReplaceAll(strings.TrimPrefix(address, "="), "$", "")
	i := strings.LastIndex(address, "!")
	if i < 0 {
		return "", address
	}
	sheet := address[:i]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, address[i+1:]
}

// ParseRange parses a reference like "A2:G9" or a single cell "B3" on the
// given sheet
func ParseRange(sheet, ref string) (Range, error) {
	start, end, found := strings.Cut(ref, ":")
	if !found {
		end = start
	}
	c1, r1, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", ref, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", ref, err)
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return Range{Sheet: sheet, FirstCol: c1, FirstRow: r1, LastCol: c2, LastRow: r2}, nil
}

// ColumnName converts a 0-based column index to letters, e.g. 2 -> "C"
func ColumnName(index int) string {
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return ""
	}
	return name
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}
