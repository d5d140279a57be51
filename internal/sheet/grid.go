package sheet

import (
	"context"
	"errors"
)

var (
	// ErrNoTableFound is returned when the sheet owns no table
	ErrNoTableFound = errors.New("no table found on sheet")

	// ErrHeaderMismatch is returned when the table header does not match
	// the record schema
	ErrHeaderMismatch = errors.New("table header does not match card fields")

	// ErrStaleRange is returned when a range handle is used after the table
	// it was taken from has been resized
	ErrStaleRange = errors.New("range handle is stale after table resize")

	// ErrSheetNotFound is returned for unknown sheet names
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrOptionNotFound is returned when a named option cell does not exist
	ErrOptionNotFound = errors.New("option cell not found")
)

// Table describes a structured table on a sheet
type Table struct {
	Name  string
	Range Range // Header row plus body
}

// TableData is the header and body of a table loaded in one round trip
type TableData struct {
	Table     Table
	Header    []string
	Body      [][]string
	BodyRange Range
}

// ActiveCell is the currently selected cell. Row and Column are 0-based.
type ActiveCell struct {
	Sheet  string
	Row    int
	Column int
	Value  string
}

// SelectionEvent is delivered to selection handlers
type SelectionEvent struct {
	Sheet   string
	Address string
}

// SelectionHandler reacts to a selection change on a sheet
type SelectionHandler func(ctx context.Context, ev SelectionEvent) error

// Subscription is the handle of a registered selection handler
type Subscription interface {
	ID() string
	Sheet() string
	Unsubscribe() error
}

// Grid is the spreadsheet host. Each method is one round trip; writes are
// staged until Sync.
type Grid interface {
	// ActiveSheet returns the name of the sheet the user works on
	ActiveSheet(ctx context.Context) (string, error)

	// SheetNames lists all sheets in workbook order
	SheetNames(ctx context.Context) ([]string, error)

	// Tables lists the tables of a sheet
	Tables(ctx context.Context, sheet string) ([]Table, error)

	// LoadTable loads header, body values and body range of a table
	LoadTable(ctx context.Context, sheet string, index int) (*TableData, error)

	// BodyRange returns the current body range of a table
	BodyRange(ctx context.Context, sheet string, index int) (Range, error)

	// ResizeTable resizes a table anchored at its header row so that it has
	// bodyRows data rows and returns the new table range. Range handles
	// taken from the table before the resize become stale.
	ResizeTable(ctx context.Context, sheet string, index int, bodyRows int) (Range, error)

	// Range returns a fresh handle for a sheet-qualified address
	Range(ctx context.Context, address string) (Range, error)

	// SetValues overwrites the values of a range
	SetValues(ctx context.Context, rng Range, values [][]any) error

	// Cell returns the text of a cell, row and col are 0-based
	Cell(ctx context.Context, sheet string, row, col int) (string, error)

	// SetFormula assigns a formula to a cell, row and col are 0-based
	SetFormula(ctx context.Context, sheet string, row, col int, formula string) error

	// ActiveCell loads row, column and value of the selected cell
	ActiveCell(ctx context.Context) (ActiveCell, error)

	// NamedValue reads a single named option cell on a sheet
	NamedValue(ctx context.Context, sheet, name string) (string, error)

	// OnSelectionChanged registers a handler for selection changes on a sheet
	OnSelectionChanged(sheet string, handler SelectionHandler) (Subscription, error)

	// Sync commits staged changes
	Sync(ctx context.Context) error
}
