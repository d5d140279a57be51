package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// XLSX implements Grid on top of an excelize workbook. The workbook is kept
// in memory and written to disk on Sync.
type XLSX struct {
	file *excelize.File
	path string

	mu          sync.Mutex
	activeSheet string
	activeCell  string
	generations map[string]uint64 // table name -> layout generation
	handlers    map[string][]*xlsxSubscription
}

// OpenXLSX opens a workbook from disk
func OpenXLSX(path string) (*XLSX, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return NewXLSX(f, path), nil
}

// NewXLSX wraps an already opened workbook. An empty path keeps the
// workbook in memory only.
func NewXLSX(f *excelize.File, path string) *XLSX {
	return &XLSX{
		file:        f,
		path:        path,
		activeCell:  "A1",
		generations: make(map[string]uint64),
		handlers:    make(map[string][]*xlsxSubscription),
	}
}

// File returns the underlying workbook
func (x *XLSX) File() *excelize.File {
	return x.file
}

// Close releases the workbook
func (x *XLSX) Close() error {
	return x.file.Close()
}

// SetActiveSheet makes the named sheet the active one
func (x *XLSX) SetActiveSheet(name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	idx, err := x.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return fmt.Errorf("%q: %w", name, ErrSheetNotFound)
	}
	x.file.SetActiveSheet(idx)
	x.activeSheet = name
	return nil
}

// Select moves the selection to a cell and notifies the handlers
// registered for that sheet. Handlers run synchronously in registration
// order.
func (x *XLSX) Select(ctx context.Context, sheet, cell string) error {
	cell = strings.ToUpper(strings.ReplaceAll(cell, "$", ""))
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return fmt.Errorf("select %q: %w", cell, err)
	}

	x.mu.Lock()
	idx, err := x.file.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		x.mu.Unlock()
		return fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}
	x.file.SetActiveSheet(idx)
	x.activeSheet = sheet
	x.activeCell = cell
	subs := append([]*xlsxSubscription(nil), x.handlers[sheet]...)
	x.mu.Unlock()

	ev := SelectionEvent{Sheet: sheet, Address: QuoteSheet(sheet) + "!" + cell}
	var errs []error
	for _, sub := range subs {
		if err := sub.handler(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (x *XLSX) ActiveSheet(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.activeSheetLocked(), nil
}

func (x *XLSX) activeSheetLocked() string {
	if x.activeSheet != "" {
		return x.activeSheet
	}
	return x.file.GetSheetName(x.file.GetActiveSheetIndex())
}

func (x *XLSX) SheetNames(ctx context.Context) ([]string, error) {
	return x.file.GetSheetList(), nil
}

func (x *XLSX) Tables(ctx context.Context, sheet string) ([]Table, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	raw, err := x.file.GetTables(sheet)
	if err != nil {
		return nil, fmt.Errorf("get tables of %q: %w", sheet, err)
	}
	tables := make([]Table, 0, len(raw))
	for _, t := range raw {
		rng, err := ParseRange(sheet, t.Range)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		rng.table = t.Name
		rng.gen = x.generations[t.Name]
		tables = append(tables, Table{Name: t.Name, Range: rng})
	}
	return tables, nil
}

func (x *XLSX) table(sheet string, index int) (excelize.Table, Range, error) {
	raw, err := x.file.GetTables(sheet)
	if err != nil {
		return excelize.Table{}, Range{}, fmt.Errorf("get tables of %q: %w", sheet, err)
	}
	if index < 0 || index >= len(raw) {
		return excelize.Table{}, Range{}, fmt.Errorf("sheet %q table %d: %w", sheet, index, ErrNoTableFound)
	}
	t := raw[index]
	rng, err := ParseRange(sheet, t.Range)
	if err != nil {
		return excelize.Table{}, Range{}, fmt.Errorf("table %q: %w", t.Name, err)
	}
	rng.table = t.Name
	rng.gen = x.generations[t.Name]
	return t, rng, nil
}

func bodyOf(tableRange Range) Range {
	body := tableRange
	body.FirstRow = tableRange.FirstRow + 1
	return body
}

func (x *XLSX) LoadTable(ctx context.Context, sheet string, index int) (*TableData, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	t, rng, err := x.table(sheet, index)
	if err != nil {
		return nil, err
	}

	header, err := x.readRow(sheet, rng.FirstRow, rng.FirstCol, rng.LastCol)
	if err != nil {
		return nil, err
	}

	body := bodyOf(rng)
	rows := make([][]string, 0, body.RowCount())
	for row := body.FirstRow; row <= body.LastRow; row++ {
		values, err := x.readRow(sheet, row, body.FirstCol, body.LastCol)
		if err != nil {
			return nil, err
		}
		rows = append(rows, values)
	}

	return &TableData{
		Table:     Table{Name: t.Name, Range: rng},
		Header:    header,
		Body:      rows,
		BodyRange: body,
	}, nil
}

func (x *XLSX) readRow(sheet string, row, firstCol, lastCol int) ([]string, error) {
	values := make([]string, 0, lastCol-firstCol+1)
	for col := firstCol; col <= lastCol; col++ {
		v, err := x.file.GetCellValue(sheet, cellName(col, row))
		if err != nil {
			return nil, fmt.Errorf("read %s!%s: %w", sheet, cellName(col, row), err)
		}
		values = append(values, v)
	}
	return values, nil
}

func (x *XLSX) BodyRange(ctx context.Context, sheet string, index int) (Range, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, rng, err := x.table(sheet, index)
	if err != nil {
		return Range{}, err
	}
	return bodyOf(rng), nil
}

func (x *XLSX) ResizeTable(ctx context.Context, sheet string, index int, bodyRows int) (Range, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	t, old, err := x.table(sheet, index)
	if err != nil {
		return Range{}, err
	}

	// A table keeps at least one body row.
	if bodyRows < 1 {
		bodyRows = 1
	}
	resized := old
	resized.LastRow = old.FirstRow + bodyRows

	if err := x.file.DeleteTable(t.Name); err != nil {
		return Range{}, fmt.Errorf("resize table %q: %w", t.Name, err)
	}
	if err := x.file.AddTable(sheet, &excelize.Table{
		Range:             resized.Ref(),
		Name:              t.Name,
		StyleName:         t.StyleName,
		ShowColumnStripes: t.ShowColumnStripes,
		ShowFirstColumn:   t.ShowFirstColumn,
		ShowHeaderRow:     t.ShowHeaderRow,
		ShowLastColumn:    t.ShowLastColumn,
		ShowRowStripes:    t.ShowRowStripes,
	}); err != nil {
		return Range{}, fmt.Errorf("resize table %q to %s: %w", t.Name, resized.Ref(), err)
	}

	// Rows that dropped out of the table are cleared.
	blank := make([]any, old.ColumnCount())
	for i := range blank {
		blank[i] = ""
	}
	for row := resized.LastRow + 1; row <= old.LastRow; row++ {
		if err := x.file.SetSheetRow(sheet, cellName(old.FirstCol, row), &blank); err != nil {
			return Range{}, fmt.Errorf("clear row %d: %w", row, err)
		}
	}

	x.generations[t.Name]++
	resized.gen = x.generations[t.Name]
	slog.Default().Debug("table resized",
		slog.String("table", t.Name),
		slog.String("from", old.Ref()),
		slog.String("to", resized.Ref()))
	return resized, nil
}

func (x *XLSX) Range(ctx context.Context, address string) (Range, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	sheet, ref := SplitAddress(address)
	if sheet == "" {
		sheet = x.activeSheetLocked()
	}
	if idx, err := x.file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return Range{}, fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}
	return ParseRange(sheet, ref)
}

func (x *XLSX) SetValues(ctx context.Context, rng Range, values [][]any) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if rng.table != "" && rng.gen != x.generations[rng.table] {
		return fmt.Errorf("%s: %w", rng.Address(), ErrStaleRange)
	}
	if len(values) != rng.RowCount() {
		return fmt.Errorf("%s: %d rows for a range of %d", rng.Address(), len(values), rng.RowCount())
	}
	for i, row := range values {
		if len(row) != rng.ColumnCount() {
			return fmt.Errorf("%s: row %d has %d cells for a range of %d columns", rng.Address(), i, len(row), rng.ColumnCount())
		}
		if err := x.file.SetSheetRow(rng.Sheet, cellName(rng.FirstCol, rng.FirstRow+i), &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", rng.Address(), i, err)
		}
	}
	return nil
}

func (x *XLSX) Cell(ctx context.Context, sheet string, row, col int) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	v, err := x.file.GetCellValue(sheet, cellName(col+1, row+1))
	if err != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheet, cellName(col+1, row+1), err)
	}
	return v, nil
}

func (x *XLSX) SetFormula(ctx context.Context, sheet string, row, col int, formula string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	cell := cellName(col+1, row+1)
	if err := x.file.SetCellFormula(sheet, cell, strings.TrimPrefix(formula, "=")); err != nil {
		return fmt.Errorf("set formula %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func (x *XLSX) ActiveCell(ctx context.Context) (ActiveCell, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	sheet := x.activeSheetLocked()
	col, row, err := excelize.CellNameToCoordinates(x.activeCell)
	if err != nil {
		return ActiveCell{}, fmt.Errorf("active cell %q: %w", x.activeCell, err)
	}
	v, err := x.file.GetCellValue(sheet, x.activeCell)
	if err != nil {
		return ActiveCell{}, fmt.Errorf("read %s!%s: %w", sheet, x.activeCell, err)
	}
	return ActiveCell{Sheet: sheet, Row: row - 1, Column: col - 1, Value: v}, nil
}

// NamedValue resolves a defined name scoped to the workbook or the sheet.
// Without a defined name, a label in column A of the sheet selects the
// value in column B.
func (x *XLSX) NamedValue(ctx context.Context, sheet, name string) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, dn := range x.file.GetDefinedName() {
		if dn.Name != name || (dn.Scope != "" && dn.Scope != "Workbook" && dn.Scope != sheet) {
			continue
		}
		refSheet, ref := SplitAddress(dn.RefersTo)
		if refSheet == "" {
			refSheet = sheet
		}
		rng, err := ParseRange(refSheet, ref)
		if err != nil {
			return "", fmt.Errorf("defined name %q: %w", name, err)
		}
		v, err := x.file.GetCellValue(refSheet, rng.StartCell())
		if err != nil {
			return "", fmt.Errorf("defined name %q: %w", name, err)
		}
		return strings.TrimSpace(v), nil
	}

	rows, err := x.file.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("%s!%s: %w", sheet, name, ErrOptionNotFound)
	}
	for _, row := range rows {
		if len(row) >= 2 && strings.TrimSpace(row[0]) == name {
			return strings.TrimSpace(row[1]), nil
		}
	}
	return "", fmt.Errorf("%s!%s: %w", sheet, name, ErrOptionNotFound)
}

func (x *XLSX) OnSelectionChanged(sheet string, handler SelectionHandler) (Subscription, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if idx, err := x.file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}
	sub := &xlsxSubscription{
		id:      uuid.NewString(),
		sheet:   sheet,
		handler: handler,
		host:    x,
	}
	x.handlers[sheet] = append(x.handlers[sheet], sub)
	return sub, nil
}

func (x *XLSX) Sync(ctx context.Context) error {
	if x.path == "" {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("save workbook %q: %w", x.path, err)
	}
	return nil
}

// HandlerCount returns the number of handlers registered for a sheet. It
// lets tests observe subscriptions without firing events.
func (x *XLSX) HandlerCount(sheet string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.handlers[sheet])
}

type xlsxSubscription struct {
	id      string
	sheet   string
	handler SelectionHandler
	host    *XLSX
}

func (s *xlsxSubscription) ID() string    { return s.id }
func (s *xlsxSubscription) Sheet() string { return s.sheet }

func (s *xlsxSubscription) Unsubscribe() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()

	subs := s.host.handlers[s.sheet]
	for i, sub := range subs {
		if sub.id == s.id {
			s.host.handlers[s.sheet] = append(subs[:i], subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription %s on %q is not registered", s.id, s.sheet)
}

var _ Grid = (*XLSX)(nil)
