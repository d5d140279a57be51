package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"codeberg.org/snonux/cardsheet/internal"
	"codeberg.org/snonux/cardsheet/internal/audio"
	"codeberg.org/snonux/cardsheet/internal/card"
	"codeberg.org/snonux/cardsheet/internal/sheet"
)

// Anchor is a fixed preview cell. Row is 0-based; a negative Column means
// the Image column of the bound table. An anchor inside the table is moved
// out of it.
type Anchor struct {
	Row    int
	Column int
}

// DefaultAnchor is the first row of the Image column
var DefaultAnchor = Anchor{Row: 0, Column: -1}

// columns are the 0-based sheet columns of a bound table
type columns struct {
	image int
	sound int
	table sheet.Range
}

type binding struct {
	sheet string
	sub   sheet.Subscription
	cols  columns
}

// Option customizes a Dispatcher
type Option func(*Dispatcher)

// WithAnchor sets the image preview cell
func WithAnchor(a Anchor) Option {
	return func(d *Dispatcher) {
		d.anchor = a
	}
}

// Dispatcher routes selection changes on bound sheets to the image preview
// or sound playback action
type Dispatcher struct {
	grid   sheet.Grid
	player audio.Player
	anchor Anchor

	mu       sync.Mutex
	bound    bool
	bindings []binding
	playback audio.Playback
}

// New creates an unbound dispatcher. Without a player sound cells are
// ignored.
func New(grid sheet.Grid, player audio.Player, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		grid:   grid,
		player: player,
		anchor: DefaultAnchor,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bind subscribes to selection changes on every sheet that owns a table.
// Sheets bound by an earlier call are skipped.
func (d *Dispatcher) Bind(ctx context.Context) error {
	names, err := d.grid.SheetNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sheets: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range names {
		if d.isBoundLocked(name) {
			continue
		}

		tables, err := d.grid.Tables(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to read tables of %s: %w", name, err)
		}
		if len(tables) == 0 {
			continue
		}

		first := tables[0].Range.FirstCol - 1
		cols := columns{
			image: first + card.Index(card.FieldImage),
			sound: first + card.Index(card.FieldSound),
			table: tables[0].Range,
		}

		sub, err := d.grid.OnSelectionChanged(name, d.OnSelectionChanged)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", name, err)
		}
		d.bindings = append(d.bindings, binding{sheet: name, sub: sub, cols: cols})
		slog.Default().Debug("bound selection handler", slog.String("sheet", name), slog.String("table", tables[0].Name))
	}
	d.bound = true
	return nil
}

func (d *Dispatcher) isBoundLocked(name string) bool {
	for _, b := range d.bindings {
		if b.sheet == name {
			return true
		}
	}
	return false
}

// Bound returns the names of the bound sheets
func (d *Dispatcher) Bound() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.bindings))
	for _, b := range d.bindings {
		names = append(names, b.sheet)
	}
	return names
}

// Shutdown removes all subscriptions and stops the active playback
func (d *Dispatcher) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, b := range d.bindings {
		if err := b.sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unsubscribe from %s: %w", b.sheet, err))
		}
	}
	d.bindings = nil
	d.bound = false

	if err := d.stopLocked(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// OnSelectionChanged handles one selection change event
func (d *Dispatcher) OnSelectionChanged(ctx context.Context, ev sheet.SelectionEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.bound {
		return nil
	}

	cell, err := d.grid.ActiveCell(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active cell: %w", err)
	}

	var cols *columns
	for i := range d.bindings {
		if d.bindings[i].sheet == cell.Sheet {
			cols = &d.bindings[i].cols
			break
		}
	}
	if cols == nil {
		return nil
	}

	switch cell.Column {
	case cols.image:
		return d.previewImage(ctx, cell, *cols)
	case cols.sound:
		return d.playSound(ctx, cell, *cols)
	}
	return nil
}

func (d *Dispatcher) previewImage(ctx context.Context, cell sheet.ActiveCell, cols columns) error {
	link := strings.TrimSpace(cell.Value)
	if !internal.IsValidURL(link) {
		slog.Default().Debug("image cell holds no url", slog.String("sheet", cell.Sheet), slog.Int("row", cell.Row))
		return nil
	}

	// The table may have grown since Bind.
	tables, err := d.grid.Tables(ctx, cell.Sheet)
	if err != nil {
		return fmt.Errorf("failed to read tables of %s: %w", cell.Sheet, err)
	}
	table := cols.table
	if len(tables) > 0 {
		table = tables[0].Range
	}

	row, col := d.previewCell(cols, table)
	if err := d.grid.SetFormula(ctx, cell.Sheet, row, col, ImageFormula(link)); err != nil {
		return fmt.Errorf("failed to write image preview: %w", err)
	}
	if err := d.grid.Sync(ctx); err != nil {
		return fmt.Errorf("failed to sync image preview: %w", err)
	}
	return nil
}

// previewCell resolves the 0-based preview cell. An anchor inside the table
// moves to the row above the header, or to row 1 right of the table when
// the header is in row 1.
func (d *Dispatcher) previewCell(cols columns, table sheet.Range) (row, col int) {
	row, col = d.anchor.Row, d.anchor.Column
	if col < 0 {
		col = cols.image
	}
	if !table.Contains(col+1, row+1) {
		return row, col
	}

	if table.FirstRow > 1 {
		row = table.FirstRow - 2
	} else {
		row, col = 0, table.LastCol
	}
	slog.Default().Debug("preview cell moved out of the table",
		slog.String("table", table.Address()),
		slog.String("cell", sheet.ColumnName(col)+fmt.Sprint(row+1)))
	return row, col
}

func (d *Dispatcher) playSound(ctx context.Context, cell sheet.ActiveCell, cols columns) error {
	if d.player == nil || strings.TrimSpace(cell.Value) == "" {
		return nil
	}

	link, err := d.grid.Cell(ctx, cell.Sheet, cell.Row, cols.sound)
	if err != nil {
		return fmt.Errorf("failed to read sound cell: %w", err)
	}
	link = strings.TrimSpace(link)
	if !internal.IsValidURL(link) {
		slog.Default().Debug("sound cell holds no url", slog.String("sheet", cell.Sheet), slog.Int("row", cell.Row))
		return nil
	}

	// The old process must be gone before a new one starts.
	if err := d.stopLocked(); err != nil {
		return err
	}

	pb, err := d.player.Play(ctx, link)
	if err != nil {
		return fmt.Errorf("failed to play %s: %w", link, err)
	}
	d.playback = pb
	return nil
}

// stopLocked stops the active playback. The handle is kept when Stop
// fails so that a later call can retry.
func (d *Dispatcher) stopLocked() error {
	if d.playback == nil {
		return nil
	}
	if err := d.playback.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	d.playback = nil
	return nil
}

// ImageFormula returns the formula rendering the image at url
func ImageFormula(url string) string {
	return fmt.Sprintf(`IMAGE("%s")`, strings.ReplaceAll(url, `"`, `""`))
}
