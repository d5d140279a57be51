package sheet

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/snonux/cardsheet/internal/card"
)

// Store reads and writes the card collection held in the first table of
// the active sheet
type Store struct {
	grid Grid
}

// NewStore creates a store on top of a grid host
func NewStore(grid Grid) *Store {
	return &Store{grid: grid}
}

// Read loads a fresh snapshot of all data rows
func (s *Store) Read(ctx context.Context) (card.Collection, error) {
	sheetName, err := s.grid.ActiveSheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("active sheet: %w", err)
	}

	data, err := s.grid.LoadTable(ctx, sheetName, 0)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	if err := card.ValidateHeader(data.Header); err != nil {
		return nil, fmt.Errorf("table %q: %w: %v", data.Table.Name, ErrHeaderMismatch, err)
	}

	if isPlaceholderBody(data.Body) {
		return card.Collection{}, nil
	}

	records := make(card.Collection, 0, len(data.Body))
	for _, row := range data.Body {
		records = append(records, card.FromRow(row))
	}
	return records, nil
}

// Write replaces the table body with the collection. The table is resized
// first when the row count differs; the values are then written through a
// range rebuilt from the resize result.
func (s *Store) Write(ctx context.Context, c card.Collection) error {
	sheetName, err := s.grid.ActiveSheet(ctx)
	if err != nil {
		return fmt.Errorf("active sheet: %w", err)
	}

	body, err := s.grid.BodyRange(ctx, sheetName, 0)
	if err != nil {
		return fmt.Errorf("write cards: %w", err)
	}

	rows := c.Rows()
	if len(rows) == 0 {
		rows = [][]any{card.Record{}.Values()}
	}

	target := body
	if body.RowCount() != len(rows) {
		resized, err := s.grid.ResizeTable(ctx, sheetName, 0, len(rows))
		if err != nil {
			return fmt.Errorf("write cards: %w", err)
		}
		address := QuoteSheet(sheetName) + "!" + body.StartCell() + ":" + resized.EndCell()
		target, err = s.grid.Range(ctx, address)
		if err != nil {
			return fmt.Errorf("write cards: %w", err)
		}
		slog.Default().Debug("table body resized",
			slog.Int("from", body.RowCount()),
			slog.Int("to", len(rows)),
			slog.String("target", target.Address()))
	}

	if err := s.grid.SetValues(ctx, target, rows); err != nil {
		return fmt.Errorf("write cards: %w", err)
	}
	if err := s.grid.Sync(ctx); err != nil {
		return fmt.Errorf("write cards: %w", err)
	}
	return nil
}

// isPlaceholderBody reports whether the body is the single blank row a
// table keeps when it holds no data
func isPlaceholderBody(body [][]string) bool {
	if len(body) != 1 {
		return false
	}
	return card.FromRow(body[0]).IsBlank()
}
