package sheet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSetValuesRejectsStaleRange(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())

	body, err := grid.BodyRange(ctx, "Deck", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, body.RowCount())
	assert.Equal(t, "Deck!A2:G4", body.Address())

	resized, err := grid.ResizeTable(ctx, "Deck", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "A1:G6", resized.Ref())

	row := []any{"a", "b", "", "", "", "", false}
	err = grid.SetValues(ctx, body, [][]any{row, row, row})
	require.ErrorIs(t, err, ErrStaleRange)

	fresh, err := grid.Range(ctx, "Deck!"+body.StartCell()+":"+resized.EndCell())
	require.NoError(t, err)
	require.NoError(t, grid.SetValues(ctx, fresh, [][]any{row, row, row, row, row}))
}

func TestSetValuesShapeMismatch(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())

	body, err := grid.BodyRange(ctx, "Deck", 0)
	require.NoError(t, err)

	err = grid.SetValues(ctx, body, [][]any{{"only", "two"}})
	require.Error(t, err)
}

func TestCellAndFormula(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())

	v, err := grid.Cell(ctx, "Deck", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://img/1.png", v)

	require.NoError(t, grid.SetFormula(ctx, "Deck", 9, 2, `=IMAGE("https://img/1.png")`))
	formula, err := grid.File().GetCellFormula("Deck", "C10")
	require.NoError(t, err)
	assert.Equal(t, `IMAGE("https://img/1.png")`, formula)
}

func TestNamedValue(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())
	f := grid.File()

	_, err := f.NewSheet("Opt")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Opt", "B1", "https://pixabay.com/api/?key=k&q="))
	require.NoError(t, f.SetDefinedName(&excelize.DefinedName{
		Name:     "LANG_IMG_URL",
		RefersTo: "Opt!$B$1",
	}))
	require.NoError(t, f.SetCellValue("Opt", "A2", "LANG_SOUND_URL"))
	require.NoError(t, f.SetCellValue("Opt", "B2", "https://tts.example/?q="))

	img, err := grid.NamedValue(ctx, "Opt", "LANG_IMG_URL")
	require.NoError(t, err)
	assert.Equal(t, "https://pixabay.com/api/?key=k&q=", img)

	snd, err := grid.NamedValue(ctx, "Opt", "LANG_SOUND_URL")
	require.NoError(t, err)
	assert.Equal(t, "https://tts.example/?q=", snd)

	_, err = grid.NamedValue(ctx, "Opt", "MISSING")
	require.ErrorIs(t, err, ErrOptionNotFound)

	_, err = grid.NamedValue(ctx, "NoSuchSheet", "LANG_SOUND_URL")
	require.ErrorIs(t, err, ErrOptionNotFound)
}

func TestSelectNotifiesHandlers(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())

	var events []SelectionEvent
	sub, err := grid.OnSelectionChanged("Deck", func(ctx context.Context, ev SelectionEvent) error {
		events = append(events, ev)
		cell, err := grid.ActiveCell(ctx)
		require.NoError(t, err)
		assert.Equal(t, ActiveCell{Sheet: "Deck", Row: 1, Column: 2, Value: "https://img/1.png"}, cell)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, 1, grid.HandlerCount("Deck"))

	require.NoError(t, grid.Select(ctx, "Deck", "c2"))
	require.Len(t, events, 1)
	assert.Equal(t, "Deck!C2", events[0].Address)

	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 0, grid.HandlerCount("Deck"))
	require.NoError(t, grid.Select(ctx, "Deck", "C2"))
	assert.Len(t, events, 1)

	assert.Error(t, sub.Unsubscribe())
}

func TestSelectJoinsHandlerErrors(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())
	boom := errors.New("boom")

	_, err := grid.OnSelectionChanged("Deck", func(context.Context, SelectionEvent) error { return boom })
	require.NoError(t, err)

	err = grid.Select(ctx, "Deck", "A2")
	require.ErrorIs(t, err, boom)

	require.ErrorIs(t, grid.Select(ctx, "Nope", "A2"), ErrSheetNotFound)
	require.Error(t, grid.Select(ctx, "Deck", "not a cell"))
}

func TestOnSelectionChangedUnknownSheet(t *testing.T) {
	grid := newDeck(t, sampleCards())
	_, err := grid.OnSelectionChanged("Nope", func(context.Context, SelectionEvent) error { return nil })
	require.ErrorIs(t, err, ErrSheetNotFound)
}

func TestResizeTableKeepsStyleOptions(t *testing.T) {
	ctx := context.Background()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Deck"))
	header := []any{"Front", "Back", "Image", "Hint", "Context", "Sound", "Exported"}
	require.NoError(t, f.SetSheetRow("Deck", "A1", &header))
	require.NoError(t, f.AddTable("Deck", &excelize.Table{
		Range:             "A1:G2",
		Name:              "Cards",
		StyleName:         "TableStyleLight9",
		ShowFirstColumn:   true,
		ShowColumnStripes: true,
	}))
	grid := NewXLSX(f, "")
	t.Cleanup(func() { _ = grid.Close() })

	_, err := grid.ResizeTable(ctx, "Deck", 0, 4)
	require.NoError(t, err)

	tables, err := f.GetTables("Deck")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A1:G5", tables[0].Range)
	assert.Equal(t, "TableStyleLight9", tables[0].StyleName)
	assert.True(t, tables[0].ShowFirstColumn)
	assert.True(t, tables[0].ShowColumnStripes)
	assert.False(t, tables[0].ShowLastColumn)
}
