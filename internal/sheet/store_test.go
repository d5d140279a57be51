package sheet

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/cardsheet/internal/card"
)

func newDeck(t *testing.T, records card.Collection) *XLSX {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Deck"))

	header := make([]any, len(card.Fields))
	for i, name := range card.Fields {
		header[i] = name
	}
	require.NoError(t, f.SetSheetRow("Deck", "A1", &header))
	for i, r := range records {
		row := r.Values()
		require.NoError(t, f.SetSheetRow("Deck", fmt.Sprintf("A%d", i+2), &row))
	}

	last := 1 + max(len(records), 1)
	require.NoError(t, f.AddTable("Deck", &excelize.Table{
		Range:     fmt.Sprintf("A1:G%d", last),
		Name:      "Cards",
		StyleName: "TableStyleMedium2",
	}))

	x := NewXLSX(f, "")
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func sampleCards() card.Collection {
	return card.Collection{
		{Front: "ябълка", Back: "apple", Image: "https://img/1.png"},
		{Front: "<b>котка</b>", Back: "cat", Hint: "meow", Exported: true},
		{Front: "куче", Back: "dog", Context: "Кучето лае.", Sound: "https://snd/куче"},
	}
}

func TestStoreRead(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())

	got, err := NewStore(grid).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCards(), got)
}

func TestStoreReadNoTable(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())
	_, err := grid.File().NewSheet("Empty")
	require.NoError(t, err)
	require.NoError(t, grid.SetActiveSheet("Empty"))

	got, err := NewStore(grid).Read(ctx)
	require.ErrorIs(t, err, ErrNoTableFound)
	assert.Nil(t, got)
}

func TestStoreReadHeaderMismatch(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())
	require.NoError(t, grid.File().SetCellValue("Deck", "A1", "Question"))

	_, err := NewStore(grid).Read(ctx)
	require.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestStoreWriteSameLength(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())
	store := NewStore(grid)

	first, err := store.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, first))

	second, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	changed := append(card.Collection(nil), second...)
	changed[1].Back = "kitten"
	changed[2].Exported = true
	require.NoError(t, store.Write(ctx, changed))

	third, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, changed, third)
}

func TestStoreWriteResize(t *testing.T) {
	tests := []struct {
		name    string
		records card.Collection
	}{
		{
			name: "grow",
			records: append(sampleCards(),
				card.Record{Front: "хляб", Back: "bread"},
				card.Record{Front: "вода", Back: "water"},
			),
		},
		{
			name:    "shrink",
			records: sampleCards()[:1],
		},
		{
			name:    "empty",
			records: card.Collection{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			grid := newDeck(t, sampleCards())
			store := NewStore(grid)

			require.NoError(t, store.Write(ctx, tt.records))

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.records, got)

			tables, err := grid.Tables(ctx, "Deck")
			require.NoError(t, err)
			require.Len(t, tables, 1)
			assert.Equal(t, "Cards", tables[0].Name)
			assert.Equal(t, 1, tables[0].Range.FirstRow)
		})
	}
}

func TestStoreWriteShrinkClearsDroppedRows(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())

	require.NoError(t, NewStore(grid).Write(ctx, sampleCards()[:1]))

	v, err := grid.File().GetCellValue("Deck", "A4")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStoreToleratesDrift(t *testing.T) {
	ctx := context.Background()
	grid := newDeck(t, sampleCards())
	store := NewStore(grid)

	records, err := store.Read(ctx)
	require.NoError(t, err)

	// The table grows behind the store's back.
	_, err = grid.ResizeTable(ctx, "Deck", 0, 6)
	require.NoError(t, err)

	records = append(records, card.New("нов"))
	require.NoError(t, store.Write(ctx, records))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStoreWriteSyncsToDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deck.xlsx")

	grid := newDeck(t, sampleCards())
	disk := NewXLSX(grid.File(), path)

	records := append(sampleCards(), card.New("ново"))
	require.NoError(t, NewStore(disk).Write(ctx, records))

	reopened, err := OpenXLSX(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := NewStore(reopened).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
