package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/cardsheet/internal/card"
	"codeberg.org/snonux/cardsheet/internal/sheet"
)

// Deck describes a test workbook holding one card table
type Deck struct {
	Sheet   string            // Defaults to "Deck"
	Origin  string            // Header cell of the table, defaults to "A1"
	Records card.Collection   // Body rows
	Options map[string]string // Label/value rows on sheet "Opt"
}

func (d Deck) sheetName() string {
	if d.Sheet == "" {
		return "Deck"
	}
	return d.Sheet
}

// Build creates the in-memory workbook
func (d Deck) Build(t *testing.T) *excelize.File {
	t.Helper()

	origin := d.Origin
	if origin == "" {
		origin = "A1"
	}
	col, row, err := excelize.CellNameToCoordinates(origin)
	if err != nil {
		t.Fatalf("Invalid deck origin %q: %v", origin, err)
	}

	name := d.sheetName()
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}

	header := make([]any, len(card.Fields))
	for i, field := range card.Fields {
		header[i] = field
	}
	if err := f.SetSheetRow(name, origin, &header); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	for i, rec := range d.Records {
		values := rec.Values()
		cell, _ := excelize.CoordinatesToCellName(col, row+1+i)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			t.Fatalf("Failed to write row %d: %v", i, err)
		}
	}

	end, _ := excelize.CoordinatesToCellName(col+len(card.Fields)-1, row+max(len(d.Records), 1))
	if err := f.AddTable(name, &excelize.Table{
		Range:     origin + ":" + end,
		Name:      "Cards",
		StyleName: "TableStyleMedium2",
	}); err != nil {
		t.Fatalf("Failed to add table: %v", err)
	}

	if len(d.Options) > 0 {
		if _, err := f.NewSheet("Opt"); err != nil {
			t.Fatalf("Failed to create option sheet: %v", err)
		}
		i := 1
		for label, value := range d.Options {
			if err := f.SetSheetRow("Opt", fmt.Sprintf("A%d", i), &[]any{label, value}); err != nil {
				t.Fatalf("Failed to write option %s: %v", label, err)
			}
			i++
		}
	}
	return f
}

// NewDeck builds the workbook and wraps it as an in-memory grid
func NewDeck(t *testing.T, d Deck) *sheet.XLSX {
	t.Helper()

	x := sheet.NewXLSX(d.Build(t), "")
	if err := x.SetActiveSheet(d.sheetName()); err != nil {
		t.Fatalf("Failed to activate sheet: %v", err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x
}

// SaveDeck writes the workbook into a temporary directory and returns its path
func SaveDeck(t *testing.T, d Deck) string {
	t.Helper()

	f := d.Build(t)
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	_ = f.Close()
	return path
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContent checks if a file has expected content
func AssertFileContent(t *testing.T, path string, expected []byte) {
	t.Helper()

	actual, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	if string(actual) != string(expected) {
		t.Errorf("File content mismatch in %s\nExpected: %q\nActual: %q", path, expected, actual)
	}
}
