package anki

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/cardsheet/internal/card"
	"codeberg.org/snonux/cardsheet/internal/testutil"
)

func TestWriteCSV(t *testing.T) {
	records := card.Collection{
		{Front: "ябълка", Back: "apple", Image: "https://img/1.png", Exported: true},
		{Front: `say "hi"`, Back: "a;b", Context: "line1\nline2"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "\uFEFF" +
		`"ябълка";"apple";"https://img/1.png";"";"";""` + "\n" +
		`"say ""hi""";"a;b";"";"";"line1` + "\n" + `line2";""` + "\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestWriteCSVStartsWithBOM(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Errorf("Expected only the BOM, got %v", buf.Bytes())
	}
}

func TestWriteCSVFieldCount(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, card.Collection{{Front: "x"}}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	row := strings.TrimPrefix(strings.TrimSuffix(buf.String(), "\n"), "\uFEFF")
	if got := strings.Count(row, `";"`) + 1; got != len(card.Fields)-1 {
		t.Errorf("Expected %d fields, got %d", len(card.Fields)-1, got)
	}
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultCSVFile)
	if err := WriteCSVFile(path, card.Collection{{Front: "a", Back: "b"}}); err != nil {
		t.Fatalf("WriteCSVFile failed: %v", err)
	}
	testutil.AssertFileContent(t, path, []byte("\uFEFF\"a\";\"b\";\"\";\"\";\"\";\"\"\n"))
}
