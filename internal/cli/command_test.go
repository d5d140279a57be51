package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"codeberg.org/snonux/cardsheet/internal/anki"
	"codeberg.org/snonux/cardsheet/internal/card"
	"codeberg.org/snonux/cardsheet/internal/processor"
	"codeberg.org/snonux/cardsheet/internal/search"
	"codeberg.org/snonux/cardsheet/internal/sheet"
	"codeberg.org/snonux/cardsheet/internal/testutil"
)

// run executes the root command with an empty config file
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cfg := filepath.Join(t.TempDir(), "cardsheet.yaml")
	testutil.CreateTestFile(t, cfg, nil)

	cmd := CreateRootCommand(NewFlags())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readDeck(t *testing.T, path string) card.Collection {
	t.Helper()
	x, err := sheet.OpenXLSX(path)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer x.Close()
	c, err := sheet.NewStore(x).Read(context.Background())
	if err != nil {
		t.Fatalf("Failed to read cards: %v", err)
	}
	return c
}

func TestCreateRootCommand(t *testing.T) {
	cmd := CreateRootCommand(NewFlags())

	if cmd.Use != "cardsheet" {
		t.Errorf("Expected Use to be 'cardsheet', got %s", cmd.Use)
	}

	for _, name := range []string{"import", "images", "sounds", "translate", "hints", "export", "browse", "models"} {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Errorf("Expected subcommand %s, got %v", name, err)
		}
	}

	for _, name := range []string{"config", "sheet", "preview-cell", "image-url", "sound-url", "timeout", "log-level", "log-format"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag %s to exist", name)
		}
	}
}

func TestImportCommand(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{Records: card.Collection{{Front: "ябълка", Back: "apple"}}})
	words := filepath.Join(t.TempDir(), "words.txt")
	testutil.CreateTestFile(t, words, []byte("котка\ncat\n\nкуче\ndog\n"))

	out, err := run(t, "", "import", "--from", words, deck)
	if err != nil {
		t.Fatalf("import failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 2 cards") {
		t.Errorf("Unexpected output: %s", out)
	}

	got := readDeck(t, deck)
	if len(got) != 3 {
		t.Fatalf("Expected 3 cards, got %d", len(got))
	}
	if got[2].Front != "куче" || got[2].Back != "dog" {
		t.Errorf("Unexpected last card: %+v", got[2])
	}
}

func TestImportCommandFromStdin(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{})

	if _, err := run(t, "котка\ncat\n", "import", "--from", "-", deck); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if got := readDeck(t, deck); len(got) != 1 || got[0].Back != "cat" {
		t.Errorf("Unexpected cards: %+v", got)
	}
}

func TestImportCommandStrict(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{})

	out, err := run(t, "котка\ncat\nextra\nкуче\ndog\n", "import", "--from", "-", "--strict", deck)
	if !errors.Is(err, processor.ErrMalformedImport) {
		t.Fatalf("Expected ErrMalformedImport, got %v", err)
	}
	if !strings.Contains(out, "line 3") {
		t.Errorf("Expected the malformed group to be reported, got %s", out)
	}
	if got := readDeck(t, deck); len(got) != 0 {
		t.Errorf("Expected no cards after a rejected import, got %d", len(got))
	}
}

func TestSoundsCommand(t *testing.T) {
	const template = "https://snd.example/tts?q="
	deck := testutil.SaveDeck(t, testutil.Deck{
		Records: card.Collection{{Front: "<b>ябълка</b>", Back: "apple"}, {Front: "куче", Sound: "https://x/dog.mp3"}},
		Options: map[string]string{"LANG_SOUND_URL": template},
	})

	out, err := run(t, "", "sounds", deck)
	if err != nil {
		t.Fatalf("sounds failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 updated, 1 skipped") {
		t.Errorf("Unexpected output: %s", out)
	}

	got := readDeck(t, deck)
	if want := search.SoundURL("ябълка", template); got[0].Sound != want {
		t.Errorf("Expected %s, got %s", want, got[0].Sound)
	}
	if got[1].Sound != "https://x/dog.mp3" {
		t.Errorf("Expected existing sound to be kept, got %s", got[1].Sound)
	}
}

func TestSoundsCommandFlagOverridesOption(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{Records: card.Collection{{Front: "котка"}}})

	if _, err := run(t, "", "sounds", "--back=false", "--sound-url", "https://other.example/?q=", deck); err != nil {
		t.Fatalf("sounds failed: %v", err)
	}
	if got := readDeck(t, deck); !strings.HasPrefix(got[0].Sound, "https://other.example/?q=") {
		t.Errorf("Unexpected sound url %s", got[0].Sound)
	}
}

func TestSoundsCommandMissingOption(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{Records: card.Collection{{Front: "котка"}}})

	_, err := run(t, "", "sounds", deck)
	if !errors.Is(err, sheet.ErrOptionNotFound) {
		t.Errorf("Expected ErrOptionNotFound, got %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{Records: card.Collection{
		{Front: "ябълка", Back: "apple", Exported: true},
		{Front: "котка", Back: "cat"},
	}})
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "", "export", "--output", outDir, deck)
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 1 cards") {
		t.Errorf("Unexpected output: %s", out)
	}

	data, err := os.ReadFile(filepath.Join(outDir, anki.DefaultCSVFile))
	if err != nil {
		t.Fatalf("Expected CSV export: %v", err)
	}
	if strings.Contains(string(data), "ябълка") || !strings.Contains(string(data), "котка") {
		t.Errorf("Expected only the pending card, got %q", data)
	}

	for i, rec := range readDeck(t, deck) {
		if !rec.Exported {
			t.Errorf("Expected card %d to be marked exported", i)
		}
	}
}

func TestExportCommandUnknownFormat(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{Records: card.Collection{{Front: "котка"}}})

	if _, err := run(t, "", "export", "--format", "pdf", deck); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestUnknownSheet(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{})

	_, err := run(t, "", "--sheet", "Missing", "sounds", deck)
	if !errors.Is(err, sheet.ErrSheetNotFound) {
		t.Errorf("Expected ErrSheetNotFound, got %v", err)
	}
}

func TestBrowseCommand(t *testing.T) {
	deck := testutil.SaveDeck(t, testutil.Deck{
		Origin:  "B3",
		Records: card.Collection{{Front: "ябълка", Image: "https://img/apple.png", Sound: "https://snd/apple.mp3"}},
	})

	out, err := run(t, "\nD4\nZZ\nG4\nq\nD4\n", "browse", "--player", "no-such-player-installed", deck)
	if err != nil {
		t.Fatalf("browse failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Watching Deck") {
		t.Errorf("Expected bound sheets in output, got %s", out)
	}
	if !strings.Contains(out, "sound cells are ignored") {
		t.Errorf("Expected missing player warning, got %s", out)
	}
	if !strings.Contains(out, "ZZ:") {
		t.Errorf("Expected invalid reference warning, got %s", out)
	}

	x, err := sheet.OpenXLSX(deck)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer x.Close()
	f, err := x.File().GetCellFormula("Deck", "D1")
	if err != nil {
		t.Fatalf("Failed to read formula: %v", err)
	}
	if f != `IMAGE("https://img/apple.png")` {
		t.Errorf("Unexpected preview formula %q", f)
	}
}

func TestModelsCommandRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CARDSHEET_OPENAI_API_KEY", "")

	if _, err := run(t, "", "models"); err == nil {
		t.Error("Expected error without API key")
	}
}
