package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/cardsheet/internal"
	"codeberg.org/snonux/cardsheet/internal/card"
)

// APKGWriter creates Anki package files (.apkg). Media stay remote: image
// and sound fields reference their URLs.
type APKGWriter struct {
	deckName string
	deckID   int64
	modelID  int64
}

// NewAPKGWriter creates a writer for the named deck
func NewAPKGWriter(deckName string) *APKGWriter {
	// IDs based on timestamp to keep decks from different exports apart
	now := time.Now().UnixMilli()
	return &APKGWriter{
		deckName: deckName,
		deckID:   now,
		modelID:  now + 1,
	}
}

// Write creates the .apkg file at outputPath
func (w *APKGWriter) Write(outputPath string, records card.Collection) error {
	tempDir, err := os.MkdirTemp("", "cardsheet_apkg_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := os.WriteFile(filepath.Join(tempDir, "media"), []byte("{}"), 0644); err != nil {
		return fmt.Errorf("failed to create media mapping: %w", err)
	}

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := w.createDatabase(dbPath, records); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if err := createZipPackage(tempDir, outputPath); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}
	return nil
}

func (w *APKGWriter) createDatabase(dbPath string, records card.Collection) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := createTables(db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if err := w.insertCollection(db); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	if err := w.insertNotesAndCards(db, records); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE col (
		id integer PRIMARY KEY,
		crt integer NOT NULL,
		mod integer NOT NULL,
		scm integer NOT NULL,
		ver integer NOT NULL,
		dty integer NOT NULL,
		usn integer NOT NULL,
		ls integer NOT NULL,
		conf text NOT NULL,
		models text NOT NULL,
		decks text NOT NULL,
		dconf text NOT NULL,
		tags text NOT NULL
	)`,
	`CREATE TABLE notes (
		id integer PRIMARY KEY,
		guid text NOT NULL,
		mid integer NOT NULL,
		mod integer NOT NULL,
		usn integer NOT NULL,
		tags text NOT NULL,
		flds text NOT NULL,
		sfld text NOT NULL,
		csum integer NOT NULL,
		flags integer NOT NULL,
		data text NOT NULL
	)`,
	`CREATE TABLE cards (
		id integer PRIMARY KEY,
		nid integer NOT NULL,
		did integer NOT NULL,
		ord integer NOT NULL,
		mod integer NOT NULL,
		usn integer NOT NULL,
		type integer NOT NULL,
		queue integer NOT NULL,
		due integer NOT NULL,
		ivl integer NOT NULL,
		factor integer NOT NULL,
		reps integer NOT NULL,
		lapses integer NOT NULL,
		left integer NOT NULL,
		odue integer NOT NULL,
		odid integer NOT NULL,
		flags integer NOT NULL,
		data text NOT NULL
	)`,
	`CREATE TABLE revlog (
		id integer PRIMARY KEY,
		cid integer NOT NULL,
		usn integer NOT NULL,
		ease integer NOT NULL,
		ivl integer NOT NULL,
		lastIvl integer NOT NULL,
		factor integer NOT NULL,
		time integer NOT NULL,
		type integer NOT NULL
	)`,
	`CREATE TABLE graves (
		usn integer NOT NULL,
		oid integer NOT NULL,
		type integer NOT NULL
	)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

func createTables(db *sql.DB) error {
	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func deckConfig(id int64, name string, now int64) map[string]any {
	return map[string]any{
		"id":               id,
		"name":             name,
		"mod":              now,
		"desc":             "",
		"collapsed":        false,
		"dyn":              0,
		"conf":             1,
		"usn":              0,
		"newToday":         []int{0, 0},
		"revToday":         []int{0, 0},
		"lrnToday":         []int{0, 0},
		"timeToday":        []int{0, 0},
		"browserCollapsed": false,
		"extendNew":        10,
		"extendRev":        50,
	}
}

func (w *APKGWriter) insertCollection(db *sql.DB) error {
	now := time.Now().Unix()

	decks := map[string]any{"1": deckConfig(1, "Default", now)}
	decks[fmt.Sprint(w.deckID)] = deckConfig(w.deckID, w.deckName, now)
	models := map[string]any{
		fmt.Sprint(w.modelID): w.noteType(now),
	}
	conf := map[string]any{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      fmt.Sprint(w.modelID),
		"dayLearnFirst": false,
	}
	dconf := map[string]any{
		"1": map[string]any{
			"id":   1,
			"name": "Default",
			"dyn":  0,
			"new": map[string]any{
				"delays":        []int{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"perDay":        20,
				"order":         1,
				"bury":          true,
				"separate":      true,
			},
			"lapse": map[string]any{
				"delays":      []int{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
			"rev": map[string]any{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"maxIvl":   36500,
				"ivlFct":   1,
				"bury":     true,
				"minSpace": 1,
			},
			"timer":    0,
			"maxTaken": 60,
			"usn":      0,
			"mod":      now,
			"autoplay": true,
			"replayq":  true,
		},
	}

	encoded := make([]string, 0, 4)
	for _, v := range []any{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal collection config: %w", err)
		}
		encoded = append(encoded, string(data))
	}

	_, err := db.Exec(`INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		1,        // id
		now,      // crt
		now*1000, // mod
		now*1000, // scm
		11,       // ver (schema version)
		0,        // dty
		0,        // usn
		0,        // ls
		encoded[0],
		encoded[1],
		encoded[2],
		encoded[3],
		"{}", // tags
	)
	return err
}

// noteType has one field per text column of the table
func (w *APKGWriter) noteType(now int64) map[string]any {
	fields := card.Fields[:len(card.Fields)-1]
	flds := make([]map[string]any, len(fields))
	for i, name := range fields {
		flds[i] = map[string]any{
			"name":   name,
			"ord":    i,
			"sticky": false,
			"rtl":    false,
			"font":   "Arial",
			"size":   20,
			"media":  []string{},
		}
	}

	return map[string]any{
		"id":        w.modelID,
		"name":      "cardsheet (Basic)",
		"type":      0,
		"mod":       now,
		"usn":       -1,
		"sortf":     0,
		"did":       w.deckID,
		"req":       [][]any{{0, "all", []int{0}}},
		"vers":      []int{},
		"tags":      []string{},
		"latexPre":  `\documentclass[12pt]{article}\begin{document}`,
		"latexPost": `\end{document}`,
		"flds":      flds,
		"tmpls": []map[string]any{
			{
				"name":  "Card 1",
				"ord":   0,
				"qfmt":  frontTemplate,
				"afmt":  backTemplate,
				"did":   nil,
				"bqfmt": "",
				"bafmt": "",
			},
		},
		"css": css,
	}
}

const frontTemplate = `<div class="front">{{Front}}</div>
{{#Hint}}<div class="hint">{{hint:Hint}}</div>{{/Hint}}`

const backTemplate = `{{FrontSide}}

<hr id="answer">

<div class="back">{{Back}}</div>
{{#Image}}<div class="image">{{Image}}</div>{{/Image}}
{{#Sound}}<div class="sound">{{Sound}}</div>{{/Sound}}
{{#Context}}<div class="context">{{Context}}</div>{{/Context}}`

const css = `.card {
  font-family: Arial, sans-serif;
  font-size: 20px;
  text-align: center;
}

.image img {
  max-width: 100%;
  height: auto;
}

.context {
  font-size: 16px;
  font-style: italic;
}`

// noteFields renders the text fields of a record for a note
func noteFields(r card.Record) string {
	image := r.Image
	if internal.IsValidURL(image) {
		image = fmt.Sprintf(`<img src="%s">`, html.EscapeString(image))
	}
	sound := r.Sound
	if internal.IsValidURL(sound) {
		sound = fmt.Sprintf(`<audio controls src="%s"></audio>`, html.EscapeString(sound))
	}

	// Fields are joined with the unit separator (ASCII 31)
	return strings.Join([]string{r.Front, r.Back, image, r.Hint, r.Context, sound}, "\x1f")
}

func (w *APKGWriter) insertNotesAndCards(db *sql.DB, records card.Collection) error {
	now := time.Now()

	for i, r := range records {
		noteID := now.UnixMilli() + int64(i*2)
		cardID := noteID + 1

		_, err := db.Exec(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			noteID,                           // id
			internal.GenerateCardID(r.Front), // guid
			w.modelID,                        // mid
			now.Unix(),                       // mod
			-1,                               // usn
			"",                               // tags
			noteFields(r),                    // flds
			r.Front,                          // sfld (sort field)
			0,                                // csum
			0,                                // flags
			"",                               // data
		)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		_, err = db.Exec(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cardID,     // id
			noteID,     // nid
			w.deckID,   // did
			0,          // ord
			now.Unix(), // mod
			-1,         // usn
			0,          // type (0=new)
			0,          // queue (0=new)
			i+1,        // due (position for new cards)
			0,          // ivl
			0,          // factor
			0,          // reps
			0,          // lapses
			0,          // left
			0,          // odue
			0,          // odid
			0,          // flags
			"",         // data
		)
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
	}
	return nil
}

func createZipPackage(tempDir, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)
	for _, name := range []string{"collection.anki2", "media"} {
		if err := addZipEntry(archive, filepath.Join(tempDir, name), name); err != nil {
			_ = archive.Close()
			return err
		}
	}
	return archive.Close()
}

func addZipEntry(archive *zip.Writer, path, name string) error {
	writer, err := archive.Create(name)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}
