package anki

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/cardsheet/internal/card"
)

const (
	// DefaultCSVFile is the file name the export writes to
	DefaultCSVFile = "to_anki.csv"

	bom       = "\uFEFF"
	separator = ";"
)

// WriteCSV writes the text fields of the records as Anki import rows. Every
// field is quoted, inner quotes are doubled and the output starts with a
// UTF-8 byte order mark.
func WriteCSV(w io.Writer, records card.Collection) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	for i, r := range records {
		if _, err := bw.WriteString(csvRow(r.TextValues())); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func csvRow(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return strings.Join(quoted, separator) + "\n"
}

// WriteCSVFile writes the records to path
func WriteCSVFile(path string, records card.Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
