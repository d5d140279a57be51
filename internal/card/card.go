package card

import (
	"fmt"
	"strings"
)

// Field names in header order. This order is the contract between a Record
// and a table row and is used for both reading and writing.
const (
	FieldFront    = "Front"
	FieldBack     = "Back"
	FieldImage    = "Image"
	FieldHint     = "Hint"
	FieldContext  = "Context"
	FieldSound    = "Sound"
	FieldExported = "Exported"
)

// Fields lists the table columns in order
var Fields = []string{
	FieldFront,
	FieldBack,
	FieldImage,
	FieldHint,
	FieldContext,
	FieldSound,
	FieldExported,
}

// Record represents one flashcard, i.e. one data row of the deck table
type Record struct {
	Front    string // Question side, may contain markup
	Back     string // Answer side, may contain markup
	Image    string // Image URL
	Hint     string // Optional hint
	Context  string // Optional usage context
	Sound    string // Sound URL
	Exported bool   // Set once the card was written to an export file
}

// Collection is a snapshot of all data rows of a table. Position is the row
// index within the table body.
type Collection []Record

// New creates a record with only the front side set
func New(front string) Record {
	return Record{Front: front}
}

// Index returns the position of a field name in Fields, or -1
func Index(field string) int {
	for i, f := range Fields {
		if f == field {
			return i
		}
	}
	return -1
}

// ValidateHeader checks that header labels match Fields exactly
func ValidateHeader(header []string) error {
	if len(header) != len(Fields) {
		return fmt.Errorf("expected %d columns %v, got %d %v", len(Fields), Fields, len(header), header)
	}
	for i, label := range header {
		if strings.TrimSpace(label) != Fields[i] {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, Fields[i], label)
		}
	}
	return nil
}

// FromRow builds a record from cell texts in Fields order. Missing trailing
// cells are treated as empty.
func FromRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Front:    cell(0),
		Back:     cell(1),
		Image:    cell(2),
		Hint:     cell(3),
		Context:  cell(4),
		Sound:    cell(5),
		Exported: ParseBool(cell(6)),
	}
}

// Values returns the cell values in Fields order
func (r Record) Values() []any {
	return []any{r.Front, r.Back, r.Image, r.Hint, r.Context, r.Sound, r.Exported}
}

// TextValues returns the text fields without the Exported flag, as written
// to export files
func (r Record) TextValues() []string {
	return []string{r.Front, r.Back, r.Image, r.Hint, r.Context, r.Sound}
}

// Side returns the front text when isFront is set, the back text otherwise
func (r Record) Side(isFront bool) string {
	if isFront {
		return r.Front
	}
	return r.Back
}

// IsBlank reports whether every field is empty
func (r Record) IsBlank() bool {
	return r == Record{}
}

// ParseBool reads a boolean cell value
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Rows converts the collection to cell values for a table body
func (c Collection) Rows() [][]any {
	rows := make([][]any, len(c))
	for i, r := range c {
		rows[i] = r.Values()
	}
	return rows
}

// Pending returns the records that were not exported yet
func (c Collection) Pending() Collection {
	var pending Collection
	for _, r := range c {
		if !r.Exported {
			pending = append(pending, r)
		}
	}
	return pending
}

// MarkExported flags every record as exported
func (c Collection) MarkExported() {
	for i := range c {
		c[i].Exported = true
	}
}
