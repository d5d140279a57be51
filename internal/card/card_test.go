package card

import (
	"reflect"
	"testing"
)

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		wantErr bool
	}{
		{
			name:   "exact header",
			header: []string{"Front", "Back", "Image", "Hint", "Context", "Sound", "Exported"},
		},
		{
			name:   "surrounding spaces",
			header: []string{"Front ", "Back", "Image", "Hint", "Context", "Sound", " Exported"},
		},
		{
			name:    "reordered",
			header:  []string{"Back", "Front", "Image", "Hint", "Context", "Sound", "Exported"},
			wantErr: true,
		},
		{
			name:    "missing column",
			header:  []string{"Front", "Back", "Image", "Hint", "Context", "Sound"},
			wantErr: true,
		},
		{
			name:    "empty",
			header:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromRowAndValues(t *testing.T) {
	row := []string{"a", "b", "http://x/i.png", "h", "c", "http://x/s.mp3", "TRUE"}
	rec := FromRow(row)

	want := Record{
		Front:    "a",
		Back:     "b",
		Image:    "http://x/i.png",
		Hint:     "h",
		Context:  "c",
		Sound:    "http://x/s.mp3",
		Exported: true,
	}
	if rec != want {
		t.Fatalf("FromRow() = %+v, want %+v", rec, want)
	}

	values := rec.Values()
	if len(values) != len(Fields) {
		t.Fatalf("Values() returned %d cells, want %d", len(values), len(Fields))
	}
	if values[Index(FieldExported)] != true {
		t.Errorf("Exported cell = %v, want true", values[Index(FieldExported)])
	}
	if values[Index(FieldSound)] != "http://x/s.mp3" {
		t.Errorf("Sound cell = %v", values[Index(FieldSound)])
	}
}

func TestFromRowShortRow(t *testing.T) {
	rec := FromRow([]string{"only front"})
	if rec != New("only front") {
		t.Errorf("FromRow() = %+v", rec)
	}
}

func TestParseBool(t *testing.T) {
	tests := map[string]bool{
		"TRUE":  true,
		"true":  true,
		"1":     true,
		" Yes ": true,
		"FALSE": false,
		"0":     false,
		"":      false,
		"maybe": false,
	}
	for in, want := range tests {
		if got := ParseBool(in); got != want {
			t.Errorf("ParseBool(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCollectionPendingAndMarkExported(t *testing.T) {
	c := Collection{
		{Front: "a"},
		{Front: "b", Exported: true},
		{Front: "c"},
	}

	pending := c.Pending()
	var fronts []string
	for _, r := range pending {
		fronts = append(fronts, r.Front)
	}
	if !reflect.DeepEqual(fronts, []string{"a", "c"}) {
		t.Errorf("Pending() fronts = %v", fronts)
	}

	c.MarkExported()
	for i, r := range c {
		if !r.Exported {
			t.Errorf("record %d not marked exported", i)
		}
	}
}

func TestTextValuesDropsExported(t *testing.T) {
	rec := Record{Front: "f", Back: "b", Exported: true}
	got := rec.TextValues()
	if len(got) != len(Fields)-1 {
		t.Fatalf("TextValues() len = %d", len(got))
	}
	if got[0] != "f" || got[1] != "b" {
		t.Errorf("TextValues() = %v", got)
	}
}
