package batch

import (
	"fmt"
	"strings"

	"codeberg.org/snonux/cardsheet/internal/card"
)

// Group is one three-line block of imported text: front, back and a
// separator line that should be empty
type Group struct {
	Line      int // 1-based line number of the front line
	Front     string
	Back      string
	Extra     string // Content of the separator line
	Malformed bool   // Set when the separator line is not empty
}

// Record converts the group into a new card
func (g Group) Record() card.Record {
	r := card.New(g.Front)
	r.Back = g.Back
	return r
}

// Problem describes why the group is malformed
func (g Group) Problem() string {
	if !g.Malformed {
		return ""
	}
	return fmt.Sprintf("line %d: unexpected line after %q: %q", g.Line+2, g.Front, g.Extra)
}

// ParseClipboard splits clipboard text into three-line groups. Lines are
// separated by CRLF; bare LF is accepted too. The line ending left by the
// final separator, and empty groups at the end of the text, do not produce
// groups.
func ParseClipboard(text string) []Group {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	var groups []Group
	for i := 0; i < len(lines); i += 3 {
		g := Group{Line: i + 1, Front: lines[i]}
		if i+1 < len(lines) {
			g.Back = lines[i+1]
		}
		if i+2 < len(lines) {
			g.Extra = lines[i+2]
			g.Malformed = strings.TrimSpace(g.Extra) != ""
		}
		groups = append(groups, g)
	}

	for len(groups) > 0 {
		last := groups[len(groups)-1]
		if last.Front != "" || last.Back != "" || last.Extra != "" {
			break
		}
		groups = groups[:len(groups)-1]
	}
	return groups
}

// Records converts all groups, malformed ones included
func Records(groups []Group) card.Collection {
	out := make(card.Collection, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Record())
	}
	return out
}

// Malformed returns the malformed groups
func Malformed(groups []Group) []Group {
	var out []Group
	for _, g := range groups {
		if g.Malformed {
			out = append(out, g)
		}
	}
	return out
}
