package index

import (
	"fmt"
	"strings"
)

// Entry is one line of the generated listing.
type Entry struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Label turns a relative path into display text: the file name followed by
// " in <dir>" for every ancestor directory, nearest first. "." components are
// dropped, so "./docs/a.html" and "docs/a.html" read the same.
func Label(rel string) string {
	parts := strings.Split(strings.ReplaceAll(rel, "\\", "/"), "/")
	if len(parts) == 1 {
		return parts[0]
	}
	var b strings.Builder
	b.WriteString(parts[len(parts)-1])
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == "." {
			continue
		}
		b.WriteString(" in ")
		b.WriteString(parts[i])
	}
	return b.String()
}

// Entries pairs every path with its label, keeping the input order.
func Entries(paths []string) []Entry {
	out := make([]Entry, 0, len(paths))
	for _, p := range paths {
		out = append(out, Entry{Path: p, Label: Label(p)})
	}
	return out
}

// Render writes one list item per entry. Paths and labels are emitted verbatim.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("<li><a href = '%s'>%s</a></li>\n", e.Path, e.Label))
	}
	return b.String()
}
