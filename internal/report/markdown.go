package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"htmlindex/internal/index"
)

// Summary captures high-level run details for the report.
type Summary struct {
	RootPath        string
	HostPath        string
	StartedAt       time.Time
	FinishedAt      time.Time
	Inserted        bool
	Replaced        int
	JSONPath        string
	RepoBlobBaseURL string // e.g. https://github.com/owner/repo/blob/<sha>
}

// WriteMarkdown writes a GitHub-flavored Markdown report to path. If path is empty,
// it derives a safe filename from s.RootPath.
func WriteMarkdown(path string, entries []index.Entry, s Summary) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = fmt.Sprintf("%s.md", safeBase(s.RootPath))
	}

	var buf bytes.Buffer
	buf.WriteString("## HTML Index Report\n\n")
	buf.WriteString(fmt.Sprintf("- **Root**: %s\n", escapeMD(s.RootPath)))
	buf.WriteString(fmt.Sprintf("- **Host**: %s\n", escapeMD(s.HostPath)))
	buf.WriteString(fmt.Sprintf("- **Started**: %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST")))
	buf.WriteString(fmt.Sprintf("- **Finished**: %s\n", s.FinishedAt.Format("2006-01-02 15:04:05 MST")))
	buf.WriteString(fmt.Sprintf("- **Entries**: %d  •  **Replaced lines**: %d\n", len(entries), s.Replaced))
	if !s.Inserted {
		buf.WriteString("- **Warning**: end marker not found, listing was not inserted\n")
	}
	if s.JSONPath != "" {
		buf.WriteString(fmt.Sprintf("- **JSON**: %s\n", escapeMD(filepath.Base(s.JSONPath))))
	}
	buf.WriteString("\n### Pages\n\n")

	if len(entries) == 0 {
		buf.WriteString("_No pages found._\n")
	}
	for _, e := range entries {
		if strings.TrimSpace(s.RepoBlobBaseURL) != "" {
			buf.WriteString(fmt.Sprintf("- [%s](%s/%s)\n", escapeMD(e.Label), strings.TrimRight(s.RepoBlobBaseURL, "/"), escapeLinkPath(e.Path)))
		} else {
			buf.WriteString(fmt.Sprintf("- [%s](./%s)\n", escapeMD(e.Label), escapeLinkPath(e.Path)))
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteJSON writes entries as an indented JSON array. An empty path derives
// a filename from root.
func WriteJSON(path, root string, entries []index.Entry) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = fmt.Sprintf("%s.json", safeBase(root))
	}
	if entries == nil {
		entries = []index.Entry{}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func safeBase(root string) string {
	base := filepath.Base(root)
	if strings.TrimSpace(base) == "" || base == "." || base == string(filepath.Separator) {
		base = "index"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func escapeMD(s string) string {
	return html.EscapeString(s)
}

// escapeLinkPath escapes a relative path for inclusion in a Markdown link URL.
// We keep it simple and only escape parentheses and spaces.
func escapeLinkPath(p string) string {
	p = strings.ReplaceAll(p, " ", "%20")
	p = strings.ReplaceAll(p, "(", "%28")
	p = strings.ReplaceAll(p, ")", "%29")
	return p
}
