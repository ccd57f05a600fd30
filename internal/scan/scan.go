package scan

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultFilter is the token a file name must contain to be listed.
const DefaultFilter = ".html"

// Options tune a scan. The zero value reproduces the plain behavior: substring
// match on DefaultFilter, nothing excluded, directory listing order.
type Options struct {
	Filter           string
	StrictSuffix     bool
	Exclude          []string
	RespectGitignore bool
	Sort             bool
	OnFile           func(rel string)
}

type walker struct {
	filter  string
	strict  bool
	exclude []string
	ign     *ignore.GitIgnore
	onFile  func(string)

	// real paths of the directories on the current descent path
	active map[string]struct{}
}

// Scan walks the tree rooted at rootPath and returns the slash-separated paths,
// relative to rootPath, of every file whose name matches the filter.
// Files directly in a directory come before the files of its subdirectories;
// both are visited in listing order.
func Scan(rootPath string, opts Options) ([]string, error) {
	if strings.TrimSpace(rootPath) == "" {
		rootPath = "."
	}
	cleanRoot := filepath.Clean(rootPath)

	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(filepath.ToSlash(strings.TrimSpace(p))) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	w := &walker{
		filter:  opts.Filter,
		strict:  opts.StrictSuffix,
		exclude: cleanPatterns(opts.Exclude),
		onFile:  opts.OnFile,
		active:  make(map[string]struct{}),
	}
	if w.filter == "" {
		w.filter = DefaultFilter
	}
	if opts.RespectGitignore {
		w.ign = loadGitIgnore(cleanRoot)
	}

	files, err := w.walk(cleanRoot, "", opts.RespectGitignore)
	if err != nil {
		return nil, err
	}
	if opts.Sort {
		sort.Strings(files)
	}
	return files, nil
}

// Matches reports whether name passes the filter token.
func Matches(name, filter string, strictSuffix bool) bool {
	if filter == "" {
		filter = DefaultFilter
	}
	if strictSuffix {
		return strings.HasSuffix(name, filter)
	}
	return strings.Contains(name, filter)
}

func (w *walker) walk(dir, rel string, skipGit bool) ([]string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}
	// Links with absolute targets resolve to absolute paths, so relative
	// roots must be made absolute too for the keys to compare.
	if resolved, err = filepath.Abs(resolved); err != nil {
		return nil, err
	}
	if _, seen := w.active[resolved]; seen {
		return nil, nil
	}
	w.active[resolved] = struct{}{}
	defer delete(w.active, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files, dirs []string
	for _, e := range entries {
		name := e.Name()
		childRel := join(rel, name)
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			// Follow the link; dangling links are treated as plain files.
			if st, serr := os.Stat(filepath.Join(dir, name)); serr == nil {
				isDir = st.IsDir()
			}
		}
		if isDir {
			if skipGit && name == ".git" {
				continue
			}
			if w.skipped(childRel, true) {
				continue
			}
			dirs = append(dirs, name)
			continue
		}
		if !Matches(name, w.filter, w.strict) || w.skipped(childRel, false) {
			continue
		}
		files = append(files, childRel)
		if w.onFile != nil {
			w.onFile(childRel)
		}
	}

	for _, d := range dirs {
		sub, err := w.walk(filepath.Join(dir, d), join(rel, d), skipGit)
		if err != nil {
			return nil, err
		}
		files = append(files, sub...)
	}
	return files, nil
}

func (w *walker) skipped(rel string, isDir bool) bool {
	for _, p := range w.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	if w.ign != nil {
		if isDir {
			return w.ign.MatchesPath(rel + "/")
		}
		return w.ign.MatchesPath(rel)
	}
	return false
}

func join(rel, name string) string {
	if rel == "" {
		return name
	}
	return path.Join(rel, name)
}

func cleanPatterns(globs []string) []string {
	var patterns []string
	for _, g := range globs {
		g = filepath.ToSlash(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		patterns = append(patterns, strings.TrimPrefix(g, "./"))
	}
	return patterns
}

func loadGitIgnore(root string) *ignore.GitIgnore {
	var lines []string
	gi := filepath.Join(root, ".gitignore")
	if b, err := os.ReadFile(gi); err == nil {
		lines = append(lines, strings.Split(string(b), "\n")...)
	}
	ge := filepath.Join(root, ".git", "info", "exclude")
	if b, err := os.ReadFile(ge); err == nil {
		lines = append(lines, strings.Split(string(b), "\n")...)
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
