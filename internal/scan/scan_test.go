package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, []byte("<html></html>\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func TestScan_RootFilesBeforeSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"page.html",
		"docs/guide.html",
		"docs/deep/nested.html",
		"b/x.html",
		"z.html",
		"notes.txt",
	)

	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{
		"page.html",
		"z.html",
		"b/x.html",
		"docs/guide.html",
		"docs/deep/nested.html",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScan_SubstringFilter(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.html", "a.html.bak", "b.htm", "c.HTML", "d.xhtml")

	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"a.html", "a.html.bak"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}

	strict, err := Scan(root, Options{StrictSuffix: true})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	wantStrict := []string{"a.html"}
	if !reflect.DeepEqual(strict, wantStrict) {
		t.Fatalf("Scan strict = %v, want %v", strict, wantStrict)
	}
}

func TestScan_CustomFilter(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.md", "b.html", "sub/c.md")

	got, err := Scan(root, Options{Filter: ".md"})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"a.md", "sub/c.md"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScan_EmptyTree(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no files, got %v", got)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), Options{})
	if err == nil {
		t.Fatalf("expected error for missing root")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestScan_Exclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.html", "drafts/b.html", "drafts/old/c.html", "docs/d.html", "docs/e.tmp.html")

	got, err := Scan(root, Options{Exclude: []string{"drafts/**", "**/*.tmp.html"}})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"a.html", "docs/d.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScan_InvalidExclude(t *testing.T) {
	if _, err := Scan(t.TempDir(), Options{Exclude: []string{"[oops"}}); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}

func TestScan_RespectGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.html", "build/out.html", "keep/b.html", "keep/skip.html", ".git/x.html")
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\nkeep/skip.html\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Scan(root, Options{RespectGitignore: true})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"a.html", "keep/b.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}

	all, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("without gitignore expected 5 files, got %v", all)
	}
}

func TestScan_Sort(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "z.html", "a/b.html", "m.html")

	got, err := Scan(root, Options{Sort: true})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"a/b.html", "m.html", "z.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScan_OnFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.html", "sub/b.html", "c.txt")

	var seen []string
	got, err := Scan(root, Options{OnFile: func(rel string) { seen = append(seen, rel) }})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if !reflect.DeepEqual(seen, got) {
		t.Fatalf("OnFile saw %v, Scan returned %v", seen, got)
	}
}

func TestScan_SymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.html", "sub/b.html")
	if err := os.Symlink(root, filepath.Join(root, "sub", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"a.html", "sub/b.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScan_SymlinkCycleRelativeRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.html", "sub/b.html")
	if err := os.Symlink(root, filepath.Join(root, "sub", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	t.Chdir(root)

	for _, dir := range []string{".", "", "sub/.."} {
		got, err := Scan(dir, Options{})
		if err != nil {
			t.Fatalf("Scan(%q) error: %v", dir, err)
		}
		want := []string{"a.html", "sub/b.html"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Scan(%q) = %v, want %v", dir, got, want)
		}
	}
}

func TestScan_FollowsDirectorySymlink(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeTree(t, other, "linked.html")
	if err := os.Symlink(other, filepath.Join(root, "ext")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{"ext/linked.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		name   string
		filter string
		strict bool
		want   bool
	}{
		{"a.html", "", false, true},
		{"a.html.orig", "", false, true},
		{"a.html.orig", "", true, false},
		{"a.htm", ".html", false, false},
		{"A.HTML", ".html", false, false},
		{"readme.md", ".md", true, true},
	}
	for _, c := range cases {
		if got := Matches(c.name, c.filter, c.strict); got != c.want {
			t.Errorf("Matches(%q, %q, %v) = %v, want %v", c.name, c.filter, c.strict, got, c.want)
		}
	}
}
