package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"htmlindex/internal/generate"
	"htmlindex/internal/report"
	"htmlindex/internal/scan"
	"htmlindex/internal/splice"
)

// Set via -ldflags "-X htmlindex/cmd.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "htmlindex",
	Short: "Regenerate the page listing inside index.html",
	Long: "htmlindex scans a directory tree for HTML files and rewrites the list between the\n" +
		"<!-- Insert Here --> and <!-- End Here --> markers of the host page.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(debug)
		defer func() { _ = logger.Sync() }()

		cfg := buildConfig()
		cfg.DryRun = dryRun
		out, err := generate.Run(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		if dryRun {
			_, err := cmd.OutOrStdout().Write(out.Document)
			return err
		}

		var jsonPath string
		if jsonOut != "" {
			p, err := report.WriteJSON(jsonOut, out.Root, out.Entries)
			if err != nil {
				return err
			}
			jsonPath = p
		}
		if mdOut != "" {
			base := repoBlobBase
			if strings.TrimSpace(base) == "" {
				base = os.Getenv("HTMLINDEX_REPO_BLOB_BASE_URL")
			}
			summary := report.Summary{
				RootPath:        out.Root,
				HostPath:        out.HostPath,
				StartedAt:       out.StartedAt,
				FinishedAt:      out.FinishedAt,
				Inserted:        out.Splice.Inserted,
				Replaced:        out.Splice.Discarded,
				JSONPath:        jsonPath,
				RepoBlobBaseURL: base,
			}
			if _, err := report.WriteMarkdown(mdOut, out.Entries, summary); err != nil {
				return err
			}
		}

		if !quiet {
			ok := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d pages listed in %s\n", ok.Render("✓"), len(out.Entries), out.HostPath)
		}
		return nil
	},
}

var (
	rootDir          string
	hostFile         string
	filter           string
	strictSuffix     bool
	exclude          []string
	respectGitignore bool
	sortPaths        bool
	startMarker      string
	endMarker        string
	debug            bool

	dryRun       bool
	quiet        bool
	jsonOut      string
	mdOut        string
	repoBlobBase string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootDir, "dir", ".", "directory to scan; links are relative to it")
	pf.StringVar(&hostFile, "host", generate.DefaultHost, "host page holding the markers (relative to --dir)")
	pf.StringVar(&filter, "filter", scan.DefaultFilter, "text a file name must contain to be listed")
	pf.BoolVar(&strictSuffix, "strict-suffix", false, "require file names to end with --filter")
	pf.StringSliceVar(&exclude, "exclude", nil, "glob patterns (doublestar) of paths to skip")
	pf.BoolVar(&respectGitignore, "respect-gitignore", false, "skip paths ignored by .gitignore")
	pf.BoolVar(&sortPaths, "sort", false, "sort the listing by path instead of directory order")
	pf.StringVar(&startMarker, "start-marker", splice.StartMarker, "line marking the start of the generated region")
	pf.StringVar(&endMarker, "end-marker", splice.EndMarker, "line marking the end of the generated region")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	f := rootCmd.Flags()
	f.BoolVar(&dryRun, "dry-run", false, "print the rewritten host page instead of writing it")
	f.BoolVarP(&quiet, "quiet", "q", false, "suppress the summary line")
	f.StringVar(&jsonOut, "json-out", "", "path to write the listing as JSON")
	f.StringVar(&mdOut, "md-out", "", "path to write a Markdown report")
	f.StringVar(&repoBlobBase, "repo-blob-base", "", "override GitHub blob base URL for report links (e.g. https://github.com/owner/repo/blob/<sha>)")
}

func buildConfig() generate.Config {
	return generate.Config{
		Root: rootDir,
		Host: hostFile,
		Scan: scan.Options{
			Filter:           filter,
			StrictSuffix:     strictSuffix,
			Exclude:          exclude,
			RespectGitignore: respectGitignore,
			Sort:             sortPaths,
		},
		Markers: splice.Markers{Start: startMarker, End: endMarker},
	}
}

func Execute() {
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}
