package generate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"htmlindex/internal/index"
	"htmlindex/internal/scan"
	"htmlindex/internal/splice"
)

// DefaultHost is the host document, relative to the scan root.
const DefaultHost = "index.html"

type Config struct {
	Root    string
	Host    string // relative paths resolve under Root
	Scan    scan.Options
	Markers splice.Markers
	DryRun  bool
}

// Outcome is what a single generation produced.
type Outcome struct {
	Root       string
	HostPath   string
	Entries    []index.Entry
	Fragment   string
	Splice     splice.Result
	Document   []byte // rewritten host, only set on dry runs
	StartedAt  time.Time
	FinishedAt time.Time
}

// HostPath resolves the host document for cfg.
func (cfg Config) HostPath() string {
	root := cfg.Root
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	host := cfg.Host
	if strings.TrimSpace(host) == "" {
		host = DefaultHost
	}
	if filepath.IsAbs(host) {
		return host
	}
	return filepath.Join(root, host)
}

// Run scans cfg.Root, renders the listing and splices it into the host
// document. A nil logger is replaced by a no-op one.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root := cfg.Root
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	out := Outcome{Root: root, HostPath: cfg.HostPath(), StartedAt: time.Now()}
	log := logger.With(zap.String("root", root), zap.String("host", out.HostPath))

	if err := ctx.Err(); err != nil {
		return out, err
	}

	opts := cfg.Scan
	onFile := opts.OnFile
	opts.OnFile = func(rel string) {
		log.Debug("matched file", zap.String("path", rel))
		if onFile != nil {
			onFile(rel)
		}
	}
	paths, err := scan.Scan(root, opts)
	if err != nil {
		return out, fmt.Errorf("scan %s: %w", root, err)
	}
	log.Debug("scan complete", zap.Int("files", len(paths)))

	out.Entries = index.Entries(paths)
	out.Fragment = index.Render(out.Entries)

	if err := ctx.Err(); err != nil {
		return out, err
	}

	if cfg.DryRun {
		doc, res, err := splice.Preview(out.HostPath, out.Fragment, cfg.Markers)
		if err != nil {
			return out, fmt.Errorf("splice %s: %w", out.HostPath, err)
		}
		out.Document = doc
		out.Splice = res
	} else {
		res, err := splice.File(out.HostPath, out.Fragment, cfg.Markers)
		if err != nil {
			return out, fmt.Errorf("splice %s: %w", out.HostPath, err)
		}
		out.Splice = res
	}
	out.FinishedAt = time.Now()

	if !out.Splice.Inserted {
		log.Warn("end marker not found; listing was not inserted",
			zap.Bool("start_marker", out.Splice.SawStart))
	}
	log.Info("index generated",
		zap.Int("entries", len(out.Entries)),
		zap.Int("replaced_lines", out.Splice.Discarded),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Duration("elapsed", out.FinishedAt.Sub(out.StartedAt)))
	return out, nil
}
