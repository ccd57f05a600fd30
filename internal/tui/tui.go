package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"htmlindex/internal/generate"
	"htmlindex/internal/scan"
)

type generatedMsg struct {
	out generate.Outcome
	err error
}
type fileChangedMsg struct{ path string }
type watchErrorMsg struct{ err error }

type model struct {
	cfg    generate.Config
	logger *zap.Logger

	// generation runs through this so tests can stub it
	run func(context.Context, generate.Config, *zap.Logger) (generate.Outcome, error)

	ctx    context.Context
	cancel context.CancelFunc

	// one-slot channels fed by the watcher goroutine
	changes chan string
	errs    chan error
	// a waitForChange command is outstanding
	waiting bool
	// a change arrived while generating
	pending bool

	spin spinner.Model
	vp   viewport.Model

	lines []string

	runs      int
	failures  int
	lastCount int
	lastAt    time.Time
	busy      bool
}

// Run generates the index once and then regenerates it whenever the set of
// matching files under cfg.Root changes, until the user quits.
func Run(cfg generate.Config, logger *zap.Logger) error {
	m := newModel(cfg, logger)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(cfg generate.Config, logger *zap.Logger) *model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &model{
		cfg:     cfg,
		logger:  logger,
		run:     generate.Run,
		ctx:     ctx,
		cancel:  cancel,
		changes: make(chan string, 1),
		errs:    make(chan error, 1),
	}
	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return m
}

func (m *model) Init() tea.Cmd {
	m.busy = true
	m.lines = append(m.lines, "🔍 Generating index...")
	host, _ := filepath.Abs(m.cfg.HostPath())
	go watchTree(m.ctx, m.root(), host, m.cfg.Scan, m.changes, m.errs, nil, m.logger)
	return tea.Batch(m.spin.Tick, m.generate())
}

func (m *model) generate() tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		out, err := m.run(m.ctx, cfg, m.logger)
		return generatedMsg{out: out, err: err}
	}
}

func (m *model) root() string {
	if strings.TrimSpace(m.cfg.Root) == "" {
		return "."
	}
	return m.cfg.Root
}

// waitForChange blocks until the watcher reports a change or an error.
func (m *model) waitForChange() tea.Cmd {
	if m.waiting {
		return nil
	}
	m.waiting = true
	return func() tea.Msg {
		select {
		case p := <-m.changes:
			return fileChangedMsg{path: p}
		case err := <-m.errs:
			return watchErrorMsg{err: err}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// signal stores v in a one-slot channel, dropping it if a value is already
// waiting there.
func signal[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// watchTree watches root and every directory below it until ctx is done.
// Events that can change the listing are coalesced into changes. ready, when
// non-nil, is closed once the initial directories are registered.
func watchTree(ctx context.Context, root, host string, opts scan.Options, changes chan<- string, errs chan<- error, ready chan<- struct{}, logger *zap.Logger) {
	markReady := func() {
		if ready != nil {
			close(ready)
			ready = nil
		}
	}
	defer markReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		signal(errs, err)
		return
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		signal(errs, err)
		return
	}
	markReady()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					// Register before signalling so files created right after
					// the directory are seen.
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if relevant(event, root, host, opts) {
				logger.Debug("listing change", zap.String("path", event.Name), zap.Stringer("op", event.Op))
				signal(changes, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			signal(errs, err)
		case <-ctx.Done():
			return
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// relevant reports whether event can change the generated listing.
func relevant(event fsnotify.Event, root, host string, opts scan.Options) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	if abs, err := filepath.Abs(event.Name); err == nil && abs == host {
		return false
	}
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range opts.Exclude {
		if matched, _ := doublestar.Match(strings.TrimPrefix(filepath.ToSlash(pattern), "./"), rel); matched {
			return false
		}
	}
	if scan.Matches(filepath.Base(event.Name), opts.Filter, opts.StrictSuffix) {
		return true
	}
	if event.Op.Has(fsnotify.Create) {
		st, err := os.Stat(event.Name)
		return err == nil && st.IsDir()
	}
	// A removed or renamed directory can no longer be told apart from a file.
	return true
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.lines = append(m.lines, "🔄 Manual regenerate triggered")
			m.refreshViewport()
			return m, m.generate()
		}
	case tea.WindowSizeMsg:
		// Reserve space for header (1), stats (1), spacer (1), footer (1), padding (2)
		reserved := 6
		if m.vp.Width == 0 {
			m.vp = viewport.New(msg.Width, max(msg.Height-reserved, 3))
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = max(msg.Height-reserved, 3)
		}
		m.refreshViewport()
		return m, nil
	case generatedMsg:
		m.busy = false
		m.runs++
		if msg.err != nil {
			m.failures++
			m.lines = append(m.lines, fmt.Sprintf("❌ %v", msg.err))
		} else {
			m.lastCount = len(msg.out.Entries)
			m.lastAt = msg.out.FinishedAt
			line := fmt.Sprintf("✅ %d pages written to %s", m.lastCount, msg.out.HostPath)
			if !msg.out.Splice.Inserted {
				line = fmt.Sprintf("⚠️  end marker missing in %s; nothing inserted", msg.out.HostPath)
			}
			m.lines = append(m.lines, line)
		}
		if m.pending {
			m.pending = false
			m.busy = true
			m.lines = append(m.lines, "🔄 Regenerating for changes made during the last run")
			m.refreshViewport()
			return m, tea.Batch(m.generate(), m.waitForChange())
		}
		m.refreshViewport()
		return m, m.waitForChange()
	case fileChangedMsg:
		m.waiting = false
		m.lines = append(m.lines, fmt.Sprintf("📄 Changed: %s", msg.path))
		m.refreshViewport()
		if m.busy {
			m.pending = true
			return m, m.waitForChange()
		}
		m.busy = true
		return m, tea.Batch(m.generate(), m.waitForChange())
	case watchErrorMsg:
		m.waiting = false
		m.lines = append(m.lines, fmt.Sprintf("❌ Watch error: %v", msg.err))
		m.refreshViewport()
		return m, m.waitForChange()
	}

	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m *model) refreshViewport() {
	m.vp.SetContent(strings.Join(m.lines, "\n"))
	m.vp.GotoBottom()
}

func (m *model) View() string {
	header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf(" Watching %s (WATCH MODE) ", m.root()))
	status := "idle"
	if m.busy {
		status = m.spin.View() + " generating"
	}
	last := "never"
	if !m.lastAt.IsZero() {
		last = m.lastAt.Format("15:04:05")
	}
	stats := fmt.Sprintf("%s  runs:%d  failed:%d  pages:%d  last:%s", status, m.runs, m.failures, m.lastCount, last)
	footer := lipgloss.NewStyle().Faint(true).Render("Controls: [q] quit  [r] regenerate")
	container := lipgloss.NewStyle().Padding(1)
	return container.Render(strings.Join([]string{header, stats, "", m.vp.View(), footer}, "\n"))
}
