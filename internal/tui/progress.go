package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

const (
	progressPadding  = 2
	progressMaxWidth = 60
)

// LoadFunc runs a load, reporting progress through onProgress.
type LoadFunc func(ctx context.Context, onProgress func(done, total int)) (reviewseed.LoadResult, error)

type progressMsg struct {
	done  int
	total int
}

type loadDoneMsg struct {
	result reviewseed.LoadResult
	err    error
}

// progressModel draws insert progress while the load runs elsewhere.
type progressModel struct {
	bar        progress.Model
	keys       KeyMap
	title      string
	done       int
	total      int
	finished   bool
	cancelling bool
	err        error
	cancel     context.CancelFunc
}

func newProgressModel(title string, total int, cancel context.CancelFunc) progressModel {
	return progressModel{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressMaxWidth)),
		keys:   DefaultKeyMap(),
		title:  title,
		total:  total,
		cancel: cancel,
	}
}

// Init implements tea.Model.
func (m progressModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Raw mode swallows SIGINT; ctrl+c cancels the load and the
		// program exits once the rollback has been reported.
		if key.Matches(msg, m.keys.Cancel) && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-progressPadding*2-4, progressMaxWidth))
		return m, nil

	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil

	case loadDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) percent() float64 {
	if m.total <= 0 {
		if m.finished {
			return 1
		}
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View implements tea.Model.
func (m progressModel) View() string {
	pad := strings.Repeat(" ", progressPadding)

	var b strings.Builder
	b.WriteString("\n" + pad + TitleStyle.Render(m.title) + "\n")
	b.WriteString(pad + m.bar.ViewAs(m.percent()))
	b.WriteString(fmt.Sprintf("  %d/%d\n", m.done, m.total))

	switch {
	case m.finished && m.err != nil:
		b.WriteString(pad + ErrorStyle.Render(SymbolCross+" rolled back") + "\n")
	case m.finished:
		b.WriteString(pad + SuccessStyle.Render(SymbolCheck+" committed") + "\n")
	case m.cancelling:
		b.WriteString(pad + WarningStyle.Render("cancelling, rolling back...") + "\n")
	default:
		b.WriteString(pad + HelpStyle.Render(m.keys.HelpText()) + "\n")
	}
	return b.String()
}

// RunWithProgress runs load in a goroutine and renders a progress bar on
// stderr until it returns. The load's own result and error are returned
// unchanged; a failing display never aborts the load.
func RunWithProgress(ctx context.Context, title string, total int, load LoadFunc) (reviewseed.LoadResult, error) {
	return runWithProgress(ctx, title, total, load, os.Stdin, os.Stderr)
}

func runWithProgress(
	ctx context.Context,
	title string,
	total int,
	load LoadFunc,
	in io.Reader,
	out io.Writer,
) (reviewseed.LoadResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title, total, cancel), tea.WithInput(in), tea.WithOutput(out))

	results := make(chan loadDoneMsg, 1)
	go func() {
		result, err := load(ctx, func(done, total int) {
			p.Send(progressMsg{done: done, total: total})
		})
		msg := loadDoneMsg{result: result, err: err}
		results <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: progress display failed: %v\n", err)
	}

	done := <-results
	return done.result, done.err
}
