package tui

import (
	"context"
	"errors"

	"photoedit/internal/editor"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type focus int

const (
	focusPath focus = iota
	focusPrompt
	focusSubmit
	focusDownload
)

// Options seed a Model. ImagePath and Prompt are applied before the first
// frame so a session can start pre-filled from flags.
type Options struct {
	Backend   string
	OutputDir string
	ImagePath string
	Prompt    string
}

type (
	imageLoadedMsg struct{ file editor.File }
	loadFailedMsg  struct{ err error }
	editSettledMsg struct{ out editor.Outcome }
	savedMsg       struct {
		path string
		err  error
	}
)

// Model is the terminal rendition of the editor view. All editor state lives
// in the Editor; the model only owns widgets and focus.
type Model struct {
	editor  *editor.Editor
	backend string
	outDir  string

	path    textinput.Model
	prompt  textarea.Model
	spinner spinner.Model

	focus  focus
	status string
	width  int
	height int
}

func New(ed *editor.Editor, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "path/to/photo.jpg"
	ti.Prompt = "Image: "
	ti.SetValue(opts.ImagePath)
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "e.g. Remove the background, make it brighter, add a sunset..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetValue(opts.Prompt)
	ed.SetPrompt(opts.Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		editor:  ed,
		backend: opts.Backend,
		outDir:  opts.OutputDir,
		path:    ti,
		prompt:  ta,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.path.Value() != "" {
		cmds = append(cmds, loadImage(m.path.Value()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.path.Width = max(msg.Width-12, 20)
		m.prompt.SetWidth(max(msg.Width-4, 20))
		return m, nil

	case imageLoadedMsg:
		m.editor.Select(msg.file)
		m.status = ""
		log.Debug("image selected", "name", msg.file.Name, "bytes", len(msg.file.Data))
		return m, nil

	case loadFailedMsg:
		m.status = msg.err.Error()
		return m, nil

	case editSettledMsg:
		if msg.out.OK() {
			m.status = ""
			log.Debug("edit completed")
		} else {
			log.Debug("edit failed", "outcome", editor.Kind(msg.out.Err), "err", msg.out.Err)
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = "Saved " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		return m.cycleFocus(1), nil
	case "shift+tab":
		return m.cycleFocus(-1), nil
	case "ctrl+s":
		return m.submit()
	}

	switch m.focus {
	case focusPath:
		if msg.Type == tea.KeyEnter {
			return m, loadImage(m.path.Value())
		}
	case focusSubmit:
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		if msg.String() == "d" {
			return m.download()
		}
		return m, nil
	case focusDownload:
		if msg.Type == tea.KeyEnter || msg.String() == "d" {
			return m.download()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused text widget and mirrors the
// prompt into the editor verbatim.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusPath:
		m.path, cmd = m.path.Update(msg)
	case focusPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
		m.editor.SetPrompt(m.prompt.Value())
	}
	return m, cmd
}

// cycleFocus skips the download button while there is no result to save.
func (m Model) cycleFocus(step int) Model {
	stops := []focus{focusPath, focusPrompt, focusSubmit}
	if m.editor.Snapshot().HasResult() {
		stops = append(stops, focusDownload)
	}

	next := 0
	for i, f := range stops {
		if f == m.focus {
			next = (i + step + len(stops)) % len(stops)
			break
		}
	}
	m.focus = stops[next]

	m.path.Blur()
	m.prompt.Blur()
	switch m.focus {
	case focusPath:
		m.path.Focus()
	case focusPrompt:
		m.prompt.Focus()
	}
	return m
}

// submit runs the edit as a command. Validation failures land in the
// editor's error and issue nothing.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.editor.SetPrompt(m.prompt.Value())
	attempt, err := m.editor.Begin()
	if errors.Is(err, editor.ErrInFlight) {
		return m, nil
	}
	if err != nil {
		log.Debug("submit rejected", "err", err)
		return m, nil
	}

	m.status = ""
	return m, tea.Batch(runEdit(attempt), m.spinner.Tick)
}

func (m Model) download() (tea.Model, tea.Cmd) {
	s := m.editor.Snapshot()
	if !s.HasResult() {
		return m, nil
	}
	return m, saveResult(m.outDir, s.Result)
}

func runEdit(attempt *editor.Attempt) tea.Cmd {
	return func() tea.Msg {
		return editSettledMsg{out: attempt.Do(context.Background())}
	}
}

func saveResult(dir, payload string) tea.Cmd {
	return func() tea.Msg {
		path, err := editor.SaveResult(dir, payload)
		return savedMsg{path: path, err: err}
	}
}
