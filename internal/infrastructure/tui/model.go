// Package tui provides the interactive terminal chat interface.
// The model is split across files:
//   - model.go: types, Init and the Update loop
//   - commands.go: slash command handling and backend calls
//   - view.go: rendering
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
	"github.com/0xcro3dile/lightrag-go/internal/domain/ports"
	"github.com/0xcro3dile/lightrag-go/internal/domain/session"
)

const (
	sidebarWidth    = 34
	minSidebarWidth = 90 // terminals narrower than this hide the sidebar
	headerHeight    = 2
	footerHeight    = 5
)

// Options configures the chat interface.
type Options struct {
	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration

	// GlamourStyle names a glamour standard style; empty selects auto detection.
	GlamourStyle string
}

type (
	chatReplyMsg struct {
		resp *entities.ChatResponse
		err  error
	}
	uploadDoneMsg  struct{ err error }
	docsLoadedMsg  struct{ err error }
	clearedMsg     struct{ err error }
	statusCheckMsg struct{}
)

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
	styles    styles

	session *session.Session
	backend ports.Backend
	opts    Options

	notice    string // local feedback for commands, never sent to the backend
	uploading bool
	rendered  map[string]string // message ID -> rendered markdown at the current width
	width     int
	height    int
	ready     bool
}

// New creates the chat model. The session and the backend must be the
// same ones the session was built with.
func New(sess *session.Session, backend ports.Backend, opts Options) Model {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 3 * time.Minute
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question, or /help for commands..."
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		textinput: ti,
		spinner:   sp,
		styles:    defaultStyles(),
		session:   sess,
		backend:   backend,
		opts:      opts,
		rendered:  make(map[string]string),
	}
}

// Init fetches the document list and starts the cursor and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.loadDocuments(),
	)
}

// Update handles terminal events and backend results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.handleSubmit()

		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

		m.textinput, tiCmd = m.textinput.Update(msg)
		return m, tiCmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshTranscript()
		return m, nil

	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case spinner.TickMsg:
		if m.session.Busy() || m.uploading {
			var spCmd tea.Cmd
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil

	case chatReplyMsg:
		m.session.Complete(msg.resp, msg.err)
		m.refreshTranscript()
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		return m, m.scheduleStatusCheck()

	case docsLoadedMsg:
		return m, nil

	case clearedMsg:
		return m, m.scheduleStatusCheck()

	case statusCheckMsg:
		// Status expiry is computed by the session; this only triggers a redraw
		// and re-arms the timer if a newer status replaced the old one.
		return m, m.scheduleStatusCheck()
	}

	m.textinput, tiCmd = m.textinput.Update(msg)
	return m, tiCmd
}

// resize lays out the viewport and the markdown renderer for a new size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	chatWidth := m.chatWidth()
	vpHeight := height - headerHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth-2, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth - 2
		m.viewport.Height = vpHeight
	}
	m.textinput.Width = width - 8

	wrap := chatWidth - 6
	if wrap < 20 {
		wrap = 20
	}
	styleOpt := glamour.WithAutoStyle()
	if m.opts.GlamourStyle != "" {
		styleOpt = glamour.WithStandardStyle(m.opts.GlamourStyle)
	}
	if r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap)); err == nil {
		m.renderer = r
	}
	m.rendered = make(map[string]string)
}

func (m Model) showSidebar() bool {
	return m.width >= minSidebarWidth
}

func (m Model) chatWidth() int {
	if m.showSidebar() {
		return m.width - sidebarWidth - 2
	}
	return m.width
}

// refreshTranscript re-renders the messages and scrolls to the newest.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.RequestTimeout)
}

// scheduleStatusCheck arms a redraw for when the current status expires.
func (m Model) scheduleStatusCheck() tea.Cmd {
	at, ok := m.session.StatusExpiry()
	if !ok {
		return nil
	}
	wait := time.Until(at)
	if wait < 0 {
		wait = 0
	}
	return tea.Tick(wait+10*time.Millisecond, func(time.Time) tea.Msg {
		return statusCheckMsg{}
	})
}
