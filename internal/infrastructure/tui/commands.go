package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const helpText = "Commands: /upload <path> · /clear · /docs · /rag [on|off] · /help · ctrl+c to quit"

// handleSubmit dispatches the input line: slash commands run locally,
// anything else is sent to the assistant.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := m.textinput.Value()
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "/") {
		m.textinput.Reset()
		return m.runCommand(trimmed)
	}

	req, ok := m.session.Begin(input)
	if !ok {
		// Blank input or a reply is still pending; keep what was typed.
		return m, nil
	}
	m.textinput.Reset()
	m.notice = ""
	m.refreshTranscript()

	backend := m.backend
	ctx, cancel := m.requestContext()
	chat := func() tea.Msg {
		defer cancel()
		resp, err := backend.Chat(ctx, req)
		return chatReplyMsg{resp: resp, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, chat)
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	m.notice = ""

	switch name {
	case "/upload":
		if arg == "" {
			m.notice = "Usage: /upload <path to .pdf, .docx or .txt file>"
			return m, nil
		}
		if m.uploading {
			m.notice = "An upload is already in progress."
			return m, nil
		}
		return m.startUpload(expandHome(unquote(arg)))

	case "/clear":
		return m, m.clearDocuments()

	case "/docs":
		return m, m.loadDocuments()

	case "/rag":
		switch strings.ToLower(arg) {
		case "":
			m.session.ToggleRAG()
		case "on":
			m.session.SetUseRAG(true)
		case "off":
			m.session.SetUseRAG(false)
		default:
			m.notice = "Usage: /rag [on|off]"
			return m, nil
		}
		if m.session.UseRAG() {
			m.notice = "Document search is on."
		} else {
			m.notice = "Document search is off."
		}
		return m, nil

	case "/help":
		m.notice = helpText
		return m, nil

	case "/quit", "/exit":
		return m, tea.Quit
	}

	m.notice = fmt.Sprintf("Unknown command %s. %s", name, helpText)
	return m, nil
}

func (m Model) startUpload(path string) (tea.Model, tea.Cmd) {
	m.uploading = true
	m.session.SelectFile(path)

	sess := m.session
	ctx, cancel := m.requestContext()
	upload := func() tea.Msg {
		defer cancel()
		return uploadDoneMsg{err: sess.Upload(ctx, path)}
	}
	return m, tea.Batch(m.spinner.Tick, upload)
}

func (m Model) loadDocuments() tea.Cmd {
	sess := m.session
	ctx, cancel := m.requestContext()
	return func() tea.Msg {
		defer cancel()
		return docsLoadedMsg{err: sess.RefreshDocuments(ctx)}
	}
}

func (m Model) clearDocuments() tea.Cmd {
	sess := m.session
	ctx, cancel := m.requestContext()
	return func() tea.Msg {
		defer cancel()
		return clearedMsg{err: sess.ClearDocuments(ctx)}
	}
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// unquote strips one pair of matching quotes, as left by drag-and-drop paths.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
