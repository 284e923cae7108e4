package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/0xcro3dile/lightrag-go/internal/domain/entities"
)

const badgeText = "RAG Enabled"

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	chat := m.styles.chat.Width(m.chatWidth() - 2).Render(m.viewport.View())
	body := chat
	if m.showSidebar() {
		side := m.renderSidebar(lipgloss.Height(chat))
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, chat)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.title.Render("Light RAG Chat")
	if m.session.RAGActive() {
		title = lipgloss.JoinHorizontal(lipgloss.Center, title, " ", m.styles.badge.Render(badgeText))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.styles.subtitle.Render("Chat with your documents using a local LLM"),
	)
}

func (m Model) renderSidebar(height int) string {
	inner := sidebarWidth - 4
	var b strings.Builder

	docs := m.session.Documents()
	b.WriteString(m.styles.sideHeader.Render(fmt.Sprintf("Documents (%d)", len(docs))))
	b.WriteString("\n")
	if len(docs) == 0 {
		b.WriteString(m.styles.docPreview.Render("No documents uploaded yet."))
		b.WriteString("\n")
	}
	for _, doc := range docs {
		b.WriteString(m.styles.docName.Render(runewidth.Truncate(doc.Filename, inner, "…")))
		b.WriteString("\n")
		preview := strings.Join(strings.Fields(doc.ContentPreview), " ")
		b.WriteString(m.styles.docPreview.Render(runewidth.Truncate(preview, inner, "…")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	rag := "off"
	if m.session.UseRAG() {
		rag = "on"
	}
	b.WriteString(m.styles.sideHeader.Render("Use documents: " + rag))
	b.WriteString("\n")

	if f := m.session.SelectedFile(); f != "" {
		b.WriteString(m.styles.docPreview.Render(runewidth.Truncate("Selected: "+filepath.Base(f), inner, "…")))
		b.WriteString("\n")
	}

	return m.styles.sidebar.
		Width(sidebarWidth - 2).
		Height(height - 2).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderFooter() string {
	var line string
	switch {
	case m.session.Busy():
		line = m.spinner.View() + " Thinking..."
	case m.uploading:
		// The session status already reads "Uploading...".
		line = m.spinner.View()
	}

	var parts []string
	if status := m.session.UploadStatus(); status != "" {
		parts = append(parts, m.styles.status.Render(status))
	}
	if line != "" {
		parts = append(parts, m.styles.status.Render(line))
	}
	if m.notice != "" {
		parts = append(parts, m.styles.notice.Render(m.notice))
	}

	status := strings.Join(parts, "  ")
	input := m.styles.input.Width(m.width - 4).Render(m.textinput.View())
	help := m.styles.help.Render("enter send · /help commands · pgup/pgdn scroll · ctrl+c quit")

	return lipgloss.JoinVertical(lipgloss.Left, status, input, help)
}

// renderHistory renders the transcript for the viewport. Assistant replies
// are markdown and cached by message ID until the next resize.
func (m Model) renderHistory() string {
	var b strings.Builder
	for _, msg := range m.session.Messages() {
		if msg.IsUser() {
			b.WriteString(m.styles.userLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.styles.userText.Width(m.viewport.Width - 2).Render(msg.Content))
			b.WriteString("\n\n")
			continue
		}

		b.WriteString(m.styles.botLabel.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(msg))
		if msg.HasSources() {
			b.WriteString(m.styles.sources.Render("Sources: " + strings.Join(msg.Sources, ", ")))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMarkdown(msg entities.Message) string {
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	if m.renderer == nil {
		return msg.Content + "\n"
	}
	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return msg.Content + "\n"
	}
	out = strings.Trim(out, "\n") + "\n"
	m.rendered[msg.ID] = out
	return out
}
