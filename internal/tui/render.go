package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/markup"
)

const minRenderWidth = 20

// RenderText renders inline spans with their emphasis styles.
func RenderText(t markup.Text) string {
	var b strings.Builder
	for _, sp := range t {
		b.WriteString(spanStyle(sp.Style).Render(sp.Text))
	}
	return b.String()
}

func spanStyle(s markup.Style) lipgloss.Style {
	if s&markup.Code != 0 {
		return CodeStyle
	}
	st := lipgloss.NewStyle()
	if s&markup.Bold != 0 {
		st = st.Bold(true)
	}
	if s&markup.Italic != 0 {
		st = st.Italic(true)
	}
	return st
}

// RenderDocument lays out blocks for a terminal of the given width.
// Paragraphs wrap; list items wrap under a hanging indent.
func RenderDocument(d markup.Document, width int) string {
	if width < minRenderWidth {
		width = minRenderWidth
	}
	blocks := make([]string, 0, len(d))
	for _, blk := range d {
		switch blk.Kind {
		case markup.UnorderedList:
			blocks = append(blocks, renderList(blk.Items, width, func(int) string { return "• " }))
		case markup.OrderedList:
			start := blk.Start
			if start == 0 {
				start = 1
			}
			last := fmt.Sprintf("%d. ", start+len(blk.Items)-1)
			blocks = append(blocks, renderList(blk.Items, width, func(i int) string {
				return fmt.Sprintf("%-*s", len(last), fmt.Sprintf("%d. ", start+i))
			}))
		default:
			blocks = append(blocks, lipgloss.NewStyle().Width(width).Render(RenderText(blk.Text)))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderList(items []markup.Text, width int, marker func(int) string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		m := marker(i)
		bodyWidth := width - lipgloss.Width(m)
		if bodyWidth < 1 {
			bodyWidth = 1
		}
		body := lipgloss.NewStyle().Width(bodyWidth).Render(RenderText(item))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, m, body))
	}
	return strings.Join(lines, "\n")
}

// RenderMessage renders one transcript entry with its sender label.
func RenderMessage(m chat.Message, width int) string {
	var label string
	switch m.Sender {
	case chat.SenderUser:
		label = UserLabelStyle.Render("You")
	case chat.SenderAssistant:
		label = AssistantLabelStyle.Render("Assistant")
		if m.Agent != "" {
			label += DimStyle.Render(" · " + m.Agent)
		}
	default:
		label = SystemLabelStyle.Render("System")
	}
	if !m.Timestamp.IsZero() {
		label += DimStyle.Render("  " + m.Timestamp.Format("15:04"))
	}

	parts := []string{label}
	if m.Attachment != "" {
		parts = append(parts, AttachmentStyle.Render("📎 "+m.Attachment))
	}
	if len(m.Content) > 0 {
		body := RenderDocument(m.Content, width)
		if m.Sender == chat.SenderSystem {
			body = SystemTextStyle.Render(body)
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n")
}

// RenderTranscript renders messages in order, separated by blank lines.
func RenderTranscript(msgs []chat.Message, width int) string {
	if len(msgs) == 0 {
		return DimStyle.Render("No messages yet. Ask about your courses, or attach a file with ctrl+o.")
	}
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = RenderMessage(m, width)
	}
	return strings.Join(out, "\n\n")
}
