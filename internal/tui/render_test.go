package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/markup"
)

func TestRenderDocumentLists(t *testing.T) {
	doc := markup.Parse("Steps:\n\n1. Open the course\n2. Post the **announcement**\n\n- quiz\n- essay")
	out := RenderDocument(doc, 60)

	for _, want := range []string{"Steps:", "1. Open the course", "2. Post the announcement", "• quiz", "• essay"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**") {
		t.Errorf("emphasis markers leaked into output:\n%s", out)
	}
}

func TestRenderDocumentOrderedStart(t *testing.T) {
	doc := markup.Document{{
		Kind:  markup.OrderedList,
		Start: 9,
		Items: []markup.Text{markup.ParseInline("nine"), markup.ParseInline("ten")},
	}}
	out := RenderDocument(doc, 40)
	if !strings.Contains(out, "9.  nine") || !strings.Contains(out, "10. ten") {
		t.Errorf("numbering not aligned:\n%s", out)
	}
}

func TestRenderDocumentWraps(t *testing.T) {
	long := strings.Repeat("word ", 30)
	doc := markup.Parse(long + "\n\n- " + long)

	out := RenderDocument(doc, 24)
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 24 {
			t.Errorf("line width %d exceeds 24: %q", w, line)
		}
	}
}

func TestRenderTranscript(t *testing.T) {
	if out := RenderTranscript(nil, 40); !strings.Contains(out, "No messages yet") {
		t.Errorf("empty transcript = %q", out)
	}

	ts := time.Date(2025, 3, 4, 14, 5, 0, 0, time.UTC)
	msgs := []chat.Message{
		{Sender: chat.SenderUser, Content: markup.Document{markup.Literal("hi")}, Attachment: "notes.pdf", Timestamp: ts},
		{Sender: chat.SenderAssistant, Content: markup.Parse("hello"), Agent: "web_search", Timestamp: ts},
		{Sender: chat.SenderSystem, Content: markup.Document{markup.Literal("Could not reach the assistant.")}},
	}
	out := RenderTranscript(msgs, 60)

	for _, want := range []string{"You", "14:05", "notes.pdf", "Assistant", "web_search", "System", "Could not reach the assistant."} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "hi") > strings.Index(out, "hello") {
		t.Error("messages out of order")
	}
}

func TestRenderFallback(t *testing.T) {
	var b strings.Builder
	if err := RunFallback(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "canvaschat ask") {
		t.Errorf("fallback = %q", b.String())
	}
}
