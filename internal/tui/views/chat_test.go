package views

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/testutil"
	"github.com/canvasgpt/canvaschat/internal/tui"
)

type transportFunc func(ctx context.Context, req *chat.Request) (*chat.Reply, error)

func (f transportFunc) Send(ctx context.Context, req *chat.Request) (*chat.Reply, error) {
	return f(ctx, req)
}

func echoTransport() chat.Transport {
	return transportFunc(func(_ context.Context, req *chat.Request) (*chat.Reply, error) {
		return &chat.Reply{Text: "echo: " + req.Message}, nil
	})
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func newTestChat(t *testing.T, ctrl *chat.Controller) ChatModel {
	t.Helper()
	return NewChatModel(ctrl, ChatOptions{}, 80, 30)
}

func TestSubmitThenResolve(t *testing.T) {
	ctrl := chat.NewController(echoTransport())
	m := newTestChat(t, ctrl)

	m.textarea.SetValue("When is the midterm?")
	m, cmd := m.Update(enter)
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	if ctrl.State() != chat.StateSending {
		t.Fatalf("state = %s, want sending", ctrl.State())
	}
	if m.Draft() != "" {
		t.Errorf("draft not cleared: %q", m.Draft())
	}
	if got := len(ctrl.Transcript()); got != 1 {
		t.Fatalf("transcript has %d messages, want 1", got)
	}

	req := ctrl.InFlight()
	m, _ = m.Update(tui.ChatResponseMsg{Request: req, Reply: &chat.Reply{Text: "1. Week 7\n2. Room 204"}})

	if ctrl.State() != chat.StateIdle {
		t.Errorf("state = %s, want idle", ctrl.State())
	}
	if got := len(ctrl.Transcript()); got != 2 {
		t.Fatalf("transcript has %d messages, want 2", got)
	}
	view := m.View()
	for _, want := range []string{"When is the midterm?", "1. Week 7", "2. Room 204"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSubmitWhileSendingKeepsDraft(t *testing.T) {
	ctrl := chat.NewController(echoTransport())
	m := newTestChat(t, ctrl)

	m.textarea.SetValue("first")
	m, _ = m.Update(enter)

	m.textarea.SetValue("second")
	m, cmd := m.Update(enter)

	if cmd != nil {
		t.Error("rejected submit should not issue a command")
	}
	if !strings.Contains(m.Notice(), "Still waiting") {
		t.Errorf("notice = %q", m.Notice())
	}
	if m.Draft() != "second" {
		t.Errorf("draft = %q, want it kept", m.Draft())
	}
	if got := len(ctrl.Transcript()); got != 1 {
		t.Errorf("transcript has %d messages, want 1", got)
	}
}

func TestSubmitEmpty(t *testing.T) {
	ctrl := chat.NewController(echoTransport())
	m := newTestChat(t, ctrl)

	m, cmd := m.Update(enter)
	if cmd != nil || ctrl.State() != chat.StateIdle {
		t.Error("empty submit should do nothing")
	}
	if !strings.Contains(m.Notice(), "attach a file") {
		t.Errorf("notice = %q", m.Notice())
	}
}

func TestFailedResponseShowsSystemMessage(t *testing.T) {
	ctrl := chat.NewController(echoTransport())
	m := newTestChat(t, ctrl)

	m.textarea.SetValue("hello")
	m, _ = m.Update(enter)
	m, _ = m.Update(tui.ChatResponseMsg{
		Request: ctrl.InFlight(),
		Err:     &chat.NetworkError{Err: errors.New("connection refused")},
	})

	if ctrl.State() != chat.StateFailed {
		t.Errorf("state = %s, want failed", ctrl.State())
	}
	if !strings.Contains(m.View(), "Could not reach the assistant") {
		t.Error("view missing system message")
	}

	// The next submit is accepted.
	m.textarea.SetValue("again")
	if _, cmd := m.Update(enter); cmd == nil {
		t.Error("expected submit after failure to be accepted")
	}
}

func TestFilePicked(t *testing.T) {
	dir := testutil.TempFiles(t, map[string][]byte{
		"scores.csv": testutil.CSV(),
		"setup.exe":  []byte("MZ"),
		"long.docx":  testutil.DocxWithPages(t, 12),
	})

	ctrl := chat.NewController(echoTransport(), chat.WithPolicy(attach.Policy{MaxBytes: 1 << 20, MaxPages: 3}))
	m := newTestChat(t, ctrl)

	m, _ = m.Update(tui.FilePickedMsg{Path: filepath.Join(dir, "setup.exe")})
	if ctrl.Pending() != nil {
		t.Error("unsupported file should not be attached")
	}
	if !strings.Contains(m.Notice(), "Cannot attach") {
		t.Errorf("notice = %q", m.Notice())
	}

	m, _ = m.Update(tui.FilePickedMsg{Path: filepath.Join(dir, "scores.csv")})
	if p := ctrl.Pending(); p == nil || p.Name != "scores.csv" {
		t.Fatalf("pending = %+v", p)
	}
	if !strings.Contains(m.View(), "scores.csv") {
		t.Error("view missing attachment indicator")
	}

	m, _ = m.Update(tui.FilePickedMsg{Path: filepath.Join(dir, "long.docx")})
	if p := ctrl.Pending(); p == nil || p.Name != "long.docx" {
		t.Fatalf("pending = %+v, want replaced by long.docx", p)
	}
	if !strings.Contains(m.Notice(), "only the first 3") {
		t.Errorf("notice = %q", m.Notice())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	if ctrl.Pending() != nil {
		t.Error("ctrl+x should remove the attachment")
	}
}

func TestCancelledPickLeavesPending(t *testing.T) {
	dir := testutil.TempFiles(t, map[string][]byte{"a.png": testutil.PNG()})
	ctrl := chat.NewController(echoTransport())
	m := newTestChat(t, ctrl)

	m, _ = m.Update(tui.FilePickedMsg{Path: filepath.Join(dir, "a.png")})
	m, _ = m.Update(tui.FilePickedMsg{})
	if ctrl.Pending() == nil {
		t.Error("cancel should keep the pending attachment")
	}
}

type resetRecorder struct{ calls int }

func (r *resetRecorder) Reset(context.Context) (string, error) {
	r.calls++
	return "Supervisor state reset", nil
}

func TestClearDuringSending(t *testing.T) {
	ctrl := chat.NewController(echoTransport())
	rec := &resetRecorder{}
	m := NewChatModel(ctrl, ChatOptions{Resetter: rec}, 80, 30)

	m.textarea.SetValue("hello")
	m, _ = m.Update(enter)
	req := ctrl.InFlight()

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(ctrl.Transcript()) != 0 {
		t.Fatal("transcript not cleared")
	}
	if cmd == nil {
		t.Fatal("expected reset command")
	}
	if msg, ok := cmd().(tui.ResetDoneMsg); !ok || msg.Err != nil || rec.calls != 1 {
		t.Errorf("reset msg = %#v, calls = %d", msg, rec.calls)
	}

	m, _ = m.Update(tui.ChatResponseMsg{Request: req, Reply: &chat.Reply{Text: "late reply"}})
	transcript := ctrl.Transcript()
	if len(transcript) != 1 || transcript[0].Sender != chat.SenderAssistant {
		t.Errorf("transcript after late reply = %+v", transcript)
	}
	if !strings.Contains(m.View(), "late reply") {
		t.Error("view missing late reply")
	}
}

func TestStaleResponseIgnored(t *testing.T) {
	ctrl := chat.NewController(echoTransport())
	m := newTestChat(t, ctrl)

	m, _ = m.Update(tui.ChatResponseMsg{Request: &chat.Request{ID: "old"}, Reply: &chat.Reply{Text: "x"}})
	if len(ctrl.Transcript()) != 0 {
		t.Error("stale response should not be recorded")
	}
}
