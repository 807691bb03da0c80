// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/tui"
)

// Resetter clears the backend's conversation state.
type Resetter interface {
	Reset(ctx context.Context) (string, error)
}

// SendCmd performs the backend call for an already submitted request.
// The result is delivered as a ChatResponseMsg for the controller to resolve.
func SendCmd(ctrl *chat.Controller, req *chat.Request) tea.Cmd {
	return func() tea.Msg {
		reply, err := ctrl.Dispatch(context.Background(), req)
		return tui.ChatResponseMsg{Request: req, Reply: reply, Err: err}
	}
}

// ResetCmd resets the backend supervisor.
func ResetCmd(r Resetter) tea.Cmd {
	return func() tea.Msg {
		msg, err := r.Reset(context.Background())
		return tui.ResetDoneMsg{Message: msg, Err: err}
	}
}

// CopyCmd writes text to the system clipboard.
func CopyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return tui.CopiedMsg{Err: clipboard.WriteAll(text)}
	}
}
