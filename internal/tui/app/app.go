// Package app provides the main TUI application that wires the views together.
package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/tui"
	"github.com/canvasgpt/canvaschat/internal/tui/commands"
	"github.com/canvasgpt/canvaschat/internal/tui/views"
)

// Options configures the App.
type Options struct {
	Title string
	// PickerDir is where the file picker opens. Empty means the working directory.
	PickerDir string
	// Resetter, when set, resets the backend after each clear.
	Resetter commands.Resetter
}

// App is the main TUI application.
type App struct {
	model *tui.Model
	ctrl  *chat.Controller
	opts  Options

	chatView   views.ChatModel
	pickerView views.PickerModel
}

// New creates an App driving ctrl.
func New(ctrl *chat.Controller, opts Options) *App {
	model := tui.NewModel()
	return &App{
		model: model,
		ctrl:  ctrl,
		opts:  opts,
		chatView: views.NewChatModel(ctrl, views.ChatOptions{
			Title:    opts.Title,
			Resetter: opts.Resetter,
		}, model.Width, model.Height),
	}
}

// Init returns the initial command for the TUI.
func (a *App) Init() tea.Cmd {
	return a.chatView.Init()
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		// Both views keep their size so switching does not wait for a resize.
		var pickerCmd tea.Cmd
		a.chatView, cmd = a.chatView.Update(msg)
		if a.model.State == tui.StatePicker {
			a.pickerView, pickerCmd = a.pickerView.Update(msg)
		}
		return a, tea.Batch(cmd, pickerCmd)

	case tea.KeyMsg:
		if a.model.State == tui.StateChat && key.Matches(msg, tui.DefaultKeyMap.Quit) {
			return a, tea.Quit
		}

	case tui.OpenPickerMsg:
		a.model.State = tui.StatePicker
		a.pickerView = views.NewPickerModel(a.opts.PickerDir, a.model.Width, a.model.Height)
		return a, a.pickerView.Init()

	case tui.FilePickedMsg:
		a.model.State = tui.StateChat
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case tui.ChatResponseMsg, tui.ResetDoneMsg, tui.CopiedMsg, spinner.TickMsg:
		// Outcomes belong to the chat view whichever screen is showing.
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd
	}

	switch a.model.State {
	case tui.StatePicker:
		a.pickerView, cmd = a.pickerView.Update(msg)
	default:
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

// View renders the current application state.
func (a *App) View() string {
	switch a.model.State {
	case tui.StatePicker:
		return a.pickerView.View()
	default:
		return a.chatView.View()
	}
}
