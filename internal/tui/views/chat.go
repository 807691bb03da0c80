// Package views provides TUI view components for canvaschat.
package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/tui"
	"github.com/canvasgpt/canvaschat/internal/tui/commands"
)

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarn
	noticeError
)

// ChatModel is the view model for the chat screen. The controller owns the
// transcript; this model only renders it and turns keys into operations.
type ChatModel struct {
	ctrl     *chat.Controller
	resetter commands.Resetter
	keys     tui.KeyMap

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	title       string
	notice      string
	noticeLevel noticeLevel
	width       int
	height      int
}

// ChatOptions configures a ChatModel.
type ChatOptions struct {
	Title string
	// Resetter, when set, is called after every clear.
	Resetter commands.Resetter
}

// NewChatModel creates a ChatModel bound to ctrl.
func NewChatModel(ctrl *chat.Controller, opts ChatOptions, width, height int) ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question... (Enter to send)"
	ta.CharLimit = 5000
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = tui.DefaultKeyMap.NewLine
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.TitleStyle

	vp := viewport.New(20, 5)
	vp.KeyMap = viewport.KeyMap{
		PageUp:   tui.DefaultKeyMap.PageUp,
		PageDown: tui.DefaultKeyMap.PageDown,
	}

	title := opts.Title
	if title == "" {
		title = "Canvas Assistant"
	}

	m := ChatModel{
		ctrl:     ctrl,
		resetter: opts.Resetter,
		keys:     tui.DefaultKeyMap,
		textarea: ta,
		viewport: vp,
		spinner:  sp,
		title:    title,
	}
	m.resize(width, height)
	return m
}

// Init returns the initial command for the chat view.
func (m ChatModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the chat view.
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Send):
			return m.submit()

		case key.Matches(msg, m.keys.Attach):
			return m, func() tea.Msg { return tui.OpenPickerMsg{} }

		case key.Matches(msg, m.keys.Detach):
			if m.ctrl.Pending() == nil {
				m.setNotice(noticeInfo, "No file attached.")
				return m, nil
			}
			m.ctrl.RemoveAttachment()
			m.setNotice(noticeInfo, "Attachment removed.")
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.ctrl.Clear()
			m.refresh()
			m.setNotice(noticeInfo, "Transcript cleared.")
			if m.resetter != nil {
				return m, commands.ResetCmd(m.resetter)
			}
			return m, nil

		case key.Matches(msg, m.keys.Copy):
			last, ok := m.ctrl.LastReply()
			if !ok {
				m.setNotice(noticeInfo, "No reply to copy yet.")
				return m, nil
			}
			return m, commands.CopyCmd(last.Content.PlainText())

		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tui.ChatResponseMsg:
		if _, err := m.ctrl.Resolve(msg.Request, msg.Reply, msg.Err); err != nil {
			return m, nil
		}
		m.refresh()
		if msg.Err != nil {
			m.setNotice(noticeError, "Request failed. You can send again.")
		} else {
			m.clearNotice()
		}
		return m, nil

	case tui.FilePickedMsg:
		if msg.Path == "" {
			return m, nil
		}
		m.selectFile(msg.Path)
		return m, nil

	case tui.ResetDoneMsg:
		if msg.Err != nil {
			m.setNotice(noticeWarn, "Transcript cleared, but the backend reset failed: "+msg.Err.Error())
		}
		return m, nil

	case tui.CopiedMsg:
		if msg.Err != nil {
			m.setNotice(noticeError, "Copy failed: "+msg.Err.Error())
		} else {
			m.setNotice(noticeInfo, "Last reply copied to clipboard.")
		}
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.State() == chat.StateSending {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ChatModel) submit() (ChatModel, tea.Cmd) {
	req, err := m.ctrl.Submit(m.textarea.Value())
	switch {
	case errors.Is(err, chat.ErrRequestInFlight):
		m.setNotice(noticeWarn, "Still waiting for the last reply. Your draft is kept.")
		return m, nil
	case errors.Is(err, chat.ErrEmptyMessage):
		m.setNotice(noticeInfo, "Type a message or attach a file first.")
		return m, nil
	case err != nil:
		m.setNotice(noticeError, err.Error())
		return m, nil
	}

	m.textarea.Reset()
	m.clearNotice()
	m.refresh()
	return m, tea.Batch(commands.SendCmd(m.ctrl, req), m.spinner.Tick)
}

func (m *ChatModel) selectFile(path string) {
	report, err := m.ctrl.SelectFile(path)
	switch {
	case errors.Is(err, attach.ErrUnsupportedFileType),
		errors.Is(err, attach.ErrAttachmentTooLarge),
		errors.Is(err, attach.ErrPageLimitExceeded):
		m.setNotice(noticeError, "Cannot attach: "+err.Error())
	case err != nil:
		m.setNotice(noticeError, "Cannot attach file: "+err.Error())
	case report.Notice != "":
		m.setNotice(noticeWarn, report.Notice)
	default:
		f := m.ctrl.Pending()
		m.setNotice(noticeInfo, fmt.Sprintf("Attached %s (%s).", f.Name, f.HumanSize()))
	}
}

func (m *ChatModel) setNotice(level noticeLevel, text string) {
	m.notice = text
	m.noticeLevel = level
}

func (m *ChatModel) clearNotice() {
	m.notice = ""
}

// Notice returns the status line currently shown under the transcript.
func (m ChatModel) Notice() string {
	return m.notice
}

// Draft returns the unsent textarea contents.
func (m ChatModel) Draft() string {
	return m.textarea.Value()
}

func (m *ChatModel) resize(width, height int) {
	m.width = width
	m.height = height

	// Reserve space for: box border (2), header (2), status (2), attachment (1), textarea (3), footer (2)
	vpHeight := height - 14
	if vpHeight < 5 {
		vpHeight = 5
	}
	vpWidth := width - 6
	if vpWidth < 20 {
		vpWidth = 20
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(vpWidth)
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(tui.RenderTranscript(m.ctrl.Transcript(), m.viewport.Width))
	m.viewport.GotoBottom()
}

// View renders the chat view.
func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	if m.ctrl.State() == chat.StateSending {
		b.WriteString(fmt.Sprintf("%s Waiting for the assistant...", m.spinner.View()))
	} else if m.notice != "" {
		b.WriteString(m.renderNotice())
	}
	b.WriteString("\n")

	if f := m.ctrl.Pending(); f != nil {
		chip := fmt.Sprintf("📎 %s · %s", f.Name, f.HumanSize())
		if f.Pages > 0 {
			chip += fmt.Sprintf(" · %d pages", f.Pages)
		}
		b.WriteString(tui.AttachmentStyle.Render(chip))
		b.WriteString(tui.DimStyle.Render("  ctrl+x to remove"))
	}
	b.WriteString("\n")

	if m.ctrl.State() == chat.StateSending {
		b.WriteString(tui.DimStyle.Render(m.textarea.View()))
	} else {
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())

	return tui.BoxStyle.Width(m.width - 2).Render(b.String())
}

func (m ChatModel) renderNotice() string {
	switch m.noticeLevel {
	case noticeError:
		return tui.ErrorStyle.Render(m.notice)
	case noticeWarn:
		return tui.WarningStyle.Render(m.notice)
	default:
		return tui.SuccessStyle.Render(m.notice)
	}
}

func (m ChatModel) renderHelp() string {
	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render(strings.Join(parts, " · "))
}
