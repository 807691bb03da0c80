package views

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/tui"
)

// PickerModel wraps the file picker used to choose an attachment.
// Files outside the accepted set are shown disabled; choosing one still
// reports the path so the controller can reject it with a reason.
type PickerModel struct {
	picker filepicker.Model
	width  int
	height int
}

// NewPickerModel creates a picker rooted at dir, or the working directory
// when dir is empty.
func NewPickerModel(dir string, width, height int) PickerModel {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}

	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = allowedTypes()
	fp.ShowHidden = false

	m := PickerModel{picker: fp}
	m.resize(width, height)
	return m
}

func allowedTypes() []string {
	exts := attach.Extensions()
	out := make([]string, 0, len(exts)*2)
	for _, ext := range exts {
		out = append(out, "."+ext, "."+strings.ToUpper(ext))
	}
	return out
}

// Init reads the starting directory.
func (m PickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

// Update handles messages for the picker view.
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == tui.KeyEsc || msg.String() == tui.KeyCtrlC {
			return m, pickedCmd("")
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m, pickedCmd(path)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		return m, pickedCmd(path)
	}
	return m, cmd
}

func pickedCmd(path string) tea.Cmd {
	return func() tea.Msg { return tui.FilePickedMsg{Path: path} }
}

func (m *PickerModel) resize(width, height int) {
	m.width = width
	m.height = height
	h := height - 8
	if h < 5 {
		h = 5
	}
	m.picker.Height = h
}

// View renders the picker view.
func (m PickerModel) View() string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Attach a file"))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("Accepted: " + strings.Join(attach.Extensions(), ", ") + " · enter: choose · esc: cancel"))
	return tui.BoxStyle.Width(m.width - 2).Render(b.String())
}
