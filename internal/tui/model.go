package tui

// ViewState represents the screen the TUI is showing.
type ViewState int

const (
	StateChat ViewState = iota
	StatePicker
)

// Model holds the state shared across views.
type Model struct {
	State  ViewState
	Width  int
	Height int
}

// NewModel creates a Model on the chat screen with a default size until
// the first WindowSizeMsg arrives.
func NewModel() *Model {
	return &Model{
		State:  StateChat,
		Width:  100,
		Height: 30,
	}
}
