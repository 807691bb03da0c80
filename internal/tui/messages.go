package tui

import "github.com/canvasgpt/canvaschat/internal/chat"

// ChatResponseMsg carries the outcome of a backend call back to the
// event loop.
type ChatResponseMsg struct {
	Request *chat.Request
	Reply   *chat.Reply
	Err     error
}

// OpenPickerMsg asks the app to show the file picker.
type OpenPickerMsg struct{}

// FilePickedMsg reports the picker's outcome. An empty Path means the
// picker was cancelled.
type FilePickedMsg struct {
	Path string
}

// ResetDoneMsg reports the backend reset that follows a clear when
// reset_on_clear is set.
type ResetDoneMsg struct {
	Message string
	Err     error
}

// CopiedMsg reports the result of copying the last reply.
type CopiedMsg struct {
	Err error
}
