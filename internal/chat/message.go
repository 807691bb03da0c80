// Package chat holds the session transcript and the controller that
// serializes requests to the assistant backend.
package chat

import (
	"context"
	"time"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/markup"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// Message is one transcript entry. Messages are never mutated once appended.
type Message struct {
	ID         string
	Sender     Sender
	Content    markup.Document
	Attachment string // filename attached to a user message
	Agent      string // backend agent that produced an assistant reply
	Timestamp  time.Time
}

// Request is the single outgoing call the controller allows in flight.
type Request struct {
	ID         string
	Message    string
	Attachment *attach.File
	IssuedAt   time.Time
}

// Reply is a decoded backend response.
type Reply struct {
	Text  string
	Agent string
}

// Transport performs one backend round trip. Implementations classify
// failures as *NetworkError or *BackendError.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Reply, error)
}

// State is the controller's request lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSending
	StateFailed // idle, with the last outcome's error retained
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
