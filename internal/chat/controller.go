package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/log"
	"github.com/canvasgpt/canvaschat/internal/markup"
)

// Controller owns one chat session: the transcript, the pending attachment
// slot and the single in-flight request.
//
// The request lifecycle is Idle -> Sending -> Idle (or Failed). Submit moves
// to Sending and Resolve moves back out; Send does both around one backend
// call. The mutex is never held across the backend call, so attachment
// selection and Clear stay available while a request is outstanding.
type Controller struct {
	mu        sync.Mutex
	transport Transport
	policy    attach.Policy
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	transcript []Message
	pending    *attach.File
	state      State
	inflight   *Request
	lastErr    error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy sets the attachment acceptance policy.
func WithPolicy(p attach.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithLogger sends lifecycle events to the JSONL event log.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDs overrides the message and request ID generator.
func WithIDs(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// NewController creates a controller in the Idle state with an empty
// transcript. transport may be nil when only Submit/Resolve are used.
func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.emit(log.LogEvent{Event: log.EventSessionOpened})
	return c
}

func (c *Controller) emit(e log.LogEvent) {
	// The event log is best effort.
	_ = c.logger.Append(e)
}

// Submit records the user's turn and moves the controller to Sending.
// Empty text is accepted only when an attachment is pending. While a
// request is in flight it returns ErrRequestInFlight without touching the
// transcript.
func (c *Controller) Submit(text string) (*Request, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSending {
		c.emit(log.LogEvent{Event: log.EventSubmitRejected, RequestID: c.inflight.ID, Reason: ErrRequestInFlight.Error()})
		return nil, ErrRequestInFlight
	}
	if text == "" && c.pending == nil {
		return nil, ErrEmptyMessage
	}

	now := c.now()
	msg := Message{
		ID:        c.newID(),
		Sender:    SenderUser,
		Timestamp: now,
	}
	if text != "" {
		msg.Content = markup.Document{markup.Literal(text)}
	}
	if c.pending != nil {
		msg.Attachment = c.pending.Name
	}
	c.transcript = append(c.transcript, msg)

	req := &Request{
		ID:         c.newID(),
		Message:    text,
		Attachment: c.pending,
		IssuedAt:   now,
	}
	c.pending = nil
	c.inflight = req
	c.state = StateSending
	c.lastErr = nil

	event := log.LogEvent{Event: log.EventMessageSubmitted, RequestID: req.ID, MessageID: msg.ID}
	if req.Attachment != nil {
		event.Filename = req.Attachment.Name
		event.SizeBytes = req.Attachment.Size
	}
	c.emit(event)

	return req, nil
}

// Resolve records the outcome of the in-flight request and leaves the
// Sending state. A nil err appends an assistant message parsed from the
// reply; otherwise a system message describing the failure is appended.
// Resolving anything but the in-flight request returns ErrStaleRequest.
func (c *Controller) Resolve(req *Request, reply *Reply, err error) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req == nil || req != c.inflight {
		return Message{}, ErrStaleRequest
	}
	if err == nil && reply == nil {
		err = &BackendError{Message: "empty reply"}
	}

	now := c.now()
	msg := Message{ID: c.newID(), Timestamp: now}
	event := log.LogEvent{RequestID: req.ID, MessageID: msg.ID, DurationMs: now.Sub(req.IssuedAt).Milliseconds()}

	if err != nil {
		msg.Sender = SenderSystem
		msg.Content = markup.Document{markup.Literal(describeFailure(err))}
		c.state = StateFailed
		c.lastErr = err

		event.Event = log.EventRequestFailed
		event.Error = err.Error()
		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			event.StatusCode = backendErr.StatusCode
		}
	} else {
		msg.Sender = SenderAssistant
		msg.Content = markup.Parse(reply.Text)
		msg.Agent = reply.Agent
		c.state = StateIdle
		c.lastErr = nil

		event.Event = log.EventReplyReceived
		event.Agent = reply.Agent
	}

	c.inflight = nil
	c.transcript = append(c.transcript, msg)
	c.emit(event)

	return msg, nil
}

// Dispatch performs the backend call for req. It does not touch controller
// state; callers pass the result to Resolve.
func (c *Controller) Dispatch(ctx context.Context, req *Request) (*Reply, error) {
	if c.transport == nil {
		return nil, &NetworkError{Err: errors.New("no transport configured")}
	}
	return c.transport.Send(ctx, req)
}

// Send runs a full turn: Submit, the backend call, and Resolve. It returns
// the outcome message. The error is the Submit precondition failure, or the
// backend failure that the outcome message describes.
func (c *Controller) Send(ctx context.Context, text string) (Message, error) {
	req, err := c.Submit(text)
	if err != nil {
		return Message{}, err
	}

	reply, sendErr := c.Dispatch(ctx, req)
	msg, err := c.Resolve(req, reply, sendErr)
	if err != nil {
		return msg, err
	}
	return msg, sendErr
}

// SelectAttachment validates f and makes it the pending attachment,
// replacing any previous one. On error the pending slot is unchanged.
func (c *Controller) SelectAttachment(f *attach.File) (attach.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.policy.Validate(f)
	if err != nil {
		event := log.LogEvent{Event: log.EventAttachmentRejected, Error: err.Error()}
		if f != nil {
			event.Filename = f.Name
			event.SizeBytes = f.Size
		}
		c.emit(event)
		return attach.Report{}, err
	}

	c.pending = f
	c.emit(log.LogEvent{
		Event:     log.EventAttachmentSelected,
		Filename:  f.Name,
		SizeBytes: f.Size,
		Pages:     f.Pages,
		Reason:    report.Notice,
	})
	return report, nil
}

// SelectFile loads the file at path and selects it.
func (c *Controller) SelectFile(path string) (attach.Report, error) {
	c.mu.Lock()
	maxBytes := c.policy.MaxBytes
	c.mu.Unlock()

	f, err := attach.Load(path, maxBytes)
	if err != nil {
		c.emit(log.LogEvent{Event: log.EventAttachmentRejected, Filename: path, Error: err.Error()})
		return attach.Report{}, err
	}
	return c.SelectAttachment(f)
}

// RemoveAttachment discards the pending attachment, if any.
func (c *Controller) RemoveAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return
	}
	c.emit(log.LogEvent{Event: log.EventAttachmentRemoved, Filename: c.pending.Name})
	c.pending = nil
}

// Clear empties the transcript and the pending attachment. An in-flight
// request is left alone; its outcome is appended to the emptied transcript.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emit(log.LogEvent{Event: log.EventTranscriptCleared, Messages: len(c.transcript)})
	c.transcript = nil
	c.pending = nil
}

// Transcript returns a copy of the messages in chronological order.
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// LastReply returns the most recent assistant message.
func (c *Controller) LastReply() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.transcript) - 1; i >= 0; i-- {
		if c.transcript[i].Sender == SenderAssistant {
			return c.transcript[i], true
		}
	}
	return Message{}, false
}

// Pending returns the pending attachment, or nil.
func (c *Controller) Pending() *attach.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight returns the outstanding request, or nil.
func (c *Controller) InFlight() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// LastError returns the error of the last outcome when it failed.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
