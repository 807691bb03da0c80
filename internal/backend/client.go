// Package backend is the HTTP adapter for the assistant's chat API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"unicode/utf8"

	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/config"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client talks to the assistant backend. It implements chat.Transport.
type Client struct {
	cfg  config.BackendConfig
	http *http.Client
}

// New creates a Client for the given backend settings.
func New(cfg config.BackendConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout()},
	}
}

// NewWithHTTPClient creates a Client that uses hc for transport.
func NewWithHTTPClient(cfg config.BackendConfig, hc *http.Client) *Client {
	return &Client{cfg: cfg, http: hc}
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.URL, "/") + path
}

// chatResponse covers both the documented {reply} shape and the
// {response, agent, error} shape the supervisor returns.
type chatResponse struct {
	Reply    string `json:"reply"`
	Response string `json:"response"`
	Agent    string `json:"agent"`
	Error    string `json:"error"`
	Detail   any    `json:"detail"`
	Message  string `json:"message"`
}

// Send posts the message and optional attachment as multipart/form-data.
func (c *Client) Send(ctx context.Context, req *chat.Request) (*chat.Reply, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.cfg.ChatPath), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", req.ID)

	status, raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	return decodeReply(status, raw)
}

func encodeForm(req *chat.Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("message", req.Message); err != nil {
		return nil, "", err
	}

	if f := req.Attachment; f != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.Name)))
		h.Set("Content-Type", f.MIMEType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// do executes the request and reads the body. Transport and read failures
// are network errors; the status code is returned for the caller to judge.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &chat.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &chat.NetworkError{Err: fmt.Errorf("reading response: %w", err)}
	}
	return resp.StatusCode, raw, nil
}

func decodeReply(status int, raw []byte) (*chat.Reply, error) {
	body := parseBody(raw)

	if status < 200 || status > 299 {
		return nil, &chat.BackendError{StatusCode: status, Message: errorText(raw, body)}
	}

	if !body.object {
		if body.malformed {
			return nil, &chat.BackendError{StatusCode: status, Message: "malformed response"}
		}
		if body.text == "" {
			return nil, &chat.BackendError{StatusCode: status, Message: "empty reply"}
		}
		return &chat.Reply{Text: body.text}, nil
	}

	f := body.fields
	text := f.Reply
	if text == "" {
		text = f.Response
	}
	if strings.TrimSpace(text) == "" {
		if f.Error != "" {
			return nil, &chat.BackendError{StatusCode: status, Message: f.Error}
		}
		return nil, &chat.BackendError{StatusCode: status, Message: "empty reply"}
	}
	// The supervisor mirrors errors into "response"; prefer the error field.
	if f.Error != "" && f.Agent == "error" {
		return nil, &chat.BackendError{StatusCode: status, Message: f.Error}
	}
	return &chat.Reply{Text: text, Agent: f.Agent}, nil
}

// responseBody is a response payload sorted by shape. Plain text and JSON
// strings carry text; JSON objects matching chatResponse carry fields; any
// other JSON value is malformed.
type responseBody struct {
	fields    chatResponse
	text      string
	object    bool
	malformed bool
}

func parseBody(raw []byte) responseBody {
	var msg json.RawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return responseBody{text: strings.TrimSpace(string(raw))}
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return responseBody{text: strings.TrimSpace(s)}
	}
	var b responseBody
	if err := json.Unmarshal(msg, &b.fields); err != nil {
		b.malformed = true
		return b
	}
	b.object = true
	return b
}

// maxErrorRunes caps error text taken from a raw body.
const maxErrorRunes = 300

func errorText(raw []byte, body responseBody) string {
	if body.object {
		f := body.fields
		switch {
		case f.Error != "":
			return f.Error
		case f.Message != "":
			return f.Message
		}
		return detailText(f.Detail)
	}
	text := body.text
	if body.malformed {
		text = strings.TrimSpace(string(raw))
	}
	return truncate(text, maxErrorRunes)
}

// detailText reads a FastAPI "detail", which is either a string or a list of
// validation errors each carrying a "msg".
func detailText(detail any) string {
	switch d := detail.(type) {
	case string:
		return d
	case []any:
		var msgs []string
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if s, ok := m["msg"].(string); ok && s != "" {
					msgs = append(msgs, s)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
