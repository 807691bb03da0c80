package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/config"
	"github.com/canvasgpt/canvaschat/internal/mockbackend"
	"github.com/canvasgpt/canvaschat/internal/testutil"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Backend
	cfg.URL = srv.URL
	return New(cfg)
}

func TestSendAgainstMockBackend(t *testing.T) {
	c := newTestClient(t, mockbackend.New().Handler())

	reply, err := c.Send(context.Background(), &chat.Request{ID: "r1", Message: "When is the midterm?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(reply.Text, "When is the midterm?") {
		t.Errorf("reply = %q", reply.Text)
	}
	if reply.Agent != "web_search" {
		t.Errorf("agent = %q, want web_search", reply.Agent)
	}
}

func TestSendWithAttachment(t *testing.T) {
	var gotMessage, gotName, gotType, gotReqID string
	var gotData []byte
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotMessage = r.FormValue("message")
		gotReqID = r.Header.Get("X-Request-ID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"reply":"Thanks for the file"}`)
	})
	c := newTestClient(t, h)

	file, err := attach.FromBytes("diagram.png", testutil.PNG())
	if err != nil {
		t.Fatal(err)
	}
	reply, err := c.Send(context.Background(), &chat.Request{ID: "req-42", Message: "describe", Attachment: file})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if reply.Text != "Thanks for the file" {
		t.Errorf("reply = %q", reply.Text)
	}
	if gotMessage != "describe" || gotReqID != "req-42" {
		t.Errorf("message=%q request id=%q", gotMessage, gotReqID)
	}
	if gotName != "diagram.png" || gotType != "image/png" {
		t.Errorf("file part = %q %q", gotName, gotType)
	}
	if string(gotData) != string(testutil.PNG()) {
		t.Error("uploaded bytes differ")
	}
}

func TestSendErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantText   string
	}{
		{"json error field", 500, `{"error":"boom"}`, 500, "boom"},
		{"fastapi detail", 422, `{"detail":"field required"}`, 422, "field required"},
		{"fastapi validation list", 422, `{"detail":[{"loc":["body","message"],"msg":"field required","type":"missing"},{"loc":["body","file"],"msg":"bad upload","type":"value_error"}]}`, 422, "field required; bad upload"},
		{"json string error", 500, `"worker crashed"`, 500, "worker crashed"},
		{"json array error", 500, `["a","b"]`, 500, `["a","b"]`},
		{"plain text", 503, "upstream unavailable", 503, "upstream unavailable"},
		{"empty body", 502, "", 502, ""},
		{"200 with only error", 200, `{"error":"Error processing request: x"}`, 200, "Error processing request: x"},
		{"200 supervisor exception", 200, `{"error":"bad","response":"bad","agent":"error"}`, 200, "bad"},
		{"200 empty reply", 200, `{"reply":""}`, 200, "empty reply"},
		{"200 json array", 200, `[1,2]`, 200, "malformed response"},
		{"200 wrong reply type", 200, `{"reply":123}`, 200, "malformed response"},
		{"200 json null", 200, `null`, 200, "empty reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			_, err := c.Send(context.Background(), &chat.Request{ID: "r", Message: "hi"})
			var backendErr *chat.BackendError
			if !errors.As(err, &backendErr) {
				t.Fatalf("err = %v, want *chat.BackendError", err)
			}
			if backendErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", backendErr.StatusCode, tt.wantStatus)
			}
			if backendErr.Message != tt.wantText {
				t.Errorf("Message = %q, want %q", backendErr.Message, tt.wantText)
			}
		})
	}
}

func TestSendReplyFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantText  string
		wantAgent string
	}{
		{"reply field", `{"reply":"hi"}`, "hi", ""},
		{"response field", `{"response":"posted","agent":"canvas_post"}`, "posted", "canvas_post"},
		{"reply wins", `{"reply":"a","response":"b"}`, "a", ""},
		{"non json body", "1. one\n2. two", "1. one\n2. two", ""},
		{"json string body", `"hi there"`, "hi there", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			reply, err := c.Send(context.Background(), &chat.Request{ID: "r", Message: "hi"})
			if err != nil {
				t.Fatalf("Send: %v", err)
			}
			if reply.Text != tt.wantText || reply.Agent != tt.wantAgent {
				t.Errorf("reply = %+v", reply)
			}
		})
	}
}

func TestSendTruncatesLongErrorText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, strings.Repeat("é", 400))
	}))

	_, err := c.Send(context.Background(), &chat.Request{ID: "r", Message: "hi"})
	var backendErr *chat.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("err = %v, want *chat.BackendError", err)
	}
	if !utf8.ValidString(backendErr.Message) {
		t.Errorf("Message is not valid UTF-8: %q", backendErr.Message)
	}
	if want := strings.Repeat("é", 300) + "..."; backendErr.Message != want {
		t.Errorf("Message = %q, want 300 runes and an ellipsis", backendErr.Message)
	}
}

func TestSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.DefaultConfig().Backend
	cfg.URL = url
	c := New(cfg)

	_, err := c.Send(context.Background(), &chat.Request{ID: "r", Message: "hi"})
	var netErr *chat.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *chat.NetworkError", err)
	}
}

func TestControllerWithClient(t *testing.T) {
	c := newTestClient(t, mockbackend.New().Handler())
	ctrl := chat.NewController(c)

	if _, err := ctrl.Send(context.Background(), "trigger #fail please"); err == nil {
		t.Fatal("expected backend error")
	}
	transcript := ctrl.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript has %d messages", len(transcript))
	}
	if !strings.Contains(transcript[1].Content.PlainText(), "simulated backend failure") {
		t.Errorf("system message = %q", transcript[1].Content.PlainText())
	}

	msg, err := ctrl.Send(context.Background(), "recovered?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Sender != chat.SenderAssistant || ctrl.State() != chat.StateIdle {
		t.Errorf("outcome = %s, state = %s", msg.Sender, ctrl.State())
	}
}

func TestAdminEndpoints(t *testing.T) {
	c := newTestClient(t, mockbackend.New().Handler())
	ctx := context.Background()

	courses, err := c.Courses(ctx)
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	if len(courses) == 0 || courses[0].CourseCode == "" {
		t.Errorf("courses = %+v", courses)
	}

	if _, err := c.Send(ctx, &chat.Request{ID: "r", Message: "hi"}); err != nil {
		t.Fatal(err)
	}
	state, err := c.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if msgs, ok := state["messages"].([]any); !ok || len(msgs) != 2 {
		t.Errorf("state messages = %v", state["messages"])
	}

	msg, err := c.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if msg == "" {
		t.Error("expected reset message")
	}
}

func TestCoursesFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"error":"Canvas agent not configured"}`)
	}))
	_, err := c.Courses(context.Background())
	var backendErr *chat.BackendError
	if !errors.As(err, &backendErr) || backendErr.Message != "Canvas agent not configured" {
		t.Errorf("err = %v", err)
	}
}
