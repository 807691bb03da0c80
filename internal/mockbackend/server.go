// Package mockbackend serves a stand-in for the assistant backend. It speaks
// the same chat and admin contract so the client can be exercised without
// the real supervisor, Canvas credentials, or an LLM.
package mockbackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Triggers recognised in a message to simulate backend failures.
const (
	TriggerHTTPFailure = "#fail"  // 500 with {"error": ...}
	TriggerSoftFailure = "#error" // 200 with {"error": ...}, as the supervisor does
)

const maxUploadBytes = 32 << 20

type stateMessage struct {
	Content  string         `json:"content"`
	Type     string         `json:"type"`
	Role     string         `json:"role"`
	Metadata map[string]any `json:"metadata"`
}

type upload struct {
	name        string
	contentType string
	size        int
}

// Backend holds the mock supervisor state.
type Backend struct {
	mu       sync.Mutex
	messages []stateMessage
	courses  []map[string]any
}

// New creates a Backend with a fixed course list.
func New() *Backend {
	return &Backend{
		courses: []map[string]any{
			{"id": 101, "name": "Intro to Data Science", "course_code": "DS101"},
			{"id": 204, "name": "Operating Systems", "course_code": "CS204"},
			{"id": 310, "name": "Technical Writing", "course_code": "ENG310"},
		},
	}
}

// Handler returns the chi router serving the backend contract.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/agent-workflow", b.handleJSON)
	r.Post("/agent-workflow/form", b.handleForm)
	r.Get("/supervisor-state", b.handleState)
	r.Post("/reset-supervisor", b.handleReset)
	r.Get("/courses", b.handleCourses)
	return r
}

func (b *Backend) handleJSON(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "query is required"})
		return
	}
	b.respond(w, req.Query, nil)
}

func (b *Backend) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form: " + err.Error()})
		return
	}
	message := r.FormValue("message")

	var up *upload
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		n, err := io.Copy(io.Discard, file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading upload: " + err.Error()})
			return
		}
		up = &upload{name: header.Filename, contentType: header.Header.Get("Content-Type"), size: int(n)}
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading upload: " + err.Error()})
		return
	}

	b.respond(w, message, up)
}

func (b *Backend) respond(w http.ResponseWriter, message string, up *upload) {
	if strings.Contains(message, TriggerHTTPFailure) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "simulated backend failure",
		})
		return
	}
	if strings.Contains(message, TriggerSoftFailure) {
		text := "Error processing message: simulated supervisor exception"
		writeJSON(w, http.StatusOK, map[string]any{
			"error":    text,
			"response": text,
			"agent":    "error",
		})
		return
	}

	b.mu.Lock()
	b.messages = append(b.messages, stateMessage{
		Content:  message,
		Type:     "text",
		Role:     "user",
		Metadata: map[string]any{"has_file": up != nil},
	})
	reply := composeReply(message, up)
	b.messages = append(b.messages, stateMessage{Content: reply, Type: "text", Role: "assistant", Metadata: map[string]any{}})
	turn := len(b.messages) / 2
	b.mu.Unlock()

	agent := "web_search"
	if up != nil {
		agent = "document_handler"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response":        reply,
		"agent":           agent,
		"conversation_id": turn,
	})
}

func composeReply(message string, up *upload) string {
	var sb strings.Builder
	if message != "" {
		fmt.Fprintf(&sb, "You asked: **%s**\n\n", message)
	}
	if up != nil {
		sb.WriteString("I received your file:\n")
		fmt.Fprintf(&sb, "- name: %s\n", up.name)
		fmt.Fprintf(&sb, "- type: %s\n", up.contentType)
		fmt.Fprintf(&sb, "- size: %d bytes\n\n", up.size)
	}
	sb.WriteString("This is the mock backend. A real deployment would:\n")
	sb.WriteString("1. Route the message to a *specialist* agent\n")
	sb.WriteString("2. Draft the Canvas post or answer\n")
	sb.WriteString("3. Ask you to confirm before publishing")
	return sb.String()
}

func (b *Backend) handleState(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	messages := make([]stateMessage, len(b.messages))
	copy(messages, b.messages)
	b.mu.Unlock()

	var current any
	if len(messages) > 0 {
		current = "mock"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages":      messages,
		"context":       map[string]any{},
		"current_agent": current,
	})
}

func (b *Backend) handleReset(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.messages = nil
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Supervisor state reset",
	})
}

func (b *Backend) handleCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"courses": b.courses,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Server is the mock backend bound to a TCP listener.
type Server struct {
	listener net.Listener
	server   *http.Server
}

// NewServer binds addr (use "127.0.0.1:0" for a random port).
func NewServer(addr string, b *Backend) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mockbackend: binding listener: %w", err)
	}
	return &Server{
		listener: ln,
		server:   &http.Server{Handler: b.Handler()},
	}, nil
}

// Addr returns the address the server is listening on (e.g. "127.0.0.1:12345").
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// URL returns the base URL clients should use.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Start begins serving HTTP requests. Blocks until Stop is called.
func (s *Server) Start() error {
	err := s.server.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes the listener and any open connections.
func (s *Server) Stop() error {
	return s.server.Close()
}
