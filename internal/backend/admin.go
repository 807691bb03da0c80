package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/canvasgpt/canvaschat/internal/chat"
)

// Course is one Canvas course visible to the backend's API key.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

type coursesResponse struct {
	Success bool     `json:"success"`
	Courses []Course `json:"courses"`
	Error   string   `json:"error"`
}

type resetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Reset clears the backend supervisor's conversation state.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var out resetResponse
	if err := c.getJSON(ctx, http.MethodPost, c.cfg.ResetPath, &out); err != nil {
		return "", fmt.Errorf("resetting backend: %w", err)
	}
	if out.Status != "" && out.Status != "success" {
		return "", &chat.BackendError{StatusCode: http.StatusOK, Message: out.Message}
	}
	return out.Message, nil
}

// State returns the backend supervisor's raw state document.
func (c *Client) State(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.getJSON(ctx, http.MethodGet, c.cfg.StatePath, &out); err != nil {
		return nil, fmt.Errorf("fetching backend state: %w", err)
	}
	return out, nil
}

// Courses lists the Canvas courses the backend can post to.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	var out coursesResponse
	if err := c.getJSON(ctx, http.MethodGet, c.cfg.CoursesPath, &out); err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "course listing failed"
		}
		return nil, &chat.BackendError{StatusCode: http.StatusOK, Message: msg}
	}
	return out.Courses, nil
}

func (c *Client) getJSON(ctx context.Context, method, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, raw, err := c.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &chat.BackendError{StatusCode: status, Message: errorText(raw, parseBody(raw))}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &chat.BackendError{StatusCode: status, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}
