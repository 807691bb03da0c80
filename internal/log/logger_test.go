package log

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndReadAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	logger, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	events := []LogEvent{
		{Event: EventMessageSubmitted, RequestID: "req-1", Filename: "notes.pdf"},
		{Event: EventRequestFailed, RequestID: "req-1", StatusCode: 502, Error: "bad gateway"},
	}
	for _, e := range events {
		if err := logger.Append(e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Event != EventMessageSubmitted || got[0].Filename != "notes.pdf" {
		t.Errorf("event 0 = %+v", got[0])
	}
	if got[1].StatusCode != 502 {
		t.Errorf("event 1 StatusCode = %d, want 502", got[1].StatusCode)
	}
	for i, e := range got {
		if e.Time.IsZero() {
			t.Errorf("event %d has zero time", i)
		}
	}
}

func TestReadAllMissingFile(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	got, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll returned error for missing file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d events, want 0", len(got))
	}
}

func TestReadAllCorruptedLine(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := os.WriteFile(logger.Path(), []byte("{not json}\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := logger.ReadAll(); err == nil {
		t.Error("expected parse error")
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var logger *Logger
	if err := logger.Append(LogEvent{Event: EventSessionOpened}); err != nil {
		t.Errorf("nil Append returned %v", err)
	}
	got, err := logger.ReadAll()
	if err != nil || len(got) != 0 {
		t.Errorf("nil ReadAll = %v, %v", got, err)
	}
}
