// Package ui provides plain-terminal output helpers for canvaschat.
// This file implements the waiting line shown while "ask" is in flight.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Waiting redraws a single status line with the elapsed time until Stop.
// On a non-terminal writer it prints nothing, so piped output stays clean.
type Waiting struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	isTTY   bool
	started time.Time
	drawn   bool
	done    chan struct{}
	stopped chan struct{}
}

// NewWaiting creates a Waiting that writes to w.
func NewWaiting(w io.Writer, label string) *Waiting {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &Waiting{
		w:       w,
		label:   label,
		isTTY:   isTTY,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins redrawing every interval.
func (p *Waiting) Start(interval time.Duration) {
	p.started = time.Now()
	if !p.isTTY {
		close(p.stopped)
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		p.render()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.render()
			}
		}
	}()
}

// Stop ends the display, erases the line, and returns the elapsed time.
func (p *Waiting) Stop() time.Duration {
	close(p.done)
	<-p.stopped

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprint(p.w, "\r\033[2K")
		p.drawn = false
	}
	return time.Since(p.started)
}

func (p *Waiting) render() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.started).Round(time.Second)
	fmt.Fprintf(p.w, "\r\033[2K%s %s", p.label, formatDuration(elapsed))
	p.drawn = true
}

// formatDuration renders d as "42s" or "1m05s".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
