// Package notify is the single error reporting hook of the widget runtime.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Reporter surfaces a failure message to the user.
type Reporter func(message string)

// Alerter shows a blocking alert.
type Alerter interface {
	Alert(message string)
}

// Alert returns the default reporter: a blocking alert on the host.
func Alert(host Alerter) Reporter {
	return func(message string) {
		if host == nil {
			return
		}
		host.Alert(message)
	}
}

// Writer returns a reporter printing messages to w, one per line.
func Writer(w io.Writer) Reporter {
	return func(message string) {
		if w == nil {
			return
		}
		_, _ = fmt.Fprintln(w, message)
	}
}

// Hook holds the current reporter. Hosts may replace it at any time.
type Hook struct {
	mu       sync.RWMutex
	reporter Reporter
}

// NewHook returns a hook using reporter.
func NewHook(reporter Reporter) *Hook {
	return &Hook{reporter: reporter}
}

// Set replaces the reporter. A nil reporter silences reports.
func (h *Hook) Set(reporter Reporter) {
	h.mu.Lock()
	h.reporter = reporter
	h.mu.Unlock()
}

// Report forwards message to the current reporter.
func (h *Hook) Report(message string) {
	if h == nil {
		return
	}
	h.mu.RLock()
	reporter := h.reporter
	h.mu.RUnlock()
	if reporter != nil {
		reporter(message)
	}
}

// Errorf formats and reports a message.
func (h *Hook) Errorf(format string, args ...any) {
	h.Report(fmt.Sprintf(format, args...))
}
