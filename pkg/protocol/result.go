package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the "res" discriminator of a resolution payload.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Result is the payload returned by resolve and add endpoints and handed to
// change callbacks. The empty-selection payload only carries an empty PK.
type Result struct {
	Outcome Outcome `json:"res,omitempty"`
	PK      ID      `json:"pk"`
	Display string  `json:"display,omitempty"`
	URL     string  `json:"url,omitempty"`
	Message string  `json:"msg,omitempty"`
}

// OK reports whether the payload describes a resolved record. Any outcome
// other than "ok" is treated as an error by the widget.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Empty reports whether the payload is the empty-selection notification.
func (r Result) Empty() bool {
	return r.Outcome == "" && r.PK == ""
}

// Cleared returns the payload dispatched when a field is emptied.
func Cleared() Result {
	return Result{}
}

// Resolved builds a successful payload.
func Resolved(pk, display, url string) Result {
	return Result{Outcome: OutcomeOK, PK: ID(pk), Display: display, URL: url}
}

// Failed builds an error payload carrying msg.
func Failed(msg string) Result {
	return Result{Outcome: OutcomeError, Message: msg}
}

// ID is a record identifier. Endpoints may encode it as a JSON string or a
// JSON number; both decode to the same textual form.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("protocol: decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("protocol: decode id: %w", err)
	}
	*id = ID(strings.TrimSpace(n.String()))
	return nil
}
