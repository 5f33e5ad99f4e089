package notify

import (
	"bytes"
	"testing"
)

type alerts []string

func (a *alerts) Alert(message string) { *a = append(*a, message) }

func TestHookUsesCurrentReporter(t *testing.T) {
	var host alerts
	hook := NewHook(Alert(&host))
	hook.Report("first")

	var buf bytes.Buffer
	hook.Set(Writer(&buf))
	hook.Errorf("second %d", 2)

	hook.Set(nil)
	hook.Report("dropped")

	if len(host) != 1 || host[0] != "first" {
		t.Fatalf("unexpected alerts %v", host)
	}
	if buf.String() != "second 2\n" {
		t.Fatalf("unexpected writer output %q", buf.String())
	}
}
