// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/testharness.go
// Summary: Test harness for driving the parser over scripted input.
// Usage: Used by test files to feed sequences and verify callback traces.
// Notes: Records callbacks as Events; assertions compare rendered traces.

package vtparse

import (
	"strings"
	"testing"
)

// Harness wires a Parser to a collecting handler and records every
// callback it makes, PrintEnd included.
type Harness struct {
	Parser *Parser
	Events []Event
}

// NewHarness creates a harness around a freshly constructed Parser.
func NewHarness(opts ...Option) *Harness {
	h := &Harness{}
	h.Parser = New(Collect(&h.Events), opts...)
	return h
}

// Feed sends a byte string through the parser one byte at a time.
// Example: h.Feed("\x1b[5A") sends "cursor up 5".
func (h *Harness) Feed(s string) {
	for i := 0; i < len(s); i++ {
		h.Parser.Advance(s[i])
	}
}

// FeedBytes sends raw bytes one at a time.
func (h *Harness) FeedBytes(data ...byte) {
	for _, b := range data {
		h.Parser.Advance(b)
	}
}

// FeedRunes sends decoded codepoints through AdvanceRune.
func (h *Harness) FeedRunes(s string) {
	for _, r := range s {
		h.Parser.AdvanceRune(r)
	}
}

// Drop discards the events recorded so far without touching parser state.
func (h *Harness) Drop() {
	h.Events = h.Events[:0]
}

// Trace renders the recorded events one string per callback.
func (h *Harness) Trace() []string {
	out := make([]string, len(h.Events))
	for i, e := range h.Events {
		out[i] = e.String()
	}
	return out
}

// AssertTrace verifies the recorded callbacks match want exactly, in order.
func (h *Harness) AssertTrace(t *testing.T, want ...string) {
	t.Helper()
	got := h.Trace()
	if len(got) != len(want) {
		t.Errorf("Expected %d callbacks, got %d\nwant:\n  %s\ngot:\n  %s",
			len(want), len(got),
			strings.Join(want, "\n  "), strings.Join(got, "\n  "))
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Callback %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// AssertState verifies the parser's current grammar state.
func (h *Harness) AssertState(t *testing.T, want State) {
	t.Helper()
	if got := h.Parser.State(); got != want {
		t.Errorf("Expected parser state %v, got %v", want, got)
	}
}

// AssertNoEvents verifies nothing was recorded.
func (h *Harness) AssertNoEvents(t *testing.T) {
	t.Helper()
	if len(h.Events) != 0 {
		t.Errorf("Expected no callbacks, got %d:\n  %s",
			len(h.Events), strings.Join(h.Trace(), "\n  "))
	}
}

// LastCsi returns the most recent CsiDispatch event, failing the test if
// none was recorded.
func (h *Harness) LastCsi(t *testing.T) Event {
	t.Helper()
	for i := len(h.Events) - 1; i >= 0; i-- {
		if h.Events[i].Kind == EventCsiDispatch {
			return h.Events[i]
		}
	}
	t.Fatalf("Expected a CsiDispatch callback, got none")
	return Event{}
}
