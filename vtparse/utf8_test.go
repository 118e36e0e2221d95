// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/utf8_test.go
// Summary: Incremental UTF-8 decoding tests, valid and hostile input.
// Usage: Run with `go test` to verify replacement and resync behavior.
// Notes: Complete-but-invalid encodings collapse to a single U+FFFD.

package vtparse

import (
	"testing"
	"unicode/utf8"
)

// assertPrintRunes compares only the Print callbacks, letting PrintEnd
// and other events pass unexamined.
func assertPrintRunes(t *testing.T, h *Harness, want ...rune) {
	t.Helper()
	var got []rune
	for _, ev := range h.Events {
		if ev.Kind == EventPrint {
			got = append(got, ev.Rune)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d Print callbacks, got %d (%q vs %q)",
			len(want), len(got), string(want), string(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Print %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// TestUtf8ValidSequences decodes two, three and four byte codepoints fed
// one byte at a time.
func TestUtf8ValidSequences(t *testing.T) {
	h := NewHarness()
	h.Feed("é∀😀")
	assertPrintRunes(t, h, 'é', '∀', '😀')
}

// TestUtf8SplitAcrossWrites verifies a codepoint straddling two Write
// calls assembles correctly.
func TestUtf8SplitAcrossWrites(t *testing.T) {
	h := NewHarness()
	h.Parser.Write([]byte{0xF0, 0x9F})
	h.AssertNoEvents(t)
	h.Parser.Write([]byte{0x98, 0x80, 'x'})
	assertPrintRunes(t, h, '😀', 'x')
}

// TestUtf8LoneContinuation verifies a stray continuation byte prints one
// replacement and the next byte parses normally.
func TestUtf8LoneContinuation(t *testing.T) {
	h := NewHarness()
	h.FeedBytes(0x80, 'A')
	assertPrintRunes(t, h, utf8.RuneError, 'A')
	if len(h.Events) != 2 {
		t.Errorf("Expected exactly 2 callbacks, got %d", len(h.Events))
	}
}

// TestUtf8InvalidLeads verifies bytes that can never begin a sequence
// each produce exactly one replacement.
func TestUtf8InvalidLeads(t *testing.T) {
	for _, b := range []byte{0xC0, 0xC1, 0xF5, 0xFE, 0xFF} {
		h := NewHarness()
		h.FeedBytes(b, 'x')
		assertPrintRunes(t, h, utf8.RuneError, 'x')
	}
}

// TestUtf8AbortedByNonContinuation verifies the aborting byte is not
// swallowed with the dead partial; it starts a fresh unit.
func TestUtf8AbortedByNonContinuation(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []rune
	}{
		{"partial then ascii", []byte{0xC3, 'A'}, []rune{utf8.RuneError, 'A'}},
		{"partial then new lead", []byte{0xE2, 0x88, 0xC3, 0xA9}, []rune{utf8.RuneError, 'é'}},
		{"two dead partials", []byte{0xC3, 0xE2, 0x88, 'x'}, []rune{utf8.RuneError, utf8.RuneError, 'x'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHarness()
			h.FeedBytes(tt.input...)
			assertPrintRunes(t, h, tt.want...)
		})
	}
}

// TestUtf8AbortedByEscape verifies a control arriving mid-codepoint kills
// the partial and then acts normally.
func TestUtf8AbortedByEscape(t *testing.T) {
	h := NewHarness()
	h.Feed("\xc3\x1b[2J")
	h.AssertTrace(t,
		"Print('�')",
		"PrintEnd()",
		"CsiDispatch(final='J', params=[[2]])",
	)

	h = NewHarness()
	h.FeedBytes(0xE2, 0x88, 0x0A)
	assertPrintRunes(t, h, utf8.RuneError)
	last := h.Events[len(h.Events)-1]
	if last.Kind != EventExecute || last.Byte != 0x0A {
		t.Errorf("Expected trailing Execute(0x0A), got %s", last)
	}
}

// TestUtf8OverlongAndSurrogate verifies complete sequences that decode to
// forbidden values collapse to a single replacement, not one per byte.
func TestUtf8OverlongAndSurrogate(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []rune
	}{
		{"overlong three byte", []byte{0xE0, 0x80, 0x80, 'x'}, []rune{utf8.RuneError, 'x'}},
		{"surrogate half", []byte{0xED, 0xA0, 0x80, 'x'}, []rune{utf8.RuneError, 'x'}},
		{"beyond max codepoint", []byte{0xF4, 0x90, 0x80, 0x80, 'x'}, []rune{utf8.RuneError, 'x'}},
		{"legitimate replacement char", []byte{0xEF, 0xBF, 0xBD, 'x'}, []rune{utf8.RuneError, 'x'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHarness()
			h.FeedBytes(tt.input...)
			assertPrintRunes(t, h, tt.want...)
		})
	}
}

// TestUtf8PendingFlush verifies Flush converts a dangling partial into a
// replacement and closes the run.
func TestUtf8PendingFlush(t *testing.T) {
	h := NewHarness()
	h.FeedBytes(0xE2, 0x88)
	h.AssertNoEvents(t)
	h.Parser.Flush()
	h.AssertTrace(t,
		"Print('�')",
		"PrintEnd()",
	)
}

// TestUtf8RunContinuesAcrossReplacement verifies replacements are part of
// the text run; no PrintEnd separates them from surrounding glyphs.
func TestUtf8RunContinuesAcrossReplacement(t *testing.T) {
	h := NewHarness()
	h.FeedBytes('a', 0x80, 'b')
	h.AssertTrace(t,
		"Print('a')",
		"Print('�')",
		"Print('b')",
	)
}
