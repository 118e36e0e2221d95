// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/c1_test.go
// Summary: 8-bit C1 control mode tests and the Unicode-mode contrast.
// Usage: Run with `go test` to verify WithC1Controls behavior.

package vtparse

import (
	"testing"
	"unicode/utf8"
)

// TestC1Introducers verifies the single-byte forms of CSI, OSC and DCS
// behave like their ESC-prefixed spellings when 8-bit mode is on.
func TestC1Introducers(t *testing.T) {
	t.Run("CSI 0x9B", func(t *testing.T) {
		h := NewHarness(WithC1Controls(true))
		h.Feed("\x9b31m")
		h.AssertTrace(t, "CsiDispatch(final='m', params=[[31]])")
	})

	t.Run("OSC 0x9D with ST 0x9C", func(t *testing.T) {
		h := NewHarness(WithC1Controls(true))
		h.Feed("\x9d0;t\x9c")
		h.AssertTrace(t,
			"OscStart()",
			"OscPut(0x30)",
			"OscPut(0x3B)",
			"OscPut(0x74)",
			"OscEnd()",
		)
	})

	t.Run("DCS 0x90", func(t *testing.T) {
		h := NewHarness(WithC1Controls(true))
		h.Feed("\x90qab\x9c")
		h.AssertTrace(t,
			"Hook(final='q', params=[[0]])",
			"Put(0x61)",
			"Put(0x62)",
			"Unhook()",
		)
	})

	t.Run("SOS 0x98 swallowed to ST", func(t *testing.T) {
		h := NewHarness(WithC1Controls(true))
		h.Feed("\x98junk\x9cx")
		h.AssertTrace(t, "Print('x')")
	})
}

// TestC1Executes verifies plain C1 controls execute and abort any open
// sequence, matching their ESC-equivalent dispatch semantics.
func TestC1Executes(t *testing.T) {
	h := NewHarness(WithC1Controls(true))
	h.Feed("\x85")
	h.AssertTrace(t, "Execute(0x85)")

	h = NewHarness(WithC1Controls(true))
	h.Feed("\x9b12\x85x")
	h.AssertTrace(t,
		"Execute(0x85)",
		"Print('x')",
	)
	h.AssertState(t, StateGround)
}

// TestC1Latin1Printables verifies 0xA0..0xFF print as Latin-1 codepoints
// in 8-bit mode instead of opening UTF-8 sequences.
func TestC1Latin1Printables(t *testing.T) {
	h := NewHarness(WithC1Controls(true))
	h.FeedBytes(0xE9, 0xFC)
	assertPrintRunes(t, h, 'é', 'ü')
}

// TestC1StClosesStringsFromAnywhere verifies 0x9C terminates OSC and DCS
// with the same traces as the 7-bit ESC-backslash form.
func TestC1StClosesStringsFromAnywhere(t *testing.T) {
	sevenBit := NewHarness(WithC1Controls(true))
	sevenBit.Feed("\x1b]0;t\x1b\\")
	eightBit := NewHarness(WithC1Controls(true))
	eightBit.Feed("\x1b]0;t\x9c")

	a, b := sevenBit.Trace(), eightBit.Trace()
	if len(a) != len(b) {
		t.Fatalf("Expected identical traces, got %d and %d callbacks", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Callback %d: %s vs %s", i, a[i], b[i])
		}
	}
}

// TestUnicodeModeHighBytes verifies the default mode treats 0x80..0x9F as
// UTF-8 material, not controls: a raw 0x9B is a stray continuation byte.
func TestUnicodeModeHighBytes(t *testing.T) {
	h := NewHarness()
	h.FeedBytes(0x9B, '3', '1', 'm')
	assertPrintRunes(t, h, utf8.RuneError, '3', '1', 'm')
}

// TestUnicodeModeC1Codepoints verifies decoded C1 codepoints print as
// ordinary text in the default mode; control meaning requires opting in.
func TestUnicodeModeC1Codepoints(t *testing.T) {
	h := NewHarness()
	h.Parser.AdvanceRune(0x9B)
	assertPrintRunes(t, h, 0x9B)

	c1 := NewHarness(WithC1Controls(true))
	c1.Parser.AdvanceRune(0x9B)
	c1.Parser.AdvanceRune('H')
	c1.AssertTrace(t, "CsiDispatch(final='H', params=[[0]])")
}
