// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/osc_test.go
// Summary: OSC string tests, both terminators plus abort paths.
// Usage: Run with `go test` to verify OscStart/OscPut/OscEnd pairing.

package vtparse

import (
	"testing"
)

// TestOscBelAndStEquivalent verifies BEL and ESC-backslash terminate an
// OSC identically: same callbacks, no extra Execute for either
// terminator.
func TestOscBelAndStEquivalent(t *testing.T) {
	bel := NewHarness()
	bel.Feed("\x1b]0;title\x07")
	st := NewHarness()
	st.Feed("\x1b]0;title\x1b\\")

	want := []string{
		"OscStart()",
		"OscPut(0x30)",
		"OscPut(0x3B)",
		"OscPut(0x74)",
		"OscPut(0x69)",
		"OscPut(0x74)",
		"OscPut(0x6C)",
		"OscPut(0x65)",
		"OscEnd()",
	}
	bel.AssertTrace(t, want...)
	st.AssertTrace(t, want...)
	bel.AssertState(t, StateGround)
	st.AssertState(t, StateGround)
}

// TestOscEmpty verifies a bare OSC still pairs start and end.
func TestOscEmpty(t *testing.T) {
	h := NewHarness()
	h.Feed("\x1b]\x07")
	h.AssertTrace(t,
		"OscStart()",
		"OscEnd()",
	)
}

// TestOscPayloadIsRawBytes verifies multibyte text inside an OSC passes
// through undecoded, one OscPut per byte.
func TestOscPayloadIsRawBytes(t *testing.T) {
	h := NewHarness()
	h.Feed("\x1b]2;é\x07")
	h.AssertTrace(t,
		"OscStart()",
		"OscPut(0x32)",
		"OscPut(0x3B)",
		"OscPut(0xC3)",
		"OscPut(0xA9)",
		"OscEnd()",
	)
}

// TestOscDropsControls verifies C0 controls other than the BEL terminator
// vanish inside an OSC payload without executing.
func TestOscDropsControls(t *testing.T) {
	h := NewHarness()
	h.Feed("\x1b]0;a\tb\r\n\x07")
	h.AssertTrace(t,
		"OscStart()",
		"OscPut(0x30)",
		"OscPut(0x3B)",
		"OscPut(0x61)",
		"OscPut(0x62)",
		"OscEnd()",
	)
}

// TestOscAborts verifies every way out of an OSC still closes it, so
// OscStart and OscEnd stay paired.
func TestOscAborts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"cancelled by CAN",
			"\x1b]0;t\x18x",
			[]string{"OscStart()", "OscPut(0x30)", "OscPut(0x3B)", "OscPut(0x74)", "OscEnd()", "Print('x')"},
		},
		{
			"cancelled by SUB",
			"\x1b]0;t\x1ax",
			[]string{"OscStart()", "OscPut(0x30)", "OscPut(0x3B)", "OscPut(0x74)", "OscEnd()", "Execute(0x1A)", "Print('x')"},
		},
		{
			"interrupted by new sequence",
			"\x1b]0;t\x1b[2Jx",
			[]string{"OscStart()", "OscPut(0x30)", "OscPut(0x3B)", "OscPut(0x74)", "OscEnd()", "CsiDispatch(final='J', params=[[2]])", "Print('x')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHarness()
			h.Feed(tt.input)
			h.AssertTrace(t, tt.want...)
			h.AssertState(t, StateGround)
		})
	}
}

// TestSosPmApcSwallowed verifies SOS, PM and APC strings produce no
// callbacks at all and release the machine at ST.
func TestSosPmApcSwallowed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"SOS", "\x1bXsecret payload\x1b\\x"},
		{"PM", "\x1b^privacy\x1b\\x"},
		{"APC", "\x1b_app command\x1b\\x"},
		{"BEL does not terminate", "\x1bXa\x07b\x1b\\x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHarness()
			h.Feed(tt.input)
			h.AssertTrace(t, "Print('x')")
			h.AssertState(t, StateGround)
		})
	}
}
