// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/handler.go
// Summary: Handler interface receiving recognized terminal actions.
// Usage: Implement Handler (or embed NoopHandler) and hand it to New.
// Notes: Callbacks run synchronously on the caller's goroutine.

package vtparse

// Handler receives the stream of actions a Parser recognizes. Every method
// is invoked synchronously from Advance before it returns; the parser never
// buffers completed actions.
//
// Slices and Params passed to a callback are views into the parser's
// reusable accumulators. They are valid only until the callback returns;
// copy what you keep.
type Handler interface {
	// Print delivers one decoded glyph codepoint. Invalid UTF-8 input
	// arrives as U+FFFD.
	Print(r rune)

	// Execute delivers a C0 control byte, or a C1 control when 8-bit
	// controls are enabled.
	Execute(b byte)

	// CsiDispatch delivers a complete CSI sequence. ignored is set when the
	// sequence exceeded parameter or intermediate capacity, or was
	// malformed; handlers normally drop those. final is the concluding byte
	// in 0x40..0x7E.
	CsiDispatch(params *Params, inter []byte, ignored bool, final byte)

	// EscDispatch delivers a complete non-CSI escape sequence.
	EscDispatch(inter []byte, ignored bool, final byte)

	// Hook opens a DCS passthrough. The data string follows as Put calls
	// and Unhook closes it.
	Hook(params *Params, inter []byte, ignored bool, final byte)

	// Put delivers one raw byte of a DCS data string.
	Put(b byte)

	// Unhook closes a DCS passthrough, even one aborted by CAN, SUB or a
	// new escape. Hook and Unhook pair on every in-stream exit; only a
	// final Flush can leave a string unclosed.
	Unhook()

	// OscStart opens an operating system command string.
	OscStart()

	// OscPut delivers one raw byte of an OSC payload. Multibyte text passes
	// through undecoded.
	OscPut(b byte)

	// OscEnd closes an OSC string, terminated or aborted, under the same
	// pairing rule as Unhook.
	OscEnd()
}

// PrintEndHandler is an optional extension. A Handler that also implements
// it is told when a run of consecutive Print calls ends, which lets
// renderers flush a text chunk in one batch instead of per glyph. The
// notification fires before whatever non-print action interrupted the run,
// and on Flush.
type PrintEndHandler interface {
	PrintEnd()
}

// NoopHandler implements Handler with empty methods. Embed it to pick out
// just the callbacks an application cares about.
type NoopHandler struct{}

func (NoopHandler) Print(rune)                              {}
func (NoopHandler) Execute(byte)                            {}
func (NoopHandler) CsiDispatch(*Params, []byte, bool, byte) {}
func (NoopHandler) EscDispatch([]byte, bool, byte)          {}
func (NoopHandler) Hook(*Params, []byte, bool, byte)        {}
func (NoopHandler) Put(byte)                                {}
func (NoopHandler) Unhook()                                 {}
func (NoopHandler) OscStart()                               {}
func (NoopHandler) OscPut(byte)                             {}
func (NoopHandler) OscEnd()                                 {}
