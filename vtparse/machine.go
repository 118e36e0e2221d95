// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/machine.go
// Summary: Byte-at-a-time recognizer for VT escape and control sequences.
// Usage: Feed bytes with Advance or Write; actions arrive on the Handler.
// Notes: Fixed-capacity accumulators, no allocation per byte.

// Package vtparse recognizes VT500-series terminal escape sequences.
//
// A Parser consumes a raw output stream one byte at a time and reports what
// it finds to a Handler: printable text, C0/C1 controls, CSI and ESC
// dispatches, DCS passthrough data and OSC strings. The parser itself
// never interprets a sequence; deciding what CSI 'H' means is the
// handler's business. Every byte sequence is acceptable input. Malformed
// sequences are recognized, swallowed and reported with ignored set, so a
// hostile or garbled stream can never desynchronize the machine.
//
// The default mode is Unicode-native: bytes at or above 0x80 are assembled
// into UTF-8 codepoints for Print, with invalid encodings replaced by
// U+FFFD. WithC1Controls switches to the 8-bit convention instead, where
// 0x80..0x9F act as C1 controls and higher bytes print as Latin-1.
package vtparse

import "unicode/utf8"

// Parser is the terminal escape sequence state machine. The zero value is
// not usable; construct with New. A Parser is exclusively owned by one
// stream; it performs no locking of its own.
type Parser struct {
	handler  Handler
	printEnd PrintEndHandler // non-nil when handler wants end-of-run notices

	state  State
	params Params
	inter  intermediates

	pending utf8Pending

	c1       bool // 8-bit C1 controls and Latin-1 printables
	stArmed  bool // previous byte was an ESC that closed a string
	printing bool // inside a run of consecutive Print actions
}

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithC1Controls selects the 8-bit interpretation of bytes 0x80..0xFF:
// 0x80..0x9F become C1 controls (CSI, OSC, DCS introducers and ST among
// them) and 0xA0..0xFF print as Latin-1 codepoints. UTF-8 assembly is
// disabled in this mode; the two interpretations of high bytes cannot
// coexist on one stream.
func WithC1Controls(enabled bool) Option {
	return func(p *Parser) { p.c1 = enabled }
}

// New returns a Parser delivering actions to h. A nil h is replaced by
// NoopHandler, which makes the parser a pure validator.
func New(h Handler, opts ...Option) *Parser {
	if h == nil {
		h = NoopHandler{}
	}
	p := &Parser{handler: h, state: StateGround}
	p.printEnd, _ = h.(PrintEndHandler)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current grammar state. Useful for tests and stream
// inspectors; handlers should rely on callbacks instead.
func (p *Parser) State() State { return p.state }

// Advance feeds one byte. All resulting handler callbacks run before it
// returns. Feeding a stream byte by byte or in chunks via Write produces
// the identical callback sequence.
func (p *Parser) Advance(b byte) {
	if p.pending.n > 0 {
		if b&0xC0 == 0x80 {
			p.continuation(b)
			return
		}
		// the partial codepoint is dead; the aborting byte is reprocessed
		// as the start of a fresh unit
		p.replacement()
	}
	p.step(b)
}

// Write feeds a chunk of bytes, implementing io.Writer. It always consumes
// the whole slice and never fails.
func (p *Parser) Write(data []byte) (int, error) {
	for _, b := range data {
		p.Advance(b)
	}
	return len(data), nil
}

// WriteString feeds a chunk given as a string, without copying.
func (p *Parser) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		p.Advance(s[i])
	}
	return len(s), nil
}

// AdvanceRune feeds one already-decoded codepoint. Values below 0x80 take
// the byte path unchanged. In the default Unicode mode higher codepoints
// print in Ground, feed OSC and DCS strings as their UTF-8 bytes, and
// route an open CSI or DCS header to its ignore state, since no decoded
// codepoint is part of the sequence grammar.
func (p *Parser) AdvanceRune(r rune) {
	if r < 0x80 {
		p.Advance(byte(r))
		return
	}
	if p.pending.n > 0 {
		p.replacement()
	}
	if p.c1 && r <= 0x9F {
		p.c1Control(byte(r))
		return
	}
	switch p.state {
	case StateGround:
		p.print(r)
	case StateEscape, StateEscapeIntermediate:
		p.stArmed = false
		p.state = StateGround
		p.print(r)
	case StateCsiEntry, StateCsiParam, StateCsiIntermediate:
		p.state = StateCsiIgnore
	case StateDcsEntry, StateDcsParam, StateDcsIntermediate:
		p.state = StateDcsIgnore
	case StateDcsPassthrough:
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for _, b := range buf[:n] {
			p.handler.Put(b)
		}
	case StateOscString:
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for _, b := range buf[:n] {
			p.handler.OscPut(b)
		}
	case StateCsiIgnore, StateDcsIgnore, StateSosPmApcString:
		// swallowed
	}
}

// Reset returns the parser to Ground and clears every accumulator without
// emitting callbacks. Equivalent to constructing a fresh Parser with the
// same handler and options.
func (p *Parser) Reset() {
	p.state = StateGround
	p.params.reset()
	p.inter.reset()
	p.pending.reset()
	p.stArmed = false
	p.printing = false
}

// Flush tells the parser no more bytes are coming. A dangling partial
// codepoint prints as U+FFFD, an open print run is closed with PrintEnd,
// and the machine returns to Ground silently; an unterminated OSC or DCS
// string dispatches nothing further. Flushing is optional. A caller that
// may feed more of the same stream later should simply not call it.
func (p *Parser) Flush() {
	if p.pending.n > 0 {
		p.replacement()
	}
	p.flushPrint()
	p.state = StateGround
	p.params.reset()
	p.inter.reset()
	p.stArmed = false
}

// step runs one input unit through the anywhere rules and then the
// state-specific table.
func (p *Parser) step(b byte) {
	switch {
	case b == 0x18: // CAN cancels silently
		p.cancel()
		return
	case b == 0x1A: // SUB cancels and executes
		p.cancel()
		p.handler.Execute(b)
		return
	case b == 0x1B:
		p.enterEscape()
		return
	case p.c1 && b >= 0x80 && b <= 0x9F:
		p.c1Control(b)
		return
	}

	switch p.state {
	case StateGround:
		p.handleGround(b)
	case StateEscape:
		p.handleEscape(b)
	case StateEscapeIntermediate:
		p.handleEscapeIntermediate(b)
	case StateCsiEntry:
		p.handleCsiEntry(b)
	case StateCsiParam:
		p.handleCsiParam(b)
	case StateCsiIntermediate:
		p.handleCsiIntermediate(b)
	case StateCsiIgnore:
		p.handleCsiIgnore(b)
	case StateDcsEntry:
		p.handleDcsEntry(b)
	case StateDcsParam:
		p.handleDcsParam(b)
	case StateDcsIntermediate:
		p.handleDcsIntermediate(b)
	case StateDcsPassthrough:
		p.handler.Put(b)
	case StateDcsIgnore, StateSosPmApcString:
		// swallowed until ST
	case StateOscString:
		p.handleOsc(b)
	}
}

func (p *Parser) handleGround(b byte) {
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b <= 0x7F:
		p.print(rune(b))
	case p.c1:
		// 0xA0..0xFF as Latin-1; 0x80..0x9F never reach here
		p.print(rune(b))
	default:
		p.startUTF8(b)
	}
}

func (p *Parser) handleEscape(b byte) {
	if p.stArmed {
		p.stArmed = false
		if b == '\\' {
			// second half of a 7-bit ST; the string it terminated was
			// already closed when the ESC arrived
			p.state = StateGround
			return
		}
	}
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b <= 0x2F:
		p.inter.push(b)
		p.state = StateEscapeIntermediate
	case b == '[':
		p.state = StateCsiEntry
	case b == ']':
		p.state = StateOscString
		p.oscStart()
	case b == 'P':
		p.state = StateDcsEntry
	case b == 'X', b == '^', b == '_':
		p.state = StateSosPmApcString
	case b == 0x7F:
		// ignored
	case b >= 0x80:
		// stray high byte; drop the escape and reprocess it as text
		p.state = StateGround
		p.step(b)
	default:
		p.escDispatch(b)
	}
}

func (p *Parser) handleEscapeIntermediate(b byte) {
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b <= 0x2F:
		p.inter.push(b)
	case b == 0x7F:
		// ignored
	case b >= 0x80:
		p.state = StateGround
		p.step(b)
	default:
		p.escDispatch(b)
	}
}

func (p *Parser) handleCsiEntry(b byte) {
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b <= 0x2F:
		p.inter.push(b)
		p.state = StateCsiIntermediate
	case b <= 0x39:
		p.params.digit(b)
		p.state = StateCsiParam
	case b == ':' || b == ';':
		p.params.separator(b)
		p.state = StateCsiParam
	case b <= 0x3F:
		// private marker, legal only before any parameter
		p.inter.push(b)
		p.state = StateCsiParam
	case b <= 0x7E:
		p.csiDispatch(b, false)
	case b == 0x7F:
		// ignored
	default:
		p.state = StateCsiIgnore
	}
}

func (p *Parser) handleCsiParam(b byte) {
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b <= 0x2F:
		p.inter.push(b)
		p.state = StateCsiIntermediate
	case b <= 0x39:
		p.params.digit(b)
	case b == ':' || b == ';':
		p.params.separator(b)
	case b <= 0x3F:
		// private marker after the first position is out of grammar
		p.state = StateCsiIgnore
	case b <= 0x7E:
		p.csiDispatch(b, false)
	case b == 0x7F:
		// ignored
	default:
		p.state = StateCsiIgnore
	}
}

func (p *Parser) handleCsiIntermediate(b byte) {
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b <= 0x2F:
		p.inter.push(b)
	case b <= 0x3F:
		// parameter bytes after an intermediate are out of grammar
		p.state = StateCsiIgnore
	case b <= 0x7E:
		p.csiDispatch(b, false)
	case b == 0x7F:
		// ignored
	default:
		p.state = StateCsiIgnore
	}
}

func (p *Parser) handleCsiIgnore(b byte) {
	switch {
	case b <= 0x1F:
		p.execute(b)
	case b >= 0x40 && b <= 0x7E:
		p.csiDispatch(b, true)
	default:
		// swallowed up to the final byte
	}
}

func (p *Parser) handleDcsEntry(b byte) {
	switch {
	case b <= 0x1F:
		// C0 inside a DCS header is dropped
	case b <= 0x2F:
		p.inter.push(b)
		p.state = StateDcsIntermediate
	case b <= 0x39:
		p.params.digit(b)
		p.state = StateDcsParam
	case b == ':' || b == ';':
		p.params.separator(b)
		p.state = StateDcsParam
	case b <= 0x3F:
		p.inter.push(b)
		p.state = StateDcsParam
	case b <= 0x7E:
		p.hook(b, false)
	case b == 0x7F:
		// ignored
	default:
		p.state = StateDcsIgnore
	}
}

func (p *Parser) handleDcsParam(b byte) {
	switch {
	case b <= 0x1F:
		// dropped
	case b <= 0x2F:
		p.inter.push(b)
		p.state = StateDcsIntermediate
	case b <= 0x39:
		p.params.digit(b)
	case b == ':' || b == ';':
		p.params.separator(b)
	case b <= 0x3F:
		p.state = StateDcsIgnore
	case b <= 0x7E:
		p.hook(b, false)
	case b == 0x7F:
		// ignored
	default:
		p.state = StateDcsIgnore
	}
}

func (p *Parser) handleDcsIntermediate(b byte) {
	switch {
	case b <= 0x1F:
		// dropped
	case b <= 0x2F:
		p.inter.push(b)
	case b <= 0x3F:
		p.state = StateDcsIgnore
	case b <= 0x7E:
		p.hook(b, false)
	case b == 0x7F:
		// ignored
	default:
		p.state = StateDcsIgnore
	}
}

func (p *Parser) handleOsc(b byte) {
	switch {
	case b == 0x07:
		// BEL terminates like ST, with no Execute of its own
		p.handler.OscEnd()
		p.state = StateGround
		p.params.reset()
		p.inter.reset()
	case b <= 0x1F:
		// other C0 controls inside an OSC are dropped
	default:
		p.handler.OscPut(b)
	}
}

// cancel implements the CAN/SUB anywhere rule: close any open string,
// drop all accumulated sequence state and return to Ground.
func (p *Parser) cancel() {
	p.flushPrint()
	p.closeString()
	p.stArmed = false
	p.params.reset()
	p.inter.reset()
	p.state = StateGround
}

// enterEscape implements the ESC anywhere rule. Leaving a string state
// here arms the pending-ST flag: if the next byte is '\' the pair was a
// 7-bit ST and dispatches nothing further.
func (p *Parser) enterEscape() {
	p.flushPrint()
	p.stArmed = p.closeString()
	p.params.reset()
	p.inter.reset()
	p.state = StateEscape
}

// c1Control handles one 0x80..0x9F unit in 8-bit mode.
func (p *Parser) c1Control(b byte) {
	p.flushPrint()
	p.closeString()
	p.stArmed = false
	p.params.reset()
	p.inter.reset()
	switch b {
	case 0x90: // DCS
		p.state = StateDcsEntry
	case 0x98, 0x9E, 0x9F: // SOS, PM, APC
		p.state = StateSosPmApcString
	case 0x9B: // CSI
		p.state = StateCsiEntry
	case 0x9C: // ST; the string it terminated was closed above
		p.state = StateGround
	case 0x9D: // OSC
		p.state = StateOscString
		p.oscStart()
	default:
		p.state = StateGround
		p.handler.Execute(b)
	}
}

// closeString fires the closing callback owed by the current state, if
// any. Hook/Unhook and OscStart/OscEnd stay in balanced pairs on every
// in-stream exit; only Flush leaves a truncated string unclosed.
func (p *Parser) closeString() bool {
	switch p.state {
	case StateOscString:
		p.handler.OscEnd()
	case StateDcsPassthrough:
		p.handler.Unhook()
	case StateDcsIgnore, StateSosPmApcString:
	default:
		return false
	}
	return true
}

func (p *Parser) print(r rune) {
	p.printing = true
	p.handler.Print(r)
}

func (p *Parser) execute(b byte) {
	p.flushPrint()
	p.handler.Execute(b)
}

// flushPrint closes an open print run. Runs end eagerly: the first unit
// that is not part of Ground text emits PrintEnd before anything else.
func (p *Parser) flushPrint() {
	if !p.printing {
		return
	}
	p.printing = false
	if p.printEnd != nil {
		p.printEnd.PrintEnd()
	}
}

func (p *Parser) csiDispatch(final byte, malformed bool) {
	p.params.finish()
	ignored := malformed || p.params.Overflow() || p.inter.more
	p.handler.CsiDispatch(&p.params, p.inter.bytes(), ignored, final)
	p.params.reset()
	p.inter.reset()
	p.state = StateGround
}

func (p *Parser) escDispatch(final byte) {
	p.handler.EscDispatch(p.inter.bytes(), p.inter.more, final)
	p.params.reset()
	p.inter.reset()
	p.state = StateGround
}

// hook enters DCS passthrough at the final byte of the header.
func (p *Parser) hook(final byte, malformed bool) {
	p.params.finish()
	ignored := malformed || p.params.Overflow() || p.inter.more
	p.state = StateDcsPassthrough
	p.handler.Hook(&p.params, p.inter.bytes(), ignored, final)
}

func (p *Parser) oscStart() {
	p.handler.OscStart()
}

func (p *Parser) replacement() {
	p.pending.reset()
	p.print(utf8.RuneError)
}

func (p *Parser) startUTF8(b byte) {
	n := utf8LeadLen(b)
	if n == 0 {
		// stray continuation byte or an invalid lead
		p.replacement()
		return
	}
	p.pending.buf[0] = b
	p.pending.n = 1
	p.pending.want = n
}

func (p *Parser) continuation(b byte) {
	p.pending.buf[p.pending.n] = b
	p.pending.n++
	if p.pending.n < p.pending.want {
		return
	}
	r, size := utf8.DecodeRune(p.pending.buf[:p.pending.n])
	p.pending.reset()
	if r == utf8.RuneError && size <= 1 {
		// overlong form or surrogate half; one replacement for the lot
		p.print(utf8.RuneError)
		return
	}
	p.print(r)
}
