// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtstrip/strip.go
// Summary: Escape-stripping writer built on the vtparse state machine.
// Usage: Wrap any io.Writer with NewWriter, or use Clean/CleanString on
//        captured output.
// Notes: Sequences are consumed structurally, so a CSI split across writes
//        or an OSC payload containing ';' never leaks into the text. Bytes
//        that are not valid UTF-8 surface as U+FFFD, same as a terminal
//        would show them.

// Package vtstrip removes escape and control sequences from terminal
// output, keeping only the printed text and a configurable set of
// whitespace controls.
package vtstrip

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/framegrace/texelvt/vtparse"
)

// Writer filters everything it receives through a vtparse.Parser and
// forwards only printed text and kept controls to the wrapped writer.
// CSI, OSC, DCS and SOS/PM/APC sequences disappear whole, no matter how
// they are chunked. By default HT and LF pass through and CR is dropped,
// since loose carriage returns are cursor motion, not text.
type Writer struct {
	out    io.Writer
	parser *vtparse.Parser
	buf    []byte
	err    error
	keep   [256]bool
	c1     bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithControls replaces the set of control bytes forwarded to the output.
// The default set is HT and LF.
func WithControls(keep ...byte) Option {
	return func(w *Writer) {
		w.keep = [256]bool{}
		for _, b := range keep {
			w.keep[b] = true
		}
	}
}

// WithC1Controls makes the stripper treat bytes 0x80..0x9F as 8-bit
// control introducers, so a raw 0x9B CSI is consumed as a sequence
// instead of being decoded as text.
func WithC1Controls(enabled bool) Option {
	return func(w *Writer) { w.c1 = enabled }
}

// NewWriter returns a Writer that strips escape sequences from everything
// written to it and forwards the rest to out.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out}
	w.keep['\t'] = true
	w.keep['\n'] = true
	for _, opt := range opts {
		opt(w)
	}
	w.parser = vtparse.New(sink{w: w}, vtparse.WithC1Controls(w.c1))
	return w
}

// Write consumes p in full. A failure of the wrapped writer is returned
// and sticks; later writes fail with the same error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.parser.Write(p)
	if err := w.flush(); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// Flush abandons any dangling sequence or partial rune and writes the
// remaining buffered text. Call it once the stream is complete.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.parser.Flush()
	return w.flush()
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.out.Write(w.buf)
	w.buf = w.buf[:0]
	if err != nil {
		w.err = err
	}
	return err
}

// sink receives the parser callbacks for one Writer. Only printed runes
// and kept controls reach the text buffer.
type sink struct {
	vtparse.NoopHandler
	w *Writer
}

func (s sink) Print(r rune) { s.w.buf = utf8.AppendRune(s.w.buf, r) }

func (s sink) Execute(b byte) {
	if s.w.keep[b] {
		s.w.buf = append(s.w.buf, b)
	}
}

// Clean returns b with every escape sequence removed, keeping printed
// text, tabs and newlines.
func Clean(b []byte) []byte {
	var out bytes.Buffer
	w := NewWriter(&out)
	w.Write(b)
	w.Flush()
	return out.Bytes()
}

// CleanString is Clean for strings.
func CleanString(s string) string {
	return string(Clean([]byte(s)))
}
