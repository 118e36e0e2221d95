// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/trace.go
// Summary: Human and machine readable rendering of parser event streams.
// Usage: f := trace.NewFormatter(os.Stdout, trace.WithSequenceNumbers())
//        p := vtparse.New(f.Handler())
// Notes: Consecutive Print events coalesce into one record per text run,
//        using the PrintEnd notification as the boundary. Like the parser,
//        a Formatter is not safe for concurrent use.

// Package trace renders vtparse events as aligned text lines or JSON
// lines, annotated with the conventional sequence mnemonics.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/framegrace/texelvt/vtparse"
)

// bodyWidth is the display width the event column is padded to before the
// mnemonic, measured with runewidth so wide runes keep the columns straight.
const bodyWidth = 44

// Formatter writes one record per event to its output. Write failures are
// sticky; after the first one, records are dropped and Err reports it.
type Formatter struct {
	out     io.Writer
	now     func() time.Time
	keep    []bool
	run     []rune
	seq     uint64
	err     error
	jsonOut bool
	stamps  bool
	seqnums bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithTimestamps adds a wall-clock timestamp to every record.
func WithTimestamps() Option {
	return func(f *Formatter) { f.stamps = true }
}

// WithSequenceNumbers numbers the emitted records from 1.
func WithSequenceNumbers() Option {
	return func(f *Formatter) { f.seqnums = true }
}

// WithKinds restricts output to the given event kinds. Print runs count as
// EventPrint.
func WithKinds(kinds ...vtparse.EventKind) Option {
	return func(f *Formatter) {
		for i := range f.keep {
			f.keep[i] = false
		}
		for _, k := range kinds {
			if k >= 0 && int(k) < len(f.keep) {
				f.keep[k] = true
			}
		}
	}
}

// WithoutPrints drops Print records, leaving the control structure.
func WithoutPrints() Option {
	return func(f *Formatter) { f.keep[vtparse.EventPrint] = false }
}

// WithJSON switches output to one JSON object per line.
func WithJSON() Option {
	return func(f *Formatter) { f.jsonOut = true }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) { f.now = now }
}

// NewFormatter returns a Formatter writing to out.
func NewFormatter(out io.Writer, opts ...Option) *Formatter {
	f := &Formatter{
		out:  out,
		now:  time.Now,
		keep: make([]bool, int(vtparse.EventPrintEnd)+1),
	}
	for i := range f.keep {
		f.keep[i] = true
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handler returns a vtparse.Handler feeding this Formatter.
func (f *Formatter) Handler() vtparse.Handler {
	return vtparse.EventFunc(f.Handle)
}

// Handle consumes one event. Print events accumulate until the run ends.
func (f *Formatter) Handle(e vtparse.Event) {
	if e.Kind == vtparse.EventPrint {
		f.run = append(f.run, e.Rune)
		return
	}
	f.flushRun()
	if e.Kind == vtparse.EventPrintEnd || !f.keep[e.Kind] {
		return
	}
	f.record(e, "")
}

// Flush emits any pending text run and reports the sticky error, if one
// occurred.
func (f *Formatter) Flush() error {
	f.flushRun()
	return f.err
}

// Err reports the first write error, if any.
func (f *Formatter) Err() error { return f.err }

func (f *Formatter) flushRun() {
	if len(f.run) == 0 {
		return
	}
	text := string(f.run)
	f.run = f.run[:0]
	if !f.keep[vtparse.EventPrint] {
		return
	}
	f.record(vtparse.Event{Kind: vtparse.EventPrint}, text)
}

// Record is the JSON line form of one trace entry. Width is the display
// width of Text in terminal cells.
type Record struct {
	Seq     uint64     `json:"seq"`
	Time    string     `json:"time,omitempty"`
	Kind    string     `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Width   int        `json:"width,omitempty"`
	Byte    string     `json:"byte,omitempty"`
	Name    string     `json:"name,omitempty"`
	Final   string     `json:"final,omitempty"`
	Params  [][]uint16 `json:"params,omitempty"`
	Inter   string     `json:"inter,omitempty"`
	Ignored bool       `json:"ignored,omitempty"`
}

func (f *Formatter) record(e vtparse.Event, text string) {
	f.seq++
	if f.jsonOut {
		f.writeJSON(e, text)
		return
	}
	f.writeText(e, text)
}

// Describe returns the record body and its mnemonic note for an event.
// For Print events, text is the coalesced run.
func Describe(e vtparse.Event, text string) (body, note string) {
	switch e.Kind {
	case vtparse.EventPrint:
		return fmt.Sprintf("Print(%q)", text), fmt.Sprintf("width %d", runewidth.StringWidth(text))
	case vtparse.EventExecute:
		return e.String(), ControlName(e.Byte)
	case vtparse.EventCsiDispatch:
		return e.String(), CsiName(e.Inter, e.Final)
	case vtparse.EventEscDispatch:
		return e.String(), EscName(e.Inter, e.Final)
	case vtparse.EventHook:
		return e.String(), DcsName(e.Inter, e.Final)
	case vtparse.EventPut, vtparse.EventOscPut:
		return e.String(), payloadNote(e.Byte)
	default:
		return e.String(), ""
	}
}

func (f *Formatter) writeText(e vtparse.Event, text string) {
	body, note := Describe(e, text)

	var sb strings.Builder
	if f.seqnums {
		fmt.Fprintf(&sb, "%6d  ", f.seq)
	}
	if f.stamps {
		sb.WriteString(f.now().Format("15:04:05.000000"))
		sb.WriteString("  ")
	}
	sb.WriteString(body)
	if note != "" {
		pad := bodyWidth - runewidth.StringWidth(body)
		if pad < 1 {
			pad = 1
		}
		sb.WriteString(strings.Repeat(" ", pad))
		sb.WriteString(note)
	}
	sb.WriteByte('\n')
	f.write([]byte(sb.String()))
}

func (f *Formatter) writeJSON(e vtparse.Event, text string) {
	rec := Record{Seq: f.seq, Kind: e.Kind.String()}
	if f.stamps {
		rec.Time = f.now().Format(time.RFC3339Nano)
	}
	switch e.Kind {
	case vtparse.EventPrint:
		rec.Text = text
		rec.Width = runewidth.StringWidth(text)
	case vtparse.EventExecute:
		rec.Byte = fmt.Sprintf("0x%02X", e.Byte)
		rec.Name = ControlName(e.Byte)
	case vtparse.EventCsiDispatch:
		rec.Final = string(rune(e.Final))
		rec.Params = e.Params
		rec.Inter = string(e.Inter)
		rec.Ignored = e.Ignored
		rec.Name = CsiName(e.Inter, e.Final)
	case vtparse.EventEscDispatch:
		rec.Final = string(rune(e.Final))
		rec.Inter = string(e.Inter)
		rec.Ignored = e.Ignored
		rec.Name = EscName(e.Inter, e.Final)
	case vtparse.EventHook:
		rec.Final = string(rune(e.Final))
		rec.Params = e.Params
		rec.Inter = string(e.Inter)
		rec.Ignored = e.Ignored
		rec.Name = DcsName(e.Inter, e.Final)
	case vtparse.EventPut, vtparse.EventOscPut:
		rec.Byte = fmt.Sprintf("0x%02X", e.Byte)
		rec.Name = payloadNote(e.Byte)
	}
	line, err := json.Marshal(rec)
	if err != nil {
		if f.err == nil {
			f.err = err
		}
		return
	}
	f.write(append(line, '\n'))
}

func (f *Formatter) write(line []byte) {
	if f.err != nil {
		return
	}
	if _, err := f.out.Write(line); err != nil {
		f.err = err
	}
}

// payloadNote annotates a string payload byte with its printable form,
// caret notation for C0 controls, or the control name for C1 bytes.
func payloadNote(b byte) string {
	if b >= 0x20 && b < 0x7F {
		return string(rune(b))
	}
	if c := Caret(b); c != "" {
		return c
	}
	return ControlName(b)
}
