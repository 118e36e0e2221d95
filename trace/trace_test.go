// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/trace_test.go
// Summary: Tests for the trace Formatter in text and JSON modes.
// Usage: go test ./trace/

package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texelvt/vtparse"
)

// TestFormatterText drives a parser through the Formatter's handler and
// checks the aligned text output, including print run coalescing.
func TestFormatterText(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out)
	p := vtparse.New(f.Handler())
	p.WriteString("ok\x1b[1;31m\n")
	if err := f.Flush(); err != nil {
		t.Fatalf("Unexpected flush error: %v", err)
	}

	want := `Print("ok")` + strings.Repeat(" ", 33) + "width 2\n" +
		"CsiDispatch(final='m', params=[[1] [31]])" + strings.Repeat(" ", 3) + "SGR\n" +
		"Execute(0x0A)" + strings.Repeat(" ", 31) + "LF\n"
	if got := out.String(); got != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
	}
}

// TestFormatterWideRunes verifies padding is measured in display cells, so
// the mnemonic column stays aligned after CJK text.
func TestFormatterWideRunes(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out)
	p := vtparse.New(f.Handler())
	p.WriteString("日本")
	f.Flush()

	want := `Print("日本")` + strings.Repeat(" ", 31) + "width 4\n"
	if got := out.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFormatterSequenceNumbers(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out, WithSequenceNumbers())
	p := vtparse.New(f.Handler())
	p.WriteString("\x1b[H\x1bc")
	f.Flush()

	want := "     1  " + "CsiDispatch(final='H', params=[[0]])" + strings.Repeat(" ", 8) + "CUP\n" +
		"     2  " + "EscDispatch(final='c')" + strings.Repeat(" ", 22) + "RIS\n"
	if got := out.String(); got != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
	}
}

func TestFormatterTimestamps(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 12, 30, 45, 123456000, time.UTC)
	var out bytes.Buffer
	f := NewFormatter(&out, WithTimestamps(), WithClock(func() time.Time { return fixed }))
	f.Handle(vtparse.Event{Kind: vtparse.EventExecute, Byte: 0x07})

	want := "12:30:45.123456  " + "Execute(0x07)" + strings.Repeat(" ", 31) + "BEL\n"
	if got := out.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestFormatterKindFilter verifies WithKinds drops everything else,
// text runs included.
func TestFormatterKindFilter(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out, WithKinds(vtparse.EventCsiDispatch))
	p := vtparse.New(f.Handler())
	p.WriteString("a\x1b[mb\x1b]x\x07\n")
	f.Flush()

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "CsiDispatch(final='m'") {
		t.Errorf("Expected a CSI record, got %q", lines[0])
	}
}

func TestFormatterWithoutPrints(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out, WithoutPrints())
	p := vtparse.New(f.Handler())
	p.WriteString("hello\x1b[2Jworld\n")
	p.Flush()
	if err := f.Flush(); err != nil {
		t.Fatalf("Unexpected flush error: %v", err)
	}

	got := out.String()
	if strings.Contains(got, "Print") {
		t.Errorf("Expected no Print records, got:\n%s", got)
	}
	if !strings.Contains(got, "CsiDispatch(final='J'") {
		t.Errorf("Expected the CSI record to survive, got:\n%s", got)
	}
	if !strings.Contains(got, "Execute(0x0A)") {
		t.Errorf("Expected the Execute record to survive, got:\n%s", got)
	}
}

// TestFormatterDcsRecords checks the DCS mnemonic and the payload notes on
// Put records.
func TestFormatterDcsRecords(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out)
	p := vtparse.New(f.Handler())
	p.WriteString("\x1bP$qm\x1b\\")
	f.Flush()

	want := `Hook(final='q', params=[[0]], inter="$")` + strings.Repeat(" ", 4) + "DECRQSS\n" +
		"Put(0x6D)" + strings.Repeat(" ", 35) + "m\n" +
		"Unhook()\n"
	if got := out.String(); got != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, got)
	}
}

func TestFormatterJSON(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(&out, WithJSON())
	p := vtparse.New(f.Handler())
	p.WriteString("héllo\x1b[?25l")
	f.Flush()

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 JSON lines, got %d: %q", len(lines), out.String())
	}

	var first, second Record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Line 1 does not parse: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Line 2 does not parse: %v", err)
	}

	if first.Seq != 1 || first.Kind != "Print" || first.Text != "héllo" || first.Width != 5 {
		t.Errorf("Unexpected print record: %+v", first)
	}
	if second.Seq != 2 || second.Kind != "CsiDispatch" || second.Final != "l" {
		t.Errorf("Unexpected dispatch record: %+v", second)
	}
	if second.Inter != "?" || second.Name != "DECRST" {
		t.Errorf("Expected a DECRST annotation, got %+v", second)
	}
	if want := [][]uint16{{25}}; !reflect.DeepEqual(second.Params, want) {
		t.Errorf("Expected params %v, got %v", want, second.Params)
	}
}

type failSink struct{}

var errTraceSink = errors.New("trace sink failed")

func (failSink) Write([]byte) (int, error) { return 0, errTraceSink }

func TestFormatterStickyError(t *testing.T) {
	f := NewFormatter(failSink{})
	f.Handle(vtparse.Event{Kind: vtparse.EventExecute, Byte: 0x0A})
	if !errors.Is(f.Err(), errTraceSink) {
		t.Fatalf("Expected the sink error, got %v", f.Err())
	}
	if err := f.Flush(); !errors.Is(err, errTraceSink) {
		t.Errorf("Expected the sticky error from Flush, got %v", err)
	}
}
