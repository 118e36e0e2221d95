// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtstrip/strip_test.go
// Summary: Tests for the escape-stripping writer.
// Usage: go test ./vtstrip/

package vtstrip

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"sgr colors", "\x1b[1;31mred\x1b[0m plain", "red plain"},
		{"cursor motion", "a\x1b[2A\x1b[10;20Hb", "ab"},
		{"osc title bel", "\x1b]0;window title\x07after", "after"},
		{"osc hyperlink st", "\x1b]8;;http://example.com\x1b\\link\x1b]8;;\x1b\\", "link"},
		{"dcs", "\x1bP1$qm\x1b\\ok", "ok"},
		{"charset escape", "\x1b(Bhi", "hi"},
		{"sos swallowed", "\x1bXhidden\x1b\\out", "out"},
		{"keeps tab and newline", "a\tb\nc", "a\tb\nc"},
		{"drops carriage return", "10%\r20%\r100%\n", "10%20%100%\n"},
		{"drops bell and backspace", "a\x07b\x08c", "abc"},
		{"utf8 text", "café ∀x", "café ∀x"},
		{"invalid byte becomes replacement", "a\x80b", "a\uFFFDb"},
		{"truncated sequence at end", "text\x1b[31", "text"},
		{"aborted sequence", "\x1b[3\x18x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCleanBytes(t *testing.T) {
	got := Clean([]byte("\x1b[32mok\x1b[0m\n"))
	if want := []byte("ok\n"); !bytes.Equal(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestWriterChunking verifies the output does not depend on how the input
// is split across Write calls, including splits inside sequences and
// inside UTF-8 runes.
func TestWriterChunking(t *testing.T) {
	const input = "naïve\x1b[1;31m text\x1b]0;t\x07 日本\x1bP$qm\x1b\\ end\n"
	want := CleanString(input)

	for size := 1; size <= 5; size++ {
		var out bytes.Buffer
		w := NewWriter(&out)
		for start := 0; start < len(input); start += size {
			end := start + size
			if end > len(input) {
				end = len(input)
			}
			if _, err := w.Write([]byte(input[start:end])); err != nil {
				t.Fatalf("Chunk size %d: unexpected write error %v", size, err)
			}
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Chunk size %d: unexpected flush error %v", size, err)
		}
		if got := out.String(); got != want {
			t.Errorf("Chunk size %d: expected %q, got %q", size, want, got)
		}
	}
}

// TestWriterIncremental verifies completed text is forwarded at the end of
// each Write, while bytes of an unfinished rune are held back.
func TestWriterIncremental(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	w.Write([]byte("caf\xc3"))
	if got := out.String(); got != "caf" {
		t.Errorf("Expected %q before the rune completes, got %q", "caf", got)
	}
	w.Write([]byte("\xa9"))
	if got := out.String(); got != "café" {
		t.Errorf("Expected %q after the rune completes, got %q", "café", got)
	}
}

func TestWriterControls(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, WithControls('\n', '\r'))
	w.Write([]byte("a\tb\rc\nd"))
	w.Flush()
	if got, want := out.String(), "ab\rc\nd"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestWriterC1Mode verifies 8-bit introducers are stripped as sequences
// when enabled, and decoded as (invalid) text when not.
func TestWriterC1Mode(t *testing.T) {
	const input = "a\x9b31mred\x9cdone"

	var c1 bytes.Buffer
	w := NewWriter(&c1, WithC1Controls(true))
	w.Write([]byte(input))
	w.Flush()
	if got, want := c1.String(), "areddone"; got != want {
		t.Errorf("Expected %q with C1 controls, got %q", want, got)
	}

	if got, want := CleanString(input), "a\uFFFD31mred\uFFFDdone"; got != want {
		t.Errorf("Expected %q without C1 controls, got %q", want, got)
	}
}

type failWriter struct{}

var errSink = errors.New("sink failed")

func (failWriter) Write([]byte) (int, error) { return 0, errSink }

// TestWriterError verifies a downstream failure is reported and sticks.
func TestWriterError(t *testing.T) {
	w := NewWriter(failWriter{})
	if _, err := w.Write([]byte("boom")); !errors.Is(err, errSink) {
		t.Fatalf("Expected the sink error, got %v", err)
	}
	if n, err := w.Write([]byte("more")); n != 0 || !errors.Is(err, errSink) {
		t.Errorf("Expected the sticky error and no progress, got n=%d err=%v", n, err)
	}
	if err := w.Flush(); !errors.Is(err, errSink) {
		t.Errorf("Expected the sticky error from Flush, got %v", err)
	}
}

// TestWriterLongStream exercises the writer with a shell-session shaped
// stream mixing prompts, colored output and title updates.
func TestWriterLongStream(t *testing.T) {
	var in strings.Builder
	for i := 0; i < 50; i++ {
		in.WriteString("\x1b]0;~/src\x07\x1b[1;32muser@host\x1b[0m:\x1b[1;34m~\x1b[0m$ ls\r\n")
		in.WriteString("\x1b[0m\x1b[01;34mdir\x1b[0m  file.txt\r\n")
	}
	want := strings.Repeat("user@host:~$ ls\ndir  file.txt\n", 50)

	var out bytes.Buffer
	w := NewWriter(&out)
	w.Write([]byte(in.String()))
	w.Flush()
	if got := out.String(); got != want {
		t.Errorf("Expected stripped session text, got %q", got)
	}
}
