// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/scope/transcript.go
// Summary: Line models backing the two vtscope panes.
//
// The transcript is a minimal glass-tty reconstruction of the child's
// printable output: printable runes extend the current line, and the
// handful of C0 controls that affect line shape (LF, CR, TAB, BS) are
// honored. Everything else the child emits shows up in the feed pane
// instead, so the transcript stays a plain-text view.

package scope

import (
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/texelvt/vtparse"
)

// maxLineRunes bounds a single transcript line and a single pending
// print run. Streams that never emit a line break are folded at this
// point rather than growing without limit.
const maxLineRunes = 4096

const tabStop = 8

type transcript struct {
	lines []string
	cur   []rune
	cap   int
}

func newTranscript(capacity int) *transcript {
	if capacity < 1 {
		capacity = 1
	}
	return &transcript{cap: capacity}
}

func (t *transcript) print(r rune) {
	if len(t.cur) >= maxLineRunes {
		t.pushLine()
	}
	t.cur = append(t.cur, r)
}

// execute applies a C0 control to the line model. Controls without a
// line-shape effect are ignored here; the feed pane reports them.
func (t *transcript) execute(b byte) {
	switch b {
	case '\n':
		t.pushLine()
	case '\r':
		t.cur = t.cur[:0]
	case '\t':
		w := runewidth.StringWidth(string(t.cur))
		for n := tabStop - w%tabStop; n > 0; n-- {
			t.cur = append(t.cur, ' ')
		}
	case '\b':
		if len(t.cur) > 0 {
			t.cur = t.cur[:len(t.cur)-1]
		}
	}
}

func (t *transcript) pushLine() {
	t.lines = append(t.lines, string(t.cur))
	t.cur = t.cur[:0]
	if len(t.lines) > t.cap {
		t.lines = append(t.lines[:0], t.lines[len(t.lines)-t.cap:]...)
	}
}

// tail returns the last n lines, the in-progress line included.
func (t *transcript) tail(n int) []string {
	all := t.lines
	if len(t.cur) > 0 || len(all) == 0 {
		all = append(append([]string{}, t.lines...), string(t.cur))
	}
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

func (t *transcript) clear() {
	t.lines = nil
	t.cur = t.cur[:0]
}

func (t *transcript) setCap(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	t.cap = capacity
	if len(t.lines) > t.cap {
		t.lines = append(t.lines[:0], t.lines[len(t.lines)-t.cap:]...)
	}
}

// feedEntry is one rendered record in the feed pane. The kind is kept
// alongside the text so print records can be hidden and re-shown
// without losing them.
type feedEntry struct {
	kind vtparse.EventKind
	line string
}

type feedRing struct {
	entries []feedEntry
	cap     int
}

func newFeedRing(capacity int) *feedRing {
	if capacity < 1 {
		capacity = 1
	}
	return &feedRing{cap: capacity}
}

func (r *feedRing) add(e feedEntry) {
	r.entries = append(r.entries, e)
	if len(r.entries) > r.cap {
		r.entries = append(r.entries[:0], r.entries[len(r.entries)-r.cap:]...)
	}
}

// visible returns the entries that pass the print filter, oldest first.
func (r *feedRing) visible(showPrints bool) []feedEntry {
	if showPrints {
		return r.entries
	}
	out := make([]feedEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.kind == vtparse.EventPrint {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *feedRing) clear() {
	r.entries = nil
}

func (r *feedRing) setCap(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	r.cap = capacity
	if len(r.entries) > r.cap {
		r.entries = append(r.entries[:0], r.entries[len(r.entries)-r.cap:]...)
	}
}
