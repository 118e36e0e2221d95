// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/scope/draw.go
// Summary: Screen rendering for the scope: header, transcript and feed.

package scope

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/texelvt/vtparse"
)

// noteColumn matches the trace formatter's body column so feed records
// line up the same way trace files do.
const noteColumn = 44

func (s *Scope) draw(screen tcell.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := screen.Size()
	screen.Clear()
	s.drawHeader(screen, width)
	if height <= headerRows {
		screen.Show()
		return
	}
	rows := height - headerRows
	s.lastRows = rows
	left := width / 2
	divider := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for y := headerRows; y < height; y++ {
		screen.SetContent(left, y, '│', nil, divider)
	}
	s.drawTranscript(screen, 0, headerRows, left, rows)
	s.drawFeed(screen, left+1, headerRows, width-left-1, rows)
	screen.Show()
}

func (s *Scope) drawHeader(screen tcell.Screen, width int) {
	flags := ""
	if s.paused {
		flags += "  PAUSED"
	}
	if s.exited {
		if s.childErr != nil {
			flags += fmt.Sprintf("  EXITED (%v)", s.childErr)
		} else {
			flags += "  EXITED"
		}
	}
	top := fmt.Sprintf(" vtscope  %s  state:%s%s", s.command, s.parser.State(), flags)
	putLine(screen, 0, 0, width, top, tcell.StyleDefault.Reverse(true))

	counters := fmt.Sprintf(" print:%d  exec:%d  csi:%d  esc:%d  osc:%d  dcs:%d",
		s.counts[vtparse.EventPrint],
		s.counts[vtparse.EventExecute],
		s.counts[vtparse.EventCsiDispatch],
		s.counts[vtparse.EventEscDispatch],
		s.counts[vtparse.EventOscStart],
		s.counts[vtparse.EventHook])
	help := "q quit  space pause  p prints  c clear  pgup/pgdn scroll "
	line := counters
	if pad := width - runewidth.StringWidth(counters) - runewidth.StringWidth(help); pad > 0 {
		line = counters + strings.Repeat(" ", pad) + help
	}
	putLine(screen, 0, 1, width, line, tcell.StyleDefault.Dim(true))
}

func (s *Scope) drawTranscript(screen tcell.Screen, x, y, width, rows int) {
	if width < 1 {
		return
	}
	for i, line := range s.transcript.tail(rows) {
		putLine(screen, x, y+i, width, line, tcell.StyleDefault)
	}
}

func (s *Scope) drawFeed(screen tcell.Screen, x, y, width, rows int) {
	if width < 1 {
		return
	}
	entries := s.feed.visible(s.showPrints)
	max := len(entries) - rows
	if max < 0 {
		max = 0
	}
	if s.scroll > max {
		s.scroll = max
	}
	end := len(entries) - s.scroll
	start := end - rows
	if start < 0 {
		start = 0
	}
	for i, e := range entries[start:end] {
		putLine(screen, x, y+i, width, e.line, kindStyle(e.kind))
	}
}

// putLine writes text at (x, y), truncating to width and padding the
// remainder with spaces. Columns are counted with runewidth so wide
// runes stay aligned.
func putLine(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if col+rw > width {
			break
		}
		screen.SetContent(x+col, y, r, nil, style)
		col += rw
	}
	for ; col < width; col++ {
		screen.SetContent(x+col, y, ' ', nil, style)
	}
}

func kindStyle(kind vtparse.EventKind) tcell.Style {
	switch kind {
	case vtparse.EventPrint:
		return tcell.StyleDefault.Dim(true)
	case vtparse.EventExecute:
		return tcell.StyleDefault.Foreground(tcell.ColorTeal)
	case vtparse.EventCsiDispatch:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case vtparse.EventEscDispatch:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case vtparse.EventOscStart, vtparse.EventOscPut, vtparse.EventOscEnd:
		return tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	case vtparse.EventHook, vtparse.EventPut, vtparse.EventUnhook:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue)
	default:
		return tcell.StyleDefault
	}
}

// joinBodyNote formats a feed record the way the trace formatter lays
// out its text lines: body, padding to the note column, mnemonic.
func joinBodyNote(body, note string) string {
	if note == "" {
		return body
	}
	pad := noteColumn - runewidth.StringWidth(body)
	if pad < 1 {
		pad = 1
	}
	return body + strings.Repeat(" ", pad) + note
}
