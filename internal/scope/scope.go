// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/scope/scope.go
// Summary: Full-screen live viewer for a child program's escape stream.
// Usage: scope.Run starts the child on a pty, parses its output and shows
//        a plain-text transcript beside the decoded event feed. Keys:
//        q quits, space pauses, p toggles print records, c clears,
//        PgUp/PgDn scroll the feed; everything else goes to the child.

package scope

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelvt/config"
	"github.com/framegrace/texelvt/internal/ptyshell"
	"github.com/framegrace/texelvt/trace"
	"github.com/framegrace/texelvt/vtparse"
)

// headerRows is the fixed chrome above the panes.
const headerRows = 2

// Options configures a scope session.
type Options struct {
	Command string   // child program; empty means the login shell
	Args    []string // arguments for the child
	C1      bool     // recognize 8-bit C1 controls in the stream
}

var screenFactory = tcell.NewScreen

// SetScreenFactory overrides the screen factory used by Run. Passing nil restores the default.
func SetScreenFactory(factory func() (tcell.Screen, error)) {
	if factory == nil {
		screenFactory = tcell.NewScreen
		return
	}
	screenFactory = factory
}

// Scope holds the shared state between the pty reader goroutine and the
// event loop. The mutex guards everything below it; the parser is only
// ever driven while it is held.
type Scope struct {
	opts    Options
	command string

	mu         sync.Mutex
	parser     *vtparse.Parser
	feed       *feedRing
	transcript *transcript
	counts     [int(vtparse.EventPrintEnd) + 1]uint64
	run        []rune
	showPrints bool
	paused     bool
	scroll     int
	lastRows   int
	exited     bool
	childErr   error
	period     time.Duration

	sess      *ptyshell.Session
	refreshCh chan bool
	stopCh    chan struct{}
}

// Run starts the child and blocks until the user quits. The child's exit
// does not end the session; the captured feed stays on screen.
func Run(opts Options) error {
	cfg := config.Current()
	s := &Scope{
		opts:       opts,
		command:    opts.Command,
		showPrints: cfg.GetBool("scope", "show_prints", true),
		period:     redrawPeriod(cfg),
		lastRows:   1,
		refreshCh:  make(chan bool, 1),
		stopCh:     make(chan struct{}),
	}
	history := cfg.GetInt("scope", "history", 2000)
	s.feed = newFeedRing(history)
	s.transcript = newTranscript(history)
	s.parser = vtparse.New(vtparse.EventFunc(s.handleEvent), vtparse.WithC1Controls(opts.C1))
	if s.command == "" {
		s.command = ptyshell.DefaultShell()
	}

	screen, err := screenFactory()
	if err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.Clear()

	width, height := screen.Size()
	cols, rows := paneSize(width, height)
	sess, err := ptyshell.Start(ptyshell.Options{Command: s.command, Args: opts.Args, Cols: cols, Rows: rows})
	if err != nil {
		return fmt.Errorf("start %s: %w", s.command, err)
	}
	s.sess = sess
	defer sess.Close()
	defer close(s.stopCh)

	go s.readLoop()
	go s.refreshPump(screen)

	watcher, err := config.Watch(func() {
		s.applyConfig()
		s.requestRefresh()
	})
	if err != nil {
		log.Printf("Scope: Config watch unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	s.draw(screen)

	for {
		ev := screen.PollEvent()
		switch tev := ev.(type) {
		case *tcell.EventInterrupt:
			if !s.isPaused() {
				s.draw(screen)
			}
		case *tcell.EventResize:
			w, h := tev.Size()
			cols, rows = paneSize(w, h)
			if err := sess.Resize(cols, rows); err != nil {
				log.Printf("Scope: Resize child failed: %v", err)
			}
			screen.Sync()
			s.draw(screen)
		case *tcell.EventKey:
			if s.handleKey(tev) {
				return nil
			}
			s.draw(screen)
		}
	}
}

// readLoop feeds child output through the parser until the pty closes.
func (s *Scope) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.sess.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.parser.Write(buf[:n])
			s.mu.Unlock()
			s.requestRefresh()
		}
		if err != nil {
			s.mu.Lock()
			s.parser.Flush()
			s.exited = true
			if err != io.EOF {
				s.childErr = err
			}
			s.mu.Unlock()
			s.requestRefresh()
			return
		}
	}
}

// refreshPump turns refresh requests into interrupt events, spaced by the
// configured redraw period so a chatty child cannot flood the screen.
func (s *Scope) refreshPump(screen tcell.Screen) {
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.refreshCh:
			screen.PostEvent(tcell.NewEventInterrupt(nil))
			s.mu.Lock()
			period := s.period
			s.mu.Unlock()
			select {
			case <-s.stopCh:
				return
			case <-time.After(period):
			}
		}
	}
}

func (s *Scope) requestRefresh() {
	select {
	case s.refreshCh <- true:
	default:
	}
}

// handleEvent is the parser callback. It runs under s.mu because the
// reader goroutine holds the lock across parser.Write.
func (s *Scope) handleEvent(e vtparse.Event) {
	if k := int(e.Kind); k >= 0 && k < len(s.counts) {
		s.counts[k]++
	}
	switch e.Kind {
	case vtparse.EventPrint:
		if len(s.run) >= maxLineRunes {
			s.flushRun()
		}
		s.run = append(s.run, e.Rune)
		s.transcript.print(e.Rune)
		return
	case vtparse.EventPrintEnd:
		s.flushRun()
		return
	case vtparse.EventExecute:
		s.transcript.execute(e.Byte)
	}
	body, note := trace.Describe(e, "")
	s.feed.add(feedEntry{kind: e.Kind, line: joinBodyNote(body, note)})
}

// flushRun turns the pending print run into a single feed record.
func (s *Scope) flushRun() {
	if len(s.run) == 0 {
		return
	}
	text := string(s.run)
	s.run = s.run[:0]
	body, note := trace.Describe(vtparse.Event{Kind: vtparse.EventPrint}, text)
	s.feed.add(feedEntry{kind: vtparse.EventPrint, line: joinBodyNote(body, note)})
}

// handleKey reacts to scope keys and forwards the rest to the child.
// It reports true when the session should end.
func (s *Scope) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			s.togglePause()
		case 'p':
			s.togglePrints()
		case 'c':
			s.clearAll()
		default:
			s.forward(string(ev.Rune()))
		}
	case tcell.KeyCtrlC:
		s.forward("\x03")
	case tcell.KeyPgUp:
		s.scrollBy(s.pageSize())
	case tcell.KeyPgDn:
		s.scrollBy(-s.pageSize())
	case tcell.KeyEnter:
		s.forward("\r")
	case tcell.KeyTab:
		s.forward("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.forward("\b")
	case tcell.KeyEsc:
		s.forward("\x1b")
	case tcell.KeyUp:
		s.forward("\x1b[A")
	case tcell.KeyDown:
		s.forward("\x1b[B")
	case tcell.KeyRight:
		s.forward("\x1b[C")
	case tcell.KeyLeft:
		s.forward("\x1b[D")
	case tcell.KeyHome:
		s.forward("\x1b[H")
	case tcell.KeyEnd:
		s.forward("\x1b[F")
	case tcell.KeyDelete:
		s.forward("\x1b[3~")
	case tcell.KeyInsert:
		s.forward("\x1b[2~")
	case tcell.KeyF1:
		s.forward("\x1bOP")
	case tcell.KeyF2:
		s.forward("\x1bOQ")
	case tcell.KeyF3:
		s.forward("\x1bOR")
	case tcell.KeyF4:
		s.forward("\x1bOS")
	}
	return false
}

func (s *Scope) forward(data string) {
	if _, err := s.sess.Write([]byte(data)); err != nil {
		log.Printf("Scope: Write to child failed: %v", err)
	}
}

func (s *Scope) togglePause() {
	s.mu.Lock()
	s.paused = !s.paused
	if !s.paused {
		s.scroll = 0
	}
	s.mu.Unlock()
}

func (s *Scope) togglePrints() {
	s.mu.Lock()
	s.showPrints = !s.showPrints
	s.scroll = 0
	s.mu.Unlock()
}

func (s *Scope) clearAll() {
	s.mu.Lock()
	s.feed.clear()
	s.transcript.clear()
	for i := range s.counts {
		s.counts[i] = 0
	}
	s.scroll = 0
	s.mu.Unlock()
}

// scrollBy moves the feed window; any scroll away from the tail pauses
// the display so the view holds still while reading back.
func (s *Scope) scrollBy(delta int) {
	s.mu.Lock()
	s.scroll += delta
	if s.scroll < 0 {
		s.scroll = 0
	}
	if s.scroll > 0 {
		s.paused = true
	}
	s.mu.Unlock()
}

func (s *Scope) pageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRows > 1 {
		return s.lastRows - 1
	}
	return 1
}

func (s *Scope) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// applyConfig re-reads the scope section after a config file change.
func (s *Scope) applyConfig() {
	cfg := config.Current()
	s.mu.Lock()
	s.showPrints = cfg.GetBool("scope", "show_prints", s.showPrints)
	history := cfg.GetInt("scope", "history", s.feed.cap)
	s.feed.setCap(history)
	s.transcript.setCap(history)
	s.period = redrawPeriod(cfg)
	s.mu.Unlock()
}

func redrawPeriod(cfg config.Config) time.Duration {
	hz := cfg.GetFloat("scope", "redraw_hz", 30)
	if hz < 1 {
		hz = 30
	}
	return time.Duration(float64(time.Second) / hz)
}

// paneSize is the pty size handed to the child: the transcript pane.
func paneSize(width, height int) (cols, rows int) {
	cols = width / 2
	if cols < 2 {
		cols = 2
	}
	rows = height - headerRows
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}
