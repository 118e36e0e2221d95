// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/ptyshell/ptyshell.go
// Summary: Child process plumbing for the pty-based tools.
//
// Starts a command under a pseudo terminal and exposes it as a
// reader/writer pair, with window size propagation and raw mode
// handling for the local terminal.

package ptyshell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Options configures a pty session.
type Options struct {
	// Command is the program to run. Empty means the user's shell.
	Command string
	Args    []string

	// Initial window size. Both zero means inherit from the local
	// terminal, falling back to 80x24.
	Cols int
	Rows int

	// Env entries appended to the inherited environment.
	Env []string
}

// Session is one child process running under a pty. Read returns the
// child's output; Write feeds its input.
type Session struct {
	cmd      *exec.Cmd
	ptmx     *os.File
	stopCh   chan struct{}
	stopOnce sync.Once
}

// DefaultShell returns $SHELL, falling back to /bin/sh.
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// Start launches the command under a new pty.
func Start(opts Options) (*Session, error) {
	command := opts.Command
	if command == "" {
		command = DefaultShell()
	}

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 || rows <= 0 {
		cols, rows = 80, 24
		if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
			cols, rows = w, h
		}
	}

	cmd := exec.Command(command, opts.Args...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
	)
	cmd.Env = append(cmd.Env, opts.Env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	return &Session{
		cmd:    cmd,
		ptmx:   ptmx,
		stopCh: make(chan struct{}),
	}, nil
}

// Read returns the child's output. The pty master reports EIO once the
// child side closes; that is translated to a clean EOF.
func (s *Session) Read(p []byte) (int, error) {
	n, err := s.ptmx.Read(p)
	if err != nil && (errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO)) {
		return n, io.EOF
	}
	return n, err
}

// Write feeds input to the child.
func (s *Session) Write(p []byte) (int, error) {
	return s.ptmx.Write(p)
}

// Resize sets the pty window size.
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	return pty.Setsize(s.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// InheritSize copies the local terminal's size onto the pty.
func (s *Session) InheritSize() error {
	return pty.InheritSize(os.Stdin, s.ptmx)
}

// WatchResize propagates SIGWINCH to the pty until the returned stop
// function is called or the session closes. The initial size is applied
// immediately.
func (s *Session) WatchResize() func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				if err := s.InheritSize(); err != nil {
					log.Printf("Ptyshell: Resize failed: %v", err)
				}
			case <-s.stopCh:
				signal.Stop(ch)
				return
			case <-done:
				signal.Stop(ch)
				return
			}
		}
	}()

	ch <- syscall.SIGWINCH
	return func() { close(done) }
}

// Proxy pumps the local stdin into the child and the child's output into
// out. It returns when the child's output ends. Put the terminal in raw
// mode first so keystrokes pass through unmodified.
func (s *Session) Proxy(out io.Writer) error {
	go func() {
		_, _ = io.Copy(s.ptmx, os.Stdin)
	}()
	_, err := io.Copy(out, s)
	return err
}

// Wait blocks until the child exits.
func (s *Session) Wait() error {
	return s.cmd.Wait()
}

// Close shuts the session down: the pty closes and the child gets a
// SIGTERM. Safe to call more than once.
func (s *Session) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.ptmx.Close()
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Signal(syscall.SIGTERM)
		}
	})
	return nil
}

// MakeRawTerminal puts the local terminal in raw mode and returns the
// restore function. Callers defer the restore so a crashed child does
// not leave the terminal unusable.
func MakeRawTerminal() (func(), error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("make terminal raw: %w", err)
	}
	return func() { term.Restore(fd, oldState) }, nil
}
