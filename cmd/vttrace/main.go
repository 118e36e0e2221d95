// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/vttrace/main.go
// Summary: Runs a command under a pty and traces its escape sequences.
// Usage: vttrace [-o trace.log] [-record] [command args...]
//
// The command runs interactively on the current terminal while every
// parser event goes to the trace file, and optionally to the seqlog
// database for later inspection with vtreport or sqlite3.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/framegrace/texelvt/config"
	"github.com/framegrace/texelvt/internal/ptyshell"
	"github.com/framegrace/texelvt/seqlog"
	"github.com/framegrace/texelvt/trace"
	"github.com/framegrace/texelvt/vtparse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Current()

	out := flag.String("o", cfg.GetString("trace", "log_path", "vttrace.log"), "Trace output file")
	c1 := flag.Bool("c1", false, "Recognize 8-bit C1 controls (0x80-0x9F)")
	jsonOut := flag.Bool("json", cfg.GetBool("trace", "json", false), "Write the trace as JSON lines")
	stamps := flag.Bool("timestamps", cfg.GetBool("trace", "timestamps", false), "Add timestamps to trace records")
	seqnums := flag.Bool("seq", cfg.GetBool("trace", "sequence_numbers", false), "Number the trace records")
	record := flag.Bool("record", false, "Also record events to the seqlog database")
	db := flag.String("db", cfg.GetString("record", "db_path", ""), "Seqlog database path (default ~/.texelvt/seqlog.db)")
	label := flag.String("label", "", "Session label for the recording (default: the command line)")
	flag.Parse()

	command := ptyshell.DefaultShell()
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	traceFile, err := os.OpenFile(*out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer traceFile.Close()
	log.SetOutput(traceFile)

	var opts []trace.Option
	if *jsonOut {
		opts = append(opts, trace.WithJSON())
	}
	if *stamps {
		opts = append(opts, trace.WithTimestamps())
	}
	if *seqnums {
		opts = append(opts, trace.WithSequenceNumbers())
	}
	formatter := trace.NewFormatter(traceFile, opts...)

	var (
		store    *seqlog.Store
		recorder *seqlog.Session
	)
	if *record {
		dbPath := *db
		if dbPath == "" {
			root, err := config.Root()
			if err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}
			dbPath = filepath.Join(root, "seqlog.db")
		}
		store, err = seqlog.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open seqlog: %w", err)
		}
		defer store.Close()

		sessionLabel := *label
		if sessionLabel == "" {
			sessionLabel = strings.TrimSpace(command + " " + strings.Join(args, " "))
		}
		recorder, err = store.StartSession(seqlog.Config{
			Label:        sessionLabel,
			BatchSize:    cfg.GetInt("record", "batch_size", 256),
			BatchTimeout: time.Duration(cfg.GetInt("record", "batch_timeout_ms", 2000)) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("start recording session: %w", err)
		}
		defer recorder.Close()
	}

	handler := formatter.Handler()
	if recorder != nil {
		rec := recorder
		handler = vtparse.EventFunc(func(e vtparse.Event) {
			formatter.Handle(e)
			rec.Record(e)
		})
	}
	parser := vtparse.New(handler, vtparse.WithC1Controls(*c1))

	sess, err := ptyshell.Start(ptyshell.Options{Command: command, Args: args})
	if err != nil {
		return fmt.Errorf("start %s: %w", command, err)
	}
	defer sess.Close()

	restore, err := ptyshell.MakeRawTerminal()
	if err != nil {
		log.Printf("Vttrace: Raw mode unavailable: %v", err)
		restore = func() {}
	}
	defer restore()

	stopResize := sess.WatchResize()
	defer stopResize()

	if err := sess.Proxy(io.MultiWriter(os.Stdout, parser)); err != nil {
		log.Printf("Vttrace: Proxy ended with error: %v", err)
	}
	parser.Flush()
	if err := formatter.Flush(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	if err := sess.Wait(); err != nil {
		log.Printf("Vttrace: Child exited: %v", err)
	}

	// Back to cooked mode before the summary; restoring twice is harmless
	restore()
	fmt.Printf("\nTrace written to %s\n", *out)
	if recorder != nil {
		fmt.Printf("Recorded session %s\n", recorder.ID())
	}
	return nil
}
