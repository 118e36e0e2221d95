// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/vtscope/main.go
// Summary: Interactive viewer pairing a child program's visible output
//          with its decoded escape stream, side by side.
// Usage: vtscope [-c1] [-log FILE] [command [args...]]
//        Runs the login shell when no command is given.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/framegrace/texelvt/config"
	"github.com/framegrace/texelvt/internal/scope"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Current()

	c1 := flag.Bool("c1", false, "Recognize 8-bit C1 controls (0x80-0x9F)")
	logPath := flag.String("log", cfg.GetString("scope", "log_path", "vtscope.log"), "Diagnostic log file")
	flag.Parse()

	// The screen owns the terminal while the scope runs, so diagnostics
	// go to a file instead of stderr.
	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	opts := scope.Options{C1: *c1}
	if flag.NArg() > 0 {
		opts.Command = flag.Arg(0)
		opts.Args = flag.Args()[1:]
	}
	return scope.Run(opts)
}
