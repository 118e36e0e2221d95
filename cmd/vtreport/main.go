// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/vtreport/main.go
// Summary: Reads terminal output on stdin and reports one line per parser event.
// Usage: some-program | vtreport [-c1] [-json] [-quiet]

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/framegrace/texelvt/config"
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

	c1 := flag.Bool("c1", false, "Recognize 8-bit C1 controls (0x80-0x9F)")
	jsonOut := flag.Bool("json", cfg.GetBool("trace", "json", false), "Emit one JSON object per line")
	quiet := flag.Bool("quiet", false, "Drop Print records, report control structure only")
	stamps := flag.Bool("timestamps", cfg.GetBool("trace", "timestamps", false), "Add timestamps to records")
	seqnums := flag.Bool("seq", cfg.GetBool("trace", "sequence_numbers", false), "Number the records")
	flag.Parse()

	var opts []trace.Option
	if *jsonOut {
		opts = append(opts, trace.WithJSON())
	}
	if *quiet {
		opts = append(opts, trace.WithoutPrints())
	}
	if *stamps {
		opts = append(opts, trace.WithTimestamps())
	}
	if *seqnums {
		opts = append(opts, trace.WithSequenceNumbers())
	}

	f := trace.NewFormatter(os.Stdout, opts...)
	p := vtparse.New(f.Handler(), vtparse.WithC1Controls(*c1))

	if _, err := io.Copy(p, os.Stdin); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	p.Flush()
	if err := f.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
