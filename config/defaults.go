// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the per-tool configuration sections.

package config

func applyDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("trace", Section{
		"log_path":         "vttrace.log",
		"timestamps":       false,
		"sequence_numbers": false,
		"json":             false,
	})
	cfg.RegisterDefaults("record", Section{
		"db_path":          "",
		"batch_size":       256,
		"batch_timeout_ms": 2000,
	})
	cfg.RegisterDefaults("scope", Section{
		"show_prints": true,
		"history":     2000,
		"redraw_hz":   30.0,
		"log_path":    "vtscope.log",
	})
}
