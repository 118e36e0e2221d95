// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/states.go
// Summary: State enumeration for the escape sequence recognizer.

package vtparse

// State identifies where the recognizer currently sits in the escape
// sequence grammar. The zero value is StateGround.
type State int

const (
	StateGround State = iota
	StateEscape
	StateEscapeIntermediate
	StateCsiEntry
	StateCsiParam
	StateCsiIntermediate
	StateCsiIgnore
	StateDcsEntry
	StateDcsParam
	StateDcsIntermediate
	StateDcsPassthrough
	StateDcsIgnore
	StateOscString
	StateSosPmApcString
)

var stateNames = [...]string{
	StateGround:             "Ground",
	StateEscape:             "Escape",
	StateEscapeIntermediate: "EscapeIntermediate",
	StateCsiEntry:           "CsiEntry",
	StateCsiParam:           "CsiParam",
	StateCsiIntermediate:    "CsiIntermediate",
	StateCsiIgnore:          "CsiIgnore",
	StateDcsEntry:           "DcsEntry",
	StateDcsParam:           "DcsParam",
	StateDcsIntermediate:    "DcsIntermediate",
	StateDcsPassthrough:     "DcsPassthrough",
	StateDcsIgnore:          "DcsIgnore",
	StateOscString:          "OscString",
	StateSosPmApcString:     "SosPmApcString",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}
