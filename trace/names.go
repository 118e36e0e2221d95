// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/names.go
// Summary: Conventional names for control bytes and dispatch finals.
// Notes: Names follow ECMA-48 plus the usual DEC and xterm extensions.

package trace

var c0Names = [32]string{
	"NUL", "SOH", "STX", "ETX", "EOT", "ENQ", "ACK", "BEL",
	"BS", "HT", "LF", "VT", "FF", "CR", "SO", "SI",
	"DLE", "DC1", "DC2", "DC3", "DC4", "NAK", "SYN", "ETB",
	"CAN", "EM", "SUB", "ESC", "FS", "GS", "RS", "US",
}

var c1Names = [32]string{
	"PAD", "HOP", "BPH", "NBH", "IND", "NEL", "SSA", "ESA",
	"HTS", "HTJ", "VTS", "PLD", "PLU", "RI", "SS2", "SS3",
	"DCS", "PU1", "PU2", "STS", "CCH", "MW", "SPA", "EPA",
	"SOS", "SGC", "SCI", "CSI", "ST", "OSC", "PM", "APC",
}

// ControlName returns the conventional name of a C0 or C1 control byte,
// or "" for bytes that are not controls.
func ControlName(b byte) string {
	switch {
	case b < 0x20:
		return c0Names[b]
	case b == 0x7F:
		return "DEL"
	case b >= 0x80 && b <= 0x9F:
		return c1Names[b-0x80]
	}
	return ""
}

// Caret returns the caret notation of a C0 control byte ("^[" for ESC,
// "^?" for DEL), or "" for bytes that have none.
func Caret(b byte) string {
	switch {
	case b < 0x20:
		return "^" + string(rune(b+0x40))
	case b == 0x7F:
		return "^?"
	}
	return ""
}

var csiNames = map[byte]string{
	'@': "ICH", 'A': "CUU", 'B': "CUD", 'C': "CUF", 'D': "CUB",
	'E': "CNL", 'F': "CPL", 'G': "CHA", 'H': "CUP", 'I': "CHT",
	'J': "ED", 'K': "EL", 'L': "IL", 'M': "DL", 'P': "DCH",
	'S': "SU", 'T': "SD", 'X': "ECH", 'Z': "CBT",
	'`': "HPA", 'a': "HPR", 'b': "REP", 'c': "DA", 'd': "VPA",
	'e': "VPR", 'f': "HVP", 'g': "TBC", 'h': "SM", 'i': "MC",
	'j': "HPB", 'k': "VPB", 'l': "RM", 'm': "SGR", 'n': "DSR",
	'r': "DECSTBM", 's': "SCOSC", 't': "XTWINOPS", 'u': "SCORC",
}

var csiWithInter = map[string]string{
	"?h": "DECSET", "?l": "DECRST", "?n": "DECDSR",
	">c": "DA2", "=c": "DA3",
	" q": "DECSCUSR", "!p": "DECSTR", "$p": "DECRQM", "?$p": "DECRQM",
}

// CsiName returns the mnemonic of a CSI sequence given its intermediate
// bytes (private markers included) and final byte, or "" if unknown.
func CsiName(inter []byte, final byte) string {
	if len(inter) == 0 {
		return csiNames[final]
	}
	return csiWithInter[string(inter)+string(final)]
}

var escNames = map[byte]string{
	'7': "DECSC", '8': "DECRC", '=': "DECKPAM", '>': "DECKPNM",
	'D': "IND", 'E': "NEL", 'H': "HTS", 'M': "RI",
	'N': "SS2", 'O': "SS3", 'Z': "DECID", 'c': "RIS",
	'n': "LS2", 'o': "LS3", '|': "LS3R", '}': "LS2R", '~': "LS1R",
	'\\': "ST",
}

var escWithInter = map[string]string{
	"#3": "DECDHL", "#4": "DECDHL", "#5": "DECSWL", "#6": "DECDWL",
	"#8": "DECALN", " F": "S7C1T", " G": "S8C1T",
}

// EscName returns the mnemonic of an ESC sequence, or "" if unknown.
// Character set designations all report as SCS.
func EscName(inter []byte, final byte) string {
	if len(inter) == 0 {
		return escNames[final]
	}
	switch inter[0] {
	case '(', ')', '*', '+':
		return "SCS"
	}
	return escWithInter[string(inter)+string(final)]
}

var dcsNames = map[byte]string{
	'q': "DECSIXEL", '|': "DECUDK",
}

var dcsWithInter = map[string]string{
	"$q": "DECRQSS", "$t": "DECRSPS", "+p": "XTSETTCAP", "+q": "XTGETTCAP",
}

// DcsName returns the mnemonic of a DCS sequence, or "" if unknown.
func DcsName(inter []byte, final byte) string {
	if len(inter) == 0 {
		return dcsNames[final]
	}
	return dcsWithInter[string(inter)+string(final)]
}
