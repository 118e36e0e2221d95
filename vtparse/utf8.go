// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/utf8.go
// Summary: Incremental UTF-8 assembly state for byte-at-a-time feeding.

package vtparse

import "unicode/utf8"

// utf8Pending buffers the bytes of one in-progress multibyte codepoint.
// Only Ground text opens it; escape sequence payloads stay raw bytes.
type utf8Pending struct {
	buf  [utf8.UTFMax]byte
	n    int
	want int
}

func (u *utf8Pending) reset() {
	u.n = 0
	u.want = 0
}

// utf8LeadLen returns the encoded length announced by a lead byte, or 0
// when the byte cannot begin a sequence: stray continuation bytes, the
// always-overlong leads 0xC0 and 0xC1, and 0xF5..0xFF.
func utf8LeadLen(b byte) int {
	switch {
	case b >= 0xC2 && b <= 0xDF:
		return 2
	case b >= 0xE0 && b <= 0xEF:
		return 3
	case b >= 0xF0 && b <= 0xF4:
		return 4
	}
	return 0
}
