// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/params.go
// Summary: Fixed-capacity parameter and intermediate accumulators.
// Usage: Params is handed to CsiDispatch and Hook callbacks read-only.
// Notes: Bounded storage keeps per-byte parsing allocation free.

package vtparse

const (
	// MaxParams bounds the total number of parameter values kept for one
	// sequence, counting every sub-parameter. Values past the cap are still
	// parsed so the sequence stays in sync, but they are dropped and the
	// dispatch is flagged ignored.
	MaxParams = 32

	// MaxIntermediates bounds the intermediate bytes kept for one sequence.
	MaxIntermediates = 2

	// MaxParamValue is the saturation ceiling for a single parameter value.
	MaxParamValue = 0xFFFF
)

// Params holds the numeric parameters of a CSI or DCS sequence as ordered
// groups. Groups are separated by ';' on the wire; ':' separates
// sub-parameters inside a group, as in SGR 38:2:255:0:0. An empty parameter
// position is recorded as an explicit zero, so handlers can apply their own
// defaulting rules.
//
// A Params passed to a callback is a view into the parser's reusable
// accumulator. It is only valid until the callback returns; use Clone or
// All to keep the values.
type Params struct {
	values [MaxParams]uint16
	starts [MaxParams]bool // values[i] opens a new group
	n      int
	groups int
	more   bool // values were dropped past MaxParams

	// accumulation state for the value currently being read
	cur      uint16
	curStart bool
}

func (p *Params) reset() {
	p.n = 0
	p.groups = 0
	p.more = false
	p.cur = 0
	p.curStart = true
}

// digit folds one decimal digit into the value being accumulated,
// saturating at MaxParamValue.
func (p *Params) digit(b byte) {
	v := uint32(p.cur)*10 + uint32(b-'0')
	if v > MaxParamValue {
		v = MaxParamValue
	}
	p.cur = uint16(v)
}

// separator commits the value being accumulated and opens the next one.
// A ';' starts a new group, a ':' continues the current group.
func (p *Params) separator(b byte) {
	p.commit()
	p.cur = 0
	p.curStart = b == ';'
}

// finish commits the trailing value. Called once when the sequence reaches
// its final byte, so even a bare CSI final carries one explicit zero.
func (p *Params) finish() {
	p.commit()
	p.cur = 0
	p.curStart = true
}

func (p *Params) commit() {
	if p.n == MaxParams {
		p.more = true
		return
	}
	p.values[p.n] = p.cur
	p.starts[p.n] = p.curStart
	p.n++
	if p.curStart {
		p.groups++
	}
}

// Len returns the number of parameter groups.
func (p *Params) Len() int { return p.groups }

// Overflow reports whether the sequence carried more values than MaxParams.
// The dispatch that received this Params was flagged ignored.
func (p *Params) Overflow() bool { return p.more }

// Group returns the i-th parameter group, sub-parameters included. The
// returned slice aliases the accumulator; it is valid until the callback
// returns. Out-of-range indices yield nil.
func (p *Params) Group(i int) []uint16 {
	if i < 0 || i >= p.groups {
		return nil
	}
	start, seen := 0, -1
	for j := 0; j < p.n; j++ {
		if !p.starts[j] {
			continue
		}
		seen++
		if seen == i {
			start = j
		} else if seen == i+1 {
			return p.values[start:j]
		}
	}
	return p.values[start:p.n]
}

// Param returns the first value of group i, or def when the group does not
// exist. An empty parameter position was recorded as zero, so a present
// group always reports its stored value; zero-means-default belongs to the
// handler, not the parser.
func (p *Params) Param(i int, def uint16) uint16 {
	g := p.Group(i)
	if g == nil {
		return def
	}
	return g[0]
}

// ForEach calls fn once per group, in order, without allocating.
func (p *Params) ForEach(fn func(group []uint16)) {
	start := -1
	for j := 0; j < p.n; j++ {
		if p.starts[j] {
			if start >= 0 {
				fn(p.values[start:j])
			}
			start = j
		}
	}
	if start >= 0 {
		fn(p.values[start:p.n])
	}
}

// All returns every group as a freshly allocated slice of slices. Meant for
// tests and tooling; hot paths should use Group or ForEach.
func (p *Params) All() [][]uint16 {
	if p.groups == 0 {
		return nil
	}
	out := make([][]uint16, 0, p.groups)
	p.ForEach(func(g []uint16) {
		out = append(out, append([]uint16(nil), g...))
	})
	return out
}

// Clone returns a detached copy safe to keep after the callback returns.
func (p *Params) Clone() *Params {
	c := *p
	return &c
}

// intermediates collects the 0x20..0x2F bytes of a sequence, plus any
// leading private marker. Overflow keeps the count but drops the bytes and
// flags the sequence ignored.
type intermediates struct {
	buf  [MaxIntermediates]byte
	n    int
	more bool
}

func (in *intermediates) reset() {
	in.n = 0
	in.more = false
}

func (in *intermediates) push(b byte) {
	if in.n == MaxIntermediates {
		in.more = true
		return
	}
	in.buf[in.n] = b
	in.n++
}

func (in *intermediates) bytes() []byte { return in.buf[:in.n] }
