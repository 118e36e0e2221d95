// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vtparse/events.go
// Summary: Recorded event form of the handler callbacks.
// Usage: Collect gathers events for tests and tools; EventFunc adapts a
//        plain function into a Handler.

package vtparse

import (
	"fmt"
	"strings"
)

// EventKind names one handler callback.
type EventKind int

const (
	EventPrint EventKind = iota
	EventExecute
	EventCsiDispatch
	EventEscDispatch
	EventHook
	EventPut
	EventUnhook
	EventOscStart
	EventOscPut
	EventOscEnd
	EventPrintEnd
)

var eventNames = [...]string{
	EventPrint:       "Print",
	EventExecute:     "Execute",
	EventCsiDispatch: "CsiDispatch",
	EventEscDispatch: "EscDispatch",
	EventHook:        "Hook",
	EventPut:         "Put",
	EventUnhook:      "Unhook",
	EventOscStart:    "OscStart",
	EventOscPut:      "OscPut",
	EventOscEnd:      "OscEnd",
	EventPrintEnd:    "PrintEnd",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "Unknown"
}

// Event is one handler callback captured as a value. Unlike the live
// callback arguments, an Event owns its data and stays valid indefinitely.
type Event struct {
	Kind    EventKind
	Rune    rune       // Print
	Byte    byte       // Execute, Put, OscPut
	Final   byte       // CsiDispatch, EscDispatch, Hook
	Params  [][]uint16 // CsiDispatch, Hook
	Inter   []byte     // CsiDispatch, EscDispatch, Hook
	Ignored bool       // CsiDispatch, EscDispatch, Hook
}

// String renders the event in a stable single-line form, I/O trace style.
func (e Event) String() string {
	switch e.Kind {
	case EventPrint:
		return fmt.Sprintf("Print(%q)", e.Rune)
	case EventExecute:
		return fmt.Sprintf("Execute(0x%02X)", e.Byte)
	case EventPut:
		return fmt.Sprintf("Put(0x%02X)", e.Byte)
	case EventOscPut:
		return fmt.Sprintf("OscPut(0x%02X)", e.Byte)
	case EventCsiDispatch:
		return fmt.Sprintf("CsiDispatch(%s)", e.dispatchArgs())
	case EventEscDispatch:
		return fmt.Sprintf("EscDispatch(%s)", e.dispatchArgs())
	case EventHook:
		return fmt.Sprintf("Hook(%s)", e.dispatchArgs())
	default:
		return e.Kind.String() + "()"
	}
}

func (e Event) dispatchArgs() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "final=%q", e.Final)
	if len(e.Params) > 0 {
		fmt.Fprintf(&sb, ", params=%v", e.Params)
	}
	if len(e.Inter) > 0 {
		fmt.Fprintf(&sb, ", inter=%q", e.Inter)
	}
	if e.Ignored {
		sb.WriteString(", ignored")
	}
	return sb.String()
}

type collector struct {
	dst *[]Event
}

// Collect returns a Handler that appends every callback to *dst as an
// owning Event, PrintEnd notifications included. The captured parameter
// and intermediate data are copies, safe to inspect after Advance returns.
func Collect(dst *[]Event) Handler {
	return &collector{dst: dst}
}

func (c *collector) add(e Event)    { *c.dst = append(*c.dst, e) }
func (c *collector) Print(r rune)   { c.add(Event{Kind: EventPrint, Rune: r}) }
func (c *collector) Execute(b byte) { c.add(Event{Kind: EventExecute, Byte: b}) }

func (c *collector) CsiDispatch(params *Params, inter []byte, ignored bool, final byte) {
	c.add(Event{
		Kind:    EventCsiDispatch,
		Final:   final,
		Params:  params.All(),
		Inter:   append([]byte(nil), inter...),
		Ignored: ignored,
	})
}

func (c *collector) EscDispatch(inter []byte, ignored bool, final byte) {
	c.add(Event{
		Kind:    EventEscDispatch,
		Final:   final,
		Inter:   append([]byte(nil), inter...),
		Ignored: ignored,
	})
}

func (c *collector) Hook(params *Params, inter []byte, ignored bool, final byte) {
	c.add(Event{
		Kind:    EventHook,
		Final:   final,
		Params:  params.All(),
		Inter:   append([]byte(nil), inter...),
		Ignored: ignored,
	})
}

func (c *collector) Put(b byte)    { c.add(Event{Kind: EventPut, Byte: b}) }
func (c *collector) Unhook()       { c.add(Event{Kind: EventUnhook}) }
func (c *collector) OscStart()     { c.add(Event{Kind: EventOscStart}) }
func (c *collector) OscPut(b byte) { c.add(Event{Kind: EventOscPut, Byte: b}) }
func (c *collector) OscEnd()       { c.add(Event{Kind: EventOscEnd}) }
func (c *collector) PrintEnd()     { c.add(Event{Kind: EventPrintEnd}) }

// EventFunc adapts a function into a Handler by reporting every callback
// as an Event. The Params and Inter fields are detached copies.
type EventFunc func(Event)

func (f EventFunc) Print(r rune)   { f(Event{Kind: EventPrint, Rune: r}) }
func (f EventFunc) Execute(b byte) { f(Event{Kind: EventExecute, Byte: b}) }

func (f EventFunc) CsiDispatch(params *Params, inter []byte, ignored bool, final byte) {
	f(Event{
		Kind:    EventCsiDispatch,
		Final:   final,
		Params:  params.All(),
		Inter:   append([]byte(nil), inter...),
		Ignored: ignored,
	})
}

func (f EventFunc) EscDispatch(inter []byte, ignored bool, final byte) {
	f(Event{
		Kind:    EventEscDispatch,
		Final:   final,
		Inter:   append([]byte(nil), inter...),
		Ignored: ignored,
	})
}

func (f EventFunc) Hook(params *Params, inter []byte, ignored bool, final byte) {
	f(Event{
		Kind:    EventHook,
		Final:   final,
		Params:  params.All(),
		Inter:   append([]byte(nil), inter...),
		Ignored: ignored,
	})
}

func (f EventFunc) Put(b byte)    { f(Event{Kind: EventPut, Byte: b}) }
func (f EventFunc) Unhook()       { f(Event{Kind: EventUnhook}) }
func (f EventFunc) OscStart()     { f(Event{Kind: EventOscStart}) }
func (f EventFunc) OscPut(b byte) { f(Event{Kind: EventOscPut, Byte: b}) }
func (f EventFunc) OscEnd()       { f(Event{Kind: EventOscEnd}) }
func (f EventFunc) PrintEnd()     { f(Event{Kind: EventPrintEnd}) }
