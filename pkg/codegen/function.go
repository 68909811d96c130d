// C function table
//
// Every generated function is described once and written in three shapes:
// a static inline definition, a prototype, and an out-of-line definition.
// All three read the exported name from the same Naming, so the artifacts
// cannot disagree on it.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package codegen

import (
	"strconv"
	"strings"

	"pwmcalc/pkg/pool"
	"pwmcalc/pkg/solver"
)

// Context carries the values a generator needs to emit code.
type Context struct {
	Naming      Naming
	Timer       TimerSelection
	Clock       solver.Clock
	Register    solver.Register
	FrequencyHz float64
	DutyPercent float64
	Pulse       int64
}

// Func returns the exported name of base.
func (c *Context) Func(base string) string {
	return c.Naming.Func(base)
}

// Var returns a private state variable name.
func (c *Context) Var(suffix string) string {
	return c.Naming.Var(suffix)
}

// Macro returns a component macro name.
func (c *Context) Macro(suffix string) string {
	return c.Naming.Macro(suffix)
}

// HandleRef returns "&htimN" for HAL calls.
func (c *Context) HandleRef() string {
	return "&" + c.Timer.Handle()
}

// halArgs returns "&htimN, TIM_CHANNEL_M".
func (c *Context) halArgs() string {
	return c.HandleRef() + ", " + c.Timer.ChannelMacro()
}

// Function describes one generated C function.
type Function struct {
	Base   string
	Return string
	Params string
	Brief  string
	// Tags are extra doc lines such as "@param" or "@note".
	Tags []string
	// Body lines are indented one level; preprocessor lines stay at column 0.
	Body []string
}

func (f Function) signature(c *Context) string {
	return f.Return + " " + c.Func(f.Base) + "(" + f.Params + ")"
}

func writeDoc(b *pool.TextBuffer, brief string, tags []string) {
	b.Line("/**")
	b.Line(" * @brief " + brief)
	for _, t := range tags {
		b.Line(" * " + t)
	}
	b.Line(" */")
}

// declare writes a documented prototype.
func declare(b *pool.TextBuffer, c *Context, f Function, inline bool) {
	writeDoc(b, f.Brief, f.Tags)
	if inline {
		b.WriteString("static inline ")
	}
	b.Line(f.signature(c) + ";")
}

// define writes the function body. doc selects a full comment block, a
// brief one (for out-of-line definitions whose prototypes carry the rest),
// or none.
func define(b *pool.TextBuffer, c *Context, f Function, inline bool, doc docLevel) {
	switch doc {
	case docFull:
		writeDoc(b, f.Brief, f.Tags)
	case docBrief:
		writeDoc(b, f.Brief, nil)
	}
	if inline {
		b.WriteString("static inline ")
	}
	b.Line(f.signature(c) + " {")
	for _, l := range f.Body {
		switch {
		case l == "":
			b.Blank()
		case strings.HasPrefix(l, "#"):
			b.Line(l)
		default:
			b.Line("    " + l)
		}
	}
	b.Line("}")
}

type docLevel int

const (
	docNone docLevel = iota
	docBrief
	docFull
)

// banner returns a section comment padded to 80 columns.
func banner(title string) string {
	s := "/* " + title + " "
	if n := 78 - len(s); n > 0 {
		s += strings.Repeat("-", n)
	}
	return s + "*/"
}

// cNumber formats v the shortest way that round-trips: 1000, 7.5.
func cNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// cFloat formats v as a float literal: 5.0f, 7.5f.
func cFloat(v float64) string {
	s := cNumber(v)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + "f"
}

// cUnsigned formats v as an unsigned literal: 65535U.
func cUnsigned(v int64) string {
	return strconv.FormatInt(v, 10) + "U"
}
