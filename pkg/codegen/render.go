// Template rendering
//
// Render produces three views of one component: a header-only form with
// static inline definitions, and a header/source pair. Derived constants
// are emitted once as macros in both headers and the source initializes its
// state from them, so the forms always agree.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package codegen

import (
	"pwmcalc/pkg/pool"
	"pwmcalc/pkg/solver"
)

// Params is everything a render needs. Register must come from a solver
// result; callers must not render without one.
type Params struct {
	Naming      Naming
	Timer       TimerSelection
	Clock       solver.Clock
	Register    solver.Register
	FrequencyHz float64
	DutyPercent float64
	// Preset is nil for a plain PWM output.
	Preset PresetGenerator
}

// Templates holds the generated file contents.
type Templates struct {
	HeaderOnly string `json:"header_only"`
	Header     string `json:"header"`
	Source     string `json:"source"`
}

// Context returns the generation context for p.
func (p Params) Context() *Context {
	return &Context{
		Naming:      p.Naming,
		Timer:       p.Timer,
		Clock:       p.Clock,
		Register:    p.Register,
		FrequencyHz: p.FrequencyHz,
		DutyPercent: p.DutyPercent,
		Pulse:       solver.Pulse(p.DutyPercent, p.Register.Period),
	}
}

// Render generates all three artifacts. It has no failure mode and its
// output depends only on p.
func Render(p Params) Templates {
	c := p.Context()

	var inlineFrag, frag Fragment
	if p.Preset != nil {
		inlineFrag = p.Preset.Generate(c, true)
		frag = p.Preset.Generate(c, false)
	}

	return Templates{
		HeaderOnly: renderHeaderOnly(c, inlineFrag),
		Header:     renderHeader(c, frag),
		Source:     renderSource(c, frag),
	}
}

func writePreamble(b *pool.TextBuffer, c *Context) {
	guard := c.Naming.HeaderGuard()
	b.Line("#ifndef " + guard)
	b.Line("#define " + guard)
	b.Blank()
	b.Line(banner("Includes"))
	b.Line(`#include "main.h"`)
	b.Line("#include <stdint.h>")
	b.Blank()
	b.Line(banner("Exported types"))
	b.Blank()
	b.Line(banner("Exported constants"))
	for _, l := range constantLines(c) {
		b.Line(l)
	}
	b.Blank()
	b.Line(banner("Exported variables"))
	b.Line("// Timer handle (defined in main.c by CubeMX)")
	b.Linef("extern TIM_HandleTypeDef %s;", c.Timer.Handle())
	b.Blank()
}

func writeTrailer(b *pool.TextBuffer, c *Context) {
	b.Blank()
	b.Linef("#endif /* %s */", c.Naming.HeaderGuard())
}

func renderHeaderOnly(c *Context, frag Fragment) string {
	b := pool.GetTextBuffer()
	defer pool.PutTextBuffer(b)

	writePreamble(b, c)
	b.Line(banner("Private variables (static inline safe)"))
	b.Line("// Static variables with hash to prevent conflicts: " + Hash8(c.Naming.Component))
	for _, l := range stateLines(c) {
		b.Line(l)
	}
	b.Blank()
	b.Line(banner("Inline function implementations"))
	for _, f := range baseFunctions(c) {
		define(b, c, f, true, docFull)
		b.Blank()
	}
	if frag.Declarations != "" {
		b.WriteString(frag.Declarations)
		b.Blank()
		b.WriteString(frag.Implementations)
		b.Blank()
	}
	define(b, c, initFunction(c, frag.InitCalls), true, docFull)
	writeTrailer(b, c)
	return b.String()
}

func renderHeader(c *Context, frag Fragment) string {
	b := pool.GetTextBuffer()
	defer pool.PutTextBuffer(b)

	writePreamble(b, c)
	b.Line(banner("Exported functions"))
	for _, f := range baseFunctions(c) {
		declare(b, c, f, false)
		b.Blank()
	}
	if frag.Declarations != "" {
		b.WriteString(frag.Declarations)
		b.Blank()
	}
	declare(b, c, initFunction(c, frag.InitCalls), false)
	writeTrailer(b, c)
	return b.String()
}

func renderSource(c *Context, frag Fragment) string {
	b := pool.GetTextBuffer()
	defer pool.PutTextBuffer(b)

	b.Line(banner("Includes"))
	b.Line(`#include "` + c.Naming.HeaderFile() + `"`)
	b.Blank()
	b.Line(banner("Private variables"))
	for _, l := range stateLines(c) {
		b.Line(l)
	}
	b.Blank()
	b.Line(banner("Exported functions"))
	for _, f := range baseFunctions(c) {
		define(b, c, f, false, docBrief)
		b.Blank()
	}
	if frag.Implementations != "" {
		b.WriteString(frag.Implementations)
		b.Blank()
	}
	define(b, c, initFunction(c, frag.InitCalls), false, docBrief)
	return b.String()
}
