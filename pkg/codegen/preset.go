// Application presets
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package codegen

import (
	"pwmcalc/pkg/pool"
)

// PresetKind identifies an application preset. The zero value means none.
type PresetKind string

const (
	PresetNone          PresetKind = ""
	PresetStandardServo PresetKind = "standard-servo"
	PresetLedDimming    PresetKind = "led-dimming"
	PresetTogglePin     PresetKind = "toggle-pin"
)

// PresetInfo describes a preset for selection lists.
type PresetInfo struct {
	Key         PresetKind `json:"key"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
}

var presetCatalogue = []PresetInfo{
	{Key: PresetStandardServo, Label: "Standard Servo", Description: "RC servos with configurable angle range"},
	{Key: PresetLedDimming, Label: "LED Dimming", Description: "Smooth LED brightness control"},
	{Key: PresetTogglePin, Label: "Toggle Pin", Description: "Dynamic frequency toggling"},
}

// Presets returns the preset catalogue.
func Presets() []PresetInfo {
	out := make([]PresetInfo, len(presetCatalogue))
	copy(out, presetCatalogue)
	return out
}

// ParsePreset matches s against the preset keys. "" and "none" select no
// preset.
func ParsePreset(s string) (PresetKind, bool) {
	if s == "" || s == "none" {
		return PresetNone, true
	}
	for _, p := range presetCatalogue {
		if string(p.Key) == s {
			return p.Key, true
		}
	}
	return PresetKind(s), false
}

// Fragment is the code a preset adds to the generated files.
type Fragment struct {
	// Declarations go into the header: macros and prototypes.
	Declarations string
	// Implementations go into the source: state and definitions.
	Implementations string
	// InitCalls are chained after the base init in the master init.
	InitCalls []string
}

// PresetGenerator emits the preset-specific part of a component. With
// inline set, everything uses static inline linkage for the header-only
// form.
type PresetGenerator interface {
	Kind() PresetKind
	Generate(ctx *Context, inline bool) Fragment
}

// presetParts is the common shape of every preset: macro lines, state
// lines, a function table and init chain.
type presetParts struct {
	constantsTitle string
	constants      []string
	functionsTitle string
	state          []string
	functions      []Function
	initCalls      []string
}

func (p presetParts) fragment(c *Context, inline bool) Fragment {
	decl := pool.GetTextBuffer()
	defer pool.PutTextBuffer(decl)
	impl := pool.GetTextBuffer()
	defer pool.PutTextBuffer(impl)

	if len(p.constants) > 0 {
		decl.Line(banner(p.constantsTitle))
		for _, l := range p.constants {
			decl.Line(l)
		}
		decl.Blank()
	}
	decl.Line(banner(p.functionsTitle))
	for i, f := range p.functions {
		if i > 0 {
			decl.Blank()
		}
		declare(decl, c, f, inline)
	}

	if len(p.state) > 0 {
		for _, l := range p.state {
			impl.Line(l)
		}
		impl.Blank()
	}
	for i, f := range p.functions {
		if i > 0 {
			impl.Blank()
		}
		define(impl, c, f, inline, docNone)
	}

	return Fragment{
		Declarations:    decl.String(),
		Implementations: impl.String(),
		InitCalls:       p.initCalls,
	}
}
