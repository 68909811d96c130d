// Identifier derivation for generated C code
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package codegen

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Convention selects how exported function names are formed.
type Convention string

const (
	Uppercase  Convention = "UPPERCASE"
	PascalCase Convention = "PascalCase"
	CamelCase  Convention = "camelCase"
	SnakeCase  Convention = "snake_case"
)

// Conventions returns the supported conventions in display order.
func Conventions() []Convention {
	return []Convention{Uppercase, PascalCase, CamelCase, SnakeCase}
}

// ParseConvention matches s exactly against the supported conventions.
func ParseConvention(s string) (Convention, bool) {
	for _, c := range Conventions() {
		if string(c) == s {
			return c, true
		}
	}
	return Convention(s), false
}

// Hash8 returns the collision-avoidance suffix for a component name: a
// 32-bit wrapping h*31+c hash over UTF-16 code units, absolute value, in
// lowercase hex. Collisions between names are possible and accepted.
func Hash8(name string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(name)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	s := strconv.FormatInt(v, 16)
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}

// splitAtCaps inserts an underscore before every ASCII capital and drops a
// single leading underscore: "SetDutyCycle" -> "Set_Duty_Cycle".
func splitAtCaps(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteByte(c)
	}
	return strings.TrimPrefix(b.String(), "_")
}

// FormatFunctionName builds the exported name of base for a component.
// Conventions outside the supported set fall back to "Component_Base".
func FormatFunctionName(component string, conv Convention, base string) string {
	switch conv {
	case Uppercase:
		return strings.ToUpper(component) + "_" + strings.ToUpper(splitAtCaps(base))
	case PascalCase:
		return component + base
	case CamelCase:
		return strings.ToLower(component) + base
	case SnakeCase:
		return strings.ToLower(component) + "_" + strings.ToLower(splitAtCaps(base))
	default:
		return component + "_" + base
	}
}

// Naming ties a component name to its convention and derives every
// identifier the generated files use.
type Naming struct {
	Component  string     `json:"component"`
	Convention Convention `json:"convention"`
}

// Func returns the exported name for base.
func (n Naming) Func(base string) string {
	return FormatFunctionName(n.Component, n.Convention, base)
}

// VarPrefix returns the prefix of private state variables.
func (n Naming) VarPrefix() string {
	return strings.ToLower(n.Component) + "_" + Hash8(n.Component)
}

// Var returns a private state variable name.
func (n Naming) Var(suffix string) string {
	return n.VarPrefix() + "_" + suffix
}

// Macro returns a component-level macro name.
func (n Naming) Macro(suffix string) string {
	return strings.ToUpper(n.Component) + "_" + suffix
}

// HeaderGuard returns the include guard symbol.
func (n Naming) HeaderGuard() string {
	return strings.ToUpper(n.Component) + "_H"
}

// HeaderFile returns the header filename.
func (n Naming) HeaderFile() string {
	return strings.ToLower(n.Component) + ".h"
}

// SourceFile returns the source filename.
func (n Naming) SourceFile() string {
	return strings.ToLower(n.Component) + ".c"
}

// PreviewEntry shows what a convention produces for a component.
type PreviewEntry struct {
	Convention Convention `json:"convention"`
	Example    string     `json:"example"`
}

// Preview renders the master init function name in every convention.
func Preview(component string) []PreviewEntry {
	convs := Conventions()
	out := make([]PreviewEntry, 0, len(convs))
	for _, c := range convs {
		out = append(out, PreviewEntry{Convention: c, Example: FormatFunctionName(component, c, "Init")})
	}
	return out
}

// IsIdentifier reports whether s is a valid C identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
