package codegen

import "strings"

// Layout selects which artifacts are written out.
type Layout string

const (
	// LayoutInline writes the header-only form as <name>.h.
	LayoutInline Layout = "inline"
	// LayoutPair writes <name>.h and <name>.c.
	LayoutPair Layout = "pair"
	// LayoutAll writes the pair plus the header-only form as <name>_inline.h.
	LayoutAll Layout = "all"
)

// Layouts returns the supported layouts.
func Layouts() []Layout {
	return []Layout{LayoutInline, LayoutPair, LayoutAll}
}

// ParseLayout matches s against the layouts; "" selects LayoutAll.
func ParseLayout(s string) (Layout, bool) {
	if s == "" {
		return LayoutAll, true
	}
	for _, l := range Layouts() {
		if string(l) == s {
			return l, true
		}
	}
	return Layout(s), false
}

// File is one generated file.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// InlineHeaderFile returns the filename of the header-only form when it is
// written next to the pair.
func (n Naming) InlineHeaderFile() string {
	return strings.ToLower(n.Component) + "_inline.h"
}

// Files lays out t as files for n. An unknown layout yields nothing.
func (t Templates) Files(n Naming, layout Layout) []File {
	switch layout {
	case LayoutInline:
		return []File{{Name: n.HeaderFile(), Content: t.HeaderOnly}}
	case LayoutPair:
		return []File{
			{Name: n.HeaderFile(), Content: t.Header},
			{Name: n.SourceFile(), Content: t.Source},
		}
	case LayoutAll:
		return []File{
			{Name: n.HeaderFile(), Content: t.Header},
			{Name: n.SourceFile(), Content: t.Source},
			{Name: n.InlineHeaderFile(), Content: t.HeaderOnly},
		}
	}
	return nil
}
