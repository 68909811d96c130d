// Object pools for rendering
//
// Provides reusable buffers for the template generator and the API, which
// render several kilobytes of C text per request:
// - Text buffers (for generated headers and sources)
// - String slices (for identifier word splitting)
// - Result maps (for JSON-RPC responses)
//
// Usage:
//
//	buf := pool.GetTextBuffer()
//	defer pool.PutTextBuffer(buf)
//	buf.Linef("#define %s %d", name, value)
//	return buf.String()
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"fmt"
	"sync"
)

// maxPooledText bounds the capacity of buffers kept for reuse. A toggle-pin
// source is around 12KB; anything much larger is a one-off.
const maxPooledText = 64 * 1024

// TextBuffer is an append-only text buffer with line helpers.
type TextBuffer struct {
	buf []byte
}

var textBufferPool = sync.Pool{
	New: func() any {
		return &TextBuffer{
			buf: make([]byte, 0, 4096), // Typical header size
		}
	},
}

// GetTextBuffer gets an empty text buffer from the pool
func GetTextBuffer() *TextBuffer {
	b := textBufferPool.Get().(*TextBuffer)
	b.buf = b.buf[:0] // Reset length but keep capacity
	return b
}

// PutTextBuffer returns a text buffer to the pool
func PutTextBuffer(b *TextBuffer) {
	if b == nil {
		return
	}
	// Don't pool oversized buffers
	if cap(b.buf) > maxPooledText {
		return
	}
	textBufferPool.Put(b)
}

// Bytes returns the buffer's byte slice
func (b *TextBuffer) Bytes() []byte {
	return b.buf
}

// String returns a copy of the buffer contents
func (b *TextBuffer) String() string {
	return string(b.buf)
}

// Write appends bytes to the buffer
func (b *TextBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte
func (b *TextBuffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends a string
func (b *TextBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Line appends s followed by a newline
func (b *TextBuffer) Line(s string) {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, '\n')
}

// Linef appends a formatted line
func (b *TextBuffer) Linef(format string, args ...any) {
	b.buf = fmt.Appendf(b.buf, format, args...)
	b.buf = append(b.buf, '\n')
}

// Blank appends an empty line
func (b *TextBuffer) Blank() {
	b.buf = append(b.buf, '\n')
}

// Len returns the buffer length
func (b *TextBuffer) Len() int {
	return len(b.buf)
}


// StringSlice pool - for sorted key lists when formatting fields
var stringSlicePool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 16)
		return &s
	},
}

// GetStringSlice gets a string slice from the pool
func GetStringSlice() *[]string {
	s := stringSlicePool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// PutStringSlice returns a string slice to the pool
func PutStringSlice(s *[]string) {
	if s == nil || cap(*s) > 256 {
		return
	}
	// Clear to allow GC of string contents
	for i := range *s {
		(*s)[i] = ""
	}
	*s = (*s)[:0]
	stringSlicePool.Put(s)
}

// ResultMap pool - for JSON-RPC result objects
var resultMapPool = sync.Pool{
	New: func() any {
		return make(map[string]any, 16)
	},
}

// GetResultMap gets an empty map from the pool
func GetResultMap() map[string]any {
	return resultMapPool.Get().(map[string]any)
}

// PutResultMap returns a map to the pool after clearing it
func PutResultMap(m map[string]any) {
	if m == nil {
		return
	}
	clear(m)
	resultMapPool.Put(m)
}
