// Package config reads INI-style project files with access tracking, so
// options nobody asked for can be reported.
package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"pwmcalc/pkg/errors"
)

// Config is a parsed project file.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string

	accessedSections map[string]struct{}
}

// New creates an empty Config.
func New() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads a project file. [include pattern] sections pull in other files
// relative to the including file, in sorted order.
func Load(path string) (*Config, error) {
	c := New()
	if err := c.parseFile(path, make(map[string]bool)); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses a project from memory. Includes are not allowed.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parse(strings.NewReader(data), "", "", nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "config: invalid path %s", path)
	}
	if visited[abs] {
		return errors.New(errors.ErrConfigSection, "recursive include").SetFile(path)
	}
	visited[abs] = true
	defer delete(visited, abs)

	f, err := os.Open(abs)
	if err != nil {
		return pkgerrors.Wrapf(err, "config: unable to open %s", path)
	}
	defer f.Close()

	return c.parse(f, path, filepath.Dir(abs), visited)
}

// parse reads one file. Options before the first section are ignored;
// '#' and ';' start comments; "key: value" and "key = value" are both
// accepted.
func (c *Config) parse(r io.Reader, file, dir string, visited map[string]bool) error {
	var cur *Section

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if idx := strings.IndexAny(line, "#;"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			header := strings.Join(strings.Fields(line[1:len(line)-1]), " ")
			if header == "" {
				return errors.New(errors.ErrConfigSection, "empty section header").
					SetFile(file).SetLine(lineNum)
			}

			if pattern, ok := strings.CutPrefix(header, "include "); ok {
				if visited == nil {
					return errors.New(errors.ErrConfigSection, "include is only allowed in files").
						SetFile(file).SetLine(lineNum)
				}
				if err := c.include(dir, pattern, visited); err != nil {
					return err
				}
				cur = nil
				continue
			}

			cur = c.section(header, file)
			continue
		}

		if cur == nil {
			continue
		}

		sep := strings.IndexAny(line, ":=")
		if sep <= 0 {
			return errors.New(errors.ErrConfigOption, "expected 'key: value', got '"+line+"'").
				SetFile(file).SetLine(lineNum).SetSection(cur.name)
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		cur.set(key, value, file, lineNum)
	}
	if err := scanner.Err(); err != nil {
		return pkgerrors.Wrapf(err, "config: error reading %s", file)
	}
	return nil
}

func (c *Config) include(dir, pattern string, visited map[string]bool) error {
	glob := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(glob)
	if err != nil {
		return pkgerrors.Wrapf(err, "config: invalid include pattern %q", pattern)
	}
	if len(matches) == 0 && !strings.ContainsAny(glob, "*?[") {
		return errors.New(errors.ErrConfigSection, "include file does not exist").SetFile(glob)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if err := c.parseFile(m, visited); err != nil {
			return err
		}
	}
	return nil
}

// section returns the named section, creating it at the end of the order.
// A repeated header continues the earlier section.
func (c *Config) section(name, file string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sections[name]; ok {
		return s
	}
	s := newSection(name, file)
	c.sections[name] = s
	c.order = append(c.order, name)
	return s
}

// GetSection returns a section, marking it used.
func (c *Config) GetSection(name string) (*Section, error) {
	if s := c.GetSectionOptional(name); s != nil {
		return s, nil
	}
	return nil, errors.ConfigSectionError(name)
}

// GetSectionOptional returns a section, or nil if absent.
func (c *Config) GetSectionOptional(name string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sections[name]
	if ok {
		c.accessedSections[name] = struct{}{}
	}
	return s
}

func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// GetSectionNames returns section names in file order.
func (c *Config) GetSectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// GetPrefixSections returns the sections whose name starts with prefix, in
// file order, marking them used.
func (c *Config) GetPrefixSections(prefix string) []*Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []*Section
	for _, name := range c.order {
		if strings.HasPrefix(name, prefix) {
			c.accessedSections[name] = struct{}{}
			result = append(result, c.sections[name])
		}
	}
	return result
}

// GetUnusedSections returns the sections never looked up, sorted.
func (c *Config) GetUnusedSections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []string
	for name := range c.sections {
		if _, ok := c.accessedSections[name]; !ok {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// Warnings describes every unused section and every unused option of a
// used section, in file order.
func (c *Config) Warnings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, name := range c.order {
		s := c.sections[name]
		if _, ok := c.accessedSections[name]; !ok {
			out = append(out, "unused section ["+name+"]")
			continue
		}
		for _, opt := range s.GetUnusedOptions() {
			out = append(out, "unused option '"+opt+"' in section ["+name+"]")
		}
	}
	return out
}
