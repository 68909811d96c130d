package config

import (
	"strconv"
	"strings"
	"sync"

	"pwmcalc/pkg/errors"
)

type option struct {
	value string
	file  string
	line  int
}

// Section is one [header] block. Option names are case-insensitive and
// every lookup is recorded.
type Section struct {
	name string
	file string

	mu       sync.RWMutex
	options  map[string]option
	keys     []string
	accessed map[string]struct{}
}

func newSection(name, file string) *Section {
	return &Section{
		name:     name,
		file:     file,
		options:  make(map[string]option),
		accessed: make(map[string]struct{}),
	}
}

func (s *Section) set(key, value, file string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.ToLower(key)
	if _, ok := s.options[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.options[key] = option{value: value, file: file, line: line}
}

// GetName returns the full section header.
func (s *Section) GetName() string {
	return s.name
}

// Suffix returns the header after its first word: "Servo" for "pwm Servo".
func (s *Section) Suffix() string {
	_, rest, _ := strings.Cut(s.name, " ")
	return rest
}

// lookup returns the option and marks it used. Unknown options are marked
// too, so a fallback counts as a use.
func (s *Section) lookup(name string) (option, bool) {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessed[key] = struct{}{}
	o, ok := s.options[key]
	return o, ok
}

// at attaches the option's location to a config error.
func (s *Section) at(err *errors.HostError, o option) *errors.HostError {
	if o.file != "" {
		err.SetFile(o.file)
	}
	return err.SetLine(o.line)
}

// GetAccessedOptions returns the options looked up so far, in file order
// for present options.
func (s *Section) GetAccessedOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []string
	for _, k := range s.keys {
		if _, ok := s.accessed[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// GetUnusedOptions returns present options never looked up, in file order.
func (s *Section) GetUnusedOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []string
	for _, k := range s.keys {
		if _, ok := s.accessed[k]; !ok {
			result = append(result, k)
		}
	}
	return result
}

// HasOption reports whether the option is present. It does not count as a
// use.
func (s *Section) HasOption(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.options[strings.ToLower(name)]
	return ok
}

// Get returns a string option. Without a fallback a missing option is an
// error.
func (s *Section) Get(name string, fallback ...string) (string, error) {
	if o, ok := s.lookup(name); ok {
		return o.value, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", errors.ConfigOptionError(s.name, name).SetFile(s.file)
}

func (s *Section) GetInt(name string, fallback ...int) (int, error) {
	o, ok := s.lookup(name)
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, errors.ConfigOptionError(s.name, name).SetFile(s.file)
	}
	i, err := strconv.Atoi(o.value)
	if err != nil {
		return 0, s.at(errors.ConfigTypeError(s.name, name, o.value, "integer", err), o)
	}
	return i, nil
}

// GetIntWithBounds is GetInt that rejects values outside [minVal, maxVal].
func (s *Section) GetIntWithBounds(name string, minVal, maxVal int, fallback ...int) (int, error) {
	v, err := s.GetInt(name, fallback...)
	if err != nil {
		return 0, err
	}
	if v < minVal || v > maxVal {
		o, _ := s.lookup(name)
		return 0, s.at(errors.ConfigValidationError(s.name, name,
			"value "+strconv.Itoa(v)+" must be between "+strconv.Itoa(minVal)+" and "+strconv.Itoa(maxVal)), o)
	}
	return v, nil
}

func (s *Section) GetFloat(name string, fallback ...float64) (float64, error) {
	o, ok := s.lookup(name)
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, errors.ConfigOptionError(s.name, name).SetFile(s.file)
	}
	f, err := strconv.ParseFloat(o.value, 64)
	if err != nil {
		return 0, s.at(errors.ConfigTypeError(s.name, name, o.value, "float", err), o)
	}
	return f, nil
}

// FloatBounds constrains GetFloatWithBounds. Nil bounds are not checked.
type FloatBounds struct {
	MinVal *float64 // >=
	MaxVal *float64 // <=
	Above  *float64 // >
	Below  *float64 // <
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (s *Section) GetFloatWithBounds(name string, bounds FloatBounds, fallback ...float64) (float64, error) {
	v, err := s.GetFloat(name, fallback...)
	if err != nil {
		return 0, err
	}
	var reason string
	switch {
	case bounds.MinVal != nil && v < *bounds.MinVal:
		reason = "must have minimum of " + formatFloat(*bounds.MinVal)
	case bounds.MaxVal != nil && v > *bounds.MaxVal:
		reason = "must have maximum of " + formatFloat(*bounds.MaxVal)
	case bounds.Above != nil && v <= *bounds.Above:
		reason = "must be above " + formatFloat(*bounds.Above)
	case bounds.Below != nil && v >= *bounds.Below:
		reason = "must be below " + formatFloat(*bounds.Below)
	default:
		return v, nil
	}
	o, _ := s.lookup(name)
	return 0, s.at(errors.ConfigValidationError(s.name, name, "value "+formatFloat(v)+" "+reason), o)
}

// GetBool accepts 1/true/yes/on and 0/false/no/off.
func (s *Section) GetBool(name string, fallback ...bool) (bool, error) {
	o, ok := s.lookup(name)
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return false, errors.ConfigOptionError(s.name, name).SetFile(s.file)
	}
	switch strings.ToLower(o.value) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, s.at(errors.ConfigTypeError(s.name, name, o.value, "boolean", nil), o)
}

// GetChoice returns the option if it exactly matches one of choices.
func (s *Section) GetChoice(name string, choices []string, fallback ...string) (string, error) {
	v, err := s.Get(name, fallback...)
	if err != nil {
		return "", err
	}
	for _, c := range choices {
		if v == c {
			return c, nil
		}
	}
	o, _ := s.lookup(name)
	return "", s.at(errors.ConfigValidationError(s.name, name,
		"'"+v+"' is not one of "+strings.Join(choices, ", ")), o)
}
