// Unified error handling for pwmcalc
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Input validation errors
	ErrInputClock     ErrorCode = "INPUT_CLOCK"
	ErrInputWidth     ErrorCode = "INPUT_WIDTH"
	ErrInputFrequency ErrorCode = "INPUT_FREQUENCY"
	ErrInputDuty      ErrorCode = "INPUT_DUTY"
	ErrInputTimer     ErrorCode = "INPUT_TIMER"
	ErrInputChannel   ErrorCode = "INPUT_CHANNEL"
	ErrInputComponent ErrorCode = "INPUT_COMPONENT"
	ErrInputNaming    ErrorCode = "INPUT_NAMING"
	ErrInputPreset    ErrorCode = "INPUT_PRESET"
	ErrInputServo     ErrorCode = "INPUT_SERVO"

	// No prescaler/period pair realizes the request
	ErrNoResolution ErrorCode = "NO_RESOLUTION"

	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Runtime errors
	ErrRuntime   ErrorCode = "RUNTIME"
	ErrRuntimeIO ErrorCode = "RUNTIME_IO"

	// API errors
	ErrAPIParams ErrorCode = "API_PARAMS"
	ErrAPIMethod ErrorCode = "API_METHOD"
)

// HostError is the unified error type for the host system
type HostError struct {
	// Code is the error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Field is the input field at fault (if applicable)
	Field string `json:"field,omitempty"`

	// File is the project file (if available)
	File string `json:"file,omitempty"`

	// Line is the line number in the project file (if available)
	Line int `json:"line,omitempty"`

	// Section is the config section or context
	Section string `json:"section,omitempty"`

	// Option is the config option name (if applicable)
	Option string `json:"option,omitempty"`

	// Err wraps the underlying error
	Err error `json:"-"`

	// Context provides additional context
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *HostError) Error() string {
	where := e.Field
	if where == "" {
		where = e.Option
	}
	if where == "" {
		where = e.Section
	}
	msg := e.Message
	if e.File != "" {
		if e.Line > 0 {
			msg = fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
		} else {
			msg = e.File + ": " + msg
		}
	}
	if where == "" {
		return fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Code, where, msg)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetField sets the input field
func (e *HostError) SetField(field string) *HostError {
	e.Field = field
	return e
}

// SetFile sets the source file
func (e *HostError) SetFile(file string) *HostError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *HostError) SetLine(line int) *HostError {
	e.Line = line
	return e
}

// SetSection sets the context section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *HostError) SetOption(option string) *HostError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// Input errors

// InputError creates a validation error for one input field
func InputError(code ErrorCode, field string, format string, args ...interface{}) *HostError {
	return New(code, fmt.Sprintf(format, args...)).SetField(field)
}

// NoResolutionError reports that no prescaler/period pair fits the request
func NoResolutionError(clockMHz int, width int, frequencyHz float64) *HostError {
	return New(ErrNoResolution, fmt.Sprintf("no valid resolution for %g Hz at %d MHz on a %d-bit timer", frequencyHz, clockMHz, width)).
		SetContext("clock_mhz", clockMHz).
		SetContext("width", width).
		SetContext("frequency_hz", frequencyHz)
}

// Config errors

// ConfigSectionError creates an error for missing config section
func ConfigSectionError(section string) *HostError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for missing or invalid config option
func ConfigOptionError(section, option string) *HostError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *HostError {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for config type conversion failure
func ConfigTypeError(section, option, value string, targetType string, err error) *HostError {
	return Wrap(err, ErrConfigType, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *HostError {
	return New(ErrRuntime, message)
}

// RuntimeErrorIO creates an error for a failed file or network operation
func RuntimeErrorIO(operation string, err error) *HostError {
	return Wrap(err, ErrRuntimeIO, fmt.Sprintf("%s failed: %v", operation, err))
}

// RecoverPanic converts a recovered panic value into an error. Call it as
// RecoverPanic(recover()) from a deferred function.
func RecoverPanic(r interface{}) *HostError {
	if r == nil {
		return nil
	}
	switch x := r.(type) {
	case string:
		return RuntimeError(fmt.Sprintf("panic: %s", x))
	case runtime.Error:
		return Wrap(x, ErrRuntime, "panic: "+x.Error())
	case error:
		return Wrap(x, ErrRuntime, x.Error())
	default:
		return RuntimeError(fmt.Sprintf("panic: %v", x))
	}
}

// All returns every HostError in err, looking through wrapping and
// multierr combinations.
func All(err error) []*HostError {
	var out []*HostError
	for _, e := range multierr.Errors(err) {
		var he *HostError
		if stderrors.As(e, &he) {
			out = append(out, he)
		}
	}
	return out
}

// Is checks if any error in err carries the given code
func Is(err error, code ErrorCode) bool {
	for _, he := range All(err) {
		if he.Code == code {
			return true
		}
	}
	return false
}

// IsInput checks if error is an input validation error
func IsInput(err error) bool {
	for _, he := range All(err) {
		switch he.Code {
		case ErrInputClock, ErrInputWidth, ErrInputFrequency, ErrInputDuty,
			ErrInputTimer, ErrInputChannel, ErrInputComponent, ErrInputNaming,
			ErrInputPreset, ErrInputServo:
			return true
		}
	}
	return false
}
