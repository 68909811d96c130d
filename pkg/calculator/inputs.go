// Calculator inputs
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package calculator

import (
	"math"

	"go.uber.org/multierr"

	"pwmcalc/pkg/codegen"
	"pwmcalc/pkg/errors"
	"pwmcalc/pkg/mathx"
	"pwmcalc/pkg/solver"
)

// MaxClockMHz is the fastest system clock accepted.
const MaxClockMHz = 1000

// Inputs is the complete caller-side state of one calculation.
type Inputs struct {
	SystemClockMHz    int                `json:"system_clock_mhz"`
	RegisterWidth     solver.Width       `json:"register_width"`
	FrequencyHz       float64            `json:"frequency_hz"`
	DutyCycle         float64            `json:"duty_cycle"`
	Timer             string             `json:"timer"`
	TimerOverride     bool               `json:"timer_override"`
	Channel           int                `json:"channel"`
	Component         string             `json:"component"`
	Naming            codegen.Convention `json:"naming"`
	Preset            codegen.PresetKind `json:"preset"`
	Servo             codegen.Servo      `json:"servo"`
	InitialBrightness float64            `json:"initial_brightness"`
	// Resolution is the selected option key, "psc-arr". Empty selects the
	// highest resolution.
	Resolution string `json:"resolution"`
}

// DefaultInputs returns the state a fresh calculator starts from.
func DefaultInputs() Inputs {
	return Inputs{
		SystemClockMHz:    72,
		RegisterWidth:     solver.Width16,
		FrequencyHz:       1000,
		DutyCycle:         50,
		Timer:             "TIM1",
		Channel:           1,
		Component:         "Component",
		Naming:            codegen.PascalCase,
		Servo:             codegen.DefaultServo(),
		InitialBrightness: 50,
	}
}

// ApplyPreset selects kind and overwrites the frequency, duty cycle and
// width with the preset's defaults. Selecting no preset changes nothing
// else.
func (in *Inputs) ApplyPreset(kind codegen.PresetKind) {
	in.Preset = kind
	switch kind {
	case codegen.PresetStandardServo:
		in.FrequencyHz = 50
		in.DutyCycle = 7.5
		in.RegisterWidth = solver.Width16
	case codegen.PresetLedDimming:
		in.FrequencyHz = 1000
		in.DutyCycle = 50
		in.RegisterWidth = solver.Width16
	case codegen.PresetTogglePin:
		in.FrequencyHz = 1
		in.DutyCycle = 50
		in.RegisterWidth = solver.Width16
		in.Resolution = ""
	}
}

// SetServoInitialAngle stores the angle and moves the duty cycle to match.
func (in *Inputs) SetServoInitialAngle(angle float64) {
	in.Servo.InitialAngle = angle
	in.DutyCycle = in.Servo.DutyForAngle(in.FrequencyHz, angle)
}

// SetLedBrightness stores the brightness, which is the duty cycle.
func (in *Inputs) SetLedBrightness(percent float64) {
	in.InitialBrightness = percent
	in.DutyCycle = percent
}

// Clock returns the solver clock for the inputs.
func (in Inputs) Clock() solver.Clock {
	return solver.Clock{SystemClockMHz: in.SystemClockMHz, Width: in.RegisterWidth}
}

// TimerSelection returns the timer and channel to drive.
func (in Inputs) TimerSelection() codegen.TimerSelection {
	return codegen.TimerSelection{Name: in.Timer, Channel: in.Channel}
}

// NamingConfig returns the naming used for generated identifiers.
func (in Inputs) NamingConfig() codegen.Naming {
	return codegen.Naming{Component: in.Component, Convention: in.Naming}
}

// PresetGenerator returns the generator for the selected preset, or nil.
func (in Inputs) PresetGenerator() codegen.PresetGenerator {
	switch in.Preset {
	case codegen.PresetStandardServo:
		return in.Servo
	case codegen.PresetLedDimming:
		return codegen.Led{InitialBrightness: in.InitialBrightness}
	case codegen.PresetTogglePin:
		return codegen.TogglePin{}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks every field and returns all violations combined with
// multierr. Each violation is a *errors.HostError naming its field.
func (in Inputs) Validate() error {
	var err error
	add := func(e *errors.HostError) {
		err = multierr.Append(err, e)
	}

	if !mathx.Between(in.SystemClockMHz, 1, MaxClockMHz) {
		add(errors.InputError(errors.ErrInputClock, "system_clock_mhz",
			"system clock must be between 1 and %d MHz, got %d", MaxClockMHz, in.SystemClockMHz))
	}
	if !in.RegisterWidth.Valid() {
		add(errors.InputError(errors.ErrInputWidth, "register_width",
			"register width must be 16 or 32, got %d", in.RegisterWidth))
	}
	if !finite(in.FrequencyHz) || in.FrequencyHz <= 0 {
		add(errors.InputError(errors.ErrInputFrequency, "frequency_hz",
			"frequency must be positive, got %g", in.FrequencyHz))
	}
	if !finite(in.DutyCycle) || !mathx.Between(in.DutyCycle, 0, 100) {
		add(errors.InputError(errors.ErrInputDuty, "duty_cycle",
			"duty cycle must be between 0 and 100, got %g", in.DutyCycle))
	}

	if in.TimerOverride {
		if !codegen.IsIdentifier(in.Timer) {
			add(errors.InputError(errors.ErrInputTimer, "timer",
				"timer override %q is not a C identifier", in.Timer))
		}
	} else if !codegen.IsKnownTimer(in.Timer) {
		add(errors.InputError(errors.ErrInputTimer, "timer",
			"unknown timer %q, expected TIM1 to TIM%d", in.Timer, codegen.TimerCount))
	}
	if !mathx.Between(in.Channel, 1, codegen.MaxChannel) {
		add(errors.InputError(errors.ErrInputChannel, "channel",
			"channel must be between 1 and %d, got %d", codegen.MaxChannel, in.Channel))
	}

	if !codegen.IsIdentifier(in.Component) {
		add(errors.InputError(errors.ErrInputComponent, "component",
			"component name %q is not a C identifier", in.Component))
	}
	if _, ok := codegen.ParseConvention(string(in.Naming)); !ok {
		add(errors.InputError(errors.ErrInputNaming, "naming",
			"unknown naming convention %q", in.Naming))
	}
	if _, ok := codegen.ParsePreset(string(in.Preset)); !ok {
		add(errors.InputError(errors.ErrInputPreset, "preset",
			"unknown preset %q", in.Preset))
	}

	switch in.Preset {
	case codegen.PresetStandardServo:
		if finite(in.FrequencyHz) && in.FrequencyHz > codegen.MaxServoFrequencyHz {
			add(errors.InputError(errors.ErrInputServo, "frequency_hz",
				"servo frequency must be at most %d Hz, got %g", codegen.MaxServoFrequencyHz, in.FrequencyHz))
		}
		s := in.Servo
		switch {
		case !finite(s.MinAngle) || !finite(s.MaxAngle) || !finite(s.InitialAngle):
			add(errors.InputError(errors.ErrInputServo, "servo", "servo angles must be finite"))
		case s.MinAngle >= s.MaxAngle:
			add(errors.InputError(errors.ErrInputServo, "servo.min_angle",
				"minimum angle %g must be below maximum angle %g", s.MinAngle, s.MaxAngle))
		case !mathx.Between(s.InitialAngle, s.MinAngle, s.MaxAngle):
			add(errors.InputError(errors.ErrInputServo, "servo.initial_angle",
				"initial angle %g outside %g to %g", s.InitialAngle, s.MinAngle, s.MaxAngle))
		}
	case codegen.PresetLedDimming:
		if !finite(in.InitialBrightness) || !mathx.Between(in.InitialBrightness, 0, 100) {
			add(errors.InputError(errors.ErrInputDuty, "initial_brightness",
				"initial brightness must be between 0 and 100, got %g", in.InitialBrightness))
		}
	}
	return err
}
