// Project files
//
// A project describes several PWM outputs at once:
//
//	[calculator]
//	system_clock_mhz: 72
//	register_width: 16
//	naming: PascalCase
//	format: all
//	output_dir: generated
//
//	[pwm Servo]
//	timer: TIM2
//	channel: 1
//	preset: standard-servo
//	initial_angle: 45
//
// Every [pwm NAME] starts from the [calculator] defaults. A preset applies
// its frequency, duty cycle and width before the section's own options.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"go.uber.org/multierr"

	"pwmcalc/pkg/calculator"
	"pwmcalc/pkg/codegen"
	"pwmcalc/pkg/errors"
	"pwmcalc/pkg/solver"
)

const (
	// SectionCalculator holds project-wide defaults.
	SectionCalculator = "calculator"
	// SectionPWMPrefix starts each component section.
	SectionPWMPrefix = "pwm "
)

// Defaults are the [calculator] settings.
type Defaults struct {
	SystemClockMHz int
	RegisterWidth  solver.Width
	Naming         codegen.Convention
	Layout         codegen.Layout
	OutputDir      string
}

// Component is one [pwm NAME] section resolved to calculator inputs.
type Component struct {
	Section string
	Inputs  calculator.Inputs
}

// Project is a parsed project file.
type Project struct {
	Defaults   Defaults
	Components []Component
	// Warnings lists unused sections and options.
	Warnings []string
}

// LoadProject reads and parses a project file.
func LoadProject(path string) (*Project, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ParseProject(cfg)
}

// ParseProject resolves every component of cfg. All invalid components are
// reported together; each error names its section.
func ParseProject(cfg *Config) (*Project, error) {
	d, err := parseDefaults(cfg.GetSectionOptional(SectionCalculator))
	if err != nil {
		return nil, err
	}

	p := &Project{Defaults: d}
	var errs error
	for _, sec := range cfg.GetPrefixSections(SectionPWMPrefix) {
		in, err := parseComponent(sec, d)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		p.Components = append(p.Components, Component{Section: sec.GetName(), Inputs: in})
	}
	if errs != nil {
		return nil, errs
	}
	if len(p.Components) == 0 {
		return nil, errors.New(errors.ErrConfigSection, "project has no [pwm NAME] sections")
	}
	p.Warnings = cfg.Warnings()
	return p, nil
}

func conventionNames() []string {
	var out []string
	for _, c := range codegen.Conventions() {
		out = append(out, string(c))
	}
	return out
}

func layoutNames() []string {
	var out []string
	for _, l := range codegen.Layouts() {
		out = append(out, string(l))
	}
	return out
}

func parseDefaults(sec *Section) (Defaults, error) {
	base := calculator.DefaultInputs()
	d := Defaults{
		SystemClockMHz: base.SystemClockMHz,
		RegisterWidth:  base.RegisterWidth,
		Naming:         base.Naming,
		Layout:         codegen.LayoutAll,
		OutputDir:      ".",
	}
	if sec == nil {
		return d, nil
	}

	var err, e error
	d.SystemClockMHz, e = sec.GetIntWithBounds("system_clock_mhz", 1, calculator.MaxClockMHz, d.SystemClockMHz)
	err = multierr.Append(err, e)

	var width int
	width, e = sec.GetInt("register_width", int(d.RegisterWidth))
	err = multierr.Append(err, e)
	d.RegisterWidth = solver.Width(width)

	var s string
	s, e = sec.GetChoice("naming", conventionNames(), string(d.Naming))
	err = multierr.Append(err, e)
	d.Naming = codegen.Convention(s)

	s, e = sec.GetChoice("format", layoutNames(), string(d.Layout))
	err = multierr.Append(err, e)
	d.Layout = codegen.Layout(s)

	d.OutputDir, e = sec.Get("output_dir", d.OutputDir)
	err = multierr.Append(err, e)

	if err == nil && !d.RegisterWidth.Valid() {
		err = errors.ConfigValidationError(sec.GetName(), "register_width", "must be 16 or 32")
	}
	return d, err
}

// getters reads options and collects their errors.
type getters struct {
	sec *Section
	err error
}

func (g *getters) getString(name, fallback string) string {
	v, err := g.sec.Get(name, fallback)
	g.err = multierr.Append(g.err, err)
	return v
}

func (g *getters) getInt(name string, fallback int) int {
	v, err := g.sec.GetInt(name, fallback)
	g.err = multierr.Append(g.err, err)
	return v
}

func (g *getters) getFloat(name string, fallback float64) float64 {
	v, err := g.sec.GetFloat(name, fallback)
	g.err = multierr.Append(g.err, err)
	return v
}

func (g *getters) getBool(name string, fallback bool) bool {
	v, err := g.sec.GetBool(name, fallback)
	g.err = multierr.Append(g.err, err)
	return v
}

func parseComponent(sec *Section, d Defaults) (calculator.Inputs, error) {
	name := sec.GetName()
	in := calculator.DefaultInputs()
	in.Component = sec.Suffix()
	in.SystemClockMHz = d.SystemClockMHz
	in.RegisterWidth = d.RegisterWidth
	in.Naming = d.Naming

	g := &getters{sec: sec}

	preset, ok := codegen.ParsePreset(g.getString("preset", ""))
	if !ok {
		return in, errors.ConfigValidationError(name, "preset", "unknown preset '"+string(preset)+"'")
	}
	in.ApplyPreset(preset)

	in.SystemClockMHz = g.getInt("system_clock_mhz", in.SystemClockMHz)
	in.RegisterWidth = solver.Width(g.getInt("register_width", int(in.RegisterWidth)))
	in.Naming = codegen.Convention(g.getString("naming", string(in.Naming)))
	in.Timer = g.getString("timer", in.Timer)
	in.TimerOverride = g.getBool("timer_override", false)
	in.Channel = g.getInt("channel", in.Channel)
	in.FrequencyHz = g.getFloat("frequency", in.FrequencyHz)
	in.Resolution = g.getString("resolution", in.Resolution)

	switch preset {
	case codegen.PresetStandardServo:
		in.Servo.MinAngle = g.getFloat("min_angle", in.Servo.MinAngle)
		in.Servo.MaxAngle = g.getFloat("max_angle", in.Servo.MaxAngle)
		in.SetServoInitialAngle(g.getFloat("initial_angle", in.Servo.InitialAngle))
	case codegen.PresetLedDimming:
		if sec.HasOption("initial_brightness") {
			in.SetLedBrightness(g.getFloat("initial_brightness", in.InitialBrightness))
		}
	}
	// An explicit duty cycle wins over the one derived from the preset
	in.DutyCycle = g.getFloat("duty_cycle", in.DutyCycle)

	if g.err != nil {
		return in, g.err
	}

	if err := in.Validate(); err != nil {
		for _, he := range errors.All(err) {
			he.SetSection(name)
			if sec.file != "" {
				he.SetFile(sec.file)
			}
		}
		return in, err
	}
	return in, nil
}
