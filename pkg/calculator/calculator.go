// Package calculator ties the solver and the template generator together
// the way an interactive form uses them: it validates inputs, picks a
// resolution and decides whether code can be generated at all.
package calculator

import (
	"pwmcalc/pkg/codegen"
	"pwmcalc/pkg/solver"
)

// Result is the outcome of one calculation.
type Result struct {
	Inputs  Inputs          `json:"inputs"`
	Options []solver.Option `json:"options"`

	// Selected is the option key in use. It is empty for dynamic
	// resolution and when nothing fits.
	Selected string `json:"selected"`
	// Reselected is set when the requested key was not among the options
	// and the first option was chosen instead.
	Reselected bool `json:"reselected,omitempty"`
	// Dynamic marks a register pair computed by SolveDynamic.
	Dynamic bool `json:"dynamic,omitempty"`

	// NoResolution is set when no register pair realizes the frequency.
	// Register, Settings and Templates are then empty.
	NoResolution bool            `json:"no_resolution"`
	Register     solver.Register `json:"register"`

	ActualFrequencyHz float64 `json:"actual_frequency_hz"`
	Pulse             int64   `json:"pulse"`

	Settings  []Setting          `json:"settings,omitempty"`
	Templates *codegen.Templates `json:"templates,omitempty"`

	// Iterations is the number of prescaler values the search visited.
	Iterations int `json:"iterations"`
}

// Params returns the render parameters for a result with a resolution.
func (r *Result) Params() codegen.Params {
	in := r.Inputs
	return codegen.Params{
		Naming:      in.NamingConfig(),
		Timer:       in.TimerSelection(),
		Clock:       in.Clock(),
		Register:    r.Register,
		FrequencyHz: in.FrequencyHz,
		DutyPercent: in.DutyCycle,
		Preset:      in.PresetGenerator(),
	}
}

// Resolve runs the solver and picks a register pair without rendering.
// Inputs must already be valid.
func Resolve(in Inputs) *Result {
	cands, iterations := solver.SolveCounted(in.SystemClockMHz, in.RegisterWidth, in.FrequencyHz)
	r := &Result{
		Inputs:     in,
		Options:    solver.Options(cands),
		Iterations: iterations,
	}

	if in.Preset == codegen.PresetTogglePin {
		r.Inputs.Resolution = ""
		r.Dynamic = true
		reg, ok := solver.SolveDynamic(in.SystemClockMHz, in.RegisterWidth, in.FrequencyHz)
		if !ok {
			r.NoResolution = true
			return r
		}
		r.Register = reg
	} else {
		if len(r.Options) == 0 {
			r.Inputs.Resolution = ""
			r.NoResolution = true
			return r
		}
		opt, found := findOption(r.Options, in.Resolution)
		if !found {
			opt = r.Options[0]
			r.Reselected = in.Resolution != ""
		}
		r.Selected = opt.Key
		r.Inputs.Resolution = opt.Key
		r.Register = opt.Register()
	}

	r.ActualFrequencyHz = solver.ActualFrequency(in.SystemClockMHz, r.Register)
	r.Pulse = solver.Pulse(in.DutyCycle, r.Register.Period)
	return r
}

func findOption(opts []solver.Option, key string) (solver.Option, bool) {
	if key == "" {
		return solver.Option{}, false
	}
	for _, o := range opts {
		if o.Key == key {
			return o, true
		}
	}
	return solver.Option{}, false
}

// Compute validates in, resolves a register pair and, when one exists,
// renders the templates and CubeMX settings. A missing resolution is not an
// error; it is reported through Result.NoResolution.
func Compute(in Inputs) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r := Resolve(in)
	if r.NoResolution {
		return r, nil
	}
	r.Settings = CubeMXSettings(in.RegisterWidth, in.Channel, r.Register, r.Pulse)
	t := codegen.Render(r.Params())
	r.Templates = &t
	return r, nil
}
