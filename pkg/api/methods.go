package api

import (
	"encoding/json"
	"os"
	"time"

	"pwmcalc/pkg/calculator"
	"pwmcalc/pkg/codegen"
	"pwmcalc/pkg/errors"
	"pwmcalc/pkg/solver"
)

var methodNames = []string{
	"server.info",
	"calc.timers",
	"calc.presets",
	"calc.conventions",
	"calc.resolutions",
	"calc.dynamic",
	"calc.render",
}

// dispatchMethod routes a method call to its handler.
func (s *Server) dispatchMethod(method string, params json.RawMessage) (any, error) {
	switch method {
	case "server.info":
		return s.methodServerInfo()
	case "calc.timers":
		return s.methodTimers()
	case "calc.presets":
		return s.methodPresets()
	case "calc.conventions":
		return s.methodConventions(params)
	case "calc.resolutions":
		return s.methodResolutions(params)
	case "calc.dynamic":
		return s.methodDynamic(params)
	case "calc.render":
		return s.methodRender(params)
	default:
		return nil, errors.New(errors.ErrAPIMethod, "method not found: "+method)
	}
}

func paramsError(err error) error {
	return errors.Wrap(err, errors.ErrAPIParams, "invalid params: "+err.Error())
}

func orEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return []byte("{}")
	}
	return raw
}

type inputParams struct {
	calculator.Inputs
	Layout string `json:"layout"`
}

// decodeInputs builds calculator inputs from params the way the form does:
// defaults first, then the preset's defaults, then every field given. A
// servo or LED preset without an explicit duty_cycle takes its duty cycle
// from the initial angle or brightness.
func decodeInputs(raw json.RawMessage) (calculator.Inputs, codegen.Layout, error) {
	data := orEmpty(raw)

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return calculator.Inputs{}, "", paramsError(err)
	}
	var probe struct {
		Preset codegen.PresetKind `json:"preset"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return calculator.Inputs{}, "", paramsError(err)
	}

	p := inputParams{Inputs: calculator.DefaultInputs()}
	p.Inputs.ApplyPreset(probe.Preset)
	if err := json.Unmarshal(data, &p); err != nil {
		return calculator.Inputs{}, "", paramsError(err)
	}

	in := p.Inputs
	if _, ok := present["duty_cycle"]; !ok {
		switch in.Preset {
		case codegen.PresetStandardServo:
			in.SetServoInitialAngle(in.Servo.InitialAngle)
		case codegen.PresetLedDimming:
			in.SetLedBrightness(in.InitialBrightness)
		}
	}

	layout, ok := codegen.ParseLayout(p.Layout)
	if !ok {
		return in, "", errors.New(errors.ErrAPIParams, "unknown layout '"+p.Layout+"'").SetField("layout")
	}
	return in, layout, nil
}

func (s *Server) methodServerInfo() (any, error) {
	hostname, _ := os.Hostname()
	return map[string]any{
		"version":         Version,
		"api_version":     []int{1, 0, 0},
		"hostname":        hostname,
		"websocket_count": s.ClientCount(),
		"uptime":          time.Since(s.startTime).Seconds(),
		"methods":         methodNames,
	}, nil
}

func (s *Server) methodTimers() (any, error) {
	return map[string]any{
		"timers":      codegen.TimerNames(),
		"max_channel": codegen.MaxChannel,
		"widths":      []solver.Width{solver.Width16, solver.Width32},
	}, nil
}

func (s *Server) methodPresets() (any, error) {
	return map[string]any{"presets": codegen.Presets()}, nil
}

func (s *Server) methodConventions(params json.RawMessage) (any, error) {
	var p struct {
		Component string `json:"component"`
	}
	if err := json.Unmarshal(orEmpty(params), &p); err != nil {
		return nil, paramsError(err)
	}
	if p.Component == "" {
		p.Component = calculator.DefaultInputs().Component
	}
	return map[string]any{
		"conventions": codegen.Conventions(),
		"preview":     codegen.Preview(p.Component),
	}, nil
}

// methodResolutions lists the register options for the inputs and the one
// that would be selected.
func (s *Server) methodResolutions(params json.RawMessage) (any, error) {
	in, _, err := decodeInputs(params)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r := calculator.Resolve(in)
	s.metrics.RecordSearch(r.Iterations, len(r.Options), r.NoResolution)

	return map[string]any{
		"options":       r.Options,
		"selected":      r.Selected,
		"reselected":    r.Reselected,
		"dynamic":       r.Dynamic,
		"no_resolution": r.NoResolution,
		"iterations":    r.Iterations,
	}, nil
}

// methodDynamic computes the single register pair used for toggle pin
// output.
func (s *Server) methodDynamic(params json.RawMessage) (any, error) {
	in, _, err := decodeInputs(params)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	reg, ok := solver.SolveDynamic(in.SystemClockMHz, in.RegisterWidth, in.FrequencyHz)
	result := map[string]any{"found": ok}
	if ok {
		result["register"] = reg
		result["actual_frequency_hz"] = solver.ActualFrequency(in.SystemClockMHz, reg)
	}
	return result, nil
}

func (s *Server) methodRender(params json.RawMessage) (any, error) {
	in, layout, err := decodeInputs(params)
	if err != nil {
		return nil, err
	}
	r, err := calculator.Compute(in)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSearch(r.Iterations, len(r.Options), r.NoResolution)

	files := []codegen.File{}
	if r.Templates != nil {
		files = r.Templates.Files(r.Inputs.NamingConfig(), layout)
		size := 0
		for _, f := range files {
			size += len(f.Content)
		}
		s.metrics.RecordRender(string(r.Inputs.Preset), size)
	}
	return map[string]any{
		"result": r,
		"layout": layout,
		"files":  files,
	}, nil
}
