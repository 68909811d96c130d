package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/shlex"

	"pwmcalc/pkg/calculator"
	"pwmcalc/pkg/codegen"
	"pwmcalc/pkg/config"
	"pwmcalc/pkg/errors"
	"pwmcalc/pkg/log"
	"pwmcalc/pkg/metrics"
	"pwmcalc/pkg/solver"
)

// jobOptions are the flags describing one PWM output.
type jobOptions struct {
	clock         int
	width         int
	freq          float64
	duty          float64
	timer         string
	timerOverride bool
	channel       int
	name          string
	naming        string
	preset        string
	minAngle      float64
	maxAngle      float64
	initialAngle  float64
	brightness    float64
	resolution    string
}

func (o *jobOptions) register(fs *flag.FlagSet) {
	d := calculator.DefaultInputs()
	fs.IntVar(&o.clock, "clock", d.SystemClockMHz, "System clock in MHz")
	fs.IntVar(&o.width, "width", int(d.RegisterWidth), "Timer register width: 16 or 32")
	fs.Float64Var(&o.freq, "freq", d.FrequencyHz, "PWM frequency in Hz")
	fs.Float64Var(&o.duty, "duty", d.DutyCycle, "Duty cycle in percent")
	fs.StringVar(&o.timer, "timer", d.Timer, "Timer instance, e.g. TIM3")
	fs.BoolVar(&o.timerOverride, "timer-override", false, "Accept any timer identifier")
	fs.IntVar(&o.channel, "channel", d.Channel, "Timer channel")
	fs.StringVar(&o.name, "name", d.Component, "Component name used in identifiers")
	fs.StringVar(&o.naming, "naming", string(d.Naming), "Naming convention: UPPERCASE, PascalCase, camelCase or snake_case")
	fs.StringVar(&o.preset, "preset", "none", "Preset: none, standard-servo, led-dimming or toggle-pin")
	fs.Float64Var(&o.minAngle, "min-angle", d.Servo.MinAngle, "Servo minimum angle")
	fs.Float64Var(&o.maxAngle, "max-angle", d.Servo.MaxAngle, "Servo maximum angle")
	fs.Float64Var(&o.initialAngle, "initial-angle", d.Servo.InitialAngle, "Servo initial angle")
	fs.Float64Var(&o.brightness, "brightness", d.InitialBrightness, "LED initial brightness in percent")
	fs.StringVar(&o.resolution, "resolution", "", "Resolution key psc-arr (default: highest)")
}

// visited returns the names of the flags given on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// inputs resolves the options to calculator inputs. The preset supplies
// frequency, duty cycle and width unless those flags are given; servo and
// LED presets derive the duty cycle from the initial angle or brightness
// unless -duty is given.
func (o *jobOptions) inputs(set map[string]bool) calculator.Inputs {
	in := calculator.DefaultInputs()
	kind, ok := codegen.ParsePreset(o.preset)
	if !ok {
		kind = codegen.PresetKind(o.preset)
	}
	in.ApplyPreset(kind)

	in.SystemClockMHz = o.clock
	if set["width"] {
		in.RegisterWidth = solver.Width(o.width)
	}
	if set["freq"] {
		in.FrequencyHz = o.freq
	}
	if set["duty"] {
		in.DutyCycle = o.duty
	}
	if set["resolution"] {
		in.Resolution = o.resolution
	}
	in.Timer = o.timer
	in.TimerOverride = o.timerOverride
	in.Channel = o.channel
	in.Component = o.name
	in.Naming = codegen.Convention(o.naming)
	in.Servo = codegen.Servo{MinAngle: o.minAngle, MaxAngle: o.maxAngle, InitialAngle: o.initialAngle}
	in.InitialBrightness = o.brightness

	if !set["duty"] {
		switch in.Preset {
		case codegen.PresetStandardServo:
			in.SetServoInitialAngle(o.initialAngle)
		case codegen.PresetLedDimming:
			in.SetLedBrightness(o.brightness)
		}
	}
	return in
}

type app struct {
	stdout  io.Writer
	logger  *log.Logger
	metrics *metrics.CalcMetrics
}

// report logs err, one line per coded error.
func (a *app) report(err error) {
	all := errors.All(err)
	if len(all) == 0 {
		a.logger.WithError(err).Error("failed")
		return
	}
	for _, he := range all {
		e := a.logger.WithField("code", string(he.Code))
		if he.Field != "" {
			e = e.WithField("field", he.Field)
		}
		if errors.IsInput(he) {
			a.metrics.RecordValidationError(string(he.Code))
		}
		e.Error(he.Error())
	}
}

// list prints the resolution options for in.
func (a *app) list(in calculator.Inputs) int {
	if err := in.Validate(); err != nil {
		a.report(err)
		return 1
	}
	cands, iterations := solver.SolveCounted(in.SystemClockMHz, in.RegisterWidth, in.FrequencyHz)
	a.metrics.RecordSearch(iterations, len(cands), len(cands) == 0)
	if len(cands) == 0 {
		a.report(errors.NoResolutionError(in.SystemClockMHz, int(in.RegisterWidth), in.FrequencyHz))
		return 1
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tRESOLUTION\tPSC\tARR\tACTUAL HZ\tERROR %")
	for _, c := range cands {
		errPct := (c.ActualFrequencyHz - in.FrequencyHz) / in.FrequencyHz * 100
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.4f\t%+.4f\n",
			c.Key(), c.Label(), c.Prescaler, c.Period, c.ActualFrequencyHz, errPct)
	}
	_ = tw.Flush()
	return 0
}

// runJob computes one component and writes or prints its files. It reports
// its own failures.
func (a *app) runJob(in calculator.Inputs, format, outDir string) bool {
	layout, ok := codegen.ParseLayout(format)
	if !ok {
		a.report(errors.New(errors.ErrAPIParams, "unknown format '"+format+"'").SetField("format"))
		return false
	}

	start := time.Now()
	r, err := calculator.Compute(in)
	if err != nil {
		a.metrics.RecordRequest("cli.render", "invalid", time.Since(start))
		a.report(err)
		return false
	}
	a.metrics.RecordSearch(r.Iterations, len(r.Options), r.NoResolution)
	if r.NoResolution {
		a.metrics.RecordRequest("cli.render", "no_resolution", time.Since(start))
		a.report(errors.NoResolutionError(in.SystemClockMHz, int(in.RegisterWidth), in.FrequencyHz))
		return false
	}

	files := r.Templates.Files(r.Inputs.NamingConfig(), layout)
	size := 0
	for _, f := range files {
		size += len(f.Content)
	}
	a.metrics.RecordRender(string(r.Inputs.Preset), size)
	a.metrics.RecordRequest("cli.render", "ok", time.Since(start))

	entry := a.logger.WithField("component", in.Component).
		WithField("register", r.Register.Key()).
		WithField("actual_hz", r.ActualFrequencyHz)
	if r.Reselected {
		entry.Warn("resolution " + in.Resolution + " not available, using " + r.Selected)
	}

	if outDir == "" {
		for _, f := range files {
			fmt.Fprintf(a.stdout, "/* ---- %s ---- */\n%s", f.Name, f.Content)
			if !strings.HasSuffix(f.Content, "\n") {
				fmt.Fprintln(a.stdout)
			}
		}
		entry.Debug("generated")
		return true
	}
	if err := writeFiles(outDir, files); err != nil {
		a.report(err)
		return false
	}
	entry.WithField("files", len(files)).Info("generated")
	return true
}

func writeFiles(dir string, files []codegen.File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.RuntimeErrorIO("create output directory", err).SetFile(dir)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return errors.RuntimeErrorIO("write", err).SetFile(path)
		}
	}
	return nil
}

// project generates every component of a project file. -format and -out
// override the [calculator] settings.
func (a *app) project(path, format, outDir string) int {
	p, err := config.LoadProject(path)
	if err != nil {
		a.report(err)
		return 1
	}
	for _, w := range p.Warnings {
		a.logger.WithField("file", path).Warn(w)
	}
	if format == "" {
		format = string(p.Defaults.Layout)
	}
	if outDir == "" {
		outDir = p.Defaults.OutputDir
	}

	status := 0
	for _, c := range p.Components {
		if !a.runJob(c.Inputs, format, outDir) {
			a.logger.WithField("section", c.Section).Error("component failed")
			status = 1
		}
	}
	return status
}

// batch runs one job per line of path. Blank lines and lines starting with
// '#' are skipped. Each line is split with shell quoting rules.
func (a *app) batch(path, format, outDir string) int {
	f, err := os.Open(path)
	if err != nil {
		a.report(errors.RuntimeErrorIO("open batch file", err).SetFile(path))
		return 1
	}
	defer f.Close()

	status := 0
	jobs := 0
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		jobs++
		in, err := parseBatchLine(line)
		if err != nil {
			a.report(errors.Wrap(err, errors.ErrConfigValidation, err.Error()).SetFile(path).SetLine(lineNo))
			status = 1
			continue
		}
		if !a.runJob(in, format, outDir) {
			a.logger.WithField("file", path).WithField("line", lineNo).Error("job failed")
			status = 1
		}
	}
	if err := sc.Err(); err != nil {
		a.report(errors.RuntimeErrorIO("read batch file", err).SetFile(path))
		return 1
	}
	a.logger.WithField("jobs", jobs).Debug("batch done")
	return status
}

func parseBatchLine(line string) (calculator.Inputs, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return calculator.Inputs{}, err
	}
	var o jobOptions
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return calculator.Inputs{}, err
	}
	if fs.NArg() > 0 {
		return calculator.Inputs{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return o.inputs(visited(fs)), nil
}
