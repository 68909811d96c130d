// pwmcalc computes STM32 timer prescaler and period values for a PWM
// frequency and writes C code that configures the timer.
//
// Usage:
//
//	pwmcalc [job options] [-list | -out DIR]
//	pwmcalc -config project.cfg [-out DIR] [-format LAYOUT]
//	pwmcalc -batch jobs.txt [-out DIR] [-format LAYOUT]
//	pwmcalc -serve :7125 [-metrics :9100]
//
// Environment:
//
//	PWMCALC_LOG_LEVEL, PWMCALC_LOG_FORMAT, PWMCALC_LOG_CALLER, NO_COLOR
//	PWMCALC_METRICS_USER, PWMCALC_METRICS_PASSWORD  basic auth for -metrics
//
// Examples:
//
//	# Show the resolutions for 20 kHz on a 170 MHz clock
//	pwmcalc -clock 170 -freq 20000 -list
//
//	# Servo on TIM3 channel 2, header and source into ./gen
//	pwmcalc -name Servo -preset standard-servo -timer TIM3 -channel 2 -format pair -out gen
//
//	# Batch file, one job per line with shell quoting
//	#   -name Fan -freq 25000 -duty 40
//	#   -name Blink -preset toggle-pin -freq 2
//	pwmcalc -batch jobs.txt -out gen
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"pwmcalc/pkg/log"
	"pwmcalc/pkg/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	job jobOptions

	list        bool
	format      string
	out         string
	config      string
	batch       string
	serve       string
	metricsAddr string
	logFile     string
	logLevel    string
}

// run executes one invocation and returns the exit status: 0 on success,
// 1 when a job failed, 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("pwmcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.job.register(fs)
	fs.BoolVar(&opts.list, "list", false, "List the available resolutions instead of generating code")
	fs.StringVar(&opts.format, "format", "", "Output layout: inline, pair or all (default all)")
	fs.StringVar(&opts.out, "out", "", "Output directory (default: print to stdout)")
	fs.StringVar(&opts.config, "config", "", "Project file with [pwm NAME] sections")
	fs.StringVar(&opts.batch, "batch", "", "File with one job per line")
	fs.StringVar(&opts.serve, "serve", "", "Serve the JSON-RPC/WebSocket API on this address")
	fs.StringVar(&opts.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&opts.logFile, "logfile", "", "Also log to this file, rotated by size")
	fs.StringVar(&opts.logLevel, "loglevel", "", "Log level: DEBUG, INFO, WARN or ERROR")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	logger, closeLog, err := setupLogging(opts.logFile, opts.logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeLog()

	a := &app{
		stdout:  stdout,
		logger:  logger,
		metrics: metrics.GlobalMetrics(),
	}

	switch {
	case opts.serve != "":
		return a.serve(opts.serve, opts.metricsAddr)
	case opts.config != "":
		return a.project(opts.config, opts.format, opts.out)
	case opts.batch != "":
		return a.batch(opts.batch, opts.format, opts.out)
	}

	in := opts.job.inputs(visited(fs))
	if opts.list {
		return a.list(in)
	}
	if !a.runJob(in, opts.format, opts.out) {
		return 1
	}
	return 0
}

// setupLogging configures the default logger. The returned function closes
// the log file, if any.
func setupLogging(file, level string, stderr io.Writer) (*log.Logger, func(), error) {
	logger := log.New("pwmcalc")
	logger.SetWriter(stderr)
	if stderr != io.Writer(os.Stderr) {
		logger.SetColorize(false)
	}
	closeLog := func() {}

	if file != "" {
		fl, w, err := log.NewConsoleAndFileLogger("pwmcalc", stderr, log.RotationConfig{Filename: file, Compress: true})
		if err != nil {
			return nil, nil, err
		}
		logger = fl
		closeLog = func() { _ = w.Close() }
	}

	log.ConfigureFromEnv(logger)
	if level != "" {
		lv, ok := log.LookupLevel(level)
		if !ok {
			closeLog()
			return nil, nil, fmt.Errorf("unknown log level %q", level)
		}
		logger.SetLevel(lv)
	}
	log.SetDefault(logger)
	return logger, closeLog, nil
}
