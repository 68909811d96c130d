// Structured logging for pwmcalc
//
// Levelled logger with persistent and per-entry fields, text or JSON
// output, per-component prefixes and colour when writing to a terminal.
// Loggers derived from one another share their output and its lock.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"pwmcalc/pkg/errors"
	"pwmcalc/pkg/pool"
)

// Level is the severity of a log message
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// LookupLevel parses a level name, case-insensitively. WARNING is accepted
// for WARN.
func LookupLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	}
	return INFO, false
}

// ParseLevel is LookupLevel that falls back to INFO.
func ParseLevel(s string) Level {
	l, _ := LookupLevel(s)
	return l
}

// Format selects text or JSON output
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Fields are structured key-value pairs attached to a message
type Fields map[string]interface{}

// sink is the output shared by a logger and everything derived from it.
type sink struct {
	mu         sync.Mutex
	w          io.Writer
	level      Level
	format     Format
	colorize   bool
	caller     bool
	timeFormat string
}

// Logger writes levelled messages with a component prefix
type Logger struct {
	out    *sink
	prefix string
	fields Fields
}

// Entry is a message under construction with extra fields
type Entry struct {
	logger *Logger
	fields Fields
}

var colors = map[Level]string{
	DEBUG: "\x1b[36m",
	INFO:  "\x1b[32m",
	WARN:  "\x1b[33m",
	ERROR: "\x1b[31m",
}

const colorReset = "\x1b[0m"

// New creates a logger writing to stderr. Colour is on only when stderr is
// a terminal and NO_COLOR is unset.
func New(prefix string) *Logger {
	return &Logger{
		out: &sink{
			w:          os.Stderr,
			level:      INFO,
			colorize:   os.Getenv("NO_COLOR") == "" && isTerminal(os.Stderr.Fd()),
			timeFormat: "2006-01-02 15:04:05.000",
		},
		prefix: prefix,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.level = level
}

func (l *Logger) GetLevel() Level {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	return l.out.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.GetLevel()
}

// SetWriter replaces the output. Colour is left as configured.
func (l *Logger) SetWriter(w io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.w = w
}

func (l *Logger) SetTimeFormat(format string) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.timeFormat = format
}

func (l *Logger) SetColorize(enable bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.colorize = enable
}

func (l *Logger) SetFormat(format Format) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.format = format
}

// SetCaller adds file:line of the logging call to every message
func (l *Logger) SetCaller(enable bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.caller = enable
}

// Prefix returns the component prefix
func (l *Logger) Prefix() string {
	return l.prefix
}

// WithPrefix returns a logger for another component sharing l's output
// and persistent fields.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{out: l.out, prefix: prefix, fields: l.fields}
}

// With returns a logger that adds fields to every message.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{out: l.out, prefix: l.prefix, fields: merge(l.fields, fields)}
}

func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: merge(nil, fields)}
}

// WithError attaches err. Coded errors also contribute their code and
// field.
func (l *Logger) WithError(err error) *Entry {
	return (&Entry{logger: l}).WithError(err)
}

func merge(a, b Fields) Fields {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(Fields, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// callerSkip counts the frames from caller up to the code that logged:
// caller, write, then the public method.
const callerSkip = 3

func (l *Logger) write(level Level, msg string, fields Fields) {
	s := l.out
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level {
		return
	}

	where := ""
	if s.caller {
		where = caller(callerSkip)
	}
	all := merge(l.fields, fields)

	if s.format == FormatJSON {
		io.WriteString(s.w, l.formatJSON(level, msg, where, all))
		return
	}

	b := pool.GetTextBuffer()
	defer pool.PutTextBuffer(b)
	l.formatText(b, level, msg, where, all)
	s.w.Write(b.Bytes())
}

func (l *Logger) formatText(b *pool.TextBuffer, level Level, msg, where string, fields Fields) {
	s := l.out
	b.WriteString(time.Now().Format(s.timeFormat))
	fmt.Fprintf(b, " [%-5s] ", level)

	if l.prefix != "" {
		if s.colorize {
			b.WriteString(colors[level])
		}
		b.WriteString(l.prefix)
		if s.colorize {
			b.WriteString(colorReset)
		}
		b.WriteString(": ")
	}
	b.WriteString(msg)
	if where != "" {
		b.WriteString(" (" + where + ")")
	}

	if len(fields) > 0 {
		keys := pool.GetStringSlice()
		defer pool.PutStringSlice(keys)
		for k := range fields {
			*keys = append(*keys, k)
		}
		sort.Strings(*keys)

		b.WriteString(" {")
		for i, k := range *keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteByte('=')
			fmt.Fprintf(b, "%v", fields[k])
		}
		b.WriteByte('}')
	}
	b.WriteByte('\n')
}

// JSONLogEntry is one line of JSON output
type JSONLogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) formatJSON(level Level, msg, where string, fields Fields) string {
	data, err := json.Marshal(JSONLogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Logger:    l.prefix,
		Message:   msg,
		Caller:    where,
		Fields:    fields,
	})
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
	}
	return string(data) + "\n"
}

func sprintf(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.write(DEBUG, sprintf(msg, args), nil) }
func (l *Logger) Info(msg string, args ...interface{})  { l.write(INFO, sprintf(msg, args), nil) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.write(WARN, sprintf(msg, args), nil) }
func (l *Logger) Error(msg string, args ...interface{}) { l.write(ERROR, sprintf(msg, args), nil) }

func (e *Entry) WithField(key string, value interface{}) *Entry {
	return &Entry{logger: e.logger, fields: merge(e.fields, Fields{key: value})}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{logger: e.logger, fields: merge(e.fields, fields)}
}

// WithError attaches err. A nil error adds nothing.
func (e *Entry) WithError(err error) *Entry {
	if err == nil {
		return e
	}
	f := Fields{"error": err.Error()}
	var he *errors.HostError
	if stderrors.As(err, &he) {
		f["code"] = string(he.Code)
		if he.Field != "" {
			f["field"] = he.Field
		}
	}
	return e.WithFields(f)
}

func (e *Entry) Debug(msg string) { e.logger.write(DEBUG, msg, e.fields) }
func (e *Entry) Info(msg string)  { e.logger.write(INFO, msg, e.fields) }
func (e *Entry) Warn(msg string)  { e.logger.write(WARN, msg, e.fields) }
func (e *Entry) Error(msg string) { e.logger.write(ERROR, msg, e.fields) }

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.logger.write(DEBUG, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.logger.write(INFO, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.logger.write(WARN, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.logger.write(ERROR, fmt.Sprintf(format, args...), e.fields)
}

// Package-level logging through the default logger

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// SetDefault replaces the default logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the default logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// GetLogger returns a component logger on the default output
func GetLogger(prefix string) *Logger {
	return Default().WithPrefix(prefix)
}

func Debug(msg string, args ...interface{}) { Default().write(DEBUG, sprintf(msg, args), nil) }
func Info(msg string, args ...interface{})  { Default().write(INFO, sprintf(msg, args), nil) }
func Warn(msg string, args ...interface{})  { Default().write(WARN, sprintf(msg, args), nil) }
func Error(msg string, args ...interface{}) { Default().write(ERROR, sprintf(msg, args), nil) }

func init() {
	l := New("pwmcalc")
	ConfigureFromEnv(l)
	defaultLogger = l
}

// ConfigureFromEnv applies environment settings to l:
//
//	PWMCALC_LOG_LEVEL   DEBUG, INFO, WARN or ERROR
//	PWMCALC_LOG_FORMAT  text or json
//	PWMCALC_LOG_CALLER  any value enables caller info
//	NO_COLOR            any value disables colour
func ConfigureFromEnv(l *Logger) {
	if s := os.Getenv("PWMCALC_LOG_LEVEL"); s != "" {
		l.SetLevel(ParseLevel(s))
	}
	switch strings.ToLower(os.Getenv("PWMCALC_LOG_FORMAT")) {
	case "json":
		l.SetFormat(FormatJSON)
	case "text":
		l.SetFormat(FormatText)
	}
	if os.Getenv("PWMCALC_LOG_CALLER") != "" {
		l.SetCaller(true)
	}
	if os.Getenv("NO_COLOR") != "" {
		l.SetColorize(false)
	}
}
