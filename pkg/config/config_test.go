package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pwmcalc/pkg/errors"
)

func TestLoadString(t *testing.T) {
	data := `
# project defaults
[calculator]
system_clock_mhz: 72
register_width = 16   ; trailing comment

[pwm Servo]
timer: TIM2
frequency: 50.5
`

	cfg, err := LoadString(data)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}

	if !cfg.HasSection("calculator") || !cfg.HasSection("pwm Servo") {
		t.Errorf("unexpected sections %v", cfg.GetSectionNames())
	}
	if cfg.HasSection("nonexistent") {
		t.Error("expected [nonexistent] section to not exist")
	}

	calc, err := cfg.GetSection("calculator")
	if err != nil {
		t.Fatalf("GetSection(calculator) failed: %v", err)
	}
	clock, err := calc.GetInt("system_clock_mhz")
	if err != nil || clock != 72 {
		t.Errorf("GetInt(system_clock_mhz) = %d, %v", clock, err)
	}
	width, err := calc.GetInt("register_width")
	if err != nil || width != 16 {
		t.Errorf("GetInt(register_width) = %d, %v", width, err)
	}

	servo, _ := cfg.GetSection("pwm Servo")
	if servo.Suffix() != "Servo" {
		t.Errorf("Suffix = %q", servo.Suffix())
	}
	f, err := servo.GetFloat("frequency")
	if err != nil || f != 50.5 {
		t.Errorf("GetFloat(frequency) = %g, %v", f, err)
	}
}

func TestSectionHeaderWhitespace(t *testing.T) {
	cfg, err := LoadString("[  pwm   Led  ]\ntimer: TIM3\n")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.HasSection("pwm Led") {
		t.Errorf("header should be normalized, got %v", cfg.GetSectionNames())
	}
}

func TestSectionGet(t *testing.T) {
	data := `
[test]
string_val: hello
Int_Val: 42
float_val: 3.14
bool_true: true
bool_false: no
bool_one: 1
bool_bad: maybe
int_bad: 4.5
`

	cfg, err := LoadString(data)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	sec, _ := cfg.GetSection("test")

	if val, _ := sec.Get("missing", "default"); val != "default" {
		t.Errorf("expected 'default', got '%s'", val)
	}
	if i, _ := sec.GetInt("int_val"); i != 42 {
		t.Errorf("option names are case-insensitive, got %d", i)
	}
	if i, _ := sec.GetInt("missing", 99); i != 99 {
		t.Errorf("expected 99, got %d", i)
	}
	if f, _ := sec.GetFloat("float_val"); f != 3.14 {
		t.Errorf("expected 3.14, got %f", f)
	}
	if b, _ := sec.GetBool("bool_true"); !b {
		t.Error("expected true")
	}
	if b, _ := sec.GetBool("bool_false"); b {
		t.Error("expected false")
	}
	if b, _ := sec.GetBool("bool_one"); !b {
		t.Error("expected true for '1'")
	}

	_, err = sec.GetBool("bool_bad")
	if !errors.Is(err, errors.ErrConfigType) {
		t.Errorf("expected a type error, got %v", err)
	}
	_, err = sec.GetInt("int_bad")
	all := errors.All(err)
	if len(all) != 1 || all[0].Line != 10 || all[0].Option != "int_bad" {
		t.Errorf("type error should carry the option and line, got %+v", all)
	}
}

func TestMalformedLine(t *testing.T) {
	_, err := LoadString("[pwm A]\ntimer TIM1\n")
	all := errors.All(err)
	if len(all) != 1 || all[0].Code != errors.ErrConfigOption || all[0].Line != 2 {
		t.Errorf("expected an option error on line 2, got %v", err)
	}

	_, err = LoadString("[ ]\n")
	if !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("expected a section error for an empty header, got %v", err)
	}

	_, err = LoadString("[include other.cfg]\n")
	if !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("includes need a file, got %v", err)
	}
}

func TestAccessTracking(t *testing.T) {
	data := `
[test]
used1: value1
used2: value2
unused1: value3
unused2: value4
`

	cfg, _ := LoadString(data)
	sec, _ := cfg.GetSection("test")

	sec.Get("used1")
	sec.Get("USED2")
	sec.Get("absent", "fallback")

	if accessed := sec.GetAccessedOptions(); len(accessed) != 2 {
		t.Errorf("expected 2 accessed options, got %v", accessed)
	}
	unused := sec.GetUnusedOptions()
	if len(unused) != 2 || unused[0] != "unused1" || unused[1] != "unused2" {
		t.Errorf("expected unused options in file order, got %v", unused)
	}
	if !sec.HasOption("unused1") || len(sec.GetUnusedOptions()) != 2 {
		t.Error("HasOption must not count as a use")
	}
}

func TestWarnings(t *testing.T) {
	data := `
[calculator]
naming: PascalCase
colour: blue

[pwm A]
timer: TIM1

[notes]
text: hello
`

	cfg, _ := LoadString(data)
	sec, _ := cfg.GetSection("calculator")
	sec.Get("naming")
	cfg.GetPrefixSections("pwm ")[0].Get("timer")

	want := []string{
		"unused option 'colour' in section [calculator]",
		"unused section [notes]",
	}
	got := cfg.Warnings()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Warnings = %q, want %q", got, want)
	}
	if unused := cfg.GetUnusedSections(); len(unused) != 1 || unused[0] != "notes" {
		t.Errorf("GetUnusedSections = %v", unused)
	}
}

func TestGetPrefixSections(t *testing.T) {
	data := `
[pwm Servo]
[pwm Led]
[calculator]
[pwm Blink]
`

	cfg, _ := LoadString(data)
	secs := cfg.GetPrefixSections("pwm ")
	if len(secs) != 3 {
		t.Fatalf("expected 3 pwm sections, got %d", len(secs))
	}
	if secs[0].Suffix() != "Servo" || secs[2].Suffix() != "Blink" {
		t.Error("sections should come back in file order")
	}
}

func TestGetChoice(t *testing.T) {
	cfg, _ := LoadString("[test]\nmode: fast\n")
	sec, _ := cfg.GetSection("test")

	mode, err := sec.GetChoice("mode", []string{"slow", "fast", "turbo"})
	if err != nil || mode != "fast" {
		t.Fatalf("GetChoice = %q, %v", mode, err)
	}

	_, err = sec.GetChoice("mode", []string{"slow", "turbo"})
	if !errors.Is(err, errors.ErrConfigValidation) {
		t.Errorf("expected a validation error, got %v", err)
	}
	if _, err := sec.GetChoice("mode", []string{"FAST"}); err == nil {
		t.Error("choices match exactly")
	}
}

func TestBoundsChecking(t *testing.T) {
	cfg, _ := LoadString("[test]\nvalue: 50\n")
	sec, _ := cfg.GetSection("test")

	lo, hi := 0.0, 100.0
	v, err := sec.GetFloatWithBounds("value", FloatBounds{MinVal: &lo, MaxVal: &hi})
	if err != nil || v != 50 {
		t.Fatalf("GetFloatWithBounds = %g, %v", v, err)
	}

	lo = 60
	if _, err := sec.GetFloatWithBounds("value", FloatBounds{MinVal: &lo}); err == nil {
		t.Error("expected error for value below minimum")
	}
	hi = 40
	if _, err := sec.GetFloatWithBounds("value", FloatBounds{MaxVal: &hi}); err == nil {
		t.Error("expected error for value above maximum")
	}
	above := 50.0
	if _, err := sec.GetFloatWithBounds("value", FloatBounds{Above: &above}); err == nil {
		t.Error("expected error for value not above threshold")
	}

	if _, err := sec.GetIntWithBounds("value", 1, 49); !errors.Is(err, errors.ErrConfigValidation) {
		t.Errorf("expected int bounds error, got %v", err)
	}
	if i, err := sec.GetIntWithBounds("value", 1, 50); err != nil || i != 50 {
		t.Errorf("GetIntWithBounds = %d, %v", i, err)
	}
}

func TestMissingOptionError(t *testing.T) {
	cfg, _ := LoadString("[test]\nexists: value\n")
	sec, _ := cfg.GetSection("test")

	_, err := sec.Get("missing")
	all := errors.All(err)
	if len(all) != 1 {
		t.Fatalf("expected a HostError, got %v", err)
	}
	if all[0].Code != errors.ErrConfigOption || all[0].Section != "test" || all[0].Option != "missing" {
		t.Errorf("unexpected error %+v", all[0])
	}

	if _, err := cfg.GetSection("absent"); !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("expected a section error, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadInclude(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "project.cfg", "[calculator]\nnaming: snake_case\n[include parts/*.cfg]\n")
	writeFile(t, dir, "parts/b.cfg", "[pwm B]\ntimer: TIM2\n")
	writeFile(t, dir, "parts/a.cfg", "[pwm A]\ntimer: TIM1\n")

	cfg, err := Load(main)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	names := cfg.GetSectionNames()
	if strings.Join(names, ",") != "calculator,pwm A,pwm B" {
		t.Errorf("includes should load in sorted order, got %v", names)
	}
}

func TestLoadIncludeErrors(t *testing.T) {
	dir := t.TempDir()
	missing := writeFile(t, dir, "missing.cfg", "[include nothere.cfg]\n")
	if _, err := Load(missing); !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("expected missing include error, got %v", err)
	}

	// A glob with no matches is fine
	empty := writeFile(t, dir, "empty.cfg", "[include none/*.cfg]\n[pwm A]\n")
	if _, err := Load(empty); err != nil {
		t.Errorf("unexpected error %v", err)
	}

	loop := writeFile(t, dir, "loop.cfg", "[include loop.cfg]\n")
	if _, err := Load(loop); !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("expected recursive include error, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "absent.cfg")); err == nil || !os.IsNotExist(errorsCause(err)) {
		t.Errorf("expected a wrapped not-exist error, got %v", err)
	}
}

// errorsCause unwraps a github.com/pkg/errors chain.
func errorsCause(err error) error {
	type causer interface{ Cause() error }
	for {
		c, ok := err.(causer)
		if !ok {
			return err
		}
		err = c.Cause()
	}
}
