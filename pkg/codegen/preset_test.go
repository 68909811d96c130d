package codegen

import (
	"strings"
	"testing"

	"pwmcalc/pkg/solver"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		in   string
		want PresetKind
		ok   bool
	}{
		{"", PresetNone, true},
		{"none", PresetNone, true},
		{"standard-servo", PresetStandardServo, true},
		{"led-dimming", PresetLedDimming, true},
		{"toggle-pin", PresetTogglePin, true},
		{"stepper", PresetKind("stepper"), false},
	}
	for _, tt := range tests {
		got, ok := ParsePreset(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePreset(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPresetCatalogue(t *testing.T) {
	ps := Presets()
	if len(ps) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(ps))
	}
	if ps[0].Key != PresetStandardServo || ps[0].Label != "Standard Servo" {
		t.Errorf("unexpected first preset %+v", ps[0])
	}
	ps[0].Label = "changed"
	if Presets()[0].Label != "Standard Servo" {
		t.Error("Presets must return a copy")
	}
}

func servoParams() Params {
	p := testParams()
	p.Naming = Naming{Component: "Servo", Convention: PascalCase}
	p.FrequencyHz = 50
	p.DutyPercent = 7.5
	p.Register = solver.Register{Prescaler: 71, Period: 19999}
	p.Preset = DefaultServo()
	return p
}

func TestServoDutyForAngle(t *testing.T) {
	s := DefaultServo()
	tests := []struct {
		angle float64
		want  float64
	}{
		{0, 5},
		{90, 7.5},
		{180, 10},
		{45, 6.25},
		{-20, 5},
		{200, 10},
	}
	for _, tt := range tests {
		if got := s.DutyForAngle(50, tt.angle); got != tt.want {
			t.Errorf("DutyForAngle(50, %g) = %g, want %g", tt.angle, got, tt.want)
		}
	}

	// Endpoints follow the pulse widths at other frequencies
	lo, hi := s.DutyRange(100)
	if lo != 10 || hi != 20 {
		t.Errorf("DutyRange(100) = %g, %g", lo, hi)
	}

	// A zero-width range must not divide by zero
	flat := Servo{MinAngle: 90, MaxAngle: 90}
	if got := flat.DutyForAngle(50, 90); got != 5 {
		t.Errorf("flat range duty = %g, want 5", got)
	}
}

func TestServoGenerate(t *testing.T) {
	out := Render(servoParams())

	mustContain(t, "header", out.Header,
		"#define SERVO_MIN_ANGLE    0.0f",
		"#define SERVO_MAX_ANGLE    180.0f",
		"#define SERVO_INITIAL_ANGLE 90.0f",
		"#define SERVO_MIN_PULSE_US 1000",
		"#define SERVO_MAX_PULSE_US 2000",
		"#define SERVO_MIN_DUTY     5.0f",
		"#define SERVO_MAX_DUTY     10.0f",
		"void ServoSetAngle(float angle_degrees);",
		"float ServoGetAngle(void);",
		" * @param angle_degrees Target angle (0 to 180 degrees)",
	)
	mustContain(t, "source", out.Source,
		"if (angle_degrees < SERVO_MIN_ANGLE) angle_degrees = SERVO_MIN_ANGLE;",
		"servo_4c142f9_pulse = (uint32_t)((duty_cycle / 100.0f) * servo_4c142f9_period);",
		"return SERVO_MAX_ANGLE;",
	)
	mustContain(t, "header-only", out.HeaderOnly,
		"static inline void ServoSetAngle(float angle_degrees);",
		"static inline void ServoSetAngle(float angle_degrees) {",
	)
	// Servo needs no extra init
	mustContain(t, "source", out.Source, "void ServoInit(void) {\n    ServoPwmInit();\n}")

	for what, text := range map[string]string{"header-only": out.HeaderOnly, "header": out.Header, "source": out.Source} {
		assertBalanced(t, what, text)
	}
}

func TestServoFractionalAngles(t *testing.T) {
	p := servoParams()
	p.Preset = Servo{MinAngle: -45.5, MaxAngle: 45.5}
	out := Render(p)
	mustContain(t, "header", out.Header,
		"#define SERVO_MIN_ANGLE    -45.5f",
		"#define SERVO_MAX_ANGLE    45.5f",
	)
}

func TestServoSnakeCase(t *testing.T) {
	p := servoParams()
	p.Naming.Convention = SnakeCase
	out := Render(p)
	mustContain(t, "header", out.Header,
		"void servo_set_angle(float angle_degrees);",
		"float servo_get_min_angle(void);",
	)
}

func TestLedGenerate(t *testing.T) {
	p := testParams()
	p.Naming = Naming{Component: "Led", Convention: CamelCase}
	p.Preset = Led{InitialBrightness: 50}
	out := Render(p)

	mustContain(t, "source", out.Source,
		"void ledSetBrightness(float brightness_percent) {\n    ledSetDutyCycle(brightness_percent);\n}",
		"float ledGetBrightness(void) {\n    return ledGetDutyCycle();\n}",
	)
	mustContain(t, "header", out.Header, "/* LED Dimming Functions")
	if p.Preset.Kind() != PresetLedDimming {
		t.Errorf("unexpected kind %q", p.Preset.Kind())
	}
}

func TestTogglePinGenerate(t *testing.T) {
	p := testParams()
	p.FrequencyHz = 1
	p.Register = solver.Register{Prescaler: 1098, Period: 65513}
	p.Preset = TogglePin{}
	out := Render(p)

	mustContain(t, "header", out.Header,
		"#define COMPONENT_24013CDD_FREQ_CACHE_SIZE    50",
		"#define COMPONENT_24013CDD_TICK_DEBOUNCE      1",
		"void ComponentSetToggleFrequency(uint32_t frequency_hz);",
		"void ComponentStopToggle(void);",
	)
	mustContain(t, "source", out.Source,
		"static const struct {",
		"} component_24013cdd_freq_cache[COMPONENT_24013CDD_FREQ_CACHE_SIZE] = {",
		"    {1U, 1098U, 65513U},",
		"    {1000U, 1U, 35999U},",
		"    {100000U, 0U, 719U},",
		"component_24013cdd_freq_cache_count = 46;",
		"#if COMPONENT_24013CDD_TICK_DEBOUNCE",
		"component_24013cdd_is_logically_stopped = 1;",
		"if (was_running && !component_24013cdd_is_logically_stopped) {",
		"htim1.Instance->CCR1 = component_24013cdd_pulse;",
	)

	// Init chains the cache setup in every form
	for what, text := range map[string]string{"header-only": out.HeaderOnly, "source": out.Source} {
		mustContain(t, what, text, "ComponentPwmInit();\n    ComponentInitFrequencyCache();\n}")
		assertBalanced(t, what, text)
	}
	assertBalanced(t, "header", out.Header)

	// Preprocessor lines stay at column 0 inside function bodies
	if !strings.Contains(out.Source, "\n#endif\n") {
		t.Error("#endif should not be indented")
	}
}

// The generated table matches the cache model the retune logic is tested
// against.
func TestTogglePinTableMatchesCache(t *testing.T) {
	p := testParams()
	p.Preset = TogglePin{}
	src := Render(p).Source

	cache := solver.BuildFrequencyCache(p.Clock)
	for _, e := range cache.Entries() {
		row := "    {" + cUnsigned(int64(e.Frequency)) + ", " + cUnsigned(int64(e.Prescaler)) + ", " + cUnsigned(int64(e.Period)) + "},"
		if !strings.Contains(src, row) {
			t.Errorf("missing table row %q", row)
		}
	}
}
