package codegen

import (
	"strings"
	"testing"

	"pwmcalc/pkg/solver"
)

func testParams() Params {
	return Params{
		Naming:      Naming{Component: "Component", Convention: PascalCase},
		Timer:       TimerSelection{Name: "TIM1", Channel: 1},
		Clock:       solver.Clock{SystemClockMHz: 72, Width: solver.Width16},
		Register:    solver.Register{Prescaler: 1, Period: 35999},
		FrequencyHz: 1000,
		DutyPercent: 50,
	}
}

func mustContain(t *testing.T, what, text string, subs ...string) {
	t.Helper()
	for _, s := range subs {
		if !strings.Contains(text, s) {
			t.Errorf("%s: missing %q", what, s)
		}
	}
}

func assertBalanced(t *testing.T, what, text string) {
	t.Helper()
	if o, c := strings.Count(text, "{"), strings.Count(text, "}"); o != c {
		t.Errorf("%s: %d '{' vs %d '}'", what, o, c)
	}
	if o, c := strings.Count(text, "("), strings.Count(text, ")"); o != c {
		t.Errorf("%s: %d '(' vs %d ')'", what, o, c)
	}
	if o, c := strings.Count(text, "#if"), strings.Count(text, "#endif"); o != c {
		t.Errorf("%s: %d #if vs %d #endif", what, o, c)
	}
}

func TestRenderHeaderOnly(t *testing.T) {
	out := Render(testParams()).HeaderOnly

	mustContain(t, "header-only", out,
		"#ifndef COMPONENT_H\n#define COMPONENT_H\n",
		"#define COMPONENT_TIMER",
		"#define COMPONENT_PRESCALER         1\n",
		"#define COMPONENT_PERIOD            35999\n",
		"#define COMPONENT_PULSE             18000\n",
		"#define COMPONENT_TIMER_CLOCK       72000000U\n",
		"#define COMPONENT_MAX_PERIOD        65535U\n",
		"extern TIM_HandleTypeDef htim1;",
		"// Static variables with hash to prevent conflicts: 24013cdd",
		"static uint32_t component_24013cdd_pulse = COMPONENT_PULSE;",
		"static uint8_t component_24013cdd_is_logically_stopped = 0;",
		"static inline void ComponentPwmInit(void) {",
		"static inline uint8_t ComponentIsToggling(void) {",
		"__HAL_TIM_SET_COMPARE(&htim1, TIM_CHANNEL_1, component_24013cdd_pulse);",
		"static inline void ComponentInit(void) {\n    ComponentPwmInit();\n}",
		"#endif /* COMPONENT_H */",
	)
	assertBalanced(t, "header-only", out)
}

func TestRenderHeader(t *testing.T) {
	out := Render(testParams()).Header

	mustContain(t, "header", out,
		"extern TIM_HandleTypeDef htim1;",
		"void ComponentPwmInit(void);",
		"float ComponentGetDutyCycle(void);",
		"void ComponentSetFrequency(uint32_t frequency_hz);",
		"void ComponentInit(void);",
		"#define COMPONENT_PULSE             18000\n",
	)
	if strings.Contains(out, "static") {
		t.Error("header must only declare")
	}
	assertBalanced(t, "header", out)
}

func TestRenderSource(t *testing.T) {
	out := Render(testParams()).Source

	firstInclude := ""
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "#include") {
			firstInclude = l
			break
		}
	}
	if firstInclude != `#include "component.h"` {
		t.Errorf("source must include its header first, got %q", firstInclude)
	}

	mustContain(t, "source", out,
		"static uint32_t component_24013cdd_period = COMPONENT_PERIOD;",
		"static uint32_t component_24013cdd_prescaler = COMPONENT_PRESCALER;",
		"void ComponentPwmInit(void) {",
		"void ComponentInit(void) {\n    ComponentPwmInit();\n}",
	)
	if strings.Contains(out, "static inline") {
		t.Error("source must not use inline linkage")
	}
	// State comes from the header macros, never from repeated literals.
	if strings.Contains(out, "= 35999;") || strings.Contains(out, "= 18000;") {
		t.Error("source should initialize state from macros")
	}
	assertBalanced(t, "source", out)
}

// Every exported function must have the same name in all three artifacts.
func TestRenderNamesAgree(t *testing.T) {
	presets := []PresetGenerator{nil, DefaultServo(), Led{InitialBrightness: 50}, TogglePin{}}
	extra := map[PresetKind][]string{
		PresetStandardServo: {"SetAngle", "GetAngle", "GetMinAngle", "GetMaxAngle"},
		PresetLedDimming:    {"SetBrightness", "GetBrightness"},
		PresetTogglePin:     {"InitFrequencyCache", "SetToggleFrequency", "GetToggleFrequency", "StartToggle", "StopToggle"},
	}

	for _, conv := range Conventions() {
		for _, preset := range presets {
			p := testParams()
			p.Naming.Convention = conv
			p.Preset = preset
			out := Render(p)

			bases := append(BaseFunctionNames(), "Init")
			if preset != nil {
				bases = append(bases, extra[preset.Kind()]...)
			}
			for _, base := range bases {
				name := p.Naming.Func(base) + "("
				for what, text := range map[string]string{
					"header-only": out.HeaderOnly,
					"header":      out.Header,
					"source":      out.Source,
				} {
					if !strings.Contains(text, name) {
						t.Errorf("%s/%v: %s missing %s", conv, preset, what, name)
					}
				}
			}
		}
	}
}

func TestRenderIdempotent(t *testing.T) {
	for _, preset := range []PresetGenerator{nil, DefaultServo(), Led{}, TogglePin{}} {
		p := testParams()
		p.Preset = preset
		if Render(p) != Render(p) {
			t.Errorf("render with preset %v is not deterministic", preset)
		}
	}
}

func TestRenderUppercase(t *testing.T) {
	p := testParams()
	p.Naming = Naming{Component: "PWM", Convention: Uppercase}
	out := Render(p)

	mustContain(t, "header", out.Header,
		"void PWM_SET_FREQUENCY(uint32_t frequency_hz);",
		"void PWM_PWM_INIT(void);",
		"#ifndef PWM_H",
	)
	mustContain(t, "source", out.Source, `#include "pwm.h"`)
}

func TestRender32BitTimer(t *testing.T) {
	p := testParams()
	p.Clock.Width = solver.Width32
	p.Timer = TimerSelection{Name: "TIM2", Channel: 4}
	p.Register = solver.Register{Prescaler: 0, Period: 71999}
	out := Render(p)

	mustContain(t, "header-only", out.HeaderOnly,
		"#define COMPONENT_MAX_PERIOD        4294967295U\n",
		"#define COMPONENT_CHANNEL           TIM_CHANNEL_4\n",
		"extern TIM_HandleTypeDef htim2;",
		"#define COMPONENT_PULSE             36000\n",
	)
}

func TestRenderFractionalDuty(t *testing.T) {
	p := testParams()
	p.DutyPercent = 7.5
	p.FrequencyHz = 50
	p.Register = solver.Register{Prescaler: 71, Period: 19999}
	out := Render(p)

	mustContain(t, "header", out.Header,
		"#define COMPONENT_DEFAULT_DUTY      7.5\n",
		"#define COMPONENT_DEFAULT_FREQ      50\n",
		"#define COMPONENT_PULSE             1500\n",
	)
}

func TestTemplatesFiles(t *testing.T) {
	p := testParams()
	p.Naming.Component = "LedStrip"
	out := Render(p)

	tests := []struct {
		layout Layout
		names  []string
	}{
		{LayoutInline, []string{"ledstrip.h"}},
		{LayoutPair, []string{"ledstrip.h", "ledstrip.c"}},
		{LayoutAll, []string{"ledstrip.h", "ledstrip.c", "ledstrip_inline.h"}},
		{Layout("zip"), nil},
	}
	for _, tt := range tests {
		files := out.Files(p.Naming, tt.layout)
		if len(files) != len(tt.names) {
			t.Errorf("%s: expected %d files, got %d", tt.layout, len(tt.names), len(files))
			continue
		}
		for i, f := range files {
			if f.Name != tt.names[i] {
				t.Errorf("%s: file %d named %q, want %q", tt.layout, i, f.Name, tt.names[i])
			}
		}
	}

	if files := out.Files(p.Naming, LayoutInline); files[0].Content != out.HeaderOnly {
		t.Error("inline layout should hold the header-only form")
	}
	if l, ok := ParseLayout(""); !ok || l != LayoutAll {
		t.Errorf("ParseLayout(\"\") = %q, %v", l, ok)
	}
	if _, ok := ParseLayout("zip"); ok {
		t.Error("unknown layout accepted")
	}
}
