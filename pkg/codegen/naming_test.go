package codegen

import "testing"

func TestFormatFunctionName(t *testing.T) {
	tests := []struct {
		component string
		conv      Convention
		base      string
		want      string
	}{
		{"Servo", PascalCase, "GetDutyCycle", "ServoGetDutyCycle"},
		{"Servo", SnakeCase, "GetDutyCycle", "servo_get_duty_cycle"},
		{"Servo", Uppercase, "GetDutyCycle", "SERVO_GET_DUTY_CYCLE"},
		{"Servo", CamelCase, "GetDutyCycle", "servoGetDutyCycle"},
		{"PWM", Uppercase, "SetFrequency", "PWM_SET_FREQUENCY"},
		{"Motor", SnakeCase, "PwmInit", "motor_pwm_init"},
		{"Led", Uppercase, "Init", "LED_INIT"},
		{"MyLed", CamelCase, "SetBrightness", "myledSetBrightness"},
		{"Servo", Convention("kebab-case"), "Init", "Servo_Init"},
		{"Servo", Convention(""), "SetAngle", "Servo_SetAngle"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatFunctionName(tt.component, tt.conv, tt.base); got != tt.want {
				t.Errorf("FormatFunctionName(%q, %q, %q) = %q, want %q", tt.component, tt.conv, tt.base, got, tt.want)
			}
		})
	}
}

func TestParseConvention(t *testing.T) {
	for _, c := range Conventions() {
		got, ok := ParseConvention(string(c))
		if !ok || got != c {
			t.Errorf("ParseConvention(%q) = %q, %v", c, got, ok)
		}
	}
	if _, ok := ParseConvention("uppercase"); ok {
		t.Error("matching must be exact")
	}
	if _, ok := ParseConvention("kebab-case"); ok {
		t.Error("kebab-case is not supported")
	}
}

func TestHash8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Component", "24013cdd"},
		{"Servo", "4c142f9"},
		{"PWM", "13726"},
		{"Motor1", "76483d84"},
		{"a", "61"},
		{"", "0"},
		{"é", "e9"},
		// surrogate pair, hashed as two UTF-16 units
		{"\U0001F600", "1b0d63"},
	}
	for _, tt := range tests {
		if got := Hash8(tt.in); got != tt.want {
			t.Errorf("Hash8(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHash8Deterministic(t *testing.T) {
	for _, name := range []string{"Component", "Servo", "LedStrip", "x"} {
		first := Hash8(name)
		for i := 0; i < 10; i++ {
			if got := Hash8(name); got != first {
				t.Fatalf("Hash8(%q) changed: %q then %q", name, first, got)
			}
		}
		if len(first) > 8 {
			t.Errorf("Hash8(%q) = %q longer than 8 digits", name, first)
		}
	}
}

func TestNaming(t *testing.T) {
	n := Naming{Component: "Component", Convention: PascalCase}

	if got := n.VarPrefix(); got != "component_24013cdd" {
		t.Errorf("VarPrefix = %q", got)
	}
	if got := n.Var("pulse"); got != "component_24013cdd_pulse" {
		t.Errorf("Var = %q", got)
	}
	if got := n.Macro("PERIOD"); got != "COMPONENT_PERIOD" {
		t.Errorf("Macro = %q", got)
	}
	if got := n.HeaderGuard(); got != "COMPONENT_H" {
		t.Errorf("HeaderGuard = %q", got)
	}
	if n.HeaderFile() != "component.h" || n.SourceFile() != "component.c" {
		t.Errorf("filenames = %q, %q", n.HeaderFile(), n.SourceFile())
	}
	if got := n.Func("SetDutyCycle"); got != "ComponentSetDutyCycle" {
		t.Errorf("Func = %q", got)
	}
}

func TestPreview(t *testing.T) {
	want := map[Convention]string{
		Uppercase:  "COMPONENT_INIT",
		PascalCase: "ComponentInit",
		CamelCase:  "componentInit",
		SnakeCase:  "component_init",
	}
	entries := Preview("Component")
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for _, e := range entries {
		if want[e.Convention] != e.Example {
			t.Errorf("%s: expected %q, got %q", e.Convention, want[e.Convention], e.Example)
		}
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"Component", "_x", "Motor2", "led_strip"}
	invalid := []string{"", "2Motor", "my-led", "a b", "servo.c", "é"}
	for _, s := range valid {
		if !IsIdentifier(s) {
			t.Errorf("%q should be a valid identifier", s)
		}
	}
	for _, s := range invalid {
		if IsIdentifier(s) {
			t.Errorf("%q should not be a valid identifier", s)
		}
	}
}

func TestTimers(t *testing.T) {
	names := TimerNames()
	if len(names) != 24 || names[0] != "TIM1" || names[23] != "TIM24" {
		t.Fatalf("unexpected timer list %v", names)
	}
	for _, n := range names {
		if !IsKnownTimer(n) {
			t.Errorf("%s should be known", n)
		}
	}
	for _, n := range []string{"TIM0", "TIM25", "TIM01", "tim1", "TIM", "LPTIM1"} {
		if IsKnownTimer(n) {
			t.Errorf("%s should not be known", n)
		}
	}

	sel := TimerSelection{Name: "TIM3", Channel: 2}
	if sel.Handle() != "htim3" || sel.ChannelMacro() != "TIM_CHANNEL_2" || sel.CompareRegister() != "CCR2" {
		t.Errorf("unexpected selection names %q %q %q", sel.Handle(), sel.ChannelMacro(), sel.CompareRegister())
	}
}

func TestCLiterals(t *testing.T) {
	floats := map[float64]string{5: "5.0f", 7.5: "7.5f", -10: "-10.0f", 0: "0.0f", 0.25: "0.25f"}
	for v, want := range floats {
		if got := cFloat(v); got != want {
			t.Errorf("cFloat(%g) = %q, want %q", v, got, want)
		}
	}
	if got := cNumber(1000); got != "1000" {
		t.Errorf("cNumber(1000) = %q", got)
	}
	if got := cUnsigned(72000000); got != "72000000U" {
		t.Errorf("cUnsigned = %q", got)
	}
}

func TestBanner(t *testing.T) {
	b := banner("Includes")
	if len(b) != 80 {
		t.Errorf("banner length %d, want 80", len(b))
	}
	if b[:12] != "/* Includes " || b[len(b)-2:] != "*/" {
		t.Errorf("unexpected banner %q", b)
	}
}
