package codegen

import (
	"math"
	"strconv"

	"pwmcalc/pkg/mathx"
)

// Servo pulse widths at the angle bounds.
const (
	ServoMinPulseUs = 1000
	ServoMaxPulseUs = 2000
)

// MaxServoFrequencyHz is the fastest frequency whose period still fits the
// maximum servo pulse.
const MaxServoFrequencyHz = 10_000 * 100 / ServoMaxPulseUs

// Servo drives an RC servo over a configurable angle range.
type Servo struct {
	MinAngle     float64 `json:"min_angle"`
	MaxAngle     float64 `json:"max_angle"`
	InitialAngle float64 `json:"initial_angle"`
}

// DefaultServo is the 0-180 degree range centred at 90.
func DefaultServo() Servo {
	return Servo{MinAngle: 0, MaxAngle: 180, InitialAngle: 90}
}

func (s Servo) Kind() PresetKind { return PresetStandardServo }

// pulseDuty converts a pulse width to duty percent at freqHz.
func pulseDuty(us, freqHz float64) float64 {
	return us * freqHz / 10_000
}

// DutyRange returns the duty cycle at the minimum and maximum angle. At
// 50 Hz this is 5% to 10%.
func (s Servo) DutyRange(freqHz float64) (lo, hi float64) {
	return pulseDuty(ServoMinPulseUs, freqHz), pulseDuty(ServoMaxPulseUs, freqHz)
}

// DutyForAngle maps an angle to a duty cycle, rounded to two decimals. The
// angle is clamped to the configured range.
func (s Servo) DutyForAngle(freqHz, angle float64) float64 {
	lo, hi := s.DutyRange(freqHz)
	span := math.Max(s.MaxAngle-s.MinAngle, 1)
	angle = mathx.Clamp(angle, s.MinAngle, s.MaxAngle)
	return mathx.RoundTo(mathx.Lerp(lo, hi, (angle-s.MinAngle)/span), 2)
}

func (s Servo) Generate(c *Context, inline bool) Fragment {
	lo, hi := s.DutyRange(c.FrequencyHz)
	minA, maxA := c.Macro("MIN_ANGLE"), c.Macro("MAX_ANGLE")
	minD, maxD := c.Macro("MIN_DUTY"), c.Macro("MAX_DUTY")
	pulse, period := c.Var("pulse"), c.Var("period")

	return presetParts{
		constantsTitle: "Servo Control Constants",
		constants: []string{
			"#define " + minA + "    " + cFloat(s.MinAngle),
			"#define " + maxA + "    " + cFloat(s.MaxAngle),
			"#define " + c.Macro("INITIAL_ANGLE") + " " + cFloat(s.InitialAngle),
			"#define " + c.Macro("MIN_PULSE_US") + " " + strconv.Itoa(ServoMinPulseUs),
			"#define " + c.Macro("MAX_PULSE_US") + " " + strconv.Itoa(ServoMaxPulseUs),
			"#define " + minD + "     " + cFloat(lo),
			"#define " + maxD + "     " + cFloat(hi),
		},
		functionsTitle: "Servo Control Functions",
		functions: []Function{
			{
				Base:   "SetAngle",
				Return: "void",
				Params: "float angle_degrees",
				Brief:  "Set angle",
				Tags:   []string{"@param angle_degrees Target angle (" + cNumber(s.MinAngle) + " to " + cNumber(s.MaxAngle) + " degrees)"},
				Body: []string{
					"if (angle_degrees < " + minA + ") angle_degrees = " + minA + ";",
					"if (angle_degrees > " + maxA + ") angle_degrees = " + maxA + ";",
					"",
					"// " + strconv.Itoa(ServoMinPulseUs) + "us at the minimum angle, " + strconv.Itoa(ServoMaxPulseUs) + "us at the maximum",
					"float angle_range = " + maxA + " - " + minA + ";",
					"float angle_normalized = (angle_range > 0.0f) ? (angle_degrees - " + minA + ") / angle_range : 0.0f;",
					"float duty_cycle = " + minD + " + angle_normalized * (" + maxD + " - " + minD + ");",
					"",
					pulse + " = (uint32_t)((duty_cycle / 100.0f) * " + period + ");",
					"__HAL_TIM_SET_COMPARE(" + c.halArgs() + ", " + pulse + ");",
				},
			},
			{
				Base:   "GetAngle",
				Return: "float",
				Params: "void",
				Brief:  "Get current angle",
				Tags:   []string{"@return Current angle in degrees"},
				Body: []string{
					"float duty_cycle = ((float)" + pulse + " / (float)" + period + ") * 100.0f;",
					"float angle_normalized = (duty_cycle - " + minD + ") / (" + maxD + " - " + minD + ");",
					"return " + minA + " + angle_normalized * (" + maxA + " - " + minA + ");",
				},
			},
			{
				Base:   "GetMinAngle",
				Return: "float",
				Params: "void",
				Brief:  "Get minimum angle setting",
				Tags:   []string{"@return Minimum angle in degrees"},
				Body:   []string{"return " + minA + ";"},
			},
			{
				Base:   "GetMaxAngle",
				Return: "float",
				Params: "void",
				Brief:  "Get maximum angle setting",
				Tags:   []string{"@return Maximum angle in degrees"},
				Body:   []string{"return " + maxA + ";"},
			},
		},
	}.fragment(c, inline)
}
