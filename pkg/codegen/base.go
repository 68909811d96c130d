package codegen

import (
	"strconv"
	"strings"
)

// BaseFunctionNames returns the base names of the functions every component
// gets, in emission order. Init is emitted last, after any preset functions.
func BaseFunctionNames() []string {
	return []string{
		"PwmInit", "GetDutyCycle", "GetPulse", "GetMaxPulse", "GetFrequency",
		"SetDutyCycle", "SetPulse", "IsToggling", "SetFrequency", "SyncState",
	}
}

// constantLines are the component macros shared by both header forms. The
// source reads its initial state from these.
func constantLines(c *Context) []string {
	def := func(suffix, value string) string {
		name := c.Macro(suffix)
		pad := 28 - len(name)
		if pad < 1 {
			pad = 1
		}
		return "#define " + name + strings.Repeat(" ", pad) + value
	}
	return []string{
		def("TIMER", c.Timer.Name),
		def("CHANNEL", c.Timer.ChannelMacro()),
		def("DEFAULT_FREQ", cNumber(c.FrequencyHz)),
		def("DEFAULT_DUTY", cNumber(c.DutyPercent)),
		def("PRESCALER", strconv.Itoa(c.Register.Prescaler)),
		def("PERIOD", strconv.FormatInt(c.Register.Period, 10)),
		def("PULSE", strconv.FormatInt(c.Pulse, 10)),
		def("TIMER_CLOCK", cUnsigned(c.Clock.TimerClockHz())),
		def("MAX_PERIOD", cUnsigned(c.Clock.Width.MaxPeriod())),
	}
}

// stateLines define the private state, initialized from the macros.
func stateLines(c *Context) []string {
	return []string{
		"static uint32_t " + c.Var("pulse") + " = " + c.Macro("PULSE") + ";",
		"static uint32_t " + c.Var("period") + " = " + c.Macro("PERIOD") + ";",
		"static uint32_t " + c.Var("prescaler") + " = " + c.Macro("PRESCALER") + ";",
		"static uint8_t " + c.Var("is_logically_stopped") + " = 0;",
	}
}

func baseFunctions(c *Context) []Function {
	pulse := c.Var("pulse")
	period := c.Var("period")
	psc := c.Var("prescaler")
	stopped := c.Var("is_logically_stopped")
	hal := c.halArgs()

	return []Function{
		{
			Base:   "PwmInit",
			Return: "void",
			Params: "void",
			Brief:  "Initialize PWM with default settings",
			Tags:   []string{"@note Called automatically by " + c.Func("Init") + "()"},
			Body: []string{
				"// Timer configured by CubeMX: PSC=" + strconv.Itoa(c.Register.Prescaler) +
					", ARR=" + strconv.FormatInt(c.Register.Period, 10) +
					", " + cNumber(c.FrequencyHz) + " Hz",
				"__HAL_TIM_SET_COMPARE(" + hal + ", " + pulse + ");",
				stopped + " = 0;",
				"HAL_TIM_PWM_Start(" + hal + ");",
			},
		},
		{
			Base:   "GetDutyCycle",
			Return: "float",
			Params: "void",
			Brief:  "Get current duty cycle as percentage",
			Tags:   []string{"@return Duty cycle (0.0 - 100.0)"},
			Body: []string{
				"return ((float)" + pulse + " / (float)" + period + ") * 100.0f;",
			},
		},
		{
			Base:   "GetPulse",
			Return: "uint32_t",
			Params: "void",
			Brief:  "Get current pulse value (CCR register)",
			Tags:   []string{"@return Pulse value (0 to ARR)"},
			Body:   []string{"return " + pulse + ";"},
		},
		{
			Base:   "GetMaxPulse",
			Return: "uint32_t",
			Params: "void",
			Brief:  "Get maximum pulse value (ARR register)",
			Tags:   []string{"@return Maximum pulse value"},
			Body:   []string{"return " + period + ";"},
		},
		{
			Base:   "GetFrequency",
			Return: "float",
			Params: "void",
			Brief:  "Get current PWM frequency in Hz",
			Tags:   []string{"@return Frequency in Hz"},
			Body: []string{
				"return (float)" + c.Macro("TIMER_CLOCK") + " / ((float)(" + psc + " + 1U) * (float)(" + period + " + 1U));",
			},
		},
		{
			Base:   "SetDutyCycle",
			Return: "void",
			Params: "float duty_cycle",
			Brief:  "Set duty cycle as percentage",
			Tags:   []string{"@param duty_cycle Duty cycle (0.0 - 100.0)"},
			Body: []string{
				"if (duty_cycle < 0.0f) duty_cycle = 0.0f;",
				"if (duty_cycle > 100.0f) duty_cycle = 100.0f;",
				pulse + " = (uint32_t)((duty_cycle / 100.0f) * " + period + ");",
				"__HAL_TIM_SET_COMPARE(" + hal + ", " + pulse + ");",
			},
		},
		{
			Base:   "SetPulse",
			Return: "void",
			Params: "uint32_t pulse",
			Brief:  "Set pulse value directly",
			Tags:   []string{"@param pulse Pulse value (0 to ARR)"},
			Body: []string{
				"if (pulse > " + period + ") pulse = " + period + ";",
				pulse + " = pulse;",
				"__HAL_TIM_SET_COMPARE(" + hal + ", " + pulse + ");",
			},
		},
		{
			Base:   "IsToggling",
			Return: "uint8_t",
			Params: "void",
			Brief:  "Check if PWM output is enabled",
			Tags:   []string{"@return 1 unless stopped by request, 0 otherwise"},
			Body:   []string{"return !" + stopped + ";"},
		},
		{
			Base:   "SetFrequency",
			Return: "void",
			Params: "uint32_t frequency_hz",
			Brief:  "Change PWM frequency dynamically",
			Tags: []string{
				"@param frequency_hz Desired frequency in Hz",
				"@note This will reset duty cycle to 50%",
				"@note A frequency of 0 stops the output at hardware level",
			},
			Body: []string{
				"uint8_t was_running = " + c.Func("IsToggling") + "() && (" + c.Func("GetFrequency") + "() > 0.0f);",
				"HAL_TIM_PWM_Stop(" + hal + ");",
				"",
				"// Hardware level stop, not restarted",
				"if (frequency_hz == 0U) {",
				"    return;",
				"}",
				"",
				"uint32_t target_counts = " + c.Macro("TIMER_CLOCK") + " / frequency_hz;",
				"if (target_counts == 0U) {",
				"    return;",
				"}",
				psc + " = 0;",
				period + " = target_counts - 1U;",
				"while (" + period + " > " + c.Macro("MAX_PERIOD") + " && " + psc + " < 65535U) {",
				"    " + psc + "++;",
				"    " + period + " = (target_counts / (" + psc + " + 1U)) - 1U;",
				"}",
				"",
				"__HAL_TIM_SET_PRESCALER(" + c.HandleRef() + ", " + psc + ");",
				"__HAL_TIM_SET_AUTORELOAD(" + c.HandleRef() + ", " + period + ");",
				pulse + " = " + period + " / 2U;",
				"__HAL_TIM_SET_COMPARE(" + hal + ", " + pulse + ");",
				"",
				"if (was_running && !" + stopped + ") {",
				"    HAL_TIM_PWM_Start(" + hal + ");",
				"}",
			},
		},
		{
			Base:   "SyncState",
			Return: "void",
			Params: "void",
			Brief:  "Synchronize cached state with hardware",
			Tags:   []string{"@note Call if timer was modified externally"},
			Body: []string{
				pulse + " = __HAL_TIM_GET_COMPARE(" + hal + ");",
				period + " = __HAL_TIM_GET_AUTORELOAD(" + c.HandleRef() + ");",
				psc + " = " + c.Timer.Handle() + ".Instance->PSC;",
			},
		},
	}
}

// initFunction is the master init, chaining the base init and any preset
// init calls.
func initFunction(c *Context, initCalls []string) Function {
	body := []string{c.Func("PwmInit") + "();"}
	for _, call := range initCalls {
		body = append(body, call+"();")
	}
	return Function{
		Base:   "Init",
		Return: "void",
		Params: "void",
		Brief:  "Master initialization - calls all required init functions",
		Tags:   []string{"@note Call this once after MX_" + c.Timer.Name + "_Init() in main.c"},
		Body:   body,
	}
}
