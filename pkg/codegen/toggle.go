package codegen

import (
	"strconv"
	"strings"

	"pwmcalc/pkg/solver"
)

// TogglePin retunes a 50% square wave at runtime from a precomputed
// checkpoint table.
type TogglePin struct{}

func (TogglePin) Kind() PresetKind { return PresetTogglePin }

func (TogglePin) Generate(c *Context, inline bool) Fragment {
	cache := solver.BuildFrequencyCache(c.Clock)
	upper := strings.ToUpper(c.Naming.VarPrefix())
	cacheSize := upper + "_FREQ_CACHE_SIZE"
	debounce := upper + "_TICK_DEBOUNCE"

	table := c.Var("freq_cache")
	count := c.Var("freq_cache_count")
	lastTick := c.Var("last_tick")
	pulse, period, psc := c.Var("pulse"), c.Var("period"), c.Var("prescaler")
	stopped := c.Var("is_logically_stopped")
	maxPeriod := c.Macro("MAX_PERIOD")
	hal := c.halArgs()
	handle := c.Timer.Handle()
	ccr := c.Timer.CompareRegister()

	state := []string{
		"/* Frequency checkpoints for " + strconv.Itoa(c.Clock.SystemClockMHz) + " MHz, " +
			strconv.Itoa(int(c.Clock.Width)) + "-bit period */",
		"static const struct {",
		"    uint32_t freq;",
		"    uint32_t psc;",
		"    uint32_t arr;",
		"} " + table + "[" + cacheSize + "] = {",
	}
	for _, e := range cache.Entries() {
		state = append(state, "    {"+cUnsigned(int64(e.Frequency))+", "+cUnsigned(int64(e.Prescaler))+", "+cUnsigned(int64(e.Period))+"},")
	}
	state = append(state,
		"};",
		"static uint8_t "+count+" = 0;",
		"static uint32_t "+lastTick+" = 0;",
	)

	apply := []string{
		pulse + " = " + period + " / 2U;",
		handle + ".Instance->PSC = " + psc + ";",
		handle + ".Instance->ARR = " + period + ";",
		handle + ".Instance->" + ccr + " = " + pulse + ";",
		"if (was_running && !" + stopped + ") {",
		"    HAL_TIM_PWM_Start(" + hal + ");",
		"}",
	}

	setBody := []string{
		"#if " + debounce,
		"uint32_t current_tick = HAL_GetTick();",
		"if (current_tick == " + lastTick + ") {",
		"    return;",
		"}",
		lastTick + " = current_tick;",
		"#endif",
		"",
		"uint8_t was_running = " + c.Func("IsToggling") + "() && (" + c.Func("GetFrequency") + "() > 0.0f);",
		"if (was_running) {",
		"    HAL_TIM_PWM_Stop(" + hal + ");",
		"}",
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
		"",
		"uint32_t nearest_psc = 0;",
		"uint32_t min_diff = 0xFFFFFFFFU;",
		"for (uint8_t i = 0; i < " + count + "; i++) {",
		"    uint32_t diff = (" + table + "[i].freq > frequency_hz)",
		"        ? (" + table + "[i].freq - frequency_hz)",
		"        : (frequency_hz - " + table + "[i].freq);",
		"    if (diff < min_diff) {",
		"        min_diff = diff;",
		"        nearest_psc = " + table + "[i].psc;",
		"        if (diff == 0U) {",
		"            " + psc + " = " + table + "[i].psc;",
		"            " + period + " = " + table + "[i].arr;",
		"            break;",
		"        }",
		"    }",
		"}",
		"",
		"if (min_diff != 0U) {",
		"    " + psc + " = nearest_psc;",
		"    " + period + " = (target_counts / (" + psc + " + 1U)) - 1U;",
		"    while (" + period + " > " + maxPeriod + " && " + psc + " < 65535U) {",
		"        " + psc + "++;",
		"        " + period + " = (target_counts / (" + psc + " + 1U)) - 1U;",
		"    }",
		"    while (" + period + " < (" + maxPeriod + " / 2U) && " + psc + " > 0U) {",
		"        " + psc + "--;",
		"        " + period + " = (target_counts / (" + psc + " + 1U)) - 1U;",
		"        if (" + period + " > " + maxPeriod + ") {",
		"            " + psc + "++;",
		"            " + period + " = (target_counts / (" + psc + " + 1U)) - 1U;",
		"            break;",
		"        }",
		"    }",
		"}",
		"",
	}
	setBody = append(setBody, apply...)

	return presetParts{
		constantsTitle: "Toggle Pin Configuration",
		constants: []string{
			"#define " + cacheSize + "    " + strconv.Itoa(solver.CacheCapacity),
			"#define " + debounce + "      1   // Set to 0 to disable tick debouncing",
		},
		functionsTitle: "Toggle Pin Functions",
		state:          state,
		functions: []Function{
			{
				Base:   "InitFrequencyCache",
				Return: "void",
				Params: "void",
				Brief:  "Enable the precomputed frequency checkpoints",
				Tags:   []string{"@note Called automatically by " + c.Func("Init") + "()"},
				Body:   []string{count + " = " + strconv.Itoa(cache.Len()) + ";"},
			},
			{
				Base:   "SetToggleFrequency",
				Return: "void",
				Params: "uint32_t frequency_hz",
				Brief:  "Set toggle frequency from the nearest checkpoint (50% duty cycle maintained)",
				Tags: []string{
					"@param frequency_hz Desired toggle frequency in Hz, 0 stops the output",
					"@note Output stopped with " + c.Func("StopToggle") + "() stays stopped",
				},
				Body: setBody,
			},
			{
				Base:   "GetToggleFrequency",
				Return: "float",
				Params: "void",
				Brief:  "Get current toggle frequency",
				Tags:   []string{"@return Frequency in Hz"},
				Body:   []string{"return " + c.Func("GetFrequency") + "();"},
			},
			{
				Base:   "StartToggle",
				Return: "void",
				Params: "void",
				Brief:  "Start toggling at configured frequency",
				Body: []string{
					stopped + " = 0;",
					"if (" + c.Func("GetFrequency") + "() > 0.0f) {",
					"    HAL_TIM_PWM_Start(" + hal + ");",
					"}",
				},
			},
			{
				Base:   "StopToggle",
				Return: "void",
				Params: "void",
				Brief:  "Stop toggling until the next start request",
				Body: []string{
					stopped + " = 1;",
					"HAL_TIM_PWM_Stop(" + hal + ");",
				},
			},
		},
		initCalls: []string{c.Func("InitFrequencyCache")},
	}.fragment(c, inline)
}
