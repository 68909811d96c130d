package codegen

// Led treats brightness as duty cycle.
type Led struct {
	InitialBrightness float64 `json:"initial_brightness"`
}

func (l Led) Kind() PresetKind { return PresetLedDimming }

func (l Led) Generate(c *Context, inline bool) Fragment {
	return presetParts{
		functionsTitle: "LED Dimming Functions",
		functions: []Function{
			{
				Base:   "SetBrightness",
				Return: "void",
				Params: "float brightness_percent",
				Brief:  "Set LED brightness",
				Tags:   []string{"@param brightness_percent Brightness level (0 = off, 100 = max)"},
				Body:   []string{c.Func("SetDutyCycle") + "(brightness_percent);"},
			},
			{
				Base:   "GetBrightness",
				Return: "float",
				Params: "void",
				Brief:  "Get current LED brightness",
				Tags:   []string{"@return Brightness percentage (0.0 - 100.0)"},
				Body:   []string{"return " + c.Func("GetDutyCycle") + "();"},
			},
		},
	}.fragment(c, inline)
}
