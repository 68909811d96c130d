package calculator

import (
	"strconv"

	"pwmcalc/pkg/solver"
)

// Setting is one field to enter in the CubeMX timer configuration.
type Setting struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

const counterGroup = "Counter Settings"

// CubeMXSettings lists the timer parameters that reproduce reg in CubeMX.
// The prescaler register is 16 bits on every timer, only the period and
// pulse follow width.
func CubeMXSettings(width solver.Width, channel int, reg solver.Register, pulse int64) []Setting {
	bits := strconv.Itoa(int(width)) + " bits value"
	channelGroup := "PWM Generation Channel " + strconv.Itoa(channel)

	return []Setting{
		{counterGroup, "Prescaler (PSC - 16 bits value)", strconv.Itoa(reg.Prescaler)},
		{counterGroup, "Counter Mode", "Up"},
		{counterGroup, "Counter Period (AutoReload Register - " + bits + ")", strconv.FormatInt(reg.Period, 10)},
		{counterGroup, "Internal Clock Division (CKD)", "No Division"},
		{counterGroup, "auto-reload preload", "Enable"},
		{channelGroup, "Mode", "PWM mode 1"},
		{channelGroup, "Pulse (" + bits + ")", strconv.FormatInt(pulse, 10)},
		{channelGroup, "Output compare preload", "Enable"},
		{channelGroup, "Fast Mode", "Disable"},
		{channelGroup, "CH Polarity", "High"},
		{channelGroup, "CH Idle State", "Reset"},
	}
}
