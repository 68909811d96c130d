package codegen

import (
	"strconv"
	"strings"
)

const (
	// TimerCount is the number of timer instances offered for selection.
	TimerCount = 24

	// MaxChannel is the highest PWM channel of a timer.
	MaxChannel = 4
)

// TimerNames returns TIM1 through TIM24.
func TimerNames() []string {
	names := make([]string, TimerCount)
	for i := range names {
		names[i] = "TIM" + strconv.Itoa(i+1)
	}
	return names
}

// IsKnownTimer reports whether name is one of TimerNames.
func IsKnownTimer(name string) bool {
	n, ok := strings.CutPrefix(name, "TIM")
	if !ok || n == "" || n[0] == '0' {
		return false
	}
	idx, err := strconv.Atoi(n)
	return err == nil && idx >= 1 && idx <= TimerCount
}

// TimerSelection is the timer instance and output channel to drive.
type TimerSelection struct {
	Name    string `json:"timer"`
	Channel int    `json:"channel"`
}

// Handle returns the CubeMX handle variable, e.g. "htim1".
func (t TimerSelection) Handle() string {
	return "h" + strings.ToLower(t.Name)
}

// ChannelMacro returns the HAL channel constant, e.g. "TIM_CHANNEL_1".
func (t TimerSelection) ChannelMacro() string {
	return "TIM_CHANNEL_" + strconv.Itoa(t.Channel)
}

// CompareRegister returns the capture/compare register field, e.g. "CCR1".
func (t TimerSelection) CompareRegister() string {
	return "CCR" + strconv.Itoa(t.Channel)
}
