// Timer resolution search
//
// Finds prescaler/auto-reload pairs that realize a PWM frequency on a
// fixed-width hardware timer, ranked by resolution.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package solver

import (
	"math"
	"sort"
	"strconv"

	"pwmcalc/pkg/mathx"
)

// Width is the bit width of the timer's auto-reload register.
type Width int

const (
	Width16 Width = 16
	Width32 Width = 32
)

// Valid reports whether w is a supported register width.
func (w Width) Valid() bool {
	return w == Width16 || w == Width32
}

// MaxPeriod returns the largest auto-reload value the register can hold.
func (w Width) MaxPeriod() int64 {
	return int64(1)<<uint(w) - 1
}

const (
	// MaxPrescaler is the largest value of the 16-bit prescaler register.
	MaxPrescaler = 65535

	// MaxCandidates bounds the number of candidates Solve returns.
	MaxCandidates = 20

	// MinUsefulPeriod ends the search once periods drop below it.
	MinUsefulPeriod = 100

	// MaxFrequencyError is the relative frequency error a candidate may have.
	MaxFrequencyError = 0.01
)

// Clock describes the timer input clock and register width.
type Clock struct {
	SystemClockMHz int
	Width          Width
}

// TimerClockHz returns the counter input clock in Hz.
func (c Clock) TimerClockHz() int64 {
	return int64(c.SystemClockMHz) * 1_000_000
}

// Register is a chosen prescaler/period pair.
type Register struct {
	Prescaler int   `json:"psc"`
	Period    int64 `json:"arr"`
}

// Key returns the selection token for the pair, "psc-arr".
func (r Register) Key() string {
	return strconv.Itoa(r.Prescaler) + "-" + strconv.FormatInt(r.Period, 10)
}

// Steps returns the number of duty cycle steps the period allows.
func (r Register) Steps() int64 {
	return r.Period + 1
}

// Candidate is one achievable configuration for a target frequency.
type Candidate struct {
	Prescaler         int
	Period            int64
	ResolutionSteps   int64
	ActualFrequencyHz float64
}

// Register returns the prescaler/period pair of the candidate.
func (c Candidate) Register() Register {
	return Register{Prescaler: c.Prescaler, Period: c.Period}
}

// Key returns the selection token for the candidate.
func (c Candidate) Key() string {
	return c.Register().Key()
}

// Label returns the display label, e.g. "36.0k steps".
func (c Candidate) Label() string {
	return FormatSteps(c.ResolutionSteps) + " steps"
}

// Option is the caller-facing projection of a candidate.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Arr   int64  `json:"arr"`
	Psc   int    `json:"psc"`
}

// Register returns the prescaler/period pair of the option.
func (o Option) Register() Register {
	return Register{Prescaler: o.Psc, Period: o.Arr}
}

// Option converts the candidate to its caller-facing form.
func (c Candidate) Option() Option {
	return Option{
		Key:   c.Key(),
		Label: c.Label(),
		Arr:   c.Period,
		Psc:   c.Prescaler,
	}
}

// Options converts a candidate list, preserving order.
func Options(cands []Candidate) []Option {
	opts := make([]Option, 0, len(cands))
	for _, c := range cands {
		opts = append(opts, c.Option())
	}
	return opts
}

// Solve enumerates prescaler/period pairs within 1% of targetHz, highest
// resolution first. It returns an empty list for non-positive inputs, an
// unsupported width, or when nothing fits.
func Solve(clockMHz int, width Width, targetHz float64) []Candidate {
	cands, _ := search(clockMHz, width, targetHz)
	return cands
}

// SolveCounted is Solve that also reports how many prescaler values it
// visited. The count never exceeds MaxPrescaler+1.
func SolveCounted(clockMHz int, width Width, targetHz float64) ([]Candidate, int) {
	return search(clockMHz, width, targetHz)
}

func search(clockMHz int, width Width, targetHz float64) ([]Candidate, int) {
	if clockMHz <= 0 || !width.Valid() || !(targetHz > 0) || math.IsInf(targetHz, 0) {
		return nil, 0
	}

	timerClock := float64(Clock{SystemClockMHz: clockMHz}.TimerClockHz())
	maxPeriod := width.MaxPeriod()
	targetCounts := timerClock / targetHz

	var cands []Candidate
	iterations := 0
	for psc := 0; psc <= MaxPrescaler; psc++ {
		iterations++
		period := int64(mathx.RoundHalfUp(targetCounts/float64(psc+1))) - 1

		if period > 0 && period <= maxPeriod {
			actual := timerClock / (float64(psc+1) * float64(period+1))
			if math.Abs(actual-targetHz)/targetHz < MaxFrequencyError {
				cands = append(cands, Candidate{
					Prescaler:         psc,
					Period:            period,
					ResolutionSteps:   period + 1,
					ActualFrequencyHz: actual,
				})
			}
		}

		if period < MinUsefulPeriod || len(cands) >= MaxCandidates {
			break
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Period > cands[j].Period
	})
	return cands, iterations
}

// SolveDynamic returns the lowest prescaler whose rounded period fits the
// register, without any frequency error bound. It is used where the frequency
// is retuned at runtime. ok is false for invalid input, when even the
// largest prescaler leaves the period out of range, and when the target is
// so close to the timer clock that the period rounds below 1.
func SolveDynamic(clockMHz int, width Width, targetHz float64) (reg Register, ok bool) {
	if clockMHz <= 0 || !width.Valid() || !(targetHz > 0) || math.IsInf(targetHz, 0) {
		return Register{}, false
	}

	timerClock := float64(Clock{SystemClockMHz: clockMHz}.TimerClockHz())
	maxPeriod := width.MaxPeriod()
	targetCounts := timerClock / targetHz

	psc := 0
	period := int64(mathx.RoundHalfUp(targetCounts)) - 1
	for period > maxPeriod && psc < MaxPrescaler {
		psc++
		period = int64(mathx.RoundHalfUp(targetCounts/float64(psc+1))) - 1
	}

	if period < 1 || period > maxPeriod {
		return Register{Prescaler: psc, Period: period}, false
	}
	return Register{Prescaler: psc, Period: period}, true
}

// ActualFrequency returns the output frequency a register pair produces.
func ActualFrequency(clockMHz int, reg Register) float64 {
	timerClock := float64(Clock{SystemClockMHz: clockMHz}.TimerClockHz())
	return timerClock / (float64(reg.Prescaler+1) * float64(reg.Period+1))
}

// Pulse returns the compare value for a duty cycle percentage, rounded half up.
func Pulse(dutyPercent float64, period int64) int64 {
	return int64(mathx.RoundHalfUp(dutyPercent / 100 * float64(period)))
}

// FormatSteps renders a resolution for display: "1.2M", "36.0k" or "720".
func FormatSteps(v int64) string {
	switch {
	case v >= 1_000_000:
		return toFixed1(float64(v)/1_000_000) + "M"
	case v >= 1_000:
		return toFixed1(float64(v)/1_000) + "k"
	default:
		return strconv.FormatInt(v, 10)
	}
}

// toFixed1 formats x with one decimal. Exact binary ties round up, which
// differs from strconv's round-half-even.
func toFixed1(x float64) string {
	q := x * 4
	if q == math.Trunc(q) && math.Mod(q, 2) != 0 {
		x = math.Floor(x*10+0.5) / 10
	}
	return strconv.FormatFloat(x, 'f', 1, 64)
}
