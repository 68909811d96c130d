// Frequency cache for runtime retuning
//
// Precomputes prescaler/period pairs at fixed checkpoints so that a runtime
// frequency change can seed its search from the nearest checkpoint instead
// of prescaler 0. The arithmetic mirrors the integer code emitted for the
// toggle-pin preset, so this model and the generated routine agree.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package solver

import "math"

// CacheCapacity is the size of the generated cache array.
const CacheCapacity = 50

// checkpointDecade describes one band of checkpoints: count values spaced
// by step, starting at first.
type checkpointDecade struct {
	first uint32
	step  uint32
	count int
}

var checkpointDecades = []checkpointDecade{
	{first: 1, step: 1, count: 10},        // 1-10 Hz
	{first: 20, step: 10, count: 9},       // 20-100 Hz
	{first: 200, step: 100, count: 9},     // 200-1000 Hz
	{first: 2000, step: 1000, count: 9},   // 2k-10k Hz
	{first: 20000, step: 10000, count: 9}, // 20k-100k Hz
}

// Checkpoints returns the cache checkpoint frequencies in ascending order.
func Checkpoints() []uint32 {
	var out []uint32
	for _, d := range checkpointDecades {
		for i := 0; i < d.count && len(out) < CacheCapacity; i++ {
			out = append(out, d.first+uint32(i)*d.step)
		}
	}
	return out
}

// CacheEntry is one precomputed checkpoint.
type CacheEntry struct {
	Frequency uint32 `json:"freq"`
	Prescaler uint32 `json:"psc"`
	Period    uint32 `json:"arr"`
}

// Register returns the entry's register pair.
func (e CacheEntry) Register() Register {
	return Register{Prescaler: int(e.Prescaler), Period: int64(e.Period)}
}

// FrequencyCache holds checkpoints for one clock configuration.
type FrequencyCache struct {
	clock   Clock
	entries []CacheEntry
}

// BuildFrequencyCache computes the checkpoint table for clock. Checkpoints
// that do not fit the register even at the largest prescaler are skipped.
func BuildFrequencyCache(clock Clock) *FrequencyCache {
	fc := &FrequencyCache{clock: clock}
	if clock.SystemClockMHz <= 0 || !clock.Width.Valid() {
		return fc
	}
	maxPeriod := uint64(clock.Width.MaxPeriod())
	timerClock := uint64(clock.TimerClockHz())

	for _, freq := range Checkpoints() {
		target := timerClock / uint64(freq)
		if target == 0 {
			continue
		}
		psc := uint64(0)
		arr := target - 1
		for arr > maxPeriod && psc < MaxPrescaler {
			psc++
			arr = target/(psc+1) - 1
		}
		if arr <= maxPeriod {
			fc.entries = append(fc.entries, CacheEntry{
				Frequency: freq,
				Prescaler: uint32(psc),
				Period:    uint32(arr),
			})
		}
	}
	return fc
}

// Clock returns the configuration the cache was built for.
func (fc *FrequencyCache) Clock() Clock {
	return fc.clock
}

// Entries returns a copy of the checkpoint table.
func (fc *FrequencyCache) Entries() []CacheEntry {
	out := make([]CacheEntry, len(fc.entries))
	copy(out, fc.entries)
	return out
}

// Len returns the number of entries.
func (fc *FrequencyCache) Len() int {
	return len(fc.entries)
}

// Nearest returns the entry closest to freq. The first entry wins ties.
func (fc *FrequencyCache) Nearest(freq uint32) (CacheEntry, bool) {
	var best CacheEntry
	found := false
	minDiff := uint32(math.MaxUint32)
	for _, e := range fc.entries {
		diff := absDiff(e.Frequency, freq)
		if diff < minDiff {
			minDiff = diff
			best = e
			found = true
			if diff == 0 {
				break
			}
		}
	}
	return best, found
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// RetuneResult reports how a frequency change was resolved.
type RetuneResult struct {
	Register   Register
	ExactMatch bool
	Iterations int
	// Stopped is set when the request was a hardware stop (frequency 0) or
	// the frequency exceeds the timer clock.
	Stopped bool
}

// Retune resolves freq the way the generated frequency setter does: exact
// checkpoint hits are returned unchanged, anything else is refined from the
// nearest checkpoint's prescaler.
func (fc *FrequencyCache) Retune(freq uint32) RetuneResult {
	if freq == 0 {
		return RetuneResult{Stopped: true}
	}

	nearest, found := fc.Nearest(freq)
	if found && nearest.Frequency == freq {
		return RetuneResult{Register: nearest.Register(), ExactMatch: true}
	}

	maxPeriod := int64(fc.clock.Width.MaxPeriod())
	target := fc.clock.TimerClockHz() / int64(freq)
	if target == 0 {
		return RetuneResult{Stopped: true}
	}

	psc := int64(0)
	if found {
		psc = int64(nearest.Prescaler)
	}
	arr := target/(psc+1) - 1
	iterations := 0

	for arr > maxPeriod && psc < MaxPrescaler {
		psc++
		arr = target/(psc+1) - 1
		iterations++
	}

	for arr < maxPeriod/2 && psc > 0 {
		psc--
		arr = target/(psc+1) - 1
		iterations++
		if arr > maxPeriod {
			psc++
			arr = target/(psc+1) - 1
			break
		}
	}

	return RetuneResult{
		Register:   Register{Prescaler: int(psc), Period: arr},
		Iterations: iterations,
	}
}
