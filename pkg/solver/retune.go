package solver

// Retuner models the run state of a toggle-pin output across frequency
// changes, following the generated setter.
type Retuner struct {
	cache            *FrequencyCache
	reg              Register
	running          bool
	logicallyStopped bool
}

// NewRetuner creates a running output at the given initial registers.
func NewRetuner(cache *FrequencyCache, initial Register) *Retuner {
	return &Retuner{
		cache:   cache,
		reg:     initial,
		running: true,
	}
}

// Register returns the currently programmed pair.
func (r *Retuner) Register() Register {
	return r.reg
}

// Running reports whether the output is active.
func (r *Retuner) Running() bool {
	return r.running
}

// LogicallyStopped reports whether Stop was requested and not yet cleared.
func (r *Retuner) LogicallyStopped() bool {
	return r.logicallyStopped
}

// Frequency returns the output frequency of the programmed registers.
func (r *Retuner) Frequency() float64 {
	return ActualFrequency(r.cache.clock.SystemClockMHz, r.reg)
}

// Start clears the logical stop and starts output if the registers are valid.
func (r *Retuner) Start() {
	r.logicallyStopped = false
	if r.Frequency() > 0 {
		r.running = true
	}
}

// Stop sets the logical stop flag and halts output.
func (r *Retuner) Stop() {
	r.logicallyStopped = true
	r.running = false
}

// SetFrequency reprograms the output. A hardware stop leaves the logical flag
// alone, so the next valid frequency restarts output; after Stop it never does.
func (r *Retuner) SetFrequency(freq uint32) RetuneResult {
	wasRunning := !r.logicallyStopped && r.Frequency() > 0
	r.running = false

	res := r.cache.Retune(freq)
	if res.Stopped {
		return res
	}
	r.reg = res.Register

	if wasRunning && !r.logicallyStopped {
		r.running = true
	}
	return res
}
