package audio

// ----- Oscillator Unit ----- //

const gainRampSeconds = 0.01

// oscUnit owns one generator node plus its gain stage. Idle means no
// generator exists; Sounding means generator→gain→mixer is wired and
// running. The generator is one-shot, so every start builds a fresh one and
// every stop destroys it; the gain node cycles through the pool.
type oscUnit struct {
	ctx   *Context
	pool  *nodePool
	waves *waveCache
	spec  *oscParams

	osc  *OscillatorNode
	gain *GainNode

	lastBaseHz    float64 // pipeline output before the range multiplier
	lastAppliedHz float64 // value last written to the frequency param
}

func newOscUnit(ctx *Context, pool *nodePool, waves *waveCache, spec *oscParams) *oscUnit {
	return &oscUnit{ctx: ctx, pool: pool, waves: waves, spec: spec}
}

func (u *oscUnit) sounding() bool {
	return u.osc != nil
}

// start brings the unit to Sounding at baseHz, connected into dest. Calling
// start on a unit that is already Sounding degrades to setFrequency so a
// retrigger can never rebuild the graph mid-note.
func (u *oscUnit) start(baseHz float64, dest Node) {
	if u.sounding() {
		u.setFrequency(baseHz)
		return
	}
	u.osc = u.pool.acquireOscillator()
	u.gain = u.pool.acquireGain()
	u.configureWave()
	Connect(u.osc, u.gain)
	Connect(u.gain, dest)

	now := u.ctx.CurrentTime()
	u.gain.Gain.SetValueAtTime(0, now)
	u.gain.Gain.LinearRampToValueAtTime(u.targetLevel(), now+gainRampSeconds)
	u.osc.Start()
	u.setFrequency(baseHz)
}

// setFrequency writes baseHz times the range multiplier at the current
// clock time. No-op while Idle.
func (u *oscUnit) setFrequency(baseHz float64) {
	if !u.sounding() {
		return
	}
	final := baseHz * u.spec.rang.multiplier()
	stepParam(u.osc.Frequency, u.ctx.CurrentTime(), final)
	u.lastBaseHz = baseHz
	u.lastAppliedHz = final
}

// glideTo moves to baseHz under the portamento policy: a ramp when glide is
// enabled and the unit has a previous pitch, a step otherwise.
func (u *oscUnit) glideTo(baseHz float64, enabled bool, knob float64) {
	if !u.sounding() {
		return
	}
	final := baseHz * u.spec.rang.multiplier()
	applyGlide(u.osc.Frequency, u.ctx.CurrentTime(), final, u.lastAppliedHz > 0, enabled, knob)
	u.lastBaseHz = baseHz
	u.lastAppliedHz = final
}

// rampTo moves to baseHz over a fixed short ramp. Used for control changes
// while a note is held, where a bare step would be audible.
func (u *oscUnit) rampTo(baseHz float64, seconds float64) {
	if !u.sounding() {
		return
	}
	final := baseHz * u.spec.rang.multiplier()
	rampParam(u.osc.Frequency, u.ctx.CurrentTime(), final, seconds)
	u.lastBaseHz = baseHz
	u.lastAppliedHz = final
}

// applyWaveform rebinds the generator's waveform live, without retriggering.
func (u *oscUnit) applyWaveform() {
	if !u.sounding() {
		return
	}
	u.configureWave()
}

// applyRange re-applies the last base frequency so a footage change takes
// effect through the multiplier.
func (u *oscUnit) applyRange() {
	if !u.sounding() || u.lastBaseHz == 0 {
		return
	}
	u.setFrequency(u.lastBaseHz)
}

// applyLevel ramps the gain stage to the configured level. Always a short
// scheduled ramp, never an immediate jump.
func (u *oscUnit) applyLevel() {
	if !u.sounding() {
		return
	}
	now := u.ctx.CurrentTime()
	rampParam(u.gain.Gain, now, u.targetLevel(), gainRampSeconds)
}

// update applies every live-editable field of the spec at once.
func (u *oscUnit) update() {
	u.applyWaveform()
	u.applyRange()
	u.applyLevel()
}

// stop tears the unit down to Idle: the generator node is destroyed, the
// gain node is reset and pooled. Stopping an Idle unit is a no-op.
func (u *oscUnit) stop() {
	if !u.sounding() {
		return
	}
	u.pool.release(u.osc)
	u.pool.release(u.gain)
	u.osc = nil
	u.gain = nil
	u.lastBaseHz = 0
	u.lastAppliedHz = 0
}

func (u *oscUnit) configureWave() {
	if u.spec.kind.custom() {
		u.osc.SetPeriodicWave(u.waves.get(u.ctx, u.spec.kind))
		return
	}
	switch u.spec.kind {
	case waveSawtooth:
		u.osc.SetShape(shapeSawtooth)
	default:
		u.osc.SetShape(shapeTriangle)
	}
}

func (u *oscUnit) targetLevel() float64 {
	if !u.spec.enabled {
		return 0
	}
	return clamp(u.spec.level, 0, 1)
}
