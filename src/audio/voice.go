package audio

// ----- Voice ----- //

const (
	mixHeadroom = 0.4
	masterLevel = 0.6
)

// voice is the monophonic orchestrator. It owns three oscillator units,
// their vibrato attachments, the noise source and the shared output chain
//
//	units[0..2] ─┐
//	             ├─► mixBus ─► ladder ─► master ─► analyser ─► destination
//	noise ───────┘
//
// mixBus, ladder, master and analyser live for the whole voice; everything
// upstream of the mixBus is built per note and torn down on release.
type voice struct {
	ctx   *Context
	pool  *nodePool
	waves *waveCache
	state *params

	units    []*oscUnit
	vibratos []*vibrato

	noise     *NoiseNode
	noiseGain *GainNode

	mixBus   *GainNode
	ladder   *LadderNode
	master   *GainNode
	analyser *AnalyserNode

	activeNotes []int // held notes, newest first
	closed      bool
}

func newVoice(ctx *Context, pool *nodePool, waves *waveCache, state *params) *voice {
	v := &voice{
		ctx:         ctx,
		pool:        pool,
		waves:       waves,
		state:       state,
		activeNotes: make([]int, 0, 128),
	}
	for _, spec := range state.oscParams {
		v.units = append(v.units, newOscUnit(ctx, pool, waves, spec))
		v.vibratos = append(v.vibratos, newVibrato(ctx, pool))
	}

	v.mixBus = pool.acquireGain()
	v.ladder = pool.acquireLadder()
	v.master = pool.acquireGain()
	v.analyser = pool.acquireAnalyser()

	now := ctx.CurrentTime()
	v.mixBus.Gain.SetValueAtTime(mixHeadroom, now)
	v.master.Gain.SetValueAtTime(masterLevel, now)

	Connect(v.mixBus, v.ladder)
	Connect(v.ladder, v.master)
	Connect(v.master, v.analyser)
	Connect(v.analyser, ctx.Destination())

	v.applyFilter()
	return v
}

func (v *voice) controls() *controlParams { return v.state.controlParams }

func (v *voice) soundingAny() bool {
	for _, u := range v.units {
		if u.sounding() {
			return true
		}
	}
	return false
}

// baseFrequencyFor runs the frequency pipeline for one oscillator against
// the current control snapshot.
func (v *voice) baseFrequencyFor(i, note int) float64 {
	spec := v.state.oscParams[i]
	c := v.controls()
	return computeFrequency(note, c.masterTune, float64(spec.freq), c.pitchWheel, spec.detuneCents)
}

// noteOn starts or re-pitches every enabled oscillator. A unit that is
// already sounding is never rebuilt; it glides or jumps to the new pitch.
func (v *voice) noteOn(note int) {
	if v.closed {
		return
	}
	wasSilent := !v.soundingAny()

	v.activeNotes = append(v.activeNotes, 0)
	copy(v.activeNotes[1:], v.activeNotes)
	v.activeNotes[0] = note

	c := v.controls()
	for i, u := range v.units {
		if !u.spec.enabled {
			continue
		}
		base := v.baseFrequencyFor(i, note)
		if !u.sounding() {
			u.start(base, v.mixBus)
		} else {
			u.glideTo(base, c.glideOn, c.glideTime)
		}
	}
	v.applyModulation()

	if wasSilent {
		v.startNoise()
		v.triggerContour()
	}
}

// noteOff removes one held note. While other notes remain held the voice
// glides back to the most recent of them; when the last note lifts the
// voice either tears down or, under the hold policy, keeps ringing so the
// next note can glide in legato.
func (v *voice) noteOff(note int) {
	if v.closed {
		return
	}
	removed := 0
	for i := 0; i < len(v.activeNotes); i++ {
		if v.activeNotes[i] == note {
			removed++
		} else {
			v.activeNotes[i-removed] = v.activeNotes[i]
		}
	}
	v.activeNotes = v.activeNotes[:len(v.activeNotes)-removed]
	if removed == 0 {
		return
	}
	if len(v.activeNotes) > 0 {
		c := v.controls()
		head := v.activeNotes[0]
		for i, u := range v.units {
			if u.sounding() {
				u.glideTo(v.baseFrequencyFor(i, head), c.glideOn, c.glideTime)
			}
		}
		return
	}
	v.releaseAll()
}

// noteOffAll drops every held note and releases.
func (v *voice) noteOffAll() {
	if v.closed {
		return
	}
	v.activeNotes = v.activeNotes[:0]
	v.releaseAll()
}

// releaseAll handles the transition out of the last held note.
func (v *voice) releaseAll() {
	c := v.controls()
	v.triggerRelease()
	if c.glideOn && c.decayHold {
		// hold policy: keep the oscillators sounding so the next note-on
		// glides from this pitch; only the modulation comes off.
		for _, vb := range v.vibratos {
			vb.detach()
		}
		return
	}
	v.silenceSources()
}

// silenceSources tears down everything upstream of the mix bus.
func (v *voice) silenceSources() {
	for _, vb := range v.vibratos {
		vb.detach()
	}
	for _, u := range v.units {
		u.stop()
	}
	v.stopNoise()
}

// silence is the hard stop: all held state cleared, all sources released.
// Safe to call at any time, any number of times.
func (v *voice) silence() {
	v.activeNotes = v.activeNotes[:0]
	v.triggerRelease()
	v.silenceSources()
}

// ----- control-change application ----- //

// applyPitchControls re-runs the frequency pipeline for the held note and
// ramps every sounding unit there over a short fixed ramp.
func (v *voice) applyPitchControls() {
	if len(v.activeNotes) == 0 {
		return
	}
	head := v.activeNotes[0]
	for i, u := range v.units {
		if u.sounding() {
			u.rampTo(v.baseFrequencyFor(i, head), controlRampSeconds)
		}
	}
}

// applyModulation reconciles the vibrato attachments with the mod wheel
// and the oscillator-modulation switch.
func (v *voice) applyModulation() {
	depth := v.modDepth()
	for i, u := range v.units {
		if depth > 0 && u.sounding() {
			v.vibratos[i].attach(u.osc, u.lastAppliedHz, depth)
		} else {
			v.vibratos[i].detach()
		}
	}
}

// modDepth converts the mod wheel to vibrato depth in semitones, 0..2.
func (v *voice) modDepth() float64 {
	c := v.controls()
	if !c.oscMod {
		return 0
	}
	return sanitize(c.modWheel, 0, 0, 100) / 100 * 2
}

// applyOsc applies live edits to one oscillator's waveform, level and
// pitch-affecting knobs.
func (v *voice) applyOsc(i int) {
	if i < 0 || i >= len(v.units) {
		return
	}
	u := v.units[i]
	u.applyWaveform()
	u.applyLevel()
	if len(v.activeNotes) > 0 && u.sounding() {
		u.rampTo(v.baseFrequencyFor(i, v.activeNotes[0]), controlRampSeconds)
	} else {
		u.applyRange()
	}
}

// applyMixer reconciles the noise source with the mixer settings.
func (v *voice) applyMixer() {
	m := v.state.mixerParams
	if !m.noiseOn {
		v.stopNoise()
		return
	}
	if v.noise == nil {
		if v.soundingAny() {
			v.startNoise()
		}
		return
	}
	v.noise.color = m.noiseKind
	rampParam(v.noiseGain.Gain, v.ctx.CurrentTime(), v.noiseTargetLevel(), gainRampSeconds)
}

// applyAll re-applies every control group, for loading a whole preset.
func (v *voice) applyAll() {
	for i := range v.units {
		v.applyOsc(i)
	}
	v.applyPitchControls()
	v.applyModulation()
	v.applyMixer()
	v.applyFilter()
}

// applyFilter pushes the filter knobs into the ladder.
func (v *voice) applyFilter() {
	f := v.state.filterParams
	v.ladder.SetCutoff(sanitize(f.cutoff, ladderInitialCut, minFrequency, 12000))
	v.ladder.SetResonance(sanitize(f.emphasis, 0, 0, 10) / 10 * 4)
	v.ladder.SetEnvelopeDecayTime(sanitize(f.decay, 500, 0, 10000) / 1000)
	v.ladder.SetEnvelopeSustainLevel(sanitize(f.sustain, 0.5, 0, 1))
	if !f.modOn {
		v.ladder.SetEnvelopeActive(false)
	}
}

// ----- noise ----- //

func (v *voice) noiseTargetLevel() float64 {
	m := v.state.mixerParams
	if !m.noiseOn {
		return 0
	}
	return clamp(m.noiseLevel, 0, 1)
}

func (v *voice) startNoise() {
	m := v.state.mixerParams
	if !m.noiseOn || v.noise != nil {
		return
	}
	v.noise = v.pool.acquireNoise(m.noiseKind)
	v.noiseGain = v.pool.acquireGain()
	Connect(v.noise, v.noiseGain)
	Connect(v.noiseGain, v.mixBus)
	now := v.ctx.CurrentTime()
	v.noiseGain.Gain.SetValueAtTime(0, now)
	v.noiseGain.Gain.LinearRampToValueAtTime(v.noiseTargetLevel(), now+gainRampSeconds)
	v.noise.Start()
}

func (v *voice) stopNoise() {
	if v.noise == nil {
		return
	}
	v.pool.release(v.noise)
	v.pool.release(v.noiseGain)
	v.noise = nil
	v.noiseGain = nil
}

// ----- filter contour ----- //

// triggerContour fires the filter attack for a fresh note. Legato note-ons
// do not retrigger; the contour is single-triggered per phrase.
func (v *voice) triggerContour() {
	f := v.state.filterParams
	if !f.modOn {
		return
	}
	cutoff := sanitize(f.cutoff, ladderInitialCut, minFrequency, 12000)
	peak := cutoff * (1 + sanitize(f.contourAmount, 0, 0, 10)/10*3)
	attack := sanitize(f.attack, 10, 1, 10000) / 1000
	v.ladder.TriggerAttack(cutoff, peak, attack)
}

// triggerRelease returns the cutoff to the knob position. With the decay
// switch on the ride down takes the decay time, otherwise it is quick.
func (v *voice) triggerRelease() {
	f := v.state.filterParams
	if !f.modOn {
		return
	}
	release := 0.05
	if v.controls().decayHold {
		release = sanitize(f.decay, 500, 0, 10000) / 1000
	}
	v.ladder.TriggerRelease(sanitize(f.cutoff, ladderInitialCut, minFrequency, 12000), release)
}

// close releases every node the voice holds, including the persistent
// output chain, and evicts this context's wave cache entries.
func (v *voice) close() {
	if v.closed {
		return
	}
	v.silence()
	v.pool.release(v.mixBus)
	v.pool.release(v.ladder)
	v.pool.release(v.master)
	v.pool.release(v.analyser)
	v.waves.evictContext(v.ctx.ID())
	v.closed = true
}
