package audio

import (
	"math"
	"testing"
)

func newTestVoice() (*Context, *nodePool, *params, *voice) {
	ctx := NewContext(sampleRate)
	pool := newNodePool(ctx)
	state := newParams()
	v := newVoice(ctx, pool, newWaveCache(), state)
	return ctx, pool, state, v
}

func renderFor(ctx *Context, samples int) {
	buf := make([]float64, samples)
	ctx.ReadSamples(buf)
}

func TestVoiceNoteOn(t *testing.T) {
	_, pool, _, v := newTestVoice()

	expectEqual(t, pool.activeCount(), 4) // mix bus, ladder, master, analyser
	v.noteOn(69)
	expectEqual(t, v.units[0].sounding(), true)
	expectEqual(t, v.units[1].sounding(), false)
	expectEqual(t, v.units[2].sounding(), false)
	expectNearlyEqual(t, v.units[0].lastAppliedHz, 440)
	expectEqual(t, pool.activeCount(), 6)
	expectEqual(t, v.noise == nil, true) // mixer noise defaults off
}

func TestVoiceNoteOnAllOscillators(t *testing.T) {
	_, _, state, v := newTestVoice()
	state.oscParams[1].enabled = true
	state.oscParams[2].enabled = true

	v.noteOn(69)
	for _, u := range v.units {
		expectEqual(t, u.sounding(), true)
	}
	// fixed detune offsets thicken oscillators 2 and 3
	expectNearlyEqual(t, v.units[0].lastAppliedHz, 440)
	expectNearlyEqual(t, v.units[1].lastAppliedHz, 440*math.Pow(2, -3.0/1200))
	expectNearlyEqual(t, v.units[2].lastAppliedHz, 440*math.Pow(2, 3.0/1200))
}

func TestVoicePitchWheelRamps(t *testing.T) {
	ctx, _, state, v := newTestVoice()

	v.noteOn(69)
	renderFor(ctx, 1024)
	now := ctx.CurrentTime()

	state.controlParams.pitchWheel = 100
	v.applyPitchControls()

	target := 440 * math.Pow(2, 2.0/12)
	freq := v.units[0].osc.Frequency
	expectNearlyEqual(t, v.units[0].lastAppliedHz, target)
	// a short ramp, not a step
	expectWithin(t, freq.valueAt(now), 440, 1)
	expectNearlyEqual(t, freq.valueAt(now+controlRampSeconds), target)
}

func TestVoiceRangeSwitch(t *testing.T) {
	_, _, state, v := newTestVoice()

	v.noteOn(69)
	state.oscParams[0].rang = range2
	v.applyOsc(0)
	expectNearlyEqual(t, v.units[0].lastAppliedHz, 1760)
}

func TestVoiceNoteOff(t *testing.T) {
	_, pool, _, v := newTestVoice()

	v.noteOn(69)
	v.noteOff(69)
	expectEqual(t, v.units[0].sounding(), false)
	expectEqual(t, v.vibratos[0].attached(), false)
	expectEqual(t, v.noise == nil, true)
	expectEqual(t, pool.activeCount(), 4)
	expectEqual(t, len(v.activeNotes), 0)

	v.noteOff(69) // releasing an unheld note changes nothing
	expectEqual(t, pool.activeCount(), 4)
}

func TestVoiceHeldNoteStack(t *testing.T) {
	_, _, _, v := newTestVoice()

	v.noteOn(60)
	v.noteOn(64)
	expectEqual(t, len(v.activeNotes), 2)
	expectNearlyEqual(t, v.units[0].lastAppliedHz, noteToFreq(64))

	// lifting the top note falls back to the most recent held one
	v.noteOff(64)
	expectEqual(t, v.units[0].sounding(), true)
	expectNearlyEqual(t, v.units[0].lastAppliedHz, noteToFreq(60))

	// lifting a buried note keeps the current pitch
	v.noteOn(64)
	v.noteOff(60)
	expectNearlyEqual(t, v.units[0].lastAppliedHz, noteToFreq(64))
	v.noteOff(64)
	expectEqual(t, v.units[0].sounding(), false)
}

func TestVoiceHoldPolicy(t *testing.T) {
	_, _, state, v := newTestVoice()
	state.controlParams.glideOn = true
	state.controlParams.decayHold = true

	v.noteOn(60)
	osc := v.units[0].osc
	v.noteOff(60)

	// with glide and the decay switch both on the oscillator keeps ringing
	expectEqual(t, v.units[0].sounding(), true)
	expectEqual(t, len(v.activeNotes), 0)

	// so the next note glides in on the same generator
	v.noteOn(72)
	expectEqual(t, v.units[0].osc == osc, true)
	expectNearlyEqual(t, v.units[0].lastAppliedHz, noteToFreq(72))
}

func TestVoiceLegatoSingleTrigger(t *testing.T) {
	ctx, _, _, v := newTestVoice()

	v.noteOn(60)
	expectEqual(t, v.ladder.envPhase, 1)
	expectNearlyEqual(t, v.ladder.envStartTime, 0)
	expectNearlyEqual(t, v.ladder.envTarget, 5000) // 1000 * (1 + 5/10*3) * 2

	renderFor(ctx, 1024)
	v.noteOn(64) // legato: the contour must not restart
	expectNearlyEqual(t, v.ladder.envStartTime, 0)
}

func TestVoiceGlideBetweenNotes(t *testing.T) {
	ctx, _, state, v := newTestVoice()
	state.controlParams.glideOn = true
	state.controlParams.glideTime = 5 // 0.2s

	v.noteOn(57)
	renderFor(ctx, 1024)
	now := ctx.CurrentTime()
	v.noteOn(69)

	freq := v.units[0].osc.Frequency
	expectNearlyEqual(t, freq.valueAt(now), 220)
	expectNearlyEqual(t, freq.valueAt(now+0.1), 330)
	expectNearlyEqual(t, freq.valueAt(now+0.2), 440)
}

func TestVoiceModWheelVibrato(t *testing.T) {
	_, _, state, v := newTestVoice()
	state.controlParams.oscMod = true
	state.controlParams.modWheel = 50

	v.noteOn(69)
	expectEqual(t, v.vibratos[0].attached(), true)
	expectEqual(t, v.vibratos[1].attached(), false) // unit 2 is not sounding
	expectEqual(t, len(v.units[0].osc.Frequency.inputs), 1)
	swing := 440 * (math.Pow(2, 1.0/12) - 1) // wheel at 50 is one semitone
	expectNearlyEqual(t, v.vibratos[0].sc.Gain.Value(), swing)

	state.controlParams.modWheel = 0
	v.applyModulation()
	expectEqual(t, v.vibratos[0].attached(), false)
	expectEqual(t, len(v.units[0].osc.Frequency.inputs), 0)
}

func TestVoiceNoiseFollowsMixer(t *testing.T) {
	_, _, state, v := newTestVoice()

	v.noteOn(69)
	state.mixerParams.noiseOn = true
	v.applyMixer()
	expectEqual(t, v.noise == nil, false)
	expectEqual(t, v.noise.color, noiseWhite)

	state.mixerParams.noiseKind = noisePink
	v.applyMixer()
	expectEqual(t, v.noise.color, noisePink)

	state.mixerParams.noiseOn = false
	v.applyMixer()
	expectEqual(t, v.noise == nil, true)

	// with noise enabled up front it starts together with the note
	state.mixerParams.noiseOn = true
	v.noteOff(69)
	v.noteOn(69)
	expectEqual(t, v.noise == nil, false)
	v.noteOff(69)
	expectEqual(t, v.noise == nil, true)
}

func TestVoiceContourRelease(t *testing.T) {
	_, _, _, v := newTestVoice()

	v.noteOn(69)
	v.noteOff(69)
	expectEqual(t, v.ladder.envPhase, 0)
	expectNearlyEqual(t, v.ladder.targetCutoff, 1000)
}

func TestVoiceFilterKnobs(t *testing.T) {
	_, _, state, v := newTestVoice()

	expectNearlyEqual(t, v.ladder.targetResonance, 0.8) // emphasis 2 of 10
	expectNearlyEqual(t, v.ladder.envDecayTime, 0.5)
	expectNearlyEqual(t, v.ladder.envSustain, 0.5)

	state.filterParams.emphasis = 10
	v.applyFilter()
	expectNearlyEqual(t, v.ladder.targetResonance, 4)
}

func TestVoiceSilence(t *testing.T) {
	_, pool, state, v := newTestVoice()
	state.controlParams.glideOn = true
	state.controlParams.decayHold = true

	v.noteOn(60)
	v.noteOn(64)
	v.silence()
	expectEqual(t, v.units[0].sounding(), false)
	expectEqual(t, len(v.activeNotes), 0)
	expectEqual(t, pool.activeCount(), 4) // hold policy does not survive a hard stop

	v.silence()
	expectEqual(t, pool.activeCount(), 4)
}

func TestVoiceRendersAudio(t *testing.T) {
	ctx, _, _, v := newTestVoice()

	v.noteOn(69)
	buf := make([]float64, 8192)
	ctx.ReadSamples(buf)
	expectEqual(t, anyNonZero(buf), true)

	v.noteOff(69)
	// the filter tail decays below hearing within a second
	renderFor(ctx, sampleRate)
	ctx.ReadSamples(buf)
	peak := 0.0
	for _, s := range buf {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	expectEqual(t, peak < 1e-6, true)
}

func TestVoiceClose(t *testing.T) {
	_, pool, _, v := newTestVoice()

	v.noteOn(69)
	v.close()
	expectEqual(t, pool.activeCount(), 0)
	v.close() // closing twice is fine

	// a closed voice ignores note events
	v.noteOn(69)
	expectEqual(t, pool.activeCount(), 0)
}
