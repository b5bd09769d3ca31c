package audio

import (
	"math"
)

// ----- Vibrato ----- //

const vibratoRateHz = 6.0

// vibrato hangs a 6Hz sine LFO and a depth-scaling gain off one
// oscillator's frequency parameter. The scaler converts the ±1 LFO swing
// into Hz around the carrier: depth semitones above base is
// base·(2^(d/12)−1) Hz.
type vibrato struct {
	ctx  *Context
	pool *nodePool
	lfo  *OscillatorNode
	sc   *GainNode
}

func newVibrato(ctx *Context, pool *nodePool) *vibrato {
	return &vibrato{ctx: ctx, pool: pool}
}

func (v *vibrato) attached() bool {
	return v.lfo != nil
}

// attach wires the LFO onto target's frequency input. A non-positive depth
// is a detach. Re-attaching always tears down the previous pair first so a
// stale carrier can never keep receiving modulation.
func (v *vibrato) attach(target *OscillatorNode, baseHz, depthSemitones float64) {
	v.detach()
	if depthSemitones <= 0 || math.IsNaN(depthSemitones) || target == nil {
		return
	}
	v.lfo = v.pool.acquireOscillator()
	v.lfo.SetShape(shapeSine)
	v.sc = v.pool.acquireGain()

	now := v.ctx.CurrentTime()
	v.lfo.Frequency.CancelScheduledValues(now)
	v.lfo.Frequency.SetValueAtTime(vibratoRateHz, now)
	swing := baseHz * (math.Pow(2, depthSemitones/12) - 1)
	v.sc.Gain.SetValueAtTime(swing, now)

	Connect(v.lfo, v.sc)
	ConnectParam(v.sc, target.Frequency)
	v.lfo.Start()
}

// detach stops and releases the LFO pair. Safe to call when nothing is
// attached, and safe to call twice.
func (v *vibrato) detach() {
	if v.lfo != nil {
		v.pool.release(v.lfo)
		v.lfo = nil
	}
	if v.sc != nil {
		v.pool.release(v.sc)
		v.sc = nil
	}
}
