package audio

import (
	"math"
)

// ----- Oscillator Node ----- //

type oscShape int

const (
	shapeSine oscShape = iota
	shapeTriangle
	shapeSquare
	shapeSawtooth
	shapeCustom
)

// OscillatorNode generates a single pitched waveform. It is one-shot: once
// stopped it never restarts, and the pool destroys it on release rather than
// recycling it.
type OscillatorNode struct {
	nodeBase
	Frequency *Param
	shape     oscShape
	wave      *PeriodicWave
	phase     float64
	started   bool
	stopped   bool
}

// NewOscillator ...
func (c *Context) NewOscillator() *OscillatorNode {
	o := &OscillatorNode{}
	o.init(c, kindOscillator)
	o.Frequency = newParam(c, "frequency", baseFreq, 0, c.rate/2)
	c.register(o)
	return o
}

func (o *OscillatorNode) base() *nodeBase  { return &o.nodeBase }
func (o *OscillatorNode) params() []*Param { return []*Param{o.Frequency} }

// SetShape selects a builtin waveform and clears any custom wave.
func (o *OscillatorNode) SetShape(s oscShape) {
	o.shape = s
	o.wave = nil
}

// SetPeriodicWave switches the oscillator to a custom single-cycle wave.
// Allowed while running; the phase is carried over so there is no click
// beyond the waveform change itself.
func (o *OscillatorNode) SetPeriodicWave(w *PeriodicWave) {
	if w == nil {
		return
	}
	o.shape = shapeCustom
	o.wave = w
}

// Start begins generation at the next rendered frame. Starting twice is a
// no-op.
func (o *OscillatorNode) Start() {
	o.started = true
}

// Stop ends generation permanently.
func (o *OscillatorNode) Stop() {
	o.stopped = true
}

func (o *OscillatorNode) process(out []float64, startTime float64) {
	if !o.started || o.stopped {
		return
	}
	freqs := o.Frequency.values(o.lastQuantum, startTime)
	inv := 1 / o.ctx.rate
	for i := range out {
		out[i] = o.sample(freqs[i])
		o.phase += freqs[i] * inv
		if o.phase >= 1 {
			o.phase -= math.Floor(o.phase)
		}
	}
}

func (o *OscillatorNode) sample(freq float64) float64 {
	p := o.phase
	switch o.shape {
	case shapeSine:
		return math.Sin(2 * math.Pi * p)
	case shapeTriangle:
		if p < 0.5 {
			return -1 + 4*p
		}
		return 3 - 4*p
	case shapeSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case shapeSawtooth:
		return 2*p - 1
	case shapeCustom:
		if o.wave == nil {
			return 0
		}
		return o.wave.tableForFreq(freq).getAtPhase(p)
	}
	return 0
}
