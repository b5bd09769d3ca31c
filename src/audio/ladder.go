package audio

import (
	"math"
)

// ----- Ladder Filter Node ----- //

// LadderNode is a Huovilainen-style four-stage transistor ladder low-pass
// (after Huovilainen 2004/2010, via Lazzarini's CSound implementation), run
// at 2x oversampling with a DC blocker in front. Cutoff and resonance moves
// are smoothed once per quantum to avoid zipper noise, and a built-in
// attack/decay/sustain contour can sweep the cutoff.
//
//	phase 1 = attack, 2 = decay, 3 = sustain, 0 = idle/release
type LadderNode struct {
	nodeBase

	stage     [4]float64
	stageTanh [3]float64
	delay     [6]float64

	tune    float64
	acr     float64
	resQuad float64

	cutoff          float64
	resonance       float64
	targetCutoff    float64
	targetResonance float64

	dcBlockIn  float64
	dcBlockOut float64

	manualCutoff float64
	envCutoff    float64
	envActive    bool
	envStart     float64
	envTarget    float64
	envStartTime float64
	envDuration  float64
	envDecayTime float64
	envSustain   float64
	envPhase     int
	now          float64
}

const (
	ladderThermal    = 0.000025
	ladderSmoothing  = 0.1
	dcBlockCoeff     = 0.995
	ladderInitialCut = 1000.0
	ladderInitialRes = 0.1
)

// NewLadder ...
func (c *Context) NewLadder() *LadderNode {
	l := &LadderNode{}
	l.init(c, kindLadder)
	l.reset()
	c.register(l)
	return l
}

func (l *LadderNode) base() *nodeBase  { return &l.nodeBase }
func (l *LadderNode) params() []*Param { return nil }

func (l *LadderNode) reset() {
	l.stage = [4]float64{}
	l.stageTanh = [3]float64{}
	l.delay = [6]float64{}
	l.dcBlockIn = 0
	l.dcBlockOut = 0
	l.cutoff = ladderInitialCut
	l.targetCutoff = ladderInitialCut
	l.manualCutoff = ladderInitialCut
	l.envCutoff = ladderInitialCut
	l.resonance = ladderInitialRes
	l.targetResonance = ladderInitialRes
	l.envActive = false
	l.envPhase = 0
	l.envDecayTime = 0.5
	l.envSustain = 0.5
	l.now = 0
	l.updateCoefficients()
}

// SetCutoff sets the knob cutoff in Hz. While the contour is active the knob
// only takes effect through the sustain computation.
func (l *LadderNode) SetCutoff(hz float64) {
	l.manualCutoff = hz
	if !l.envActive {
		l.targetCutoff = hz
	}
}

// SetResonance takes 0..4; self-oscillation begins near 4.
func (l *LadderNode) SetResonance(r float64) {
	l.targetResonance = r
}

// SetEnvelopeActive detaches or re-arms the contour. Deactivating returns
// the filter to the knob cutoff.
func (l *LadderNode) SetEnvelopeActive(active bool) {
	l.envActive = active
	if !active {
		l.targetCutoff = l.manualCutoff
		l.envPhase = 0
	}
}

// SetEnvelopeDecayTime ...
func (l *LadderNode) SetEnvelopeDecayTime(sec float64) {
	l.envDecayTime = sec
}

// SetEnvelopeSustainLevel takes 0..1; 1 holds the peak, 0 falls back to the
// knob cutoff.
func (l *LadderNode) SetEnvelopeSustainLevel(level float64) {
	l.envSustain = level
}

// TriggerAttack begins a contour sweep from startCutoff toward twice
// peakCutoff over attackTime seconds, then decays toward the sustain point.
func (l *LadderNode) TriggerAttack(startCutoff, peakCutoff, attackTime float64) {
	l.envStart = startCutoff
	l.envTarget = peakCutoff * 2
	l.envStartTime = l.ctx.CurrentTime()
	l.envDuration = attackTime
	l.envPhase = 1
	l.envActive = true
}

// TriggerRelease hands the cutoff back toward targetCutoff. The move is
// carried out by the smoothing stage, not a timed sweep.
func (l *LadderNode) TriggerRelease(targetCutoff, releaseTime float64) {
	l.envStart = l.envCutoff
	l.envTarget = targetCutoff
	l.envStartTime = l.ctx.CurrentTime()
	l.envDuration = releaseTime
	l.envPhase = 0
	l.targetCutoff = targetCutoff
}

// updateEnvelope advances the contour once per quantum. Phase 0 covers both
// idle and release; the release move itself rides on the per-quantum cutoff
// smoothing rather than a timed sweep.
func (l *LadderNode) updateEnvelope(time float64) {
	l.now = time
	if l.envPhase == 0 {
		return
	}
	elapsed := time - l.envStartTime
	progress := 1.0
	if l.envDuration > 0 {
		progress = elapsed / l.envDuration
	}
	if progress >= 1 {
		switch l.envPhase {
		case 1:
			l.envStart = l.envTarget
			sustainCutoff := l.envStart + (l.manualCutoff-l.envStart)*(1-l.envSustain)
			l.envTarget = sustainCutoff
			l.envStartTime = time
			l.envDuration = l.envDecayTime
			l.envPhase = 2
		case 2:
			l.envPhase = 3
		case 3:
			return
		}
		progress = 1
	}
	l.envCutoff = l.envStart + (l.envTarget-l.envStart)*progress
	l.targetCutoff = l.envCutoff
}

func (l *LadderNode) updateCoefficients() {
	fc := l.cutoff / l.ctx.rate
	if fc > 0.45 {
		fc = 0.45
	}
	f := fc * 0.5 // oversampled
	fc2 := fc * fc
	fc3 := fc2 * fc

	fcr := 1.8730*fc3 + 0.4955*fc2 - 0.6490*fc + 0.9988
	l.acr = -3.9364*fc2 + 1.8409*fc + 0.9968
	l.tune = (1.0 - math.Exp(-(2*math.Pi)*f*fcr)) / ladderThermal
	l.resQuad = 4.0 * l.resonance * l.acr
}

// enhancedTanh is the saturator stage: tanh plus slight asymmetry and level
// dependent harmonic content, scaled down at high drive to limit aliasing.
func enhancedTanh(x float64) float64 {
	basic := math.Tanh(x)
	asymmetry := 1.0
	if x <= 0 {
		asymmetry = 0.98
	}
	absX := math.Abs(x)
	inputScale := absX / (1 + absX)
	freqScale := 1 / (1 + 2*inputScale)
	harmonicBoost := 1 + 0.015*inputScale*freqScale
	evenHarmonic := 0.008 * x * inputScale * freqScale / (1 + absX)
	thirdHarmonic := 0.006 * x * inputScale * inputScale * freqScale
	intermod := 0.004 * x * inputScale * freqScale
	return asymmetry*basic*harmonicBoost + evenHarmonic + thirdHarmonic + intermod
}

func (l *LadderNode) process(out []float64, startTime float64) {
	sumInputs(&l.nodeBase, out, l.lastQuantum, startTime)

	l.updateEnvelope(startTime)
	l.cutoff += (l.targetCutoff - l.cutoff) * ladderSmoothing
	l.resonance += (l.targetResonance - l.resonance) * ladderSmoothing
	l.updateCoefficients()

	for i := range out {
		in := out[i]
		dcBlocked := in - l.dcBlockIn + dcBlockCoeff*l.dcBlockOut
		l.dcBlockIn = in
		l.dcBlockOut = dcBlocked

		for j := 0; j < 2; j++ {
			input := dcBlocked - l.resQuad*l.delay[5]

			l.stage[0] = l.delay[0] + l.tune*(enhancedTanh(input*ladderThermal)-l.stageTanh[0])
			l.delay[0] = l.stage[0]

			l.stageTanh[0] = enhancedTanh(l.stage[0] * ladderThermal)
			l.stage[1] = l.delay[1] + l.tune*(l.stageTanh[0]-l.stageTanh[1])
			l.delay[1] = l.stage[1]

			l.stageTanh[1] = enhancedTanh(l.stage[1] * ladderThermal)
			l.stage[2] = l.delay[2] + l.tune*(l.stageTanh[1]-l.stageTanh[2])
			l.delay[2] = l.stage[2]

			l.stageTanh[2] = enhancedTanh(l.stage[2] * ladderThermal)
			l.stage[3] = l.delay[3] + l.tune*(l.stageTanh[2]-enhancedTanh(l.delay[3]*ladderThermal))
			l.delay[3] = l.stage[3]

			// half-sample delay for phase compensation
			l.delay[5] = (l.stage[3] + l.delay[4]) * 0.5
			l.delay[4] = l.stage[3]
		}
		out[i] = l.delay[5]
	}
}

// resetForPool zeroes every stage and knob so a recycled filter starts cold.
func (l *LadderNode) resetForPool() {
	l.reset()
}
