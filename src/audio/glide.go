package audio

import (
	"math"
)

// ----- Glide ----- //

const controlRampSeconds = 0.02

// glideSeconds maps the 0..10 glide knob to a ramp duration. The mapping is
// exponential: 0 gives 20ms, 10 gives 2s.
func glideSeconds(knob float64) float64 {
	knob = sanitize(knob, 0, 0, 10)
	return math.Pow(10, knob/5) * 0.02
}

// stepParam discards pending automation and jumps the parameter to target
// at now.
func stepParam(p *Param, now, target float64) {
	p.CancelScheduledValues(now)
	p.SetValueAtTime(target, now)
}

// rampParam glides the parameter to target over seconds, anchored at
// whatever value the previous automation had reached. Retargeting mid-ramp
// therefore bends from the current value, not the old target.
func rampParam(p *Param, now, target, seconds float64) {
	from := p.Value()
	p.CancelScheduledValues(now)
	p.SetValueAtTime(from, now)
	p.LinearRampToValueAtTime(target, now+seconds)
}

// applyGlide is the portamento decision: ramp when glide is on and there is
// a previous pitch to glide from, step otherwise. Gliding from silence is
// meaningless, so hasPrev=false always steps.
func applyGlide(p *Param, now, targetHz float64, hasPrev, enabled bool, knob float64) {
	if !enabled || !hasPrev {
		stepParam(p, now, targetHz)
		return
	}
	rampParam(p, now, targetHz, glideSeconds(knob))
}
