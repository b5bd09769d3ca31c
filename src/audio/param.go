package audio

import (
	"math"
)

// ----- Param ----- //

// Param is a scheduled, audio-rate controllable value. Automation events are
// kept in issue order with monotonically clamped timestamps, so a caller that
// always stamps events with CurrentTime can never corrupt the timeline.
// Outputs of other nodes may be routed into a Param; their samples are summed
// onto the automated value each frame.

type paramEventKind int

const (
	eventSetValue paramEventKind = iota
	eventLinearRamp
	eventSetTarget
)

type paramEvent struct {
	kind         paramEventKind
	value        float64
	time         float64
	timeConstant float64
}

// Param holds an automation timeline plus modulation inputs.
type Param struct {
	ctx      *Context
	name     string
	min, max float64

	events   []paramEvent
	lastTime float64 // latest timestamp issued, for monotonic clamping

	// incremental evaluation state
	idx         int
	anchorValue float64
	anchorTime  float64
	target      *paramEvent // active setTarget, nil when none

	inputs []Node
	buf    []float64
}

func newParam(ctx *Context, name string, def, min, max float64) *Param {
	return &Param{
		ctx:         ctx,
		name:        name,
		min:         min,
		max:         max,
		anchorValue: def,
	}
}

func (p *Param) clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return p.anchorValue
	}
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}

// clampTime forces issue-order monotonicity: an event stamped earlier than a
// previously issued one is moved up to the previous timestamp.
func (p *Param) clampTime(t float64) float64 {
	if math.IsNaN(t) || t < p.lastTime {
		t = p.lastTime
	}
	p.lastTime = t
	return t
}

// SetValueAtTime schedules an instantaneous jump to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.events = append(p.events, paramEvent{
		kind:  eventSetValue,
		value: p.clamp(v),
		time:  p.clampTime(t),
	})
}

// LinearRampToValueAtTime schedules a linear glide ending at v at time t,
// starting from wherever the previous event left the value.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.events = append(p.events, paramEvent{
		kind:  eventLinearRamp,
		value: p.clamp(v),
		time:  p.clampTime(t),
	})
}

// SetTargetAtTime schedules an exponential approach toward v starting at t.
// The approach stays active until a later event supersedes it.
func (p *Param) SetTargetAtTime(v, t, timeConstant float64) {
	if timeConstant <= 0 || math.IsNaN(timeConstant) {
		p.SetValueAtTime(v, t)
		return
	}
	p.events = append(p.events, paramEvent{
		kind:         eventSetTarget,
		value:        p.clamp(v),
		time:         p.clampTime(t),
		timeConstant: timeConstant,
	})
}

// CancelScheduledValues drops every event stamped at or after t. The value
// holds at whatever the surviving timeline produces.
func (p *Param) CancelScheduledValues(t float64) {
	if math.IsNaN(t) {
		return
	}
	kept := p.events[:0]
	for _, ev := range p.events {
		if ev.time < t {
			kept = append(kept, ev)
		}
	}
	if len(kept) < p.idx {
		p.idx = len(kept)
	}
	p.events = kept
	if p.target != nil && p.target.time >= t {
		p.target = nil
	}
	if p.lastTime >= t {
		p.lastTime = t
	}
}

// Value is the automated value as of the current context time, ignoring
// modulation inputs. Glide anchors ramps on this.
func (p *Param) Value() float64 {
	if p.ctx == nil {
		return p.anchorValue
	}
	return p.valueAt(p.ctx.CurrentTime())
}

// anchorValueAt realizes the active setTarget curve at time t without
// consuming events. Only valid for t at or after the anchor.
func (p *Param) anchorValueAt(t float64) float64 {
	if p.target != nil {
		dt := t - p.anchorTime
		if dt < 0 {
			dt = 0
		}
		return p.target.value + (p.anchorValue-p.target.value)*math.Exp(-dt/p.target.timeConstant)
	}
	return p.anchorValue
}

// consume advances the event cursor past every event due at or before t,
// folding each into the anchor state.
func (p *Param) consume(t float64) {
	for p.idx < len(p.events) && p.events[p.idx].time <= t {
		ev := p.events[p.idx]
		switch ev.kind {
		case eventSetValue, eventLinearRamp:
			p.anchorValue = ev.value
			p.anchorTime = ev.time
			p.target = nil
		case eventSetTarget:
			p.anchorValue = p.anchorValueAt(ev.time)
			p.anchorTime = ev.time
			ev := ev
			p.target = &ev
		}
		p.idx++
	}
}

// valueAt evaluates the intrinsic (modulation-free) value at time t. Times
// must be fed in non-decreasing order.
func (p *Param) valueAt(t float64) float64 {
	p.consume(t)
	if p.idx < len(p.events) {
		next := p.events[p.idx]
		if next.kind == eventLinearRamp && next.time > t {
			from := p.anchorValue
			span := next.time - p.anchorTime
			if span <= 0 {
				return p.clamp(next.value)
			}
			frac := (t - p.anchorTime) / span
			if frac < 0 {
				frac = 0
			}
			return p.clamp(from + (next.value-from)*frac)
		}
	}
	return p.clamp(p.anchorValueAt(t))
}

// valuesInto fills out with one quantum of parameter values starting at
// startTime, automation plus any connected modulation sources.
func (p *Param) valuesInto(out []float64, quantum int64, startTime float64) {
	rate := p.ctx.rate
	for i := range out {
		out[i] = p.valueAt(startTime + float64(i)/rate)
	}
	for _, in := range p.inputs {
		src := render(in, quantum, startTime)
		for i := range out {
			out[i] = p.clamp(out[i] + src[i])
		}
	}
}

// values returns a reused buffer of one quantum of values.
func (p *Param) values(quantum int64, startTime float64) []float64 {
	if p.buf == nil {
		p.buf = make([]float64, renderQuantum)
	}
	p.valuesInto(p.buf, quantum, startTime)
	return p.buf
}

// reset clears the timeline and pins the param at v. Used when a pooled node
// is recycled.
func (p *Param) reset(v float64) {
	p.events = p.events[:0]
	p.idx = 0
	p.target = nil
	p.anchorValue = p.clampRange(v)
	p.anchorTime = 0
	p.lastTime = 0
	p.inputs = p.inputs[:0]
}

func (p *Param) clampRange(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return p.min
	}
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}
