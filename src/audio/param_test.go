package audio

import (
	"math"
	"testing"
)

func TestParamDefaultValue(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 440, 0, 22050)
	expectNearlyEqual(t, p.Value(), 440)
}

func TestParamSetValueAtTime(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(100, 0)
	expectNearlyEqual(t, p.valueAt(0), 100)
	expectNearlyEqual(t, p.valueAt(10), 100)
}

func TestParamLinearRampEndpoints(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(100, 0)
	p.LinearRampToValueAtTime(200, 1.0)
	expectNearlyEqual(t, p.valueAt(0), 100)
	expectNearlyEqual(t, p.valueAt(0.25), 125)
	expectNearlyEqual(t, p.valueAt(0.5), 150)
	expectNearlyEqual(t, p.valueAt(1.0), 200)
	expectNearlyEqual(t, p.valueAt(5.0), 200)
}

func TestParamRampRetarget(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(100, 0)
	p.LinearRampToValueAtTime(200, 1.0)
	// halfway through, bend toward a new target from the reached value
	expectNearlyEqual(t, p.valueAt(0.5), 150)
	p.CancelScheduledValues(0.5)
	p.SetValueAtTime(150, 0.5)
	p.LinearRampToValueAtTime(0, 1.5)
	expectNearlyEqual(t, p.valueAt(0.5), 150)
	expectNearlyEqual(t, p.valueAt(1.0), 75)
	expectNearlyEqual(t, p.valueAt(1.5), 0)
}

func TestParamTimestampsClampedMonotonic(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(1, 5)
	p.SetValueAtTime(2, 3) // stamped in the past, clamped up to 5
	expectNearlyEqual(t, p.valueAt(4), 0)
	expectNearlyEqual(t, p.valueAt(5), 2)
}

func TestParamCancelDropsOnlyFuture(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(10, 1)
	p.SetValueAtTime(20, 2)
	p.SetValueAtTime(30, 3)
	p.CancelScheduledValues(2)
	expectNearlyEqual(t, p.valueAt(10), 10)
}

func TestParamCancelReopensTimeline(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(10, 5)
	p.CancelScheduledValues(1)
	// the cancel lowers the monotonic fence so new events can land at 1
	p.SetValueAtTime(7, 1)
	expectNearlyEqual(t, p.valueAt(2), 7)
}

func TestParamSetTarget(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(1, 0)
	p.SetTargetAtTime(0, 1, 0.5)
	expectNearlyEqual(t, p.valueAt(1), 1)
	expectNearlyEqual(t, p.valueAt(1.5), math.Exp(-1))
	expectWithin(t, p.valueAt(20), 0, 0.0001)
}

func TestParamSetTargetZeroConstant(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetTargetAtTime(5, 1, 0)
	// degenerate time constant behaves as an instantaneous set
	expectNearlyEqual(t, p.valueAt(1), 5)
}

func TestParamRejectsNaN(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(100, 0)
	p.valueAt(0)
	p.SetValueAtTime(math.NaN(), 1)
	// the poisoned write clamps to the previous value instead of spreading
	v := p.valueAt(2)
	if math.IsNaN(v) {
		t.Errorf("expected a finite value, but got NaN")
	}
}

func TestParamClampsToRange(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 100)
	p.SetValueAtTime(500, 0)
	expectNearlyEqual(t, p.valueAt(0), 100)
	p.SetValueAtTime(-3, 1)
	expectNearlyEqual(t, p.valueAt(1), 0)
}

func TestParamValueFollowsContextClock(t *testing.T) {
	ctx := NewContext(sampleRate)
	g := ctx.NewGain(0)
	p := g.Gain
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(1, 1.0)
	buf := make([]float64, sampleRate/2)
	ctx.ReadSamples(buf)
	expectWithin(t, p.Value(), 0.5, 0.01)
}

func TestParamReset(t *testing.T) {
	ctx := NewContext(sampleRate)
	p := newParam(ctx, "test", 0, 0, 1000)
	p.SetValueAtTime(100, 0)
	p.LinearRampToValueAtTime(200, 1)
	p.reset(0)
	expectNearlyEqual(t, p.valueAt(0.5), 0)
	expectEqual(t, len(p.events), 0)
}
