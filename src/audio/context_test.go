package audio

import (
	"testing"
)

func allZero(buf []float64) bool {
	for _, v := range buf {
		if v != 0 {
			return false
		}
	}
	return true
}

func anyNonZero(buf []float64) bool {
	return !allZero(buf)
}

func TestContextClock(t *testing.T) {
	ctx := NewContext(sampleRate)
	expectNearlyEqual(t, ctx.CurrentTime(), 0)
	buf := make([]float64, 1024)
	ctx.ReadSamples(buf)
	ctx.ReadSamples(buf)
	expectNearlyEqual(t, ctx.CurrentTime(), 2048.0/sampleRate)
}

func TestContextIDsAreUnique(t *testing.T) {
	a := NewContext(sampleRate)
	b := NewContext(sampleRate)
	if a.ID() == b.ID() {
		t.Errorf("expected distinct context ids, got %v twice", a.ID())
	}
}

func TestReadSamplesCarriesRemainder(t *testing.T) {
	ctx := NewContext(sampleRate)
	// two partial reads consume exactly one render quantum
	ctx.ReadSamples(make([]float64, 100))
	ctx.ReadSamples(make([]float64, 28))
	expectNearlyEqual(t, ctx.CurrentTime(), float64(renderQuantum)/sampleRate)
}

func TestOscillatorRendersThroughChain(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	g := ctx.NewGain(1)
	g.Gain.SetValueAtTime(1, 0)
	Connect(osc, g)
	Connect(g, ctx.Destination())
	osc.Frequency.SetValueAtTime(440, 0)
	osc.Start()

	buf := make([]float64, 4096)
	ctx.ReadSamples(buf)
	expectEqual(t, anyNonZero(buf), true)
	for _, v := range buf {
		if v < -1.0001 || v > 1.0001 {
			t.Errorf("sine sample out of range: %v", v)
			break
		}
	}
}

func TestOscillatorIsOneShot(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	Connect(osc, ctx.Destination())
	osc.Frequency.SetValueAtTime(440, 0)

	buf := make([]float64, 1024)
	ctx.ReadSamples(buf)
	expectEqual(t, allZero(buf), true) // not started yet

	osc.Start()
	ctx.ReadSamples(buf)
	expectEqual(t, anyNonZero(buf), true)

	osc.Stop()
	ctx.ReadSamples(buf)
	expectEqual(t, allZero(buf), true)

	osc.Start() // a stopped source never restarts
	ctx.ReadSamples(buf)
	expectEqual(t, allZero(buf), true)
}

func TestFanOutSumsAtDestination(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	a := ctx.NewGain(0)
	b := ctx.NewGain(0)
	a.Gain.SetValueAtTime(1, 0)
	b.Gain.SetValueAtTime(1, 0)
	Connect(osc, a)
	Connect(osc, b)
	Connect(a, ctx.Destination())
	Connect(b, ctx.Destination())
	osc.Frequency.SetValueAtTime(100, 0)
	osc.Start()

	buf := make([]float64, 8192)
	ctx.ReadSamples(buf)
	peak := 0.0
	for _, v := range buf {
		if v > peak {
			peak = v
		}
	}
	// both branches carry the same memoized source, so the sum doubles
	expectWithin(t, peak, 2, 0.01)
}

func TestDetachSeversBothDirections(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	g := ctx.NewGain(1)
	Connect(osc, g)
	Connect(g, ctx.Destination())
	ConnectParam(g, osc.Frequency)

	ctx.detach(g)
	expectEqual(t, len(g.base().inputs), 0)
	expectEqual(t, len(ctx.Destination().base().inputs), 0)
	expectEqual(t, len(osc.Frequency.inputs), 0)
}

func TestCloseSilencesPermanently(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	Connect(osc, ctx.Destination())
	osc.Frequency.SetValueAtTime(440, 0)
	osc.Start()

	buf := make([]float64, 1024)
	ctx.ReadSamples(buf)
	expectEqual(t, anyNonZero(buf), true)

	ctx.Close()
	ctx.Close() // closing twice is fine
	ctx.ReadSamples(buf)
	expectEqual(t, allZero(buf), true)
}
