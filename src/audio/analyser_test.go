package audio

import (
	"testing"
)

func TestAnalyserSpectrumPeak(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	binWidth := float64(sampleRate) / spectrumSize
	osc.Frequency.SetValueAtTime(binWidth*64, 0)
	a := ctx.NewAnalyser()
	Connect(osc, a)
	Connect(a, ctx.Destination())
	osc.Start()

	buf := make([]float64, 2*spectrumSize)
	ctx.ReadSamples(buf)

	mags := a.Spectrum()
	expectEqual(t, len(mags), spectrumSize/2)
	peak := 0
	for i, m := range mags {
		if m > mags[peak] {
			peak = i
		}
	}
	expectEqual(t, peak, 64)
	// a full-scale sine lands at 0.5 through the Hann window
	expectWithin(t, mags[64], 0.5, 0.05)
}

func TestAnalyserPassesInputThrough(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	osc.Frequency.SetValueAtTime(440, 0)
	a := ctx.NewAnalyser()
	Connect(osc, a)
	Connect(a, ctx.Destination())
	osc.Start()

	buf := make([]float64, 1024)
	ctx.ReadSamples(buf)
	expectEqual(t, anyNonZero(buf), true)
}

func TestAnalyserPoolReset(t *testing.T) {
	ctx := NewContext(sampleRate)
	osc := ctx.NewOscillator()
	osc.SetShape(shapeSine)
	a := ctx.NewAnalyser()
	Connect(osc, a)
	Connect(a, ctx.Destination())
	osc.Start()

	buf := make([]float64, 1024)
	ctx.ReadSamples(buf)
	a.resetForPool()
	expectEqual(t, allZero(a.ring), true)
	expectEqual(t, a.pos, 0)

	mags := a.Spectrum()
	expectEqual(t, allZero(mags), true)
}
