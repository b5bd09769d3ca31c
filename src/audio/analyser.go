package audio

import (
	"math"
	"math/cmplx"

	"github.com/ktye/fft"
)

// ----- Analyser Node ----- //

// AnalyserNode passes its input through unchanged while keeping the most
// recent window of samples for spectrum readout. The UI polls Spectrum; the
// audio path never depends on it.
type AnalyserNode struct {
	nodeBase
	ring   []float64
	pos    int
	filled bool
	fft    fft.FFT
	work   []complex128
}

// NewAnalyser ...
func (c *Context) NewAnalyser() *AnalyserNode {
	a := &AnalyserNode{
		ring: make([]float64, spectrumSize),
		work: make([]complex128, spectrumSize),
	}
	a.init(c, kindAnalyser)
	f, err := fft.New(spectrumSize)
	if err != nil {
		panic(err) // spectrumSize is a power of two
	}
	a.fft = f
	c.register(a)
	return a
}

func (a *AnalyserNode) base() *nodeBase  { return &a.nodeBase }
func (a *AnalyserNode) params() []*Param { return nil }

func (a *AnalyserNode) process(out []float64, startTime float64) {
	sumInputs(&a.nodeBase, out, a.lastQuantum, startTime)
	for _, v := range out {
		a.ring[a.pos] = v
		a.pos++
		if a.pos == len(a.ring) {
			a.pos = 0
			a.filled = true
		}
	}
}

// Spectrum returns Hann-windowed magnitudes for the captured window, DC up
// to Nyquist.
func (a *AnalyserNode) Spectrum() []float64 {
	n := len(a.ring)
	for i := 0; i < n; i++ {
		v := a.ring[(a.pos+i)%n]
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		a.work[i] = complex(v*w, 0)
	}
	a.work = a.fft.Transform(a.work)
	mags := make([]float64, n/2)
	for i := range mags {
		mags[i] = 2 * cmplx.Abs(a.work[i]) / float64(n)
	}
	return mags
}

// resetForPool clears the capture window.
func (a *AnalyserNode) resetForPool() {
	for i := range a.ring {
		a.ring[i] = 0
	}
	a.pos = 0
	a.filled = false
}
