package audio

import (
	"math"
)

// ----- Waveforms ----- //

type waveformKind int

const (
	waveTriangle waveformKind = iota
	waveTriangleSaw
	waveSawtooth
	waveReverseSaw
	wavePulseWide
	wavePulseNarrow
	wavePulseNarrowest
)

func (k waveformKind) String() string {
	switch k {
	case waveTriangle:
		return "triangle"
	case waveTriangleSaw:
		return "triangle-saw"
	case waveSawtooth:
		return "sawtooth"
	case waveReverseSaw:
		return "reverse-saw"
	case wavePulseWide:
		return "pulse-wide"
	case wavePulseNarrow:
		return "pulse-narrow"
	case wavePulseNarrowest:
		return "pulse-narrowest"
	}
	return "unknown"
}

// waveformKindFromString accepts the canonical names plus the short pulse
// aliases. Unknown names fall back to triangle so a configuration typo can
// never silence the voice; ok reports whether the name was recognized.
func waveformKindFromString(s string) (kind waveformKind, ok bool) {
	switch s {
	case "triangle":
		return waveTriangle, true
	case "triangle-saw", "tri-saw":
		return waveTriangleSaw, true
	case "sawtooth", "saw":
		return waveSawtooth, true
	case "reverse-saw", "rev-saw":
		return waveReverseSaw, true
	case "pulse-wide", "pulse1":
		return wavePulseWide, true
	case "pulse-narrow", "pulse2":
		return wavePulseNarrow, true
	case "pulse-narrowest", "pulse3":
		return wavePulseNarrowest, true
	}
	return waveTriangle, false
}

// custom reports whether the kind needs a generated periodic wave rather
// than a builtin oscillator shape.
func (k waveformKind) custom() bool {
	switch k {
	case waveTriangleSaw, waveReverseSaw, wavePulseWide, wavePulseNarrow, wavePulseNarrowest:
		return true
	}
	return false
}

func (k waveformKind) dutyCycle() float64 {
	switch k {
	case wavePulseWide:
		return 0.5
	case wavePulseNarrow:
		return 0.25
	case wavePulseNarrowest:
		return 0.10
	}
	return 0.5
}

const defaultHarmonics = 64

// Deterministic spectral shaping constants. The boosts land on low odd
// harmonics where transistor saturation buzz concentrates; the small even
// terms fatten waveforms whose ideal series has none.
const (
	evenWarmthLevel  = 0.018
	evenWarmthCutoff = 8
	triSawWarmth     = 0.012
	lowBoostFactor   = 1.15
	lowBoostCutoff   = 4
	highBoostFactor  = 1.06
	highBoostOnset   = 16
)

func saturationBoost(i int) float64 {
	switch i {
	case 2:
		return 1.12
	case 3:
		return 1.18
	case 5:
		return 1.12
	case 7:
		return 1.08
	case 9:
		return 1.05
	}
	return 1
}

// generateWaveform builds the Fourier coefficient pair for a custom wave.
// Pure and deterministic: the same kind and harmonic count always produce
// bit-identical slices. Index 0 is the DC term and stays zero; all series
// go into the sine (imag) half.
func generateWaveform(kind waveformKind, harmonics int) (real, imag []float64) {
	if harmonics < 1 {
		harmonics = defaultHarmonics
	}
	real = make([]float64, harmonics+1)
	imag = make([]float64, harmonics+1)

	switch kind {
	case wavePulseWide, wavePulseNarrow, wavePulseNarrowest:
		duty := kind.dutyCycle()
		for i := 1; i <= harmonics; i++ {
			c := (2 / (float64(i) * math.Pi)) * math.Sin(math.Pi*float64(i)*duty)
			c *= saturationBoost(i)
			if i%2 == 0 && i < evenWarmthCutoff {
				c += evenWarmthLevel / float64(i)
			}
			imag[i] = c
		}
	case waveTriangleSaw:
		for i := 1; i <= harmonics; i++ {
			c := 0.5 * sawSeries(i)
			if i%2 == 1 {
				c += 0.5 * triangleSeries(i)
			}
			if i%2 == 0 && i < evenWarmthCutoff {
				c += triSawWarmth / float64(i)
			}
			imag[i] = c
		}
	case waveReverseSaw:
		for i := 1; i <= harmonics; i++ {
			c := -sawSeries(i)
			if i <= lowBoostCutoff {
				c *= lowBoostFactor
			}
			if i >= highBoostOnset {
				c *= highBoostFactor
			}
			imag[i] = c
		}
	default:
		// builtin kinds have no custom spectrum; callers check custom()
		// first, but returning a plain triangle keeps this total.
		for i := 1; i <= harmonics; i += 2 {
			imag[i] = triangleSeries(i)
		}
	}
	return real, imag
}

// sawSeries is the descending-sawtooth sine series term.
func sawSeries(i int) float64 {
	sign := 1.0
	if i%2 == 0 {
		sign = -1
	}
	return sign * (2 / math.Pi) / float64(i)
}

// triangleSeries is the triangle sine series term, odd harmonics only.
func triangleSeries(i int) float64 {
	sign := 1.0
	if (i-1)/2%2 == 1 {
		sign = -1
	}
	return sign * (8 / (math.Pi * math.Pi)) / (float64(i) * float64(i))
}

// ----- Wave Cache ----- //

type waveCacheKey struct {
	ctxID uint64
	kind  waveformKind
}

// waveCache memoizes one PeriodicWave per (context, kind). The engine owns
// the cache and evicts a context's entries when that context is closed, so
// no entry outlives the graph it was built against.
type waveCache struct {
	entries map[waveCacheKey]*PeriodicWave
}

func newWaveCache() *waveCache {
	return &waveCache{entries: map[waveCacheKey]*PeriodicWave{}}
}

func (wc *waveCache) get(ctx *Context, kind waveformKind) *PeriodicWave {
	key := waveCacheKey{ctxID: ctx.ID(), kind: kind}
	if w, ok := wc.entries[key]; ok {
		return w
	}
	real, imag := generateWaveform(kind, defaultHarmonics)
	w := ctx.NewPeriodicWave(real, imag)
	wc.entries[key] = w
	return w
}

func (wc *waveCache) evictContext(ctxID uint64) {
	for key := range wc.entries {
		if key.ctxID == ctxID {
			delete(wc.entries, key)
		}
	}
}

func (wc *waveCache) size() int {
	return len(wc.entries)
}
