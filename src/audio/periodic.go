package audio

import (
	"math"
)

// ----- Periodic Wave ----- //

const (
	tableSize   = 2048
	maxWaveNote = 128
)

// PeriodicWave is a single-cycle waveform defined by Fourier coefficients.
// real holds the cosine terms, imag the sine terms; index 0 is the DC term
// and is ignored. The wave is rendered into one band-limited table per MIDI
// note so that no partial above Nyquist is ever generated.
type PeriodicWave struct {
	real, imag []float64
	tables     [maxWaveNote]*waveTable
}

type waveTable struct {
	values []float64
}

// NewPeriodicWave builds the per-note tables eagerly. Waves are normalized so
// the fully voiced cycle peaks at 1.
func (c *Context) NewPeriodicWave(real, imag []float64) *PeriodicWave {
	n := len(real)
	if len(imag) > n {
		n = len(imag)
	}
	if n < 2 {
		n = 2
	}
	w := &PeriodicWave{
		real: make([]float64, n),
		imag: make([]float64, n),
	}
	copy(w.real, real)
	copy(w.imag, imag)

	full := renderTable(w.real, w.imag, n-1)
	peak := 0.0
	for _, v := range full.values {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	scale := 1.0
	if peak > 0 {
		scale = 1 / peak
	}

	nyquist := c.rate / 2
	prevPartials := -1
	var prev *waveTable
	for note := 0; note < maxWaveNote; note++ {
		partials := maxPartialsForNote(note, nyquist)
		if partials > n-1 {
			partials = n - 1
		}
		if partials == prevPartials {
			w.tables[note] = prev
			continue
		}
		t := renderTable(w.real, w.imag, partials)
		for i := range t.values {
			t.values[i] *= scale
		}
		w.tables[note] = t
		prev = t
		prevPartials = partials
	}
	return w
}

// maxPartialsForNote caps the harmonic series so the highest partial of the
// note's fundamental stays below Nyquist.
func maxPartialsForNote(note int, nyquist float64) int {
	f := noteToFreq(note)
	p := int(nyquist / f)
	if p < 1 {
		p = 1
	}
	return p
}

func renderTable(real, imag []float64, partials int) *waveTable {
	t := &waveTable{values: make([]float64, tableSize)}
	for i := 0; i < tableSize; i++ {
		x := 2 * math.Pi * float64(i) / tableSize
		v := 0.0
		for k := 1; k <= partials && k < len(real); k++ {
			s, c := math.Sincos(float64(k) * x)
			v += real[k]*c + imag[k]*s
		}
		t.values[i] = v
	}
	return t
}

// tableForFreq picks the band-limited table for a playback frequency.
func (w *PeriodicWave) tableForFreq(freq float64) *waveTable {
	return w.tables[noteForFreq(freq)]
}

// noteForFreq maps a frequency to the nearest MIDI note, clamped to range.
func noteForFreq(freq float64) int {
	if freq <= 0 || math.IsNaN(freq) {
		return 0
	}
	note := int(math.Round(12*math.Log2(freq/baseFreq))) + 69
	if note < 0 {
		note = 0
	}
	if note >= maxWaveNote {
		note = maxWaveNote - 1
	}
	return note
}

// getAtPhase reads the table with linear interpolation. phase is in cycles
// and may be any non-negative value.
func (t *waveTable) getAtPhase(phase float64) float64 {
	pos := phase * tableSize
	i := int(pos)
	frac := pos - float64(i)
	i = i % tableSize
	j := i + 1
	if j == tableSize {
		j = 0
	}
	return t.values[i]*(1-frac) + t.values[j]*frac
}
