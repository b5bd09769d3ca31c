package audio

import (
	"math"
	"testing"
)

func TestVibratoAttach(t *testing.T) {
	ctx := NewContext(sampleRate)
	pool := newNodePool(ctx)
	carrier := ctx.NewOscillator()
	v := newVibrato(ctx, pool)

	expectEqual(t, v.attached(), false)
	v.attach(carrier, 440, 1)
	expectEqual(t, v.attached(), true)
	expectNearlyEqual(t, v.lfo.Frequency.Value(), vibratoRateHz)
	expectNearlyEqual(t, v.sc.Gain.Value(), 440*(math.Pow(2, 1.0/12)-1))
	expectEqual(t, len(carrier.Frequency.inputs), 1)
}

func TestVibratoZeroDepthDetaches(t *testing.T) {
	ctx := NewContext(sampleRate)
	pool := newNodePool(ctx)
	carrier := ctx.NewOscillator()
	v := newVibrato(ctx, pool)

	v.attach(carrier, 440, 1)
	v.attach(carrier, 440, 0)
	expectEqual(t, v.attached(), false)
	expectEqual(t, len(carrier.Frequency.inputs), 0)

	v.attach(carrier, 440, math.NaN())
	expectEqual(t, v.attached(), false)
}

func TestVibratoDetachTwice(t *testing.T) {
	ctx := NewContext(sampleRate)
	pool := newNodePool(ctx)
	carrier := ctx.NewOscillator()
	v := newVibrato(ctx, pool)

	v.attach(carrier, 440, 1)
	v.detach()
	v.detach()
	expectEqual(t, v.attached(), false)
	expectEqual(t, len(carrier.Frequency.inputs), 0)
	expectEqual(t, pool.activeCount(), 0)
}

func TestVibratoReattachReplacesLFO(t *testing.T) {
	ctx := NewContext(sampleRate)
	pool := newNodePool(ctx)
	carrier := ctx.NewOscillator()
	v := newVibrato(ctx, pool)

	v.attach(carrier, 440, 1)
	first := v.lfo
	v.attach(carrier, 880, 2)
	expectEqual(t, first.base().dead, true)
	expectEqual(t, v.lfo == first, false)
	expectNearlyEqual(t, v.sc.Gain.Value(), 880*(math.Pow(2, 2.0/12)-1))
	expectEqual(t, len(carrier.Frequency.inputs), 1)
}

func TestVibratoModulatesCarrier(t *testing.T) {
	ctx := NewContext(sampleRate)
	pool := newNodePool(ctx)
	carrier := ctx.NewOscillator()
	Connect(carrier, ctx.Destination())
	carrier.Frequency.SetValueAtTime(440, 0)
	carrier.Start()

	v := newVibrato(ctx, pool)
	v.attach(carrier, 440, 1)

	buf := make([]float64, 4096)
	ctx.ReadSamples(buf)

	// the param reads base plus the LFO contribution, so over a quantum the
	// effective frequency must leave the bare 440
	freqs := carrier.Frequency.values(0, ctx.CurrentTime())
	moved := false
	for _, f := range freqs {
		if math.Abs(f-440) > 0.1 {
			moved = true
		}
	}
	expectEqual(t, moved, true)
}
