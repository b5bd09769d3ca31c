package audio

// ----- Noise Node ----- //

type noiseColor int

const (
	noiseWhite noiseColor = iota
	noisePink
)

// NoiseNode produces white or pink noise from a deterministic xorshift
// stream. Like the oscillator it is one-shot.
type NoiseNode struct {
	nodeBase
	color      noiseColor
	state      uint32
	b0, b1, b2 float64
	started    bool
	stopped    bool
}

// NewNoise ...
func (c *Context) NewNoise(color noiseColor) *NoiseNode {
	n := &NoiseNode{color: color, state: 0x9d2c5680}
	n.init(c, kindNoise)
	c.register(n)
	return n
}

func (n *NoiseNode) base() *nodeBase  { return &n.nodeBase }
func (n *NoiseNode) params() []*Param { return nil }

// Start ...
func (n *NoiseNode) Start() { n.started = true }

// Stop ...
func (n *NoiseNode) Stop() { n.stopped = true }

func (n *NoiseNode) white() float64 {
	n.state ^= n.state << 13
	n.state ^= n.state >> 17
	n.state ^= n.state << 5
	return float64(int32(n.state)) / (1 << 31)
}

func (n *NoiseNode) process(out []float64, startTime float64) {
	if !n.started || n.stopped {
		return
	}
	switch n.color {
	case noisePink:
		// Paul Kellet's economy pink filter over the white stream.
		for i := range out {
			w := n.white()
			n.b0 = 0.99765*n.b0 + w*0.0990460
			n.b1 = 0.96300*n.b1 + w*0.2965164
			n.b2 = 0.57000*n.b2 + w*1.0526913
			out[i] = (n.b0 + n.b1 + n.b2 + w*0.1848) * 0.2
		}
	default:
		for i := range out {
			out[i] = n.white()
		}
	}
}
