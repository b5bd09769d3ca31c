package audio

// ----- Graph Context ----- //

// The graph layer stands in for the host audio context: it owns the sample
// clock, constructs nodes, and renders the node graph in fixed quanta. All
// parameter changes arrive as scheduled writes against CurrentTime, never as
// direct mutation during rendering.

const (
	sampleRate      = 44100
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	renderQuantum   = 128 // frames per graph pull
	spectrumSize    = 2048
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample
const baseFreq = 440.0

// ----- Node Kind ----- //

type nodeKind int

const (
	kindOscillator nodeKind = iota
	kindGain
	kindNoise
	kindAnalyser
	kindLadder
	kindDestination
)

func (k nodeKind) oneShot() bool {
	return k == kindOscillator || k == kindNoise
}

func (k nodeKind) String() string {
	switch k {
	case kindOscillator:
		return "oscillator"
	case kindGain:
		return "gain"
	case kindNoise:
		return "noise"
	case kindAnalyser:
		return "analyser"
	case kindLadder:
		return "ladder"
	case kindDestination:
		return "destination"
	}
	return "unknown"
}

// ----- Node ----- //

// Node is anything that produces one mono quantum of samples when pulled.
type Node interface {
	base() *nodeBase
	params() []*Param
	process(out []float64, startTime float64)
}

type nodeBase struct {
	ctx         *Context
	kind        nodeKind
	inputs      []Node
	out         []float64
	lastQuantum int64
	dead        bool
}

func (b *nodeBase) init(ctx *Context, kind nodeKind) {
	b.ctx = ctx
	b.kind = kind
	b.out = make([]float64, renderQuantum)
	b.lastQuantum = -1
}

// render pulls one quantum from a node, memoized so that fan-out does not
// recompute shared sources within the same quantum.
func render(n Node, quantum int64, startTime float64) []float64 {
	b := n.base()
	if b.lastQuantum == quantum {
		return b.out
	}
	b.lastQuantum = quantum
	for i := range b.out {
		b.out[i] = 0
	}
	if !b.dead {
		n.process(b.out, startTime)
	}
	return b.out
}

func sumInputs(b *nodeBase, out []float64, quantum int64, startTime float64) {
	for _, in := range b.inputs {
		src := render(in, quantum, startTime)
		for i := range out {
			out[i] += src[i]
		}
	}
}

// Connect wires src's output into dst's input list. Connecting twice stacks
// (the signal is summed twice), matching the host-graph behavior, so callers
// disconnect before rewiring.
func Connect(src, dst Node) {
	if src == nil || dst == nil || src.base().dead || dst.base().dead {
		return
	}
	b := dst.base()
	b.inputs = append(b.inputs, src)
}

// ConnectParam routes src's output into a parameter's modulation inputs; the
// samples are summed onto the parameter's automation value frame by frame.
func ConnectParam(src Node, p *Param) {
	if src == nil || p == nil || src.base().dead {
		return
	}
	p.inputs = append(p.inputs, src)
}

func removeNode(list []Node, n Node) []Node {
	kept := list[:0]
	for _, x := range list {
		if x != n {
			kept = append(kept, x)
		}
	}
	return kept
}

// ----- Destination ----- //

type destNode struct {
	nodeBase
}

func (d *destNode) base() *nodeBase  { return &d.nodeBase }
func (d *destNode) params() []*Param { return nil }
func (d *destNode) process(out []float64, startTime float64) {
	sumInputs(&d.nodeBase, out, d.lastQuantum, startTime)
}

// ----- Context ----- //

var nextContextID uint64

// Context owns the render clock and every node created against it.
type Context struct {
	id     uint64
	rate   float64
	frames int64
	cycle  int64
	nodes  []Node
	dest   *destNode
	rem    []float64
	closed bool
}

// NewContext ...
func NewContext(rate int) *Context {
	if rate <= 0 {
		rate = sampleRate
	}
	nextContextID++
	ctx := &Context{
		id:   nextContextID,
		rate: float64(rate),
	}
	ctx.dest = &destNode{}
	ctx.dest.init(ctx, kindDestination)
	ctx.nodes = append(ctx.nodes, ctx.dest)
	return ctx
}

// ID distinguishes contexts for cache keys.
func (c *Context) ID() uint64 { return c.id }

// SampleRate ...
func (c *Context) SampleRate() float64 { return c.rate }

// CurrentTime is the amount of audio rendered so far, in seconds. Every
// scheduled parameter write is stamped with this clock.
func (c *Context) CurrentTime() float64 {
	return float64(c.frames) / c.rate
}

// Destination is the sink the final output stage connects to.
func (c *Context) Destination() Node { return c.dest }

func (c *Context) register(n Node) {
	c.nodes = append(c.nodes, n)
}

// detach removes every edge touching n, in both directions.
func (c *Context) detach(n Node) {
	for _, other := range c.nodes {
		ob := other.base()
		ob.inputs = removeNode(ob.inputs, n)
		for _, p := range other.params() {
			p.inputs = removeNode(p.inputs, n)
		}
	}
	n.base().inputs = n.base().inputs[:0]
}

// destroy detaches n and drops it from the graph entirely. Used for one-shot
// nodes; pooled nodes are only detached and reset.
func (c *Context) destroy(n Node) {
	if n == nil || n.base().dead {
		return
	}
	c.detach(n)
	n.base().dead = true
	kept := c.nodes[:0]
	for _, x := range c.nodes {
		if x != n {
			kept = append(kept, x)
		}
	}
	c.nodes = kept
}

// ReadSamples renders the graph forward and fills dst with mono samples.
// A closed context yields silence.
func (c *Context) ReadSamples(dst []float64) int {
	if c.closed {
		for i := range dst {
			dst[i] = 0
		}
		return len(dst)
	}
	filled := 0
	if len(c.rem) > 0 {
		n := copy(dst, c.rem)
		c.rem = c.rem[n:]
		filled += n
	}
	for filled < len(dst) {
		startTime := c.CurrentTime()
		buf := render(c.dest, c.cycle, startTime)
		c.cycle++
		c.frames += renderQuantum
		n := copy(dst[filled:], buf)
		filled += n
		if n < len(buf) {
			c.rem = append(c.rem[:0], buf[n:]...)
		}
	}
	return filled
}

// Close makes the context permanently silent. Closing twice is a no-op.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, n := range c.nodes {
		n.base().dead = true
		n.base().inputs = nil
	}
	c.nodes = c.nodes[:0]
	c.rem = nil
}
