package audio

// ----- Gain Node ----- //

// GainNode scales the sum of its inputs by the Gain parameter. It is the
// only node used both as a level control and, with a node routed into a
// parameter, as a modulation depth scaler.
type GainNode struct {
	nodeBase
	Gain *Param
}

// NewGain ...
func (c *Context) NewGain(value float64) *GainNode {
	g := &GainNode{}
	g.init(c, kindGain)
	g.Gain = newParam(c, "gain", value, -1e6, 1e6)
	c.register(g)
	return g
}

func (g *GainNode) base() *nodeBase  { return &g.nodeBase }
func (g *GainNode) params() []*Param { return []*Param{g.Gain} }

func (g *GainNode) process(out []float64, startTime float64) {
	sumInputs(&g.nodeBase, out, g.lastQuantum, startTime)
	gains := g.Gain.values(g.lastQuantum, startTime)
	for i := range out {
		out[i] *= gains[i]
	}
}

// resetForPool silences the gain and clears its timeline so a recycled node
// cannot leak the previous owner's automation.
func (g *GainNode) resetForPool() {
	g.Gain.reset(0)
}
