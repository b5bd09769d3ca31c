package audio

// ----- Node Pool ----- //

// nodePool hands out graph nodes and takes them back when a voice is done
// with them. Gain, analyser and ladder nodes are recycled after a full
// reset; oscillator and noise nodes are one-shot in the underlying graph,
// so "release" destroys them and a fresh node is built per note.
type nodePool struct {
	ctx   *Context
	free  map[nodeKind][]Node
	inUse map[Node]bool
}

func newNodePool(ctx *Context) *nodePool {
	return &nodePool{
		ctx:   ctx,
		free:  map[nodeKind][]Node{},
		inUse: map[Node]bool{},
	}
}

func (p *nodePool) construct(kind nodeKind) Node {
	switch kind {
	case kindOscillator:
		return p.ctx.NewOscillator()
	case kindGain:
		return p.ctx.NewGain(0)
	case kindNoise:
		return p.ctx.NewNoise(noiseWhite)
	case kindAnalyser:
		return p.ctx.NewAnalyser()
	case kindLadder:
		return p.ctx.NewLadder()
	}
	return nil
}

// acquire returns a free node of the kind, constructing one when the free
// list is empty. The node comes back detached and in its neutral state.
func (p *nodePool) acquire(kind nodeKind) Node {
	var n Node
	if list := p.free[kind]; len(list) > 0 {
		n = list[len(list)-1]
		p.free[kind] = list[:len(list)-1]
	} else {
		n = p.construct(kind)
	}
	if n == nil {
		return nil
	}
	p.inUse[n] = true
	return n
}

func (p *nodePool) acquireOscillator() *OscillatorNode {
	return p.acquire(kindOscillator).(*OscillatorNode)
}

func (p *nodePool) acquireGain() *GainNode {
	return p.acquire(kindGain).(*GainNode)
}

func (p *nodePool) acquireNoise(color noiseColor) *NoiseNode {
	n := p.acquire(kindNoise).(*NoiseNode)
	n.color = color
	return n
}

func (p *nodePool) acquireAnalyser() *AnalyserNode {
	return p.acquire(kindAnalyser).(*AnalyserNode)
}

func (p *nodePool) acquireLadder() *LadderNode {
	return p.acquire(kindLadder).(*LadderNode)
}

// release returns a node to the pool. Releasing a node that is not in use,
// including releasing twice, is a no-op. One-shot nodes are stopped,
// detached and destroyed instead of pooled.
func (p *nodePool) release(n Node) {
	if n == nil || !p.inUse[n] {
		return
	}
	delete(p.inUse, n)

	if n.base().kind.oneShot() {
		switch v := n.(type) {
		case *OscillatorNode:
			v.Stop()
		case *NoiseNode:
			v.Stop()
		}
		p.ctx.destroy(n)
		return
	}

	p.ctx.detach(n)
	switch v := n.(type) {
	case *GainNode:
		v.resetForPool()
	case *AnalyserNode:
		v.resetForPool()
	case *LadderNode:
		v.resetForPool()
	}
	p.free[n.base().kind] = append(p.free[n.base().kind], n)
}

// drain releases every handle still in use. Called on engine teardown.
func (p *nodePool) drain() {
	nodes := make([]Node, 0, len(p.inUse))
	for n := range p.inUse {
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		p.release(n)
	}
}

// activeCount reports how many handles are currently lent out.
func (p *nodePool) activeCount() int {
	return len(p.inUse)
}

// idleCount reports how many pooled nodes sit on the free lists.
func (p *nodePool) idleCount() int {
	total := 0
	for _, list := range p.free {
		total += len(list)
	}
	return total
}
