package audio

import (
	"github.com/lixenwraith/keysynth/parameter"
)

// Node is a vertex of a context's audio graph
type Node interface {
	// Connect routes this node's output into dst's input
	Connect(dst Node) error
	// Disconnect removes all outgoing connections
	Disconnect() error
	// Release detaches the node from the graph and frees its slot in the context
	Release() error

	base() *node
}

// processor renders one block; in is nil for nodes without connected inputs
type processor interface {
	process(in, out []float64, start uint64)
}

// node holds graph topology and render buffers shared by all node kinds
type node struct {
	ctx      *Context
	proc     processor
	inputs   []*node
	outputs  []*node
	in       []float64
	out      []float64
	block    uint64
	released bool
}

func (n *node) init(ctx *Context, proc processor) {
	n.ctx = ctx
	n.proc = proc
	n.in = make([]float64, parameter.AudioRenderQuantum)
	n.out = make([]float64, parameter.AudioRenderQuantum)
}

func (n *node) base() *node { return n }

// Connect routes this node's output into dst
// Connecting the same pair twice is a no-op
func (n *node) Connect(dst Node) error {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if n.ctx.state == StateClosed {
		return ErrContextClosed
	}
	if dst == nil {
		return ErrNotConnected
	}
	d := dst.base()
	if d.ctx != n.ctx {
		return ErrForeignNode
	}
	if n.released || d.released {
		return ErrNodeReleased
	}

	for _, o := range n.outputs {
		if o == d {
			return nil
		}
	}
	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)
	return nil
}

// Disconnect removes all outgoing connections
// Returns ErrNotConnected when there is nothing to remove
func (n *node) Disconnect() error {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if n.released {
		return ErrNodeReleased
	}
	if len(n.outputs) == 0 {
		return ErrNotConnected
	}
	n.disconnectOutputs()
	return nil
}

// Release detaches the node in both directions
// Second and later calls return ErrNodeReleased
func (n *node) Release() error {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if n.released {
		return ErrNodeReleased
	}
	n.disconnectOutputs()
	for _, src := range n.inputs {
		src.outputs = removeNode(src.outputs, n)
	}
	n.inputs = nil
	n.released = true
	n.ctx.live--
	return nil
}

func (n *node) disconnectOutputs() {
	for _, dst := range n.outputs {
		dst.inputs = removeNode(dst.inputs, n)
	}
	n.outputs = nil
}

// pull renders the node once per block and returns its output
// Caller holds ctx.mu
func (n *node) pull(block uint64, frames int, start uint64) []float64 {
	out := n.out[:frames]
	if n.block == block {
		return out
	}
	// Marked before recursing so a cycle terminates on the previous block's buffer
	n.block = block

	var in []float64
	if len(n.inputs) > 0 {
		in = n.in[:frames]
		clear(in)
		for _, src := range n.inputs {
			s := src.pull(block, frames, start)
			for i := range in {
				in[i] += s[i]
			}
		}
	}

	n.proc.process(in, out, start)
	return out
}

func removeNode(list []*node, target *node) []*node {
	for i, n := range list {
		if n == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// GainNode scales its input by an automatable gain
type GainNode struct {
	node
	Gain *AudioParam

	gbuf []float64
}

func (g *GainNode) process(in, out []float64, start uint64) {
	if in == nil {
		clear(out)
		return
	}
	gain := g.gbuf[:len(out)]
	g.Gain.fill(gain, start, g.ctx.sampleRate)
	for i := range out {
		out[i] = in[i] * gain[i]
	}
}

// destinationNode sums everything routed to the device
type destinationNode struct {
	node
}

func (d *destinationNode) process(in, out []float64, _ uint64) {
	if in == nil {
		clear(out)
		return
	}
	copy(out, in)
}

// Release is refused for the destination
func (d *destinationNode) Release() error {
	return ErrNodeReleased
}
