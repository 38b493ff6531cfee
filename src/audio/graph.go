package audio

import (
	"fmt"
)

// ----- Chain Config ----- //

const sentinelName = "echo"
const bypassRampSec = 0.04

// bypassGap names the edge a dormant node sits beside until it is spliced in.
type bypassGap struct {
	after  string
	before string
}

type chainConfig struct {
	order  []string
	bypass map[string]bypassGap
}

// ----- Chain Elements ----- //

type portRef struct {
	node *node
	port string
}

// chainElem is one entry of the wired path. A plain node has one entry port
// and exits from itself; the expanded sentinel enters at both the crossfade
// dry port and the send attenuator, and exits from the crossfade.
type chainElem struct {
	name    string
	entries []portRef
	exit    *node
}

func elemOf(n *node) *chainElem {
	return &chainElem{
		name:    n.name,
		entries: []portRef{{node: n, port: portIn}},
		exit:    n,
	}
}

func connectElems(a *chainElem, b *chainElem) {
	for _, e := range b.entries {
		a.exit.connectPort(e.node, e.port)
	}
}
func disconnectElems(a *chainElem, b *chainElem) {
	for _, e := range b.entries {
		a.exit.disconnect(e.node)
	}
}

// ----- Bypass State ----- //

type bypassState struct {
	elem    *chainElem
	after   *chainElem
	before  *chainElem
	engaged bool // spliced into the wired path right now
	want    bool // latest requested engagement
}

// ----- Graph ----- //

// graph owns the wired topology and the render schedule. All mutation happens
// under the engine lock; the render loop only reads.
type graph struct {
	source *node
	sink   *node
	nodes  []*node
	elems  map[string]*chainElem
	serial []string
	bypass map[string]*bypassState
	order  []*node
}

// buildGraph wires one linear path from source to sink per cfg. Malformed
// configs fail here, before any audio runs; a partially wired graph is never
// returned.
func buildGraph(cfg *chainConfig, reg *registry) (*graph, error) {
	if err := validateChainConfig(cfg, reg); err != nil {
		return nil, err
	}
	g := &graph{
		source: reg.source,
		sink:   reg.sink,
		nodes:  reg.nodes,
		elems:  map[string]*chainElem{},
		bypass: map[string]*bypassState{},
	}
	g.elems["source"] = elemOf(reg.source)
	g.elems["sink"] = elemOf(reg.sink)

	cur := g.elems["source"]
	g.serial = append(g.serial, "source")
	for _, name := range cfg.order {
		var elem *chainElem
		if name == sentinelName {
			elem = reg.expandSentinel()
		} else {
			elem = elemOf(reg.find(name))
		}
		g.elems[name] = elem
		connectElems(cur, elem)
		cur = elem
		g.serial = append(g.serial, name)
	}
	connectElems(cur, g.elems["sink"])
	g.serial = append(g.serial, "sink")

	for name, gap := range cfg.bypass {
		elem := elemOf(reg.find(name))
		g.elems[name] = elem
		g.bypass[name] = &bypassState{
			elem:   elem,
			after:  g.elems[gap.after],
			before: g.elems[gap.before],
		}
	}
	g.recomputeOrder()
	return g, nil
}

func validateChainConfig(cfg *chainConfig, reg *registry) error {
	seen := map[string]bool{}
	sentinels := 0
	for _, name := range cfg.order {
		if seen[name] {
			return fmt.Errorf("node %q appears twice in order", name)
		}
		seen[name] = true
		if name == sentinelName {
			sentinels++
			continue
		}
		if reg.lookup(name) == nil {
			return fmt.Errorf("unknown node %q in order", name)
		}
	}
	if sentinels > 1 {
		return fmt.Errorf("sentinel %q appears %d times in order", sentinelName, sentinels)
	}
	for name, gap := range cfg.bypass {
		if seen[name] {
			return fmt.Errorf("node %q appears in both order and bypass", name)
		}
		n := reg.lookup(name)
		if n == nil {
			return fmt.Errorf("unknown bypass node %q", name)
		}
		if _, ok := n.params["wet"]; !ok {
			return fmt.Errorf("bypass node %q has no wet control", name)
		}
		if !validGapRef(cfg, gap.after) {
			return fmt.Errorf("bypass node %q: after %q is not in order", name, gap.after)
		}
		if !validGapRef(cfg, gap.before) {
			return fmt.Errorf("bypass node %q: before %q is not in order", name, gap.before)
		}
	}
	// adjacency in the effective wired path
	serial := append([]string{"source"}, cfg.order...)
	serial = append(serial, "sink")
	for name, gap := range cfg.bypass {
		ok := false
		for i := 0; i < len(serial)-1; i++ {
			if serial[i] == gap.after && serial[i+1] == gap.before {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("bypass node %q: %q and %q are not adjacent in the wired path", name, gap.after, gap.before)
		}
	}
	return nil
}

func validGapRef(cfg *chainConfig, name string) bool {
	if name == "source" || name == "sink" {
		return true
	}
	for _, n := range cfg.order {
		if n == name {
			return true
		}
	}
	return false
}

// recomputeOrder derives the render schedule: nodes reachable from the sink,
// dependencies first, loop edges excluded from ordering. The loop-side
// branches are scheduled afterwards, so a loop port always reads the
// previous sample's output.
func (g *graph) recomputeOrder() {
	order := make([]*node, 0, len(g.nodes))
	state := map[*node]int{} // 0 unvisited, 1 in progress, 2 done
	var visit func(n *node)
	visit = func(n *node) {
		if state[n] != 0 {
			return
		}
		state[n] = 1
		for port, srcs := range n.ins {
			if port == portLoop {
				continue
			}
			for _, src := range srcs {
				visit(src)
			}
		}
		state[n] = 2
		if n != g.source {
			order = append(order, n)
		}
	}
	visit(g.sink)
	for _, n := range g.nodes {
		if state[n] == 0 {
			continue
		}
		for _, src := range n.ins[portLoop] {
			visit(src)
		}
	}
	g.order = order
}

// step renders one frame: inject the voice sum at the source, run the
// schedule, read the sink.
func (g *graph) step(l float64, r float64) (float64, float64) {
	g.source.out = stereo{l, r}
	for _, n := range g.nodes {
		n.stepParams()
	}
	for _, n := range g.order {
		n.process()
	}
	return g.sink.out.l, g.sink.out.r
}

// wired reports whether a feeds b in the current topology.
func (g *graph) wired(a string, b string) bool {
	ea, eb := g.elems[a], g.elems[b]
	if ea == nil || eb == nil {
		return false
	}
	for _, e := range eb.entries {
		for _, src := range e.node.ins[e.port] {
			if src == ea.exit {
				return true
			}
		}
	}
	return false
}

// ----- Bypass Controller ----- //

// toggleBypass splices a dormant node in or out of the path. The swap only
// ever happens while the node's wet mix is exactly zero: splice first then
// ramp up, or ramp down and swap on the sample the ramp settles. A repeated
// request for the current target state is a no-op; an opposite request while
// a ramp is in flight cancels the pending swap instead of double-swapping.
func (g *graph) toggleBypass(name string, bypassed bool, wetTarget float64) error {
	st, ok := g.bypass[name]
	if !ok {
		return fmt.Errorf("unknown bypass node %q", name)
	}
	engage := !bypassed
	if engage == st.want {
		return nil
	}
	st.want = engage
	wet := st.elem.exit.params["wet"]
	if engage {
		if st.engaged {
			// ramp-down still in flight; keep the topology, cancel the swap
			wet.rampTo(wetTarget, bypassRampSec)
			return nil
		}
		disconnectElems(st.after, st.before)
		connectElems(st.after, st.elem)
		connectElems(st.elem, st.before)
		st.engaged = true
		g.recomputeOrder()
		wet.setImmediate(0)
		wet.rampTo(wetTarget, bypassRampSec)
		return nil
	}
	if !st.engaged {
		wet.setImmediate(0)
		return nil
	}
	wet.rampTo(0, bypassRampSec)
	wet.onEnd = func() {
		disconnectElems(st.after, st.elem)
		disconnectElems(st.elem, st.before)
		connectElems(st.after, st.before)
		st.engaged = false
		g.recomputeOrder()
	}
	return nil
}
