package audio

import (
	"fmt"
	"math"
	"strings"
)

// ----- Param Scale ----- //

const (
	scaleLinear = iota
	scaleLog
	scaleStep
)

// ----- Param Spec ----- //

// paramSpec describes one directly addressable control on a graph node.
// Specs are static configuration; they never change after load.
type paramSpec struct {
	name  string // "node.param"
	min   float64
	max   float64
	def   float64
	scale int
	unit  string
}

func (p *paramSpec) validate() error {
	if p.min > p.def || p.def > p.max {
		return fmt.Errorf("param %q: default %v outside [%v, %v]", p.name, p.def, p.min, p.max)
	}
	if p.scale == scaleLog && p.min <= 0 {
		return fmt.Errorf("param %q: log scale needs a positive min, got %v", p.name, p.min)
	}
	return nil
}

// fromNormalized maps a knob position in [0,1] to a plain value.
func (p *paramSpec) fromNormalized(v float64) float64 {
	v = clamp(v, 0, 1)
	switch p.scale {
	case scaleLog:
		return p.min * math.Pow(p.max/p.min, v)
	case scaleStep:
		return math.Round(p.min + v*(p.max-p.min))
	default:
		return p.min + v*(p.max-p.min)
	}
}

func (p *paramSpec) clampPlain(v float64) float64 {
	v = clamp(v, p.min, p.max)
	if p.scale == scaleStep {
		v = math.Round(v)
	}
	return v
}

// knobDefs is the full table of leaf params. One knob per entry; macros drive
// subsets of the same names through curves.
var knobDefs = []*paramSpec{
	{name: "chorus.wet", min: 0, max: 1, def: 0.3, scale: scaleLinear, unit: ""},
	{name: "chorus.rate", min: 0.05, max: 8, def: 0.6, scale: scaleLog, unit: "Hz"},
	{name: "chorus.depth", min: 0, max: 18, def: 6, scale: scaleLinear, unit: "ms"},
	{name: "tone.freq", min: 40, max: 16000, def: 9000, scale: scaleLog, unit: "Hz"},
	{name: "tone.q", min: 0.1, max: 10, def: 0.7, scale: scaleLog, unit: ""},
	{name: "drive.wet", min: 0, max: 1, def: 0, scale: scaleLinear, unit: ""},
	{name: "drive.drive", min: 1, max: 30, def: 2, scale: scaleLog, unit: ""},
	{name: "crush.wet", min: 0, max: 1, def: 0, scale: scaleLinear, unit: ""},
	{name: "crush.bits", min: 2, max: 16, def: 10, scale: scaleStep, unit: "bits"},
	{name: "echoSend.drive", min: 0, max: 1, def: 0.9, scale: scaleLinear, unit: ""},
	{name: "echoDelay.time", min: 50, max: 2000, def: 420, scale: scaleLog, unit: "ms"},
	{name: "echoDamp.freq", min: 200, max: 12000, def: 3200, scale: scaleLog, unit: "Hz"},
	{name: "echoFeedback.feedback", min: 0, max: 0.95, def: 0.55, scale: scaleLinear, unit: ""},
	{name: "echoMix.wet", min: 0, max: 1, def: 0.35, scale: scaleLinear, unit: ""},
	{name: "space.wet", min: 0, max: 1, def: 0.4, scale: scaleLinear, unit: ""},
	{name: "space.decay", min: 0, max: 0.98, def: 0.82, scale: scaleLinear, unit: ""},
	{name: "master.gain", min: 0, max: 1.5, def: 0.9, scale: scaleLinear, unit: ""},
}

// ----- Registry ----- //

// registry owns every node and every rampable param. Nodes exist whether or
// not the current chain wires them; switching chains rebuilds the graph, not
// the registry.
type registry struct {
	source *node
	sink   *node
	nodes  []*node
	byName map[string]*node
	params map[string]*rampableParam
	specs  map[string]*paramSpec
}

func newRegistry() (*registry, error) {
	r := &registry{
		byName: map[string]*node{},
		params: map[string]*rampableParam{},
		specs:  map[string]*paramSpec{},
	}
	for _, spec := range knobDefs {
		if err := spec.validate(); err != nil {
			return nil, err
		}
		if _, ok := r.specs[spec.name]; ok {
			return nil, fmt.Errorf("param %q defined twice", spec.name)
		}
		r.specs[spec.name] = spec
		r.params[spec.name] = newRampableParam(spec.def)
	}

	r.source = r.add(newNode("source", nil, nil))
	r.sink = r.add(newNode("master", &gainProc{gain: r.param("master.gain")}, map[string]*rampableParam{
		"gain": r.param("master.gain"),
	}))

	r.add(newNode("chorus", newChorusProc(
		r.param("chorus.wet"), r.param("chorus.rate"), r.param("chorus.depth"),
	), map[string]*rampableParam{
		"wet":   r.param("chorus.wet"),
		"rate":  r.param("chorus.rate"),
		"depth": r.param("chorus.depth"),
	}))
	r.add(newNode("tone", newToneProc(
		r.param("tone.freq"), r.param("tone.q"),
	), map[string]*rampableParam{
		"freq": r.param("tone.freq"),
		"q":    r.param("tone.q"),
	}))
	r.add(newNode("drive", newDriveProc(
		r.param("drive.wet"), r.param("drive.drive"),
	), map[string]*rampableParam{
		"wet":   r.param("drive.wet"),
		"drive": r.param("drive.drive"),
	}))
	r.add(newNode("crush", newCrushProc(
		r.param("crush.wet"), r.param("crush.bits"),
	), map[string]*rampableParam{
		"wet":  r.param("crush.wet"),
		"bits": r.param("crush.bits"),
	}))
	r.add(newNode("space", newSpaceProc(
		r.param("space.wet"), r.param("space.decay"),
	), map[string]*rampableParam{
		"wet":   r.param("space.wet"),
		"decay": r.param("space.decay"),
	}))

	// echo sub-graph members; expandSentinel wires them
	r.add(newNode("echoSend", &gainProc{gain: r.param("echoSend.drive")}, map[string]*rampableParam{
		"drive": r.param("echoSend.drive"),
	}))
	r.add(newNode("echoDelay", newDelayProc(r.param("echoDelay.time")), map[string]*rampableParam{
		"time": r.param("echoDelay.time"),
	}))
	r.add(newNode("echoDamp", &dampProc{freq: r.param("echoDamp.freq")}, map[string]*rampableParam{
		"freq": r.param("echoDamp.freq"),
	}))
	r.add(newNode("echoShape", shapeProc{}, nil))
	r.add(newNode("echoFeedback", &gainProc{gain: r.param("echoFeedback.feedback")}, map[string]*rampableParam{
		"feedback": r.param("echoFeedback.feedback"),
	}))
	r.add(newNode("echoMix", &mixProc{wet: r.param("echoMix.wet")}, map[string]*rampableParam{
		"wet": r.param("echoMix.wet"),
	}))
	return r, nil
}

func (r *registry) add(n *node) *node {
	r.nodes = append(r.nodes, n)
	r.byName[n.name] = n
	return n
}

func (r *registry) param(name string) *rampableParam {
	p, ok := r.params[name]
	if !ok {
		panic("param not defined in knobDefs: " + name)
	}
	return p
}

func (r *registry) lookup(name string) *node {
	if strings.HasPrefix(name, "echo") && name != sentinelName {
		// sub-graph members are wired by expandSentinel only
		return nil
	}
	return r.byName[name]
}

// resetWiring drops every edge so a new chain can be built from scratch.
// Params and processor state survive; only topology is cleared.
func (r *registry) resetWiring() {
	for _, n := range r.nodes {
		n.ins = map[string][]*node{}
	}
}

func (r *registry) find(name string) *node {
	n := r.byName[name]
	if n == nil {
		panic("node not found after validation: " + name)
	}
	return n
}

// expandSentinel wires the feedback-delay sub-graph: a send attenuator into a
// delay line, the delay output returning through damp, shaper and feedback
// gain into the delay's loop port, and a crossfade blending the running dry
// signal with the delay output.
func (r *registry) expandSentinel() *chainElem {
	send := r.find("echoSend")
	delay := r.find("echoDelay")
	damp := r.find("echoDamp")
	shape := r.find("echoShape")
	feedback := r.find("echoFeedback")
	mix := r.find("echoMix")

	send.connect(delay)
	delay.connect(damp)
	damp.connect(shape)
	shape.connect(feedback)
	feedback.connectPort(delay, portLoop)
	delay.connectPort(mix, portWet)

	return &chainElem{
		name: sentinelName,
		entries: []portRef{
			{node: mix, port: portDry},
			{node: send, port: portIn},
		},
		exit: mix,
	}
}
