package audio

import (
	"math"
)

// ----- Node ----- //

const (
	portIn   = "in"
	portDry  = "dry"
	portWet  = "wet"
	portLoop = "loop"
)

type stereo struct {
	l float64
	r float64
}

// processor is the per-kind step function of a node. Inputs arrive summed
// per port; most processors only read portIn.
type processor interface {
	step(in map[string]stereo) stereo
}

// node is one element of the live processing graph. Incoming edges are held
// per port; edges on portLoop read the upstream node's previous-sample output
// (that one-sample delay is what makes the feedback loop computable).
type node struct {
	name   string
	ins    map[string][]*node
	out    stereo
	params map[string]*rampableParam
	proc   processor
}

func newNode(name string, proc processor, params map[string]*rampableParam) *node {
	if params == nil {
		params = map[string]*rampableParam{}
	}
	return &node{
		name:   name,
		ins:    map[string][]*node{},
		params: params,
		proc:   proc,
	}
}

// connect wires n into dst's default input.
func (n *node) connect(dst *node) {
	n.connectPort(dst, portIn)
}
func (n *node) connectPort(dst *node, port string) {
	for _, src := range dst.ins[port] {
		if src == n {
			return
		}
	}
	dst.ins[port] = append(dst.ins[port], n)
}

// disconnect removes every edge from n to dst.
func (n *node) disconnect(dst *node) {
	for port, srcs := range dst.ins {
		removed := 0
		for i := 0; i < len(srcs); i++ {
			if srcs[i] == n {
				removed++
			} else {
				srcs[i-removed] = srcs[i]
			}
		}
		dst.ins[port] = srcs[:len(srcs)-removed]
	}
}

func (n *node) sumPort(port string) stereo {
	var s stereo
	for _, src := range n.ins[port] {
		s.l += src.out.l
		s.r += src.out.r
	}
	return s
}

// stepParams advances every param ramp one sample. The graph steps params on
// all nodes, wired or not, so a dormant node's automation never stalls.
func (n *node) stepParams() {
	for _, p := range n.params {
		p.step()
	}
}

// process runs the processor against the summed inputs.
func (n *node) process() {
	in := map[string]stereo{}
	for port := range n.ins {
		in[port] = n.sumPort(port)
	}
	if n.proc == nil {
		n.out = in[portIn]
		return
	}
	n.out = n.proc.step(in)
}

// ----- Gain ----- //

// gainProc is a bare multiplier. It backs the echo send ("drive"), the echo
// feedback coefficient and the master stage.
type gainProc struct {
	gain *rampableParam
}

func (g *gainProc) step(in map[string]stereo) stereo {
	s := in[portIn]
	return stereo{s.l * g.gain.value, s.r * g.gain.value}
}

// ----- Crossfade ----- //

// mixProc blends portDry and portWet by its wet param. At wet=0 the output
// equals the dry input exactly, which is what makes bypass splices silent.
type mixProc struct {
	wet *rampableParam
}

func (m *mixProc) step(in map[string]stereo) stereo {
	dry := in[portDry]
	wet := in[portWet]
	w := clamp(m.wet.value, 0, 1)
	return stereo{
		l: dry.l*(1-w) + wet.l*w,
		r: dry.r*(1-w) + wet.r*w,
	}
}

// ----- Wet Insert ----- //

// insertProc wraps an inner effect with a dry/wet mix so the node can sit in
// the serial path and fade itself to transparency.
type insertProc struct {
	wet   *rampableParam
	inner func(l, r float64) (float64, float64)
}

func (p *insertProc) step(in map[string]stereo) stereo {
	s := in[portIn]
	wl, wr := p.inner(s.l, s.r)
	w := clamp(p.wet.value, 0, 1)
	return stereo{
		l: s.l*(1-w) + wl*w,
		r: s.r*(1-w) + wr*w,
	}
}

// ----- Tone (lowpass) ----- //

type toneProc struct {
	freq     *rampableParam // Hz
	q        *rampableParam
	lastFreq float64
	lastQ    float64
	a        []float64
	b        []float64
	past     [2][]float64
}

func newToneProc(freq *rampableParam, q *rampableParam) *toneProc {
	t := &toneProc{freq: freq, q: q}
	t.update()
	return t
}

func (t *toneProc) update() {
	fc := clamp(t.freq.value, 10, sampleRate/2-1) / sampleRate
	q := clamp(t.q.value, 0.1, 20)
	t.a, t.b = makeBiquadLowpassH(fc, q)
	t.lastFreq = t.freq.value
	t.lastQ = t.q.value
	for ch := 0; ch < 2; ch++ {
		if t.past[ch] == nil {
			t.past[ch] = make([]float64, 2)
		}
	}
}

func (t *toneProc) step(in map[string]stereo) stereo {
	if t.freq.value != t.lastFreq || t.q.value != t.lastQ {
		t.update()
	}
	s := in[portIn]
	return stereo{
		l: processBiquad(s.l, t.a, t.b, t.past[0]),
		r: processBiquad(s.r, t.a, t.b, t.past[1]),
	}
}

// ----- One-pole Damp ----- //

// dampProc is the one-pole lowpass inside the echo feedback path. Cheaper
// than a biquad and unconditionally stable, which matters in a loop.
type dampProc struct {
	freq *rampableParam // Hz
	z    [2]float64
}

func (d *dampProc) step(in map[string]stereo) stereo {
	fc := clamp(d.freq.value, 10, sampleRate/2-1)
	k := 1 - math.Exp(-2*math.Pi*fc/sampleRate)
	s := in[portIn]
	d.z[0] += k * (s.l - d.z[0])
	d.z[1] += k * (s.r - d.z[1])
	return stereo{d.z[0], d.z[1]}
}

// ----- Shaper ----- //

// shapeProc is the saturator in the echo feedback return. Its compression
// is the last line of defense when the linear loop gain gets close to 1.
type shapeProc struct{}

func (shapeProc) step(in map[string]stereo) stereo {
	s := in[portIn]
	return stereo{math.Tanh(s.l), math.Tanh(s.r)}
}

// ----- Delay Line ----- //

type delayLine struct {
	cursor int
	past   []float64
}

func (d *delayLine) resize(millis float64) {
	if millis < 10 {
		millis = 10
	}
	length := int(sampleRate * millis / 1000)
	if cap(d.past) >= length {
		d.past = d.past[0:length]
	} else {
		past := make([]float64, length)
		copy(past, d.past)
		d.past = past
	}
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}

func (d *delayLine) step(in float64) {
	d.past[d.cursor] = in
	d.cursor++
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}
func (d *delayLine) getDelayed() float64 {
	return d.past[d.cursor]
}

// delayProc is the echo delay line. portIn carries the attenuated send,
// portLoop the saturated feedback return from the previous sample.
type delayProc struct {
	time     *rampableParam // ms
	lastTime float64
	lines    [2]*delayLine
}

func newDelayProc(time *rampableParam) *delayProc {
	d := &delayProc{time: time, lines: [2]*delayLine{{}, {}}}
	d.lines[0].resize(time.value)
	d.lines[1].resize(time.value)
	d.lastTime = time.value
	return d
}

func (d *delayProc) step(in map[string]stereo) stereo {
	if d.time.value != d.lastTime {
		d.lines[0].resize(d.time.value)
		d.lines[1].resize(d.time.value)
		d.lastTime = d.time.value
	}
	s := in[portIn]
	loop := in[portLoop]
	out := stereo{d.lines[0].getDelayed(), d.lines[1].getDelayed()}
	d.lines[0].step(s.l + loop.l)
	d.lines[1].step(s.r + loop.r)
	return out
}

// ----- Chorus ----- //

type chorusProc struct {
	wet   *rampableParam
	rate  *rampableParam // Hz
	depth *rampableParam // ms
	buf   [2][]float64
	pos   int
	phase float64
}

const chorusBufMillis = 40.0

func newChorusProc(wet, rate, depth *rampableParam) *chorusProc {
	size := int(sampleRate * chorusBufMillis / 1000)
	return &chorusProc{
		wet:   wet,
		rate:  rate,
		depth: depth,
		buf:   [2][]float64{make([]float64, size), make([]float64, size)},
	}
}

func (c *chorusProc) step(in map[string]stereo) stereo {
	s := in[portIn]
	size := len(c.buf[0])
	c.buf[0][c.pos] = s.l
	c.buf[1][c.pos] = s.r
	depthSamples := clamp(c.depth.value, 0, chorusBufMillis/2-1) * sampleRate / 1000
	base := float64(size) / 2
	var out [2]float64
	for ch := 0; ch < 2; ch++ {
		// quadrature phase keeps the two channels from swimming together
		phase := c.phase
		if ch == 1 {
			phase += math.Pi / 2
		}
		mod := math.Sin(phase) * depthSamples
		readPos := float64(c.pos) - (base + mod)
		for readPos < 0 {
			readPos += float64(size)
		}
		idx := int(readPos)
		frac := readPos - float64(idx)
		idx2 := idx + 1
		if idx2 >= size {
			idx2 = 0
		}
		out[ch] = c.buf[ch][idx]*(1-frac) + c.buf[ch][idx2]*frac
	}
	c.phase += 2 * math.Pi * clamp(c.rate.value, 0, 20) / sampleRate
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	c.pos++
	if c.pos >= size {
		c.pos = 0
	}
	w := clamp(c.wet.value, 0, 1)
	return stereo{
		l: s.l*(1-w) + out[0]*w,
		r: s.r*(1-w) + out[1]*w,
	}
}

// ----- Space ----- //

// spaceProc is a small comb/allpass reverb. Comb lengths are mutually prime
// so the tail does not ring at one pitch.
type spaceProc struct {
	wet   *rampableParam
	decay *rampableParam // comb feedback, 0-1
	combs [2][]*delayLine
	ap    [2]*delayLine
}

var combMillis = []float64{29.7, 37.1, 41.1, 43.7}

const allpassMillis = 5.0
const allpassGain = 0.5

func newSpaceProc(wet, decay *rampableParam) *spaceProc {
	p := &spaceProc{wet: wet, decay: decay}
	for ch := 0; ch < 2; ch++ {
		for i, ms := range combMillis {
			line := &delayLine{}
			// small stereo offset per channel
			line.resize(ms + float64(ch)*1.3 + float64(i)*0)
			p.combs[ch] = append(p.combs[ch], line)
		}
		p.ap[ch] = &delayLine{}
		p.ap[ch].resize(allpassMillis + float64(ch)*0.7)
	}
	return p
}

func (p *spaceProc) step(in map[string]stereo) stereo {
	s := in[portIn]
	dry := [2]float64{s.l, s.r}
	g := clamp(p.decay.value, 0, 0.98)
	var out [2]float64
	for ch := 0; ch < 2; ch++ {
		sum := 0.0
		for _, comb := range p.combs[ch] {
			delayed := comb.getDelayed()
			comb.step(dry[ch] + delayed*g)
			sum += delayed
		}
		sum /= float64(len(p.combs[ch]))
		delayed := p.ap[ch].getDelayed()
		p.ap[ch].step(sum + delayed*allpassGain)
		out[ch] = delayed - allpassGain*sum
	}
	w := clamp(p.wet.value, 0, 1)
	return stereo{
		l: dry[0]*(1-w) + out[0]*w,
		r: dry[1]*(1-w) + out[1]*w,
	}
}

// ----- Drive ----- //

func newDriveProc(wet, drive *rampableParam) *insertProc {
	return &insertProc{
		wet: wet,
		inner: func(l, r float64) (float64, float64) {
			d := clamp(drive.value, 1, 50)
			// normalize so full drive does not also mean full volume
			n := math.Tanh(d)
			return math.Tanh(l*d) / n, math.Tanh(r*d) / n
		},
	}
}

// ----- Crush ----- //

func newCrushProc(wet, bits *rampableParam) *insertProc {
	return &insertProc{
		wet: wet,
		inner: func(l, r float64) (float64, float64) {
			b := clamp(bits.value, 2, 16)
			levels := math.Pow(2, b)
			return math.Round(l*levels) / levels, math.Round(r*levels) / levels
		},
	}
}
