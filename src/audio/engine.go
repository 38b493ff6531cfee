package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/hajimehoshi/oto"
)

const paramLeadSec = 0.03

// ----- State ----- //

// state is the engine-owned runtime: the live graph, the macro engine, the
// voice bank and the per-mode process groups. Every control path mutates it
// under the one lock; the render loop reads it under the same lock.
type state struct {
	sync.Mutex
	reg      *registry
	graph    *graph
	macros   *macroEngine
	bank     *voiceBank
	desired  map[string]float64 // last requested value per leaf param
	adsr     *adsrParams
	chaos    *chaosState
	natal    *natalState
	presets  *presetManager
	peak     [2]float64
	disposed bool
}

const presetDir = "presets"

func newState() (*state, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	macros, err := newMacroEngine(defaultMacroDefs(), reg.specs)
	if err != nil {
		return nil, err
	}
	g, err := buildGraph(defaultChainConfig(), reg)
	if err != nil {
		return nil, err
	}
	s := &state{
		reg:     reg,
		graph:   g,
		macros:  macros,
		bank:    newVoiceBank(),
		desired: map[string]float64{},
		adsr:    &adsrParams{attack: 900, decay: 400, sustain: 0.8, release: 2600},
		chaos:   newChaosState(),
		natal:   newNatalState(),
		presets: newPresetManager(presetDir),
	}
	for _, spec := range knobDefs {
		s.desired[spec.name] = spec.def
	}
	// settle every macro at its default position
	for _, name := range macros.order {
		v, _ := macros.get(name)
		updates, _ := macros.set(name, v)
		for _, u := range updates {
			if err := s.setParam(u.name, u.value, 0); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// setParam is the one leaf-parameter setter every control path funnels
// through: direct knobs, macros, chaos restore and natal playback. A wet
// param of a dormant node also drives its splice state, so the node joins
// the path exactly when its mix leaves zero.
func (s *state) setParam(name string, value float64, rampSec float64) error {
	spec, ok := s.reg.specs[name]
	if !ok {
		return fmt.Errorf("unknown param %q", name)
	}
	value = spec.clampPlain(value)
	s.desired[name] = value
	nodeName := name[:strings.Index(name, ".")]
	if st, bypassable := s.graph.bypass[nodeName]; bypassable && strings.HasSuffix(name, ".wet") {
		if value > 0 {
			if st.want {
				s.reg.params[name].rampTo(value, rampSec)
				return nil
			}
			return s.graph.toggleBypass(nodeName, false, value)
		}
		return s.graph.toggleBypass(nodeName, true, 0)
	}
	s.reg.params[name].rampTo(value, rampSec)
	return nil
}

func (s *state) setMacro(name string, value float64) error {
	updates, err := s.macros.set(name, value)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := s.setParam(u.name, u.value, paramLeadSec); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) setKnob(name string, normalized float64) error {
	spec, ok := s.reg.specs[name]
	if !ok {
		return fmt.Errorf("unknown knob %q", name)
	}
	return s.setParam(name, spec.fromNormalized(normalized), paramLeadSec)
}

// setChain replaces the wired path. Validation runs against the full
// registry first so a bad config leaves the current chain untouched.
func (s *state) setChain(cfg *chainConfig) error {
	if err := validateChainConfig(cfg, s.reg); err != nil {
		return err
	}
	s.reg.resetWiring()
	g, err := buildGraph(cfg, s.reg)
	if err != nil {
		return err
	}
	s.graph = g
	return nil
}

// restoreTarget is the value a param falls back to after a transient mode
// ends: the macro-implied value when the param is macro-bound, the latest
// direct edit otherwise.
func (s *state) restoreTarget(name string) float64 {
	if v, ok := s.macros.snapshot()[name]; ok {
		return v
	}
	if v, ok := s.desired[name]; ok {
		return v
	}
	return s.reg.specs[name].def
}

// triggerVoice recomputes the adaptive voicing offset for the polyphony the
// bank is about to have, applies it to every sibling, then starts the attack.
func (s *state) triggerVoice(voiceID int, note int, velocity float64) {
	v := s.bank.voices[voiceID]
	count := s.bank.activeCount()
	if !v.active() {
		count++
	}
	offset := gainOffsetDb(count, numVoices)
	for _, sibling := range s.bank.voices {
		sibling.setGainDb(offset)
	}
	v.triggerAttack(note, velocity)
}

func (s *state) releaseVoice(voiceID int) {
	v := s.bank.voices[voiceID]
	if !v.active() {
		return
	}
	v.triggerRelease()
	offset := gainOffsetDb(s.bank.activeCount()-1, numVoices)
	for _, sibling := range s.bank.voices {
		sibling.setGainDb(offset)
	}
}

// render produces one stereo frame.
func (s *state) render() (float64, float64) {
	l, r := s.bank.step()
	l, r = s.graph.step(l, r)
	if a := math.Abs(l); a > s.peak[0] {
		s.peak[0] = a
	}
	if a := math.Abs(r); a > s.peak[1] {
		s.peak[1] = a
	}
	return l, r
}

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
}

var _ io.Reader = (*Audio)(nil)

// NewAudio ...
func NewAudio() (*Audio, error) {
	state, err := newState()
	if err != nil {
		return nil, err
	}
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	commandCh := make(chan []string, 256)
	audio := &Audio{
		ctx:        context.Background(),
		otoContext: otoContext,
		CommandCh:  commandCh,
		state:      state,
	}
	go processCommands(audio, commandCh)
	return audio, nil
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("command %v failed: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) update(command []string) error {
	a.state.Lock()
	defer a.state.Unlock()

	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) < 1 {
			return fmt.Errorf("set: missing target")
		}
		switch command[0] {
		case "macro":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			value, err := strconv.ParseFloat(command[1], 64)
			if err != nil {
				return err
			}
			return a.state.setMacro(command[0], value)
		case "knob":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			value, err := strconv.ParseFloat(command[1], 64)
			if err != nil {
				return err
			}
			return a.state.setKnob(command[0], value)
		case "adsr":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			if err := a.state.adsr.set(command[0], command[1]); err != nil {
				return err
			}
			for _, v := range a.state.bank.voices {
				v.setEnvelope(a.state.adsr)
			}
			return nil
		case "osc":
			command = command[1:]
			if len(command) != 1 {
				return fmt.Errorf("set osc wants a wave kind")
			}
			kind, err := waveKindFromString(command[0])
			if err != nil {
				return err
			}
			for _, v := range a.state.bank.voices {
				v.setOscillatorType(kind)
			}
			return nil
		}
		return fmt.Errorf("unknown set target %q", command[0])
	case "bypass":
		if len(command) != 3 {
			return fmt.Errorf("bypass wants a node and a bool")
		}
		name := command[1]
		if _, ok := a.state.graph.bypass[name]; !ok {
			return fmt.Errorf("unknown bypass node %q", name)
		}
		bypassed := command[2] == "true"
		wet := a.state.restoreTarget(name + ".wet")
		return a.state.graph.toggleBypass(name, bypassed, wet)
	case "chaos":
		if len(command) != 2 {
			return fmt.Errorf("chaos wants on|off")
		}
		a.state.setChaos(command[1] == "on")
		return nil
	case "note_on":
		if len(command) < 2 {
			return fmt.Errorf("note_on wants a note")
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		velocity := 1.0
		if len(command) > 2 {
			velocity, err = strconv.ParseFloat(command[2], 64)
			if err != nil {
				return err
			}
		}
		a.state.stopNatal()
		a.state.triggerVoice(int(note)%numVoices, int(note), velocity)
		return nil
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("note_off wants a note")
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		a.state.releaseVoice(int(note) % numVoices)
		return nil
	case "natal":
		if len(command) != 2 {
			return fmt.Errorf("natal wants a chart payload")
		}
		return a.state.playNatalJSON([]byte(command[1]))
	case "chain":
		if len(command) != 2 {
			return fmt.Errorf("chain wants a config payload")
		}
		cfg, err := parseChainConfig([]byte(command[1]))
		if err != nil {
			return err
		}
		return a.state.setChain(cfg)
	case "preset":
		if len(command) != 3 || command[1] != "load" {
			return fmt.Errorf("preset wants: load <name>")
		}
		return a.state.presets.applyTo(command[2], a.state)
	case "stop":
		a.state.stopNatal()
		a.state.bank.releaseAll()
		return nil
	}
	return fmt.Errorf("unknown command %v", command[0])
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		sampleLength := len(buf) / bytesPerSample
		for i := 0; i < sampleLength; i++ {
			l, r := a.state.render()
			writeFrame(buf, i, l, r)
		}
		return sampleLength * bytesPerSample, nil
	}
}

func writeFrame(buf []byte, i int, l float64, r float64) {
	const max = 32767
	lv := int16(clamp(l, -1, 1) * max)
	rv := int16(clamp(r, -1, 1) * max)
	buf[bytesPerSample*i] = byte(lv)
	buf[bytesPerSample*i+1] = byte(lv >> 8)
	buf[bytesPerSample*i+2] = byte(rv)
	buf[bytesPerSample*i+3] = byte(rv >> 8)
}

// AddMidiEvent ...
func (a *Audio) AddMidiEvent(e MidiEvent) {
	a.state.Lock()
	defer a.state.Unlock()
	switch e.kind {
	case midiNoteOn:
		a.state.stopNatal()
		a.state.triggerVoice(e.note%numVoices, e.note, e.value)
	case midiNoteOff:
		a.state.releaseVoice(e.note % numVoices)
	case midiControlChange:
		if e.cc == 1 {
			// mod wheel drives the eclipse
			a.state.setChaos(e.value >= 0.5)
			return
		}
		// CC 70 onward drive the macros in definition order
		i := e.cc - 70
		if i >= 0 && i < len(a.state.macros.order) {
			if err := a.state.setMacro(a.state.macros.order[i], e.value); err != nil {
				log.Printf("midi macro: %v\n", err)
			}
		}
	}
}

// GetPresetNames ...
func (a *Audio) GetPresetNames() []string {
	a.state.Lock()
	defer a.state.Unlock()
	list, err := a.state.presets.getList()
	if err != nil {
		log.Printf("failed to load presets: %v\n", err)
		return nil
	}
	names := make([]string, 0, len(list))
	for _, m := range list {
		names = append(names, m.name)
	}
	return names
}

// GetLevels returns and resets the per-channel peak since the last call.
func (a *Audio) GetLevels() [2]float64 {
	a.state.Lock()
	defer a.state.Unlock()
	peak := a.state.peak
	a.state.peak = [2]float64{}
	return peak
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	a.state.Lock()
	a.state.dispose()
	a.state.Unlock()
	close(a.CommandCh)
	return a.otoContext.Close()
}

// dispose cancels every outstanding periodic process. Safe to call twice.
func (s *state) dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.chaos.procs.cancel()
	s.natal.procs.cancel()
}

// Start ...
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}
