package audio

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"
)

// ----- Natal Chart ----- //

const (
	centsPerDegree    = 2.0
	entrySpacingSec   = 5.0
	sustainHoldSec    = 4.0
	finaleReleaseMs   = 60.0
	finaleTailSec     = 2.5
	finaleSpaceTarget = 1.0
)

var signNames = []string{
	"aries", "taurus", "gemini", "cancer", "leo", "virgo",
	"libra", "scorpio", "sagittarius", "capricorn", "aquarius", "pisces",
}

// bodyOrder fixes the entry order of a performance. Bodies missing from a
// chart are simply skipped; the remaining ones close ranks.
var bodyOrder = []string{
	"sun", "moon", "mercury", "venus", "mars",
	"jupiter", "saturn", "uranus", "neptune", "pluto",
}

// bodyTraits maps each body to its register and default articulation.
type bodyTrait struct {
	baseNote  int
	velocity  float64
	pulseRate float64 // Hz, zero means pad
}

var bodyTraits = map[string]bodyTrait{
	"sun":     {baseNote: 57, velocity: 1.0},
	"moon":    {baseNote: 57, velocity: 0.9},
	"mercury": {baseNote: 64, velocity: 0.8, pulseRate: 1.6},
	"venus":   {baseNote: 64, velocity: 0.8, pulseRate: 1.2},
	"mars":    {baseNote: 64, velocity: 0.8, pulseRate: 2.0},
	"jupiter": {baseNote: 50, velocity: 0.7},
	"saturn":  {baseNote: 50, velocity: 0.7},
	"uranus":  {baseNote: 38, velocity: 0.6},
	"neptune": {baseNote: 38, velocity: 0.6},
	"pluto":   {baseNote: 38, velocity: 0.6},
}

// one major scale step per sign, so adjacent signs land on adjacent degrees
var signScale = []int{0, 2, 4, 5, 7, 9, 11, 12, 14, 16, 17, 19}

type chartJSON struct {
	Bodies  map[string]bodyJSON `json:"bodies"`
	Aspects []aspectJSON        `json:"aspects"`
}
type bodyJSON struct {
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}
type aspectJSON struct {
	A    string `json:"a"`
	B    string `json:"b"`
	Type string `json:"type"`
}

func signIndex(name string) (int, error) {
	for i, s := range signNames {
		if s == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown sign %q", name)
}

// ----- Composition ----- //

// natalEvent is one scheduled voice entry.
type natalEvent struct {
	timeSec     float64
	body        string
	voiceID     int
	note        int
	velocity    float64
	detuneCents float64
	pulseRate   float64 // zero means pad
}

// composeNatal turns a chart into a deterministic entry schedule. Each
// present body, in the fixed body order, enters one spacing after the
// previous one; its zodiac sign picks the voice and the scale degree, and
// its position within the sign detunes the voice away from center. Tense
// aspects force a body into pulse articulation; flowing aspects lift its
// velocity a little.
func composeNatal(chart *chartJSON) ([]natalEvent, float64, error) {
	if len(chart.Bodies) == 0 {
		return nil, 0, fmt.Errorf("chart has no bodies")
	}
	tense := map[string]bool{}
	flowing := map[string]int{}
	for _, a := range chart.Aspects {
		switch a.Type {
		case "square", "opposition":
			tense[a.A] = true
			tense[a.B] = true
		case "conjunction", "trine", "sextile":
			flowing[a.A]++
			flowing[a.B]++
		default:
			return nil, 0, fmt.Errorf("unknown aspect type %q", a.Type)
		}
	}
	var events []natalEvent
	for _, body := range bodyOrder {
		b, ok := chart.Bodies[body]
		if !ok {
			continue
		}
		sign, err := signIndex(b.Sign)
		if err != nil {
			return nil, 0, fmt.Errorf("body %q: %v", body, err)
		}
		if b.Degree < 0 || b.Degree >= 30 {
			return nil, 0, fmt.Errorf("body %q: degree %v outside [0, 30)", body, b.Degree)
		}
		trait, ok := bodyTraits[body]
		if !ok {
			return nil, 0, fmt.Errorf("unknown body %q", body)
		}
		velocity := clamp(trait.velocity+0.05*float64(flowing[body]), 0, 1)
		pulseRate := trait.pulseRate
		if tense[body] && pulseRate == 0 {
			pulseRate = 1.0
		}
		events = append(events, natalEvent{
			timeSec:     float64(len(events)) * entrySpacingSec,
			body:        body,
			voiceID:     sign,
			note:        trait.baseNote + signScale[sign],
			velocity:    velocity,
			detuneCents: (b.Degree - 15) * centsPerDegree,
			pulseRate:   pulseRate,
		})
	}
	if len(events) == 0 {
		return nil, 0, fmt.Errorf("chart names no known bodies")
	}
	total := events[len(events)-1].timeSec + sustainHoldSec
	sort.SliceStable(events, func(i, j int) bool { return events[i].timeSec < events[j].timeSec })
	return events, total, nil
}

// ----- Playback ----- //

type natalState struct {
	playing bool
	finale  bool
	gen     int
	procs   processGroup
}

func newNatalState() *natalState {
	return &natalState{}
}

// playNatalJSON parses and schedules a chart performance. Any performance
// already running is cancelled first; the new one starts from silence.
func (s *state) playNatalJSON(data []byte) error {
	var chart chartJSON
	if err := json.Unmarshal(data, &chart); err != nil {
		return fmt.Errorf("invalid chart: %v", err)
	}
	events, total, err := composeNatal(&chart)
	if err != nil {
		return err
	}
	s.stopNatal()
	n := s.natal
	n.playing = true
	n.gen++
	gen := n.gen
	log.Printf("natal: %d entries over %.1fs\n", len(events), total)
	for _, e := range events {
		e := e
		n.procs.add(startTimer("natal-"+e.body, secToDuration(e.timeSec), func() {
			s.Lock()
			defer s.Unlock()
			if !s.natal.playing || s.natal.gen != gen {
				return
			}
			s.startNatalEvent(e, gen)
		}))
	}
	n.procs.add(startTimer("natal-finale", secToDuration(total), func() {
		s.Lock()
		defer s.Unlock()
		if !s.natal.playing || s.natal.gen != gen {
			return
		}
		s.startFinale(gen)
	}))
	return nil
}

func (s *state) startNatalEvent(e natalEvent, gen int) {
	v := s.bank.voices[e.voiceID]
	v.setDetune(e.detuneCents)
	if e.pulseRate > 0 {
		v.mode = modePulse
		v.pulseRate = e.pulseRate
		interval := secToDuration(1 / e.pulseRate)
		s.natal.procs.add(startTicker("natal-pulse-"+e.body, interval, func() bool {
			s.Lock()
			defer s.Unlock()
			if !s.natal.playing || s.natal.finale || s.natal.gen != gen {
				return false
			}
			s.triggerVoice(e.voiceID, e.note, e.velocity)
			return true
		}))
	} else {
		v.mode = modePad
	}
	s.triggerVoice(e.voiceID, e.note, e.velocity)
}

// startFinale holds the full chord one last moment, opens the space all the
// way, then cuts every voice with a short release and restores the room
// once the tail has died down. The pulse tickers stop here; a cut voice
// must not re-attack during the tail.
func (s *state) startFinale(gen int) {
	s.natal.finale = true
	s.natal.procs.cancel()
	if err := s.setParam("space.wet", finaleSpaceTarget, finaleTailSec); err != nil {
		log.Printf("finale: %v\n", err)
	}
	cut := &adsrParams{attack: s.adsr.attack, decay: s.adsr.decay, sustain: s.adsr.sustain, release: finaleReleaseMs}
	for _, v := range s.bank.voices {
		v.setEnvelope(cut)
	}
	s.bank.releaseAll()
	s.natal.procs.add(startTimer("natal-tail", secToDuration(finaleTailSec), func() {
		s.Lock()
		defer s.Unlock()
		if s.natal.gen != gen {
			return
		}
		s.finishNatal()
	}))
}

// finishNatal returns the engine to manual control.
func (s *state) finishNatal() {
	n := s.natal
	n.playing = false
	n.finale = false
	n.procs.cancel()
	for _, v := range s.bank.voices {
		v.setEnvelope(s.adsr)
		v.mode = modePad
		v.detuneCents = v.defaultDetune
	}
	if err := s.setParam("space.wet", s.restoreTarget("space.wet"), paramLeadSec); err != nil {
		log.Printf("natal restore: %v\n", err)
	}
}

// stopNatal cancels a running performance immediately, releasing whatever is
// sounding through the normal envelopes.
func (s *state) stopNatal() {
	if !s.natal.playing {
		return
	}
	s.natal.gen++
	s.bank.releaseAll()
	s.finishNatal()
}

func secToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
