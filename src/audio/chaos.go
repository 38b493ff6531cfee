package audio

import (
	"log"
	"math"
	"math/rand"
	"time"
)

// ----- Chaos (Eclipse) ----- //

const (
	eclipseRampSec    = 16.0
	eclipseReturnSec  = 4.0
	driftTickInterval = 250 * time.Millisecond
	spreadStep        = 0.02
	spreadCeiling     = 1.0
	detuneWalkCents   = 35.0
	detuneSmoothing   = 0.15
)

// chaosTargets are the fixed extremes the eclipse drifts toward. On the
// default chain none of these sit on a bypassable node; a chain config that
// moves one behind a bypass gap gets spliced in through setParam.
var chaosTargets = map[string]float64{
	"tone.freq":             300,
	"chorus.rate":           4,
	"chorus.depth":          16,
	"echoFeedback.feedback": 0.93,
	"echoDelay.time":        1600,
	"echoDamp.freq":         600,
	"space.wet":             0.95,
	"space.decay":           0.96,
}

type chaosState struct {
	active bool
	procs  processGroup
}

func newChaosState() *chaosState {
	return &chaosState{}
}

// setChaos enters or leaves the eclipse. Re-entering the current mode is a
// no-op so a repeated command never restarts the ramps.
func (s *state) setChaos(on bool) {
	if on {
		s.enterChaos()
	} else {
		s.exitChaos()
	}
}

func (s *state) enterChaos() {
	c := s.chaos
	if c.active {
		return
	}
	c.active = true
	log.Println("chaos: entering eclipse")
	// setParam keeps the splice handling, in case a custom chain has put
	// one of the targets behind a bypass gap
	for name, target := range chaosTargets {
		if err := s.setParam(name, target, eclipseRampSec); err != nil {
			log.Printf("chaos ramp of %q failed: %v\n", name, err)
		}
	}
	c.procs.add(startTicker("chaos-spread", driftTickInterval, func() bool {
		s.Lock()
		defer s.Unlock()
		if !s.chaos.active {
			return false
		}
		return s.stepSpreadWiden()
	}))
	c.procs.add(startTicker("chaos-detune", driftTickInterval, func() bool {
		s.Lock()
		defer s.Unlock()
		if !s.chaos.active {
			return false
		}
		s.stepDetuneWalk()
		return true
	}))
}

func (s *state) exitChaos() {
	c := s.chaos
	if !c.active {
		return
	}
	c.active = false
	c.procs.cancel()
	log.Println("chaos: restoring")
	for name := range chaosTargets {
		if err := s.setParam(name, s.restoreTarget(name), eclipseReturnSec); err != nil {
			log.Printf("chaos restore of %q failed: %v\n", name, err)
		}
	}
	for _, v := range s.bank.voices {
		v.spread = v.defaultSpread
		v.detuneCents = v.defaultDetune
	}
}

// stepSpreadWiden pushes every voice a fixed step toward full stereo width.
// Returns false once the whole bank has reached the ceiling; the ticker
// stops itself then.
func (s *state) stepSpreadWiden() bool {
	widening := false
	for _, v := range s.bank.voices {
		if v.spread < spreadCeiling {
			v.spread = math.Min(v.spread+spreadStep, spreadCeiling)
			widening = true
		}
	}
	return widening
}

// stepDetuneWalk draws a fresh random detune target per voice each tick and
// eases the live value toward it, so the walk wanders instead of jumping.
func (s *state) stepDetuneWalk() {
	for _, v := range s.bank.voices {
		target := (rand.Float64()*2 - 1) * detuneWalkCents
		v.detuneCents += detuneSmoothing * (target - v.detuneCents)
	}
}
