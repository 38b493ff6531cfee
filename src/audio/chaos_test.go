package audio

import (
	"testing"
)

func newTestState(t *testing.T) *state {
	t.Helper()
	s, err := newState()
	expectNoError(t, err)
	return s
}

func TestChaosEnterRampsToExtremes(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.setChaos(true)
	for name, target := range chaosTargets {
		p := s.reg.params[name]
		expectEqual(t, p.ramping(), true)
		expectNearlyEqual(t, p.targetValue, target)
		expectNearlyEqual(t, p.duration, eclipseRampSec*1000)
	}
	s.setChaos(false)
	s.Unlock()
}

func TestChaosEnterIsIdempotent(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.setChaos(true)
	p := s.reg.params["tone.freq"]
	for i := 0; i < sampleRate; i++ {
		p.step()
	}
	mid := p.value
	// a repeated enter must not restart the ramp
	s.setChaos(true)
	expectNearlyEqual(t, p.value, mid)
	expectEqual(t, s.chaos.procs.size(), 2)
	s.setChaos(false)
	s.Unlock()
}

func TestChaosExitRestoresMacroSnapshot(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	expectNoError(t, s.setMacro("air", 0.75))
	want := s.macros.snapshot()["echoDamp.freq"]
	s.setChaos(true)
	p := s.reg.params["echoDamp.freq"]
	for i := 0; i < 4*sampleRate; i++ {
		p.step()
	}
	s.setChaos(false)
	expectNearlyEqual(t, p.targetValue, want)
	expectNearlyEqual(t, p.duration, eclipseReturnSec*1000)
	expectEqual(t, s.chaos.procs.size(), 0)
	s.Unlock()
}

// A linear ramp lands on its target after exactly the ramp time, no sooner.
func TestChaosRampSettlesExactlyAtRampTime(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.setChaos(true)
	p := s.reg.params["echoFeedback.feedback"]
	for i := 0; i < int(eclipseRampSec)*sampleRate; i++ {
		p.step()
	}
	expectEqual(t, p.ramping(), true)
	p.step()
	expectEqual(t, p.ramping(), false)
	expectNearlyEqual(t, p.value, chaosTargets["echoFeedback.feedback"])
	s.setChaos(false)
	s.Unlock()
}

func TestDisposeCancelsOutstandingProcesses(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.setChaos(true)
	expectNoError(t, s.playNatalJSON([]byte(`{"bodies":{"sun":{"sign":"leo","degree":10}}}`)))
	expectEqual(t, s.chaos.procs.size() > 0, true)
	expectEqual(t, s.natal.procs.size() > 0, true)
	s.dispose()
	expectEqual(t, s.chaos.procs.size(), 0)
	expectEqual(t, s.natal.procs.size(), 0)
	// a second dispose must be harmless
	s.dispose()
	s.Unlock()
}

// A chain config may park a chaos target behind a bypass gap; entering the
// eclipse must splice such a node in, not ramp its wet mix while unwired.
func TestChaosSplicesBypassedTargets(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	defer s.Unlock()
	expectNoError(t, s.setChain(&chainConfig{
		order:  []string{"tone", "echo"},
		bypass: map[string]bypassGap{"space": {after: "echo", before: "sink"}},
	}))
	expectEqual(t, s.graph.wired("echo", "space"), false)
	s.setChaos(true)
	expectEqual(t, s.graph.wired("echo", "space"), true)
	expectNearlyEqual(t, s.reg.params["space.decay"].targetValue, chaosTargets["space.decay"])
	s.setChaos(false)
}

func TestChaosExitWithoutEnterIsNoOp(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	p := s.reg.params["tone.freq"]
	before := p.value
	s.setChaos(false)
	expectNearlyEqual(t, p.value, before)
	expectEqual(t, p.ramping(), false)
	s.Unlock()
}

func TestSpreadWidensToCeilingAndStops(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	defer s.Unlock()
	first := s.bank.voices[0].spread
	expectEqual(t, s.stepSpreadWiden(), true)
	expectNearlyEqual(t, s.bank.voices[0].spread, first+spreadStep)
	ticks := 0
	for s.stepSpreadWiden() {
		ticks++
		if ticks > 1000 {
			t.Fatalf("spread never reached the ceiling")
		}
	}
	for _, v := range s.bank.voices {
		expectNearlyEqual(t, v.spread, spreadCeiling)
	}
	// once everything is at the ceiling the ticker retires
	expectEqual(t, s.stepSpreadWiden(), false)
}

func TestDetuneWalkStaysBounded(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	defer s.Unlock()
	for i := 0; i < 10000; i++ {
		s.stepDetuneWalk()
	}
	for _, v := range s.bank.voices {
		if v.detuneCents < -detuneWalkCents || v.detuneCents > detuneWalkCents {
			t.Errorf("voice %d walked to %v cents, outside the walk range", v.id, v.detuneCents)
		}
	}
}

func TestChaosExitResetsVoiceDrift(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	s.setChaos(true)
	for i := 0; i < 20; i++ {
		s.stepSpreadWiden()
		s.stepDetuneWalk()
	}
	s.setChaos(false)
	for _, v := range s.bank.voices {
		expectNearlyEqual(t, v.spread, v.defaultSpread)
		expectNearlyEqual(t, v.detuneCents, v.defaultDetune)
	}
	s.Unlock()
}
