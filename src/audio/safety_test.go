package audio

import (
	"testing"
)

func TestLoopGainSafe(t *testing.T) {
	expectEqual(t, loopGainSafe(0.9, 0.55), true)
	expectEqual(t, loopGainSafe(1.0, 0.95), true)
	expectEqual(t, loopGainSafe(1.0, 1.0), false)
	expectEqual(t, loopGainSafe(2.0, 0.6), false)
}

// The loop gain bound must hold across the entire macro domain, not just at
// the positions anyone happens to have tried.
func TestLoopGainSafeOverMacroDomain(t *testing.T) {
	m, _ := newTestMacroEngine(t)
	const steps = 1000
	for i := 0; i <= steps; i++ {
		v := float64(i) / steps
		_, err := m.set("depth", v)
		expectNoError(t, err)
		snap := m.snapshot()
		drive := snap["echoSend.drive"]
		feedback := snap["echoFeedback.feedback"]
		if !loopGainSafe(drive, feedback) {
			t.Fatalf("depth=%v gives loop gain %v", v, drive*feedback)
		}
	}
}

// Direct knob edits are clamped to their spec ranges, and the ranges are
// authored so that even both knobs pinned at max stay under the bound.
func TestLoopGainSafeAtKnobExtremes(t *testing.T) {
	s := newTestState(t)
	s.Lock()
	defer s.Unlock()
	expectNoError(t, s.setParam("echoSend.drive", 99, 0))
	expectNoError(t, s.setParam("echoFeedback.feedback", 99, 0))
	drive := s.reg.params["echoSend.drive"].value
	feedback := s.reg.params["echoFeedback.feedback"].value
	expectNearlyEqual(t, drive, 1.0)
	expectNearlyEqual(t, feedback, 0.95)
	expectEqual(t, loopGainSafe(drive, feedback), true)
}

// A driven loop at the worst reachable settings must not blow up.
func TestEchoLoopBoundedAtWorstCase(t *testing.T) {
	reg, err := newRegistry()
	expectNoError(t, err)
	g, err := buildGraph(&chainConfig{order: []string{"echo"}}, reg)
	expectNoError(t, err)
	reg.params["echoSend.drive"].setImmediate(1)
	reg.params["echoMix.wet"].setImmediate(1)
	reg.params["echoFeedback.feedback"].setImmediate(0.95)
	reg.params["echoDelay.time"].setImmediate(50)
	reg.params["echoDamp.freq"].setImmediate(12000)
	reg.params["master.gain"].setImmediate(1)
	for i := 0; i < 10*sampleRate; i++ {
		l, r := g.step(0.5, 0.5)
		if l > 10 || l < -10 || r > 10 || r < -10 {
			t.Fatalf("loop diverged at sample %d: %v, %v", i, l, r)
		}
	}
}
