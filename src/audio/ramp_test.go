package audio

import (
	"testing"
)

func TestLinearRamp(t *testing.T) {
	p := newRampableParam(0)
	p.rampTo(1, 1)
	expectEqual(t, p.ramping(), true)
	steps := 0
	for p.ramping() {
		p.step()
		steps++
		if steps > sampleRate+1 {
			t.Fatalf("ramp did not settle")
		}
	}
	expectNearlyEqual(t, p.value, 1)
	expectEqual(t, steps, sampleRate+1)
}

func TestLinearRampMidpoint(t *testing.T) {
	p := newRampableParam(0)
	p.rampTo(2, 1)
	for i := 0; i < sampleRate/2; i++ {
		p.step()
	}
	expectNearlyEqual(t, p.value, 1)
}

func TestRampZeroDurationIsImmediate(t *testing.T) {
	p := newRampableParam(0)
	p.rampTo(3, 0)
	expectEqual(t, p.ramping(), false)
	expectNearlyEqual(t, p.value, 3)
}

func TestExponentialRampSettles(t *testing.T) {
	p := newRampableParam(0)
	p.exponentialRampTo(1, 0.1, 0.01)
	steps := 0
	for p.ramping() {
		p.step()
		steps++
		if steps > sampleRate {
			t.Fatalf("ramp did not settle")
		}
	}
	if p.value != 1 {
		t.Errorf("expected exact landing on target, got %v", p.value)
	}
	// settles at ln(1/threshold) time constants
	expectEqual(t, steps > int(0.1*4*sampleRate), true)
	expectEqual(t, steps < int(0.1*6*sampleRate), true)
}

func TestRampOnEndFiresOnce(t *testing.T) {
	p := newRampableParam(0)
	p.rampTo(1, 0.001)
	fired := 0
	p.onEnd = func() { fired++ }
	for i := 0; i < sampleRate; i++ {
		p.step()
	}
	expectEqual(t, fired, 1)
}

func TestRampCancelDropsOnEnd(t *testing.T) {
	p := newRampableParam(0)
	p.rampTo(1, 0.001)
	fired := 0
	p.onEnd = func() { fired++ }
	p.cancel()
	for i := 0; i < sampleRate; i++ {
		p.step()
	}
	expectEqual(t, fired, 0)
	expectEqual(t, p.ramping(), false)
}

func TestRetargetDropsOnEnd(t *testing.T) {
	p := newRampableParam(0)
	p.rampTo(1, 0.001)
	fired := 0
	p.onEnd = func() { fired++ }
	p.rampTo(0.5, 0.001)
	for i := 0; i < sampleRate; i++ {
		p.step()
	}
	expectEqual(t, fired, 0)
	expectNearlyEqual(t, p.value, 0.5)
}
