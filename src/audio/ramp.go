package audio

import "math"

// ----- Ramp Kind ----- //

const (
	rampNone = iota
	rampLinear
	rampExponential
)

// ----- Rampable Param ----- //

// rampableParam is a single automatable control on a graph node. All
// transitions run in the sample domain so a value is exact at every sample;
// onEnd fires once, on the sample the ramp settles.
type rampableParam struct {
	kind         int
	duration     float64 // ms
	endThreshold float64
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
	onEnd        func()
}

func newRampableParam(value float64) *rampableParam {
	return &rampableParam{value: value}
}

func (rp *rampableParam) setImmediate(value float64) {
	rp.kind = rampNone
	rp.duration = 0
	rp.endThreshold = 0
	rp.initialValue = 0
	rp.targetValue = value
	rp.value = value
	rp.pos = 0
	rp.onEnd = nil
}

// rampTo starts a linear ramp. Zero or negative duration applies immediately.
func (rp *rampableParam) rampTo(targetValue float64, durationSeconds float64) {
	if durationSeconds <= 0 {
		rp.setImmediate(targetValue)
		return
	}
	rp.kind = rampLinear
	rp.duration = durationSeconds * 1000
	rp.endThreshold = 0
	rp.pos = 0
	rp.initialValue = rp.value
	rp.targetValue = targetValue
	rp.onEnd = nil
}

func (rp *rampableParam) exponentialRampTo(targetValue float64, durationSeconds float64, endThreshold float64) {
	rp.kind = rampExponential
	rp.duration = durationSeconds * 1000
	rp.endThreshold = endThreshold
	rp.pos = 0
	rp.initialValue = rp.value
	rp.targetValue = targetValue
	rp.onEnd = nil
}

// cancel freezes the param at its current value and drops any pending onEnd.
func (rp *rampableParam) cancel() {
	rp.kind = rampNone
	rp.targetValue = rp.value
	rp.pos = 0
	rp.onEnd = nil
}

func (rp *rampableParam) ramping() bool {
	return rp.kind != rampNone
}

func (rp *rampableParam) step() bool {
	ended := false
	switch rp.kind {
	case rampLinear:
		phaseTime := float64(rp.pos) * secPerSample * 1000 // ms
		if phaseTime >= rp.duration {
			rp.end()
			ended = true
		} else {
			t := phaseTime / rp.duration
			rp.value = t*rp.targetValue + (1-t)*rp.initialValue
			rp.pos++
		}
	case rampExponential:
		phaseTime := float64(rp.pos) * secPerSample * 1000 // ms
		t := phaseTime / rp.duration
		rp.value = setTargetAtTime(rp.initialValue, rp.targetValue, t)
		if math.Abs(rp.value-rp.targetValue) < rp.endThreshold {
			rp.end()
			ended = true
		} else {
			rp.pos++
		}
	case rampNone:
	}
	return ended
}

func (rp *rampableParam) end() {
	rp.kind = rampNone
	rp.value = rp.targetValue
	rp.pos = 0
	if rp.onEnd != nil {
		f := rp.onEnd
		rp.onEnd = nil
		f()
	}
}

// 63% closer to target when pos=1.0
func setTargetAtTime(initialValue float64, targetValue float64, pos float64) float64 {
	return targetValue + (initialValue-targetValue)*math.Exp(-pos)
}
