package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- ADSR Params ----- //

const (
	phaseNone = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

type adsrParams struct {
	attack  float64 // ms
	decay   float64 // ms
	sustain float64 // 0-1
	release float64 // ms
}
type adsrJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

func (a *adsrParams) applyJSON(data json.RawMessage) {
	var j adsrJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to adsrParams")
		return
	}
	a.attack = j.Attack
	a.decay = j.Decay
	a.sustain = j.Sustain
	a.release = j.Release
}
func (a *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Attack:  a.attack,
		Decay:   a.decay,
		Sustain: a.sustain,
		Release: a.release,
	})
}
func (a *adsrParams) set(key string, value string) error {
	switch key {
	case "attack":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.attack = value
	case "decay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.decay = value
	case "sustain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.sustain = value
	case "release":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.release = value
	}
	return nil
}

// ----- ADSR ----- //

/*
  1 +     x
    |    / \
  s +   /   x------x
    |  /            \
    | /              \
  0 +-+---+--+------+---
    |a    |d |      |r |
*/
type adsr struct {
	attack         float64 // ms
	decay          float64 // ms
	sustain        float64 // 0-1
	release        float64 // ms
	value          float64
	phase          int
	phasePos       int
	valueAtNoteOn  float64
	valueAtNoteOff float64
}

func (a *adsr) setParams(p *adsrParams) {
	a.attack = p.attack
	a.decay = p.decay
	a.sustain = p.sustain
	a.release = p.release
}

func (a *adsr) noteOn() {
	a.phase = phaseAttack
	a.phasePos = 0
	a.valueAtNoteOn = a.value
}

func (a *adsr) noteOff() {
	if a.phase == phaseNone {
		return
	}
	a.phase = phaseRelease
	a.phasePos = 0
	a.valueAtNoteOff = a.value
}

func (a *adsr) active() bool {
	return a.phase != phaseNone
}

func (a *adsr) step() {
	phaseTime := float64(a.phasePos) * secPerSample * 1000 // ms
	switch a.phase {
	case phaseAttack:
		if phaseTime >= a.attack {
			a.phase = phaseDecay
			a.phasePos = 0
			a.value = 1
		} else {
			t := phaseTime / a.attack
			a.value = t + (1-t)*a.valueAtNoteOn
			a.phasePos++
		}
	case phaseDecay:
		ended := false
		if a.decay == 0 {
			ended = true
		} else {
			t := phaseTime / a.decay
			a.value = setTargetAtTime(1, a.sustain, t)
			if math.Abs(a.value-a.sustain) < 0.001 {
				ended = true
			}
		}
		if ended {
			a.phase = phaseSustain
			a.phasePos = 0
			a.value = a.sustain
		} else {
			a.phasePos++
		}
	case phaseSustain:
		a.value = a.sustain
	case phaseRelease:
		ended := false
		if a.release == 0 {
			ended = true
		} else {
			t := phaseTime / a.release
			a.value = setTargetAtTime(a.valueAtNoteOff, 0, t)
			if math.Abs(a.value) < 0.001 {
				ended = true
			}
		}
		if ended {
			a.phase = phaseNone
			a.phasePos = 0
			a.value = 0
		} else {
			a.phasePos++
		}
	default:
		a.value = 0
	}
}
