package audio

import (
	"math"
)

// ----- Voice Mode ----- //

const (
	modePad = iota
	modePulse
)

// ----- Voice ----- //

// voice is one pad voice of the fixed bank: a detuned oscillator pair into
// one envelope. Spread and detune are the live trackers chaos drift mutates;
// the defaults are what a chaos exit restores.
type voice struct {
	id            int
	oscs          [2]*osc
	adsr          *adsr
	params        *adsrParams
	note          int
	mode          int
	pulseRate     float64 // Hz, pulse mode only
	velocity      float64
	gainDb        float64
	detuneCents   float64
	spread        float64 // 0-1
	defaultDetune float64
	defaultSpread float64
	pairSpread    float64 // fixed cents between the two oscs
}

func newVoice(id int) *voice {
	v := &voice{
		id:            id,
		oscs:          [2]*osc{newOsc(), newOsc()},
		adsr:          &adsr{},
		params:        &adsrParams{attack: 900, decay: 400, sustain: 0.8, release: 2600},
		mode:          modePad,
		velocity:      1,
		defaultSpread: 0.4,
		pairSpread:    3,
	}
	// stagger the static per-voice defaults a little so the bank
	// does not sound like one wide oscillator
	v.defaultDetune = float64(id%5-2) * 1.5
	v.detuneCents = v.defaultDetune
	v.spread = v.defaultSpread
	v.adsr.setParams(v.params)
	return v
}

func (v *voice) triggerAttack(note int, velocity float64) {
	v.note = note
	v.velocity = clamp(velocity, 0, 1)
	freq := noteToFreq(note)
	v.oscs[0].initWithFreq(freq * centsToRatio(v.pairSpread/2))
	v.oscs[1].initWithFreq(freq * centsToRatio(-v.pairSpread/2))
	v.adsr.setParams(v.params)
	v.adsr.noteOn()
}

func (v *voice) triggerRelease() {
	v.adsr.noteOff()
}

func (v *voice) setDetune(cents float64) {
	v.detuneCents = cents
}

func (v *voice) setOscillatorType(kind int) {
	for _, o := range v.oscs {
		o.kind = kind
	}
}

func (v *voice) setEnvelope(p *adsrParams) {
	v.params = p
	v.adsr.setParams(p)
}

func (v *voice) setGainDb(db float64) {
	v.gainDb = db
}

func (v *voice) active() bool {
	return v.adsr.active()
}

// panPos spreads the bank symmetrically around center, scaled by the voice's
// live spread tracker.
func (v *voice) panPos() float64 {
	base := (float64(v.id)/float64(numVoices-1))*2 - 1
	return base * clamp(v.spread, 0, 1)
}

func (v *voice) step() (float64, float64) {
	if !v.adsr.active() {
		return 0, 0
	}
	v.adsr.step()
	ratio := centsToRatio(v.detuneCents)
	value := (v.oscs[0].step(ratio) + v.oscs[1].step(ratio)) * 0.5
	value *= oscGain * v.velocity * v.adsr.value * dbToRatio(v.gainDb)
	angle := (v.panPos() + 1) * math.Pi / 4
	return value * math.Cos(angle), value * math.Sin(angle)
}

// ----- Voice Bank ----- //

type voiceBank struct {
	voices []*voice
}

func newVoiceBank() *voiceBank {
	b := &voiceBank{}
	for i := 0; i < numVoices; i++ {
		b.voices = append(b.voices, newVoice(i))
	}
	return b
}

func (b *voiceBank) activeCount() int {
	count := 0
	for _, v := range b.voices {
		if v.active() {
			count++
		}
	}
	return count
}

func (b *voiceBank) releaseAll() {
	for _, v := range b.voices {
		v.triggerRelease()
	}
}

func (b *voiceBank) step() (float64, float64) {
	var l, r float64
	for _, v := range b.voices {
		vl, vr := v.step()
		l += vl
		r += vr
	}
	return l, r
}
