package audio

import (
	"fmt"
	"math"
	"math/rand"
)

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveTriangle
	waveSaw
	waveSawRev
	wavePulse
	waveNoise
)

func waveKindFromString(s string) (int, error) {
	switch s {
	case "sine":
		return waveSine, nil
	case "triangle":
		return waveTriangle, nil
	case "saw":
		return waveSaw, nil
	case "saw-rev":
		return waveSawRev, nil
	case "pulse":
		return wavePulse, nil
	case "noise":
		return waveNoise, nil
	}
	return 0, fmt.Errorf("unknown wave kind %q", s)
}
func waveKindToString(kind int) string {
	switch kind {
	case waveSine:
		return "sine"
	case waveTriangle:
		return "triangle"
	case waveSaw:
		return "saw"
	case waveSawRev:
		return "saw-rev"
	case wavePulse:
		return "pulse"
	case waveNoise:
		return "noise"
	}
	return "unknown"
}

// ----- OSC ----- //

type osc struct {
	kind  int
	freq  float64
	phase float64
	level float64
}

func newOsc() *osc {
	return &osc{kind: waveSine, level: 1, phase: rand.Float64() * 2.0 * math.Pi}
}

func (o *osc) initWithFreq(freq float64) {
	o.freq = freq
	o.phase = rand.Float64() * 2.0 * math.Pi
}

func (o *osc) step(freqRatio float64) float64 {
	freq := o.freq * freqRatio
	phase := o.phase
	value := 0.0
	switch o.kind {
	case waveSine:
		value = math.Sin(phase)
	case waveTriangle:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		if p < 0.5 {
			value = p*4 - 1
		} else {
			value = p*(-4) + 3
		}
	case waveSaw:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		value = p*2 - 1
	case waveSawRev:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		value = p*(-2) + 1
	case wavePulse:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		if p < 0.25 {
			value = 1
		} else {
			value = -1
		}
	case waveNoise:
		value = rand.Float64()*2 - 1
	}
	o.phase += 2.0 * math.Pi * freq / float64(sampleRate)
	if o.phase > 2.0*math.Pi {
		o.phase -= 2.0 * math.Pi
	}
	return value * o.level
}
