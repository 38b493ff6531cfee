package audio

import (
	"encoding/json"
	"math"
	"time"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	numVoices       = 12
)

// SampleRate is the fixed engine rate, exported for offline consumers.
const SampleRate = sampleRate

const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate
const baseFreq = 442.0
const oscGain = 0.07

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
func positiveMod(a float64, b float64) float64 {
	if b < 0 {
		panic("b should not be negative")
	}
	for a < 0 {
		a += b
	}
	return math.Mod(a, b)
}
func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}
func dbToRatio(db float64) float64 {
	return math.Pow(10, db/20)
}
func centsToRatio(cents float64) float64 {
	return math.Pow(2, cents/100/12)
}
func clamp(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
