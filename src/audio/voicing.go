package audio

import "math"

// ----- Adaptive Voicing ----- //

// gainOffsetDb keeps perceived loudness steady as polyphony changes: full
// polyphony gets no boost, a lone voice gets the most. Zero active voices
// means silence, so no offset applies.
func gainOffsetDb(activeVoiceCount int, totalVoiceCount int) float64 {
	if activeVoiceCount <= 0 {
		return 0
	}
	return 5 * math.Log10(float64(totalVoiceCount)/float64(activeVoiceCount))
}
