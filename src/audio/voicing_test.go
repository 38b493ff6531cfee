package audio

import (
	"math"
	"testing"
)

func TestGainOffsetDb(t *testing.T) {
	// full polyphony gets no boost
	expectNearlyEqual(t, gainOffsetDb(numVoices, numVoices), 0)
	// a lone voice gets the most
	expectNearlyEqual(t, gainOffsetDb(1, numVoices), 5*math.Log10(numVoices))
	expectNearlyEqual(t, gainOffsetDb(6, numVoices), 5*math.Log10(2))
	// silence needs no offset
	expectNearlyEqual(t, gainOffsetDb(0, numVoices), 0)
	expectNearlyEqual(t, gainOffsetDb(-1, numVoices), 0)
}

func TestGainOffsetDbMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for active := 1; active <= numVoices; active++ {
		offset := gainOffsetDb(active, numVoices)
		if offset >= prev {
			t.Errorf("offset should shrink as polyphony grows: %d voices gave %v after %v", active, offset, prev)
		}
		prev = offset
	}
}

func TestVoiceBankTracksActiveCount(t *testing.T) {
	b := newVoiceBank()
	short := &adsrParams{attack: 1, decay: 1, sustain: 0.5, release: 10}
	for _, v := range b.voices {
		v.setEnvelope(short)
	}
	expectEqual(t, b.activeCount(), 0)
	b.voices[0].triggerAttack(60, 1)
	b.voices[3].triggerAttack(64, 1)
	expectEqual(t, b.activeCount(), 2)
	b.releaseAll()
	// releasing keeps voices active until the envelope dies out
	expectEqual(t, b.activeCount(), 2)
	for i := 0; i < sampleRate; i++ {
		b.step()
	}
	expectEqual(t, b.activeCount(), 0)
}

func TestVoicePanSpread(t *testing.T) {
	v0 := newVoice(0)
	vLast := newVoice(numVoices - 1)
	expectNearlyEqual(t, v0.panPos(), -v0.spread)
	expectNearlyEqual(t, vLast.panPos(), vLast.spread)
	v0.spread = 0
	expectNearlyEqual(t, v0.panPos(), 0)
}
