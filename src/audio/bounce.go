package audio

import (
	"encoding/json"
	"fmt"
)

// ----- Offline Bounce ----- //

const bounceExtraTailSec = 2.0

// RenderNatal performs a chart offline and returns interleaved stereo
// float32 frames. The schedule is the same one live playback uses, but
// entries, pulses and the finale are driven by the sample counter instead
// of timers, so the bounce is deterministic.
func RenderNatal(chartData []byte) ([]float32, error) {
	var chart chartJSON
	if err := json.Unmarshal(chartData, &chart); err != nil {
		return nil, fmt.Errorf("invalid chart: %v", err)
	}
	events, total, err := composeNatal(&chart)
	if err != nil {
		return nil, err
	}
	s, err := newState()
	if err != nil {
		return nil, err
	}

	type pulse struct {
		e    natalEvent
		next int
	}
	var pulses []*pulse
	finaleAt := int(total * sampleRate)
	totalSamples := int((total + finaleTailSec + bounceExtraTailSec) * sampleRate)
	samples := make([]float32, 0, totalSamples*2)

	next := 0
	finaleDone := false
	for i := 0; i < totalSamples; i++ {
		for next < len(events) && int(events[next].timeSec*sampleRate) <= i {
			e := events[next]
			s.bank.voices[e.voiceID].setDetune(e.detuneCents)
			s.triggerVoice(e.voiceID, e.note, e.velocity)
			if e.pulseRate > 0 {
				pulses = append(pulses, &pulse{e: e, next: i + int(sampleRate/e.pulseRate)})
			}
			next++
		}
		if !finaleDone {
			for _, p := range pulses {
				if i >= p.next {
					s.triggerVoice(p.e.voiceID, p.e.note, p.e.velocity)
					p.next += int(sampleRate / p.e.pulseRate)
				}
			}
			if i >= finaleAt {
				if err := s.setParam("space.wet", finaleSpaceTarget, finaleTailSec); err != nil {
					return nil, err
				}
				cut := &adsrParams{attack: s.adsr.attack, decay: s.adsr.decay, sustain: s.adsr.sustain, release: finaleReleaseMs}
				for _, v := range s.bank.voices {
					v.setEnvelope(cut)
				}
				s.bank.releaseAll()
				finaleDone = true
			}
		}
		l, r := s.render()
		samples = append(samples, float32(l), float32(r))
	}
	return samples, nil
}
