package audio

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// ----- MIDI ----- //

const (
	midiNoteOff = iota
	midiNoteOn
	midiControlChange
)

type MidiEvent struct {
	kind  int
	note  int
	value float64 // velocity or control value, 0-1
	cc    int
}

// decodeMidi turns a raw status message into an event. A note-on with zero
// velocity is a note-off, per convention.
func decodeMidi(data []byte) (MidiEvent, bool) {
	if len(data) < 3 {
		return MidiEvent{}, false
	}
	switch data[0] >> 4 {
	case 8:
		return MidiEvent{kind: midiNoteOff, note: int(data[1])}, true
	case 9:
		if data[2] == 0 {
			return MidiEvent{kind: midiNoteOff, note: int(data[1])}, true
		}
		return MidiEvent{kind: midiNoteOn, note: int(data[1]), value: float64(data[2]) / 127}, true
	case 11:
		return MidiEvent{kind: midiControlChange, cc: int(data[1]), value: float64(data[2]) / 127}, true
	}
	return MidiEvent{}, false
}

// ListenToMidiIn ...
func ListenToMidiIn(ctx context.Context) <-chan MidiEvent {
	ch := make(chan MidiEvent, 65536)
	go func() {
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			if e, ok := decodeMidi(data); ok {
				ch <- e
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		defer close(ch)
		<-ctx.Done()
	}()
	return ch
}
