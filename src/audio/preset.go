package audio

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// ----- Presets ----- //

// presetJSON is one stored scene: macro positions, direct knob overrides and
// voice settings. Knobs hold plain values, not normalized ones, so a preset
// file reads like the UI.
type presetJSON struct {
	Macros map[string]float64 `json:"macros"`
	Knobs  map[string]float64 `json:"knobs"`
	Adsr   json.RawMessage    `json:"adsr,omitempty"`
	Osc    string             `json:"osc,omitempty"`
}

type presetMetaJSON struct {
	Name string `json:"name"`
}
type presetMetaListJSON struct {
	Items []presetMetaJSON `json:"items"`
}
type presetMeta struct {
	name string
}
type presetManager struct {
	dir  string
	list []*presetMeta
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() ([]*presetMeta, error) {
	if pm.list == nil {
		if err := pm.loadList(); err != nil {
			return nil, err
		}
	}
	return pm.list, nil
}

func (pm *presetManager) loadList() error {
	path := pm.dir + "/_list.json"
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	metaListJSON := &presetMetaListJSON{}
	if err := json.Unmarshal(bytes, &metaListJSON); err != nil {
		return err
	}
	pm.list = pm.list[:0]
	for _, item := range metaListJSON.Items {
		pm.list = append(pm.list, &presetMeta{name: item.Name})
	}
	return nil
}

func (pm *presetManager) applyTo(name string, s *state) error {
	path := pm.dir + "/" + name + ".json"
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return s.applyPreset(bytes)
}

// applyPreset loads a scene: macros first, then direct knob overrides on top
// so a stored manual tweak wins over the macro-implied value.
func (s *state) applyPreset(data []byte) error {
	var p presetJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid preset: %v", err)
	}
	for name, value := range p.Macros {
		if err := s.setMacro(name, value); err != nil {
			return err
		}
	}
	for name, value := range p.Knobs {
		if err := s.setParam(name, value, paramLeadSec); err != nil {
			return err
		}
	}
	if p.Adsr != nil {
		s.adsr.applyJSON(p.Adsr)
		for _, v := range s.bank.voices {
			v.setEnvelope(s.adsr)
		}
	}
	if p.Osc != "" {
		kind, err := waveKindFromString(p.Osc)
		if err != nil {
			return err
		}
		for _, v := range s.bank.voices {
			v.setOscillatorType(kind)
		}
	}
	return nil
}

// currentPreset captures the live scene in preset form.
func (s *state) currentPreset() json.RawMessage {
	p := presetJSON{
		Macros: map[string]float64{},
		Knobs:  map[string]float64{},
		Adsr:   s.adsr.toJSON(),
		Osc:    waveKindToString(s.bank.voices[0].oscs[0].kind),
	}
	for name, value := range s.macros.values {
		p.Macros[name] = value
	}
	for name, value := range s.desired {
		p.Knobs[name] = value
	}
	return toRawMessage(&p)
}
