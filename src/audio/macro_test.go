package audio

import (
	"sort"
	"testing"
)

func newTestMacroEngine(t *testing.T) (*macroEngine, *registry) {
	t.Helper()
	reg, err := newRegistry()
	expectNoError(t, err)
	m, err := newMacroEngine(defaultMacroDefs(), reg.specs)
	expectNoError(t, err)
	return m, reg
}

func TestMacroMidpointMatchesKnobDefaults(t *testing.T) {
	m, reg := newTestMacroEngine(t)
	for _, name := range m.order {
		updates, err := m.set(name, 0.5)
		expectNoError(t, err)
		for _, u := range updates {
			spec := reg.specs[u.name]
			if diff := u.value - spec.def; diff > 0.0001 || diff < -0.0001 {
				t.Errorf("macro %q at center drives %q to %v, knob default is %v", name, u.name, u.value, spec.def)
			}
		}
	}
}

func TestMacroUpdatesSorted(t *testing.T) {
	m, _ := newTestMacroEngine(t)
	updates, err := m.set("motion", 0.8)
	expectNoError(t, err)
	expectEqual(t, len(updates), 3)
	sorted := sort.SliceIsSorted(updates, func(i, j int) bool { return updates[i].name < updates[j].name })
	expectEqual(t, sorted, true)
}

func TestMacroUnknownName(t *testing.T) {
	m, _ := newTestMacroEngine(t)
	_, err := m.set("wobble", 0.5)
	expectError(t, err)
	_, err = m.get("wobble")
	expectError(t, err)
}

func TestMacroValueClamped(t *testing.T) {
	m, _ := newTestMacroEngine(t)
	_, err := m.set("haze", 1.5)
	expectNoError(t, err)
	v, err := m.get("haze")
	expectNoError(t, err)
	expectNearlyEqual(t, v, 1)
}

func TestMacroDormantZoneHoldsBase(t *testing.T) {
	m, _ := newTestMacroEngine(t)
	for _, v := range []float64{0, 0.2, 0.5} {
		updates, err := m.set("grit", v)
		expectNoError(t, err)
		for _, u := range updates {
			if u.name == "drive.wet" || u.name == "crush.wet" {
				expectNearlyEqual(t, u.value, 0)
			}
		}
	}
	updates, err := m.set("grit", 1)
	expectNoError(t, err)
	for _, u := range updates {
		if u.name == "drive.wet" {
			expectNearlyEqual(t, u.value, 1)
		}
	}
}

func TestMacroSnapshot(t *testing.T) {
	m, _ := newTestMacroEngine(t)
	_, err := m.set("air", 1)
	expectNoError(t, err)
	snap := m.snapshot()
	expectNearlyEqual(t, snap["echoDamp.freq"], 12000)
	// snapshot covers every bound param
	expectEqual(t, len(snap), 15)
	// a later set does not mutate an old snapshot
	_, err = m.set("air", 0)
	expectNoError(t, err)
	expectNearlyEqual(t, snap["echoDamp.freq"], 12000)
}

func TestMacroEngineValidation(t *testing.T) {
	reg, err := newRegistry()
	expectNoError(t, err)
	_, err = newMacroEngine([]*macroDef{
		{name: "a", def: 0.5, bindings: map[string]*curveSpec{"nope.freq": splitLinear(0, 1, 2)}},
	}, reg.specs)
	expectError(t, err)
	_, err = newMacroEngine([]*macroDef{
		{name: "a", def: 2, bindings: map[string]*curveSpec{}},
	}, reg.specs)
	expectError(t, err)
	_, err = newMacroEngine([]*macroDef{
		{name: "a", def: 0.5, bindings: map[string]*curveSpec{}},
		{name: "a", def: 0.5, bindings: map[string]*curveSpec{}},
	}, reg.specs)
	expectError(t, err)
	_, err = newMacroEngine([]*macroDef{
		{name: "a", def: 0.5, bindings: map[string]*curveSpec{"tone.freq": splitLog(0, 1, 2)}},
	}, reg.specs)
	expectError(t, err)
}
