package audio

import (
	"fmt"
	"sort"
)

// ----- Macro Def ----- //

// macroDef binds one normalized knob to many leaf params through curves.
type macroDef struct {
	name     string
	label    string
	def      float64 // 0-1
	bindings map[string]*curveSpec
}

// defaultMacroDefs is authored so that every curve midpoint equals the bound
// knob's default: a macro at 0.5 is a no-op against a fresh engine.
func defaultMacroDefs() []*macroDef {
	return []*macroDef{
		{
			name: "haze", label: "Haze", def: 0.5,
			bindings: map[string]*curveSpec{
				"tone.freq": splitLog(200, 9000, 16000),
				"tone.q":    splitLinear(0.5, 0.7, 1.2),
			},
		},
		{
			name: "motion", label: "Motion", def: 0.5,
			bindings: map[string]*curveSpec{
				"chorus.rate":  splitLog(0.1, 0.6, 5),
				"chorus.depth": splitLinear(1, 6, 14),
				"chorus.wet":   splitLinear(0, 0.3, 0.9),
			},
		},
		{
			name: "space", label: "Space", def: 0.5,
			bindings: map[string]*curveSpec{
				"space.wet":   splitLinear(0.05, 0.4, 1),
				"space.decay": splitLinear(0.5, 0.82, 0.96),
				"echoMix.wet": splitLinear(0.1, 0.35, 0.8),
			},
		},
		{
			name: "grit", label: "Grit", def: 0.5,
			bindings: map[string]*curveSpec{
				"drive.wet":   dormantLinear(0, 1),
				"drive.drive": dormantLog(2, 18),
				"crush.wet":   dormantLinear(0, 0.5),
			},
		},
		{
			name: "depth", label: "Depth", def: 0.5,
			bindings: map[string]*curveSpec{
				"echoFeedback.feedback": splitLinear(0.2, 0.55, 0.9),
				"echoDelay.time":        splitLog(150, 420, 1200),
				"echoSend.drive":        splitLinear(0.6, 0.9, 1.0),
			},
		},
		{
			name: "air", label: "Air", def: 0.5,
			bindings: map[string]*curveSpec{
				"echoDamp.freq": splitLog(800, 3200, 12000),
			},
		},
	}
}

// ----- Macro Engine ----- //

// macroEngine resolves every binding curve once, at load. It computes param
// values but never touches the graph itself; the engine applies the updates
// it returns.
type macroEngine struct {
	defs     map[string]*macroDef
	order    []string
	values   map[string]float64
	resolved map[string]map[string]func(float64) float64
}

func newMacroEngine(defs []*macroDef, specs map[string]*paramSpec) (*macroEngine, error) {
	m := &macroEngine{
		defs:     map[string]*macroDef{},
		values:   map[string]float64{},
		resolved: map[string]map[string]func(float64) float64{},
	}
	for _, def := range defs {
		if _, ok := m.defs[def.name]; ok {
			return nil, fmt.Errorf("macro %q defined twice", def.name)
		}
		if def.def < 0 || def.def > 1 {
			return nil, fmt.Errorf("macro %q: default %v outside [0, 1]", def.name, def.def)
		}
		curves := map[string]func(float64) float64{}
		for paramName, spec := range def.bindings {
			if _, ok := specs[paramName]; !ok {
				return nil, fmt.Errorf("macro %q drives unknown param %q", def.name, paramName)
			}
			fn, err := resolveCurve(spec)
			if err != nil {
				return nil, fmt.Errorf("macro %q, param %q: %v", def.name, paramName, err)
			}
			curves[paramName] = fn
		}
		m.defs[def.name] = def
		m.order = append(m.order, def.name)
		m.values[def.name] = def.def
		m.resolved[def.name] = curves
	}
	return m, nil
}

// set moves one macro and returns the implied leaf-param updates in a stable
// order. Unknown names are rejected loudly; a silent no-op here is how "knob
// does nothing" bugs are born.
func (m *macroEngine) set(name string, value float64) ([]paramUpdate, error) {
	curves, ok := m.resolved[name]
	if !ok {
		return nil, fmt.Errorf("unknown macro %q", name)
	}
	value = clamp(value, 0, 1)
	m.values[name] = value
	updates := make([]paramUpdate, 0, len(curves))
	for paramName, fn := range curves {
		updates = append(updates, paramUpdate{name: paramName, value: fn(value)})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].name < updates[j].name })
	return updates, nil
}

func (m *macroEngine) get(name string) (float64, error) {
	v, ok := m.values[name]
	if !ok {
		return 0, fmt.Errorf("unknown macro %q", name)
	}
	return v, nil
}

// snapshot recomputes the flat param map implied by the current macro
// positions. Pure read; chaos exit and bypass restore both rely on calling
// this mid-transition.
func (m *macroEngine) snapshot() map[string]float64 {
	flat := map[string]float64{}
	for _, name := range m.order {
		v := m.values[name]
		for paramName, fn := range m.resolved[name] {
			flat[paramName] = fn(v)
		}
	}
	return flat
}

type paramUpdate struct {
	name  string
	value float64
}
