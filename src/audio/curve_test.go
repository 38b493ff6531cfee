package audio

import (
	"math"
	"testing"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error, but got none")
	}
}

func TestSplitLinearCurve(t *testing.T) {
	fn, err := resolveCurve(splitLinear(10, 30, 100))
	expectNoError(t, err)
	expectNearlyEqual(t, fn(0), 10)
	expectNearlyEqual(t, fn(0.25), 20)
	expectNearlyEqual(t, fn(0.5), 30)
	expectNearlyEqual(t, fn(0.75), 65)
	expectNearlyEqual(t, fn(1), 100)
	// out-of-range positions clamp
	expectNearlyEqual(t, fn(-1), 10)
	expectNearlyEqual(t, fn(2), 100)
}

func TestSplitLogCurve(t *testing.T) {
	fn, err := resolveCurve(splitLog(100, 1000, 10000))
	expectNoError(t, err)
	expectNearlyEqual(t, fn(0), 100)
	expectNearlyEqual(t, fn(0.25), math.Sqrt(100*1000))
	expectNearlyEqual(t, fn(0.5), 1000)
	expectNearlyEqual(t, fn(0.75), math.Sqrt(1000*10000))
	expectNearlyEqual(t, fn(1), 10000)
}

func TestDormantLinearCurve(t *testing.T) {
	fn, err := resolveCurve(dormantLinear(0, 1))
	expectNoError(t, err)
	expectNearlyEqual(t, fn(0), 0)
	expectNearlyEqual(t, fn(0.3), 0)
	expectNearlyEqual(t, fn(0.5), 0)
	expectNearlyEqual(t, fn(0.75), 0.5)
	expectNearlyEqual(t, fn(1), 1)
}

func TestDormantLogCurve(t *testing.T) {
	fn, err := resolveCurve(dormantLog(2, 18))
	expectNoError(t, err)
	expectNearlyEqual(t, fn(0), 2)
	expectNearlyEqual(t, fn(0.5), 2)
	expectNearlyEqual(t, fn(0.75), 2*math.Sqrt(9))
	expectNearlyEqual(t, fn(1), 18)
}

func TestCustomCurve(t *testing.T) {
	fn, err := resolveCurve(customCurve(func(m float64) float64 { return m * m }))
	expectNoError(t, err)
	expectNearlyEqual(t, fn(0.5), 0.25)
}

func TestCurveValidation(t *testing.T) {
	_, err := resolveCurve(splitLog(0, 100, 1000))
	expectError(t, err)
	_, err = resolveCurve(splitLog(-5, 100, 1000))
	expectError(t, err)
	_, err = resolveCurve(dormantLog(0, 18))
	expectError(t, err)
	_, err = resolveCurve(&curveSpec{kind: curveSplitLinear, args: []float64{1, 2}})
	expectError(t, err)
	_, err = resolveCurve(&curveSpec{kind: curveCustom})
	expectError(t, err)
}

// Every built-in curve must stay finite and inside its stated bounds over
// the whole macro domain, sampled densely.
func TestCurvesBoundedOverDomain(t *testing.T) {
	for _, def := range defaultMacroDefs() {
		for paramName, spec := range def.bindings {
			fn, err := resolveCurve(spec)
			expectNoError(t, err)
			lo, hi := spec.args[0], spec.args[0]
			for _, a := range spec.args {
				if a < lo {
					lo = a
				}
				if a > hi {
					hi = a
				}
			}
			const steps = 1000
			for i := 0; i <= steps; i++ {
				m := float64(i) / steps
				v := fn(m)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("%s/%s: curve(%v) is not finite", def.name, paramName, m)
				}
				if v < lo-0.0001 || v > hi+0.0001 {
					t.Fatalf("%s/%s: curve(%v) = %v outside [%v, %v]", def.name, paramName, m, v, lo, hi)
				}
			}
		}
	}
}

func TestCustomCurveMacroBinding(t *testing.T) {
	reg, err := newRegistry()
	expectNoError(t, err)
	gritDrive := customCurve(func(m float64) float64 {
		if m <= 0.3 {
			return m / 0.3
		}
		return 1.0
	})
	m, err := newMacroEngine([]*macroDef{
		{name: "grit", def: 0.5, bindings: map[string]*curveSpec{"drive.wet": gritDrive}},
	}, reg.specs)
	expectNoError(t, err)
	updates, err := m.set("grit", 0.5)
	expectNoError(t, err)
	expectNearlyEqual(t, updates[0].value, 1.0)
	updates, err = m.set("grit", 0.15)
	expectNoError(t, err)
	expectNearlyEqual(t, updates[0].value, 0.5)
}

func TestCurveSpecJSON(t *testing.T) {
	c := splitLog(100, 1000, 10000)
	var c2 curveSpec
	expectNoError(t, c2.applyJSON(c.toJSON()))
	expectEqual(t, c2.kind, curveSplitLog)
	expectEqual(t, len(c2.args), 3)

	var c3 curveSpec
	expectError(t, c3.applyJSON([]byte(`{"kind":"custom"}`)))
	expectError(t, c3.applyJSON([]byte(`{"kind":"wobble"}`)))
}
