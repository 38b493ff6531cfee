package audio

import (
	"encoding/json"
	"fmt"
	"math"
)

// ----- Curve Kind ----- //

const (
	curveSplitLog = iota
	curveSplitLinear
	curveDormantLinear
	curveDormantLog
	curveCustom
)

func curveKindFromString(s string) (int, error) {
	switch s {
	case "splitLog":
		return curveSplitLog, nil
	case "splitLinear":
		return curveSplitLinear, nil
	case "dormantLinear":
		return curveDormantLinear, nil
	case "dormantLog":
		return curveDormantLog, nil
	case "custom":
		return curveCustom, nil
	}
	return 0, fmt.Errorf("unknown curve kind %q", s)
}
func curveKindToString(kind int) string {
	switch kind {
	case curveSplitLog:
		return "splitLog"
	case curveSplitLinear:
		return "splitLinear"
	case curveDormantLinear:
		return "dormantLinear"
	case curveDormantLog:
		return "dormantLog"
	case curveCustom:
		return "custom"
	}
	return "unknown"
}

// ----- Curve Spec ----- //

// curveSpec maps one macro position in [0,1] to one leaf param value.
// Built-in kinds carry their bounds in args; custom curves carry a function
// and skip validation entirely.
type curveSpec struct {
	kind int
	args []float64
	fn   func(float64) float64
}

type curveJSON struct {
	Kind string    `json:"kind"`
	Args []float64 `json:"args"`
}

func splitLog(min float64, mid float64, max float64) *curveSpec {
	return &curveSpec{kind: curveSplitLog, args: []float64{min, mid, max}}
}
func splitLinear(min float64, mid float64, max float64) *curveSpec {
	return &curveSpec{kind: curveSplitLinear, args: []float64{min, mid, max}}
}
func dormantLinear(base float64, max float64) *curveSpec {
	return &curveSpec{kind: curveDormantLinear, args: []float64{base, max}}
}
func dormantLog(base float64, max float64) *curveSpec {
	return &curveSpec{kind: curveDormantLog, args: []float64{base, max}}
}
func customCurve(fn func(float64) float64) *curveSpec {
	return &curveSpec{kind: curveCustom, fn: fn}
}

func (c *curveSpec) applyJSON(data json.RawMessage) error {
	var j curveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("failed to apply JSON to curveSpec: %v", err)
	}
	kind, err := curveKindFromString(j.Kind)
	if err != nil {
		return err
	}
	if kind == curveCustom {
		return fmt.Errorf("custom curves cannot be described in JSON")
	}
	c.kind = kind
	c.args = j.Args
	c.fn = nil
	return nil
}
func (c *curveSpec) toJSON() json.RawMessage {
	return toRawMessage(&curveJSON{
		Kind: curveKindToString(c.kind),
		Args: c.args,
	})
}

// ----- Curve Resolver ----- //

// resolveCurve validates a spec and returns its evaluation function. The
// returned function is total over [0,1]; bad bounds are caught here, never
// at evaluation time.
func resolveCurve(c *curveSpec) (func(float64) float64, error) {
	switch c.kind {
	case curveSplitLog:
		if err := wantArgs(c, 3); err != nil {
			return nil, err
		}
		min, mid, max := c.args[0], c.args[1], c.args[2]
		if min <= 0 || mid <= 0 || max <= 0 {
			return nil, fmt.Errorf("splitLog bounds must be positive, got (%v, %v, %v)", min, mid, max)
		}
		return func(m float64) float64 {
			m = clamp(m, 0, 1)
			if m <= 0.5 {
				return min * math.Pow(mid/min, m/0.5)
			}
			return mid * math.Pow(max/mid, (m-0.5)/0.5)
		}, nil
	case curveSplitLinear:
		if err := wantArgs(c, 3); err != nil {
			return nil, err
		}
		min, mid, max := c.args[0], c.args[1], c.args[2]
		return func(m float64) float64 {
			m = clamp(m, 0, 1)
			if m <= 0.5 {
				t := m / 0.5
				return t*mid + (1-t)*min
			}
			t := (m - 0.5) / 0.5
			return t*max + (1-t)*mid
		}, nil
	case curveDormantLinear:
		if err := wantArgs(c, 2); err != nil {
			return nil, err
		}
		base, max := c.args[0], c.args[1]
		return func(m float64) float64 {
			m = clamp(m, 0, 1)
			if m <= 0.5 {
				return base
			}
			t := (m - 0.5) / 0.5
			return t*max + (1-t)*base
		}, nil
	case curveDormantLog:
		if err := wantArgs(c, 2); err != nil {
			return nil, err
		}
		base, max := c.args[0], c.args[1]
		if base <= 0 || max <= 0 {
			return nil, fmt.Errorf("dormantLog bounds must be positive, got (%v, %v)", base, max)
		}
		return func(m float64) float64 {
			m = clamp(m, 0, 1)
			if m <= 0.5 {
				return base
			}
			return base * math.Pow(max/base, (m-0.5)/0.5)
		}, nil
	case curveCustom:
		if c.fn == nil {
			return nil, fmt.Errorf("custom curve has no function")
		}
		return c.fn, nil
	}
	return nil, fmt.Errorf("unknown curve kind %v", c.kind)
}

func wantArgs(c *curveSpec, n int) error {
	if len(c.args) != n {
		return fmt.Errorf("%s curve wants %d args, got %d", curveKindToString(c.kind), n, len(c.args))
	}
	return nil
}
