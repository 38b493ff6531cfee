package audio

import (
	"math"
)

func makeBiquadLowpassH(fc float64, q float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := (1 - math.Cos(w0)) / 2
	b1 := (1 - math.Cos(w0))
	b2 := (1 - math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func processBiquad(in float64, a []float64, b []float64, past []float64) float64 {
	// apply b
	for j := 0; j < len(b); j++ {
		in -= past[j] * b[j]
	}
	// apply a
	o := in * a[0]
	for j := 1; j < len(a); j++ {
		o += past[j-1] * a[j]
	}
	// unshift past
	for j := len(past) - 2; j >= 0; j-- {
		past[j+1] = past[j]
	}
	if len(past) > 0 {
		past[0] = in
	}
	return o
}
