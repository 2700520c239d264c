// Package testutil provides deterministic signal generators shared by tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine generates a deterministic sine wave at freqHz.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// TwoTone generates the sum of two equal-amplitude sine waves.
func TwoTone(f1, f2, sampleRate, amplitude float64, length int) []float64 {
	out := Sine(f1, sampleRate, amplitude, length)
	for i, v := range Sine(f2, sampleRate, amplitude, length) {
		out[i] += v
	}
	return out
}

// Distort applies a memoryless second-order nonlinearity y = x + a2*x^2.
//
// Feeding a two-tone signal through it produces intermodulation products
// at the sum and difference frequencies.
func Distort(signal []float64, a2 float64) []float64 {
	out := make([]float64, len(signal))
	for i, x := range signal {
		out[i] = x + a2*x*x
	}
	return out
}

// Noise generates white noise with a fixed seed for reproducibility.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// AddInPlace adds b into a element-wise. Both slices must have equal length.
func AddInPlace(a, b []float64) {
	for i := range a {
		a[i] += b[i]
	}
}
