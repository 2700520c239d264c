package imd_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-linearity/measure/imd"
)

func ExampleProductPower() {
	const (
		n  = 1024
		fs = 1024.0
		f1 = 100.0
		f2 = 101.0
	)

	// Two-tone capture with a second-order sum product of amplitude 0.01.
	signal := make([]float64, n)
	for i := range signal {
		t := float64(i) / fs
		signal[i] = 0.5*math.Sin(2*math.Pi*f1*t) +
			0.5*math.Sin(2*math.Pi*f2*t) +
			0.01*math.Sin(2*math.Pi*(f1+f2)*t)
	}

	power, err := imd.ProductPower(signal, f1, f2, fs)
	if err != nil {
		panic(err)
	}

	fmt.Printf("second-order product: %.1f dB\n", power)

	// Output:
	// second-order product: -40.0 dB
}
