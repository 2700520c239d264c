// Package sim provides an in-memory instrument bench implementing the sweep
// controller's Source and Digitizer contracts, so measurements can run
// without physical hardware.
//
// The bench models a device under test with a memoryless second-order
// nonlinearity y = x + a2*x^2 driven by a two-tone stimulus: the configured
// source tone plus a fixed second tone. Captures are synthesized on demand
// from the current instrument state.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-linearity/measure/iip2"
)

const (
	defaultCaptureLen = 4096
	defaultSampleRate = 50e3
	defaultSecondTone = 1.01e3
)

// Option configures a Bench.
type Option func(*Bench)

// WithSecondTone sets the fixed second stimulus tone in Hz.
func WithSecondTone(freqHz float64) Option {
	return func(b *Bench) {
		b.secondTone = freqHz
	}
}

// WithSecondOrder sets the a2 coefficient of the device model.
func WithSecondOrder(a2 float64) Option {
	return func(b *Bench) {
		b.secondOrder = a2
	}
}

// WithNoise adds seeded white noise of the given amplitude to captures.
func WithNoise(amplitude float64, seed int64) Option {
	return func(b *Bench) {
		b.noiseAmp = amplitude
		b.seed = seed
	}
}

// WithCaptureLen sets the number of samples per capture.
func WithCaptureLen(n int) Option {
	return func(b *Bench) {
		b.captureLen = n
	}
}

// WithSampleRate sets the digitizer sample rate in Hz.
func WithSampleRate(rate float64) Option {
	return func(b *Bench) {
		b.sampleRate = rate
	}
}

// WithoutRateInference makes SampleRate report no inferred rate, exercising
// the caller's assumed-rate fallback.
func WithoutRateInference() Option {
	return func(b *Bench) {
		b.inferRate = false
	}
}

// Bench is a simulated signal source, device under test and digitizer.
//
// It implements both iip2.Source and iip2.Digitizer. A Bench is not safe for
// concurrent use; like a real bench it assumes one owner at a time.
type Bench struct {
	secondTone  float64
	secondOrder float64
	noiseAmp    float64
	seed        int64
	captureLen  int
	sampleRate  float64
	inferRate   bool

	// source state
	kind    iip2.WaveformKind
	freq    float64
	amp     float64
	offset  float64
	enabled bool

	// digitizer state
	timebase   float64
	scales     map[int]float64
	trigSource int
	trigLevel  float64
	acqMode    string
	running    bool
	acquired   bool
}

// NewBench creates a simulated bench with the given options.
func NewBench(options ...Option) *Bench {
	b := Bench{
		secondTone:  defaultSecondTone,
		secondOrder: 0.05,
		captureLen:  defaultCaptureLen,
		sampleRate:  defaultSampleRate,
		inferRate:   true,
		scales:      make(map[int]float64),
	}

	for _, option := range options {
		option(&b)
	}

	return &b
}

// SecondTone returns the fixed second stimulus tone in Hz.
func (b *Bench) SecondTone() float64 { return b.secondTone }

// ConfigureOutput implements iip2.Source.
func (b *Bench) ConfigureOutput(kind iip2.WaveformKind, frequencyHz, amplitude, offset float64) error {
	b.kind, b.freq, b.amp, b.offset = kind, frequencyHz, amplitude, offset
	return nil
}

// EnableOutput implements iip2.Source.
func (b *Bench) EnableOutput() error {
	b.enabled = true
	return nil
}

// DisableOutput implements iip2.Source.
func (b *Bench) DisableOutput() error {
	b.enabled = false
	return nil
}

// OutputEnabled implements iip2.Source.
func (b *Bench) OutputEnabled() (bool, error) { return b.enabled, nil }

// SetTimebase implements iip2.Digitizer.
func (b *Bench) SetTimebase(secondsPerDiv float64) error {
	b.timebase = secondsPerDiv
	return nil
}

// SetChannelScale implements iip2.Digitizer.
func (b *Bench) SetChannelScale(channel int, voltsPerDiv float64) error {
	b.scales[channel] = voltsPerDiv
	return nil
}

// SetTriggerSource implements iip2.Digitizer.
func (b *Bench) SetTriggerSource(channel int) error {
	b.trigSource = channel
	return nil
}

// SetTriggerLevel implements iip2.Digitizer.
func (b *Bench) SetTriggerLevel(volts float64) error {
	b.trigLevel = volts
	return nil
}

// SetAcquisitionMode implements iip2.Digitizer.
func (b *Bench) SetAcquisitionMode(mode string) error {
	b.acqMode = mode
	return nil
}

// Start implements iip2.Digitizer. Starting marks an acquisition window as
// completed, so a following capture reflects the current stimulus.
func (b *Bench) Start() error {
	b.running = true
	b.acquired = true
	return nil
}

// Stop implements iip2.Digitizer. Safe to call when already stopped.
func (b *Bench) Stop() error {
	b.running = false
	return nil
}

// CaptureWaveform implements iip2.Digitizer. It synthesizes the device
// output for the most recent acquisition, or fails with iip2.ErrCapture when
// no acquisition has run.
func (b *Bench) CaptureWaveform(channel int) ([]float64, error) {
	if !b.acquired {
		return nil, fmt.Errorf("%w: no completed acquisition on channel %d", iip2.ErrCapture, channel)
	}

	out := make([]float64, b.captureLen)

	var rng *rand.Rand
	if b.noiseAmp > 0 {
		rng = rand.New(rand.NewSource(b.seed))
	}

	w1 := 2 * math.Pi * b.freq / b.sampleRate
	w2 := 2 * math.Pi * b.secondTone / b.sampleRate

	for i := range out {
		var x float64
		if b.enabled {
			n := float64(i)
			x = b.offset + b.amp*(math.Sin(w1*n)+math.Sin(w2*n))
		}

		y := x + b.secondOrder*x*x
		if rng != nil {
			y += (rng.Float64()*2 - 1) * b.noiseAmp
		}

		out[i] = y
	}

	return out, nil
}

// SampleRate implements iip2.Digitizer.
func (b *Bench) SampleRate() (float64, bool) {
	if !b.inferRate {
		return 0, false
	}

	return b.sampleRate, true
}
