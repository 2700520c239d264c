package iip2

import (
	"errors"
	"math"
	"time"
)

// Errors returned by sweep validation.
var (
	ErrInvalidLevelRange = errors.New("iip2: start level must be positive and not exceed stop level")
	ErrInvalidSteps      = errors.New("iip2: step count must be at least 1")
	ErrInvalidFrequency  = errors.New("iip2: tone frequencies must be positive")
	ErrInvalidSampleRate = errors.New("iip2: assumed sample rate must be positive")
	ErrLevelSpacing      = errors.New("iip2: sweep levels collapse at reporting precision")
)

// levelDecimals is the fixed decimal precision sweep levels are rounded to,
// so reported levels don't carry floating-point drift from the spacing math.
const levelDecimals = 5

// Sweep holds the parameters of one amplitude sweep.
type Sweep struct {
	StartLevel float64 // first stimulus amplitude, > 0
	StopLevel  float64 // last stimulus amplitude, >= StartLevel
	Steps      int     // number of sweep points, >= 1

	F1 float64 // first stimulus tone in Hz
	F2 float64 // second stimulus tone in Hz

	// SampleRate is assumed for extraction when the digitizer cannot infer
	// its own rate.
	SampleRate float64

	Channel  int          // digitizer capture channel, default 1
	Waveform WaveformKind // source output shape, default WaveformSine

	// SettleDelay is the fixed wait after instrument configuration and
	// again after starting acquisition. It is a tunable, not a
	// correctness-critical value.
	SettleDelay time.Duration
}

// Validate checks that the Sweep parameters are valid.
//
// Validation fails fast, before any instrument interaction.
func (s Sweep) Validate() error {
	if s.Steps < 1 {
		return ErrInvalidSteps
	}

	if s.StartLevel <= 0 || s.StopLevel < s.StartLevel {
		return ErrInvalidLevelRange
	}

	if s.F1 <= 0 || s.F2 <= 0 {
		return ErrInvalidFrequency
	}

	if s.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	if s.Steps > 1 {
		spacing := (s.StopLevel - s.StartLevel) / float64(s.Steps-1)
		if spacing < math.Pow(10, -levelDecimals) {
			return ErrLevelSpacing
		}
	}

	return nil
}

// Levels returns the sweep's input levels: Steps values linearly spaced from
// StartLevel to StopLevel inclusive, rounded to a fixed decimal precision.
// For a valid Sweep the result is strictly increasing.
func (s Sweep) Levels() []float64 {
	out := make([]float64, s.Steps)

	if s.Steps == 1 {
		out[0] = roundLevel(s.StartLevel)
		return out
	}

	spacing := (s.StopLevel - s.StartLevel) / float64(s.Steps-1)
	for i := range out {
		out[i] = roundLevel(s.StartLevel + float64(i)*spacing)
	}

	return out
}

func (s Sweep) withDefaults() Sweep {
	if s.Channel == 0 {
		s.Channel = 1
	}

	if s.Waveform == "" {
		s.Waveform = WaveformSine
	}

	if s.SettleDelay == 0 {
		s.SettleDelay = time.Second
	}

	return s
}

func roundLevel(v float64) float64 {
	const scale = 1e5 // 10^levelDecimals
	return math.Round(v*scale) / scale
}
