package imd

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-linearity/dsp/spectrum"
)

// Errors returned by product-power extraction.
var (
	ErrEmptySignal       = errors.New("imd: signal is empty")
	ErrInvalidSampleRate = errors.New("imd: sample rate must be positive")
	ErrInvalidFrequency  = errors.New("imd: tone frequencies must be positive")
	ErrUnresolvable      = errors.New("imd: tones are too close to resolve at this bin width")
)

// Config holds the stimulus description for product extraction.
type Config struct {
	F1         float64 // first stimulus tone in Hz
	F2         float64 // second stimulus tone in Hz
	SampleRate float64 // capture sample rate in Hz
}

// Validate checks that the Config parameters are valid.
func (cfg Config) Validate() error {
	if cfg.F1 <= 0 || cfg.F2 <= 0 {
		return ErrInvalidFrequency
	}

	if cfg.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	return nil
}

// Result holds the extracted second-order product powers.
type Result struct {
	Power     float64 // dB power of the stronger sideband
	SumPower  float64 // dB power at F1+F2
	DiffPower float64 // dB power at |F1-F2|
	SumBin    int     // bin chosen for the sum product
	DiffBin   int     // bin chosen for the difference product
	BinWidth  float64 // achieved frequency resolution in Hz
}

// ProductPower extracts the power of the second-order intermodulation product
// from a captured waveform, in dB relative to unit amplitude.
//
// It reports the stronger of the two sidebands at f1+f2 and |f1-f2|; physical
// asymmetries make one dominate unpredictably. A silent capture yields -Inf,
// which callers should treat as "no detectable product" rather than a failure.
func ProductPower(signal []float64, f1, f2, sampleRate float64) (float64, error) {
	res, err := Analyze(signal, Config{F1: f1, F2: f2, SampleRate: sampleRate})
	if err != nil {
		return 0, err
	}

	return res.Power, nil
}

// Analyze extracts both second-order sideband powers from a captured waveform.
//
// The waveform is transformed with a plain (rectangular) FFT; each product
// frequency is looked up at its nearest bin, so the worst-case frequency error
// is half a bin width. No averaging or interpolation is applied.
func Analyze(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, ErrEmptySignal
	}

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	half, err := spectrum.AnalyzeReal(signal)
	if err != nil {
		return Result{}, err
	}

	// Captures of one sample yield a spectrum with no bins above DC; nothing
	// can be resolved from them.
	if len(half.Amplitude) < 2 {
		return Result{}, ErrUnresolvable
	}

	fSum := cfg.F1 + cfg.F2
	fDiff := math.Abs(cfg.F1 - cfg.F2)

	sumBin := half.NearestBin(fSum, cfg.SampleRate)
	diffBin := half.NearestBin(fDiff, cfg.SampleRate)

	// A difference product that rounds to DC cannot be told apart from
	// offset; the tones are too close for the achieved resolution.
	if diffBin == 0 {
		return Result{}, ErrUnresolvable
	}

	sumAmp := half.Amplitude[sumBin]
	diffAmp := half.Amplitude[diffBin]

	sumPower := powerDB(sumAmp * sumAmp)
	diffPower := powerDB(diffAmp * diffAmp)

	return Result{
		Power:     math.Max(sumPower, diffPower),
		SumPower:  sumPower,
		DiffPower: diffPower,
		SumBin:    sumBin,
		DiffBin:   diffBin,
		BinWidth:  half.BinWidth(cfg.SampleRate),
	}, nil
}

// powerDB converts a linear power to dB, with -Inf for zero power.
func powerDB(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(p)
}
