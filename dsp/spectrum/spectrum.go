package spectrum

import (
	"errors"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by spectrum functions.
var (
	ErrEmptySignal = errors.New("spectrum: signal is empty")
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin.
//
// SIMD-optimized implementations are used when available. Scratch buffers are
// pooled internally, so in steady state this allocates only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)
	putScratch(buf)
	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)
	putScratch(buf)
	return out
}

// Half is the non-negative-frequency amplitude spectrum of a real signal.
//
// A real signal has a conjugate-symmetric spectrum, so the upper half carries
// no additional information and is discarded. Amplitudes are normalized by
// half the signal length, so a bin-centered sine of amplitude A reads A at
// its bin regardless of the capture length.
type Half struct {
	Amplitude []float64 // |X[k]| for k in [0, FFTSize/2)
	FFTSize   int       // transform size that produced the bins
	SignalLen int       // original signal length before zero padding
}

// AnalyzeReal computes the normalized half spectrum of a real signal.
//
// The signal is zero-padded to the next power of two for the transform.
// Padding refines the bin grid without changing the amplitude normalization,
// which is tied to the original signal length.
func AnalyzeReal(signal []float64) (Half, error) {
	if len(signal) == 0 {
		return Half{}, ErrEmptySignal
	}

	fftSize := nextPowerOf2(len(signal))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Half{}, err
	}

	in := make([]complex128, fftSize)
	for i, v := range signal {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Half{}, err
	}

	amp := Magnitude(out[:fftSize/2])

	norm := 2 / float64(len(signal))
	for i := range amp {
		amp[i] *= norm
	}

	return Half{
		Amplitude: amp,
		FFTSize:   fftSize,
		SignalLen: len(signal),
	}, nil
}

// BinWidth returns the frequency spacing between adjacent bins in Hz.
func (h Half) BinWidth(sampleRate float64) float64 {
	return sampleRate / float64(h.FFTSize)
}

// BinFrequency returns the center frequency of the given bin in Hz.
func (h Half) BinFrequency(bin int, sampleRate float64) float64 {
	return float64(bin) * h.BinWidth(sampleRate)
}

// NearestBin returns the bin whose center frequency is closest to freqHz.
//
// This is a nearest-bin lookup, not interpolation; the worst-case frequency
// error is half a bin width. The result is clamped to the valid bin range.
func (h Half) NearestBin(freqHz, sampleRate float64) int {
	bin := int(math.Round(freqHz / h.BinWidth(sampleRate)))
	if bin >= len(h.Amplitude) {
		bin = len(h.Amplitude) - 1
	}
	if bin < 0 {
		return 0
	}
	return bin
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
