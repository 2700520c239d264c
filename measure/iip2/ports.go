package iip2

import "errors"

// ErrCapture marks a failure to produce a usable waveform for one sweep step.
// Implementations of Digitizer wrap it when no valid acquisition exists; the
// sweep records the step as invalid and continues. Any other error from a
// port is treated as an unrecoverable transport fault and aborts the sweep.
var ErrCapture = errors.New("iip2: waveform capture failed")

// WaveformKind selects the source output shape.
type WaveformKind string

// Waveform kinds understood by common function generators.
const (
	WaveformSine   WaveformKind = "SIN"
	WaveformSquare WaveformKind = "SQU"
	WaveformRamp   WaveformKind = "RAMP"
)

// Source is the capability contract of the stimulus instrument.
//
// ConfigureOutput is idempotent; the last call wins. Enable and disable must
// be safe to call when the output is already in that state.
type Source interface {
	ConfigureOutput(kind WaveformKind, frequencyHz, amplitude, offset float64) error
	EnableOutput() error
	DisableOutput() error
	OutputEnabled() (bool, error)
}

// Digitizer is the capability contract of the capture instrument.
//
// CaptureWaveform must reflect the most recent completed acquisition on the
// channel and wrap ErrCapture when none exists. Stop must be callable when
// already stopped. SampleRate is a best-effort inference from timebase and
// point count; ok is false when the underlying query fails, forcing callers
// to choose their own fallback.
type Digitizer interface {
	SetTimebase(secondsPerDiv float64) error
	SetChannelScale(channel int, voltsPerDiv float64) error
	SetTriggerSource(channel int) error
	SetTriggerLevel(volts float64) error
	SetAcquisitionMode(mode string) error
	Start() error
	Stop() error
	CaptureWaveform(channel int) ([]float64, error)
	SampleRate() (rate float64, ok bool)
}
