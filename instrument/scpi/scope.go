package scpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-linearity/measure/iip2"
)

// displayDivisions is the assumed number of horizontal divisions on the
// scope display, used for sample-rate inference.
const displayDivisions = 12

// tmcHeaderLen is the length of the IEEE 488.2 block header ("#9" plus a
// nine-digit byte count) prefixed to waveform data responses.
const tmcHeaderLen = 11

// Oscilloscope drives a SCPI digital storage oscilloscope.
//
// It implements iip2.Digitizer.
type Oscilloscope struct {
	tr Transport

	// WaveformPoints bounds the reading window requested per capture.
	WaveformPoints int
}

// NewOscilloscope creates a scope driver with a 1200-point capture window.
func NewOscilloscope(tr Transport) *Oscilloscope {
	return &Oscilloscope{tr: tr, WaveformPoints: 1200}
}

// Identify queries the instrument identity string.
func (o *Oscilloscope) Identify() (string, error) {
	return o.tr.Query("*IDN?")
}

// Reset restores the instrument to factory defaults.
func (o *Oscilloscope) Reset() error {
	return o.tr.Command("*RST")
}

// SetTimebase implements iip2.Digitizer.
func (o *Oscilloscope) SetTimebase(secondsPerDiv float64) error {
	return o.tr.Command(fmt.Sprintf(":TIMEBASE:SCALE %g", secondsPerDiv))
}

// SetChannelScale implements iip2.Digitizer.
func (o *Oscilloscope) SetChannelScale(channel int, voltsPerDiv float64) error {
	return o.tr.Command(fmt.Sprintf(":CHANNEL%d:SCALE %g", channel, voltsPerDiv))
}

// SetTriggerSource implements iip2.Digitizer.
func (o *Oscilloscope) SetTriggerSource(channel int) error {
	return o.tr.Command(fmt.Sprintf(":TRIGGER:EDGE:SOURCE CHANNEL%d", channel))
}

// SetTriggerLevel implements iip2.Digitizer.
func (o *Oscilloscope) SetTriggerLevel(volts float64) error {
	return o.tr.Command(fmt.Sprintf(":TRIGGER:EDGE:LEVEL %g", volts))
}

// SetAcquisitionMode implements iip2.Digitizer (NORMAL, AVERAGE, PEAK, ...).
func (o *Oscilloscope) SetAcquisitionMode(mode string) error {
	return o.tr.Command(fmt.Sprintf(":ACQUIRE:MODE %s", mode))
}

// Start implements iip2.Digitizer.
func (o *Oscilloscope) Start() error {
	return o.tr.Command(":RUN")
}

// Stop implements iip2.Digitizer. Safe to call when already stopped.
func (o *Oscilloscope) Stop() error {
	return o.tr.Command(":STOP")
}

// TriggerSingle arms the scope for a single acquisition.
func (o *Oscilloscope) TriggerSingle() error {
	return o.tr.Command(":TRIGGER:SWEEP SINGLE")
}

// Header queries the screen waveform header describing the current display
// and acquisition state.
func (o *Oscilloscope) Header() (string, error) {
	return o.tr.Query(":DATA:WAVE:SCREen:HEAD?")
}

// CaptureWaveform implements iip2.Digitizer. It reads the most recent
// acquisition on the channel as ASCII voltage samples. Responses that hold
// no parseable samples wrap iip2.ErrCapture; transport faults propagate
// unwrapped.
func (o *Oscilloscope) CaptureWaveform(channel int) ([]float64, error) {
	setup := []string{
		fmt.Sprintf(":WAVeform:SOURce CHANNEL%d", channel),
		":WAVeform:MODE NORMAL",
		":WAVeform:FORMat ASCii",
		":WAVeform:STARt 1",
		fmt.Sprintf(":WAVeform:STOP %d", o.WaveformPoints),
	}

	for _, cmd := range setup {
		if err := o.tr.Command(cmd); err != nil {
			return nil, err
		}
	}

	raw, err := o.tr.Query(":WAVeform:DATA?")
	if err != nil {
		return nil, err
	}

	// Sync before touching the data; slow scopes answer *OPC? only once the
	// transfer has fully completed.
	if _, err := o.tr.Query("*OPC?"); err != nil {
		return nil, err
	}

	return parseASCIIWaveform(raw, channel)
}

// parseASCIIWaveform decodes a comma-separated ASCII sample block, skipping
// the TMC block header when present.
func parseASCIIWaveform(raw string, channel int) ([]float64, error) {
	if len(raw) > tmcHeaderLen && raw[0] == '#' {
		raw = raw[tmcHeaderLen:]
	}

	fields := strings.Split(raw, ",")
	out := make([]float64, 0, len(fields))

	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}

		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d returned malformed sample %q", iip2.ErrCapture, channel, f)
		}

		out = append(out, v)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: channel %d returned no samples", iip2.ErrCapture, channel)
	}

	return out, nil
}

// SampleRate implements iip2.Digitizer. The rate is inferred from the
// timebase and the captured point count; ok is false when either query
// fails, leaving the fallback decision to the caller.
func (o *Oscilloscope) SampleRate() (float64, bool) {
	scaleResp, err := o.tr.Query(":TIMebase:SCALe?")
	if err != nil {
		return 0, false
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(scaleResp), 64)
	if err != nil || scale <= 0 {
		return 0, false
	}

	pointsResp, err := o.tr.Query(":WAVeform:POINts?")
	if err != nil {
		return 0, false
	}

	points, err := strconv.ParseFloat(strings.TrimSpace(pointsResp), 64)
	if err != nil || points <= 0 {
		return 0, false
	}

	return points / (scale * displayDivisions), true
}
