package scpi

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-linearity/measure/iip2"
)

// SignalGenerator drives a SCPI function/arbitrary waveform generator.
//
// It implements iip2.Source. The zero channel means output 1.
type SignalGenerator struct {
	tr      Transport
	channel int
}

// NewSignalGenerator creates a driver for the generator's given output
// channel (1 or 2 on typical two-channel instruments).
func NewSignalGenerator(tr Transport, channel int) *SignalGenerator {
	if channel < 1 {
		channel = 1
	}

	return &SignalGenerator{tr: tr, channel: channel}
}

// Identify queries the instrument identity string.
func (g *SignalGenerator) Identify() (string, error) {
	return g.tr.Query("*IDN?")
}

// Reset restores the instrument to factory defaults.
func (g *SignalGenerator) Reset() error {
	return g.tr.Command("*RST")
}

// ConfigureOutput implements iip2.Source with a single APPLy command that
// sets shape, frequency, amplitude and offset atomically. Last call wins.
func (g *SignalGenerator) ConfigureOutput(kind iip2.WaveformKind, frequencyHz, amplitude, offset float64) error {
	return g.tr.Command(fmt.Sprintf("APPLy:%s %g,%g,%g", kind, frequencyHz, amplitude, offset))
}

// SetFrequency sets the output frequency in Hz.
func (g *SignalGenerator) SetFrequency(frequencyHz float64) error {
	return g.tr.Command(fmt.Sprintf("FREQuency %g", frequencyHz))
}

// SetAmplitude sets the output amplitude in Vpp.
func (g *SignalGenerator) SetAmplitude(amplitude float64) error {
	return g.tr.Command(fmt.Sprintf("VOLTage %g", amplitude))
}

// SetOffset sets the DC offset in volts.
func (g *SignalGenerator) SetOffset(offset float64) error {
	return g.tr.Command(fmt.Sprintf("VOLTage:OFFSet %g", offset))
}

// EnableOutput implements iip2.Source. Safe to call when already enabled.
func (g *SignalGenerator) EnableOutput() error {
	return g.tr.Command(fmt.Sprintf("OUTP%d ON", g.channel))
}

// DisableOutput implements iip2.Source. Safe to call when already disabled.
func (g *SignalGenerator) DisableOutput() error {
	return g.tr.Command(fmt.Sprintf("OUTP%d OFF", g.channel))
}

// OutputEnabled implements iip2.Source.
func (g *SignalGenerator) OutputEnabled() (bool, error) {
	resp, err := g.tr.Query("OUTPut?")
	if err != nil {
		return false, err
	}

	switch strings.ToUpper(strings.TrimSpace(resp)) {
	case "1", "ON":
		return true, nil
	case "0", "OFF":
		return false, nil
	}

	return false, fmt.Errorf("scpi: unexpected output state %q", resp)
}

// EnableAM turns on amplitude modulation from the internal source.
func (g *SignalGenerator) EnableAM(modFreqHz, depthPercent float64) error {
	cmds := []string{
		"AM:SOUR INT",
		fmt.Sprintf("AM:INT:FREQ %g", modFreqHz),
		fmt.Sprintf("AM:DEPTh %g", depthPercent),
		"AM:STAT ON",
	}

	return g.commandAll(cmds)
}

// EnableFM turns on frequency modulation from the internal source.
func (g *SignalGenerator) EnableFM(modFreqHz, deviationHz float64) error {
	cmds := []string{
		"FM:SOUR INT",
		fmt.Sprintf("FM:INT:FREQ %g", modFreqHz),
		fmt.Sprintf("FM:DEViation %g", deviationHz),
		"FM:STAT ON",
	}

	return g.commandAll(cmds)
}

// DisableAM turns off amplitude modulation.
func (g *SignalGenerator) DisableAM() error {
	return g.tr.Command("AM:STAT OFF")
}

// DisableFM turns off frequency modulation.
func (g *SignalGenerator) DisableFM() error {
	return g.tr.Command("FM:STAT OFF")
}

func (g *SignalGenerator) commandAll(cmds []string) error {
	for _, cmd := range cmds {
		if err := g.tr.Command(cmd); err != nil {
			return err
		}
	}

	return nil
}
