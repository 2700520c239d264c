package scpi

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-linearity/measure/iip2"
)

var (
	_ iip2.Source    = (*SignalGenerator)(nil)
	_ iip2.Digitizer = (*Oscilloscope)(nil)
)

// fakeTransport records commands and serves scripted query responses.
type fakeTransport struct {
	commands  []string
	queried   []string
	responses map[string]string
	cmdErr    error
	queryErr  error
}

func (f *fakeTransport) Command(cmd string) error {
	if f.cmdErr != nil {
		return f.cmdErr
	}
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeTransport) Query(cmd string) (string, error) {
	if f.queryErr != nil {
		return "", f.queryErr
	}
	f.queried = append(f.queried, cmd)
	return f.responses[cmd], nil
}

func TestGeneratorConfigureOutput(t *testing.T) {
	tr := &fakeTransport{}
	g := NewSignalGenerator(tr, 1)

	if err := g.ConfigureOutput(iip2.WaveformSine, 1e6, 0.5, 0); err != nil {
		t.Fatal(err)
	}

	want := []string{"APPLy:SIN 1e+06,0.5,0"}
	if !reflect.DeepEqual(tr.commands, want) {
		t.Errorf("commands = %v, want %v", tr.commands, want)
	}
}

func TestGeneratorOutputToggle(t *testing.T) {
	tr := &fakeTransport{}
	g := NewSignalGenerator(tr, 2)

	if err := g.EnableOutput(); err != nil {
		t.Fatal(err)
	}
	if err := g.DisableOutput(); err != nil {
		t.Fatal(err)
	}

	want := []string{"OUTP2 ON", "OUTP2 OFF"}
	if !reflect.DeepEqual(tr.commands, want) {
		t.Errorf("commands = %v, want %v", tr.commands, want)
	}
}

func TestGeneratorDefaultChannel(t *testing.T) {
	tr := &fakeTransport{}
	g := NewSignalGenerator(tr, 0)

	_ = g.EnableOutput()
	if len(tr.commands) != 1 || tr.commands[0] != "OUTP1 ON" {
		t.Errorf("commands = %v, want [OUTP1 ON]", tr.commands)
	}
}

func TestGeneratorOutputEnabled(t *testing.T) {
	tests := []struct {
		response string
		want     bool
		wantErr  bool
	}{
		{"1", true, false},
		{"ON", true, false},
		{"0", false, false},
		{"off", false, false},
		{"garbage", false, true},
	}

	for _, tt := range tests {
		tr := &fakeTransport{responses: map[string]string{"OUTPut?": tt.response}}
		g := NewSignalGenerator(tr, 1)

		got, err := g.OutputEnabled()
		if (err != nil) != tt.wantErr {
			t.Errorf("response %q: err = %v", tt.response, err)
			continue
		}
		if got != tt.want {
			t.Errorf("response %q: enabled = %t, want %t", tt.response, got, tt.want)
		}
	}
}

func TestGeneratorModulation(t *testing.T) {
	tr := &fakeTransport{}
	g := NewSignalGenerator(tr, 1)

	if err := g.EnableAM(1000, 50); err != nil {
		t.Fatal(err)
	}
	if err := g.DisableAM(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"AM:SOUR INT",
		"AM:INT:FREQ 1000",
		"AM:DEPTh 50",
		"AM:STAT ON",
		"AM:STAT OFF",
	}
	if !reflect.DeepEqual(tr.commands, want) {
		t.Errorf("commands = %v, want %v", tr.commands, want)
	}
}

func TestScopeConfiguration(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOscilloscope(tr)

	_ = o.SetTimebase(2e-6)
	_ = o.SetChannelScale(1, 0.02)
	_ = o.SetTriggerSource(1)
	_ = o.SetTriggerLevel(0)
	_ = o.SetAcquisitionMode("NORMAL")
	_ = o.Start()
	_ = o.Stop()

	want := []string{
		":TIMEBASE:SCALE 2e-06",
		":CHANNEL1:SCALE 0.02",
		":TRIGGER:EDGE:SOURCE CHANNEL1",
		":TRIGGER:EDGE:LEVEL 0",
		":ACQUIRE:MODE NORMAL",
		":RUN",
		":STOP",
	}
	if !reflect.DeepEqual(tr.commands, want) {
		t.Errorf("commands = %v, want %v", tr.commands, want)
	}
}

func TestScopeTriggerSingle(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOscilloscope(tr)

	if err := o.TriggerSingle(); err != nil {
		t.Fatal(err)
	}

	want := []string{":TRIGGER:SWEEP SINGLE"}
	if !reflect.DeepEqual(tr.commands, want) {
		t.Errorf("commands = %v, want %v", tr.commands, want)
	}
}

func TestScopeHeader(t *testing.T) {
	tr := &fakeTransport{responses: map[string]string{
		":DATA:WAVE:SCREen:HEAD?": `{"timebase":{"scale":"2ms"}}`,
	}}
	o := NewOscilloscope(tr)

	got, err := o.Header()
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"timebase":{"scale":"2ms"}}` {
		t.Errorf("header = %q", got)
	}
}

func TestScopeCaptureWaveform(t *testing.T) {
	tr := &fakeTransport{responses: map[string]string{
		":WAVeform:DATA?": "#9000000026-0.02,0.01,0.03,-0.01",
		"*OPC?":           "1",
	}}
	o := NewOscilloscope(tr)

	got, err := o.CaptureWaveform(1)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{-0.02, 0.01, 0.03, -0.01}
	if len(got) != len(want) {
		t.Fatalf("samples = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("sample %d = %g, want %g", i, got[i], want[i])
		}
	}

	wantSetup := []string{
		":WAVeform:SOURce CHANNEL1",
		":WAVeform:MODE NORMAL",
		":WAVeform:FORMat ASCii",
		":WAVeform:STARt 1",
		":WAVeform:STOP 1200",
	}
	if !reflect.DeepEqual(tr.commands, wantSetup) {
		t.Errorf("setup commands = %v, want %v", tr.commands, wantSetup)
	}
}

func TestScopeCaptureWithoutHeader(t *testing.T) {
	tr := &fakeTransport{responses: map[string]string{
		":WAVeform:DATA?": "0.1,0.2",
		"*OPC?":           "1",
	}}
	o := NewOscilloscope(tr)

	got, err := o.CaptureWaveform(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 0.1 || got[1] != 0.2 {
		t.Errorf("samples = %v, want [0.1 0.2]", got)
	}
}

func TestScopeCaptureErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty response", ""},
		{"header only", "#9000000000"},
		{"malformed sample", "0.1,bogus,0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{responses: map[string]string{
				":WAVeform:DATA?": tt.data,
				"*OPC?":           "1",
			}}
			o := NewOscilloscope(tr)

			_, err := o.CaptureWaveform(1)
			if !errors.Is(err, iip2.ErrCapture) {
				t.Errorf("err = %v, want iip2.ErrCapture", err)
			}
		})
	}
}

func TestScopeCaptureTransportFault(t *testing.T) {
	fault := errors.New("link down")
	tr := &fakeTransport{queryErr: fault}
	o := NewOscilloscope(tr)

	_, err := o.CaptureWaveform(1)
	if !errors.Is(err, fault) {
		t.Fatalf("err = %v, want %v", err, fault)
	}
	if errors.Is(err, iip2.ErrCapture) {
		t.Error("transport fault misclassified as capture failure")
	}
}

func TestScopeSampleRate(t *testing.T) {
	tr := &fakeTransport{responses: map[string]string{
		":TIMebase:SCALe?": "0.002",
		":WAVeform:POINts?": "1200",
	}}
	o := NewOscilloscope(tr)

	rate, ok := o.SampleRate()
	if !ok {
		t.Fatal("rate not inferred")
	}

	// 1200 points across 12 divisions of 2 ms each.
	if math.Abs(rate-50000) > 1e-9 {
		t.Errorf("rate = %g, want 50000", rate)
	}
}

func TestScopeSampleRateUnavailable(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]string
		queryErr  error
	}{
		{"query fault", nil, errors.New("link down")},
		{"malformed scale", map[string]string{":TIMebase:SCALe?": "x"}, nil},
		{"zero points", map[string]string{
			":TIMebase:SCALe?":  "0.002",
			":WAVeform:POINts?": "0",
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{responses: tt.responses, queryErr: tt.queryErr}
			o := NewOscilloscope(tr)

			if _, ok := o.SampleRate(); ok {
				t.Error("rate inferred from a failing scope")
			}
		})
	}
}
