package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gotmc/prologix"
	"github.com/gotmc/prologix/driver/vcp"

	"github.com/cwbudde/algo-linearity/instrument/scpi"
	"github.com/cwbudde/algo-linearity/instrument/sim"
	"github.com/cwbudde/algo-linearity/measure/iip2"
	"github.com/cwbudde/algo-linearity/store"
)

// Run executes one swept-amplitude measurement on the configured bench,
// prints a summary and, when a database is configured, persists the result.
func Run(ctx context.Context, cfg *Config, logger *slog.Logger, out io.Writer) error {
	src, dig, cleanup, err := buildBench(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sweep := iip2.Sweep{
		StartLevel:  cfg.Sweep.StartLevel,
		StopLevel:   cfg.Sweep.StopLevel,
		Steps:       cfg.Sweep.Steps,
		F1:          cfg.Sweep.F1,
		F2:          cfg.Sweep.F2,
		SampleRate:  cfg.Sweep.SampleRate,
		Channel:     cfg.Sweep.Channel,
		SettleDelay: time.Duration(cfg.Sweep.SettleSeconds * float64(time.Second)),
	}

	runner := iip2.NewRunner(src, dig, iip2.WithLogger(logger))

	result, err := runner.Run(ctx, sweep)
	if err != nil {
		return fmt.Errorf("running sweep: %w", err)
	}

	if err := printResult(out, cfg, result); err != nil {
		return err
	}

	if cfg.Storage.Database == "" {
		return nil
	}

	return persist(ctx, cfg, result, logger)
}

// Report lists the stored sessions and their sweep points.
func Report(ctx context.Context, dbPath string, out io.Writer) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	sessions, err := st.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTARTED\tF1\tF2\tINTERCEPT")
	for _, s := range sessions {
		intercept := "-"
		if s.Intercept.Valid {
			intercept = fmt.Sprintf("%.5f", s.Intercept.Float64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.StartedAt.Format(time.RFC3339),
			humanize.SIWithDigits(s.F1, 3, "Hz"),
			humanize.SIWithDigits(s.F2, 3, "Hz"),
			intercept,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, s := range sessions {
		points, err := st.Points(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("loading points for session %d: %w", s.ID, err)
		}

		fmt.Fprintf(out, "\nsession %d\n", s.ID)
		pw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(pw, "STEP\tLEVEL\tPOWER [dB]")
		for _, p := range points {
			power := "-"
			if p.ProductPower.Valid {
				power = fmt.Sprintf("%.2f", p.ProductPower.Float64)
			}
			fmt.Fprintf(pw, "%d\t%.5f\t%s\n", p.Step, p.Level, power)
		}
		if err := pw.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func buildBench(cfg *Config, logger *slog.Logger) (iip2.Source, iip2.Digitizer, func(), error) {
	if cfg.Bench.Mode == BenchSim {
		bench := buildSimBench(cfg)
		return bench, bench, func() {}, nil
	}

	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("closing transport", "error", err)
			}
		}
	}

	genTr, closer, err := openTransport(cfg.Bench.Generator)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("connecting generator: %w", err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	scopeTr, closer, err := openTransport(cfg.Bench.Scope)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("connecting scope: %w", err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	src := scpi.NewSignalGenerator(genTr, cfg.Bench.Generator.Channel)
	dig := scpi.NewOscilloscope(scopeTr)

	return src, dig, cleanup, nil
}

func buildSimBench(cfg *Config) *sim.Bench {
	var opts []sim.Option
	if cfg.Bench.Sim.SecondOrder != 0 {
		opts = append(opts, sim.WithSecondOrder(cfg.Bench.Sim.SecondOrder))
	}
	if cfg.Bench.Sim.NoiseAmplitude > 0 {
		opts = append(opts, sim.WithNoise(cfg.Bench.Sim.NoiseAmplitude, cfg.Bench.Sim.NoiseSeed))
	}
	if cfg.Bench.Sim.CaptureLen > 0 {
		opts = append(opts, sim.WithCaptureLen(cfg.Bench.Sim.CaptureLen))
	}
	if cfg.Bench.Sim.SampleRate > 0 {
		opts = append(opts, sim.WithSampleRate(cfg.Bench.Sim.SampleRate))
	}

	return sim.NewBench(opts...)
}

func openTransport(port PortConfig) (scpi.Transport, io.Closer, error) {
	switch port.Transport {
	case TransportTCP:
		tr, err := scpi.DialTCP(port.Address, port.Timeout())
		if err != nil {
			return nil, nil, err
		}
		return tr, tr, nil
	case TransportGPIB:
		serial, err := vcp.NewVCP(port.SerialPort)
		if err != nil {
			return nil, nil, fmt.Errorf("opening serial port %s: %w", port.SerialPort, err)
		}
		controller, err := prologix.NewController(serial, port.GPIBAddress, false)
		if err != nil {
			serial.Close()
			return nil, nil, fmt.Errorf("initializing gpib controller: %w", err)
		}
		return gpibTransport{controller}, serial, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", port.Transport)
	}
}

// gpibTransport adapts a Prologix GPIB controller to the scpi.Transport
// interface.
type gpibTransport struct {
	controller *prologix.Controller
}

func (t gpibTransport) Command(cmd string) error {
	return t.controller.Command("%s", cmd)
}

func (t gpibTransport) Query(cmd string) (string, error) {
	resp, err := t.controller.Query(cmd)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return resp, nil
}

func printResult(out io.Writer, cfg *Config, result *iip2.Result) error {
	fmt.Fprintf(out, "two-tone sweep at %s / %s, %d steps\n",
		humanize.SIWithDigits(cfg.Sweep.F1, 3, "Hz"),
		humanize.SIWithDigits(cfg.Sweep.F2, 3, "Hz"),
		len(result.Points),
	)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tLEVEL\tPOWER [dB]")
	for i, p := range result.Points {
		power := "failed"
		if p.Valid {
			if math.IsInf(p.ProductPower, -1) {
				power = "below noise"
			} else {
				power = fmt.Sprintf("%.2f", p.ProductPower)
			}
		}
		fmt.Fprintf(w, "%d\t%.5f\t%s\n", i, p.Level, power)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if result.InterceptOK {
		fmt.Fprintf(out, "second-order intercept at level %.5f\n", result.Intercept)
	} else {
		fmt.Fprintln(out, "second-order intercept not available")
	}

	return nil
}

func persist(ctx context.Context, cfg *Config, result *iip2.Result, logger *slog.Logger) error {
	st, err := store.Open(cfg.Storage.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	id, err := st.CreateSession(ctx, cfg.Sweep.F1, cfg.Sweep.F2, cfg.Sweep.SampleRate)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	if err := st.SaveResult(ctx, id, result); err != nil {
		return fmt.Errorf("saving result: %w", err)
	}

	logger.Info("result stored", "session", id, "database", cfg.Storage.Database)

	return nil
}
