package iip2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-linearity/measure/imd"
	"github.com/cwbudde/algo-linearity/measure/intercept"
)

// Digitizer setup derived from the current sweep point: the timebase spans a
// couple of stimulus cycles per division and the vertical scale tracks the
// stimulus amplitude.
const (
	timebaseCycles    = 2.0
	scalePerLevel     = 20.0
	triggerLevelVolts = 0.0
)

// Point is the outcome of one sweep step.
//
// Invalid points are explicit entries, not omissions, so callers can tell
// "no data" apart from "zero power". ProductPower may be -Inf for a valid
// point whose capture held no detectable product.
type Point struct {
	Level        float64 // stimulus input level
	ProductPower float64 // second-order product power in dB
	Valid        bool    // false when capture or extraction failed
	Err          error   // the per-step failure, nil when Valid
}

// Result is the outcome of a full sweep.
//
// Points preserves sweep order and always has one entry per step. Intercept
// is only meaningful when InterceptOK is true; a degenerate fit or fewer
// than two valid points leave the intercept unavailable.
type Result struct {
	Points      []Point
	Intercept   float64
	InterceptOK bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for sweep progress and per-step failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSleep replaces the settle-delay wait, letting tests run sweeps without
// real time passing. The function must honor context cancellation.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Runner) {
		r.sleep = sleep
	}
}

// Runner drives amplitude sweeps against one source and one digitizer.
//
// A Runner owns exclusive access to both ports for the duration of Run;
// steps are strictly serialized because every step mutates shared instrument
// state and depends on the previous step's instruments being idle.
type Runner struct {
	src    Source
	dig    Digitizer
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewRunner creates a Runner over the given ports with a discard logger.
func NewRunner(src Source, dig Digitizer, options ...Option) *Runner {
	r := Runner{
		src:    src,
		dig:    dig,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:  sleepContext,
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Run executes the sweep and returns one Point per step, in sweep order.
//
// Capture and extraction failures are recorded per point and do not abort
// the remaining steps. Validation failures, context cancellation and
// transport faults abort the sweep; on every exit path, including those, the
// source output is disabled before Run returns. When at least two points
// carry a finite product power the intercept fit is attempted; its result is
// reported through Result.Intercept and Result.InterceptOK.
func (r *Runner) Run(ctx context.Context, s Sweep) (res *Result, err error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s = s.withDefaults()
	levels := s.Levels()

	res = &Result{Points: make([]Point, len(levels))}
	for i, level := range levels {
		res.Points[i] = Point{Level: level}
	}

	defer func() {
		if derr := r.src.DisableOutput(); derr != nil {
			r.logger.Error("disabling source output", slog.Any("error", derr))
			if err == nil {
				err = fmt.Errorf("disabling source output: %w", derr)
			}
		}
	}()

	for i, level := range levels {
		if cerr := ctx.Err(); cerr != nil {
			return res, cerr
		}

		r.logger.Info("sweep step",
			slog.Int("step", i+1),
			slog.Int("of", len(levels)),
			slog.Float64("level", level))

		if perr := r.configureStep(s, level); perr != nil {
			return res, perr
		}

		if serr := r.sleep(ctx, s.SettleDelay); serr != nil {
			return res, serr
		}

		power, stepErr := r.measureStep(ctx, s)
		if stepErr != nil {
			if ctx.Err() != nil || !isStepFailure(stepErr) {
				return res, stepErr
			}

			r.logger.Warn("sweep step failed, continuing",
				slog.Int("step", i+1),
				slog.Float64("level", level),
				slog.Any("error", stepErr))

			res.Points[i].Err = stepErr
			continue
		}

		res.Points[i].ProductPower = power
		res.Points[i].Valid = true
	}

	r.fitIntercept(res)

	return res, nil
}

// configureStep programs both instruments for the given input level.
// Failures here are transport faults and abort the sweep.
func (r *Runner) configureStep(s Sweep, level float64) error {
	if err := r.src.ConfigureOutput(s.Waveform, s.F1, level, 0); err != nil {
		return fmt.Errorf("configuring source: %w", err)
	}

	if err := r.src.EnableOutput(); err != nil {
		return fmt.Errorf("enabling source output: %w", err)
	}

	if err := r.dig.SetTimebase(timebaseCycles / s.F1); err != nil {
		return fmt.Errorf("setting timebase: %w", err)
	}

	if err := r.dig.SetChannelScale(s.Channel, level*scalePerLevel); err != nil {
		return fmt.Errorf("setting channel scale: %w", err)
	}

	if err := r.dig.SetTriggerSource(s.Channel); err != nil {
		return fmt.Errorf("setting trigger source: %w", err)
	}

	if err := r.dig.SetTriggerLevel(triggerLevelVolts); err != nil {
		return fmt.Errorf("setting trigger level: %w", err)
	}

	return nil
}

// measureStep acquires one waveform and extracts the product power from it.
func (r *Runner) measureStep(ctx context.Context, s Sweep) (float64, error) {
	if err := r.dig.Start(); err != nil {
		return 0, fmt.Errorf("starting acquisition: %w", err)
	}

	if err := r.sleep(ctx, s.SettleDelay); err != nil {
		return 0, err
	}

	if err := r.dig.Stop(); err != nil {
		return 0, fmt.Errorf("stopping acquisition: %w", err)
	}

	wave, err := r.dig.CaptureWaveform(s.Channel)
	if err != nil {
		return 0, err
	}

	rate, ok := r.dig.SampleRate()
	if !ok {
		rate = s.SampleRate
		r.logger.Debug("sample rate inference unavailable, using assumed rate",
			slog.Float64("rate", rate))
	}

	power, err := imd.ProductPower(wave, s.F1, s.F2, rate)
	if err != nil {
		return 0, fmt.Errorf("%w: extracting product power: %w", ErrCapture, err)
	}

	return power, nil
}

// fitIntercept attempts the intercept fit over all valid, finite points.
func (r *Runner) fitIntercept(res *Result) {
	levels := make([]float64, 0, len(res.Points))
	powers := make([]float64, 0, len(res.Points))

	for _, p := range res.Points {
		if !p.Valid || math.IsInf(p.ProductPower, 0) || math.IsNaN(p.ProductPower) {
			continue
		}

		levels = append(levels, p.Level)
		powers = append(powers, p.ProductPower)
	}

	if len(levels) < 2 {
		r.logger.Info("intercept unavailable",
			slog.Int("validPoints", len(levels)))
		return
	}

	level, err := intercept.Estimate(levels, powers)
	if err != nil {
		r.logger.Warn("intercept fit failed", slog.Any("error", err))
		return
	}

	res.Intercept = level
	res.InterceptOK = true
}

// isStepFailure reports whether err is a per-step capture/extract failure
// rather than an unrecoverable transport fault.
func isStepFailure(err error) bool {
	return errors.Is(err, ErrCapture)
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
