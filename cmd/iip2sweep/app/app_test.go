package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSimBench(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sweeps.db")
	cfg := &Config{
		Settings: Settings{LogLevel: "info"},
		Bench:    BenchConfig{Mode: BenchSim},
		Sweep: SweepConfig{
			StartLevel:    0.001,
			StopLevel:     1.0,
			Steps:         5,
			F1:            1e3,
			F2:            1.01e3,
			SampleRate:    50e3,
			SettleSeconds: 0.001,
		},
		Storage: StorageConfig{Database: dbPath},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var out bytes.Buffer
	if err := Run(context.Background(), cfg, logger, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(out.String(), "second-order intercept at level") {
		t.Errorf("Run output missing intercept line:\n%s", out.String())
	}

	var report bytes.Buffer
	if err := Report(context.Background(), dbPath, &report); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.Contains(report.String(), "session 1") {
		t.Errorf("Report output missing stored session:\n%s", report.String())
	}
}

func TestRunInvalidSweep(t *testing.T) {
	cfg := &Config{
		Bench: BenchConfig{Mode: BenchSim},
		Sweep: SweepConfig{Steps: 0},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Run(context.Background(), cfg, logger, io.Discard); err == nil {
		t.Error("Run() error = nil, want validation error")
	}
}
