// Command iip2sweep measures the second-order intercept point of a device
// under test by sweeping a two-tone stimulus and fitting the distortion
// product power against the drive level.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-linearity/cmd/iip2sweep/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("c", "iip2sweep.yaml", "path to the configuration file")
		report     = flag.Bool("report", false, "list stored sessions instead of running a sweep")
	)
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	levelVar := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))

	level, err := cfg.Settings.Level()
	if err != nil {
		return err
	}
	levelVar.Set(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *report {
		if cfg.Storage.Database == "" {
			return fmt.Errorf("report requires storage.database in %s", *configPath)
		}
		return app.Report(ctx, cfg.Storage.Database, os.Stdout)
	}

	return app.Run(ctx, cfg, logger, os.Stdout)
}
