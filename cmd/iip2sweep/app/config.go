package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bench modes.
const (
	BenchSim      = "sim"
	BenchHardware = "hardware"
)

// Port transports.
const (
	TransportTCP  = "tcp"
	TransportGPIB = "gpib"
)

// Config represents the main application configuration.
type Config struct {
	Settings Settings      `yaml:"settings"`
	Bench    BenchConfig   `yaml:"bench"`
	Sweep    SweepConfig   `yaml:"sweep"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Level parses the configured log level.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("parsing log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// BenchConfig selects and describes the instrument bench.
type BenchConfig struct {
	Mode      string     `yaml:"mode"` // sim | hardware
	Generator PortConfig `yaml:"generator"`
	Scope     PortConfig `yaml:"scope"`
	Sim       SimConfig  `yaml:"sim"`
}

// PortConfig describes how to reach one hardware instrument.
type PortConfig struct {
	Transport      string  `yaml:"transport"` // tcp | gpib
	Address        string  `yaml:"address"`   // host:port for tcp
	SerialPort     string  `yaml:"serialPort"`
	GPIBAddress    int     `yaml:"gpibAddress"`
	Channel        int     `yaml:"channel"`
	TimeoutSeconds float64 `yaml:"timeoutSeconds"`
}

// Timeout returns the port's command timeout.
func (p PortConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds * float64(time.Second))
}

// SimConfig tunes the simulated bench.
type SimConfig struct {
	SecondOrder    float64 `yaml:"secondOrder"`
	NoiseAmplitude float64 `yaml:"noiseAmplitude"`
	NoiseSeed      int64   `yaml:"noiseSeed"`
	CaptureLen     int     `yaml:"captureLen"`
	SampleRate     float64 `yaml:"sampleRate"`
}

// SweepConfig describes the amplitude sweep to run.
type SweepConfig struct {
	StartLevel    float64 `yaml:"startLevel"`
	StopLevel     float64 `yaml:"stopLevel"`
	Steps         int     `yaml:"steps"`
	F1            float64 `yaml:"f1"`
	F2            float64 `yaml:"f2"`
	SampleRate    float64 `yaml:"sampleRate"`
	Channel       int     `yaml:"channel"`
	SettleSeconds float64 `yaml:"settleSeconds"`
}

// StorageConfig represents result storage settings.
type StorageConfig struct {
	Database string `yaml:"database"` // empty disables persistence
}

// LoadConfig reads and validates a yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Config{
		Settings: Settings{LogLevel: "info"},
		Bench:    BenchConfig{Mode: BenchSim},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Bench.Mode {
	case BenchSim:
	case BenchHardware:
		if err := c.Bench.Generator.validate("generator"); err != nil {
			return err
		}
		if err := c.Bench.Scope.validate("scope"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown bench mode %q", c.Bench.Mode)
	}

	return nil
}

func (p PortConfig) validate(name string) error {
	switch p.Transport {
	case TransportTCP:
		if p.Address == "" {
			return fmt.Errorf("%s: tcp transport needs an address", name)
		}
	case TransportGPIB:
		if p.SerialPort == "" {
			return fmt.Errorf("%s: gpib transport needs a serial port", name)
		}
	default:
		return fmt.Errorf("%s: unknown transport %q", name, p.Transport)
	}

	return nil
}
