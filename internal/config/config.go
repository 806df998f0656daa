// Package config carries the runtime options for dgxtop: polling
// cadence, history depth, theme, and the source paths the engine reads.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	// MinInterval and MaxInterval bound the polling cadence, including
	// runtime adjustment from the keyboard.
	MinInterval = 100 * time.Millisecond
	MaxInterval = 5 * time.Second

	// DefaultHistoryLength is the aggregate sparkline depth per series.
	DefaultHistoryLength = 60
)

// Config is resolved once at startup and handed to the sampler and UI.
type Config struct {
	Interval      time.Duration
	HistoryLength int
	Theme         string
	Redline       float64 // percent at which gauges turn critical
	EnableGPU     bool
	LogFile       string

	// Source locations, overridable for tests and odd deployments.
	DiskstatsPath string
	MountsPath    string
	NetSysfsRoot  string
	IBSysfsRoot   string
}

func Default() Config {
	return Config{
		Interval:      time.Second,
		HistoryLength: DefaultHistoryLength,
		Theme:         "green",
		Redline:       80.0,
		EnableGPU:     true,
	}
}

// fileConfig is the optional YAML overlay. Zero values mean "keep the
// default"; the flag layer still wins over the file.
type fileConfig struct {
	Interval      string  `yaml:"interval"`
	HistoryLength int     `yaml:"history_length"`
	Theme         string  `yaml:"theme"`
	Redline       float64 `yaml:"redline"`
	GPU           *bool   `yaml:"gpu"`
}

// FromFlags resolves configuration: defaults, then the config file,
// then environment, then flags.
func FromFlags(args []string) (Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("dgxtop", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to YAML config file")
	fs.DurationVarP(&cfg.Interval, "interval", "i", cfg.Interval, "update interval")
	fs.IntVar(&cfg.HistoryLength, "history", cfg.HistoryLength, "sparkline history depth")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "color theme: green|amber|blue")
	fs.BoolVar(&cfg.EnableGPU, "gpu", cfg.EnableGPU, "enable GPU sampling")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *configPath != "" {
		if err := cfg.applyFile(*configPath); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()

	// Flags win over file and env; re-apply anything set explicitly.
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Interval, _ = fs.GetDuration("interval")
		case "history":
			cfg.HistoryLength, _ = fs.GetInt("history")
		case "theme":
			cfg.Theme, _ = fs.GetString("theme")
		case "gpu":
			cfg.EnableGPU, _ = fs.GetBool("gpu")
		}
	})

	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if fc.Interval != "" {
		if d, err := time.ParseDuration(fc.Interval); err == nil {
			c.Interval = d
		}
	}
	if fc.HistoryLength > 0 {
		c.HistoryLength = fc.HistoryLength
	}
	if fc.Theme != "" {
		c.Theme = fc.Theme
	}
	if fc.Redline > 0 {
		c.Redline = fc.Redline
	}
	if fc.GPU != nil {
		c.EnableGPU = *fc.GPU
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DGXTOP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Interval = d
		} else if d, err := time.ParseDuration(v + "s"); err == nil {
			c.Interval = d
		}
	}
	if os.Getenv("DGXTOP_GPU") == "0" {
		c.EnableGPU = false
	}
}

// clamp keeps user input inside the supported ranges.
func (c *Config) clamp() {
	c.Interval = ClampInterval(c.Interval)
	if c.HistoryLength < 1 {
		c.HistoryLength = DefaultHistoryLength
	}
}

// ClampInterval applies the runtime bounds to an adjusted interval.
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}
