// dgxtop is a terminal dashboard for CPU, memory, disk, network, and
// GPU activity, polling kernel counters at an adjustable interval.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sjyi/dgxtop/internal/config"
	"github.com/sjyi/dgxtop/internal/sampler"
	"github.com/sjyi/dgxtop/internal/ui"
)

func main() {
	cfg, err := config.FromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	smp, err := sampler.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dgxtop: %v\n", err)
		os.Exit(1)
	}

	if err := ui.Run(cfg, smp, logger); err != nil {
		fmt.Fprintf(os.Stderr, "dgxtop: %v\n", err)
		os.Exit(1)
	}
	logger.Info("dgxtop shutdown")
}

// newLogger builds the one process-wide logger. The dashboard owns
// stdout, so logs go to a file when configured and are discarded
// otherwise.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}
