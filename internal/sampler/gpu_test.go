package sampler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sjyi/dgxtop/internal/discover"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedRunner answers the version probe, then serves queued query
// responses in order.
func scriptedRunner(responses []string, errs []error) discover.Runner {
	i := -1
	return func(ctx context.Context, name string, args ...string) (string, error) {
		if len(args) > 0 && args[0] == "--version" {
			return "NVIDIA-SMI 550.54", nil
		}
		i++
		return responses[i], errs[i]
	}
}

func TestGPUStatsParsing(t *testing.T) {
	out := "0, NVIDIA GB10, 37, 48, 21.50, [N/A], [N/A], 1999, 2600\n"
	g := NewGPUMonitor(context.Background(), scriptedRunner([]string{out}, []error{nil}), discardLogger())

	gpus := g.Stats(context.Background())
	if len(gpus) != 1 {
		t.Fatalf("got %d GPUs, want 1", len(gpus))
	}
	gpu := gpus[0]
	if gpu.Index != 0 || gpu.Name != "NVIDIA GB10" {
		t.Errorf("identity = %d/%q", gpu.Index, gpu.Name)
	}
	if gpu.Util != 37 || gpu.TempC != 48 || gpu.PowerDraw != 21.5 {
		t.Errorf("readings = %v/%v/%v, want 37/48/21.5", gpu.Util, gpu.TempC, gpu.PowerDraw)
	}
	// The not-applicable sentinel maps to defaults, not a parse failure.
	if gpu.PowerLimit != 100 {
		t.Errorf("PowerLimit = %v, want default 100", gpu.PowerLimit)
	}
	if gpu.FanSpeed != 0 {
		t.Errorf("FanSpeed = %v, want default 0", gpu.FanSpeed)
	}
	if gpu.ClockMHz != 1999 || gpu.ClockMaxMHz != 2600 {
		t.Errorf("clocks = %v/%v, want 1999/2600", gpu.ClockMHz, gpu.ClockMaxMHz)
	}
}

func TestGPUStatsRetainsPreviousOnFailure(t *testing.T) {
	good := "0, NVIDIA GB10, 42, 50, 30.0, 100.0, [N/A], 2000, 2600\n"
	run := scriptedRunner(
		[]string{good, "", "short,row"},
		[]error{nil, errors.New("exit status 9"), nil},
	)
	g := NewGPUMonitor(context.Background(), run, discardLogger())

	first := g.Stats(context.Background())
	if len(first) != 1 || first[0].Util != 42 {
		t.Fatalf("unexpected first reading: %+v", first)
	}

	// Command failure: previous reading re-served.
	second := g.Stats(context.Background())
	if len(second) != 1 || second[0].Util != 42 {
		t.Errorf("after failure: %+v, want retained first reading", second)
	}

	// Output with no parseable rows: same.
	third := g.Stats(context.Background())
	if len(third) != 1 || third[0].Util != 42 {
		t.Errorf("after unparseable output: %+v, want retained reading", third)
	}
}

func TestGPUMonitorUnavailable(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("executable file not found")
	}
	g := NewGPUMonitor(context.Background(), run, discardLogger())
	if g.Available() {
		t.Error("monitor should report unavailable")
	}
	if got := g.Stats(context.Background()); got != nil {
		t.Errorf("Stats() = %v, want nil when unavailable", got)
	}
}

func TestParseGPURowMultiDevice(t *testing.T) {
	out := "0, GPU A, 10, 40, 50, 300, 30, 1500, 2100\n" +
		"1, GPU B, 90, 70, 280, 300, 80, 2100, 2100\n"
	g := NewGPUMonitor(context.Background(), scriptedRunner([]string{out}, []error{nil}), discardLogger())

	gpus := g.Stats(context.Background())
	if len(gpus) != 2 {
		t.Fatalf("got %d GPUs, want 2", len(gpus))
	}
	if gpus[1].Index != 1 || gpus[1].Util != 90 {
		t.Errorf("second device = %+v", gpus[1])
	}
}
