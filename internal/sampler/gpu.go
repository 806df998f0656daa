package sampler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sjyi/dgxtop/internal/discover"
	"github.com/sjyi/dgxtop/internal/model"
)

// gpuQueryFields asks for one CSV row per device. Fields the driver
// cannot report come back as the "[N/A]" sentinel.
const gpuQueryFields = "index,name,utilization.gpu," +
	"temperature.gpu,power.draw,power.limit,fan.speed," +
	"clocks.current.graphics,clocks.max.graphics"

// GPUMonitor queries device statistics through the nvidia-smi command.
// A failed or empty query re-serves the previous successful reading,
// so a momentarily wedged driver shows stale numbers instead of a
// blank panel.
type GPUMonitor struct {
	run  discover.Runner
	log  *slog.Logger
	ok   bool
	last []model.GPU
}

// NewGPUMonitor probes for the query command once. When the probe
// fails the monitor stays constructed but always returns nothing.
func NewGPUMonitor(ctx context.Context, run discover.Runner, logger *slog.Logger) *GPUMonitor {
	g := &GPUMonitor{run: run, log: logger}
	if _, err := run(ctx, "nvidia-smi", "--version"); err == nil {
		g.ok = true
	} else {
		logger.Info("gpu query command unavailable", "error", err)
	}
	return g
}

// Available reports whether the probe found the query command.
func (g *GPUMonitor) Available() bool { return g.ok }

// Stats returns one record per device, or the retained previous
// reading when the command fails this cycle.
func (g *GPUMonitor) Stats(ctx context.Context) []model.GPU {
	if !g.ok {
		return nil
	}
	out, err := g.run(ctx, "nvidia-smi",
		"--query-gpu="+gpuQueryFields,
		"--format=csv,noheader,nounits")
	if err != nil || strings.TrimSpace(out) == "" {
		g.log.Debug("gpu query failed, serving previous reading", "error", err)
		return g.last
	}

	var gpus []model.GPU
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if gpu, ok := parseGPURow(line); ok {
			gpus = append(gpus, gpu)
		}
	}
	if len(gpus) == 0 {
		return g.last
	}
	g.last = gpus
	return gpus
}

// parseGPURow parses one CSV row of the query output. Short rows are
// rejected; sentinel fields map to numeric defaults rather than
// failing the row.
func parseGPURow(line string) (model.GPU, bool) {
	values := strings.Split(line, ",")
	if len(values) < 6 {
		return model.GPU{}, false
	}
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	gpu := model.GPU{
		Index:      int(gpuFloat(values[0], 0)),
		Name:       values[1],
		Util:       gpuFloat(values[2], 0),
		TempC:      gpuFloat(values[3], 0),
		PowerDraw:  gpuFloat(values[4], 0),
		PowerLimit: gpuFloat(values[5], 100),
	}
	if len(values) > 6 {
		gpu.FanSpeed = gpuFloat(values[6], 0)
	}
	if len(values) > 7 {
		gpu.ClockMHz = gpuFloat(values[7], 0)
	}
	if len(values) > 8 {
		gpu.ClockMaxMHz = gpuFloat(values[8], 0)
	}
	return gpu, true
}

// gpuFloat maps the not-applicable sentinels to a default instead of a
// parse failure.
func gpuFloat(v string, def float64) float64 {
	switch v {
	case "", "N/A", "[N/A]":
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
