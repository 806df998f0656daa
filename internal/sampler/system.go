package sampler

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sjyi/dgxtop/internal/model"
)

// systemMonitor derives CPU usage from /proc/stat time deltas and
// reads memory, load, frequency and thermals. It keeps the previous
// aggregate CPU times between ticks.
type systemMonitor struct {
	prevTotal float64
	prevIdle  float64
	cores     int
}

func newSystemMonitor() *systemMonitor {
	m := &systemMonitor{}
	m.cores, _ = cpu.Counts(true)
	return m
}

func (m *systemMonitor) CPU() model.CPU {
	out := model.CPU{Cores: m.cores}

	times, _ := cpu.Times(false)
	if len(times) > 0 {
		cur := times[0]
		curTotal := cur.Total()
		curIdle := cur.Idle + cur.Iowait
		if m.prevTotal > 0 {
			dt := curTotal - m.prevTotal
			di := curIdle - m.prevIdle
			if dt > 0 {
				out.Usage = 100 * (1 - di/dt)
			}
		}
		m.prevTotal, m.prevIdle = curTotal, curIdle
	}

	if avg, err := load.Avg(); err == nil {
		out.Load1, out.Load5, out.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	out.FreqMHz, out.FreqMaxMHz = cpuFrequency()
	out.TempC = cpuTemperature()
	return out
}

// Uptime reads the host uptime, zero when unavailable.
func (m *systemMonitor) Uptime() time.Duration {
	secs, err := host.Uptime()
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (m *systemMonitor) Memory() model.Memory {
	out := model.Memory{}
	if v, err := mem.VirtualMemory(); err == nil {
		out.TotalBytes = v.Total
		out.UsedBytes = v.Used
		out.FreeBytes = v.Free
		out.Buffers = v.Buffers
		out.Cached = v.Cached
	}
	if sw, err := mem.SwapMemory(); err == nil {
		out.SwapUsed = sw.Used
		out.SwapTotal = sw.Total
	}
	return out
}

// cpuFrequency averages the per-core current frequency and reads the
// cpu0 maximum, both in MHz. Missing cpufreq support reads as zero.
func cpuFrequency() (current, max float64) {
	paths, _ := filepath.Glob("/sys/devices/system/cpu/cpu*/cpufreq/scaling_cur_freq")
	var sum float64
	var n int
	for _, p := range paths {
		if v, ok := readSysfsFloat(p); ok {
			sum += v / 1000 // kHz to MHz
			n++
		}
	}
	if n > 0 {
		current = sum / float64(n)
	}
	if v, ok := readSysfsFloat("/sys/devices/system/cpu/cpu0/cpufreq/scaling_max_freq"); ok {
		max = v / 1000
	}
	return current, max
}

// cpuTemperature prefers a thermal zone whose type mentions cpu or
// soc, falling back to zone 0.
func cpuTemperature() float64 {
	zones, _ := filepath.Glob("/sys/class/thermal/thermal_zone*/type")
	for _, typePath := range zones {
		b, err := os.ReadFile(typePath)
		if err != nil {
			continue
		}
		zoneType := strings.ToLower(strings.TrimSpace(string(b)))
		if !strings.Contains(zoneType, "cpu") && !strings.Contains(zoneType, "soc") {
			continue
		}
		if v, ok := readSysfsFloat(filepath.Join(filepath.Dir(typePath), "temp")); ok {
			return v / 1000
		}
	}
	if v, ok := readSysfsFloat("/sys/class/thermal/thermal_zone0/temp"); ok {
		return v / 1000
	}
	return 0
}

func readSysfsFloat(path string) (float64, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
