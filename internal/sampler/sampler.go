// Package sampler orchestrates one polling cycle across all domains
// and assembles the immutable per-tick snapshot the view renders.
package sampler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sjyi/dgxtop/internal/config"
	"github.com/sjyi/dgxtop/internal/counters"
	"github.com/sjyi/dgxtop/internal/discover"
	"github.com/sjyi/dgxtop/internal/model"
	"github.com/sjyi/dgxtop/internal/rate"
	"github.com/sjyi/dgxtop/internal/volume"
)

// Slow-changing context (mounted device set, IB mapping) is refreshed
// every this many ticks rather than every poll, on the same goroutine.
const refreshEveryTicks = 30

// External commands get a few seconds before the cycle gives up on
// them and reports the domain empty.
const commandTimeout = 3 * time.Second

// RoCE counters sit under port 1 on the devices this targets.
const ibPort = 1

// Sampler owns all engine state. Exactly one goroutine (the Stream
// loop) touches it, so it needs no locking beyond the interval, which
// the UI goroutine adjusts.
type Sampler struct {
	log *slog.Logger

	interval atomic.Int64 // nanoseconds

	disk *counters.DiskSource
	net  *counters.NetSource
	ib   *counters.InfinibandSource

	diskEngine *rate.Engine[model.DiskCounters, model.DiskRate]
	netEngine  *rate.Engine[model.NetCounters, model.NetRate]

	readHist  *rate.History
	writeHist *rate.History
	rxHist    *rate.History
	txHist    *rate.History
	gpuHist   *rate.History

	run        discover.Runner
	mountsPath string
	mounted    map[string]struct{}
	ibmap      discover.IBMapping
	tick       int

	vols *volume.Correlator
	gpu  *GPUMonitor
	sys  *systemMonitor
}

// New wires the sampler from configuration. The only fatal condition
// is a completely absent disk statistics source; everything else
// degrades per cycle.
func New(cfg config.Config, logger *slog.Logger) (*Sampler, error) {
	diskSrc, err := counters.NewDiskSource(cfg.DiskstatsPath, logger)
	if err != nil {
		return nil, err
	}

	mountsPath := cfg.MountsPath
	if mountsPath == "" {
		mountsPath = discover.DefaultMountsPath
	}

	s := &Sampler{
		log:        logger,
		disk:       diskSrc,
		net:        counters.NewNetSource(cfg.NetSysfsRoot),
		ib:         counters.NewInfinibandSource(cfg.IBSysfsRoot),
		diskEngine: rate.NewDiskEngine(),
		netEngine:  rate.NewNetEngine(),
		readHist:   rate.NewHistory(cfg.HistoryLength),
		writeHist:  rate.NewHistory(cfg.HistoryLength),
		rxHist:     rate.NewHistory(cfg.HistoryLength),
		txHist:     rate.NewHistory(cfg.HistoryLength),
		gpuHist:    rate.NewHistory(cfg.HistoryLength),
		run:        discover.CommandRunner(commandTimeout),
		mountsPath: mountsPath,
		vols:       volume.NewCorrelator(mountsPath, logger),
		sys:        newSystemMonitor(),
	}
	s.interval.Store(int64(cfg.Interval))
	if cfg.EnableGPU {
		s.gpu = NewGPUMonitor(context.Background(), s.run, logger)
	}
	return s, nil
}

// Interval returns the current polling cadence.
func (s *Sampler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// Faster shortens the interval one step and returns the new value.
func (s *Sampler) Faster() time.Duration { return s.adjust(-100 * time.Millisecond) }

// Slower lengthens the interval one step and returns the new value.
func (s *Sampler) Slower() time.Duration { return s.adjust(100 * time.Millisecond) }

func (s *Sampler) adjust(step time.Duration) time.Duration {
	d := config.ClampInterval(s.Interval() + step)
	s.interval.Store(int64(d))
	return d
}

// Stream emits one snapshot per tick until ctx is done. Each cycle
// collects synchronously, then sleeps whatever remains of the
// interval; cancellation is observed between cycles so a read is
// never cut short.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot)
	go func() {
		defer close(ch)
		for {
			start := time.Now()
			snap := s.Collect(ctx)
			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			}
			rest := s.Interval() - time.Since(start)
			if rest < 0 {
				rest = 0
			}
			select {
			case <-time.After(rest):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Collect runs one full polling cycle: discovery, raw counter reads,
// rate derivation, history append, volume correlation, assembly.
func (s *Sampler) Collect(ctx context.Context) model.Snapshot {
	s.tick++
	if s.tick == 1 || s.tick%refreshEveryTicks == 0 {
		s.mounted = discover.MountedDevices(s.mountsPath)
		s.ibmap = discover.LoadIBMapping(ctx, s.run, s.log)
	}

	diskRates, disks := s.collectDisk()
	ifaceRates := s.collectNet(ctx)
	vols := s.vols.Collect(diskRates)

	var gpus []model.GPU
	if s.gpu != nil {
		gpus = s.gpu.Stats(ctx)
		if len(gpus) > 0 {
			var util float64
			for _, g := range gpus {
				util += g.Util
			}
			s.gpuHist.Append(util / float64(len(gpus)))
		}
	}

	return model.Snapshot{
		Timestamp:  time.Now(),
		Interval:   s.Interval(),
		Uptime:     s.sys.Uptime(),
		CPU:        s.sys.CPU(),
		Memory:     s.sys.Memory(),
		GPUs:       gpus,
		Disks:      disks,
		Interfaces: ifaceRates,
		Volumes:    vols,
		History: model.History{
			DiskRead:  s.readHist.Values(),
			DiskWrite: s.writeHist.Values(),
			NetRx:     s.rxHist.Values(),
			NetTx:     s.txHist.Values(),
			GPUUtil:   s.gpuHist.Values(),
		},
	}
}

// collectDisk returns the full rate map (for volume correlation) and
// the displayable subset (for the disk panel). The aggregate history
// sums displayable devices only, so a partition and its parent disk
// are not double counted alongside unmounted devices.
func (s *Sampler) collectDisk() (map[string]model.DiskRate, map[string]model.DiskRate) {
	rates := s.diskEngine.Compute(s.disk.Read())
	if rates == nil {
		// Clock anomaly or re-entrant tick; panels keep their last look.
		return nil, nil
	}

	disks := make(map[string]model.DiskRate)
	var totalRead, totalWrite float64
	for name, r := range rates {
		if !discover.DisplayableDisk(name, s.mounted) {
			continue
		}
		disks[name] = r
		totalRead += r.ReadBytesPerSec
		totalWrite += r.WriteBytesPerSec
	}
	s.readHist.Append(totalRead)
	s.writeHist.Append(totalWrite)
	return rates, disks
}

// collectNet reads regular interfaces through sysfs and RoCE-tagged
// interfaces through their InfiniBand port counters, derives rates
// over the combined set, and returns the displayable interfaces in
// display order.
func (s *Sampler) collectNet(ctx context.Context) []model.NetRate {
	connected := discover.ConnectedInterfaces(ctx, s.run, s.log)

	var raw []model.NetCounters
	for _, iface := range connected {
		if s.ibmap.IsRoCE(iface) {
			if c, ok := s.ib.Read(s.ibmap.Device(iface), ibPort, iface); ok {
				raw = append(raw, c)
			}
			continue
		}
		if c, ok := s.net.Read(iface); ok {
			raw = append(raw, c)
		}
	}

	rates := s.netEngine.Compute(raw)
	if rates == nil {
		return nil
	}

	var names []string
	var totalRx, totalTx float64
	for name, r := range rates {
		if !discover.DisplayableInterface(name) {
			continue
		}
		names = append(names, name)
		totalRx += r.RxBytesPerSec
		totalTx += r.TxBytesPerSec
	}
	s.rxHist.Append(totalRx)
	s.txHist.Append(totalTx)

	discover.SortInterfaces(names)
	out := make([]model.NetRate, 0, len(names))
	for _, name := range names {
		r := rates[name]
		r.RoCE = s.ibmap.IsRoCE(name)
		out = append(out, r)
	}
	return out
}
