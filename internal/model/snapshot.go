package model

import "time"

// DiskCounters is one raw reading of a block device's kernel counters.
// All fields are cumulative since boot and monotonic except across a
// counter reset or device replacement.
type DiskCounters struct {
	Device         string
	ReadIOs        uint64
	SectorsRead    uint64
	ReadTimeMS     uint64
	WriteIOs       uint64
	SectorsWritten uint64
	WriteTimeMS    uint64
	IOsInProgress  uint64
	IOTimeMS       uint64
}

// DiskRate holds per-second rates and await latency derived from two
// temporally adjacent DiskCounters readings.
type DiskRate struct {
	Device           string
	ReadBytesPerSec  float64
	WriteBytesPerSec float64
	ReadIOsPerSec    float64
	WriteIOsPerSec   float64
	AwaitReadMS      float64
	AwaitWriteMS     float64
	AwaitMS          float64
	QueueDepth       uint64
}

// NetCounters is one raw reading of an interface's counters. Regular
// interfaces and InfiniBand/RoCE ports both produce this shape, so
// downstream code never cares which transport it came from.
type NetCounters struct {
	Interface string
	RxBytes   uint64
	TxBytes   uint64
	RxPackets uint64
	TxPackets uint64
	RxErrors  uint64
	TxErrors  uint64
	RxDropped uint64
	TxDropped uint64
}

// NetRate holds per-second rates for one interface. Error and drop
// totals carry through unchanged for display.
type NetRate struct {
	Interface        string
	RxBytesPerSec    float64
	TxBytesPerSec    float64
	RxPacketsPerSec  float64
	TxPacketsPerSec  float64
	RxErrors         uint64
	TxErrors         uint64
	RoCE             bool
}

// CPU aggregates instantaneous CPU usage plus frequency and thermals.
type CPU struct {
	Usage      float64 // percent 0-100
	Load1      float64
	Load5      float64
	Load15     float64
	Cores      int
	FreqMHz    float64
	FreqMaxMHz float64
	TempC      float64
}

// Memory captures RAM and swap usage in bytes.
type Memory struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
	Buffers    uint64
	Cached     uint64
	SwapUsed   uint64
	SwapTotal  uint64
}

// GPU is a single device reading from the GPU query command.
type GPU struct {
	Index       int
	Name        string
	Util        float64 // percent
	TempC       float64
	PowerDraw   float64 // watts
	PowerLimit  float64 // watts
	FanSpeed    float64 // percent, 0 when not reported
	ClockMHz    float64
	ClockMaxMHz float64
}

// Volume joins a mounted filesystem's capacity to its block device rates.
type Volume struct {
	Device           string
	MountPoint       string
	TotalBytes       uint64
	UsedBytes        uint64
	FreeBytes        uint64
	UsedPercent      float64
	ReadBytesPerSec  float64
	WriteBytesPerSec float64
}

// History carries ordered copies of the aggregate sparkline series.
type History struct {
	DiskRead  []float64
	DiskWrite []float64
	NetRx     []float64
	NetTx     []float64
	GPUUtil   []float64
}

// Snapshot is the full per-tick result handed from the sampler to the
// view layer. It is never mutated after assembly; each tick supersedes
// the previous snapshot wholesale.
type Snapshot struct {
	Timestamp time.Time
	Interval  time.Duration
	Uptime    time.Duration
	CPU       CPU
	Memory    Memory
	GPUs      []GPU
	// Disks maps displayable block device names to their rates.
	Disks map[string]DiskRate
	// Interfaces is in display order: wireless, then ethernet, then rest.
	Interfaces []NetRate
	Volumes    []Volume
	History    History
}
