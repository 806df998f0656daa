package rate

import "github.com/sjyi/dgxtop/internal/model"

// sectorSize converts diskstats sector counts to bytes. The kernel
// reports sectors in fixed 512-byte units regardless of the device's
// native sector size.
const sectorSize = 512

// NewDiskEngine builds the rate engine for the block device domain.
func NewDiskEngine() *Engine[model.DiskCounters, model.DiskRate] {
	return NewEngine(
		func(c model.DiskCounters) string { return c.Device },
		firstDisk,
		deriveDisk,
	)
}

func firstDisk(c model.DiskCounters) model.DiskRate {
	return model.DiskRate{Device: c.Device, QueueDepth: c.IOsInProgress}
}

func deriveDisk(cur, prev model.DiskCounters, elapsedSec float64) model.DiskRate {
	r := model.DiskRate{
		Device:           cur.Device,
		ReadBytesPerSec:  delta(cur.SectorsRead, prev.SectorsRead) * sectorSize / elapsedSec,
		WriteBytesPerSec: delta(cur.SectorsWritten, prev.SectorsWritten) * sectorSize / elapsedSec,
		ReadIOsPerSec:    delta(cur.ReadIOs, prev.ReadIOs) / elapsedSec,
		WriteIOsPerSec:   delta(cur.WriteIOs, prev.WriteIOs) / elapsedSec,
		QueueDepth:       cur.IOsInProgress,
	}
	r.AwaitReadMS, r.AwaitWriteMS, r.AwaitMS = await(cur, prev)
	return r
}

// await derives average milliseconds per I/O from the time-in-state
// and completion deltas. The combined figure is total time over total
// completions, computed independently of the per-direction averages so
// a quiet direction cannot bias it.
func await(cur, prev model.DiskCounters) (read, write, total float64) {
	readIOs := delta(cur.ReadIOs, prev.ReadIOs)
	writeIOs := delta(cur.WriteIOs, prev.WriteIOs)
	readTime := delta(cur.ReadTimeMS, prev.ReadTimeMS)
	writeTime := delta(cur.WriteTimeMS, prev.WriteTimeMS)

	if readIOs > 0 {
		read = readTime / readIOs
	}
	if writeIOs > 0 {
		write = writeTime / writeIOs
	}
	if ios := readIOs + writeIOs; ios > 0 {
		total = (readTime + writeTime) / ios
	}
	return read, write, total
}
