// Package counters reads raw monotonic counters for named resources:
// block devices from a diskstats file, network interfaces and
// InfiniBand/RoCE ports from per-counter sysfs files. Every read path
// degrades to zero values or skips the offending record; nothing here
// raises past the constructor.
package counters

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sjyi/dgxtop/internal/model"
)

// DefaultDiskstatsPath is the kernel block device statistics source.
const DefaultDiskstatsPath = "/proc/diskstats"

// DiskSource parses a diskstats-format file. One instance is reused
// across polls; it holds no state beyond the path.
type DiskSource struct {
	path string
	log  *slog.Logger
}

// NewDiskSource fails when the statistics file does not exist at all.
// That is the one setup error surfaced to the caller; per-read
// problems later degrade to an empty result instead.
func NewDiskSource(path string, logger *slog.Logger) (*DiskSource, error) {
	if path == "" {
		path = DefaultDiskstatsPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("disk statistics source: %w", err)
	}
	return &DiskSource{path: path, log: logger}, nil
}

// Read returns one counter record per parseable line. Lines with fewer
// than 14 fields or with non-numeric counters are skipped individually.
//
// Field positions after splitting (0-indexed): 2=device name, 3=reads
// completed, 5=sectors read, 6=ms reading, 7=writes completed,
// 9=sectors written, 10=ms writing, 11=IOs in progress, 12=ms doing IO.
func (s *DiskSource) Read() []model.DiskCounters {
	f, err := os.Open(s.path)
	if err != nil {
		s.log.Warn("diskstats unreadable", "path", s.path, "error", err)
		return nil
	}
	defer f.Close()

	var out []model.DiskCounters
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 14 {
			continue
		}
		c, ok := parseDiskLine(fields)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseDiskLine(fields []string) (model.DiskCounters, bool) {
	c := model.DiskCounters{Device: fields[2]}
	for _, f := range []struct {
		idx int
		dst *uint64
	}{
		{3, &c.ReadIOs},
		{5, &c.SectorsRead},
		{6, &c.ReadTimeMS},
		{7, &c.WriteIOs},
		{9, &c.SectorsWritten},
		{10, &c.WriteTimeMS},
		{11, &c.IOsInProgress},
		{12, &c.IOTimeMS},
	} {
		v, err := strconv.ParseUint(fields[f.idx], 10, 64)
		if err != nil {
			return model.DiskCounters{}, false
		}
		*f.dst = v
	}
	return c, true
}
