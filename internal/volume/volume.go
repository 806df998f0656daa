// Package volume joins mounted filesystem capacity to block device
// rates, bridging the naming gap between the mount table and the
// diskstats entity names.
package volume

import (
	"bufio"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/sjyi/dgxtop/internal/model"
)

// Pseudo and virtual filesystem types that never map to a block
// device worth charting.
var virtualFilesystems = map[string]struct{}{
	"proc": {}, "procfs": {}, "sysfs": {}, "devtmpfs": {}, "tmpfs": {},
	"cgroup": {}, "cgroup2": {}, "cgroupfs": {}, "squashfs": {},
	"devpts": {}, "securityfs": {}, "pstore": {}, "bpf": {},
	"systemd-1": {}, "cgmfs": {}, "mqueue": {}, "hugetlbfs": {},
	"debugfs": {}, "tracefs": {}, "configfs": {}, "fusectl": {},
	"binfmt_misc": {}, "sunrpc": {}, "nsfs": {}, "nfs": {}, "nfs4": {},
	"autofs": {}, "autofs4": {}, "fuse": {}, "fuseblk": {},
	"iso9660": {}, "udf": {}, "overlay": {}, "aufs": {}, "unionfs": {},
	"ramfs": {},
}

// Mount is one row of the mount table.
type Mount struct {
	Device     string
	MountPoint string
	FSType     string
}

// Correlator produces per-volume capacity and throughput records.
type Correlator struct {
	mountsPath string
	usage      func(path string) (*disk.UsageStat, error)
	log        *slog.Logger
}

func NewCorrelator(mountsPath string, logger *slog.Logger) *Correlator {
	if mountsPath == "" {
		mountsPath = "/proc/mounts"
	}
	return &Correlator{mountsPath: mountsPath, usage: disk.Usage, log: logger}
}

// Collect walks the mount table, skips pseudo filesystems, fetches
// capacity per mount point, and joins throughput by device name
// matching. A volume with no matching diskstats entity reports zero
// rates rather than an error.
func (c *Correlator) Collect(rates map[string]model.DiskRate) []model.Volume {
	mounts := c.readMounts()

	devices := make([]string, 0, len(rates))
	for name := range rates {
		devices = append(devices, name)
	}

	var out []model.Volume
	for _, m := range mounts {
		if _, virtual := virtualFilesystems[m.FSType]; virtual {
			continue
		}
		u, err := c.usage(m.MountPoint)
		if err != nil {
			// Inaccessible mount point; skip the volume, not the table.
			continue
		}
		v := model.Volume{
			Device:      m.Device,
			MountPoint:  m.MountPoint,
			TotalBytes:  u.Total,
			UsedBytes:   u.Used,
			FreeBytes:   u.Free,
			UsedPercent: u.UsedPercent,
		}
		if name, ok := MatchDevice(m.Device, devices); ok {
			r := rates[name]
			v.ReadBytesPerSec = r.ReadBytesPerSec
			v.WriteBytesPerSec = r.WriteBytesPerSec
		}
		out = append(out, v)
	}
	return out
}

func (c *Correlator) readMounts() []Mount {
	f, err := os.Open(c.mountsPath)
	if err != nil {
		c.log.Warn("mount table unreadable", "path", c.mountsPath, "error", err)
		return nil
	}
	defer f.Close()

	var mounts []Mount
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mounts = append(mounts, Mount{Device: fields[0], MountPoint: fields[1], FSType: fields[2]})
	}
	return mounts
}

// MatchDevice joins a mount table device path to a diskstats entity
// name. Exact base name match wins; then a whole-disk entity whose
// name plus a partition suffix (digits, optionally behind a "p" as in
// nvme0n1p3 or mmcblk0p1) equals the base name; last, substring
// containment in either direction. The substring rule is a heuristic
// and can mismatch adjacent names sharing a prefix; it stays because
// some device naming schemes fit nothing stricter.
func MatchDevice(mountDevice string, devices []string) (string, bool) {
	base := strings.TrimPrefix(mountDevice, "/dev/")

	for _, dev := range devices {
		if dev == base {
			return dev, true
		}
	}

	// Longest candidate first so "sda1" prefers "sda" over shorter
	// accidental prefixes.
	sorted := make([]string, len(devices))
	copy(sorted, devices)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, dev := range sorted {
		if suffix, ok := strings.CutPrefix(base, dev); ok && isPartitionSuffix(suffix) {
			return dev, true
		}
	}

	for _, dev := range sorted {
		if strings.Contains(base, dev) || strings.Contains(dev, base) {
			return dev, true
		}
	}
	return "", false
}

// isPartitionSuffix accepts "1", "12", "p3" and the like.
func isPartitionSuffix(s string) bool {
	s = strings.TrimPrefix(s, "p")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
