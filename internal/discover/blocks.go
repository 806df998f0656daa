// Package discover enumerates and classifies the entities worth
// showing: mounted physical block devices, connected network
// interfaces, and RoCE ports hiding behind conventional interface
// names.
package discover

import (
	"bufio"
	"os"
	"strings"
)

// DefaultMountsPath is the kernel mount table.
const DefaultMountsPath = "/proc/mounts"

// Virtual block devices never shown regardless of mount state.
var excludedDiskPrefixes = []string{"loop", "ram", "dm-", "sr", "fd"}

// Known physical device naming schemes: SCSI/SATA, NVMe, virtio,
// legacy IDE, Xen virtual, MMC.
var physicalDiskPrefixes = []string{"sd", "nvme", "vd", "hd", "xvd", "mmcblk"}

// MountedDevices collects the base names of every /dev-backed entry in
// a mounts-format file: the first column with the /dev/ prefix
// stripped. Unreadable files yield an empty set, never an error. The
// caller refreshes this on a slow cadence rather than every poll.
func MountedDevices(path string) map[string]struct{} {
	mounted := make(map[string]struct{})
	f, err := os.Open(path)
	if err != nil {
		return mounted
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if dev, ok := strings.CutPrefix(fields[0], "/dev/"); ok {
			mounted[dev] = struct{}{}
		}
	}
	return mounted
}

// DisplayableDisk reports whether a block device belongs on screen: not
// a virtual device, named like a known physical device, and present in
// the mounted set.
func DisplayableDisk(name string, mounted map[string]struct{}) bool {
	if hasAnyPrefix(name, excludedDiskPrefixes) {
		return false
	}
	if !hasAnyPrefix(name, physicalDiskPrefixes) {
		return false
	}
	_, ok := mounted[name]
	return ok
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
