package counters

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/sjyi/dgxtop/internal/model"
)

// DefaultIBSysfsRoot holds one directory per InfiniBand device with
// per-port counter files under ports/<n>/counters/.
const DefaultIBSysfsRoot = "/sys/class/infiniband"

// InfinibandSource reads RoCE port counters and presents them in the
// same NetCounters shape as a regular interface, keyed by the mapped
// network interface name so the rate engine treats both alike.
type InfinibandSource struct {
	root string
}

func NewInfinibandSource(root string) *InfinibandSource {
	if root == "" {
		root = DefaultIBSysfsRoot
	}
	return &InfinibandSource{root: root}
}

// Read returns the counters for one port of one device, labeled with
// the conventional interface name. ok is false when the counters
// directory is absent.
func (s *InfinibandSource) Read(device string, port int, iface string) (model.NetCounters, bool) {
	base := filepath.Join(s.root, device, "ports", strconv.Itoa(port), "counters")
	if _, err := os.Stat(base); err != nil {
		return model.NetCounters{}, false
	}
	return model.NetCounters{
		Interface: iface,
		RxBytes:   readCounterFile(filepath.Join(base, "port_rcv_data")),
		TxBytes:   readCounterFile(filepath.Join(base, "port_xmit_data")),
		RxPackets: readCounterFile(filepath.Join(base, "port_rcv_packets")),
		TxPackets: readCounterFile(filepath.Join(base, "port_xmit_packets")),
		RxErrors:  readCounterFile(filepath.Join(base, "port_rcv_errors")),
		// Transmit discards are the port's tx-side problem counter;
		// surfaced as TxErrors so the shared display shape shows them.
		TxErrors: readCounterFile(filepath.Join(base, "port_xmit_discards")),
	}, true
}
