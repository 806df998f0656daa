package counters

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sjyi/dgxtop/internal/model"
)

// DefaultNetSysfsRoot holds one directory per interface with a small
// text file per counter under statistics/.
const DefaultNetSysfsRoot = "/sys/class/net"

// NetSource reads regular interface counters, one file per counter.
type NetSource struct {
	root string
}

func NewNetSource(root string) *NetSource {
	if root == "" {
		root = DefaultNetSysfsRoot
	}
	return &NetSource{root: root}
}

// Read returns the interface's counters. Each counter file is read
// independently; a missing or malformed file yields 0 for that field
// only. ok is false when the interface has no statistics directory at
// all, i.e. it vanished between discovery and read.
func (s *NetSource) Read(iface string) (model.NetCounters, bool) {
	base := filepath.Join(s.root, iface, "statistics")
	if _, err := os.Stat(base); err != nil {
		return model.NetCounters{}, false
	}
	return model.NetCounters{
		Interface: iface,
		RxBytes:   readCounterFile(filepath.Join(base, "rx_bytes")),
		TxBytes:   readCounterFile(filepath.Join(base, "tx_bytes")),
		RxPackets: readCounterFile(filepath.Join(base, "rx_packets")),
		TxPackets: readCounterFile(filepath.Join(base, "tx_packets")),
		RxErrors:  readCounterFile(filepath.Join(base, "rx_errors")),
		TxErrors:  readCounterFile(filepath.Join(base, "tx_errors")),
		RxDropped: readCounterFile(filepath.Join(base, "rx_dropped")),
		TxDropped: readCounterFile(filepath.Join(base, "tx_dropped")),
	}, true
}

// readCounterFile is the shared fault-tolerant single-counter read.
func readCounterFile(path string) uint64 {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
