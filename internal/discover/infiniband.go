package discover

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// ibdevLine matches the device listing output, one mapping per line:
// "<ib_device> port <N> ==> <net_interface> (<status>)".
var ibdevLine = regexp.MustCompile(`^(\S+)\s+port\s+\d+\s+==>\s+(\S+)\s+\(\w+\)`)

// IBMapping is a bidirectional InfiniBand device <-> network interface
// lookup. Both directions live in the one map, so m["rocep1s0f1"] gives
// the interface and m["enp1s0f1np1"] gives the device.
type IBMapping map[string]string

// LoadIBMapping runs the device listing command. No command or no
// output simply means no RoCE ports; every interface then takes the
// regular sysfs path.
func LoadIBMapping(ctx context.Context, run Runner, logger *slog.Logger) IBMapping {
	out, err := run(ctx, "ibdev2netdev")
	if err != nil {
		logger.Debug("ib device listing unavailable", "error", err)
		return nil
	}
	return ParseIBMapping(out)
}

// ParseIBMapping builds the bidirectional mapping from the listing
// output. Lines not matching the expected shape are ignored.
func ParseIBMapping(out string) IBMapping {
	m := make(IBMapping)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		match := ibdevLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		device, iface := match[1], match[2]
		m[device] = iface
		m[iface] = device
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// IsRoCE reports whether the interface is backed by an InfiniBand port.
func (m IBMapping) IsRoCE(iface string) bool {
	_, ok := m[iface]
	return ok
}

// Device returns the InfiniBand device behind an interface name.
func (m IBMapping) Device(iface string) string { return m[iface] }
