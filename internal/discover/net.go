package discover

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Runner executes an external command and returns its stdout. Injected
// so tests feed canned output and so a hung command is bounded by the
// context rather than stalling the polling loop.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// CommandRunner returns a Runner backed by exec with a per-invocation
// timeout.
func CommandRunner(timeout time.Duration) Runner {
	return func(ctx context.Context, name string, args ...string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := exec.CommandContext(ctx, name, args...).Output()
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return string(out), err
	}
}

// externallyManaged marks rows whose connection belongs to something
// other than the network manager; those interfaces are not ours to show.
const externallyManaged = "(externally)"

// Loopback and virtual bridge interfaces excluded from display. This
// filter is independent of connectivity: a connected docker bridge is
// still hidden.
var excludedIfacePrefixes = []string{"lo", "virbr", "docker", "br-", "veth"}

// ConnectedInterfaces asks the device status command for interfaces in
// the exact state "connected" whose connection is not externally
// managed. Any command failure means the network domain is empty this
// cycle; the previous engine state survives for the next one.
func ConnectedInterfaces(ctx context.Context, run Runner, logger *slog.Logger) []string {
	out, err := run(ctx, "nmcli", "device", "status")
	if err != nil {
		logger.Warn("device status query failed", "error", err)
		return nil
	}
	return parseDeviceStatus(out)
}

// parseDeviceStatus reads the tabular output: a header row, then rows
// of (device, type, state, connection). Malformed rows are skipped.
func parseDeviceStatus(out string) []string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return nil
	}
	var connected []string
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if fields[2] == "connected" && fields[3] != externallyManaged {
			connected = append(connected, fields[0])
		}
	}
	return connected
}

// DisplayableInterface reports whether an interface belongs on screen.
func DisplayableInterface(name string) bool {
	return !hasAnyPrefix(name, excludedIfacePrefixes)
}

// SortInterfaces orders names for display: wireless first, ethernet
// second, everything else after, alphabetical within a tier.
func SortInterfaces(names []string) {
	sort.Slice(names, func(i, j int) bool {
		pi, pj := ifacePriority(names[i]), ifacePriority(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
}

func ifacePriority(name string) int {
	switch {
	case strings.HasPrefix(name, "wl"):
		return 0
	case hasAnyPrefix(name, []string{"en", "eth", "em"}):
		return 1
	default:
		return 2
	}
}
