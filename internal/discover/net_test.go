package discover

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

const deviceStatusOutput = `DEVICE          TYPE      STATE         CONNECTION
enp1s0f0        ethernet  connected     Wired1
enP2p1s0f1np1   ethernet  connected     Wired2
wlan0           wifi      connected     (externally)
docker0         bridge    connected     docker0
enp1s0f1        ethernet  disconnected  --
malformed
`

func TestParseDeviceStatus(t *testing.T) {
	got := parseDeviceStatus(deviceStatusOutput)
	// wlan0 is externally managed; enp1s0f1 is not connected. The
	// docker bridge is connected and stays here; the display filter is
	// a separate concern.
	want := []string{"enp1s0f0", "enP2p1s0f1np1", "docker0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseDeviceStatus() = %v, want %v", got, want)
	}
}

func TestParseDeviceStatusEmpty(t *testing.T) {
	if got := parseDeviceStatus(""); got != nil {
		t.Errorf("expected nil for empty output, got %v", got)
	}
	if got := parseDeviceStatus("DEVICE TYPE STATE CONNECTION\n"); got != nil {
		t.Errorf("expected nil for header-only output, got %v", got)
	}
}

func TestConnectedInterfacesCommandFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	run := func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("timed out")
	}
	if got := ConnectedInterfaces(context.Background(), run, logger); got != nil {
		t.Errorf("expected empty set on command failure, got %v", got)
	}
}

func TestDisplayableInterface(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"enp1s0f0", true},
		{"wlan0", true},
		{"lo", false},
		{"virbr0", false},
		{"docker0", false},
		{"br-9f0a", false},
		{"veth12ab", false},
	}
	for _, tt := range tests {
		if got := DisplayableInterface(tt.name); got != tt.want {
			t.Errorf("DisplayableInterface(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSortInterfaces(t *testing.T) {
	names := []string{"ib0", "enp1s0", "wlan0", "eth0", "wlp2s0", "bond0"}
	SortInterfaces(names)
	want := []string{"wlan0", "wlp2s0", "enp1s0", "eth0", "bond0", "ib0"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("SortInterfaces() = %v, want %v", names, want)
	}
}
