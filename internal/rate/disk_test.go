package rate

import (
	"math"
	"testing"
	"time"

	"github.com/sjyi/dgxtop/internal/model"
)

func TestAwaitLatency(t *testing.T) {
	tests := []struct {
		name                  string
		readIOs, readTimeMS   uint64
		writeIOs, writeTimeMS uint64
		wantRead, wantWrite   float64
		wantTotal             float64
	}{
		{
			// Combined await is total time over total IOs, not the
			// mean of the per-direction averages.
			name:    "reads only",
			readIOs: 10, readTimeMS: 50,
			wantRead: 5.0, wantWrite: 0.0, wantTotal: 5.0,
		},
		{
			name:    "both directions",
			readIOs: 10, readTimeMS: 50,
			writeIOs: 30, writeTimeMS: 30,
			wantRead: 5.0, wantWrite: 1.0, wantTotal: 2.0,
		},
		{
			name:      "idle device",
			wantRead:  0,
			wantWrite: 0,
			wantTotal: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := model.DiskCounters{Device: "sda"}
			cur := model.DiskCounters{
				Device:      "sda",
				ReadIOs:     tt.readIOs,
				ReadTimeMS:  tt.readTimeMS,
				WriteIOs:    tt.writeIOs,
				WriteTimeMS: tt.writeTimeMS,
			}
			read, write, total := await(cur, prev)
			if read != tt.wantRead || write != tt.wantWrite || total != tt.wantTotal {
				t.Errorf("await() = %v/%v/%v, want %v/%v/%v",
					read, write, total, tt.wantRead, tt.wantWrite, tt.wantTotal)
			}
		})
	}
}

func TestDiskEngineEndToEnd(t *testing.T) {
	e := NewDiskEngine()
	now := time.Unix(2000, 0)
	e.Now = func() time.Time { return now }

	e.Compute([]model.DiskCounters{{Device: "nvme0n1", SectorsRead: 1000}})

	// 4 sectors = 2048 bytes over 2 seconds.
	now = now.Add(2 * time.Second)
	got := e.Compute([]model.DiskCounters{{Device: "nvme0n1", SectorsRead: 1004}})

	r, ok := got["nvme0n1"]
	if !ok {
		t.Fatal("nvme0n1 missing from result")
	}
	if math.Abs(r.ReadBytesPerSec-1024.0) > 1e-9 {
		t.Errorf("ReadBytesPerSec = %v, want 1024.0", r.ReadBytesPerSec)
	}
	if r.WriteBytesPerSec != 0 {
		t.Errorf("WriteBytesPerSec = %v, want 0", r.WriteBytesPerSec)
	}
}

func TestDiskRateFields(t *testing.T) {
	e := NewDiskEngine()
	now := time.Unix(2000, 0)
	e.Now = func() time.Time { return now }

	e.Compute([]model.DiskCounters{{Device: "sda"}})

	now = now.Add(time.Second)
	got := e.Compute([]model.DiskCounters{{
		Device:         "sda",
		ReadIOs:        10,
		SectorsRead:    100,
		ReadTimeMS:     40,
		WriteIOs:       20,
		SectorsWritten: 200,
		WriteTimeMS:    20,
		IOsInProgress:  3,
	}})

	r := got["sda"]
	if r.ReadBytesPerSec != 100*512 {
		t.Errorf("ReadBytesPerSec = %v, want %v", r.ReadBytesPerSec, 100*512)
	}
	if r.WriteBytesPerSec != 200*512 {
		t.Errorf("WriteBytesPerSec = %v, want %v", r.WriteBytesPerSec, 200*512)
	}
	if r.ReadIOsPerSec != 10 || r.WriteIOsPerSec != 20 {
		t.Errorf("IOPS = %v/%v, want 10/20", r.ReadIOsPerSec, r.WriteIOsPerSec)
	}
	if r.AwaitReadMS != 4.0 || r.AwaitWriteMS != 1.0 || r.AwaitMS != 2.0 {
		t.Errorf("await = %v/%v/%v, want 4/1/2", r.AwaitReadMS, r.AwaitWriteMS, r.AwaitMS)
	}
	if r.QueueDepth != 3 {
		t.Errorf("QueueDepth = %v, want 3", r.QueueDepth)
	}
}

func TestNetEngine(t *testing.T) {
	e := NewNetEngine()
	now := time.Unix(3000, 0)
	e.Now = func() time.Time { return now }

	e.Compute([]model.NetCounters{{Interface: "enp1s0f1np1", RxBytes: 1 << 20}})

	now = now.Add(2 * time.Second)
	got := e.Compute([]model.NetCounters{{
		Interface: "enp1s0f1np1",
		RxBytes:   1<<20 + 2048,
		TxBytes:   512,
		RxPackets: 10,
		RxErrors:  7,
	}})

	r := got["enp1s0f1np1"]
	if r.RxBytesPerSec != 1024 {
		t.Errorf("RxBytesPerSec = %v, want 1024", r.RxBytesPerSec)
	}
	if r.TxBytesPerSec != 256 {
		t.Errorf("TxBytesPerSec = %v, want 256", r.TxBytesPerSec)
	}
	if r.RxPacketsPerSec != 5 {
		t.Errorf("RxPacketsPerSec = %v, want 5", r.RxPacketsPerSec)
	}
	if r.RxErrors != 7 {
		t.Errorf("RxErrors = %v, want raw total 7", r.RxErrors)
	}
}
