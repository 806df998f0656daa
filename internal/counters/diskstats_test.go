package counters

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDiskstats(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diskstats")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiskSourceRead(t *testing.T) {
	path := writeDiskstats(t,
		"   8       0 sda 100 5 2000 300 50 2 800 150 3 400 0\n"+
			" 259       0 nvme0n1 10 0 80 5 20 0 160 9 0 14 0\n")
	src, err := NewDiskSource(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	got := src.Read()
	if len(got) != 2 {
		t.Fatalf("parsed %d devices, want 2", len(got))
	}
	sda := got[0]
	if sda.Device != "sda" {
		t.Fatalf("device = %q, want sda", sda.Device)
	}
	if sda.ReadIOs != 100 || sda.SectorsRead != 2000 || sda.ReadTimeMS != 300 {
		t.Errorf("read counters = %d/%d/%d, want 100/2000/300",
			sda.ReadIOs, sda.SectorsRead, sda.ReadTimeMS)
	}
	if sda.WriteIOs != 50 || sda.SectorsWritten != 800 || sda.WriteTimeMS != 150 {
		t.Errorf("write counters = %d/%d/%d, want 50/800/150",
			sda.WriteIOs, sda.SectorsWritten, sda.WriteTimeMS)
	}
	if sda.IOsInProgress != 3 || sda.IOTimeMS != 400 {
		t.Errorf("queue/io time = %d/%d, want 3/400", sda.IOsInProgress, sda.IOTimeMS)
	}
}

func TestDiskSourceSkipsMalformedLines(t *testing.T) {
	path := writeDiskstats(t,
		"   8       0 sda 100 5 2000 300 50 2 800 150 3 400 0\n"+
			"   8       1 sda1 too few\n"+
			"   8       2 sdb 1 2 notanumber 4 5 6 7 8 9 10 11\n"+
			"\n")
	src, err := NewDiskSource(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	got := src.Read()
	if len(got) != 1 {
		t.Fatalf("parsed %d devices, want exactly 1", len(got))
	}
	if got[0].Device != "sda" {
		t.Errorf("device = %q, want sda", got[0].Device)
	}
}

func TestNewDiskSourceMissingFile(t *testing.T) {
	if _, err := NewDiskSource(filepath.Join(t.TempDir(), "nope"), discardLogger()); err == nil {
		t.Fatal("expected error for missing statistics source")
	}
}
