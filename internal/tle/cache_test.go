package tle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCacheWriteAndPrune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, 2)

	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < 4; i++ {
		if _, err := c.Write([]byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	files, err := c.listFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d cached files after prune, want 2", len(files))
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(data) != "d" {
		t.Errorf("latest data = %q, want %q", data, "d")
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("latest ts = %v, want %v", ts, base.Add(3*time.Hour))
	}
}

func TestDiskCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "elements_abc.tle", "elements_.tle"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := NewDiskCache(dir, 5)
	if _, _, err := c.LoadLatest(); err == nil {
		t.Fatal("expected error when no cache files are present")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iss.tle")
	body := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadFile(path, testLogger)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(ds.Entries) != 1 || ds.Entries[0].Name != "ISS (ZARYA)" {
		t.Errorf("entries = %+v", ds.Entries)
	}
	if ds.Source != path {
		t.Errorf("Source = %q, want %q", ds.Source, path)
	}
}
