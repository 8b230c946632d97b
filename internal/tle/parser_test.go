package tle

import (
	"strings"
	"testing"
	"time"
)

const (
	issEarlyLine1 = "1 25544U 98067A   21146.20000000  .00001264  00000-0  31275-4 0  9991"
	issEarlyLine2 = "2 25544  51.6437 100.8600 0003410  18.1000  80.2000 15.48944000285326"
	issLateLine1  = "1 25544U 98067A   21148.50000000  .00001264  00000-0  31275-4 0  9996"
	issLateLine2  = "2 25544  51.6434  89.4297 0003399  24.5830 115.8922 15.48954520285679"
)

func TestParseMixedCatalog(t *testing.T) {
	catalog := strings.Join([]string{
		"ISS (ZARYA)",
		issLine1,
		issLine2,
		vanguardLine1, // two-line form, no name
		vanguardLine2,
		"0 ISS (ZARYA)",
		issLateLine1,
		issLateLine2,
	}, "\r\n")

	entries, stats, err := Parse(strings.NewReader(catalog), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.Parsed != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 3 parsed, 0 skipped", stats)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	want := []struct {
		id   int
		name string
	}{
		{25544, "ISS (ZARYA)"},
		{5, ""},
		{25544, "ISS (ZARYA)"},
	}
	for i, w := range want {
		if entries[i].NORADID != w.id || entries[i].Name != w.name {
			t.Errorf("entry %d = (%d, %q), want (%d, %q)", i, entries[i].NORADID, entries[i].Name, w.id, w.name)
		}
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	catalog := strings.Join([]string{
		"BROKEN CHECKSUM",
		issLine1[:68] + "0",
		issLine2,
		"ORPHAN LINE ONE",
		issEarlyLine1,
		"GOOD",
		vanguardLine1,
		vanguardLine2,
	}, "\n")

	entries, stats, err := Parse(strings.NewReader(catalog), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "GOOD" {
		t.Fatalf("entries = %+v, want only GOOD", entries)
	}
	if stats.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", stats.Skipped)
	}
}

func TestLoadEmptyCatalog(t *testing.T) {
	_, err := Load([]byte("just a name\n"), "inline", time.Now(), testLogger)
	if err == nil {
		t.Fatal("expected error for catalog with no element sets")
	}
}

func TestNewDatasetEpochRange(t *testing.T) {
	data := strings.Join([]string{issLine1, issLine2, issEarlyLine1, issEarlyLine2, issLateLine1, issLateLine2}, "\n")
	ds, err := Load([]byte(data), "inline", time.Now(), testLogger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ds.EpochRange.Min; got.YearDay() != 146 {
		t.Errorf("EpochRange.Min = %v, want day 146", got)
	}
	if got := ds.EpochRange.Max; got.YearDay() != 148 {
		t.Errorf("EpochRange.Max = %v, want day 148", got)
	}
	if n := len(ds.BySatellite(25544)); n != 3 {
		t.Errorf("BySatellite(25544) = %d entries, want 3", n)
	}
	if n := len(ds.BySatellite(5)); n != 0 {
		t.Errorf("BySatellite(5) = %d entries, want 0", n)
	}
}
