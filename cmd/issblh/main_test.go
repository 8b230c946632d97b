package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootText(t *testing.T) {
	out, err := run(t, "--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv", "20210527220000")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "2021-05-27 22:00:00.000000000 JST", lines[0])
	assert.Equal(t, "2021-05-27 13:00:00.000000000 UTC", lines[1])
	assert.Contains(t, out, "TLE: 1 25544U 98067A   21147.51562500")
	assert.Contains(t, out, "WGS84(BLH):")
	assert.Contains(t, out, "HEIGHT = ")
}

func TestRootJSONWithObserver(t *testing.T) {
	out, err := run(t, "--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv",
		"--format", "json", "--observer", "35.6812,139.7671,40", "2021-05-27T13:00:00Z")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Contains(t, report, "look")
	assert.Equal(t, "wgs84", report["gravity"])

	eop := report["eop"].(map[string]any)
	assert.InDelta(t, -0.1789427-0.0002514*13/24, eop["dut1_s"].(float64), 1e-9)
}

func TestRootGravityFlag(t *testing.T) {
	out, err := run(t, "--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv",
		"--gravity", "wgs72", "--format", "yaml", "2021-05-27T13:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "gravity: wgs72\n")
}

func TestRootErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad time", []string{"--tle", "testdata/iss.tle", "not-a-time"}},
		{"missing tle file", []string{"--tle", "testdata/missing.tle", "2021-05-27T13:00:00Z"}},
		{"eop out of range", []string{"--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv", "2021-07-01T00:00:00Z"}},
		{"bad observer", []string{"--tle", "testdata/iss.tle", "--observer", "x,y", "2021-05-27T13:00:00Z"}},
		{"too many args", []string{"2021-05-27T13:00:00Z", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestEphemerisCmd(t *testing.T) {
	out, err := run(t, "ephemeris", "--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv",
		"--start", "2021-05-27T13:00:00Z", "--step", "2m", "--count", "4", "--format", "json")
	require.NoError(t, err)

	var s struct {
		NORADID int              `json:"norad_id"`
		Fixes   []map[string]any `json:"fixes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 25544, s.NORADID)
	require.Len(t, s.Fixes, 4)
	assert.Equal(t, "2021-05-27T13:06:00Z", s.Fixes[3]["utc"])

	_, err = run(t, "ephemeris", "--tle", "testdata/iss.tle", "--step", "0s")
	assert.Error(t, err)
}

func TestInitConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issblh.yaml")
	out, err := run(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gravity: wgs84")

	// The written file loads back through --config.
	out, err = run(t, "--config", path, "--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv", "2021-05-27T13:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "WGS84(BLH):")
}

func TestPassesCmd(t *testing.T) {
	out, err := run(t, "passes", "--tle", "testdata/iss.tle", "--eop", "testdata/eop.csv",
		"--observer", "35.6812,139.7671,40", "--start", "2021-05-27T00:00:00Z",
		"--horizon", "24h", "--min-elevation", "0", "--format", "json")
	require.NoError(t, err)

	var report struct {
		Passes []map[string]any `json:"passes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.Passes)

	_, err = run(t, "passes", "--tle", "testdata/iss.tle")
	assert.Error(t, err, "--observer is required")
}
