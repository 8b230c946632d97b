package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseStats reports how a catalog parse went.
type ParseStats struct {
	Parsed  int
	Skipped int
}

// Parse reads a catalog of element sets from r. Both the 2-line form and the
// 3-line form with a name line (optionally prefixed "0 ") are accepted and
// may be mixed. Malformed sets are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, ParseStats, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ParseStats{}, fmt.Errorf("reading TLE data: %w", err)
	}

	var (
		entries []Entry
		stats   ParseStats
		name    string
	)
	for i := 0; i < len(lines); {
		line := lines[i]
		if !strings.HasPrefix(line, "1 ") {
			if name != "" {
				logger.Warn("skipping name line without elements", "name", name)
				stats.Skipped++
			}
			name = strings.TrimSpace(strings.TrimPrefix(line, "0 "))
			i++
			continue
		}
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "2 ") {
			logger.Warn("skipping line 1 without line 2", "line_index", i, "name", name)
			stats.Skipped++
			name = ""
			i++
			continue
		}

		line1, line2 := line, lines[i+1]
		i += 2
		el, err := ParseElements(line1, line2)
		if err != nil {
			logger.Warn("skipping malformed TLE entry", "name", name, "error", err)
			stats.Skipped++
			name = ""
			continue
		}
		entries = append(entries, Entry{
			NORADID:  el.SatNum,
			Name:     name,
			Line1:    line1,
			Line2:    line2,
			Elements: el,
		})
		stats.Parsed++
		name = ""
	}

	return entries, stats, nil
}
