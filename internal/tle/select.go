package tle

import (
	"errors"
	"time"
)

// ErrNoElements is returned when there is nothing to select from.
var ErrNoElements = errors.New("no element sets available")

// Select returns the entry whose epoch is the latest one not after at.
// When every epoch is later than at, the earliest entry is returned and
// exact is false so callers can warn about propagating backwards.
func Select(entries []Entry, at time.Time) (entry Entry, exact bool, err error) {
	if len(entries) == 0 {
		return Entry{}, false, ErrNoElements
	}

	bestIdx, earliestIdx := -1, 0
	for i, e := range entries {
		ep := e.Epoch()
		if ep.Before(entries[earliestIdx].Epoch()) {
			earliestIdx = i
		}
		if ep.After(at) {
			continue
		}
		if bestIdx < 0 || ep.After(entries[bestIdx].Epoch()) {
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return entries[earliestIdx], false, nil
	}
	return entries[bestIdx], true, nil
}
