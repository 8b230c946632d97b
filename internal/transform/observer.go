package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseObserver reads "lat,lon" or "lat,lon,height" with degrees and meters.
func ParseObserver(s string) (Geodetic, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return Geodetic{}, fmt.Errorf("observer %q: want lat,lon[,height_m]", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Geodetic{}, fmt.Errorf("observer %q: %w", s, err)
		}
		vals[i] = v
	}
	g := Geodetic{Lat: vals[0], Lon: vals[1], Height: vals[2]}
	if g.Lat < -90 || g.Lat > 90 {
		return Geodetic{}, fmt.Errorf("observer %q: latitude outside [-90,90]", s)
	}
	if g.Lon < -180 || g.Lon > 360 {
		return Geodetic{}, fmt.Errorf("observer %q: longitude outside [-180,360]", s)
	}
	return g, nil
}
