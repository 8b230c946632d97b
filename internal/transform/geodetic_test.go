package transform

import (
	"fmt"
	"math"
	"testing"
)

func TestGeodeticToECEFMagnitude(t *testing.T) {
	// WGS-84 equatorial radius.
	eq := GeodeticToECEF(Geodetic{})
	if mag := norm(eq); math.Abs(mag-6378.137) > 1e-6 {
		t.Errorf("equatorial magnitude = %.6f km, want 6378.137", mag)
	}

	// Polar radius b = a(1-f).
	pole := GeodeticToECEF(Geodetic{Lat: 90})
	if mag := norm(pole); math.Abs(mag-6356.7523142) > 1e-6 {
		t.Errorf("polar magnitude = %.7f km, want 6356.7523142", mag)
	}
}

func TestGeodeticToECEFHeight(t *testing.T) {
	m0 := norm(GeodeticToECEF(Geodetic{}))
	m100 := norm(GeodeticToECEF(Geodetic{Height: 100}))
	if diff := (m100 - m0) * 1000; math.Abs(diff-100.0) > 1e-6 {
		t.Errorf("height difference = %.6f m, want 100 m", diff)
	}
}

func TestECEFToGeodeticRoundTrip(t *testing.T) {
	lats := []float64{-89.9, -60, -33.3, 0, 0.001, 45, 51.6, 80, 89.9}
	lons := []float64{-179.9, -90, 0, 12.5, 90, 179.9}
	heights := []float64{-100, 0, 400_000, 35_786_000}

	for _, lat := range lats {
		for _, lon := range lons {
			for _, h := range heights {
				name := fmt.Sprintf("%g/%g/%g", lat, lon, h)
				in := Geodetic{Lat: lat, Lon: lon, Height: h}
				r := GeodeticToECEF(in)
				got := ECEFToGeodetic(NewPV(FrameECEF, r, [3]float64{}))

				if math.Abs(got.Lat-lat) > 1e-9 {
					t.Errorf("%s: lat = %.12f", name, got.Lat)
				}
				if math.Abs(got.Lon-lon) > 1e-9 {
					t.Errorf("%s: lon = %.12f", name, got.Lon)
				}
				// 1 mm.
				if math.Abs(got.Height-h) > 1e-3 {
					t.Errorf("%s: height = %.6f m", name, got.Height)
				}
			}
		}
	}
}

func TestECEFToGeodeticPoles(t *testing.T) {
	tests := []struct {
		name    string
		z       float64
		wantLat float64
	}{
		{"north", 6356.7523142 + 400, 90},
		{"south", -(6356.7523142 + 400), -90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ECEFToGeodetic(PV{Frame: FrameECEF, Z: tt.z})
			if math.IsNaN(g.Lat) || math.IsNaN(g.Lon) || math.IsNaN(g.Height) {
				t.Fatalf("NaN at pole: %+v", g)
			}
			if math.Abs(g.Lat-tt.wantLat) > 1e-12 {
				t.Errorf("lat = %v, want %v", g.Lat, tt.wantLat)
			}
			if g.Lon != 0 {
				t.Errorf("lon = %v, want 0", g.Lon)
			}
			if math.Abs(g.Height-400_000) > 1e-3 {
				t.Errorf("height = %.6f m, want 400000", g.Height)
			}
		})
	}
}

func TestECEFToGeodeticSurface(t *testing.T) {
	g := ECEFToGeodetic(PV{Frame: FrameECEF, X: WGS84A})
	if math.Abs(g.Height) > 1e-6 || g.Lat != 0 || g.Lon != 0 {
		t.Errorf("surface point = %+v, want zero lat/lon/height", g)
	}
}

func TestECEFToGeodeticSpeed(t *testing.T) {
	g := ECEFToGeodetic(PV{Frame: FrameECEF, X: 6778, VX: 3, VY: 4})
	if math.Abs(g.Speed-5) > 1e-12 {
		t.Errorf("speed = %v, want 5", g.Speed)
	}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
