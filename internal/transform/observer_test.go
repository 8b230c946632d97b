package transform

import "testing"

func TestParseObserver(t *testing.T) {
	tests := []struct {
		in      string
		want    Geodetic
		wantErr bool
	}{
		{"35.6812,139.7671", Geodetic{Lat: 35.6812, Lon: 139.7671}, false},
		{" -33.9 , 18.4 , 12.5 ", Geodetic{Lat: -33.9, Lon: 18.4, Height: 12.5}, false},
		{"0,0,0", Geodetic{}, false},
		{"35", Geodetic{}, true},
		{"1,2,3,4", Geodetic{}, true},
		{"north,139", Geodetic{}, true},
		{"91,0", Geodetic{}, true},
		{"0,-181", Geodetic{}, true},
	}
	for _, tt := range tests {
		got, err := ParseObserver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseObserver(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseObserver(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
