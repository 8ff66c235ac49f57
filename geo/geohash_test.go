package geo

import (
	"math"
	"sort"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		point     Point
		precision int
		want      string
	}{
		{"jutland", Point{Lat: 57.64911, Lng: 10.40744}, 11, "u4pruydqqvj"},
		{"spain", Point{Lat: 42.6, Lng: -5.6}, 5, "ezs42"},
		{"precision clamped low", Point{Lat: 42.6, Lng: -5.6}, 0, "e"},
		{"origin", Point{Lat: 0, Lng: 0}, 1, "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.point, tt.precision); got != tt.want {
				t.Errorf("Encode(%v, %d) = %s, want %s", tt.point, tt.precision, got, tt.want)
			}
		})
	}
}

func TestDecodeBounds_ContainsEncodedPoint(t *testing.T) {
	points := []Point{
		{Lat: 37.7749, Lng: -122.4194},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0, Lng: 0},
		{Lat: 89.9, Lng: 179.9},
	}

	for _, p := range points {
		for precision := 1; precision <= 12; precision++ {
			bbox := DecodeBounds(Encode(p, precision))
			if !bbox.Contains(p) {
				t.Errorf("bounds %+v of precision %d do not contain %v", bbox, precision, p)
			}
		}
	}
}

func TestDecodeBounds_MatchesCellSize(t *testing.T) {
	for hashLen := 1; hashLen <= 10; hashLen++ {
		hash := Encode(Point{Lat: 12.5, Lng: 45.25}, hashLen)
		bbox := DecodeBounds(hash)
		lonWidth, latHeight := CellSize(hashLen)

		if math.Abs((bbox.MaxLng-bbox.MinLng)-lonWidth) > 1e-9 {
			t.Errorf("len %d: width %v, want %v", hashLen, bbox.MaxLng-bbox.MinLng, lonWidth)
		}
		if math.Abs((bbox.MaxLat-bbox.MinLat)-latHeight) > 1e-9 {
			t.Errorf("len %d: height %v, want %v", hashLen, bbox.MaxLat-bbox.MinLat, latHeight)
		}
	}
}

func TestCellSize(t *testing.T) {
	tests := []struct {
		hashLen   int
		wantWidth float64
		wantH     float64
	}{
		{0, 360, 180},
		{1, 45, 45},
		{2, 11.25, 5.625},
		{3, 1.40625, 1.40625},
	}

	for _, tt := range tests {
		w, h := CellSize(tt.hashLen)
		if w != tt.wantWidth || h != tt.wantH {
			t.Errorf("CellSize(%d) = (%v, %v), want (%v, %v)", tt.hashLen, w, h, tt.wantWidth, tt.wantH)
		}
	}
}

func TestHashLenForWidthHeight(t *testing.T) {
	tests := []struct {
		name string
		err  float64
		want int
	}{
		{"whole world", 1000, 1},
		{"just above level one", 46, 1},
		{"level two", 12, 2},
		{"level three", 1.5, 3},
		{"tiny", 1e-12, MaxPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashLenForWidthHeight(tt.err, tt.err); got != tt.want {
				t.Errorf("HashLenForWidthHeight(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHashLenForWidthHeight_Monotonic(t *testing.T) {
	prev := 0
	for d := 500.0; d > 1e-7; d /= 3 {
		got := HashLenForWidthHeight(d, d)
		if got < prev {
			t.Fatalf("length decreased from %d to %d at %v", prev, got, d)
		}
		prev = got
	}
}

func TestSubHashes(t *testing.T) {
	subs := SubHashes("ez")

	if len(subs) != 32 {
		t.Fatalf("SubHashes returned %d hashes, want 32", len(subs))
	}
	if !sort.StringsAreSorted(subs) {
		t.Error("SubHashes should be sorted")
	}
	for _, s := range subs {
		if len(s) != 3 || s[:2] != "ez" {
			t.Errorf("unexpected sub hash %q", s)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		hash string
		want bool
	}{
		{"", true},
		{"u4pruydqqvj", true},
		{"ab", false}, // 'a' is not in the alphabet
		{"EZS", false},
		{"0123456789bcdefghjkmnpqrs", false}, // longer than MaxPrecision
	}

	for _, tt := range tests {
		if got := Valid(tt.hash); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.hash, got, tt.want)
		}
	}
}
