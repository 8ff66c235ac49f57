package geo

import (
	"strings"
)

const (
	// Base32 is the geohash alphabet. It is in ascending byte order, so
	// appending symbols in alphabet order yields sorted child hashes.
	Base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

	// MaxPrecision is the longest geohash this package produces.
	MaxPrecision = 24

	bitsPerChar = 5
)

// Geohash precision to approximate dimensions.
// Precision 1: ~5000km x 5000km
// Precision 2: ~1250km x 625km
// Precision 3: ~156km x 156km
// Precision 4: ~39km x 19.5km
// Precision 5: ~4.9km x 4.9km
// Precision 6: ~1.2km x 0.6km
// Precision 7: ~153m x 153m
// Precision 8: ~38m x 19m
// Precision 9: ~4.8m x 4.8m

var (
	hashLenToLatHeight [MaxPrecision + 1]float64
	hashLenToLonWidth  [MaxPrecision + 1]float64
)

func init() {
	hashLenToLatHeight[0] = 90 * 2
	hashLenToLonWidth[0] = 180 * 2
	even := false
	for i := 1; i <= MaxPrecision; i++ {
		// odd lengths add 3 longitude bits and 2 latitude bits, even ones the reverse
		if even {
			hashLenToLatHeight[i] = hashLenToLatHeight[i-1] / 8
			hashLenToLonWidth[i] = hashLenToLonWidth[i-1] / 4
		} else {
			hashLenToLatHeight[i] = hashLenToLatHeight[i-1] / 4
			hashLenToLonWidth[i] = hashLenToLonWidth[i-1] / 8
		}
		even = !even
	}
}

// CellSize returns the longitude width and latitude height, in degrees, of a
// geohash cell of the given length.
func CellSize(hashLen int) (lonWidth, latHeight float64) {
	if hashLen < 0 {
		hashLen = 0
	}
	if hashLen > MaxPrecision {
		hashLen = MaxPrecision
	}
	return hashLenToLonWidth[hashLen], hashLenToLatHeight[hashLen]
}

// HashLenForWidthHeight returns the shortest geohash length whose cells are
// smaller than both errors, in degrees. It returns MaxPrecision when no
// length is fine enough.
func HashLenForWidthHeight(lonErr, latErr float64) int {
	for hashLen := 1; hashLen < MaxPrecision; hashLen++ {
		if hashLenToLatHeight[hashLen] < latErr && hashLenToLonWidth[hashLen] < lonErr {
			return hashLen
		}
	}
	return MaxPrecision
}

// Encode encodes a point to a geohash with the specified precision.
func Encode(p Point, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	var hash strings.Builder
	hash.Grow(precision)

	bit := 0
	ch := 0
	isLng := true

	for hash.Len() < precision {
		if isLng {
			mid := (minLng + maxLng) / 2
			if p.Lng >= mid {
				ch |= 1 << (4 - bit)
				minLng = mid
			} else {
				maxLng = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if p.Lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}

		isLng = !isLng
		bit++

		if bit == bitsPerChar {
			hash.WriteByte(Base32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// Decode decodes a geohash to a point (center of the cell).
func Decode(hash string) Point {
	bbox := DecodeBounds(hash)
	return bbox.Center()
}

// DecodeBounds decodes a geohash to its bounding box. Symbols outside the
// alphabet are skipped; use Valid to reject them first.
func DecodeBounds(hash string) BoundingBox {
	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	isLng := true

	for i := 0; i < len(hash); i++ {
		idx := strings.IndexByte(Base32, lower(hash[i]))
		if idx == -1 {
			continue
		}

		for bit := 4; bit >= 0; bit-- {
			if isLng {
				mid := (minLng + maxLng) / 2
				if (idx>>bit)&1 == 1 {
					minLng = mid
				} else {
					maxLng = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if (idx>>bit)&1 == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			isLng = !isLng
		}
	}

	return BoundingBox{
		MinLat: minLat,
		MaxLat: maxLat,
		MinLng: minLng,
		MaxLng: maxLng,
	}
}

// SubHashes returns the 32 geohashes one symbol longer than hash, sorted.
func SubHashes(hash string) []string {
	hashes := make([]string, len(Base32))
	for i := 0; i < len(Base32); i++ {
		hashes[i] = hash + Base32[i:i+1]
	}
	return hashes
}

// IsSymbol reports whether c belongs to the (lower case) geohash alphabet.
func IsSymbol(c byte) bool {
	return strings.IndexByte(Base32, c) >= 0
}

// Valid reports whether every symbol of hash is in the geohash alphabet.
func Valid(hash string) bool {
	if len(hash) > MaxPrecision {
		return false
	}
	for i := 0; i < len(hash); i++ {
		if !IsSymbol(hash[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
