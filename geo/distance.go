// Package geo provides latitude/longitude utilities: great-circle distances,
// bounding boxes and base32 geohash encoding.
package geo

import (
	"math"
)

const (
	// EarthRadiusKm is the Earth's mean radius in kilometers.
	EarthRadiusKm = 6371.0087714
	// KmPerDegree is the length of one degree of arc on the mean radius.
	KmPerDegree = EarthRadiusKm * math.Pi / 180
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsValid checks if the point has valid coordinates.
func (p Point) IsValid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// HaversineDistance calculates the great-circle distance between two points
// using the Haversine formula. Returns distance in kilometers.
func HaversineDistance(p1, p2 Point) float64 {
	lat1 := degreesToRadians(p1.Lat)
	lat2 := degreesToRadians(p2.Lat)
	deltaLat := degreesToRadians(p2.Lat - p1.Lat)
	deltaLng := degreesToRadians(p2.Lng - p1.Lng)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// KmToDegrees converts a distance on the Earth's surface to degrees of arc.
func KmToDegrees(km float64) float64 {
	return km / KmPerDegree
}

// DegreesToKm converts degrees of arc to a distance on the Earth's surface.
func DegreesToKm(degrees float64) float64 {
	return degrees * KmPerDegree
}

// BoundingBox is a latitude/longitude aligned box.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// BoundingBoxFromPoint creates a bounding box around a point, clamped to the
// valid coordinate range.
func BoundingBoxFromPoint(center Point, radiusKm float64) BoundingBox {
	// Approximate degrees per km at different latitudes
	latDelta := radiusKm / 111.0 // ~111 km per degree of latitude
	cosLat := math.Cos(degreesToRadians(center.Lat))
	lngDelta := 180.0
	if cosLat > 1e-9 {
		lngDelta = math.Min(radiusKm/(111.0*cosLat), 180)
	}

	return BoundingBox{
		MinLat: math.Max(center.Lat-latDelta, -90),
		MaxLat: math.Min(center.Lat+latDelta, 90),
		MinLng: math.Max(center.Lng-lngDelta, -180),
		MaxLng: math.Min(center.Lng+lngDelta, 180),
	}
}

// Contains checks if a point is within the bounding box.
func (bb BoundingBox) Contains(p Point) bool {
	return p.Lat >= bb.MinLat && p.Lat <= bb.MaxLat &&
		p.Lng >= bb.MinLng && p.Lng <= bb.MaxLng
}

// Center returns the center point of the bounding box.
func (bb BoundingBox) Center() Point {
	return Point{
		Lat: (bb.MinLat + bb.MaxLat) / 2,
		Lng: (bb.MinLng + bb.MaxLng) / 2,
	}
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
