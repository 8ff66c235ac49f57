// Package fixtures provides test data for unit and integration tests.
package fixtures

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ShapeFixture is a document with a GeoJSON geometry.
type ShapeFixture struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Geometry json.RawMessage `json:"geometry"`
}

// Well-known geometries in lon/lat order.
var (
	BerlinPoint    = json.RawMessage(`{"type":"Point","coordinates":[13.405,52.52]}`)
	PotsdamPoint   = json.RawMessage(`{"type":"Point","coordinates":[13.0645,52.3906]}`)
	ParisPoint     = json.RawMessage(`{"type":"Point","coordinates":[2.3522,48.8566]}`)
	SydneyPoint    = json.RawMessage(`{"type":"Point","coordinates":[151.2093,-33.8688]}`)
	BerlinArea     = json.RawMessage(`{"type":"Polygon","coordinates":[[[13.0,52.3],[13.8,52.3],[13.8,52.7],[13.0,52.7],[13.0,52.3]]]}`)
	BrandenburgBox = json.RawMessage(`{"type":"Polygon","coordinates":[[[11.2,51.3],[14.8,51.3],[14.8,53.6],[11.2,53.6],[11.2,51.3]]]}`)
	TriangleEurope = json.RawMessage(`{"type":"Polygon","coordinates":[[[-5,45],[20,45],[10,58],[-5,45]]]}`)
)

// NewShapeFixture creates a fixture with a random ID.
func NewShapeFixture(name string, geometry json.RawMessage) ShapeFixture {
	return ShapeFixture{
		ID:       uuid.New().String(),
		Name:     name,
		Geometry: geometry,
	}
}

// Cities returns point fixtures for a few cities.
func Cities() []ShapeFixture {
	return []ShapeFixture{
		{ID: "berlin", Name: "Berlin", Geometry: BerlinPoint},
		{ID: "potsdam", Name: "Potsdam", Geometry: PotsdamPoint},
		{ID: "paris", Name: "Paris", Geometry: ParisPoint},
		{ID: "sydney", Name: "Sydney", Geometry: SydneyPoint},
	}
}
