package prefixtree

import (
	"strings"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/geo"
	"github.com/cobrun/geoprefix/spatial"
)

// Grid types accepted by NewGridFromConfig.
const (
	TypeQuad    = "quad"
	TypeGeohash = "geohash"
)

// DefaultMaxDistErrKm is the precision used for geographic grids when
// neither MaxLevels nor MaxDistErrKm is set.
const DefaultMaxDistErrKm = 0.001

// GridConfig describes a grid.
type GridConfig struct {
	Type string
	// MaxLevels wins over MaxDistErrKm when positive.
	MaxLevels int
	// MaxDistErrKm is the finest precision needed, in kilometers.
	MaxDistErrKm float64
	// Bounds defaults to GeoWorldBounds when empty.
	Bounds spatial.Rectangle
}

// IsGeo reports whether the grid covers the longitude/latitude world.
func (c GridConfig) IsGeo() bool {
	return c.Bounds == GeoWorldBounds || c.Bounds == (spatial.Rectangle{})
}

// NewGridFromConfig builds a grid. When MaxLevels is not set on a geographic
// grid it is derived from MaxDistErrKm; geohash adds one level on top of
// that. Non geographic quad trees default to QuadDefaultMaxLevels.
func NewGridFromConfig(cfg GridConfig) (Grid, error) {
	bounds := cfg.Bounds
	if bounds == (spatial.Rectangle{}) {
		bounds = GeoWorldBounds
	}

	switch strings.ToLower(cfg.Type) {
	case TypeQuad, "":
		levels := cfg.MaxLevels
		if levels <= 0 {
			levels = QuadDefaultMaxLevels
			if cfg.IsGeo() {
				probe, err := NewQuadPrefixTree(bounds, QuadMaxLevelsPossible)
				if err != nil {
					return nil, err
				}
				levels = probe.LevelForDistance(maxDistErrDegrees(cfg))
			}
		}
		return NewQuadPrefixTree(bounds, levels)

	case TypeGeohash:
		levels := cfg.MaxLevels
		if levels <= 0 {
			probe, err := NewGeohashPrefixTree(bounds, GeohashMaxLevelsPossible)
			if err != nil {
				return nil, err
			}
			levels = min(probe.LevelForDistance(maxDistErrDegrees(cfg))+1, GeohashMaxLevelsPossible)
		}
		return NewGeohashPrefixTree(bounds, levels)

	default:
		return nil, errors.InvalidConfig("unknown grid type %q", cfg.Type)
	}
}

func maxDistErrDegrees(cfg GridConfig) float64 {
	km := cfg.MaxDistErrKm
	if km <= 0 {
		km = DefaultMaxDistErrKm
	}
	return geo.KmToDegrees(km)
}
