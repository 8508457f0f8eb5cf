package scene

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

// LoadWallsGeoJSON reads wall segments from a GeoJSON FeatureCollection,
// Feature or bare geometry. Every consecutive pair of vertices in a line or
// polygon ring becomes one wall; points are ignored.
func LoadWallsGeoJSON(path string) ([]socialforce.Wall, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil {
		geoms = append(geoms, f.Geometry)
	} else {
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("walls %s: %w", path, err)
		}
		geoms = append(geoms, g.Geometry())
	}

	var walls []socialforce.Wall
	for _, g := range geoms {
		walls = appendSegments(walls, g)
	}
	return walls, nil
}

func appendSegments(walls []socialforce.Wall, g orb.Geometry) []socialforce.Wall {
	switch g := g.(type) {
	case orb.LineString:
		return appendPolyline(walls, g)
	case orb.MultiLineString:
		for _, ls := range g {
			walls = appendPolyline(walls, ls)
		}
	case orb.Ring:
		return appendPolyline(walls, orb.LineString(g))
	case orb.Polygon:
		for _, r := range g {
			walls = appendPolyline(walls, orb.LineString(r))
		}
	case orb.MultiPolygon:
		for _, p := range g {
			walls = appendSegments(walls, p)
		}
	case orb.Collection:
		for _, c := range g {
			walls = appendSegments(walls, c)
		}
	case orb.Bound:
		walls = appendSegments(walls, g.ToPolygon())
	}
	return walls
}

func appendPolyline(walls []socialforce.Wall, ls orb.LineString) []socialforce.Wall {
	for i := 1; i < len(ls); i++ {
		walls = append(walls, socialforce.NewWall(ls[i-1][0], ls[i-1][1], ls[i][0], ls[i][1]))
	}
	return walls
}

// ToGeoJSON converts walls to a FeatureCollection of two-point LineStrings.
func ToGeoJSON(walls []socialforce.Wall) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, w := range walls {
		s, e := w.Start(), w.End()
		f := geojson.NewFeature(orb.LineString{{s.X, s.Y}, {e.X, e.Y}})
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc
}
