// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	pgeojson "github.com/paulmach/go.geojson"
	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

var (
	// ErrInvalidBounds is returned for bounding boxes that are not
	// [minLon, minLat, maxLon, maxLat]
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrInvalidOperation is returned for unknown spatial predicates
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupportedSelectorType is returned if a region cannot be built
	// from a value
	ErrUnsupportedSelectorType = errors.New("unsupported selector type")

	// ErrNoCoordinates is returned if a bounding box is requested for a
	// dataset without any stop coordinates
	ErrNoCoordinates = errors.New("no coordinates")
)

// Predicate is a spatial test between a region and a line
type Predicate string

const (
	// Within holds if the line lies completely inside the region
	Within Predicate = "within"
	// Intersects holds if the line and the region share at least one point
	Intersects Predicate = "intersects"
)

// ParsePredicate returns the predicate named s
func ParsePredicate(s string) (Predicate, error) {
	switch p := Predicate(strings.ToLower(strings.TrimSpace(s))); p {
	case Within, Intersects:
		return p, nil
	}
	return "", fmt.Errorf("%w: %s not supported", ErrInvalidOperation, s)
}

// Bounds is a bounding box [minLon, minLat, maxLon, maxLat]
type Bounds [4]float64

// Rect returns b as a rectangle
func (b Bounds) Rect() geometry.Rect {
	return geometry.Rect{
		Min: geometry.Point{X: b[0], Y: b[1]},
		Max: geometry.Point{X: b[2], Y: b[3]},
	}
}

// Region is an area shapes are tested against
type Region struct {
	obj geojson.Object
}

// NewRegion builds a region from a bounding box ([]float64 or Bounds), a
// tidwall rectangle, polygon or GeoJSON object, or a parsed GeoJSON
// geometry, feature or feature collection.
func NewRegion(v interface{}) (*Region, error) {
	switch g := v.(type) {
	case *Region:
		return g, nil
	case []float64:
		return BoundsRegion(g)
	case Bounds:
		return BoundsRegion(g[:])
	case geometry.Rect:
		return &Region{obj: geojson.NewRect(g)}, nil
	case *geometry.Poly:
		return &Region{obj: geojson.NewPolygon(g)}, nil
	case []*geometry.Poly:
		return polysRegion(g)
	case *pgeojson.Geometry:
		return polysRegion(polysOf(g))
	case *pgeojson.Feature:
		return polysRegion(polysOf(g.Geometry))
	case *pgeojson.FeatureCollection:
		polys := make([]*geometry.Poly, 0)
		for _, f := range g.Features {
			polys = append(polys, polysOf(f.Geometry)...)
		}
		return polysRegion(polys)
	case geojson.Object:
		return &Region{obj: g}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedSelectorType, v)
}

// BoundsRegion builds a rectangular region from [minLon, minLat, maxLon,
// maxLat]. Corners given in the wrong order are swapped.
func BoundsRegion(b []float64) (*Region, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("%w: expected 4 values, got %d", ErrInvalidBounds, len(b))
	}
	for _, c := range b {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, b)
		}
	}
	// swapped corners describe the same box
	box := Bounds{math.Min(b[0], b[2]), math.Min(b[1], b[3]), math.Max(b[0], b[2]), math.Max(b[1], b[3])}
	return &Region{obj: geojson.NewRect(box.Rect())}, nil
}

func polysRegion(polys []*geometry.Poly) (*Region, error) {
	switch len(polys) {
	case 0:
		return nil, fmt.Errorf("%w: no polygon found", ErrUnsupportedSelectorType)
	case 1:
		return &Region{obj: geojson.NewPolygon(polys[0])}, nil
	}
	return &Region{obj: geojson.NewMultiPolygon(polys)}, nil
}

func polysOf(g *pgeojson.Geometry) []*geometry.Poly {
	ret := make([]*geometry.Poly, 0)
	if g == nil {
		return ret
	}
	if g.IsMultiPolygon() {
		for _, poly := range g.MultiPolygon {
			ret = append(ret, toPoly(poly))
		}
	}
	if g.IsPolygon() {
		ret = append(ret, toPoly(g.Polygon))
	}
	return ret
}

func toPoly(rings [][][]float64) *geometry.Poly {
	if len(rings) == 0 {
		return geometry.NewPoly(nil, nil, nil)
	}
	holes := make([][]geometry.Point, 0, len(rings)-1)
	for i := 1; i < len(rings); i++ {
		holes = append(holes, toPoints(rings[i]))
	}
	return geometry.NewPoly(toPoints(rings[0]), holes, nil)
}

func toPoints(ring [][]float64) []geometry.Point {
	ret := make([]geometry.Point, 0, len(ring))
	for _, c := range ring {
		if len(c) < 2 {
			continue
		}
		ret = append(ret, geometry.Point{X: c[0], Y: c[1]})
	}
	return ret
}

// Test evaluates p between r and line. A line running only along the
// boundary of r is not within r.
func (r *Region) Test(line *geometry.Line, p Predicate) (bool, error) {
	ls := geojson.NewLineString(line)
	switch p {
	case Within:
		return r.obj.Contains(ls) && r.touchesInterior(line), nil
	case Intersects:
		return r.obj.Intersects(ls), nil
	}
	return false, fmt.Errorf("%w: %s not supported", ErrInvalidOperation, p)
}

// interiorEps is the half width in degrees of the box probed around a
// point to decide whether it lies in the interior of a region
const interiorEps = 1e-9

// touchesInterior reports whether a vertex or a segment midpoint of line
// lies in the interior of r, not just on its boundary
func (r *Region) touchesInterior(line *geometry.Line) bool {
	n := line.NumPoints()
	for i := 0; i < n; i++ {
		if r.interior(line.PointAt(i)) {
			return true
		}
		if i > 0 {
			a, b := line.PointAt(i-1), line.PointAt(i)
			if r.interior(geometry.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}) {
				return true
			}
		}
	}
	return false
}

func (r *Region) interior(p geometry.Point) bool {
	box := geometry.Rect{
		Min: geometry.Point{X: p.X - interiorEps, Y: p.Y - interiorEps},
		Max: geometry.Point{X: p.X + interiorEps, Y: p.Y + interiorEps},
	}
	return r.obj.Contains(geojson.NewRect(box))
}

// RegionFromGeoJSON builds a region from the Polygon and MultiPolygon
// geometries of a GeoJSON feature collection, feature or geometry
func RegionFromGeoJSON(data []byte) (*Region, error) {
	if fc, err := pgeojson.UnmarshalFeatureCollection(data); err == nil && fc.Type == "FeatureCollection" {
		return NewRegion(fc)
	}
	if f, err := pgeojson.UnmarshalFeature(data); err == nil && f.Type == "Feature" {
		return NewRegion(f)
	}
	g, err := pgeojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSelectorType, err.Error())
	}
	return NewRegion(g)
}

// ReadRegionFile reads a region from a GeoJSON file (ending with .json or
// .geojson) or from a file of comma separated latitude,longitude pairs
// describing a single polygon
func ReadRegionFile(file string) (*Region, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(file, ".json") || strings.HasSuffix(file, ".geojson") {
		return RegionFromGeoJSON(data)
	}

	coords, err := ParseCoords(string(data))
	if err != nil {
		return nil, err
	}
	return PolygonRegion(coords)
}

// PolygonRegion builds a region from a ring of (lon, lat) pairs, the ring
// is closed if necessary
func PolygonRegion(ring [][2]float64) (*Region, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: polygon needs at least 3 points, got %d", ErrUnsupportedSelectorType, len(ring))
	}

	pts := make([]geometry.Point, 0, len(ring)+1)
	for _, c := range ring {
		pts = append(pts, geometry.Point{X: c[0], Y: c[1]})
	}

	// ensure polygon is closed
	if pts[0] != pts[len(pts)-1] {
		pts = append(pts, pts[0])
	}

	return &Region{obj: geojson.NewPolygon(geometry.NewPoly(pts, nil, nil))}, nil
}

// ParseCoords parses comma separated latitude,longitude pairs into
// (lon, lat) pairs
func ParseCoords(s string) ([][2]float64, error) {
	coords := strings.Split(strings.TrimSpace(s), ",")

	if len(coords)%2 != 0 {
		return nil, errors.New("Uneven number of coordinates")
	}

	ret := make([][2]float64, 0)
	for i := 0; i < len(coords)/2; i++ {
		var x, y float64
		var err error
		y, err = strconv.ParseFloat(strings.Trim(coords[i*2], "\n "), 64)
		if err == nil {
			x, err = strconv.ParseFloat(strings.Trim(coords[i*2+1], "\n "), 64)
		}

		if err != nil {
			return nil, err
		}

		ret = append(ret, [2]float64{x, y})
	}
	return ret, nil
}
