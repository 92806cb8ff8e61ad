// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"fmt"

	"github.com/patrickbr/gtfsutils/tables"
	"github.com/tidwall/geojson/geometry"
	"golang.org/x/exp/slices"
)

// ShapeGeometry is the line of a single shape, points are (lon, lat)
type ShapeGeometry struct {
	ID     string
	Points []geometry.Point
}

// Line returns s as a line
func (s *ShapeGeometry) Line() *geometry.Line {
	return geometry.NewLine(s.Points, nil)
}

// ShapeIndex holds one line per shape id
type ShapeIndex struct {
	ids    []string
	shapes map[string]*ShapeGeometry
}

// Len returns the number of shapes in the index
func (idx *ShapeIndex) Len() int {
	return len(idx.ids)
}

// IDs returns the shape ids in order of their first occurrence in the
// shapes table
func (idx *ShapeIndex) IDs() []string {
	return append([]string(nil), idx.ids...)
}

// Get returns the geometry of shape id
func (idx *ShapeIndex) Get(id string) (*ShapeGeometry, bool) {
	s, ok := idx.shapes[id]
	return s, ok
}

type shapePoint struct {
	seq int64
	pt  geometry.Point
}

// BuildShapeIndex builds a line for every shape id in t. Points are ordered
// by shape_pt_sequence, points with equal sequence numbers keep their
// table order. Shapes with less than 2 points are left out.
func BuildShapeIndex(t *tables.Table) (*ShapeIndex, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: %s", tables.ErrMissingTable, tables.Shapes)
	}

	order := make([]string, 0)
	groups := make(map[string][]shapePoint)

	for i := range t.Rows {
		idv := t.Value(i, "shape_id")
		if idv.IsNull() {
			continue
		}
		id := idv.String()

		seq, err := t.Value(i, "shape_pt_sequence").Int()
		if err != nil {
			return nil, fmt.Errorf("shape %s, shape_pt_sequence: %w", id, err)
		}
		lon, err := t.Value(i, "shape_pt_lon").Float()
		if err != nil {
			return nil, fmt.Errorf("shape %s, shape_pt_lon: %w", id, err)
		}
		lat, err := t.Value(i, "shape_pt_lat").Float()
		if err != nil {
			return nil, fmt.Errorf("shape %s, shape_pt_lat: %w", id, err)
		}

		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], shapePoint{seq, geometry.Point{X: lon, Y: lat}})
	}

	idx := &ShapeIndex{ids: make([]string, 0, len(order)), shapes: make(map[string]*ShapeGeometry, len(order))}

	for _, id := range order {
		pts := groups[id]
		if len(pts) < 2 {
			continue
		}

		slices.SortStableFunc(pts, func(a, b shapePoint) int {
			if a.seq < b.seq {
				return -1
			}
			if a.seq > b.seq {
				return 1
			}
			return 0
		})

		s := &ShapeGeometry{ID: id, Points: make([]geometry.Point, len(pts))}
		for i, p := range pts {
			s.Points[i] = p.pt
		}
		idx.ids = append(idx.ids, id)
		idx.shapes[id] = s
	}

	return idx, nil
}

// MatchShapes returns the ids of all shapes in idx for which p holds
// against r, in index order
func MatchShapes(idx *ShapeIndex, r *Region, p Predicate) ([]string, error) {
	p, err := ParsePredicate(string(p))
	if err != nil {
		return nil, err
	}

	ret := make([]string, 0)
	for _, id := range idx.ids {
		ok, err := r.Test(idx.shapes[id].Line(), p)
		if err != nil {
			return nil, err
		}
		if ok {
			ret = append(ret, id)
		}
	}
	return ret, nil
}
