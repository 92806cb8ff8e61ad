// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	pgeojson "github.com/paulmach/go.geojson"
	"github.com/tidwall/geojson/geometry"
)

func coordsOf(pts []geometry.Point) [][]float64 {
	ret := make([][]float64, len(pts))
	for i, p := range pts {
		ret[i] = []float64{p.X, p.Y}
	}
	return ret
}

// ShapesFeatureCollection returns one LineString feature per indexed shape.
// Lines are simplified with tolerance epsilon (meters) if it is positive.
func ShapesFeatureCollection(idx *ShapeIndex, epsilon float64) *pgeojson.FeatureCollection {
	fc := pgeojson.NewFeatureCollection()
	for _, id := range idx.ids {
		pts := idx.shapes[id].Points
		f := pgeojson.NewLineStringFeature(coordsOf(Simplify(pts, epsilon)))
		f.SetProperty("shape_id", id)
		f.SetProperty("length", Length(pts))
		fc.AddFeature(f)
	}
	return fc
}

// RoutesFeatureCollection returns one feature per route. Degenerate routes
// get a null geometry. Agency properties are only present if the routes
// were built with an agency table. Lines are simplified like in
// ShapesFeatureCollection.
func RoutesFeatureCollection(routes []*RouteGeometry, epsilon float64) *pgeojson.FeatureCollection {
	fc := pgeojson.NewFeatureCollection()
	for _, r := range routes {
		var f *pgeojson.Feature
		if r.Degenerate() {
			f = pgeojson.NewFeature(nil)
		} else {
			f = pgeojson.NewLineStringFeature(coordsOf(Simplify(r.Points, epsilon)))
			f.SetProperty("polyline", r.Polyline())
		}

		f.SetProperty("route_id", r.RouteID)
		f.SetProperty("route_short_name", r.ShortName)
		f.SetProperty("route_long_name", r.LongName)
		f.SetProperty("route_type", r.RouteType.String())
		if name := r.TypeName(); len(name) > 0 {
			f.SetProperty("route_type_name", name)
		}
		if r.HasAgency {
			f.SetProperty("agency_id", r.AgencyID)
			f.SetProperty("agency_name", r.AgencyName)
		}
		f.SetProperty("counts", r.Count)
		fc.AddFeature(f)
	}
	return fc
}
