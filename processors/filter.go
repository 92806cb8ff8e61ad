// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"fmt"

	"github.com/patrickbr/gtfsutils/geo"
	"github.com/patrickbr/gtfsutils/tables"
)

// ShapeFilter keeps the given shapes and everything connected to them:
// trips using the shapes, their routes, agencies, stop times and stops,
// and transfers between retained stops.
type ShapeFilter struct {
	ShapeIDs []string
	Graph    tables.Graph
}

// Run this ShapeFilter on some dataset
func (f ShapeFilter) Run(ds tables.Dataset) (tables.Dataset, error) {
	shapes, err := ds.Table(tables.Shapes)
	if err != nil {
		return nil, err
	}

	retained := shapes.SelectIn("shape_id", idSet(f.ShapeIDs))
	return cascade(ds, graphOrCore(f.Graph), tables.Shapes, retained)
}

// AgencyFilter keeps the given agencies and everything connected to them:
// their routes, trips, stop times, stops and shapes, and transfers between
// retained stops.
type AgencyFilter struct {
	AgencyIDs []string
	Graph     tables.Graph
}

// Run this AgencyFilter on some dataset
func (f AgencyFilter) Run(ds tables.Dataset) (tables.Dataset, error) {
	agency, err := ds.Table(tables.Agency)
	if err != nil {
		return nil, err
	}

	retained := agency.SelectIn("agency_id", idSet(f.AgencyIDs))
	return cascade(ds, graphOrCore(f.Graph), tables.Agency, retained)
}

// GeoFilter keeps the shapes satisfying Predicate against Region, and
// cascades like ShapeFilter. Shapes with less than 2 points never match.
type GeoFilter struct {
	Region    *geo.Region
	Predicate geo.Predicate
	Graph     tables.Graph
}

// Run this GeoFilter on some dataset
func (f GeoFilter) Run(ds tables.Dataset) (tables.Dataset, error) {
	if f.Region == nil {
		return nil, fmt.Errorf("%w: no region", geo.ErrUnsupportedSelectorType)
	}
	pred, err := geo.ParsePredicate(string(f.Predicate))
	if err != nil {
		return nil, err
	}

	shapes, err := ds.Table(tables.Shapes)
	if err != nil {
		return nil, err
	}

	idx, err := geo.BuildShapeIndex(shapes)
	if err != nil {
		return nil, err
	}

	ids, err := geo.MatchShapes(idx, f.Region, pred)
	if err != nil {
		return nil, err
	}

	return ShapeFilter{ShapeIDs: ids, Graph: f.Graph}.Run(ds)
}

// FilterByGeometry keeps the part of ds whose shapes satisfy predicate
// against region. region is anything geo.NewRegion accepts, e.g. a
// []float64{minLon, minLat, maxLon, maxLat} bounding box.
func FilterByGeometry(ds tables.Dataset, region interface{}, predicate string) (tables.Dataset, error) {
	r, err := geo.NewRegion(region)
	if err != nil {
		return nil, err
	}
	p, err := geo.ParsePredicate(predicate)
	if err != nil {
		return nil, err
	}
	return GeoFilter{Region: r, Predicate: p}.Run(ds)
}

// FilterByShapeIds keeps the part of ds connected to the given shapes
func FilterByShapeIds(ds tables.Dataset, shapeIDs []string) (tables.Dataset, error) {
	return ShapeFilter{ShapeIDs: shapeIDs}.Run(ds)
}

// FilterByAgencyIds keeps the part of ds connected to the given agencies
func FilterByAgencyIds(ds tables.Dataset, agencyIDs []string) (tables.Dataset, error) {
	return AgencyFilter{AgencyIDs: agencyIDs}.Run(ds)
}
