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
	"github.com/twpayne/go-polyline"
	"golang.org/x/exp/slices"
)

// RouteTypeNames maps the basic GTFS route types to readable names
var RouteTypeNames = map[int64]string{
	0: "tram, light_rail",
	1: "subway",
	2: "rail, railway, train",
	3: "bus, ex-bus",
	4: "ferry",
	5: "cableCar",
	6: "gondola",
	7: "funicular",
}

// RouteGeometry is the line of a route's representative trip together
// with the number of trips serving the route
type RouteGeometry struct {
	RouteID   string
	ShortName string
	LongName  string
	RouteType tables.Value

	// only set if the dataset has an agency table
	HasAgency  bool
	AgencyID   string
	AgencyName string

	Count int

	// empty if the representative trip has 2 or less stops
	Points []geometry.Point
}

// Degenerate reports whether r has no usable line
func (r *RouteGeometry) Degenerate() bool {
	return len(r.Points) < 2
}

// TypeName returns the readable name of the route type, if known
func (r *RouteGeometry) TypeName() string {
	t, err := r.RouteType.Int()
	if err != nil {
		return ""
	}
	return RouteTypeNames[t]
}

// Polyline returns the line of r in encoded polyline format
func (r *RouteGeometry) Polyline() string {
	coords := make([][]float64, len(r.Points))
	for i, p := range r.Points {
		coords[i] = []float64{p.Y, p.X}
	}
	return string(polyline.EncodeCoords(coords))
}

type routeTrips struct {
	trip  string
	count int
}

type stopTimePoint struct {
	seq  int64
	stop string
}

// BuildRouteGeometries builds one RouteGeometry per row of the routes
// table, in table order. The representative trip of a route is the
// first trip of that route in the trips table. Agency fields are only
// filled if ds has an agency table.
func BuildRouteGeometries(ds tables.Dataset) ([]*RouteGeometry, error) {
	routes, err := ds.Table(tables.Routes)
	if err != nil {
		return nil, err
	}
	trips, err := ds.Table(tables.Trips)
	if err != nil {
		return nil, err
	}
	stops, err := ds.Table(tables.Stops)
	if err != nil {
		return nil, err
	}
	stopTimes, err := ds.Table(tables.StopTimes)
	if err != nil {
		return nil, err
	}

	// trip count and representative trip per route
	perRoute := make(map[string]*routeTrips)
	for i := range trips.Rows {
		rid := trips.Value(i, "route_id")
		if rid.IsNull() {
			continue
		}
		if rt, ok := perRoute[rid.String()]; ok {
			rt.count++
		} else {
			perRoute[rid.String()] = &routeTrips{trip: trips.Value(i, "trip_id").String(), count: 1}
		}
	}

	reprTrips := make(map[string]bool, len(perRoute))
	for _, rt := range perRoute {
		reprTrips[rt.trip] = true
	}

	// stop sequences of the representative trips
	tripStops := make(map[string][]stopTimePoint)
	for i := range stopTimes.Rows {
		tid := stopTimes.Value(i, "trip_id").String()
		if !reprTrips[tid] {
			continue
		}
		seq, err := stopTimes.Value(i, "stop_sequence").Int()
		if err != nil {
			return nil, fmt.Errorf("trip %s, stop_sequence: %w", tid, err)
		}
		tripStops[tid] = append(tripStops[tid], stopTimePoint{seq, stopTimes.Value(i, "stop_id").String()})
	}

	// only coordinates of stops actually used are parsed
	used := make(map[string]bool)
	for _, sts := range tripStops {
		for _, st := range sts {
			used[st.stop] = true
		}
	}
	coords := make(map[string]geometry.Point, len(used))
	for i := range stops.Rows {
		sid := stops.Value(i, "stop_id").String()
		if !used[sid] {
			continue
		}
		lon, err := stops.Value(i, "stop_lon").Float()
		if err != nil {
			return nil, fmt.Errorf("stop %s, stop_lon: %w", sid, err)
		}
		lat, err := stops.Value(i, "stop_lat").Float()
		if err != nil {
			return nil, fmt.Errorf("stop %s, stop_lat: %w", sid, err)
		}
		coords[sid] = geometry.Point{X: lon, Y: lat}
	}

	agencyNames := map[string]string(nil)
	if agency, ok := ds[tables.Agency]; ok {
		agencyNames = make(map[string]string, agency.Len())
		for i := range agency.Rows {
			agencyNames[agency.Value(i, "agency_id").String()] = agency.Value(i, "agency_name").String()
		}
	}

	ret := make([]*RouteGeometry, 0, routes.Len())
	for i := range routes.Rows {
		rg := &RouteGeometry{
			RouteID:   routes.Value(i, "route_id").String(),
			ShortName: routes.Value(i, "route_short_name").String(),
			LongName:  routes.Value(i, "route_long_name").String(),
			RouteType: routes.Value(i, "route_type"),
		}

		if agencyNames != nil {
			rg.HasAgency = true
			rg.AgencyID = routes.Value(i, "agency_id").String()
			rg.AgencyName = agencyNames[rg.AgencyID]
		}

		if rt, ok := perRoute[rg.RouteID]; ok {
			rg.Count = rt.count
			rg.Points = tripLine(tripStops[rt.trip], coords)
		}

		ret = append(ret, rg)
	}

	return ret, nil
}

// tripLine orders the stop times by stop_sequence, equal sequence numbers
// keep their table order. Trips with 2 or less stops yield no line.
func tripLine(sts []stopTimePoint, coords map[string]geometry.Point) []geometry.Point {
	if len(sts) <= 2 {
		return nil
	}

	sorted := append([]stopTimePoint(nil), sts...)
	slices.SortStableFunc(sorted, func(a, b stopTimePoint) int {
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})

	ret := make([]geometry.Point, 0, len(sorted))
	for _, st := range sorted {
		if p, ok := coords[st.stop]; ok {
			ret = append(ret, p)
		}
	}
	if len(ret) <= 2 {
		return nil
	}
	return ret
}
