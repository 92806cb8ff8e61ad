// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

// GTFS table names
const (
	Agency         = "agency"
	Stops          = "stops"
	Routes         = "routes"
	Trips          = "trips"
	StopTimes      = "stop_times"
	Calendar       = "calendar"
	CalendarDates  = "calendar_dates"
	FareAttributes = "fare_attributes"
	FareRules      = "fare_rules"
	Shapes         = "shapes"
	Frequencies    = "frequencies"
	Transfers      = "transfers"
	Pathways       = "pathways"
	Levels         = "levels"
	FeedInfo       = "feed_info"
	Translations   = "translations"
	Attributions   = "attributions"
)

// RequiredTables must be present in a complete feed
var RequiredTables = []string{Agency, Stops, Routes, Trips, Calendar, StopTimes}

// AvailableTables lists all known tables in canonical order
var AvailableTables = []string{
	Agency, Stops, Routes, Trips, StopTimes, Calendar, CalendarDates,
	FareAttributes, FareRules, Shapes, Frequencies, Transfers, Pathways,
	Levels, FeedInfo, Translations, Attributions,
}

// Dependency is a table whose rows reference an entity's key
type Dependency struct {
	Table string

	// Columns holding the reference. Empty means a single column named
	// like the entity key.
	Columns []string

	// Optional references may be null
	Optional bool
}

// Entity is a table with an identifier column and the tables depending
// on it
type Entity struct {
	Name string
	Key  string

	// Repeated keys may occur in more than one row, like the points of
	// a shape
	Repeated bool

	Dependents []Dependency
}

// Graph declares which entity keys which dependent tables. Both the
// filter cascade and the merge renumbering are driven by it.
type Graph []Entity

// Link is a single foreign key edge of a graph
type Link struct {
	Parent   string
	Key      string
	Child    string
	Columns  []string
	Optional bool
}

// CoreGraph are the dependencies between the core GTFS tables
var CoreGraph = Graph{
	{Name: Agency, Key: "agency_id", Dependents: []Dependency{{Table: Routes}}},
	{Name: Routes, Key: "route_id", Dependents: []Dependency{{Table: Trips}}},
	{Name: Trips, Key: "trip_id", Dependents: []Dependency{{Table: StopTimes}}},
	{Name: Stops, Key: "stop_id", Dependents: []Dependency{
		{Table: StopTimes},
		{Table: Transfers, Columns: []string{"from_stop_id", "to_stop_id"}},
	}},
	{Name: Calendar, Key: "service_id", Dependents: []Dependency{{Table: CalendarDates}}},
	{Name: Shapes, Key: "shape_id", Repeated: true, Dependents: []Dependency{{Table: Trips}}},
}

// ExtendedGraph additionally covers services of trips, frequencies,
// pathways and fare rules
var ExtendedGraph = CoreGraph.With(
	Entity{Name: Routes, Dependents: []Dependency{{Table: FareRules, Optional: true}}},
	Entity{Name: Trips, Dependents: []Dependency{{Table: Frequencies}}},
	Entity{Name: Stops, Dependents: []Dependency{{Table: Pathways, Columns: []string{"from_stop_id", "to_stop_id"}}}},
	Entity{Name: Calendar, Dependents: []Dependency{{Table: Trips}}},
)

// With returns a copy of g with the dependents of exts added to the
// entities of the same name. Unknown entities are appended.
func (g Graph) With(exts ...Entity) Graph {
	ret := make(Graph, len(g))
	for i, e := range g {
		ret[i] = e
		ret[i].Dependents = append([]Dependency(nil), e.Dependents...)
	}
	for _, ext := range exts {
		found := false
		for i := range ret {
			if ret[i].Name == ext.Name {
				ret[i].Dependents = append(ret[i].Dependents, ext.Dependents...)
				found = true
				break
			}
		}
		if !found {
			ret = append(ret, ext)
		}
	}
	return ret
}

// Entity returns the entity declared for table name
func (g Graph) Entity(name string) (Entity, bool) {
	for _, e := range g {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// ReferenceColumns returns the columns of the dependent table holding
// references to e
func (e Entity) ReferenceColumns(d Dependency) []string {
	if len(d.Columns) > 0 {
		return d.Columns
	}
	return []string{e.Key}
}

// Links returns all foreign key edges of g in declaration order
func (g Graph) Links() []Link {
	ret := make([]Link, 0)
	for _, e := range g {
		for _, d := range e.Dependents {
			ret = append(ret, Link{Parent: e.Name, Key: e.Key, Child: d.Table, Columns: e.ReferenceColumns(d), Optional: d.Optional})
		}
	}
	return ret
}
