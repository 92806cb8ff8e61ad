// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"testing"

	"github.com/patrickbr/gtfsutils/geo"
	"github.com/patrickbr/gtfsutils/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertClosed checks that every non-null reference along g points to an
// existing row
func assertClosed(t *testing.T, ds tables.Dataset, g tables.Graph) {
	for _, l := range g.Links() {
		parent, ok := ds[l.Parent]
		if !ok {
			continue
		}
		child, ok := ds[l.Child]
		if !ok {
			continue
		}
		keys := parent.ValueSet(l.Key)
		for _, c := range l.Columns {
			for _, v := range child.Column(c) {
				if v.IsNull() {
					continue
				}
				assert.True(t, keys[v.String()], "%s.%s references unknown %s %s", l.Child, c, l.Parent, v)
			}
		}
	}
}

func TestFilterByGeometryWithin(t *testing.T) {
	ds := twoLines(t)

	out, err := FilterByGeometry(ds, []float64{-1, -1, 2, 2}, "within")
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "s1"}, column(out[tables.Shapes], "shape_id"))
	assert.Equal(t, []string{"t1"}, column(out[tables.Trips], "trip_id"))
	assert.Equal(t, []string{"r1"}, column(out[tables.Routes], "route_id"))
	assert.Equal(t, []string{"a1"}, column(out[tables.Agency], "agency_id"))
	assert.Equal(t, []string{"t1", "t1"}, column(out[tables.StopTimes], "trip_id"))
	assert.Equal(t, []string{"A", "B"}, column(out[tables.Stops], "stop_id"))

	// B-C leaves the retained stops
	require.Equal(t, 1, out[tables.Transfers].Len())
	assert.Equal(t, "A", out[tables.Transfers].Value(0, "from_stop_id").String())

	// the calendar is not part of the cascade
	assert.Equal(t, 2, out[tables.Calendar].Len())
	assert.Equal(t, 2, out[tables.CalendarDates].Len())

	assertClosed(t, out, tables.CoreGraph)

	// input is untouched
	assert.Equal(t, 2, ds[tables.Trips].Len())
	assert.Equal(t, 4, ds[tables.Shapes].Len())
}

func TestFilterByGeometryIntersects(t *testing.T) {
	ds := twoLines(t)

	// only the second point of s1 is inside
	out, err := FilterByGeometry(ds, []float64{0.5, 0.5, 2, 2}, "within")
	require.NoError(t, err)
	assert.Equal(t, 0, out[tables.Trips].Len())
	assert.Equal(t, 0, out[tables.Stops].Len())
	assert.Equal(t, 0, out[tables.Transfers].Len())

	out, err = FilterByGeometry(ds, []float64{0.5, 0.5, 2, 2}, "INTERSECTS")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, column(out[tables.Trips], "trip_id"))
}

func TestFilterIdempotent(t *testing.T) {
	once, err := FilterByGeometry(twoLines(t), []float64{-1, -1, 2, 2}, "within")
	require.NoError(t, err)
	twice, err := FilterByGeometry(once, []float64{-1, -1, 2, 2}, "within")
	require.NoError(t, err)

	require.ElementsMatch(t, once.Names(), twice.Names())
	for _, n := range once.Names() {
		assert.Equal(t, once[n].Rows, twice[n].Rows, n)
	}
}

func TestFilterIdempotentByIds(t *testing.T) {
	for _, c := range []struct {
		name string
		run  func(tables.Dataset) (tables.Dataset, error)
	}{
		{"shapes", func(ds tables.Dataset) (tables.Dataset, error) { return FilterByShapeIds(ds, []string{"s2"}) }},
		{"agencies", func(ds tables.Dataset) (tables.Dataset, error) { return FilterByAgencyIds(ds, []string{"a1"}) }},
	} {
		t.Run(c.name, func(t *testing.T) {
			once, err := c.run(twoLines(t))
			require.NoError(t, err)
			twice, err := c.run(once)
			require.NoError(t, err)

			require.ElementsMatch(t, once.Names(), twice.Names())
			for _, n := range once.Names() {
				assert.Equal(t, once[n].Rows, twice[n].Rows, n)
			}
			assert.Equal(t, 1, twice[tables.Trips].Len())
		})
	}
}

func TestFilterDegenerateShape(t *testing.T) {
	ds := tables.Dataset{
		tables.Agency: table(t, tables.Agency,
			[]string{"agency_id", "agency_name"},
			[]string{"a1", "One"},
		),
		tables.Routes: table(t, tables.Routes,
			[]string{"route_id", "agency_id", "route_type"},
			[]string{"r1", "a1", "3"},
		),
		tables.Trips: table(t, tables.Trips,
			[]string{"route_id", "service_id", "trip_id", "shape_id"},
			[]string{"r1", "c1", "t1", "s1"},
			[]string{"r1", "c1", "t2", "s2"},
		),
		tables.Shapes: table(t, tables.Shapes,
			[]string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"},
			[]string{"s1", "0", "0", "1"},
			[]string{"s1", "1", "1", "2"},
			[]string{"s2", "0.5", "0.5", "1"},
		),
	}

	out, err := FilterByGeometry(ds, []float64{-1, -1, 2, 2}, "within")
	require.NoError(t, err)

	// s2 has a single point and never matches, although it is inside
	assert.Equal(t, []string{"t1"}, column(out[tables.Trips], "trip_id"))
	assert.Equal(t, []string{"s1", "s1"}, column(out[tables.Shapes], "shape_id"))
	assert.Equal(t, []string{"r1"}, column(out[tables.Routes], "route_id"))
	assert.Equal(t, []string{"a1"}, column(out[tables.Agency], "agency_id"))
}

func TestFilterByAgencyIdsWithoutAgencyColumn(t *testing.T) {
	ds := twoLines(t)
	ds[tables.Agency] = table(t, tables.Agency,
		[]string{"agency_id", "agency_name"},
		[]string{"a1", "One"},
	)
	ds[tables.Routes] = table(t, tables.Routes,
		[]string{"route_id", "route_type"},
		[]string{"r1", "3"},
		[]string{"r2", "3"},
	)

	// routes of a single agency feed belong to that agency
	out, err := FilterByAgencyIds(ds, []string{"a1"})
	require.NoError(t, err)
	assert.Equal(t, 2, out[tables.Routes].Len())
	assert.Equal(t, 2, out[tables.Trips].Len())
	assert.Equal(t, 4, out[tables.StopTimes].Len())
	assert.Equal(t, 4, out[tables.Stops].Len())

	_, err = FilterByAgencyIds(ds, []string{"a9"})
	assert.ErrorIs(t, err, tables.ErrMissingColumn)

	// with several agencies the routes cannot be told apart
	ds[tables.Agency] = table(t, tables.Agency,
		[]string{"agency_id", "agency_name"},
		[]string{"a1", "One"},
		[]string{"a2", "Two"},
	)
	_, err = FilterByAgencyIds(ds, []string{"a1"})
	assert.ErrorIs(t, err, tables.ErrMissingColumn)
}

func TestGeoFilterPredicateCase(t *testing.T) {
	r, err := geo.BoundsRegion([]float64{-1, -1, 2, 2})
	require.NoError(t, err)

	out, err := GeoFilter{Region: r, Predicate: "Within"}.Run(twoLines(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, column(out[tables.Trips], "trip_id"))
}

func TestFilterMonotonic(t *testing.T) {
	ds := twoLines(t)

	small, err := FilterByShapeIds(ds, []string{"s1"})
	require.NoError(t, err)
	large, err := FilterByShapeIds(ds, []string{"s1", "s2"})
	require.NoError(t, err)

	for _, n := range small.Names() {
		assert.LessOrEqual(t, small[n].Len(), large[n].Len(), n)
		assert.LessOrEqual(t, large[n].Len(), ds[n].Len(), n)
	}

	// everything is connected to one of the shapes
	assert.Equal(t, 4, large[tables.Stops].Len())
	assert.Equal(t, 2, large[tables.Transfers].Len())
	assertClosed(t, large, tables.CoreGraph)
}

func TestFilterByShapeIdsUnknown(t *testing.T) {
	out, err := FilterByShapeIds(twoLines(t), []string{"nope"})
	require.NoError(t, err)

	for _, n := range []string{tables.Shapes, tables.Trips, tables.Routes, tables.Agency, tables.StopTimes, tables.Stops, tables.Transfers} {
		assert.Equal(t, 0, out[n].Len(), n)
	}
	assert.Equal(t, 2, out[tables.Calendar].Len())
}

func TestFilterByAgencyIds(t *testing.T) {
	out, err := FilterByAgencyIds(twoLines(t), []string{"a2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a2"}, column(out[tables.Agency], "agency_id"))
	assert.Equal(t, []string{"r2"}, column(out[tables.Routes], "route_id"))
	assert.Equal(t, []string{"t2"}, column(out[tables.Trips], "trip_id"))
	assert.Equal(t, []string{"s2", "s2"}, column(out[tables.Shapes], "shape_id"))
	assert.Equal(t, []string{"C", "D"}, column(out[tables.Stops], "stop_id"))
	assert.Equal(t, 1, out[tables.Transfers].Len())
	assertClosed(t, out, tables.CoreGraph)
}

func TestFilterDropsNullReferences(t *testing.T) {
	ds := twoLines(t)
	ds[tables.Trips] = table(t, tables.Trips,
		[]string{"route_id", "service_id", "trip_id", "shape_id"},
		[]string{"r1", "c1", "t1", "s1"},
		[]string{"r1", "c1", "t3", ""},
	)

	out, err := FilterByShapeIds(ds, []string{"s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, column(out[tables.Trips], "trip_id"))
}

func TestFilterExtendedGraph(t *testing.T) {
	ds := twoLines(t)
	ds[tables.Frequencies] = table(t, tables.Frequencies,
		[]string{"trip_id", "start_time", "end_time", "headway_secs"},
		[]string{"t1", "06:00:00", "08:00:00", "600"},
		[]string{"t2", "06:00:00", "08:00:00", "600"},
	)
	ds[tables.FareRules] = table(t, tables.FareRules,
		[]string{"fare_id", "route_id"},
		[]string{"f1", "r1"},
		[]string{"f2", "r2"},
		[]string{"f3", ""},
	)

	out, err := ShapeFilter{ShapeIDs: []string{"s1"}, Graph: tables.ExtendedGraph}.Run(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"c1"}, column(out[tables.Calendar], "service_id"))
	assert.Equal(t, []string{"c1"}, column(out[tables.CalendarDates], "service_id"))
	assert.Equal(t, []string{"t1"}, column(out[tables.Frequencies], "trip_id"))

	// fare rules without a route apply to every route
	assert.Equal(t, []string{"f1", "f3"}, column(out[tables.FareRules], "fare_id"))
	assertClosed(t, out, tables.ExtendedGraph)

	// the core graph ignores these tables
	out, err = ShapeFilter{ShapeIDs: []string{"s1"}}.Run(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, out[tables.Frequencies].Len())
	assert.Equal(t, 3, out[tables.FareRules].Len())
}

func TestFilterMissingOptionalTables(t *testing.T) {
	ds := twoLines(t)
	delete(ds, tables.Transfers)
	delete(ds, tables.Agency)

	out, err := FilterByGeometry(ds, []float64{-1, -1, 2, 2}, "within")
	require.NoError(t, err)
	assert.False(t, out.Has(tables.Transfers))
	assert.False(t, out.Has(tables.Agency))
	assert.Equal(t, 1, out[tables.Routes].Len())
}

func TestFilterErrors(t *testing.T) {
	ds := twoLines(t)

	_, err := FilterByGeometry(ds, []float64{-1, -1, 2, 2}, "touches")
	assert.ErrorIs(t, err, geo.ErrInvalidOperation)

	_, err = FilterByGeometry(ds, "somewhere", "within")
	assert.ErrorIs(t, err, geo.ErrUnsupportedSelectorType)

	_, err = FilterByGeometry(ds, []float64{-1, -1, 2}, "within")
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)

	_, err = GeoFilter{Predicate: geo.Within}.Run(ds)
	assert.ErrorIs(t, err, geo.ErrUnsupportedSelectorType)

	delete(ds, tables.Shapes)
	_, err = FilterByGeometry(ds, []float64{-1, -1, 2, 2}, "within")
	assert.ErrorIs(t, err, tables.ErrMissingTable)
	_, err = FilterByShapeIds(ds, []string{"s1"})
	assert.ErrorIs(t, err, tables.ErrMissingTable)

	delete(ds, tables.Agency)
	_, err = FilterByAgencyIds(ds, []string{"a1"})
	assert.ErrorIs(t, err, tables.ErrMissingTable)
}
