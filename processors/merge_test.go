// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"errors"
	"testing"

	"github.com/patrickbr/gtfsutils/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleRoute(t *testing.T) tables.Dataset {
	return tables.Dataset{
		tables.Routes: table(t, tables.Routes,
			[]string{"route_id", "route_type"},
			[]string{"R1", "3"},
		),
		tables.Trips: table(t, tables.Trips,
			[]string{"route_id", "service_id", "trip_id"},
			[]string{"R1", "c1", "T1"},
			[]string{"R1", "c1", "T2"},
		),
	}
}

func TestMergeSameIds(t *testing.T) {
	out, err := MergeDatasets(singleRoute(t), singleRoute(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1"}, column(out[tables.Routes], "route_id"))
	assert.Equal(t, []string{"0", "0", "1", "1"}, column(out[tables.Trips], "route_id"))
	assert.Equal(t, []string{"0", "1", "2", "3"}, column(out[tables.Trips], "trip_id"))
	assert.Equal(t, tables.Int, out[tables.Routes].Value(0, "route_id").Kind())
}

func TestMergeTwoFeeds(t *testing.T) {
	a, b := twoLines(t), twoLines(t)
	delete(b, tables.Transfers)

	out, err := MergeDatasets(a, b)
	require.NoError(t, err)

	for _, n := range a.Names() {
		want := a[n].Len()
		if b.Has(n) {
			want += b[n].Len()
		}
		assert.Equal(t, want, out[n].Len(), n)
	}

	assert.Equal(t, []string{"0", "1", "2", "3"}, column(out[tables.Agency], "agency_id"))
	assert.Equal(t, []string{"0", "1", "2", "3"}, column(out[tables.Routes], "agency_id"))
	assert.Equal(t, []string{"0", "0", "1", "1", "2", "2", "3", "3"}, column(out[tables.Shapes], "shape_id"))
	assert.Equal(t, []string{"0", "1", "2", "3"}, column(out[tables.Trips], "shape_id"))
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, column(out[tables.StopTimes], "stop_id"))
	assert.Equal(t, []string{"0", "1", "2"}, column(out[tables.Transfers], "from_stop_id"))
	assert.Equal(t, []string{"0", "0", "1", "1", "2", "2", "3", "3"}, column(out[tables.StopTimes], "trip_id"))
	assert.Equal(t, []string{"0", "1", "2", "3"}, column(out[tables.CalendarDates], "service_id"))

	// trips do not depend on the calendar in the core graph
	assert.Equal(t, []string{"c1", "c2", "c1", "c2"}, column(out[tables.Trips], "service_id"))

	// non-identifier columns are kept
	assert.Equal(t, []string{"One", "Two", "One", "Two"}, column(out[tables.Agency], "agency_name"))
	assertClosed(t, out, tables.CoreGraph)

	// inputs are untouched
	assert.Equal(t, "a1", a[tables.Agency].Value(0, "agency_id").String())
}

func TestMergeExtendedGraph(t *testing.T) {
	out, err := Merger{Graph: tables.ExtendedGraph}.Merge([]tables.Dataset{twoLines(t), twoLines(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "2", "3"}, column(out[tables.Trips], "service_id"))
	assertClosed(t, out, tables.ExtendedGraph)
}

func TestMergeUnionOfColumns(t *testing.T) {
	a, b := singleRoute(t), singleRoute(t)
	b[tables.Routes] = table(t, tables.Routes,
		[]string{"route_id", "route_color"},
		[]string{"R1", "FF0000"},
	)

	out, err := MergeDatasets(a, b)
	require.NoError(t, err)

	routes := out[tables.Routes]
	assert.Equal(t, []string{"route_id", "route_type", "route_color"}, routes.Columns())
	assert.True(t, routes.Value(0, "route_color").IsNull())
	assert.True(t, routes.Value(1, "route_type").IsNull())
}

func TestMergeEmptyInput(t *testing.T) {
	out, err := MergeDatasets()
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = MergeDatasets(singleRoute(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, column(out[tables.Routes], "route_id"))
}

func TestMergeIntegrityErrors(t *testing.T) {
	assertIntegrity := func(err error, tbl, col string) {
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMergeIntegrity)

		var mie *MergeIntegrityError
		require.True(t, errors.As(err, &mie))
		assert.Equal(t, tbl, mie.Table)
		assert.Equal(t, col, mie.Column)
	}

	// dangling reference
	ds := singleRoute(t)
	require.NoError(t, ds[tables.Trips].AppendStrings("R9", "c1", "T3"))
	_, err := MergeDatasets(ds, singleRoute(t))
	assertIntegrity(err, tables.Trips, "route_id")

	// duplicate identifier inside one dataset
	ds = singleRoute(t)
	require.NoError(t, ds[tables.Routes].AppendStrings("R1", "0"))
	_, err = MergeDatasets(ds)
	assertIntegrity(err, tables.Routes, "route_id")

	// null reference
	ds = singleRoute(t)
	require.NoError(t, ds[tables.Trips].AppendStrings("", "c1", "T3"))
	_, err = MergeDatasets(ds)
	assertIntegrity(err, tables.Trips, "route_id")

	// null identifier
	ds = singleRoute(t)
	require.NoError(t, ds[tables.Trips].AppendStrings("R1", "c1", ""))
	_, err = MergeDatasets(ds)
	assertIntegrity(err, tables.Trips, "trip_id")

	// referenced table missing in one dataset
	a, b := twoLines(t), twoLines(t)
	delete(b, tables.Agency)
	_, err = MergeDatasets(a, b)
	assertIntegrity(err, tables.Routes, "agency_id")
}

func TestMergeOptionalNullReferences(t *testing.T) {
	ds := singleRoute(t)
	ds[tables.FareRules] = table(t, tables.FareRules,
		[]string{"fare_id", "route_id"},
		[]string{"f1", "R1"},
		[]string{"f2", ""},
	)

	out, err := Merger{Graph: tables.ExtendedGraph}.Merge([]tables.Dataset{ds, ds})
	require.NoError(t, err)

	fr := out[tables.FareRules]
	assert.Equal(t, []string{"0", "", "1", ""}, column(fr, "route_id"))
	assert.True(t, fr.Value(1, "route_id").IsNull())
}
