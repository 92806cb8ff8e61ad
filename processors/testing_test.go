// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"testing"

	"github.com/patrickbr/gtfsutils/tables"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, name string, rows ...[]string) *tables.Table {
	tbl := tables.NewTable(name, rows[0])
	for _, r := range rows[1:] {
		require.NoError(t, tbl.AppendStrings(r...))
	}
	return tbl
}

func column(t *tables.Table, col string) []string {
	ret := make([]string, 0, t.Len())
	for _, v := range t.Column(col) {
		ret = append(ret, v.String())
	}
	return ret
}

// twoLines is a small feed with line r1 (shape s1, near the origin) run by
// agency a1 and line r2 (shape s2, far away) run by agency a2
func twoLines(t *testing.T) tables.Dataset {
	return tables.Dataset{
		tables.Agency: table(t, tables.Agency,
			[]string{"agency_id", "agency_name"},
			[]string{"a1", "One"},
			[]string{"a2", "Two"},
		),
		tables.Routes: table(t, tables.Routes,
			[]string{"route_id", "agency_id", "route_type"},
			[]string{"r1", "a1", "3"},
			[]string{"r2", "a2", "3"},
		),
		tables.Trips: table(t, tables.Trips,
			[]string{"route_id", "service_id", "trip_id", "shape_id"},
			[]string{"r1", "c1", "t1", "s1"},
			[]string{"r2", "c2", "t2", "s2"},
		),
		tables.Stops: table(t, tables.Stops,
			[]string{"stop_id", "stop_lat", "stop_lon"},
			[]string{"A", "0", "0"},
			[]string{"B", "1", "1"},
			[]string{"C", "10", "10"},
			[]string{"D", "11", "11"},
		),
		tables.StopTimes: table(t, tables.StopTimes,
			[]string{"trip_id", "stop_id", "stop_sequence"},
			[]string{"t1", "A", "1"},
			[]string{"t1", "B", "2"},
			[]string{"t2", "C", "1"},
			[]string{"t2", "D", "2"},
		),
		tables.Transfers: table(t, tables.Transfers,
			[]string{"from_stop_id", "to_stop_id", "transfer_type"},
			[]string{"A", "B", "0"},
			[]string{"B", "C", "0"},
			[]string{"C", "D", "0"},
		),
		tables.Calendar: table(t, tables.Calendar,
			[]string{"service_id", "start_date", "end_date"},
			[]string{"c1", "20240101", "20241231"},
			[]string{"c2", "20230601", "20240630"},
		),
		tables.CalendarDates: table(t, tables.CalendarDates,
			[]string{"service_id", "date", "exception_type"},
			[]string{"c1", "20240102", "2"},
			[]string{"c2", "20230602", "2"},
		),
		tables.Shapes: table(t, tables.Shapes,
			[]string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"},
			[]string{"s1", "0", "0", "1"},
			[]string{"s1", "1", "1", "2"},
			[]string{"s2", "10", "10", "1"},
			[]string{"s2", "11", "11", "2"},
		),
	}
}
