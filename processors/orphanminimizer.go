// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"errors"
	"fmt"
	"os"

	"github.com/patrickbr/gtfsutils/tables"
)

type FileFilter int64

const (
	AgencyFilterFile FileFilter = iota
	RoutesFilterFile
	ServicesFilterFile
	ShapesFilterFile
	StopsFilterFile
	TransfersFilterFile
	TripsFilterFile
)

func MakeOrphanRemover(args []string) (OrphanRemover, error) {
	or := OrphanRemover{}
	or.enabledFilters = make(map[FileFilter]bool, 0)
	or.Enabled = len(args) > 0
	for _, arg := range args {
		switch arg {
		case "all":
			or.enabledFilters[AgencyFilterFile] = true
			or.enabledFilters[RoutesFilterFile] = true
			or.enabledFilters[ServicesFilterFile] = true
			or.enabledFilters[ShapesFilterFile] = true
			or.enabledFilters[StopsFilterFile] = true
			or.enabledFilters[TransfersFilterFile] = true
			or.enabledFilters[TripsFilterFile] = true
		case "agency":
			or.enabledFilters[AgencyFilterFile] = true
		case "routes":
			or.enabledFilters[RoutesFilterFile] = true
		case "services":
			or.enabledFilters[ServicesFilterFile] = true
		case "shapes":
			or.enabledFilters[ShapesFilterFile] = true
		case "stops":
			or.enabledFilters[StopsFilterFile] = true
		case "transfers":
			or.enabledFilters[TransfersFilterFile] = true
		case "trips":
			or.enabledFilters[TripsFilterFile] = true
		default:
			return OrphanRemover{}, errors.New("Unsupported file '" + arg + "'")
		}
	}
	return or, nil
}

// OrphanRemover removes entities that aren't referenced anywhere
type OrphanRemover struct {
	enabledFilters map[FileFilter]bool
	Enabled        bool
}

// colRef is a column referencing the key of another table
type colRef struct {
	table  string
	column string
}

// Run the OrphanRemover on some dataset
func (or OrphanRemover) Run(ds tables.Dataset) (tables.Dataset, error) {
	fmt.Fprintf(os.Stdout, "Removing unreferenced entries... ")

	out := ds.Copy()
	before := make(map[string]int, len(ds))
	for n, t := range ds {
		before[n] = t.Len()
	}

	if or.enabledFilters[TripsFilterFile] {
		keepReferenced(out, tables.Trips, "trip_id", colRef{tables.StopTimes, "trip_id"})
		if trips, ok := out[tables.Trips]; ok {
			for _, n := range []string{tables.Frequencies, tables.StopTimes} {
				if t, ok := out[n]; ok && t.HasColumn("trip_id") {
					out[n] = t.SelectIn("trip_id", trips.ValueSet("trip_id"))
				}
			}
		}
	}

	if or.enabledFilters[TransfersFilterFile] {
		or.removeTransferOrphans(out)
	}

	if or.enabledFilters[StopsFilterFile] {
		or.removeStopOrphans(out)

		// do this 2 times, because stop deletion can create new stop orphans (parent_station)
		or.removeStopOrphans(out)
	}

	if or.enabledFilters[ShapesFilterFile] {
		keepReferenced(out, tables.Shapes, "shape_id", colRef{tables.Trips, "shape_id"})
	}

	if or.enabledFilters[ServicesFilterFile] {
		keepReferenced(out, tables.Calendar, "service_id", colRef{tables.Trips, "service_id"})
		keepReferenced(out, tables.CalendarDates, "service_id", colRef{tables.Trips, "service_id"})
	}

	if or.enabledFilters[RoutesFilterFile] {
		keepReferenced(out, tables.Routes, "route_id", colRef{tables.Trips, "route_id"})
	}

	if or.enabledFilters[AgencyFilterFile] {
		keepReferenced(out, tables.Agency, "agency_id", colRef{tables.Routes, "agency_id"})
	}

	removed := func(n string) (int, float64) {
		if _, ok := out[n]; !ok {
			return 0, 0
		}
		d := before[n] - out[n].Len()
		return d, 100.0 * float64(d) / (float64(before[n]) + 0.001)
	}

	tr, trp := removed(tables.Trips)
	st, stp := removed(tables.Stops)
	sh, shp := removed(tables.Shapes)
	se, sep := removed(tables.Calendar)
	ro, rop := removed(tables.Routes)
	ag, agp := removed(tables.Agency)
	tf, tfp := removed(tables.Transfers)

	fmt.Fprintf(os.Stdout, "done. (-%d trips [-%.2f%%], -%d stops [-%.2f%%], -%d shape points [-%.2f%%], -%d services [-%.2f%%], -%d routes [-%.2f%%], -%d agencies [-%.2f%%], -%d transfers [-%.2f%%])\n",
		tr, trp, st, stp, sh, shp, se, sep, ro, rop, ag, agp, tf, tfp)

	return out, nil
}

// keepReferenced drops the rows of table whose key is not referenced by
// any of refs. If none of the referencing columns exist, nothing is
// dropped.
func keepReferenced(ds tables.Dataset, table, key string, refs ...colRef) {
	t, ok := ds[table]
	if !ok || !t.HasColumn(key) {
		return
	}

	referenced := make(map[string]bool)
	found := false
	for _, r := range refs {
		rt, ok := ds[r.table]
		if !ok || !rt.HasColumn(r.column) {
			continue
		}
		found = true
		for id := range rt.ValueSet(r.column) {
			referenced[id] = true
		}
	}

	if !found {
		return
	}

	ds[table] = t.SelectIn(key, referenced)
}

// Remove transfer orphans
func (or OrphanRemover) removeTransferOrphans(ds tables.Dataset) {
	transfers, ok := ds[tables.Transfers]
	if !ok {
		return
	}

	st, ok := ds[tables.StopTimes]
	if !ok {
		return
	}
	referenced := st.ValueSet("stop_id")

	from, to := transfers.ColumnIndex("from_stop_id"), transfers.ColumnIndex("to_stop_id")
	ds[tables.Transfers] = transfers.Select(func(_ int, r tables.Row) bool {
		inFrom := from < 0 || r[from].IsNull() || referenced[r[from].String()]
		inTo := to < 0 || r[to].IsNull() || referenced[r[to].String()]
		return inFrom && inTo
	})
}

// Remove stop orphans
func (or OrphanRemover) removeStopOrphans(ds tables.Dataset) {
	stops, ok := ds[tables.Stops]
	if !ok || !stops.HasColumn("stop_id") {
		return
	}

	referenced := make(map[string]bool)
	for _, r := range []colRef{
		{tables.StopTimes, "stop_id"},
		{tables.Transfers, "from_stop_id"},
		{tables.Transfers, "to_stop_id"},
		{tables.Stops, "parent_station"},
		{tables.Pathways, "from_stop_id"},
		{tables.Pathways, "to_stop_id"},
	} {
		if t, ok := ds[r.table]; ok {
			for id := range t.ValueSet(r.column) {
				referenced[id] = true
			}
		}
	}

	// delete unreferenced, entrances are kept
	ds[tables.Stops] = stops.Select(func(i int, _ tables.Row) bool {
		return referenced[stops.Value(i, "stop_id").String()] || stops.Value(i, "location_type").String() == "2"
	})
}
