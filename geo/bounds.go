// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"fmt"
	"math"

	"github.com/patrickbr/gtfsutils/tables"
)

// ComputeBoundingBox returns the bounding box of all stops in ds. Stops
// without coordinates are ignored.
func ComputeBoundingBox(ds tables.Dataset) (Bounds, error) {
	stops, err := ds.Table(tables.Stops)
	if err != nil {
		return Bounds{}, err
	}

	b := Bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	n := 0

	for i := range stops.Rows {
		lonv, latv := stops.Value(i, "stop_lon"), stops.Value(i, "stop_lat")
		if lonv.IsNull() || latv.IsNull() {
			continue
		}
		lon, err := lonv.Float()
		if err != nil {
			return Bounds{}, fmt.Errorf("stop %s, stop_lon: %w", stops.Value(i, "stop_id"), err)
		}
		lat, err := latv.Float()
		if err != nil {
			return Bounds{}, fmt.Errorf("stop %s, stop_lat: %w", stops.Value(i, "stop_id"), err)
		}

		b[0] = math.Min(b[0], lon)
		b[1] = math.Min(b[1], lat)
		b[2] = math.Max(b[2], lon)
		b[3] = math.Max(b[3], lat)
		n++
	}

	if n == 0 {
		return Bounds{}, fmt.Errorf("%w: stops", ErrNoCoordinates)
	}
	return b, nil
}
