// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"fmt"
	"time"

	"github.com/patrickbr/gtfsutils/tables"
)

// DateLayout is the GTFS YYYYMMDD date format
const DateLayout = "20060102"

// ParseDate parses a YYYYMMDD date
func ParseDate(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("%w: expected YYYYMMDD date, found '%s'", tables.ErrInvalidValue, s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expected YYYYMMDD date, found '%s'", tables.ErrInvalidValue, s)
	}
	return t, nil
}

// CalendarDateRange returns the earliest start_date and the latest
// end_date of all services in the calendar table
func CalendarDateRange(ds tables.Dataset) (time.Time, time.Time, error) {
	cal, err := ds.Table(tables.Calendar)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var min, max time.Time
	for i := range cal.Rows {
		start, err := ParseDate(cal.Value(i, "start_date").String())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("service %s, start_date: %w", cal.Value(i, "service_id"), err)
		}
		end, err := ParseDate(cal.Value(i, "end_date").String())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("service %s, end_date: %w", cal.Value(i, "service_id"), err)
		}
		if min.IsZero() || start.Before(min) {
			min = start
		}
		if max.IsZero() || end.After(max) {
			max = end
		}
	}

	if min.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s has no services", tables.ErrInvalidValue, tables.Calendar)
	}
	return min, max, nil
}
