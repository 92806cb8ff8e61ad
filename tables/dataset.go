// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Dataset maps a table name (the file name without ".txt") to its table
type Dataset map[string]*Table

// Has reports whether d contains a table name
func (d Dataset) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Table returns the table name, or ErrMissingTable
func (d Dataset) Table(name string) (*Table, error) {
	t, ok := d[name]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, name)
	}
	return t, nil
}

// Copy returns a new dataset holding the same tables. Since tables are
// never modified in place, replacing a table in the copy leaves d intact.
func (d Dataset) Copy() Dataset {
	ret := make(Dataset, len(d))
	for k, t := range d {
		ret[k] = t
	}
	return ret
}

// Names returns the table names of d, known GTFS tables first in their
// canonical order, then all others sorted by name.
func (d Dataset) Names() []string {
	ret := make([]string, 0, len(d))
	for _, n := range AvailableTables {
		if d.Has(n) {
			ret = append(ret, n)
		}
	}
	others := make([]string, 0)
	for _, n := range maps.Keys(d) {
		if !slices.Contains(AvailableTables, n) {
			others = append(others, n)
		}
	}
	slices.Sort(others)
	return append(ret, others...)
}

// MissingRequired returns the required tables d does not contain
func (d Dataset) MissingRequired() []string {
	ret := make([]string, 0)
	for _, n := range RequiredTables {
		if !d.Has(n) {
			ret = append(ret, n)
		}
	}
	return ret
}
