// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"errors"
	"fmt"

	"github.com/patrickbr/gtfsutils/tables"
	"golang.org/x/exp/slices"
)

// ErrMergeIntegrity is matched by every MergeIntegrityError
var ErrMergeIntegrity = errors.New("merge integrity")

// MergeIntegrityError reports an identifier column of a merged dataset
// that violates the renumbering contract
type MergeIntegrityError struct {
	Table  string
	Column string
	Reason string
}

func (e *MergeIntegrityError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", ErrMergeIntegrity, e.Table, e.Column, e.Reason)
}

// Is makes errors.Is(err, ErrMergeIntegrity) hold
func (e *MergeIntegrityError) Is(target error) bool {
	return target == ErrMergeIntegrity
}

// Merger combines datasets into one. Identifiers of every graph entity are
// replaced by integers, numbered consecutively over all datasets in input
// order, and all references are rewritten accordingly.
type Merger struct {
	Graph tables.Graph
}

// idMap maps the original identifiers of one entity in one dataset to
// their new numbers
type idMap map[string]int64

func (m idMap) rewrite(unmapped *int) func(tables.Value) tables.Value {
	return func(v tables.Value) tables.Value {
		if v.IsNull() {
			return v
		}
		if n, ok := m[v.String()]; ok {
			return tables.IntValue(n)
		}
		*unmapped++
		return tables.NullValue()
	}
}

// Merge the datasets, in order
func (m Merger) Merge(dss []tables.Dataset) (tables.Dataset, error) {
	g := graphOrCore(m.Graph)

	offsets := make(map[string]int64, len(g))
	unmapped := make(map[string]int)
	work := make([]tables.Dataset, len(dss))

	for i, ds := range dss {
		work[i] = ds.Copy()

		for _, e := range g {
			ids := make([]tables.Value, 0)
			if t, ok := work[i][e.Name]; ok {
				ids = t.Distinct(e.Key)
			}

			mapping := make(idMap, len(ids))
			for j, id := range ids {
				mapping[id.String()] = offsets[e.Name] + int64(j)
			}
			offsets[e.Name] += int64(len(ids))

			if t, ok := work[i][e.Name]; ok && t.HasColumn(e.Key) {
				n := 0
				work[i][e.Name] = t.MapColumn(e.Key, mapping.rewrite(&n))
			}

			for _, d := range e.Dependents {
				dt, ok := work[i][d.Table]
				if !ok {
					continue
				}
				for _, col := range e.ReferenceColumns(d) {
					if !dt.HasColumn(col) {
						continue
					}
					n := 0
					dt = dt.MapColumn(col, mapping.rewrite(&n))
					unmapped[d.Table+"."+col] += n
				}
				work[i][d.Table] = dt
			}
		}
	}

	merged := concatDatasets(work)

	if err := validateMerged(merged, g, unmapped); err != nil {
		return nil, err
	}

	return merged, nil
}

// concatDatasets concatenates same-named tables in dataset order
func concatDatasets(dss []tables.Dataset) tables.Dataset {
	names := make([]string, 0)
	for _, ds := range dss {
		for _, n := range ds.Names() {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}

	ret := make(tables.Dataset, len(names))
	for _, n := range names {
		parts := make([]*tables.Table, 0, len(dss))
		for _, ds := range dss {
			if t, ok := ds[n]; ok {
				parts = append(parts, t)
			}
		}
		ret[n] = tables.Concat(n, parts...)
	}
	return ret
}

func validateMerged(ds tables.Dataset, g tables.Graph, unmapped map[string]int) error {
	for _, e := range g {
		if t, ok := ds[e.Name]; ok {
			if err := validateKeys(t, e); err != nil {
				return err
			}
		}

		for _, d := range e.Dependents {
			dt, ok := ds[d.Table]
			if !ok {
				continue
			}
			for _, col := range e.ReferenceColumns(d) {
				if !dt.HasColumn(col) {
					continue
				}
				if n := unmapped[d.Table+"."+col]; n > 0 {
					return &MergeIntegrityError{d.Table, col, fmt.Sprintf("%d references to unknown %s", n, e.Name)}
				}
				if d.Optional {
					continue
				}
				for i, v := range dt.Column(col) {
					if v.IsNull() {
						return &MergeIntegrityError{d.Table, col, fmt.Sprintf("null reference in row %d", i)}
					}
				}
			}
		}
	}
	return nil
}

func validateKeys(t *tables.Table, e tables.Entity) error {
	if !t.HasColumn(e.Key) {
		if t.Len() == 0 {
			return nil
		}
		return &MergeIntegrityError{e.Name, e.Key, "missing identifier column"}
	}

	seen := make(map[int64]bool, t.Len())
	var last int64 = -1

	for i, v := range t.Column(e.Key) {
		if v.IsNull() {
			return &MergeIntegrityError{e.Name, e.Key, fmt.Sprintf("null identifier in row %d", i)}
		}
		if e.Repeated {
			continue
		}

		id, err := v.Int()
		if err != nil {
			return &MergeIntegrityError{e.Name, e.Key, err.Error()}
		}
		if seen[id] {
			return &MergeIntegrityError{e.Name, e.Key, fmt.Sprintf("identifier %d not unique", id)}
		}
		if id < last {
			return &MergeIntegrityError{e.Name, e.Key, fmt.Sprintf("identifier %d in row %d not monotonic", id, i)}
		}
		seen[id] = true
		last = id
	}
	return nil
}

// MergeDatasets merges the datasets in order using the core graph
func MergeDatasets(dss ...tables.Dataset) (tables.Dataset, error) {
	return Merger{}.Merge(dss)
}
