// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"fmt"

	"github.com/patrickbr/gtfsutils/tables"
)

// cascade propagates the retained rows of table root through g. Tables are
// visited breadth first, each one once: a dependent keeps the rows whose
// references all point to retained keys, a referenced table keeps the
// rows whose key is still referenced. Tables not reachable from root are
// left untouched.
//
// A dependent without any of the reference columns of a link is kept as a
// whole if the referenced table kept all of its rows, otherwise there is
// no way to tell its rows apart and an error is returned.
func cascade(ds tables.Dataset, g tables.Graph, root string, retained *tables.Table) (tables.Dataset, error) {
	out := ds.Copy()
	out[root] = retained

	links := g.Links()
	visited := map[string]bool{root: true}
	queue := []string{root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, l := range links {
			if l.Parent == cur && !visited[l.Child] && out.Has(l.Child) {
				if !hasAnyColumn(out[l.Child], l.Columns) {
					if out[cur].Len() != ds[cur].Len() {
						return nil, fmt.Errorf("%w: %s has no column %v referencing %s", tables.ErrMissingColumn, l.Child, l.Columns, l.Parent)
					}
				} else {
					out[l.Child] = selectReferencing(out[l.Child], l, out[cur].ValueSet(l.Key))
				}
			} else if l.Child == cur && !visited[l.Parent] && out.Has(l.Parent) {
				refs, ok := referenced(out[cur], l)
				if !ok {
					// nothing to derive the referenced rows from
					continue
				}
				out[l.Parent] = out[l.Parent].SelectIn(l.Key, refs)
			} else {
				continue
			}

			next := l.Child
			if l.Child == cur {
				next = l.Parent
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return out, nil
}

func hasAnyColumn(t *tables.Table, cols []string) bool {
	for _, c := range cols {
		if t.HasColumn(c) {
			return true
		}
	}
	return false
}

// selectReferencing keeps the rows of t whose reference columns all point
// into keys. Null references are only kept for optional links.
func selectReferencing(t *tables.Table, l tables.Link, keys map[string]bool) *tables.Table {
	cols := make([]int, len(l.Columns))
	for i, c := range l.Columns {
		cols[i] = t.ColumnIndex(c)
	}

	return t.Select(func(_ int, r tables.Row) bool {
		for _, c := range cols {
			if c < 0 || r[c].IsNull() {
				if l.Optional {
					continue
				}
				return false
			}
			if !keys[r[c].String()] {
				return false
			}
		}
		return true
	})
}

// referenced collects the values of the reference columns of l in t. If t
// has none of these columns, ok is false.
func referenced(t *tables.Table, l tables.Link) (refs map[string]bool, ok bool) {
	refs = make(map[string]bool)
	for _, c := range l.Columns {
		if !t.HasColumn(c) {
			continue
		}
		ok = true
		for id := range t.ValueSet(c) {
			refs[id] = true
		}
	}
	return refs, ok
}
