// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

import (
	"fmt"
)

// Row holds one value per table column, in column order
type Row []Value

// Table is a named, ordered collection of rows. Transformations never
// modify a table in place, they return a new one. Row slices may be
// shared between a table and the tables derived from it.
type Table struct {
	Name    string
	Rows    []Row
	columns []string
	colIdx  map[string]int
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns []string) *Table {
	t := &Table{Name: name, columns: append([]string(nil), columns...)}
	t.colIdx = make(map[string]int, len(columns))
	for i, c := range t.columns {
		t.colIdx[c] = i
	}
	return t
}

// Columns returns the column names of t
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows in t
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether t has a column named col
func (t *Table) HasColumn(col string) bool {
	_, ok := t.colIdx[col]
	return ok
}

// ColumnIndex returns the position of col, or -1
func (t *Table) ColumnIndex(col string) int {
	if i, ok := t.colIdx[col]; ok {
		return i
	}
	return -1
}

// Append adds a row to t. The row must have one value per column.
func (t *Table) Append(vals ...Value) error {
	if len(vals) != len(t.columns) {
		return fmt.Errorf("%s: row has %d values, expected %d", t.Name, len(vals), len(t.columns))
	}
	t.Rows = append(t.Rows, Row(vals))
	return nil
}

// AppendStrings adds a row of string values, empty strings become null
func (t *Table) AppendStrings(vals ...string) error {
	row := make(Row, len(vals))
	for i, v := range vals {
		if len(v) > 0 {
			row[i] = StringValue(v)
		}
	}
	return t.Append(row...)
}

// Value returns the value of column col in row i. Missing columns read as
// null.
func (t *Table) Value(i int, col string) Value {
	c, ok := t.colIdx[col]
	if !ok {
		return NullValue()
	}
	return t.Rows[i][c]
}

// Column returns all values of col in row order
func (t *Table) Column(col string) []Value {
	ret := make([]Value, len(t.Rows))
	c, ok := t.colIdx[col]
	if !ok {
		return ret
	}
	for i, r := range t.Rows {
		ret[i] = r[c]
	}
	return ret
}

// Distinct returns the non-null values of col in order of first occurrence
func (t *Table) Distinct(col string) []Value {
	seen := make(map[string]bool)
	ret := make([]Value, 0)
	for _, v := range t.Column(col) {
		if v.IsNull() || seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		ret = append(ret, v)
	}
	return ret
}

// ValueSet returns the set of non-null values of col
func (t *Table) ValueSet(col string) map[string]bool {
	ret := make(map[string]bool)
	for _, v := range t.Column(col) {
		if !v.IsNull() {
			ret[v.String()] = true
		}
	}
	return ret
}

// Select returns a new table holding the rows for which keep returns true
func (t *Table) Select(keep func(i int, r Row) bool) *Table {
	ret := NewTable(t.Name, t.columns)
	ret.Rows = make([]Row, 0, len(t.Rows))
	for i, r := range t.Rows {
		if keep(i, r) {
			ret.Rows = append(ret.Rows, r)
		}
	}
	return ret
}

// SelectIn returns a new table holding the rows whose value in col is
// contained in ids. Rows with a null value are dropped.
func (t *Table) SelectIn(col string, ids map[string]bool) *Table {
	c := t.ColumnIndex(col)
	return t.Select(func(_ int, r Row) bool {
		if c < 0 || r[c].IsNull() {
			return false
		}
		return ids[r[c].String()]
	})
}

// MapColumn returns a copy of t with fn applied to every value of col. If
// t has no column col, it is added.
func (t *Table) MapColumn(col string, fn func(Value) Value) *Table {
	cols := t.columns
	c, ok := t.colIdx[col]
	if !ok {
		cols = append(append([]string(nil), t.columns...), col)
		c = len(cols) - 1
	}
	ret := NewTable(t.Name, cols)
	ret.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(cols))
		copy(nr, r)
		nr[c] = fn(nr[c])
		ret.Rows[i] = nr
	}
	return ret
}

// Clone returns a deep copy of t
func (t *Table) Clone() *Table {
	ret := NewTable(t.Name, t.columns)
	ret.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		ret.Rows[i] = append(Row(nil), r...)
	}
	return ret
}

// Concat appends the rows of all tables in order. The result has the union
// of all columns in order of first appearance, cells of columns a table
// does not have are null.
func Concat(name string, ts ...*Table) *Table {
	cols := make([]string, 0)
	seen := make(map[string]bool)
	n := 0
	for _, t := range ts {
		n += t.Len()
		for _, c := range t.columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	ret := NewTable(name, cols)
	ret.Rows = make([]Row, 0, n)
	for _, t := range ts {
		for _, r := range t.Rows {
			nr := make(Row, len(cols))
			for i, c := range t.columns {
				nr[ret.colIdx[c]] = r[i]
			}
			ret.Rows = append(ret.Rows, nr)
		}
	}
	return ret
}
