// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

import (
	"fmt"
	"strconv"
)

// Kind is the type of a single cell value
type Kind uint8

const (
	Null Kind = iota
	String
	Int
	Float
)

// Value is a single cell of a table
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
}

// NullValue returns the empty cell
func NullValue() Value {
	return Value{}
}

// StringValue wraps s
func StringValue(s string) Value {
	return Value{kind: String, str: s}
}

// IntValue wraps i
func IntValue(i int64) Value {
	return Value{kind: Int, i: i}
}

// FloatValue wraps f
func FloatValue(f float64) Value {
	return Value{kind: Float, f: f}
}

// Kind returns the type of v
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is empty
func (v Value) IsNull() bool {
	return v.kind == Null
}

// String returns the CSV representation of v, null values are written as
// the empty string.
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.str
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return ""
}

// Float parses v as a floating point number
func (v Value) Float() (float64, error) {
	switch v.kind {
	case Int:
		return float64(v.i), nil
	case Float:
		return v.f, nil
	case String:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s' is not a number", ErrInvalidValue, v.str)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: empty value", ErrInvalidValue)
}

// Int parses v as an integer. Float strings with an integral value
// ("3.0") are accepted.
func (v Value) Int() (int64, error) {
	switch v.kind {
	case Int:
		return v.i, nil
	case Float:
		return int64(v.f), nil
	case String:
		i, err := strconv.ParseInt(v.str, 10, 64)
		if err == nil {
			return i, nil
		}
		f, ferr := strconv.ParseFloat(v.str, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%w: '%s' is not an integer", ErrInvalidValue, v.str)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("%w: empty value", ErrInvalidValue)
}

// Equal compares two values by their CSV representation, null values are
// only equal to null values.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	return v.String() == o.String()
}
