// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

import "errors"

var (
	// ErrMissingTable is returned if an operation needs a table the
	// dataset does not contain
	ErrMissingTable = errors.New("missing table")

	// ErrMissingRequiredTables is returned by Write if a complete feed was
	// requested but required tables are absent
	ErrMissingRequiredTables = errors.New("missing required tables")

	// ErrDestinationExists is returned by Write if the output exists and
	// overwriting is not allowed
	ErrDestinationExists = errors.New("destination exists")

	// ErrMissingColumn is returned if rows cannot be related because a
	// table lacks the referencing column
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidValue is returned if a cell cannot be parsed as the type
	// an operation needs
	ErrInvalidValue = errors.New("invalid value")
)
