// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// WriteOptions control how a dataset is written
type WriteOptions struct {
	// RequireComplete fails the write if a required table is missing
	RequireComplete bool

	// Overwrite an existing output
	Overwrite bool

	// ZipCompressionLevel between 0 (store) and 9
	ZipCompressionLevel int
}

// Write serializes every table of ds as <name>.txt into location. If
// location ends with .zip, a ZIP archive is written, otherwise a
// directory.
func Write(ctx context.Context, ds Dataset, location string, opts WriteOptions) error {
	if opts.RequireComplete {
		if missing := ds.MissingRequired(); len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrMissingRequiredTables, strings.Join(missing, ", "))
		}
	}

	if _, err := os.Stat(location); err == nil && !opts.Overwrite {
		return fmt.Errorf("%w: %s", ErrDestinationExists, location)
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}

	if path.Ext(location) == ".zip" {
		return writeZip(ctx, ds, location, opts.ZipCompressionLevel)
	}
	return writeDir(ctx, ds, location)
}

func writeDir(ctx context.Context, ds Dataset, dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	// tables of a previous feed that ds does not have must not survive
	for _, name := range AvailableTables {
		if ds.Has(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name+".txt")); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	for _, name := range ds.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := os.Create(filepath.Join(dir, name+".txt"))
		if err != nil {
			return err
		}
		err = WriteCSV(ds[name], f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// the archive is written to a temporary file first, so a failed write
// never leaves a truncated feed behind
func writeZip(ctx context.Context, ds Dataset, archive string, level int) error {
	if level < 0 || level > 9 {
		return fmt.Errorf("zip compression level %d out of range [0, 9]", level)
	}

	tmp, err := os.CreateTemp(filepath.Dir(archive), ".gtfsutils-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := zip.NewWriter(tmp)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	method := zip.Deflate
	if level == 0 {
		method = zip.Store
	}

	for _, name := range ds.Names() {
		if err = ctx.Err(); err != nil {
			break
		}
		var fw io.Writer
		fw, err = w.CreateHeader(&zip.FileHeader{Name: name + ".txt", Method: method})
		if err != nil {
			break
		}
		if err = WriteCSV(ds[name], fw); err != nil {
			break
		}
	}

	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), archive)
}

// WriteCSV writes t in GTFS CSV format, null values as empty cells
func WriteCSV(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}

	rec := make([]string, len(t.columns))
	for _, r := range t.Rows {
		for i, v := range r {
			rec[i] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
