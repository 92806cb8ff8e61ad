// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package tables

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/exp/slices"
)

// Load reads all tables from a GTFS location, which is either a directory
// or a ZIP archive. If subset is given, only the named tables are read.
// Empty cells are read as null, all other cells as strings.
func Load(ctx context.Context, location string, subset ...string) (Dataset, error) {
	fi, err := os.Stat(location)
	if err != nil {
		return nil, err
	}

	if fi.IsDir() {
		return loadDir(ctx, location, subset)
	}
	return loadZip(ctx, location, subset)
}

func tableName(file string) (string, bool) {
	base := path.Base(filepath.ToSlash(file))
	if !strings.HasSuffix(base, ".txt") || strings.HasPrefix(base, ".") {
		return "", false
	}
	return strings.TrimSuffix(base, ".txt"), true
}

func wanted(name string, subset []string) bool {
	return len(subset) == 0 || slices.Contains(subset, name)
}

func loadDir(ctx context.Context, dir string, subset []string) (Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ds := make(Dataset)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		name, ok := tableName(e.Name())
		if !ok || !wanted(name, subset) {
			continue
		}

		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		t, err := ReadCSV(name, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		ds[name] = t
	}
	return ds, nil
}

func loadZip(ctx context.Context, archive string, subset []string) (Dataset, error) {
	z, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer z.Close()

	ds := make(Dataset)
	for _, f := range z.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		name, ok := tableName(f.Name)
		if !ok || !wanted(name, subset) || ds.Has(name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		t, err := ReadCSV(name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		ds[name] = t
	}
	return ds, nil
}

// ReadCSV reads a single table in GTFS CSV format. Short rows are padded
// with null values, surplus cells are dropped.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)

	// skip UTF-8 byte order mark
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewTable(name, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s.txt: %w", name, err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	t := NewTable(name, cols)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s.txt: %w", name, err)
		}
		row := make(Row, len(cols))
		for i := 0; i < len(cols) && i < len(rec); i++ {
			if v := strings.TrimSpace(rec[i]); len(v) > 0 {
				row[i] = StringValue(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
