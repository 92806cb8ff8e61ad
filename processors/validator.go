// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"os"
	"path"

	"github.com/patrickbr/gtfsparser"
	"github.com/patrickbr/gtfswriter"
)

// Validator checks a written feed by parsing it with a full GTFS parser
type Validator struct {
	ShowWarnings bool
}

// Validate the feed at location
func (v Validator) Validate(location string) error {
	feed := gtfsparser.NewFeed()
	opts := gtfsparser.ParseOptions{UseDefValueOnError: false, DropErroneous: false, DryRun: true, CheckNullCoordinates: false, EmptyStringRepl: "", ZipFix: false}
	opts.ShowWarnings = v.ShowWarnings
	feed.SetParseOpts(opts)

	return feed.Parse(location)
}

// Normalizer parses a feed and writes it back in canonical form
type Normalizer struct {
	DropErroneous       bool
	KeepAdditionalFlds  bool
	ZipCompressionLevel int
}

// Normalize the feed at src into dst
func (n Normalizer) Normalize(src string, dst string) error {
	feed := gtfsparser.NewFeed()
	opts := gtfsparser.ParseOptions{UseDefValueOnError: false, DropErroneous: false, DryRun: false, CheckNullCoordinates: false, EmptyStringRepl: "", ZipFix: false}
	opts.DropErroneous = n.DropErroneous
	opts.UseDefValueOnError = n.DropErroneous
	opts.KeepAddFlds = n.KeepAdditionalFlds
	feed.SetParseOpts(opts)

	if err := feed.Parse(src); err != nil {
		return err
	}

	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if path.Ext(dst) == ".zip" {
			f, err := os.Create(dst)
			if err != nil {
				return err
			}
			f.Close()
		} else if err := os.Mkdir(dst, os.ModePerm); err != nil {
			return err
		}
	}

	w := gtfswriter.Writer{ZipCompressionLevel: n.ZipCompressionLevel, Sorted: true, KeepColOrder: n.KeepAdditionalFlds}
	return w.Write(feed, dst)
}
