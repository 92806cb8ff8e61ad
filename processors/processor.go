// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"github.com/patrickbr/gtfsutils/tables"
)

// Processor transforms a dataset into a new one. The input dataset is
// left untouched, on error no partial result is returned.
type Processor interface {
	Run(tables.Dataset) (tables.Dataset, error)
}

func graphOrCore(g tables.Graph) tables.Graph {
	if g == nil {
		return tables.CoreGraph
	}
	return g
}

func idSet(ids []string) map[string]bool {
	ret := make(map[string]bool, len(ids))
	for _, id := range ids {
		ret[id] = true
	}
	return ret
}
