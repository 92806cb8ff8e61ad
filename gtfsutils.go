// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/patrickbr/gtfsutils/geo"
	"github.com/patrickbr/gtfsutils/processors"
	"github.com/patrickbr/gtfsutils/tables"
	flag "github.com/spf13/pflag"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

const version = "0.1.0"

var errUsage = errors.New("invalid usage")

func usage() {
	fmt.Fprintf(os.Stderr, "gtfsutils %s\n\nUsage:\n\n  %s <command> [<options>] <arguments>\n\nCommands:\n\n", version, os.Args[0])
	fmt.Fprintln(os.Stderr, "  filter <input GTFS> <output GTFS> [<bounds>]  filter a feed by bounds, polygon, shape or agency ids")
	fmt.Fprintln(os.Stderr, "  merge --output <output GTFS> <input GTFS>...  merge feeds, renumbering all ids")
	fmt.Fprintln(os.Stderr, "  bounds <input GTFS>                           print the bounding box of all stops")
	fmt.Fprintln(os.Stderr, "  dates <input GTFS>                            print the date range of calendar.txt")
	fmt.Fprintln(os.Stderr, "  info <input GTFS>                             print feed statistics")
	fmt.Fprintln(os.Stderr, "  routes <input GTFS>                           export routes with trip counts as GeoJSON")
	fmt.Fprintln(os.Stderr, "  shapes <input GTFS>                           export shapes as GeoJSON")
	fmt.Fprintln(os.Stderr, "  validate <input GTFS>...                      validate feeds")
	fmt.Fprintln(os.Stderr, "  normalize --output <output GTFS> <input GTFS> parse and rewrite a feed")
	fmt.Fprintln(os.Stderr, "  version                                       print version")
	fmt.Fprintln(os.Stderr, "\nRun '<command> --help' for the options of a command.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error

	switch cmd {
	case "filter":
		err = runFilter(args)
	case "merge":
		err = runMerge(args)
	case "bounds":
		err = runBounds(args)
	case "dates":
		err = runDates(args)
	case "info":
		err = runInfo(args)
	case "routes":
		err = runRoutes(args)
	case "shapes":
		err = runShapes(args)
	case "validate":
		err = runValidate(args)
	case "normalize":
		err = runNormalize(args)
	case "version":
		fmt.Fprintf(os.Stdout, "gtfsutils %s\n", version)
	case "help", "-h", "--help", "-?":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command '%s', see --help\n", cmd)
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %s\n", err.Error())
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newFlagSet(name string, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n\n  %s %s %s\n\nAllowed options:\n\n", os.Args[0], name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func (c Config) graph() tables.Graph {
	if c.Extended {
		return tables.ExtendedGraph
	}
	return tables.CoreGraph
}

// parseBounds parses a JSON array [minLon, minLat, maxLon, maxLat]
func parseBounds(s string) ([]float64, error) {
	v, err := fastjson.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", geo.ErrInvalidBounds, err.Error())
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", geo.ErrInvalidBounds, err.Error())
	}
	ret := make([]float64, len(arr))
	for i, c := range arr {
		if ret[i], err = c.Float64(); err != nil {
			return nil, fmt.Errorf("%w: %s", geo.ErrInvalidBounds, err.Error())
		}
	}
	return ret, nil
}

func load(log *zap.Logger, location string, subset ...string) (tables.Dataset, error) {
	fmt.Fprintf(os.Stdout, "Parsing GTFS feed in '%s' ...", location)
	t := time.Now()
	ds, err := tables.Load(context.Background(), location, subset...)
	if err != nil {
		fmt.Fprintln(os.Stdout)
		return nil, err
	}
	fmt.Fprintf(os.Stdout, " done.\n")
	log.Debug("loaded feed", zap.String("location", location), zap.Int("tables", len(ds)), zap.Duration("took", time.Since(t)))
	return ds, nil
}

func loadQuiet(location string, subset ...string) (tables.Dataset, error) {
	return tables.Load(context.Background(), location, subset...)
}

func write(log *zap.Logger, cfg Config, ds tables.Dataset, location string) error {
	if len(cfg.DeleteOrphans) > 0 {
		or, err := processors.MakeOrphanRemover(cfg.DeleteOrphans)
		if err != nil {
			return err
		}
		if ds, err = or.Run(ds); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Outputting GTFS feed to '%s'...", location)
	t := time.Now()
	opts := tables.WriteOptions{RequireComplete: cfg.RequireComplete, Overwrite: cfg.Overwrite, ZipCompressionLevel: cfg.ZipCompressionLevel}
	if err := tables.Write(context.Background(), ds, location, opts); err != nil {
		fmt.Fprintln(os.Stdout)
		return err
	}
	fmt.Fprintf(os.Stdout, " done.\n")
	log.Debug("wrote feed", zap.String("location", location), zap.Duration("took", time.Since(t)))

	if cfg.Validate {
		fmt.Fprintf(os.Stdout, "Validating GTFS feed in '%s' ...", location)
		if err := (processors.Validator{ShowWarnings: cfg.Verbose}).Validate(location); err != nil {
			fmt.Fprintln(os.Stdout)
			return err
		}
		fmt.Fprintf(os.Stdout, " done.\n")
	}
	return nil
}

func logCounts(log *zap.Logger, msg string, ds tables.Dataset) {
	fields := make([]zap.Field, 0, len(ds))
	for _, n := range ds.Names() {
		fields = append(fields, zap.Int(n, ds[n].Len()))
	}
	log.Debug(msg, fields...)
}

func runFilter(args []string) error {
	fs := newFlagSet("filter", "[<options>] <input GTFS> <output GTFS> [<bounds>]")
	cfg := defaultConfig()
	polygonFile := fs.StringP("polygon-file", "", "", "polygon filter, as a GeoJSON file (.json, .geojson) or a file of comma separated latitude,longitude pairs")
	shapeIDs := fs.StringSliceP("shape-ids", "", nil, "keep the given shape ids")
	agencyIDs := fs.StringSliceP("agency-ids", "", nil, "keep the given agency ids")
	if err := cfg.parseFlags(fs, args); err != nil {
		return err
	}

	if fs.NArg() < 2 || fs.NArg() > 3 {
		fs.Usage()
		return errUsage
	}
	src, dst := fs.Arg(0), fs.Arg(1)

	log := newLogger(cfg.Verbose)
	defer log.Sync()

	var proc processors.Processor
	selectors := 0

	if fs.NArg() == 3 {
		selectors++
		bounds, err := parseBounds(fs.Arg(2))
		if err != nil {
			return err
		}
		region, err := geo.BoundsRegion(bounds)
		if err != nil {
			return err
		}
		proc = processors.GeoFilter{Region: region, Predicate: geo.Predicate(cfg.Operation), Graph: cfg.graph()}
	}
	if len(*polygonFile) > 0 {
		selectors++
		region, err := geo.ReadRegionFile(*polygonFile)
		if err != nil {
			return fmt.Errorf("could not parse polygon filter file: %w", err)
		}
		proc = processors.GeoFilter{Region: region, Predicate: geo.Predicate(cfg.Operation), Graph: cfg.graph()}
	}
	if len(*shapeIDs) > 0 {
		selectors++
		proc = processors.ShapeFilter{ShapeIDs: *shapeIDs, Graph: cfg.graph()}
	}
	if len(*agencyIDs) > 0 {
		selectors++
		proc = processors.AgencyFilter{AgencyIDs: *agencyIDs, Graph: cfg.graph()}
	}

	if selectors != 1 {
		return fmt.Errorf("%w: exactly one of <bounds>, --polygon-file, --shape-ids, --agency-ids is required", errUsage)
	}

	ds, err := load(log, src)
	if err != nil {
		return err
	}
	logCounts(log, "input", ds)

	fmt.Fprintf(os.Stdout, "Filtering GTFS feed...")
	t := time.Now()
	ds, err = proc.Run(ds)
	if err != nil {
		fmt.Fprintln(os.Stdout)
		return err
	}
	fmt.Fprintf(os.Stdout, " done.\n")
	log.Debug("filtered feed", zap.Duration("took", time.Since(t)))
	logCounts(log, "output", ds)

	return write(log, cfg, ds, dst)
}

func runMerge(args []string) error {
	fs := newFlagSet("merge", "[<options>] --output <output GTFS> <input GTFS> <input GTFS>...")
	cfg := defaultConfig()
	output := fs.StringP("output", "", "", "gtfs output directory or zip file (must end with .zip)")
	if err := cfg.parseFlags(fs, args); err != nil {
		return err
	}

	if fs.NArg() < 1 || len(*output) == 0 {
		fs.Usage()
		return errUsage
	}

	log := newLogger(cfg.Verbose)
	defer log.Sync()

	dss := make([]tables.Dataset, 0, fs.NArg())
	for _, src := range fs.Args() {
		ds, err := load(log, src)
		if err != nil {
			return err
		}
		dss = append(dss, ds)
	}

	fmt.Fprintf(os.Stdout, "Merging %d GTFS feeds...", len(dss))
	t := time.Now()
	merged, err := processors.Merger{Graph: cfg.graph()}.Merge(dss)
	if err != nil {
		fmt.Fprintln(os.Stdout)
		return err
	}
	fmt.Fprintf(os.Stdout, " done.\n")
	log.Debug("merged feeds", zap.Duration("took", time.Since(t)))
	logCounts(log, "output", merged)

	return write(log, cfg, merged, *output)
}

func singleSource(fs *flag.FlagSet, cfg *Config, args []string) (string, error) {
	if err := cfg.parseFlags(fs, args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func formatBounds(b geo.Bounds) string {
	return fmt.Sprintf("[%v, %v, %v, %v]", b[0], b[1], b[2], b[3])
}

func runBounds(args []string) error {
	cfg := defaultConfig()
	src, err := singleSource(newFlagSet("bounds", "<input GTFS>"), &cfg, args)
	if err != nil {
		return err
	}

	ds, err := loadQuiet(src, tables.Stops)
	if err != nil {
		return err
	}
	b, err := geo.ComputeBoundingBox(ds)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, formatBounds(b))
	return nil
}

func runDates(args []string) error {
	cfg := defaultConfig()
	src, err := singleSource(newFlagSet("dates", "<input GTFS>"), &cfg, args)
	if err != nil {
		return err
	}

	ds, err := loadQuiet(src, tables.Calendar)
	if err != nil {
		return err
	}
	from, to, err := processors.CalendarDateRange(ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s %s\n", from.Format(processors.DateLayout), to.Format(processors.DateLayout))
	return nil
}

func runInfo(args []string) error {
	cfg := defaultConfig()
	src, err := singleSource(newFlagSet("info", "<input GTFS>"), &cfg, args)
	if err != nil {
		return err
	}

	ds, err := loadQuiet(src)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "GTFS feed '%s'\n\n", src)
	for _, n := range ds.Names() {
		fmt.Fprintf(os.Stdout, "  %-16s %10d rows\n", n+".txt", ds[n].Len())
	}
	if missing := ds.MissingRequired(); len(missing) > 0 {
		fmt.Fprintf(os.Stdout, "\n  missing required: %s\n", strings.Join(missing, ", "))
	}

	if b, err := geo.ComputeBoundingBox(ds); err == nil {
		fmt.Fprintf(os.Stdout, "\n  bounds:   %s\n", formatBounds(b))
	}
	if from, to, err := processors.CalendarDateRange(ds); err == nil {
		fmt.Fprintf(os.Stdout, "  calendar: %s - %s\n", from.Format(processors.DateLayout), to.Format(processors.DateLayout))
	}
	return nil
}

func writeJSON(output string, overwrite bool, data []byte) error {
	if len(output) == 0 {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if _, err := os.Stat(output); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", tables.ErrDestinationExists, output)
	}
	return os.WriteFile(output, data, 0644)
}

func runRoutes(args []string) error {
	fs := newFlagSet("routes", "[<options>] <input GTFS>")
	cfg := defaultConfig()
	output := fs.StringP("output", "", "", "GeoJSON output file, stdout if empty")
	src, err := singleSource(fs, &cfg, args)
	if err != nil {
		return err
	}

	ds, err := loadQuiet(src, tables.Agency, tables.Routes, tables.Trips, tables.Stops, tables.StopTimes)
	if err != nil {
		return err
	}
	routes, err := geo.BuildRouteGeometries(ds)
	if err != nil {
		return err
	}

	data, err := geo.RoutesFeatureCollection(routes, cfg.Simplify).MarshalJSON()
	if err != nil {
		return err
	}
	return writeJSON(*output, cfg.Overwrite, data)
}

func runShapes(args []string) error {
	fs := newFlagSet("shapes", "[<options>] <input GTFS>")
	cfg := defaultConfig()
	output := fs.StringP("output", "", "", "GeoJSON output file, stdout if empty")
	src, err := singleSource(fs, &cfg, args)
	if err != nil {
		return err
	}

	ds, err := loadQuiet(src, tables.Shapes)
	if err != nil {
		return err
	}
	shapes, err := ds.Table(tables.Shapes)
	if err != nil {
		return err
	}
	idx, err := geo.BuildShapeIndex(shapes)
	if err != nil {
		return err
	}

	data, err := geo.ShapesFeatureCollection(idx, cfg.Simplify).MarshalJSON()
	if err != nil {
		return err
	}
	return writeJSON(*output, cfg.Overwrite, data)
}

func runValidate(args []string) error {
	fs := newFlagSet("validate", "[<options>] <input GTFS>...")
	cfg := defaultConfig()
	if err := cfg.parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	for _, src := range fs.Args() {
		fmt.Fprintf(os.Stdout, "Parsing GTFS feed in '%s' ...", src)
		if cfg.Verbose {
			fmt.Fprintf(os.Stdout, "\n")
		}
		if err := (processors.Validator{ShowWarnings: cfg.Verbose}).Validate(src); err != nil {
			fmt.Fprintf(os.Stderr, "\nError while parsing GTFS feed:\n")
			return err
		}
		fmt.Fprintf(os.Stdout, " done.\n")
	}
	fmt.Fprintln(os.Stdout, "No errors.")
	return nil
}

func runNormalize(args []string) error {
	fs := newFlagSet("normalize", "[<options>] --output <output GTFS> <input GTFS>")
	cfg := defaultConfig()
	output := fs.StringP("output", "", "", "gtfs output directory or zip file (must end with .zip)")
	dropErrs := fs.BoolP("drop-errs", "D", false, "drop erroneous entries from feed")
	keepFields := fs.BoolP("keep-additional-fields", "F", false, "keep all non-GTFS fields from the input")
	src, err := singleSource(fs, &cfg, args)
	if err != nil {
		return err
	}
	if len(*output) == 0 {
		fs.Usage()
		return errUsage
	}
	if _, err := os.Stat(*output); err == nil && !cfg.Overwrite {
		return fmt.Errorf("%w: %s", tables.ErrDestinationExists, *output)
	}

	fmt.Fprintf(os.Stdout, "Normalizing GTFS feed in '%s' to '%s'...", src, *output)
	n := processors.Normalizer{DropErroneous: *dropErrs, KeepAdditionalFlds: *keepFields, ZipCompressionLevel: cfg.ZipCompressionLevel}
	if err := n.Normalize(src, *output); err != nil {
		fmt.Fprintln(os.Stdout)
		return err
	}
	fmt.Fprintf(os.Stdout, " done.\n")
	return nil
}
