// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"os"

	"github.com/go-playground/validator/v10"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the options shared by all commands. It can be read from a
// YAML file, explicitly given command line flags take precedence.
type Config struct {
	Operation           string   `yaml:"operation" validate:"oneof=within intersects"`
	Overwrite           bool     `yaml:"overwrite"`
	RequireComplete     bool     `yaml:"requireComplete"`
	ZipCompressionLevel int      `yaml:"zipCompressionLevel" validate:"gte=0,lte=9"`
	Extended            bool     `yaml:"extended"`
	Validate            bool     `yaml:"validate"`
	DeleteOrphans       []string `yaml:"deleteOrphans" validate:"dive,oneof=all agency routes services shapes stops transfers trips"`
	Simplify            float64  `yaml:"simplify" validate:"gte=0"`
	Verbose             bool     `yaml:"verbose"`
}

func defaultConfig() Config {
	return Config{Operation: "within", ZipCompressionLevel: 9}
}

// loadConfig reads a YAML config file on top of the defaults
func loadConfig(file string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(file)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	return validator.New().Struct(c)
}

// addFlags binds the config fields to flags of fs
func (c *Config) addFlags(fs *flag.FlagSet) *string {
	fs.StringVarP(&c.Operation, "operation", "o", c.Operation, "spatial filter operation (within, intersects)")
	fs.BoolVarP(&c.Overwrite, "overwrite", "", c.Overwrite, "overwrite output if it exists")
	fs.BoolVarP(&c.RequireComplete, "require-complete", "", c.RequireComplete, "fail if the output lacks a required GTFS file")
	fs.IntVarP(&c.ZipCompressionLevel, "zip-compression-level", "", c.ZipCompressionLevel, "output ZIP file compression level, between 0 and 9")
	fs.BoolVarP(&c.Extended, "extended", "", c.Extended, "also cascade to/renumber services of trips, frequencies, pathways and fare rules")
	fs.BoolVarP(&c.Validate, "validate", "", c.Validate, "parse the written feed again to validate it")
	fs.StringSliceVarP(&c.DeleteOrphans, "delete-orphans", "", c.DeleteOrphans, "remove unreferenced entities afterwards (all, agency, routes, services, shapes, stops, transfers, trips)")
	fs.Float64VarP(&c.Simplify, "simplify", "", c.Simplify, "simplify exported lines with this tolerance in meters")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "verbose output")
	return fs.StringP("config", "", "", "YAML configuration file")
}

// applyFile takes every value from file whose flag was not set explicitly
func (c *Config) applyFile(fs *flag.FlagSet, file Config) {
	if !fs.Changed("operation") {
		c.Operation = file.Operation
	}
	if !fs.Changed("overwrite") {
		c.Overwrite = file.Overwrite
	}
	if !fs.Changed("require-complete") {
		c.RequireComplete = file.RequireComplete
	}
	if !fs.Changed("zip-compression-level") {
		c.ZipCompressionLevel = file.ZipCompressionLevel
	}
	if !fs.Changed("extended") {
		c.Extended = file.Extended
	}
	if !fs.Changed("validate") {
		c.Validate = file.Validate
	}
	if !fs.Changed("delete-orphans") {
		c.DeleteOrphans = file.DeleteOrphans
	}
	if !fs.Changed("simplify") {
		c.Simplify = file.Simplify
	}
	if !fs.Changed("verbose") {
		c.Verbose = file.Verbose
	}
}

// parseFlags parses args into c, reading the config file if one is given
func (c *Config) parseFlags(fs *flag.FlagSet, args []string) error {
	configFile := c.addFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(*configFile) > 0 {
		file, err := loadConfig(*configFile)
		if err != nil {
			return err
		}
		c.applyFile(fs, file)
	}

	return c.validate()
}
