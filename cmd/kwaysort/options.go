package main

import (
	"cmp"
	"fmt"
	"os"

	"github.com/lanrat/kwaysort"
	"github.com/lanrat/kwaysort/tempfile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// options are the settings shared by every command
type options struct {
	config     *kwaysort.Config
	kind       string
	reverse    bool
	log        *logrus.Logger
	registry   *prometheus.Registry
	metricsOut string
}

// loadOptions reads the yaml config file, if any, and applies the flags on top of it.
func loadOptions(c *cli.Context) (*options, error) {
	config := kwaysort.DefaultConfig()
	if path := c.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if c.IsSet("buffer-size") {
		config.BufferSize = c.Int64("buffer-size")
	}
	if c.IsSet("temp-dir") {
		config.TempFilesDir = c.String("temp-dir")
	}
	if c.IsSet("compression") {
		if err := config.Compression.UnmarshalText([]byte(c.String("compression"))); err != nil {
			return nil, err
		}
	}

	log := logrus.New()
	log.SetOutput(c.App.ErrWriter)
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	config.Logger = log

	o := &options{
		config:     config,
		kind:       c.String("type"),
		reverse:    c.Bool("reverse"),
		log:        log,
		metricsOut: c.String("metrics-out"),
	}
	if o.metricsOut != "" {
		o.registry = prometheus.NewRegistry()
		config.Metrics = kwaysort.NewMetrics(o.registry)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch o.kind {
	case "string", "int", "float":
	default:
		return nil, fmt.Errorf("unknown record type %q", o.kind)
	}
	return o, nil
}

// finish writes the metrics file when requested and returns err.
func (o *options) finish(err error) error {
	if o.registry == nil {
		return err
	}
	if werr := prometheus.WriteToTextfile(o.metricsOut, o.registry); werr != nil && err == nil {
		return werr
	}
	return err
}

// ordering returns the natural order of T, reversed when asked to.
func ordering[T cmp.Ordered](reverse bool) kwaysort.LessFunc[T] {
	if reverse {
		return func(a, b T) bool { return cmp.Less(b, a) }
	}
	return cmp.Less[T]
}

// withTempDir returns a copy of config placing its runs in dir.
func withTempDir(config *kwaysort.Config, dir string) *kwaysort.Config {
	c := *config
	c.TempFilesDir = dir
	return &c
}

// baseTempDir is the directory holding the scratch directories of a command.
func baseTempDir(config *kwaysort.Config) string {
	return tempfile.GetTempDir(config.TempFilesDir)
}
