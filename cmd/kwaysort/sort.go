package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lanrat/kwaysort"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func sortCommand() *cli.Command {
	return &cli.Command{
		Name:      "sort",
		Usage:     "sort the lines of a file, - reads stdin",
		ArgsUsage: "INPUT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the sorted records to `FILE` instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("sort needs exactly one INPUT", 2)
			}
			o, err := loadOptions(c)
			if err != nil {
				return err
			}
			return o.finish(runSort(c.Context, o, c.Args().First(), c.String("output"), c.App.Writer))
		},
	}
}

func runSort(ctx context.Context, o *options, inputPath, outputPath string, stdout io.Writer) (err error) {
	input := kwaysort.File(inputPath)
	if inputPath == "-" {
		input = kwaysort.Func("stdin", func() (io.ReadCloser, error) {
			return io.NopCloser(os.Stdin), nil
		})
	}

	out := stdout
	if outputPath != "" {
		f, ferr := os.Create(outputPath)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	var stats kwaysort.PassStats
	switch o.kind {
	case "int":
		stats, err = sortInput(ctx, input, out, kwaysort.Int[int64](), ordering[int64](o.reverse), o.config)
	case "float":
		stats, err = sortInput(ctx, input, out, kwaysort.Float[float64](), ordering[float64](o.reverse), o.config)
	default:
		stats, err = sortInput(ctx, input, out, kwaysort.String(), ordering[string](o.reverse), o.config)
	}
	if err != nil {
		return fmt.Errorf("sort %s: %w", inputPath, err)
	}
	o.log.WithFields(logrus.Fields{
		"input":     inputPath,
		"records":   stats.RecordsEmitted,
		"runs":      stats.Runs,
		"in_memory": stats.InMemory,
	}).Info("sorted")
	return nil
}

// sortInput runs one eager pass of input into out.
func sortInput[E any](ctx context.Context, input kwaysort.Input, out io.Writer, codec kwaysort.Codec[E], less kwaysort.LessFunc[E], config *kwaysort.Config) (kwaysort.PassStats, error) {
	s, err := kwaysort.New(input, out, codec, less, config)
	if err != nil {
		return kwaysort.PassStats{}, err
	}
	defer s.Close()
	if err := s.Sort(ctx); err != nil {
		return s.Stats(), err
	}
	return s.Stats(), nil
}
