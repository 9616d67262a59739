package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lanrat/kwaysort"
	"github.com/lanrat/kwaysort/diff"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "sort two files and print the records found in only one of them",
		ArgsUsage: "A B",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print the diff counts to stderr",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("diff needs two inputs A and B", 2)
			}
			o, err := loadOptions(c)
			if err != nil {
				return err
			}
			r, err := runDiff(c.Context, o, c.Args().Get(0), c.Args().Get(1), c.App.Writer)
			if err == nil && c.Bool("stats") {
				fmt.Fprintln(c.App.ErrWriter, r.String())
			}
			return o.finish(err)
		},
	}
}

func runDiff(ctx context.Context, o *options, a, b string, w io.Writer) (diff.Result, error) {
	switch o.kind {
	case "int":
		return diffFiles(ctx, o, a, b, kwaysort.Int[int64](), ordering[int64](o.reverse), w)
	case "float":
		return diffFiles(ctx, o, a, b, kwaysort.Float[float64](), ordering[float64](o.reverse), w)
	default:
		return diffFiles(ctx, o, a, b, kwaysort.String(), ordering[string](o.reverse), w)
	}
}

// diffFiles sorts a and b concurrently, each Sorter using its own scratch
// directory, then diffs the two sorted outputs.
func diffFiles[E any](ctx context.Context, o *options, a, b string, codec kwaysort.Codec[E], less kwaysort.LessFunc[E], w io.Writer) (diff.Result, error) {
	scratch, err := os.MkdirTemp(baseTempDir(o.config), "kwaysort-diff-")
	if err != nil {
		return diff.Result{}, err
	}
	defer os.RemoveAll(scratch)

	inputs := []string{a, b}
	sorted := make([]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		runs := filepath.Join(scratch, fmt.Sprintf("runs-%d", i))
		sorted[i] = filepath.Join(scratch, fmt.Sprintf("sorted-%d", i))
		g.Go(func() error {
			f, err := os.Create(sorted[i])
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := sortInput(gctx, kwaysort.File(input), f, codec, less, withTempDir(o.config, runs)); err != nil {
				return fmt.Errorf("sort %s: %w", input, err)
			}
			return f.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return diff.Result{}, err
	}

	fa, err := os.Open(sorted[0])
	if err != nil {
		return diff.Result{}, err
	}
	defer fa.Close()
	fb, err := os.Open(sorted[1])
	if err != nil {
		return diff.Result{}, err
	}
	defer fb.Close()

	printer := diff.Printer[string](w)
	return diff.Generic(ctx, kwaysort.Scan(fa, codec), kwaysort.Scan(fb, codec), diff.LessFunc[E](less),
		func(d diff.Delta, rec E) error {
			line, err := codec.Encode(rec)
			if err != nil {
				return err
			}
			return printer(d, line)
		})
}
