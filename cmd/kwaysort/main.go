// Command kwaysort sorts large line-oriented files with bounded memory and
// compares sorted files.
//
//	kwaysort --buffer-size 64000000 sort -o sorted.txt input.txt
//	kwaysort --type int --reverse sort numbers.txt
//	kwaysort diff old.txt new.txt
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "kwaysort:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "kwaysort",
		Usage: "bounded memory external merge sort for line oriented files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load sort settings from a yaml `FILE`",
				EnvVars: []string{"KWAYSORT_CONFIG"},
			},
			&cli.Int64Flag{
				Name:    "buffer-size",
				Aliases: []string{"b"},
				Usage:   "in-memory budget of a run in bytes",
			},
			&cli.StringFlag{
				Name:    "temp-dir",
				Aliases: []string{"T"},
				Usage:   "directory for run files, defaults to the directory of the input",
				EnvVars: []string{"KWAYSORT_TMPDIR"},
			},
			&cli.StringFlag{
				Name:  "compression",
				Usage: "run file compression: none, gzip, zstd or lz4",
			},
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Value:   "string",
				Usage:   "record type: string, int or float",
			},
			&cli.BoolFlag{
				Name:    "reverse",
				Aliases: []string{"r"},
				Usage:   "sort in descending order",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warning",
				Usage: "logrus level of the progress written to stderr",
			},
			&cli.StringFlag{
				Name:  "metrics-out",
				Usage: "write prometheus metrics in the text exposition format to `FILE` when done",
			},
		},
		Commands: []*cli.Command{
			sortCommand(),
			diffCommand(),
		},
	}
}
