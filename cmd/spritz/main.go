// Command spritz hashes, authenticates, and encrypts files with the Spritz sponge.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	logJSONFlag = &cli.BoolFlag{
		Name:  "log.json",
		Usage: "format logs as JSON",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level (debug, info, warn, error)",
		Value: "info",
	}
	jobsFlag = &cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of files to process concurrently",
		EnvVars: []string{"SPRITZ_JOBS"},
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "spritz",
		Usage: "hash, authenticate, and encrypt files with Spritz",
		Flags: []cli.Flag{configFlag, logJSONFlag, verbosityFlag},
		Commands: []*cli.Command{
			hashCommand,
			macCommand,
			encryptCommand,
			decryptCommand,
			checkCommand,
			dumpconfigCommand,
		},
	}
}

// newLogger returns a logger which writes to the app's error writer in the format and at the level given by flags.
func newLogger(ctx *cli.Context) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(ctx.String(verbosityFlag.Name))); err != nil {
		return nil, fmt.Errorf("invalid verbosity: %w", err)
	}

	var w io.Writer = os.Stderr
	if ctx.App.ErrWriter != nil {
		w = ctx.App.ErrWriter
	}

	opts := &slog.HandlerOptions{Level: level} //nolint:exhaustruct // defaults
	if ctx.Bool(logJSONFlag.Name) {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
