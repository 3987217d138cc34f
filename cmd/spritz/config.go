package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/codahale/spritz/internal/envelope"
	"github.com/urfave/cli/v2"
)

type config struct {
	Jobs   int             `toml:"jobs"`
	Hash   hashConfig      `toml:"hash"`
	Crypt  cryptConfig     `toml:"crypt"`
	Argon2 envelope.Params `toml:"argon2"`
}

type hashConfig struct {
	Size     int    `toml:"size"`
	Encoding string `toml:"encoding"`
}

type cryptConfig struct {
	OutDir string `toml:"odir"`
}

func defaultConfig() config {
	return config{
		Jobs:   4,
		Hash:   hashConfig{Size: 32, Encoding: "hex"},
		Crypt:  cryptConfig{OutDir: ""},
		Argon2: envelope.DefaultParams(),
	}
}

// loadConfig returns the default configuration, overridden by the --config file if one is given, overridden by any
// flags which are set.
func loadConfig(ctx *cli.Context) (config, error) {
	cfg := defaultConfig()

	if path := ctx.String(configFlag.Name); path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("could not read config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if ctx.IsSet(jobsFlag.Name) {
		cfg.Jobs = ctx.Int(jobsFlag.Name)
	}
	if ctx.IsSet(sizeFlag.Name) {
		cfg.Hash.Size = ctx.Int(sizeFlag.Name)
	}
	if ctx.IsSet(encodingFlag.Name) {
		cfg.Hash.Encoding = ctx.String(encodingFlag.Name)
	}
	if ctx.IsSet(outDirFlag.Name) {
		cfg.Crypt.OutDir = ctx.Path(outDirFlag.Name)
	}
	if ctx.IsSet(argonTimeFlag.Name) {
		cfg.Argon2.Time = uint32(ctx.Uint(argonTimeFlag.Name)) //nolint:gosec // checked by Validate
	}
	if ctx.IsSet(argonMemoryFlag.Name) {
		cfg.Argon2.Memory = uint32(ctx.Uint(argonMemoryFlag.Name)) //nolint:gosec // checked by Validate
	}
	if ctx.IsSet(argonThreadsFlag.Name) {
		cfg.Argon2.Threads = uint8(ctx.Uint(argonThreadsFlag.Name)) //nolint:gosec // checked by Validate
	}

	return cfg, cfg.validate()
}

func (cfg *config) validate() error {
	if cfg.Jobs < 1 {
		return fmt.Errorf("jobs must be positive (got %d)", cfg.Jobs)
	}
	if _, err := encoder(cfg.Hash.Encoding); err != nil {
		return err
	}
	return cfg.Argon2.Validate()
}

var dumpconfigCommand = &cli.Command{
	Name:   "dumpconfig",
	Usage:  "Export the effective configuration as TOML",
	Flags:  []cli.Flag{jobsFlag, sizeFlag, encodingFlag, outDirFlag, argonTimeFlag, argonMemoryFlag, argonThreadsFlag},
	Action: dumpconfig,
}

func dumpconfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	if w == nil {
		w = os.Stdout
	}
	return toml.NewEncoder(w).Encode(cfg)
}
