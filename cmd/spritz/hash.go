package main

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/codahale/spritz"
	"github.com/codahale/spritz/digest"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	sizeFlag = &cli.IntFlag{
		Name:    "size",
		Aliases: []string{"s"},
		Usage:   "output size in bytes (1-255)",
	}
	encodingFlag = &cli.StringFlag{
		Name:    "encoding",
		Aliases: []string{"e"},
		Usage:   "output encoding (hex or base64)",
	}
	domainFlag = &cli.StringFlag{
		Name:  "domain",
		Usage: "hash in the named domain",
	}
	keyFlag = &cli.StringFlag{
		Name:    "key",
		Usage:   "MAC key",
		EnvVars: []string{"SPRITZ_KEY"},
	}
	keyFileFlag = &cli.PathFlag{
		Name:  "key.file",
		Usage: "file containing the MAC key",
	}
)

var hashCommand = &cli.Command{
	Name:      "hash",
	Usage:     "Compute the Spritz hash of files",
	ArgsUsage: "[file or directory ...]",
	Description: `Hashes each regular file named, walking directories recursively. With no arguments, or with "-",
standard input is hashed.`,
	Flags:  []cli.Flag{sizeFlag, encodingFlag, domainFlag, jobsFlag},
	Action: hashFiles,
}

var macCommand = &cli.Command{
	Name:      "mac",
	Usage:     "Compute the Spritz MAC of files",
	ArgsUsage: "[file or directory ...]",
	Flags:     []cli.Flag{keyFlag, keyFileFlag, sizeFlag, encodingFlag, jobsFlag},
	Action:    macFiles,
}

func hashFiles(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	newHash := func() (hash.Hash, error) { return digest.New(cfg.Hash.Size) }
	if domain := ctx.String(domainFlag.Name); domain != "" {
		newHash = func() (hash.Hash, error) { return digest.NewMAC([]byte(domain), cfg.Hash.Size) }
	}
	return sumFiles(ctx, &cfg, newHash)
}

func macFiles(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	key, err := readSecret(ctx, keyFlag, keyFileFlag)
	if err != nil {
		return err
	}

	return sumFiles(ctx, &cfg, func() (hash.Hash, error) { return digest.NewMAC(key, cfg.Hash.Size) })
}

// sumFiles hashes the files named by the command's arguments with up to cfg.Jobs hashes running at once, and prints
// the results in argument order. Files which cannot be read are logged and counted.
func sumFiles(ctx *cli.Context, cfg *config, newHash func() (hash.Hash, error)) error {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}

	encode, err := encoder(cfg.Hash.Encoding)
	if err != nil {
		return err
	}

	// Catch an invalid size before starting any work.
	if _, err := newHash(); err != nil {
		return err
	}

	var failures atomic.Int64
	files := expandArgs(log, ctx.Args().Slice(), &failures)
	results := make([]string, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Jobs)
	for i, name := range files {
		g.Go(func() error {
			sum, err := sumFile(ctx, name, newHash)
			if err != nil {
				log.Error("failed to hash file", "file", name, "err", err)
				failures.Add(1)
				return nil
			}
			log.Debug("hashed file", "file", name, "size", len(sum))
			results[i] = fmt.Sprintf("%s: %s", name, encode(sum))
			return nil
		})
	}
	_ = g.Wait()

	w := output(ctx)
	for _, line := range results {
		if line != "" {
			fmt.Fprintln(w, line)
		}
	}

	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d file(s) failed", n)
	}
	return nil
}

func sumFile(ctx *cli.Context, name string, newHash func() (hash.Hash, error)) ([]byte, error) {
	h, err := newHash()
	if err != nil {
		return nil, err
	}

	r, closer, err := openInput(ctx, name)
	if err != nil {
		return nil, err
	}
	defer closer()

	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// expandArgs returns the regular files named by args, walking any directories. No arguments means standard input.
func expandArgs(log *slog.Logger, args []string, failures *atomic.Int64) []string {
	if len(args) == 0 {
		return []string{"-"}
	}

	var files []string
	for _, arg := range args {
		if arg == "-" {
			files = append(files, arg)
			continue
		}

		err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			log.Error("failed to read path", "path", arg, "err", err)
			failures.Add(1)
		}
	}
	return files
}

func encoder(name string) (func([]byte) string, error) {
	switch name {
	case "hex":
		return hex.EncodeToString, nil
	case "base64":
		return base64.StdEncoding.EncodeToString, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// readSecret returns the value of the given flag, or the contents of the given file flag.
func readSecret(ctx *cli.Context, flag *cli.StringFlag, fileFlag *cli.PathFlag) ([]byte, error) {
	if path := ctx.Path(fileFlag.Name); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", fileFlag.Name, err)
		}
		if err := spritz.CheckNonEmpty(fileFlag.Name, b); err != nil {
			return nil, err
		}
		return b, nil
	}

	if v := ctx.String(flag.Name); v != "" {
		return []byte(v), nil
	}

	return nil, fmt.Errorf("%w: --%s or --%s", errMissingSecret, flag.Name, fileFlag.Name)
}

var errMissingSecret = errors.New("missing secret")

// openInput opens the named file, or the app's reader if name is "-".
func openInput(ctx *cli.Context, name string) (io.Reader, func(), error) {
	if name == "-" {
		r := ctx.App.Reader
		if r == nil {
			r = os.Stdin
		}
		return r, func() {}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func output(ctx *cli.Context) io.Writer {
	if ctx.App.Writer != nil {
		return ctx.App.Writer
	}
	return os.Stdout
}
