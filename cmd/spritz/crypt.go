package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/codahale/spritz/internal/envelope"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// ext is the extension given to encrypted files.
const ext = ".spritz"

var (
	passwordFlag = &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "password to encrypt or decrypt with",
		EnvVars: []string{"SPRITZ_PASSWORD"},
	}
	passwordFileFlag = &cli.PathFlag{
		Name:  "password.file",
		Usage: "file containing the password",
	}
	outDirFlag = &cli.PathFlag{
		Name:    "odir",
		Aliases: []string{"o"},
		Usage:   "directory to write output files to",
	}
	argonTimeFlag = &cli.UintFlag{
		Name:  "argon2.time",
		Usage: "Argon2id passes",
	}
	argonMemoryFlag = &cli.UintFlag{
		Name:  "argon2.memory",
		Usage: "Argon2id memory in KiB",
	}
	argonThreadsFlag = &cli.UintFlag{
		Name:  "argon2.threads",
		Usage: "Argon2id threads",
	}
)

var encryptCommand = &cli.Command{
	Name:      "encrypt",
	Usage:     "Encrypt files with a password",
	ArgsUsage: "[file ...]",
	Description: `Encrypts each file to a new file with a .spritz extension. With no arguments, or with "-", standard
input is encrypted to standard output.`,
	Flags: []cli.Flag{
		passwordFlag, passwordFileFlag, outDirFlag, jobsFlag,
		argonTimeFlag, argonMemoryFlag, argonThreadsFlag,
	},
	Action: func(ctx *cli.Context) error {
		return cryptFiles(ctx, encryptFile, true)
	},
}

var decryptCommand = &cli.Command{
	Name:      "decrypt",
	Usage:     "Decrypt files with a password",
	ArgsUsage: "[file ...]",
	Flags:     []cli.Flag{passwordFlag, passwordFileFlag, outDirFlag, jobsFlag},
	Action: func(ctx *cli.Context) error {
		return cryptFiles(ctx, decryptFile, false)
	},
}

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Check that files can be decrypted with a password",
	ArgsUsage: "[file ...]",
	Flags:     []cli.Flag{passwordFlag, passwordFileFlag, jobsFlag},
	Action: func(ctx *cli.Context) error {
		return cryptFiles(ctx, checkFile, false)
	},
}

type cryptJob struct {
	ctx      *cli.Context
	cfg      *config
	log      *slog.Logger
	password []byte
}

// cryptFiles runs f on each file named by the command's arguments, with up to cfg.Jobs files in flight at once, and
// prints any lines f returns in argument order. If no password is given by flag, environment, or file, it is read from
// the terminal, twice if confirm is set.
func cryptFiles(ctx *cli.Context, f func(job *cryptJob, name string) (string, error), confirm bool) error {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	args := ctx.Args().Slice()
	if len(args) == 0 {
		args = []string{"-"}
	}
	if i := slices.Index(args, "-"); i >= 0 && slices.Contains(args[i+1:], "-") {
		return errStdinTwice
	}

	password, err := readSecret(ctx, passwordFlag, passwordFileFlag)
	if errors.Is(err, errMissingSecret) {
		password, err = promptPassword(confirm)
		if errors.Is(err, errNotTerminal) {
			err = fmt.Errorf("no password given: use --%s, --%s, or a terminal", passwordFlag.Name, passwordFileFlag.Name)
		}
	}
	if err != nil {
		return err
	}

	job := &cryptJob{ctx: ctx, cfg: &cfg, log: log, password: password}
	results := make([]string, len(args))

	var failures atomic.Int64
	var g errgroup.Group
	g.SetLimit(cfg.Jobs)
	for i, name := range args {
		g.Go(func() error {
			line, err := f(job, name)
			if err != nil {
				log.Error("failed to process file", "file", name, "err", err)
				failures.Add(1)
				return nil
			}
			results[i] = line
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

func encryptFile(job *cryptJob, name string) (string, error) {
	in, closeIn, err := openInput(job.ctx, name)
	if err != nil {
		return "", err
	}
	defer closeIn()

	outName := "-"
	if name != "-" {
		outName = job.outPath(name + ext)
	}

	out, closeOut, err := openOutput(job.ctx, outName)
	if err != nil {
		return "", err
	}

	w, err := envelope.NewWriter(out, job.password, job.cfg.Argon2, rand.Reader)
	if err == nil {
		_, err = io.Copy(w, in)
	}
	if err := closeOutput(outName, closeOut, err); err != nil {
		return "", err
	}

	job.log.Info("encrypted file", "in", name, "out", outName)
	return "", nil
}

func decryptFile(job *cryptJob, name string) (string, error) {
	in, closeIn, err := openInput(job.ctx, name)
	if err != nil {
		return "", err
	}
	defer closeIn()

	// Check the password before creating the output file.
	r, err := envelope.NewReader(in, job.password)
	if err != nil {
		return "", err
	}

	outName := "-"
	if name != "-" {
		if trimmed, ok := strings.CutSuffix(name, ext); ok {
			outName = job.outPath(trimmed)
		} else {
			outName = job.outPath(name + ".decrypted")
		}
	}

	out, closeOut, err := openOutput(job.ctx, outName)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(out, r)
	if err := closeOutput(outName, closeOut, err); err != nil {
		return "", err
	}

	job.log.Info("decrypted file", "in", name, "out", outName)
	return "", nil
}

func checkFile(job *cryptJob, name string) (string, error) {
	in, closeIn, err := openInput(job.ctx, name)
	if err != nil {
		return "", err
	}
	defer closeIn()

	h, err := envelope.ReadHeader(in, job.password)
	if err != nil {
		return "", err
	}

	job.log.Debug("checked file", "file", name,
		"argon2.time", h.Time, "argon2.memory", h.Memory, "argon2.threads", h.Threads)
	return name + ": ok", nil
}

// outPath places name in the configured output directory, if there is one.
func (job *cryptJob) outPath(name string) string {
	if job.cfg.Crypt.OutDir == "" {
		return name
	}
	return filepath.Join(job.cfg.Crypt.OutDir, filepath.Base(name))
}

// openOutput creates the named file, or returns the app's writer if name is "-".
func openOutput(ctx *cli.Context, name string) (io.Writer, func() error, error) {
	if name == "-" {
		return output(ctx), func() error { return nil }, nil
	}

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// closeOutput closes the named output. If copyErr is set, or the close fails, a partially written file is removed.
func closeOutput(name string, closeOut func() error, copyErr error) error {
	err := errors.Join(copyErr, closeOut())
	if err != nil && name != "-" {
		_ = os.Remove(name)
	}
	return err
}

var errStdinTwice = errors.New(`"-" may only be given once`)
