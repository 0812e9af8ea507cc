package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/asynkron/minipatch/internal/logging"
	"github.com/asynkron/minipatch/internal/series"
	"github.com/asynkron/minipatch/internal/stage"
	"github.com/asynkron/minipatch/pkg/patch"
)

// Run executes the command named by args[0]. It returns a POSIX-style exit
// code indicating whether execution succeeded.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return exitFailure
		}
	}

	cfg, err := LoadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitFailure
	}

	cmd := &command{
		cfg:    cfg,
		logger: logging.NewStdLogger(cfg.LogLevel, stderr),
		out:    newPrinter(stdout, stderr, cfg.NoColor),
	}

	if len(args) == 0 {
		cmd.out.usage(stderr)
		return exitFailure
	}
	switch args[0] {
	case "help", "-h", "--help":
		cmd.out.usage(stdout)
		return exitOK
	case "apply":
		return cmd.apply(ctx, args[1:])
	case "parse":
		return cmd.parse(args[1:])
	case "series":
		return cmd.series(ctx, args[1:])
	case "install":
		return cmd.install(ctx, args[1:])
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		cmd.out.usage(stderr)
		return exitFailure
	}
}

type command struct {
	cfg    Config
	logger logging.Logger
	out    *printer
}

func (c *command) flagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(c.out.stderr)
	flags.SortFlags = false
	return flags
}

// parseFlags parses args and checks that exactly one positional argument
// remains. A non-negative code means the command should return it.
func (c *command) parseFlags(flags *pflag.FlagSet, args []string, operand string) (string, int) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", exitOK
		}
		return "", exitFlags
	}
	if flags.NArg() != 1 {
		fmt.Fprintf(c.out.stderr, "%s: expected exactly one %s argument\n", flags.Name(), operand)
		return "", exitFailure
	}
	return flags.Arg(0), -1
}

func (c *command) apply(ctx context.Context, args []string) int {
	flags := c.flagSet("apply")
	ignore := flags.BoolP("ignore-already-patched", "i", c.cfg.IgnoreAlreadyPatched, "ignore hunks that are already applied")
	directory := flags.StringP("directory", "d", c.cfg.Directory, "directory to apply the patch in")
	patchFile, code := c.parseFlags(flags, args, "<patchfile>")
	if code >= 0 {
		return code
	}

	runner := c.runner(*ignore)
	outcome, err := runner.Apply(ctx, series.Entry{File: patchFile, Directory: *directory}, "")
	if err != nil {
		return c.out.fail(err)
	}
	c.logger.Info(ctx, "patch applied", logging.F("patch", patchFile), logging.F("hunks", len(outcome.Results)))
	return exitOK
}

func (c *command) parse(args []string) int {
	flags := c.flagSet("parse")
	patchFile, code := c.parseFlags(flags, args, "<patchfile>")
	if code >= 0 {
		return code
	}

	doc, err := patch.ParseFile(patchFile)
	if err != nil {
		return c.out.fail(err)
	}
	c.out.dump(doc)
	for _, issue := range patch.Lint(doc) {
		c.out.noticef("warning: %s", issue)
	}
	return exitOK
}

func (c *command) series(ctx context.Context, args []string) int {
	flags := c.flagSet("series")
	ignore := flags.BoolP("ignore-already-patched", "i", c.cfg.IgnoreAlreadyPatched, "ignore hunks that are already applied in every patch")
	manifestPath, code := c.parseFlags(flags, args, "<manifest>")
	if code >= 0 {
		return code
	}

	manifest, err := series.Load(manifestPath)
	if err != nil {
		return c.out.fail(err)
	}
	outcomes, err := c.runner(*ignore).Run(ctx, manifest)
	for _, outcome := range outcomes {
		applied, skipped := 0, 0
		for _, result := range outcome.Results {
			if result.Status == patch.StatusAlreadyPatched {
				skipped++
				continue
			}
			applied++
		}
		c.out.successf("Applied %s: %d hunk(s), %d already patched", outcome.Entry.File, applied, skipped)
	}
	if err != nil {
		return c.out.fail(err)
	}
	return exitOK
}

func (c *command) install(ctx context.Context, args []string) int {
	flags := c.flagSet("install")
	src := flags.String("src", "", "source directory to install")
	dest := flags.String("dest", "", "install directory, created if necessary")
	basename := flags.String("dest-basename", "", "name of the installed directory inside --dest (default: base name of --src)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitFlags
	}
	if strings.TrimSpace(*src) == "" {
		fmt.Fprintln(c.out.stderr, "install: --src is required")
		return exitFlags
	}

	installed, err := stage.Install(ctx, stage.Options{
		Src:      *src,
		Dest:     *dest,
		Basename: *basename,
		Logger:   c.logger,
	})
	if err != nil {
		return c.out.fail(err)
	}
	if installed == "" {
		c.out.noticef("install_src: source not installed, no destination specified")
		return exitOK
	}
	c.out.successf("install_src: installed %s -> %s", *src, installed)
	return exitOK
}

func (c *command) runner(ignore bool) *series.Runner {
	return &series.Runner{
		Logger:               c.logger,
		IgnoreAlreadyPatched: ignore,
		OnSkipped: func(_ series.Entry, result patch.Result) {
			c.out.noticef("Ignoring already patched file: %s", patch.FormatError(result.Skipped))
		},
	}
}
