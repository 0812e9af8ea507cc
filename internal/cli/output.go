package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/asynkron/minipatch/internal/series"
	"github.com/asynkron/minipatch/pkg/patch"
)

// Exit codes. Every fatal patch error kind gets its own status.
const (
	exitOK             = 0
	exitFailure        = 1
	exitFlags          = 2
	exitMismatch       = 3
	exitMalformed      = 4
	exitAlreadyPatched = 5
	exitIO             = 6
)

const usageMarkdown = "# minipatch\n\n" +
	"Applies patches written in a subset of the unified diff format, checking that every target file " +
	"still holds the lines a hunk expects before rewriting it.\n\n" +
	"## Usage\n\n" +
	"```\n" +
	"minipatch apply [-i|--ignore-already-patched] [-d|--directory DIR] <patchfile>\n" +
	"minipatch parse <patchfile>\n" +
	"minipatch series [-i|--ignore-already-patched] <manifest>\n" +
	"minipatch install --src DIR [--dest DIR] [--dest-basename NAME]\n" +
	"minipatch help\n" +
	"```\n\n" +
	"## Commands\n\n" +
	"- `apply` applies every hunk of the patch. `-i` skips hunks that are already applied, " +
	"`-d` resolves the patch and its targets inside DIR.\n" +
	"- `parse` prints the parsed structure of the patch without touching any file.\n" +
	"- `series` applies the patches listed in a YAML or JSON manifest, in order.\n" +
	"- `install` replaces DEST/NAME with a copy of the source tree.\n\n" +
	"## Environment\n\n" +
	"- `MINIPATCH_LOG_LEVEL` sets the log level (debug, info, warn, error).\n" +
	"- `MINIPATCH_IGNORE_ALREADY_PATCHED` sets the default of `-i`.\n" +
	"- `MINIPATCH_DIRECTORY` sets the default of `-d`.\n" +
	"- `NO_COLOR` disables coloured output.\n"

// printer renders user facing output. Diagnostics go through the logger.
type printer struct {
	stdout io.Writer
	stderr io.Writer
	color  bool

	notice  *color.Color
	failure *color.Color
	success *color.Color

	header lipgloss.Style
	insert lipgloss.Style
	delete lipgloss.Style
	plain  lipgloss.Style
}

func newPrinter(stdout, stderr io.Writer, noColor bool) *printer {
	enabled := !noColor && isTerminal(stdout)
	p := &printer{
		stdout:  stdout,
		stderr:  stderr,
		color:   enabled,
		notice:  color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
		success: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.notice, p.failure, p.success} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	renderer := lipgloss.NewRenderer(stdout)
	if !enabled {
		renderer.SetColorProfile(termenv.Ascii)
	}
	base := renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)
	p.header = base.Bold(true).Foreground(lipgloss.Color("12"))
	p.insert = base.Foreground(lipgloss.Color("10"))
	p.delete = base.Foreground(lipgloss.Color("9"))
	p.plain = base
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) usage(w io.Writer) {
	style := glamour.NoTTYStyle
	if p.color {
		style = glamour.DarkStyle
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(100))
	if err == nil {
		if rendered, renderErr := renderer.Render(usageMarkdown); renderErr == nil {
			fmt.Fprint(w, rendered)
			return
		}
	}
	fmt.Fprint(w, usageMarkdown)
}

func (p *printer) noticef(format string, args ...any) {
	p.notice.Fprintf(p.stdout, format+"\n", args...)
}

func (p *printer) successf(format string, args ...any) {
	p.success.Fprintf(p.stdout, format+"\n", args...)
}

// fail reports err on stderr and returns the matching exit code.
func (p *printer) fail(err error) int {
	message := err.Error()
	var pe *patch.Error
	if errors.As(err, &pe) {
		message = patch.FormatError(pe)
	}
	p.failure.Fprint(p.stderr, "error: ")
	fmt.Fprintln(p.stderr, message)
	return exitCode(err)
}

func exitCode(err error) int {
	switch patch.CodeOf(err) {
	case patch.CodeContentMismatch:
		return exitMismatch
	case patch.CodeMalformedPatch:
		return exitMalformed
	case patch.CodeAlreadyPatched:
		return exitAlreadyPatched
	case patch.CodeIO:
		return exitIO
	}
	var verr *series.ValidationError
	if errors.As(err, &verr) {
		return exitMalformed
	}
	return exitFailure
}

// dump prints the structure of doc, one hunk header per region followed by
// its classified lines.
func (p *printer) dump(doc *patch.Document) {
	fmt.Fprintln(p.stdout, p.header.Render("Patch: "+doc.Source))
	for _, hunk := range doc.Hunks {
		fmt.Fprintln(p.stdout, p.header.Render(fmt.Sprintf("Hunk: %s %d,%d", hunk.Path, hunk.Start, hunk.Span)))
		for _, line := range hunk.Lines {
			style := p.plain
			switch line.Kind {
			case patch.LineInsert:
				style = p.insert
			case patch.LineDelete:
				style = p.delete
			}
			fmt.Fprintln(p.stdout, style.Render(line.String()))
		}
	}
}
