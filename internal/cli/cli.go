package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/nikicat/rhsm-facts/internal/version"
)

// ExitUsage is the exit code for invalid options (EX_USAGE).
const ExitUsage = 64

// abstractName marks a placeholder command that must not be registered.
const abstractName = "cli"

// CLI maps command names and aliases to commands.
type CLI struct {
	progName string
	commands map[string]Command
	aliases  map[string]Command

	Stdout io.Writer
	Stderr io.Writer
}

// New registers cmds under their names and aliases.
func New(progName string, cmds ...Command) *CLI {
	slog.Info("client versions", "versions", version.ClientVersions())

	c := &CLI{
		progName: progName,
		commands: make(map[string]Command),
		aliases:  make(map[string]Command),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
	for _, cmd := range cmds {
		if cmd.Name() == abstractName {
			continue
		}
		c.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			c.aliases[alias] = cmd
		}
	}
	return c
}

// Commands returns the registered commands sorted by name.
func (c *CLI) Commands() []Command {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	cmds := make([]Command, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, c.commands[name])
	}
	return cmds
}

// FindBestMatch finds the command named by the longest run of leading
// positional words, so "service install" beats "service". Arguments
// starting with '-' are skipped when matching. The returned args are the
// input with the matched words removed.
func (c *CLI) FindBestMatch(args []string) (Command, []string) {
	var words []int
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			words = append(words, i)
		}
	}

	for n := len(words); n > 0; n-- {
		key := make([]string, n)
		for j := range n {
			key[j] = args[words[j]]
		}
		name := strings.Join(key, " ")

		cmd, ok := c.commands[name]
		if !ok {
			cmd, ok = c.aliases[name]
		}
		if !ok {
			continue
		}

		rest := make([]string, 0, len(args)-n)
		for i, arg := range args {
			if !slices.Contains(words[:n], i) {
				rest = append(rest, arg)
			}
		}
		return cmd, rest
	}
	return nil, nil
}

// Main runs the command named in args and returns the process exit code.
func (c *CLI) Main(args []string) int {
	if len(args) < 1 {
		c.Usage()
		return 0
	}

	cmd, rest := c.FindBestMatch(args)
	if cmd == nil {
		c.Usage()
		if helpOnly(args) {
			return 0
		}
		return 1
	}

	err := cmd.Main(rest)
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrHelp) {
		return 0
	}
	var invalid *InvalidOptionError
	if errors.As(err, &invalid) {
		fmt.Fprintln(c.Stderr, invalid.Msg)
		return ExitUsage
	}
	fmt.Fprintf(c.Stderr, "error: %v\n", err)
	return 1
}

// helpOnly reports whether an unmatched command line only asked for help.
func helpOnly(args []string) bool {
	if len(args) == 1 {
		return args[0] == "--help" || args[0] == "-h"
	}
	return len(args) > 1 && args[1] == "--help"
}

// Usage prints the program synopsis and the command list, primary
// commands first.
func (c *CLI) Usage() {
	fmt.Fprintf(c.Stdout, "Usage: %s MODULE-NAME [MODULE-OPTIONS] [--help]\n\n", c.progName)

	var primary, other []Command
	for _, cmd := range c.Commands() {
		if cmd.Primary() {
			primary = append(primary, cmd)
		} else {
			other = append(other, cmd)
		}
	}

	width := 0
	for _, cmd := range c.commands {
		width = max(width, runewidth.StringWidth(cmd.Name()))
	}

	section := func(title string, cmds []Command) {
		fmt.Fprintf(c.Stdout, "%s\n\n", title)
		for _, cmd := range cmds {
			fmt.Fprintf(c.Stdout, "  %s  %s\n", runewidth.FillRight(cmd.Name(), width), cmd.ShortDesc())
		}
		fmt.Fprintln(c.Stdout)
	}
	section("Primary Modules:", primary)
	section("Other Modules:", other)
}

var (
	exitFunc           = os.Exit
	stderr   io.Writer = os.Stderr
)

// SystemExit prints msgs on stderr, one per line, and exits with code.
func SystemExit(code int, msgs ...any) {
	for _, msg := range msgs {
		if err, ok := msg.(error); ok {
			msg = err.Error()
		}
		fmt.Fprintln(stderr, msg)
	}
	exitFunc(code)
}
