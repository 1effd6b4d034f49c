package commands

import (
	"fmt"
	"io"

	"github.com/nikicat/rhsm-facts/internal/cli"
	"github.com/nikicat/rhsm-facts/internal/version"
)

// VersionCommand prints version information.
type VersionCommand struct {
	*cli.Base
	out io.Writer
}

// NewVersionCommand creates the "version" command.
func NewVersionCommand(out io.Writer) *VersionCommand {
	return &VersionCommand{
		Base: cli.NewBase("version", "Print version information", false),
		out:  out,
	}
}

// Main runs the command.
func (c *VersionCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}
	versions := version.ClientVersions()
	fmt.Fprintf(c.out, "%s: %s\n", cli.ProgName, versions["rhsm-facts"])
	fmt.Fprintf(c.out, "go: %s\n", versions["go"])
	return nil
}
