package commands

import (
	"fmt"
	"io"

	"github.com/nikicat/rhsm-facts/internal/arch"
	"github.com/nikicat/rhsm-facts/internal/cli"
)

// ArchCommand prints the system architecture.
type ArchCommand struct {
	*cli.Base
	out    io.Writer
	prefix string
}

// NewArchCommand creates the "arch" command.
func NewArchCommand(out io.Writer) *ArchCommand {
	c := &ArchCommand{
		Base: cli.NewBase("arch", "Print the system architecture", false),
		out:  out,
	}
	c.Flags.StringVar(&c.prefix, "prefix", arch.DefaultPrefix, "read an architecture override from PREFIX/arch")
	return c
}

// Main runs the command.
func (c *ArchCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}
	a, err := arch.GetArch(c.prefix)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, a)
	return err
}
