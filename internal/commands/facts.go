package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nikicat/rhsm-facts/internal/cli"
	"github.com/nikicat/rhsm-facts/internal/clock"
	"github.com/nikicat/rhsm-facts/internal/config"
)

// FactsCommand lists, updates, or reports on the system facts.
type FactsCommand struct {
	*cli.Base
	out   io.Writer
	clock clock.Clock

	list       bool
	update     bool
	status     bool
	asJSON     bool
	configPath string
	prefix     string
}

// NewFactsCommand creates the "facts" command.
func NewFactsCommand(out io.Writer) *FactsCommand {
	c := &FactsCommand{
		Base:  cli.NewBase("facts", "View and update detected system information", true, "fact"),
		out:   out,
		clock: clock.Real(),
	}
	fs := c.Flags
	fs.BoolVar(&c.list, "list", false, "list known facts for this system (default)")
	fs.BoolVar(&c.update, "update", false, "collect and store the system facts now")
	fs.BoolVar(&c.status, "status", false, "show when the stored facts were collected")
	fs.BoolVar(&c.asJSON, "json", false, "output as JSON")
	fs.StringVar(&c.configPath, "config", "", configUsage)
	fs.StringVar(&c.prefix, "prefix", "", "treat this directory as the system root")
	c.SetValidate(c.validate)
	return c
}

func (c *FactsCommand) validate() error {
	if c.Flags.NArg() > 0 {
		return &cli.InvalidOptionError{Msg: fmt.Sprintf("unexpected argument: %s", c.Flags.Arg(0))}
	}
	if c.status && c.list {
		return &cli.InvalidOptionError{Msg: "--status and --list are mutually exclusive"}
	}
	return nil
}

// Main runs the command.
func (c *FactsCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat, "warn")

	prefix := cfg.Prefix
	if c.Flags.Changed("prefix") {
		prefix = c.prefix
	}

	collector, err := newCachedCollector(cfg, prefix, c.clock)
	if err != nil {
		return err
	}

	ctx := context.Background()
	formatter := cli.NewFormatter(c.out, c.asJSON)

	if c.update {
		if _, err := collector.Refresh(ctx); err != nil {
			return fmt.Errorf("update facts: %w", err)
		}
		if !c.asJSON {
			fmt.Fprintln(c.out, "Successfully updated the system facts.")
		}
	}

	if c.status {
		coll, ok := collector.Cache().Load()
		if !ok {
			coll = nil
		}
		return formatter.FormatStatus(coll, c.clock.Now(), collector.Threshold())
	}

	if c.list || !c.update {
		coll, hit := collector.Lookup(ctx)
		if !hit {
			if _, err := collector.SaveToCache(coll); err != nil {
				slog.Warn("failed to save facts cache", "path", collector.Cache().Path(), "error", err)
			}
		}
		return formatter.FormatFacts(coll)
	}
	return nil
}
