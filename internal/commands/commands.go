// Package commands implements the rhsm-facts command line modules.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/nikicat/rhsm-facts/internal/cli"
	"github.com/nikicat/rhsm-facts/internal/clock"
	"github.com/nikicat/rhsm-facts/internal/config"
	"github.com/nikicat/rhsm-facts/internal/facts"
	"github.com/nikicat/rhsm-facts/internal/hwprobe"
	"github.com/nikicat/rhsm-facts/internal/logging"
)

const configUsage = "path to config file (default: $XDG_CONFIG_HOME/rhsm-facts/config.yaml)"

// methodsFunc supplies the hardware methods. Replaced in tests.
var methodsFunc = hwprobe.Default

// All returns every command, writing normal output to out.
func All(out io.Writer) []cli.Command {
	return []cli.Command{
		NewFactsCommand(out),
		NewArchCommand(out),
		NewDaemonCommand(),
		NewServiceInstallCommand(out),
		NewServiceUninstallCommand(out),
		NewServiceStatusCommand(out),
		NewVersionCommand(out),
	}
}

// setupLogging installs the process logger. Empty values keep the given
// defaults.
func setupLogging(level, format, defaultLevel string) {
	if level == "" {
		level = defaultLevel
	}
	if format == "" {
		format = "text"
	}
	slog.SetDefault(logging.Setup(level, format, os.Stderr))
}

// newCachedCollector builds the collector stack described by cfg.
func newCachedCollector(cfg *config.Config, prefix string, clk clock.Clock) (*facts.CachedCollector, error) {
	var codec facts.Codec
	if cfg.Facts.CacheFormat != "" {
		var err error
		codec, err = facts.CodecByName(cfg.Facts.CacheFormat)
		if err != nil {
			return nil, err
		}
	}

	cache := facts.NewCache(cfg.CacheFile(), codec, nil)

	// The last completed run, fresh or not, is context for probes such as
	// virt that build on facts gathered by others.
	var prior facts.Facts
	if last, ok := cache.Load(); ok {
		prior = last.Facts.Clone()
	}

	methods := hwprobe.Filter(methodsFunc(), cfg.Facts.DisabledProbes)
	collector, err := facts.NewCollector(facts.Options{
		Prefix:  prefix,
		Methods: methods,
		Clock:   clk,
		Prior:   prior,
	})
	if err != nil {
		return nil, err
	}

	return facts.NewCachedCollector(collector, cache, cfg.Freshness()), nil
}
