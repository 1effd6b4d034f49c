package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikicat/rhsm-facts/internal/cli"
	"github.com/nikicat/rhsm-facts/internal/clock"
	"github.com/nikicat/rhsm-facts/internal/config"
	"github.com/nikicat/rhsm-facts/internal/daemon"
	"github.com/nikicat/rhsm-facts/internal/version"
)

// runDaemon is replaced in tests.
var runDaemon = daemon.Run

// DaemonCommand runs the D-Bus facts service.
type DaemonCommand struct {
	*cli.Base

	configPath string
	busAddress string
	sessionBus bool
	prefix     string
	logLevel   string
	logFormat  string
}

// NewDaemonCommand creates the "daemon" command.
func NewDaemonCommand() *DaemonCommand {
	c := &DaemonCommand{
		Base: cli.NewBase("daemon", "Serve system facts on D-Bus", false, "serve"),
	}
	fs := c.Flags
	fs.StringVar(&c.configPath, "config", "", configUsage)
	fs.StringVar(&c.busAddress, "bus-address", "", "D-Bus address to serve on (default: system bus)")
	fs.BoolVar(&c.sessionBus, "session-bus", false, "serve on the session bus")
	fs.StringVar(&c.prefix, "prefix", "", "treat this directory as the system root")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "text", "log format: text (colored) or json")
	c.SetValidate(func() error {
		if c.Flags.NArg() > 0 {
			return &cli.InvalidOptionError{Msg: "unexpected argument: " + c.Flags.Arg(0)}
		}
		return nil
	})
	return c
}

// Main runs the command.
func (c *DaemonCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return err
	}
	// Explicit flags win over the config file.
	set := c.Flags.Changed
	if !set("bus-address") && cfg.Daemon.BusAddress != "" {
		c.busAddress = cfg.Daemon.BusAddress
	}
	if !set("session-bus") && cfg.Daemon.SessionBus {
		c.sessionBus = true
	}
	if !set("prefix") && cfg.Prefix != "" {
		c.prefix = cfg.Prefix
	}
	if !set("log-level") && cfg.LogLevel != "" {
		c.logLevel = cfg.LogLevel
	}
	if !set("log-format") && cfg.LogFormat != "" {
		c.logFormat = cfg.LogFormat
	}
	if c.busAddress != "" && c.sessionBus {
		return &cli.InvalidOptionError{Msg: "--bus-address and --session-bus are mutually exclusive"}
	}

	setupLogging(c.logLevel, c.logFormat, "info")

	collector, err := newCachedCollector(cfg, c.prefix, clock.Real())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	err = runDaemon(ctx, daemon.Config{
		BusAddress: c.busAddress,
		SessionBus: c.sessionBus,
		Version:    version.String(),
		Collector:  collector,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
