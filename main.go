// rhsm-facts collects, caches and serves system facts for subscription
// management, from the command line or as a D-Bus daemon.
package main

import (
	"log/slog"
	"os"

	"github.com/nikicat/rhsm-facts/internal/cli"
	"github.com/nikicat/rhsm-facts/internal/commands"
	"github.com/nikicat/rhsm-facts/internal/logging"
)

func main() {
	slog.SetDefault(logging.Setup("warn", "text", os.Stderr))

	c := cli.New(cli.ProgName, commands.All(os.Stdout)...)
	cli.SystemExit(c.Main(os.Args[1:]))
}
