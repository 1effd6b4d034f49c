package commands

import (
	"io"

	"github.com/nikicat/rhsm-facts/internal/cli"
	"github.com/nikicat/rhsm-facts/internal/service"
)

// Replaced in tests to avoid touching the user's systemd.
var (
	installService   = service.Install
	uninstallService = service.Uninstall
	serviceStatus    = service.Status
)

// ServiceInstallCommand installs the systemd user unit for the daemon.
type ServiceInstallCommand struct {
	*cli.Base
	out        io.Writer
	configPath string
	start      bool
}

// NewServiceInstallCommand creates the "service install" command.
func NewServiceInstallCommand(out io.Writer) *ServiceInstallCommand {
	c := &ServiceInstallCommand{
		Base: cli.NewBase("service install", "Install and enable the systemd user service", false),
		out:  out,
	}
	c.Flags.BoolVar(&c.start, "start", false, "start the service immediately after installing")
	c.Flags.StringVar(&c.configPath, "config", "", "config file path to embed in the unit file's ExecStart")
	return c
}

// Main runs the command.
func (c *ServiceInstallCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}
	return installService(service.Options{
		ConfigPath: c.configPath,
		Start:      c.start,
		Output:     c.out,
	})
}

// ServiceUninstallCommand removes the systemd user unit.
type ServiceUninstallCommand struct {
	*cli.Base
	out io.Writer
}

// NewServiceUninstallCommand creates the "service uninstall" command.
func NewServiceUninstallCommand(out io.Writer) *ServiceUninstallCommand {
	return &ServiceUninstallCommand{
		Base: cli.NewBase("service uninstall", "Stop, disable, and remove the systemd user service", false),
		out:  out,
	}
}

// Main runs the command.
func (c *ServiceUninstallCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}
	return uninstallService(c.out)
}

// ServiceStatusCommand shows the systemd status of the daemon.
type ServiceStatusCommand struct {
	*cli.Base
	out io.Writer
}

// NewServiceStatusCommand creates the "service status" command.
func NewServiceStatusCommand(out io.Writer) *ServiceStatusCommand {
	return &ServiceStatusCommand{
		Base: cli.NewBase("service status", "Show the service status", false),
		out:  out,
	}
}

// Main runs the command.
func (c *ServiceStatusCommand) Main(args []string) error {
	if err := c.Parse(args); err != nil {
		return err
	}
	return serviceStatus(c.out)
}
